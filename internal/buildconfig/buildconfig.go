// Package buildconfig exposes the values stamped into clubledger binaries at
// link time, e.g.
//
//	go build -ldflags "-X github.com/Harshitk-cp/clubledger/internal/buildconfig.version=v1.2.0 \
//	  -X github.com/Harshitk-cp/clubledger/internal/buildconfig.commit=$(git rev-parse --short HEAD)"
package buildconfig

import "runtime"

var (
	version = "dev"
	commit  = "unknown"
	date    = ""
)

// Version returns the release version, "dev" for local builds.
func Version() string {
	return version
}

func Commit() string {
	return commit
}

// Release is the identifier error reports are grouped by.
func Release() string {
	if commit == "unknown" {
		return "clubledger@" + version
	}
	return "clubledger@" + version + "+" + commit
}

// VersionInfo is served by GET /version.
func VersionInfo() map[string]string {
	info := map[string]string{
		"version": version,
		"commit":  commit,
		"go":      runtime.Version(),
	}
	if date != "" {
		info["built"] = date
	}
	return info
}
