// Package monitoring reports dependency failures to the error-tracking sink.
package monitoring

import (
	"context"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/buildconfig"
	"github.com/getsentry/sentry-go"
)

// Reporter captures errors with structured context.
type Reporter interface {
	Capture(ctx context.Context, err error, tags map[string]string)
	Flush(timeout time.Duration)
}

type SentryConfig struct {
	DSN         string
	Environment string
}

// NewReporter returns a Sentry-backed reporter, or a no-op reporter when no
// DSN is configured. The bool reports whether Sentry was started.
func NewReporter(cfg SentryConfig) (Reporter, bool, error) {
	if cfg.DSN == "" {
		return Nop{}, false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          buildconfig.Release(),
		TracesSampleRate: 0,
	})
	if err != nil {
		return Nop{}, false, err
	}
	return &SentryReporter{hub: sentry.CurrentHub()}, true, nil
}

type SentryReporter struct {
	hub *sentry.Hub
}

func (r *SentryReporter) Capture(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := r.hub
	if h := sentry.GetHubFromContext(ctx); h != nil {
		hub = h
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

func (r *SentryReporter) Flush(timeout time.Duration) {
	r.hub.Flush(timeout)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Capture(context.Context, error, map[string]string) {}
func (Nop) Flush(time.Duration)                               {}
