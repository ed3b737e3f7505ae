package main

import (
	"fmt"
	goruntime "runtime"

	"github.com/Harshitk-cp/clubledger/internal/buildconfig"
	"github.com/spf13/cobra"
)

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(e.stdout, "clubctl %s (commit %s, %s)\n", buildconfig.Version(), buildconfig.Commit(), goruntime.Version())
		},
	}
}
