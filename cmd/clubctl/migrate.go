package main

import (
	"fmt"

	"github.com/Harshitk-cp/clubledger/internal/config"
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = config.Load()
			dbURL := config.DatabaseURL()
			if dbURL == "" {
				return fail(1, errNoDatabase)
			}

			logger := newLogger()
			defer func() { _ = logger.Sync() }()

			if err := e.migrate(dbURL, logger); err != nil {
				return fail(1, err)
			}
			fmt.Fprintln(e.stdout, "Migrations applied")
			return nil
		},
	}
}
