package main

import (
	"errors"
	"fmt"

	"github.com/Harshitk-cp/clubledger/internal/service"
	"github.com/spf13/cobra"
)

func newCreateUserWalletsCmd(e *env) *cobra.Command {
	var (
		tenantFlag string
		allFlag    bool
		forceFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "create-user-wallets",
		Short: "Create missing wallets for the members of one tenant or all tenants.",
		Long: `Create a wallet for every member that does not have one yet.

Exactly one of --tenant or --all is required. Tenants with the wallet
feature disabled are skipped unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel := service.Selector{TenantRef: tenantFlag, All: allFlag}
			if err := sel.Validate(); err != nil {
				_ = cmd.Usage()
				return fail(1, err)
			}

			rt, err := e.open(cmd.Context())
			if err != nil {
				return fail(1, err)
			}
			defer rt.close()

			report, err := rt.backfill.Run(cmd.Context(), sel, forceFlag, e.stdout)
			if err != nil {
				if errors.Is(err, service.ErrTenantNotFound) || errors.Is(err, service.ErrInvalidSelector) {
					return fail(1, err)
				}
				return fail(1, fmt.Errorf("backfill failed: %w", err))
			}

			fmt.Fprintf(e.stdout, "Done: %d tenant(s), created %d wallets, skipped %d existing wallets\n",
				len(report.Tenants), report.Created, report.Skipped)
			if report.Errors != nil {
				fmt.Fprintf(e.stderr, "Some tenants reported errors:\n%v\n", report.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "Tenant id or slug to backfill")
	cmd.Flags().BoolVar(&allFlag, "all", false, "Backfill every tenant")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Create wallets even where the wallet feature is disabled")
	return cmd
}
