package main

import (
	"errors"
	"fmt"

	"github.com/Harshitk-cp/clubledger/internal/importer"
	"github.com/spf13/cobra"
)

func newImportMembersCmd(e *env) *cobra.Command {
	var (
		tenantFlag      string
		fileFlag        string
		emailColumnFlag string
		nameColumnFlag  string
		deleteFlag      bool
	)

	cmd := &cobra.Command{
		Use:   "import-members",
		Short: "Attach the users listed in a CSV file to a tenant.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tenantFlag == "" || fileFlag == "" {
				_ = cmd.Usage()
				return fail(1, errors.New("--tenant and --file are required"))
			}

			rt, err := e.open(cmd.Context())
			if err != nil {
				return fail(1, err)
			}
			defer rt.close()

			tenant, err := rt.tenants.FindTenant(cmd.Context(), tenantFlag)
			if err != nil {
				return fail(1, fmt.Errorf("%w: %s", err, tenantFlag))
			}

			mapping := importer.ColumnMapping{Email: emailColumnFlag, Name: nameColumnFlag}
			sum, err := rt.importer.Import(cmd.Context(), fileFlag, tenant.ID, mapping, importer.Options{DeleteOnSuccess: deleteFlag})
			fmt.Fprintf(e.stdout, "Imported %d members into %s, skipped %d blank rows\n", sum.Imported, tenant.Slug, sum.Skipped)
			for _, re := range sum.Errors {
				fmt.Fprintf(e.stderr, "  %v\n", re)
			}
			if err != nil {
				return fail(1, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "Tenant id or slug to import into")
	cmd.Flags().StringVar(&fileFlag, "file", "", "Path to the CSV file")
	cmd.Flags().StringVar(&emailColumnFlag, "email-column", "email", "Header of the email column")
	cmd.Flags().StringVar(&nameColumnFlag, "name-column", "name", "Header of the name column")
	cmd.Flags().BoolVar(&deleteFlag, "delete-on-success", false, "Remove the file once every row was imported")
	return cmd
}
