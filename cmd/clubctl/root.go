package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/importer"
	"github.com/Harshitk-cp/clubledger/internal/service"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Backfiller interface {
	Run(ctx context.Context, sel service.Selector, force bool, out io.Writer) (service.BackfillReport, error)
}

type MemberImporter interface {
	Import(ctx context.Context, path string, tenantID int64, mapping importer.ColumnMapping, opts importer.Options) (importer.Summary, error)
}

type TenantFinder interface {
	FindTenant(ctx context.Context, ref string) (*domain.Tenant, error)
}

// runtime is the set of services a subcommand works against. close releases
// the database pool and flushes error reports.
type runtime struct {
	backfill Backfiller
	importer MemberImporter
	tenants  TenantFinder
	logger   *zap.Logger
	close    func()
}

// env carries process-level dependencies so commands can run against fakes.
type env struct {
	stdout io.Writer
	stderr io.Writer
	// open connects to the database and builds the services.
	open func(ctx context.Context) (*runtime, error)
	// migrate applies the embedded schema migrations.
	migrate func(databaseURL string, logger *zap.Logger) error
}

func newEnv(stdout, stderr io.Writer) *env {
	return &env{
		stdout:  stdout,
		stderr:  stderr,
		open:    openRuntime,
		migrate: store.Migrate,
	}
}

// exitError carries a process exit code alongside the message printed to
// stderr.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error {
	return &exitError{code: code, err: err}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:               "clubctl",
		Short:             "Operate clubledger tenants, members and wallets.",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)

	root.AddCommand(
		newCreateUserWalletsCmd(e),
		newImportMembersCmd(e),
		newMigrateCmd(e),
		newVersionCmd(e),
	)
	return root
}

// execute runs the command line and maps the outcome to an exit code.
func execute(args []string, e *env) int {
	root := newRootCmd(e)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintf(e.stderr, "Error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}
