package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mpylon/internal/migrate"
)

func newMigrateCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [version]",
		Short: "Run database migrations",
		Long: `Run database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  mpylon migrate      # Run all pending migrations
  mpylon migrate 1    # Migrate to version 1
  mpylon migrate 0    # Rollback all migrations`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), st, func(app *AppContext) error {
				if app.DB == nil {
					return errNoDatabase
				}
				return runMigrate(cmd, app, args)
			})
		},
	}
}

func runMigrate(cmd *cobra.Command, app *AppContext, args []string) error {
	ctx := cmd.Context()
	m := migrate.New(app.DB, app.Logger)

	all, err := migrate.Load()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	current, _, err := m.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d\n", current)

	var n int
	switch {
	case len(args) == 0:
		n, err = m.Up(ctx, all, 0)
	default:
		target, convErr := strconv.Atoi(args[0])
		if convErr != nil || target < 0 {
			return fmt.Errorf("invalid version number: %s", args[0])
		}
		switch {
		case target > current:
			n, err = m.Up(ctx, all, target)
		case target < current:
			n, err = m.Down(ctx, all, target)
		default:
			fmt.Fprintln(cmd.OutOrStdout(), "Already at target version")
			return nil
		}
	}
	if err != nil {
		return err
	}

	version, _, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Migrated to version %d (%d migrations applied)\n", version, n)
	}
	return nil
}
