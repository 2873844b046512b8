package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mpylon/internal/adapters/schema"
)

func newSchemaCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage stored target schemas",
	}

	importCmd := &cobra.Command{
		Use:   "import <schema.yaml>",
		Short: "Load a schema file into the database",
		Long: `Load a schema file into the database.

The default list and every subscription list replace what is stored for
them. Subscriptions not named in the file are left untouched.

Examples:
  mpylon schema import schema.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), st, func(app *AppContext) error {
				if app.SchemaRepo == nil {
					return errNoDatabase
				}

				doc, err := schema.LoadFile(args[0])
				if err != nil {
					return err
				}

				ctx := cmd.Context()
				if err := app.SchemaRepo.Import(ctx, "", doc.Objects("")); err != nil {
					return fmt.Errorf("failed to import default schema: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d default targets\n", len(doc.Default))

				subs := make([]string, 0, len(doc.Subscriptions))
				for sub := range doc.Subscriptions {
					subs = append(subs, sub)
				}
				sort.Strings(subs)
				for _, sub := range subs {
					if err := app.SchemaRepo.Import(ctx, sub, doc.Objects(sub)); err != nil {
						return fmt.Errorf("failed to import schema for %s: %w", sub, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Imported %d targets for %s\n", len(doc.Subscriptions[sub]), sub)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(importCmd)
	return cmd
}
