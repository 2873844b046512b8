package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResultsCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Manage saved analysis results",
	}

	var output string
	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the results of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), st, func(app *AppContext) error {
				data, err := app.Results.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, data)
			})
		},
	}
	show.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	remove := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete the results of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), st, func(app *AppContext) error {
				ok, err := app.Results.Exists(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no saved results for run %s", args[0])
				}
				if err := app.Results.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(show, remove)
	return cmd
}
