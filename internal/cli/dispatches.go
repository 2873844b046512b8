package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newDispatchesCmd(st *state) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dispatches",
		Short: "List recent analyze requests from the dispatch log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), st, func(app *AppContext) error {
				if app.DispatchLog == nil {
					return errNoDatabase
				}

				records, err := app.DispatchLog.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No dispatches recorded")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tTYPE\tTARGET\tSTATUS\tDURATION\tERROR")
				for _, r := range records {
					errMsg := ""
					if r.Error != nil {
						errMsg = *r.Error
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
						r.CreatedAt.Local().Format(time.DateTime), r.AnalysisType, r.Target,
						r.StatusCode, r.Duration.Round(time.Millisecond), errMsg)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum dispatches to list")
	return cmd
}
