package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mpylon/internal/infrastructure/config"
)

// state is shared by every command of one invocation.
type state struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "mpylon",
		Short: "Batch analysis client for recorded social data",
		Long: `mpylon builds frequency distribution and time series analyses from
workbook files and dispatches them to the remote analysis service.

Configuration is read from MPYLON_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, err := cfg.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st.cfg = cfg
			st.logger = logger
			return nil
		},
	}

	root.AddCommand(
		newAnalyzeCmd(st),
		newResultsCmd(st),
		newHashExistsCmd(st),
		newIdentityCmd(st),
		newSchemaCmd(st),
		newDispatchesCmd(st),
		newMigrateCmd(st),
	)
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
