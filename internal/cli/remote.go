package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHashExistsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-exists <hash>",
		Short: "Check whether the remote service knows a recording hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.cfg.RequireCredentials(); err != nil {
				return err
			}
			return withApp(cmd.Context(), st, func(app *AppContext) error {
				ok, err := app.Client.HashExists(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	}
}

func newIdentityCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "identity <id>",
		Short: "Check whether an identity exists on the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.cfg.RequireCredentials(); err != nil {
				return err
			}
			return withApp(cmd.Context(), st, func(app *AppContext) error {
				ok, err := app.Client.IdentityExists(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	}
}
