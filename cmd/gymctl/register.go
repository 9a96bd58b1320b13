package main

import (
	"fmt"

	"github.com/2beens/gymtracker/internal/auth"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRegisterCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account in the Users table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credentials := auth.NewCredentials(a.backend.Store, auth.CredentialsParams{
				MinUsernameLen: a.cfg.MinUsernameLen,
				HashPasswords:  a.cfg.PasswordHashing,
			})
			if err := credentials.Register(cmd.Context(), args[0], password, password); err != nil {
				return fmt.Errorf("register %s: %w", args[0], err)
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ registered %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password of the new account")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
