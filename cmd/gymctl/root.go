package main

import (
	"context"
	"fmt"

	"github.com/2beens/gymtracker/internal/config"
	"github.com/2beens/gymtracker/internal/rowstore"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type backendOpener func(ctx context.Context, cfg *config.Config) (*rowstore.Backend, error)

func openBackend(ctx context.Context, cfg *config.Config) (*rowstore.Backend, error) {
	secrets, err := config.LoadSecrets(ctx)
	if err != nil {
		return nil, err
	}
	return rowstore.Open(ctx, cfg, secrets, false)
}

// app is what every subcommand works with, set up before the command runs.
type app struct {
	cfg     *config.Config
	backend *rowstore.Backend
}

func newRootCmd(open backendOpener) *cobra.Command {
	var (
		env        string
		configPath string
		verbose    bool
	)
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "gymctl",
		Short: "Admin tool for the gymtracker row store",
		Long: `gymctl works directly on the row store the gymtracker service uses.

EXAMPLES:

  gymctl register ana --password s3cret
  gymctl routines
  gymctl history ana --exercise Sentadilla
  gymctl export ana -o ana.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.WarnLevel)
			}

			cfg, err := config.Load(env, configPath)
			if err != nil {
				return err
			}

			backend, err := open(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open row store: %w", err)
			}

			a.cfg = cfg
			a.backend = backend
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.backend != nil {
				return a.backend.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment [prod | production | dev | development]")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.toml", "path for the TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newRegisterCmd(a),
		newHistoryCmd(a),
		newRoutinesCmd(a),
		newExportCmd(a),
	)

	return rootCmd
}
