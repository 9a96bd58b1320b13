package main

import (
	"fmt"

	"github.com/2beens/gymtracker/internal/routines"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRoutinesCmd(a *app) *cobra.Command {
	var showExercises bool

	cmd := &cobra.Command{
		Use:   "routines",
		Short: "List the training days and their exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			catalog := routines.NewCatalog(a.backend.Store)

			list, source, err := catalog.ListRoutines(cmd.Context())
			if err != nil {
				return fmt.Errorf("list routines: %w", err)
			}

			bold := color.New(color.Bold)
			for _, r := range list {
				bold.Fprintln(out, r.Day)
				for _, e := range r.Exercises {
					fmt.Fprintf(out, "  - %s\n", e)
				}
			}
			color.New(color.Faint).Fprintf(out, "(source: %s)\n", source)

			if !showExercises {
				return nil
			}

			exercises, err := catalog.ListExercises(cmd.Context())
			if err != nil {
				return fmt.Errorf("list exercises: %w", err)
			}
			fmt.Fprintln(out)
			bold.Fprintln(out, "Exercises")
			for _, e := range exercises {
				fmt.Fprintf(out, "  %s  %s\n", e.Name, e.ImageURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showExercises, "exercises", false, "also list the exercise catalog")

	return cmd
}
