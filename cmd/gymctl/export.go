package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/2beens/gymtracker/internal/history"
	"github.com/2beens/gymtracker/internal/rowstore"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func writeCSV(w io.Writer, h *history.History) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		rowstore.ColDate, rowstore.ColDay, rowstore.ColExercise, rowstore.ColSet, rowstore.ColWeight, rowstore.ColReps,
	}); err != nil {
		return err
	}
	for _, e := range h.Entries {
		weight := ""
		if e.Weight != nil {
			weight = fmt.Sprintf("%g", *e.Weight)
		}
		if err := cw.Write([]string{e.RawDate, e.Day, e.Exercise, e.Set, weight, e.Reps}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <username>",
		Short: "Export the logged sets of a user as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			h, err := history.NewService(a.backend.Store, a.cfg.LogTable).LoadHistory(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}

			if output == "" {
				return writeCSV(cmd.OutOrStdout(), h)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := f.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			if err := writeCSV(f, h); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ exported %d sets to %s\n", len(h.Entries), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}
