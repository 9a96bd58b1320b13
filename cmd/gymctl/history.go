package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/2beens/gymtracker/internal/history"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func formatWeight(w *float64) string {
	if w == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *w)
}

func printEntries(out io.Writer, entries []history.Entry) {
	faint := color.New(color.Faint)
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-22s set %-3s %6s kg x %s\n",
			faint.Sprint(e.RawDate),
			e.Exercise,
			e.Set,
			formatWeight(e.Weight),
			e.Reps,
		)
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		exercise string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history <username>",
		Short: "Show the logged sets of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			h, err := history.NewService(a.backend.Store, a.cfg.LogTable).LoadHistory(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if h.NoData {
				fmt.Fprintln(out, "No data.")
				return nil
			}

			if exercise == "" {
				fmt.Fprintf(out, "%d sets logged, exercises: %s\n", len(h.Entries), strings.Join(h.Exercises(), ", "))
				printEntries(out, h.Recent(limit))
				return nil
			}

			series := h.ForExercise(exercise)
			if len(series) == 0 {
				fmt.Fprintf(out, "No data for %s.\n", exercise)
				return nil
			}
			printEntries(out, series)
			if heaviest, found := h.MaxWeight(exercise); found {
				color.New(color.Bold).Fprintf(out, "max weight: %g kg\n", heaviest)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&exercise, "exercise", "e", "", "show the series of one exercise")
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultRecent, "number of recent sets, 0 for all")

	return cmd
}
