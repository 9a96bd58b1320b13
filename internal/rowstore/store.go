// Package rowstore abstracts the append-only table service the workout log
// lives in. A table is addressed by name and its first row is the header.
package rowstore

import (
	"context"
	"errors"
)

var (
	// ErrConnection means the backend is unreachable or rejected our credentials.
	ErrConnection = errors.New("row store connection failure")
	// ErrMissingTable means the addressed table (tab) does not exist.
	ErrMissingTable = errors.New("row store table missing")
)

const (
	TableUsers     = "Users"
	TableExercises = "Ejercicios"
	TableRoutines  = "Rutinas_Config"
)

// Column names, as they appear in the header rows.
const (
	ColUsername = "Usuario"
	ColPassword = "Password"

	ColDate     = "Fecha"
	ColDay      = "Día"
	ColExercise = "Ejercicio"
	ColSet      = "Serie"
	ColWeight   = "Peso"
	ColReps     = "Reps"

	ColName     = "Nombre"
	ColImageURL = "URL_Imagen"

	ColRoutine = "Rutina"
)

var (
	UsersHeader     = []string{ColUsername, ColPassword}
	LogHeader       = []string{ColDate, ColUsername, ColDay, ColExercise, ColSet, ColWeight, ColReps}
	ExercisesHeader = []string{ColName, ColImageURL}
	RoutinesHeader  = []string{ColRoutine, ColExercise}
)

// Row is a positional list of cells, in header order.
type Row []string

// Record is a row keyed by header names.
type Record map[string]string

// Store is the minimal row store: read everything, append rows.
// There is no update, delete, or isolation between concurrent writers.
type Store interface {
	ReadAll(ctx context.Context, table string) ([]Record, error)
	AppendRow(ctx context.Context, table string, row Row) error
	AppendRows(ctx context.Context, table string, rows []Row) error
	DistinctValues(ctx context.Context, table, column string) ([]string, error)
	// EnsureTable creates table with the given header if it does not exist yet.
	EnsureTable(ctx context.Context, table string, header []string) error
}

// toRecords zips every row with the header. Missing trailing cells become "".
func toRecords(header []string, rows [][]string) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// distinct returns the non-empty values of column in first-seen order.
func distinct(records []Record, column string) []string {
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, rec := range records {
		v, ok := rec[column]
		if !ok || v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

func distinctValues(ctx context.Context, s Store, table, column string) ([]string, error) {
	records, err := s.ReadAll(ctx, table)
	if err != nil {
		return nil, err
	}
	return distinct(records, column), nil
}
