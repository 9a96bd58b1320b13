package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/2beens/gymtracker/internal/auth"
	"github.com/2beens/gymtracker/internal/config"
	"github.com/2beens/gymtracker/internal/rowstore"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[development]
row_store = "memory"
log_table = "Hoja 1"
`

func newTestStore(t *testing.T) *rowstore.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := rowstore.NewMemoryStore()
	require.NoError(t, rowstore.EnsureTables(ctx, store, "Hoja 1"))
	require.NoError(t, store.AppendRows(ctx, "Hoja 1", []rowstore.Row{
		{"2024-05-01", "ana", "Día 3: Pierna", "Sentadilla", "1", "80", "8"},
		{"2024-05-01", "bob", "Día 3: Pierna", "Sentadilla", "1", "120", "5"},
		{"2024-05-03", "ana", "Día 3: Pierna", "Sentadilla", "1", "85,5", "6"},
		{"2024-05-03", "ana", "Día 3: Pierna", "Femoral", "1", "n/a", "12"},
	}))
	return store
}

func runGymctl(t *testing.T, store rowstore.Store, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o600))

	opener := func(context.Context, *config.Config) (*rowstore.Backend, error) {
		return &rowstore.Backend{Store: store}, nil
	}

	var out bytes.Buffer
	cmd := newRootCmd(opener)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRegister(t *testing.T) {
	store := newTestStore(t)

	out, err := runGymctl(t, store, "register", "carla", "--password", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "registered carla")

	username, err := auth.NewCredentials(store, auth.CredentialsParams{}).
		Authenticate(context.Background(), "carla", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "carla", username)

	_, err = runGymctl(t, store, "register", "carla", "--password", "other")
	assert.ErrorIs(t, err, auth.ErrDuplicateUser)

	_, err = runGymctl(t, store, "register", "carla")
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	store := newTestStore(t)

	out, err := runGymctl(t, store, "history", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "3 sets logged, exercises: Sentadilla, Femoral")
	assert.NotContains(t, out, "120")

	out, err = runGymctl(t, store, "history", "ana", "--exercise", "Sentadilla")
	require.NoError(t, err)
	assert.Contains(t, out, "max weight: 85.5 kg")

	out, err = runGymctl(t, store, "history", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "No data.")
}

func TestRoutines(t *testing.T) {
	out, err := runGymctl(t, rowstore.NewMemoryStore(), "routines")
	require.NoError(t, err)
	assert.Contains(t, out, "Día 3: Pierna")
	assert.Contains(t, out, "  - Sentadilla")
	assert.Contains(t, out, "(source: default)")
}

func TestExport(t *testing.T) {
	store := newTestStore(t)

	out, err := runGymctl(t, store, "export", "ana")
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Fecha", "Día", "Ejercicio", "Serie", "Peso", "Reps"}, records[0])
	assert.Equal(t, []string{"2024-05-03", "Día 3: Pierna", "Sentadilla", "1", "85.5", "6"}, records[2])
	assert.Equal(t, "", records[3][4])

	outFile := filepath.Join(t.TempDir(), "ana.csv")
	_, err = runGymctl(t, store, "export", "ana", "-o", outFile)
	require.NoError(t, err)
	written, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, out, string(written))
}
