package rowstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/2beens/gymtracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{RowStore: config.RowStoreMemory, ConfigCacheTTLSecs: 60}

	backend, err := Open(ctx, cfg, &config.Secrets{}, false)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, backend.Close())
	}()
	assert.Nil(t, backend.Pool)

	require.NoError(t, EnsureTables(ctx, backend.Store, "Hoja 1"))
	for _, table := range []string{TableUsers, "Hoja 1", TableExercises, TableRoutines} {
		records, err := backend.Store.ReadAll(ctx, table)
		require.NoError(t, err, table)
		assert.Empty(t, records)
	}
}

func TestOpen_Badger(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		RowStore:   config.RowStoreBadger,
		BadgerPath: filepath.Join(t.TempDir(), "badger"),
	}

	backend, err := Open(ctx, cfg, &config.Secrets{}, false)
	require.NoError(t, err)
	require.NoError(t, EnsureTables(ctx, backend.Store, "log"))
	require.NoError(t, backend.Store.AppendRow(ctx, "log", Row{"2024-05-01", "ana", "Día 3: Pierna", "Sentadilla", "1", "80", "8"}))
	require.NoError(t, backend.Close())

	// reopen: rows persisted on disk
	backend, err = Open(ctx, cfg, &config.Secrets{}, false)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, backend.Close())
	}()
	records, err := backend.Store.ReadAll(ctx, "log")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Sentadilla", records[0][ColExercise])
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{RowStore: "csv"}, &config.Secrets{}, false)
	assert.Error(t, err)
}

func TestOpen_SheetsMissingCredentials(t *testing.T) {
	cfg := &config.Config{RowStore: config.RowStoreSheets, SheetsSpreadsheetID: "sheet-id"}
	secrets := &config.Secrets{SheetsCredentialsFile: filepath.Join(t.TempDir(), "credenciales.json")}

	_, err := Open(context.Background(), cfg, secrets, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) EnsureTable(context.Context, string, []string) error {
	return ErrConnection
}

func TestEnsureTables_CollectsErrors(t *testing.T) {
	err := EnsureTables(context.Background(), failingStore{NewMemoryStore()}, "log")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Contains(t, err.Error(), TableRoutines)
}
