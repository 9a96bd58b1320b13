package routines

import (
	"context"
	"testing"

	"github.com/2beens/gymtracker/internal/rowstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_DefaultRoutines(t *testing.T) {
	ctx := context.Background()
	store := rowstore.NewMemoryStore()
	catalog := NewCatalog(store)

	// table missing
	routines, source, err := catalog.ListRoutines(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, source)
	assert.Equal(t, DefaultRoutines, routines)

	// table present but empty
	require.NoError(t, store.EnsureTable(ctx, rowstore.TableRoutines, rowstore.RoutinesHeader))
	_, source, err = catalog.ListRoutines(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, source)

	exercises, err := catalog.Routine(ctx, "Día 3: Pierna")
	require.NoError(t, err)
	assert.Equal(t, "Sentadilla", exercises[0])

	_, err = catalog.Routine(ctx, "Día 4: Descanso")
	assert.ErrorIs(t, err, ErrUnknownRoutine)
}

func TestCatalog_ConfiguredRoutines(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(rowstore.NewMemoryStore())

	require.NoError(t, catalog.AddRoutineExercise(ctx, "Full Body", "Sentadilla"))
	require.NoError(t, catalog.AddRoutineExercise(ctx, "Upper", "Press Banca"))
	require.NoError(t, catalog.AddRoutineExercise(ctx, "Full Body", "Dominadas"))
	// duplicates are accepted
	require.NoError(t, catalog.AddRoutineExercise(ctx, "Full Body", "Dominadas"))

	routines, source, err := catalog.ListRoutines(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceConfig, source)
	assert.Equal(t, []Routine{
		{Day: "Full Body", Exercises: []string{"Sentadilla", "Dominadas", "Dominadas"}},
		{Day: "Upper", Exercises: []string{"Press Banca"}},
	}, routines)

	assert.ErrorIs(t, catalog.AddRoutineExercise(ctx, " ", "Remo"), ErrInvalidInput)
}

func TestCatalog_Exercises(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(rowstore.NewMemoryStore())

	exercises, err := catalog.ListExercises(ctx)
	require.NoError(t, err)
	assert.Empty(t, exercises)

	require.NoError(t, catalog.AddExercise(ctx, "Fondos", " https://img/fondos.png "))
	require.NoError(t, catalog.AddExercise(ctx, "Hip Thrust", ""))
	assert.ErrorIs(t, catalog.AddExercise(ctx, "", "x"), ErrInvalidInput)

	exercises, err = catalog.ListExercises(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Exercise{
		{Name: "Fondos", ImageURL: "https://img/fondos.png"},
		{Name: "Hip Thrust"},
	}, exercises)
}

type brokenStore struct {
	*rowstore.MemoryStore
}

func (brokenStore) ReadAll(context.Context, string) ([]rowstore.Record, error) {
	return nil, rowstore.ErrConnection
}

func TestCatalog_ConnectionFailure(t *testing.T) {
	catalog := NewCatalog(brokenStore{rowstore.NewMemoryStore()})

	_, _, err := catalog.ListRoutines(context.Background())
	assert.ErrorIs(t, err, rowstore.ErrConnection)
	_, err = catalog.ListExercises(context.Background())
	assert.ErrorIs(t, err, rowstore.ErrConnection)
}
