// Package routines serves the training day catalog (Rutinas_Config) and the
// exercise catalog (Ejercicios). Both tables are optional.
package routines

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/gymtracker/internal/rowstore"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUnknownRoutine = errors.New("unknown routine")
	ErrInvalidInput   = errors.New("invalid input")
)

const (
	SourceConfig  = "config"
	SourceDefault = "default"
)

type Routine struct {
	Day       string   `json:"day"`
	Exercises []string `json:"exercises"`
}

type Exercise struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// DefaultRoutines are used while Rutinas_Config is missing or empty.
var DefaultRoutines = []Routine{
	{
		Day:       "Día 1: Pecho-Hombro-Tríceps",
		Exercises: []string{"Fondos", "Press Inclinado", "Pec Deck", "Elevaciones Laterales", "Press Militar", "Tríceps Polea"},
	},
	{
		Day:       "Día 2: Espalda-Bíceps",
		Exercises: []string{"Dominadas", "Remo Barra", "Jalón Pecho", "Face Pull", "Curl Bayesiano", "Curl Martillo"},
	},
	{
		Day:       "Día 3: Pierna",
		Exercises: []string{"Sentadilla", "Hip Thrust", "Peso Muerto Rumano", "Pantorrillas", "Femoral", "Abductores"},
	},
	{
		Day:       "Día 5: Torso",
		Exercises: []string{"Press Inclinado", "Press Banca", "Remo Barra", "Jalón Pecho", "Fondos Lastre"},
	},
	{
		Day:       "Día 6: Brazos",
		Exercises: []string{"Elevaciones Laterales", "Press Militar", "Press Francés", "Tríceps Polea", "Curl Araña", "Curl Martillo"},
	},
}

type Catalog struct {
	store rowstore.Store
}

func NewCatalog(store rowstore.Store) *Catalog {
	return &Catalog{store: store}
}

// ListRoutines groups Rutinas_Config rows by routine. Routine order is first
// appearance, exercise order is row order. The source tells whether the
// built-in defaults were used.
func (c *Catalog) ListRoutines(ctx context.Context) (_ []Routine, source string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.listRoutines")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	records, err := c.store.ReadAll(ctx, rowstore.TableRoutines)
	if errors.Is(err, rowstore.ErrMissingTable) {
		log.Debugf("catalog: %s missing, using default routines", rowstore.TableRoutines)
		return DefaultRoutines, SourceDefault, nil
	} else if err != nil {
		return nil, "", err
	}

	var routines []Routine
	index := make(map[string]int)
	for _, rec := range records {
		day := strings.TrimSpace(rec[rowstore.ColRoutine])
		exercise := strings.TrimSpace(rec[rowstore.ColExercise])
		if day == "" || exercise == "" {
			continue
		}
		i, ok := index[day]
		if !ok {
			i = len(routines)
			index[day] = i
			routines = append(routines, Routine{Day: day})
		}
		routines[i].Exercises = append(routines[i].Exercises, exercise)
	}

	if len(routines) == 0 {
		return DefaultRoutines, SourceDefault, nil
	}

	span.SetAttributes(attribute.Int("routines", len(routines)))
	return routines, SourceConfig, nil
}

// Routine returns the ordered exercises of the given training day.
func (c *Catalog) Routine(ctx context.Context, day string) ([]string, error) {
	routines, _, err := c.ListRoutines(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range routines {
		if r.Day == day {
			return r.Exercises, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRoutine, day)
}

// AddRoutineExercise appends a (routine, exercise) pair. Duplicates are not checked.
func (c *Catalog) AddRoutineExercise(ctx context.Context, routine, exercise string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.addRoutineExercise")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	routine = strings.TrimSpace(routine)
	exercise = strings.TrimSpace(exercise)
	if routine == "" || exercise == "" {
		return fmt.Errorf("%w: routine and exercise are required", ErrInvalidInput)
	}

	if err := c.store.EnsureTable(ctx, rowstore.TableRoutines, rowstore.RoutinesHeader); err != nil {
		return err
	}
	return c.store.AppendRow(ctx, rowstore.TableRoutines, rowstore.Row{routine, exercise})
}

// ListExercises returns the Ejercicios table. A missing table yields no exercises.
func (c *Catalog) ListExercises(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.listExercises")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	records, err := c.store.ReadAll(ctx, rowstore.TableExercises)
	if errors.Is(err, rowstore.ErrMissingTable) {
		return []Exercise{}, nil
	} else if err != nil {
		return nil, err
	}

	exercises := make([]Exercise, 0, len(records))
	for _, rec := range records {
		name := strings.TrimSpace(rec[rowstore.ColName])
		if name == "" {
			continue
		}
		exercises = append(exercises, Exercise{
			Name:     name,
			ImageURL: strings.TrimSpace(rec[rowstore.ColImageURL]),
		})
	}
	return exercises, nil
}

func (c *Catalog) AddExercise(ctx context.Context, name, imageURL string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.addExercise")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: exercise name is required", ErrInvalidInput)
	}

	if err := c.store.EnsureTable(ctx, rowstore.TableExercises, rowstore.ExercisesHeader); err != nil {
		return err
	}
	return c.store.AppendRow(ctx, rowstore.TableExercises, rowstore.Row{name, strings.TrimSpace(imageURL)})
}
