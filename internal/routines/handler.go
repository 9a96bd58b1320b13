package routines

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/gymtracker/internal/rowstore"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=routines_test

type catalogService interface {
	ListRoutines(ctx context.Context) ([]Routine, string, error)
	AddRoutineExercise(ctx context.Context, routine, exercise string) error
	ListExercises(ctx context.Context) ([]Exercise, error)
	AddExercise(ctx context.Context, name, imageURL string) error
}

type ListRoutinesResponse struct {
	Routines []Routine `json:"routines"`
	Source   string    `json:"source"`
}

type ListExercisesResponse struct {
	Exercises []Exercise `json:"exercises"`
	NoData    bool       `json:"noData"`
}

type AddRoutineExerciseRequest struct {
	Routine  string `json:"routine"`
	Exercise string `json:"exercise"`
}

type AddExerciseRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type Handler struct {
	catalog catalogService
}

func NewHandler(catalog catalogService) *Handler {
	return &Handler{catalog: catalog}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/routines", handler.HandleListRoutines).Methods("GET").Name("list-routines")
	router.HandleFunc("/routines", handler.HandleAddRoutineExercise).Methods("POST").Name("add-routine-exercise")
	router.HandleFunc("/exercises", handler.HandleListExercises).Methods("GET").Name("list-exercises")
	router.HandleFunc("/exercises", handler.HandleAddExercise).Methods("POST").Name("add-exercise")
}

func writeStoreError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, rowstore.ErrConnection):
		log.Errorf("%s, row store unavailable: %s", what, err)
		http.Error(w, "row store unavailable, try again later", http.StatusServiceUnavailable)
	default:
		log.Errorf("%s: %s", what, err)
		http.Error(w, what+" failed", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleListRoutines(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.listRoutines")
	defer span.End()

	routines, source, err := handler.catalog.ListRoutines(ctx)
	if err != nil {
		writeStoreError(w, "list routines", err)
		return
	}

	pkg.WriteJSON(w, ListRoutinesResponse{Routines: routines, Source: source}, http.StatusOK)
}

func (handler *Handler) HandleAddRoutineExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.addRoutineExercise")
	defer span.End()

	var req AddRoutineExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := handler.catalog.AddRoutineExercise(ctx, req.Routine, req.Exercise); err != nil {
		writeStoreError(w, "add routine exercise", err)
		return
	}

	pkg.WriteJSON(w, req, http.StatusCreated)
}

func (handler *Handler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.listExercises")
	defer span.End()

	exercises, err := handler.catalog.ListExercises(ctx)
	if err != nil {
		writeStoreError(w, "list exercises", err)
		return
	}

	pkg.WriteJSON(w, ListExercisesResponse{
		Exercises: exercises,
		NoData:    len(exercises) == 0,
	}, http.StatusOK)
}

func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "routinesHandler.addExercise")
	defer span.End()

	var req AddExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := handler.catalog.AddExercise(ctx, req.Name, req.ImageURL); err != nil {
		writeStoreError(w, "add exercise", err)
		return
	}

	pkg.WriteJSON(w, req, http.StatusCreated)
}
