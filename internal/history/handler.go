package history

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/gymtracker/internal/auth"
	"github.com/2beens/gymtracker/internal/rowstore"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=history_test

type historyService interface {
	LoadHistory(ctx context.Context, username string) (*History, error)
}

type OverviewResponse struct {
	Username  string   `json:"username"`
	Exercises []string `json:"exercises"`
	Recent    []Entry  `json:"recent"`
	Total     int      `json:"total"`
	NoData    bool     `json:"noData"`
}

type ExerciseResponse struct {
	Exercise  string   `json:"exercise"`
	Series    []Entry  `json:"series"`
	MaxWeight *float64 `json:"maxWeight"`
	NoData    bool     `json:"noData"`
}

type Handler struct {
	service historyService
}

func NewHandler(service historyService) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/history", handler.HandleOverview).Methods("GET").Name("history")
	router.HandleFunc("/history/exercise/{name}", handler.HandleExercise).Methods("GET").Name("history-exercise")
}

func (handler *Handler) load(w http.ResponseWriter, r *http.Request) (*History, bool) {
	login, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}

	h, err := handler.service.LoadHistory(r.Context(), login.Username)
	if errors.Is(err, rowstore.ErrConnection) {
		log.Errorf("load history, row store unavailable: %s", err)
		http.Error(w, "row store unavailable, try again later", http.StatusServiceUnavailable)
		return nil, false
	} else if err != nil {
		log.Errorf("load history for [%s]: %s", login.Username, err)
		http.Error(w, "load history failed", http.StatusInternalServerError)
		return nil, false
	}

	return h, true
}

// HandleOverview serves the latest logged sets, ?recent=N (default 10, 0 for all).
func (handler *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "historyHandler.overview")
	defer span.End()

	recent := DefaultRecent
	if recentParam := r.URL.Query().Get("recent"); recentParam != "" {
		n, err := strconv.Atoi(recentParam)
		if err != nil || n < 0 {
			http.Error(w, "invalid recent parameter", http.StatusBadRequest)
			return
		}
		recent = n
	}

	h, ok := handler.load(w, r)
	if !ok {
		return
	}

	pkg.WriteJSON(w, OverviewResponse{
		Username:  h.Username,
		Exercises: h.Exercises(),
		Recent:    h.Recent(recent),
		Total:     len(h.Entries),
		NoData:    h.NoData,
	}, http.StatusOK)
}

func (handler *Handler) HandleExercise(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "historyHandler.exercise")
	defer span.End()

	exercise := mux.Vars(r)["name"]
	if exercise == "" {
		http.Error(w, "exercise name missing", http.StatusBadRequest)
		return
	}

	h, ok := handler.load(w, r)
	if !ok {
		return
	}

	resp := ExerciseResponse{
		Exercise: exercise,
		Series:   h.ForExercise(exercise),
	}
	if heaviest, found := h.MaxWeight(exercise); found {
		resp.MaxWeight = &heaviest
	}
	resp.NoData = len(resp.Series) == 0

	pkg.WriteJSON(w, resp, http.StatusOK)
}
