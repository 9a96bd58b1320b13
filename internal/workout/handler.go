package workout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/gymtracker/internal/auth"
	"github.com/2beens/gymtracker/internal/routines"
	"github.com/2beens/gymtracker/internal/rowstore"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	StatusSaved       = "saved"
	StatusNothingSave = "nothing-to-save"
)

type SelectDayRequest struct {
	Day string `json:"day"`
}

type ExpandSetsRequest struct {
	Exercise string `json:"exercise"`
}

type ExpandSetsResponse struct {
	Exercise string `json:"exercise"`
	Sets     int    `json:"sets"`
}

type MarkSetDoneRequest struct {
	Exercise string `json:"exercise"`
	SetIndex int    `json:"setIndex"`
	Weight   string `json:"weight"`
	Reps     string `json:"reps"`
}

type CommitResponse struct {
	Status string `json:"status"`
	Saved  int    `json:"saved"`
}

type TimerResponse struct {
	Timer         TimerStatus `json:"timer"`
	LastCompleted *RestEvent  `json:"lastCompleted,omitempty"`
}

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/session", handler.HandleGet).Methods("GET").Name("session")
	router.HandleFunc("/session/day", handler.HandleSelectDay).Methods("POST").Name("session-day")
	router.HandleFunc("/session/sets/expand", handler.HandleExpandSets).Methods("POST").Name("session-sets-expand")
	router.HandleFunc("/session/sets/done", handler.HandleMarkSetDone).Methods("POST").Name("session-sets-done")
	router.HandleFunc("/session/commit", handler.HandleCommit).Methods("POST").Name("session-commit")
	router.HandleFunc("/session/reset", handler.HandleReset).Methods("POST").Name("session-reset")
	router.HandleFunc("/session/timer", handler.HandleTimerStatus).Methods("GET").Name("session-timer")
	router.HandleFunc("/session/timer", handler.HandleTimerCancel).Methods("DELETE").Name("session-timer-cancel")
}

// session resolves the workout session of the logged in user, writing 401 when there is none.
func (handler *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	login, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, false
	}
	return handler.manager.Session(login.Token, login.Username), true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeSessionError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, ErrNoDaySelected),
		errors.Is(err, ErrUnknownExercise),
		errors.Is(err, ErrInvalidSet):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, routines.ErrUnknownRoutine):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, rowstore.ErrMissingTable):
		log.Errorf("%s: %s", what, err)
		http.Error(w, "workout log table missing", http.StatusServiceUnavailable)
	case errors.Is(err, rowstore.ErrConnection):
		log.Errorf("%s, row store unavailable: %s", what, err)
		http.Error(w, "row store unavailable, try again later", http.StatusServiceUnavailable)
	default:
		log.Errorf("%s: %s", what, err)
		http.Error(w, what+" failed", http.StatusInternalServerError)
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := handler.session(w, r)
	if !ok {
		return
	}
	pkg.WriteJSON(w, s.View(), http.StatusOK)
}

func (handler *Handler) HandleSelectDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutHandler.selectDay")
	defer span.End()

	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	var req SelectDayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := handler.manager.SelectDay(ctx, s, req.Day); err != nil {
		writeSessionError(w, "select day", err)
		return
	}

	pkg.WriteJSON(w, s.View(), http.StatusOK)
}

func (handler *Handler) HandleExpandSets(w http.ResponseWriter, r *http.Request) {
	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	var req ExpandSetsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Exercise == "" {
		http.Error(w, "exercise is required", http.StatusBadRequest)
		return
	}

	pkg.WriteJSON(w, ExpandSetsResponse{
		Exercise: req.Exercise,
		Sets:     s.ExpandSets(req.Exercise),
	}, http.StatusOK)
}

func (handler *Handler) HandleMarkSetDone(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "workoutHandler.markSetDone")
	defer span.End()

	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	var req MarkSetDoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := handler.manager.MarkSetDone(s, req.Exercise, req.SetIndex, req.Weight, req.Reps)
	if err != nil {
		writeSessionError(w, "mark set done", err)
		return
	}

	pkg.WriteJSON(w, result, http.StatusOK)
}

func (handler *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutHandler.commit")
	defer span.End()

	s, ok := handler.session(w, r)
	if !ok {
		return
	}

	saved, err := handler.manager.Commit(ctx, s)
	if errors.Is(err, ErrNothingToSave) {
		pkg.WriteJSON(w, CommitResponse{Status: StatusNothingSave, Saved: 0}, http.StatusOK)
		return
	} else if err != nil {
		writeSessionError(w, "commit", err)
		return
	}

	pkg.WriteJSON(w, CommitResponse{Status: StatusSaved, Saved: saved}, http.StatusOK)
}

func (handler *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	s, ok := handler.session(w, r)
	if !ok {
		return
	}
	s.Reset()
	pkg.WriteJSON(w, s.View(), http.StatusOK)
}

func (handler *Handler) HandleTimerStatus(w http.ResponseWriter, r *http.Request) {
	s, ok := handler.session(w, r)
	if !ok {
		return
	}
	pkg.WriteJSON(w, TimerResponse{
		Timer:         s.Timer().Status(),
		LastCompleted: s.LastCompleted(),
	}, http.StatusOK)
}

func (handler *Handler) HandleTimerCancel(w http.ResponseWriter, r *http.Request) {
	s, ok := handler.session(w, r)
	if !ok {
		return
	}
	if !handler.manager.CancelTimer(s) {
		http.Error(w, "rest timer not running", http.StatusConflict)
		return
	}
	pkg.WriteJSON(w, TimerResponse{Timer: s.Timer().Status()}, http.StatusOK)
}
