package workout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/2beens/gymtracker/internal/rowstore"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	ErrNothingToSave   = errors.New("nothing to save")
	ErrNoDaySelected   = errors.New("no training day selected")
	ErrUnknownExercise = errors.New("exercise not in the selected day")
	ErrInvalidSet      = errors.New("invalid set")
)

type pendingBatch struct {
	order   []SetKey
	entries map[SetKey]SetEntry
}

func newPendingBatch() *pendingBatch {
	return &pendingBatch{entries: make(map[SetKey]SetEntry)}
}

func (b *pendingBatch) put(entry SetEntry) {
	key := entry.Key()
	if _, ok := b.entries[key]; !ok {
		b.order = append(b.order, key)
	}
	b.entries[key] = entry
}

func (b *pendingBatch) remove(key SetKey) {
	if _, ok := b.entries[key]; !ok {
		return
	}
	delete(b.entries, key)
	b.order = slices.DeleteFunc(b.order, func(k SetKey) bool { return k == key })
}

func (b *pendingBatch) list() []SetEntry {
	entries := make([]SetEntry, 0, len(b.order))
	for _, key := range b.order {
		entries = append(entries, b.entries[key])
	}
	return entries
}

// MarkResult tells the caller what marking a set did.
type MarkResult struct {
	// Pending is false when weight or reps were empty; such a set is never written.
	Pending      bool        `json:"pending"`
	TimerStarted bool        `json:"timerStarted"`
	Timer        TimerStatus `json:"timer"`
}

type SessionView struct {
	ID            string         `json:"id"`
	Username      string         `json:"username"`
	Day           string         `json:"day"`
	Exercises     []string       `json:"exercises"`
	SetCounts     map[string]int `json:"setCounts"`
	Pending       []SetEntry     `json:"pending"`
	Timer         TimerStatus    `json:"timer"`
	LastCompleted *RestEvent     `json:"lastCompleted,omitempty"`
}

// Session is the in-memory workout state of one login. All methods are safe
// for concurrent use.
type Session struct {
	ID       string
	Username string

	initialSets int
	timer       *RestTimer

	mutex         sync.Mutex
	day           string
	exercises     []string
	setCounts     map[string]int
	fired         map[SetKey]bool
	pending       map[string]*pendingBatch
	lastCompleted *RestEvent
}

type SessionParams struct {
	Username    string
	InitialSets int
	Clock       clockwork.Clock
	RestTimer   time.Duration
	DoneLinger  time.Duration
	// OnRestDone is called from the timer goroutine after the session recorded the event.
	OnRestDone func(RestEvent)
}

func NewSession(params SessionParams) *Session {
	if params.InitialSets <= 0 {
		params.InitialSets = 1
	}
	s := &Session{
		ID:          uuid.NewString(),
		Username:    params.Username,
		initialSets: params.InitialSets,
		setCounts:   make(map[string]int),
		fired:       make(map[SetKey]bool),
		pending:     make(map[string]*pendingBatch),
	}
	s.timer = NewRestTimer(params.Clock, params.RestTimer, params.DoneLinger, func(run timerRun) {
		event := RestEvent{
			RunID:      run.id,
			SessionID:  s.ID,
			Username:   s.Username,
			Exercise:   run.key.Exercise,
			SetIndex:   run.key.SetIndex,
			FinishedAt: run.doneAt,
		}
		s.mutex.Lock()
		s.lastCompleted = &event
		s.mutex.Unlock()
		if params.OnRestDone != nil {
			params.OnRestDone(event)
		}
	})
	return s
}

// SelectDay switches the current training day. Pending entries of other days are kept.
func (s *Session) SelectDay(day string, exercises []string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.day = day
	s.exercises = slices.Clone(exercises)
}

func (s *Session) Day() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.day
}

// ExpandSets adds one visible set slot to exercise and returns the new count.
func (s *Session) ExpandSets(exercise string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.setCounts[exercise] = s.setCountLocked(exercise) + 1
	return s.setCounts[exercise]
}

func (s *Session) SetCount(exercise string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.setCountLocked(exercise)
}

func (s *Session) setCountLocked(exercise string) int {
	if n, ok := s.setCounts[exercise]; ok {
		return n
	}
	return s.initialSets
}

// MarkSetDone records a completed set of the current day. The rest timer is
// started the first time a set is marked in this session and never again for
// it. Marking again updates the pending values; empty values drop the set
// from the batch.
func (s *Session) MarkSetDone(exercise string, setIndex int, weight, reps string) (MarkResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.day == "" {
		return MarkResult{}, ErrNoDaySelected
	}
	if !slices.Contains(s.exercises, exercise) {
		return MarkResult{}, fmt.Errorf("%w: %s", ErrUnknownExercise, exercise)
	}
	if setIndex < 1 || setIndex > s.setCountLocked(exercise) {
		return MarkResult{}, fmt.Errorf("%w: %s has no set %d", ErrInvalidSet, exercise, setIndex)
	}

	entry := SetEntry{
		Username: s.Username,
		Day:      s.day,
		Exercise: exercise,
		SetIndex: setIndex,
		Weight:   NormalizeWeight(weight),
		Reps:     NormalizeReps(reps),
	}

	batch, ok := s.pending[s.day]
	if !ok {
		batch = newPendingBatch()
		s.pending[s.day] = batch
	}

	var result MarkResult
	if entry.Filled() {
		batch.put(entry)
		result.Pending = true
	} else {
		batch.remove(entry.Key())
	}

	key := entry.Key()
	if !s.fired[key] {
		s.fired[key] = true
		// a new set's rest replaces the previous one
		s.timer.Cancel()
		status, err := s.timer.Start(key)
		if err != nil {
			return result, err
		}
		result.TimerStarted = true
		result.Timer = status
	} else {
		result.Timer = s.timer.Status()
	}

	return result, nil
}

// TimerFired reports whether the rest timer was already started for the set.
func (s *Session) TimerFired(key SetKey) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.fired[key]
}

// Pending returns the entries that the next commit of the current day would write.
func (s *Session) Pending() []SetEntry {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if batch, ok := s.pending[s.day]; ok {
		return batch.list()
	}
	return []SetEntry{}
}

// Commit writes every pending entry of the current day in one append. On
// success the written entries leave the batch; set counters and fired flags
// stay. On failure nothing changes.
func (s *Session) Commit(ctx context.Context, store rowstore.Store, logTable string, now time.Time) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.day == "" {
		return 0, ErrNoDaySelected
	}

	batch, ok := s.pending[s.day]
	if !ok || len(batch.order) == 0 {
		return 0, ErrNothingToSave
	}

	entries := batch.list()
	date := now.Format(DateLayout)
	rows := make([]rowstore.Row, 0, len(entries))
	for _, e := range entries {
		e.Date = date
		rows = append(rows, e.Row())
	}

	if err := store.AppendRows(ctx, logTable, rows); err != nil {
		return 0, err
	}

	delete(s.pending, s.day)
	return len(rows), nil
}

// Reset clears set counters, fired flags, pending entries and the selected
// day, and cancels a running rest timer.
func (s *Session) Reset() {
	s.timer.Cancel()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.day = ""
	s.exercises = nil
	s.setCounts = make(map[string]int)
	s.fired = make(map[SetKey]bool)
	s.pending = make(map[string]*pendingBatch)
	s.lastCompleted = nil
}

func (s *Session) Timer() *RestTimer {
	return s.timer
}

func (s *Session) LastCompleted() *RestEvent {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastCompleted
}

func (s *Session) View() SessionView {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	counts := make(map[string]int, len(s.exercises))
	for _, e := range s.exercises {
		counts[e] = s.setCountLocked(e)
	}
	for e, n := range s.setCounts {
		counts[e] = n
	}

	pending := []SetEntry{}
	if batch, ok := s.pending[s.day]; ok {
		pending = batch.list()
	}

	return SessionView{
		ID:            s.ID,
		Username:      s.Username,
		Day:           s.day,
		Exercises:     slices.Clone(s.exercises),
		SetCounts:     counts,
		Pending:       pending,
		Timer:         s.timer.Status(),
		LastCompleted: s.lastCompleted,
	}
}

// Close stops the rest timer goroutine, if any.
func (s *Session) Close() {
	s.timer.Cancel()
}
