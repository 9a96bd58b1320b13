package workout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/gymtracker/internal/rowstore"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const notifyTimeout = 5 * time.Second

type routineCatalog interface {
	Routine(ctx context.Context, day string) ([]string, error)
}

type ManagerParams struct {
	Store          rowstore.Store
	Catalog        routineCatalog
	LogTable       string
	Clock          clockwork.Clock
	RestTimer      time.Duration
	DoneLinger     time.Duration
	InitialSets    int
	ResetOnCommit  bool
	Notifier       Notifier
	MetricsManager *metrics.Manager
}

// Manager owns the workout sessions, keyed by login token.
type Manager struct {
	params ManagerParams

	mutex    sync.Mutex
	sessions map[string]*Session
}

func NewManager(params ManagerParams) *Manager {
	if params.Clock == nil {
		params.Clock = clockwork.NewRealClock()
	}
	if params.Notifier == nil {
		params.Notifier = LogNotifier{}
	}
	return &Manager{
		params:   params,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session of token, creating it on first use.
func (m *Manager) Session(token, username string) *Session {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if s, ok := m.sessions[token]; ok && s.Username == username {
		return s
	} else if ok {
		s.Close()
	}

	s := NewSession(SessionParams{
		Username:    username,
		InitialSets: m.params.InitialSets,
		Clock:       m.params.Clock,
		RestTimer:   m.params.RestTimer,
		DoneLinger:  m.params.DoneLinger,
		OnRestDone:  m.restDone,
	})
	m.sessions[token] = s
	m.params.MetricsManager.GaugeActiveSessions.Set(float64(len(m.sessions)))
	log.Debugf("workout session %s created for [%s]", s.ID, username)
	return s
}

func (m *Manager) Lookup(token string) (*Session, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	s, ok := m.sessions[token]
	return s, ok
}

// Drop ends the session of token. Unsaved entries are discarded.
func (m *Manager) Drop(token string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return false
	}
	s.Close()
	delete(m.sessions, token)
	m.params.MetricsManager.GaugeActiveSessions.Set(float64(len(m.sessions)))
	return true
}

func (m *Manager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.sessions)
}

func (m *Manager) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for token, s := range m.sessions {
		s.Close()
		delete(m.sessions, token)
	}
	m.params.MetricsManager.GaugeActiveSessions.Set(0)
}

func (m *Manager) restDone(event RestEvent) {
	m.params.MetricsManager.CounterRestTimers.WithLabelValues("finished").Inc()

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	m.params.Notifier.RestFinished(ctx, event)
}

// SelectDay validates day against the routine catalog and makes it current.
func (m *Manager) SelectDay(ctx context.Context, s *Session, day string) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workout.selectDay")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("day", day))

	exercises, err := m.params.Catalog.Routine(ctx, day)
	if err != nil {
		return nil, err
	}
	s.SelectDay(day, exercises)
	return exercises, nil
}

func (m *Manager) MarkSetDone(s *Session, exercise string, setIndex int, weight, reps string) (MarkResult, error) {
	wasCounting := s.Timer().Status().State != TimerIdle
	result, err := s.MarkSetDone(exercise, setIndex, weight, reps)
	if err != nil {
		return result, err
	}
	if result.TimerStarted {
		if wasCounting {
			m.params.MetricsManager.CounterRestTimers.WithLabelValues("replaced").Inc()
		}
		m.params.MetricsManager.CounterRestTimers.WithLabelValues("started").Inc()
	}
	return result, nil
}

func (m *Manager) CancelTimer(s *Session) bool {
	if !s.Timer().Cancel() {
		return false
	}
	m.params.MetricsManager.CounterRestTimers.WithLabelValues("cancelled").Inc()
	return true
}

// Commit flushes the current day of s to the log table. A zero count comes
// with ErrNothingToSave.
func (m *Manager) Commit(ctx context.Context, s *Session) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workout.commit")
	defer func() {
		if errors.Is(err, ErrNothingToSave) {
			tracing.EndSpanWithErrCheck(span, nil)
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	saved, err := s.Commit(ctx, m.params.Store, m.params.LogTable, m.params.Clock.Now())
	if err != nil {
		return saved, err
	}

	span.SetAttributes(attribute.Int("saved", saved))
	m.params.MetricsManager.CounterCommittedSets.Add(float64(saved))
	m.params.MetricsManager.HistogramCommitBatchSize.Observe(float64(saved))
	log.Infof("workout commit for [%s]: %d sets saved", s.Username, saved)

	if m.params.ResetOnCommit {
		s.Reset()
	}
	return saved, nil
}
