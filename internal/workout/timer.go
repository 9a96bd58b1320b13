package workout

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var ErrTimerBusy = errors.New("rest timer already running")

type TimerState string

const (
	TimerIdle     TimerState = "idle"
	TimerCounting TimerState = "counting"
	TimerDone     TimerState = "done"
)

type TimerStatus struct {
	State            TimerState `json:"state"`
	RunID            string     `json:"runId,omitempty"`
	Exercise         string     `json:"exercise,omitempty"`
	SetIndex         int        `json:"setIndex,omitempty"`
	RemainingSeconds int        `json:"remainingSeconds"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
}

type timerRun struct {
	id        string
	key       SetKey
	startedAt time.Time
	doneAt    time.Time
	cancel    chan struct{}
}

// RestTimer counts down once per Start: Idle -> Counting -> Done -> Idle.
// It never blocks the caller and cannot be paused. Cancel returns it to
// Idle without a completion.
type RestTimer struct {
	clock    clockwork.Clock
	duration time.Duration
	linger   time.Duration
	// onDone runs in the timer goroutine, outside the timer lock
	onDone func(run timerRun)

	mutex sync.Mutex
	run   *timerRun
}

func NewRestTimer(clock clockwork.Clock, duration, linger time.Duration, onDone func(run timerRun)) *RestTimer {
	if onDone == nil {
		onDone = func(timerRun) {}
	}
	return &RestTimer{
		clock:    clock,
		duration: duration,
		linger:   linger,
		onDone:   onDone,
	}
}

func (t *RestTimer) Start(key SetKey) (TimerStatus, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.run != nil {
		return t.statusLocked(), ErrTimerBusy
	}

	run := &timerRun{
		id:        uuid.NewString(),
		key:       key,
		startedAt: t.clock.Now(),
		cancel:    make(chan struct{}),
	}
	t.run = run

	// registered before returning, so a fake clock sees the waiter
	countdown := t.clock.NewTimer(t.duration)
	go t.loop(run, countdown)

	return t.statusLocked(), nil
}

func (t *RestTimer) loop(run *timerRun, countdown clockwork.Timer) {
	select {
	case <-countdown.Chan():
	case <-run.cancel:
		countdown.Stop()
		return
	}

	t.mutex.Lock()
	if t.run != run {
		t.mutex.Unlock()
		return
	}
	run.doneAt = t.clock.Now()
	finished := *run
	linger := t.clock.NewTimer(t.linger)
	t.mutex.Unlock()

	t.onDone(finished)

	select {
	case <-linger.Chan():
	case <-run.cancel:
		linger.Stop()
		return
	}

	t.mutex.Lock()
	if t.run == run {
		t.run = nil
	}
	t.mutex.Unlock()
}

// Cancel stops the current run. It reports false when the timer was idle.
func (t *RestTimer) Cancel() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.run == nil {
		return false
	}
	close(t.run.cancel)
	t.run = nil
	return true
}

func (t *RestTimer) Status() TimerStatus {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.statusLocked()
}

func (t *RestTimer) statusLocked() TimerStatus {
	if t.run == nil {
		return TimerStatus{State: TimerIdle}
	}

	startedAt := t.run.startedAt
	status := TimerStatus{
		RunID:     t.run.id,
		Exercise:  t.run.key.Exercise,
		SetIndex:  t.run.key.SetIndex,
		StartedAt: &startedAt,
	}
	if !t.run.doneAt.IsZero() {
		status.State = TimerDone
		return status
	}

	status.State = TimerCounting
	remaining := t.duration - t.clock.Since(t.run.startedAt)
	if remaining < 0 {
		remaining = 0
	}
	status.RemainingSeconds = int(math.Ceil(remaining.Seconds()))
	return status
}
