// Package history builds the per-user progress view out of the workout log.
package history

import (
	"context"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/gymtracker/internal/rowstore"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/internal/workout"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultRecent is how many rows the overview shows.
const DefaultRecent = 10

// date layouts seen in the log table; sheets may hand back locale formatted dates
var dateLayouts = []string{
	workout.DateLayout,
	"2006-01-02 15:04:05",
	"2/1/2006",
	"02/01/2006",
}

// Entry is one logged set. Weight and Date are nil when the stored cell
// could not be parsed.
type Entry struct {
	Date     *time.Time `json:"date"`
	RawDate  string     `json:"rawDate"`
	Day      string     `json:"day"`
	Exercise string     `json:"exercise"`
	Set      string     `json:"set"`
	Weight   *float64   `json:"weight"`
	Reps     string     `json:"reps"`
}

type History struct {
	Username string  `json:"username"`
	Entries  []Entry `json:"entries"`
	NoData   bool    `json:"noData"`
}

func parseWeight(raw string) *float64 {
	normalized := workout.NormalizeWeight(raw)
	if normalized == "" {
		return nil
	}
	w, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return nil
	}
	return &w
}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return &d
		}
	}
	return nil
}

func entryFromRecord(rec rowstore.Record) Entry {
	return Entry{
		Date:     parseDate(rec[rowstore.ColDate]),
		RawDate:  rec[rowstore.ColDate],
		Day:      rec[rowstore.ColDay],
		Exercise: rec[rowstore.ColExercise],
		Set:      rec[rowstore.ColSet],
		Weight:   parseWeight(rec[rowstore.ColWeight]),
		Reps:     strings.TrimSpace(rec[rowstore.ColReps]),
	}
}

type Service struct {
	store    rowstore.Store
	logTable string
}

func NewService(store rowstore.Store, logTable string) *Service {
	return &Service{
		store:    store,
		logTable: logTable,
	}
}

// LoadHistory returns the log rows of username, in log order. A missing log
// table is not an error: the history comes back empty with NoData set.
func (s *Service) LoadHistory(ctx context.Context, username string) (_ *History, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.load")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("username", username))

	h := &History{
		Username: username,
		Entries:  []Entry{},
	}

	records, err := s.store.ReadAll(ctx, s.logTable)
	if errors.Is(err, rowstore.ErrMissingTable) {
		log.Warnf("history for [%s]: log table [%s] missing", username, s.logTable)
		h.NoData = true
		return h, nil
	} else if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec[rowstore.ColUsername] != username {
			continue
		}
		h.Entries = append(h.Entries, entryFromRecord(rec))
	}
	h.NoData = len(h.Entries) == 0
	span.SetAttributes(attribute.Int("entries", len(h.Entries)))

	return h, nil
}

// ForExercise returns the entries of exercise sorted by date, oldest first.
// Entries without a parsable date go last, in log order.
func (h *History) ForExercise(exercise string) []Entry {
	series := []Entry{}
	for _, e := range h.Entries {
		if e.Exercise == exercise {
			series = append(series, e)
		}
	}
	slices.SortStableFunc(series, func(a, b Entry) int {
		switch {
		case a.Date == nil && b.Date == nil:
			return 0
		case a.Date == nil:
			return 1
		case b.Date == nil:
			return -1
		}
		return a.Date.Compare(*b.Date)
	})
	return series
}

// MaxWeight returns the heaviest parsed weight logged for exercise.
func (h *History) MaxWeight(exercise string) (float64, bool) {
	var (
		heaviest float64
		found    bool
	)
	for _, e := range h.Entries {
		if e.Exercise != exercise || e.Weight == nil {
			continue
		}
		if !found || *e.Weight > heaviest {
			heaviest = *e.Weight
			found = true
		}
	}
	return heaviest, found
}

// Recent returns the last n entries in log order.
func (h *History) Recent(n int) []Entry {
	if n <= 0 || n >= len(h.Entries) {
		return slices.Clone(h.Entries)
	}
	return slices.Clone(h.Entries[len(h.Entries)-n:])
}

// Exercises lists the exercises present in the history, first seen first.
func (h *History) Exercises() []string {
	exercises := []string{}
	for _, e := range h.Entries {
		if !slices.Contains(exercises, e.Exercise) {
			exercises = append(exercises, e.Exercise)
		}
	}
	return exercises
}
