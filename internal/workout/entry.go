// Package workout holds the per-login workout session: visible set slots,
// pending set entries, the rest timer, and the flush to the log table.
package workout

import (
	"strconv"
	"strings"

	"github.com/2beens/gymtracker/internal/rowstore"
)

const DateLayout = "2006-01-02"

// SetKey identifies one set of one exercise within a session.
type SetKey struct {
	Exercise string `json:"exercise"`
	SetIndex int    `json:"setIndex"`
}

type SetEntry struct {
	// Date is assigned at commit time.
	Date     string `json:"date,omitempty"`
	Username string `json:"username"`
	Day      string `json:"day"`
	Exercise string `json:"exercise"`
	SetIndex int    `json:"setIndex"`
	Weight   string `json:"weight"`
	Reps     string `json:"reps"`
}

func (e SetEntry) Key() SetKey {
	return SetKey{Exercise: e.Exercise, SetIndex: e.SetIndex}
}

// Filled reports whether the entry would be written on commit.
func (e SetEntry) Filled() bool {
	return e.Weight != "" && e.Reps != ""
}

// Row is the log table row, in rowstore.LogHeader order.
func (e SetEntry) Row() rowstore.Row {
	return rowstore.Row{
		e.Date,
		e.Username,
		e.Day,
		e.Exercise,
		strconv.Itoa(e.SetIndex),
		e.Weight,
		e.Reps,
	}
}

// NormalizeWeight trims the value and turns a decimal comma into a dot.
func NormalizeWeight(weight string) string {
	return strings.ReplaceAll(strings.TrimSpace(weight), ",", ".")
}

func NormalizeReps(reps string) string {
	return strings.TrimSpace(reps)
}
