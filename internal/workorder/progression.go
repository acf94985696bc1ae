package workorder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"otrack/internal/stages"
)

// Transition describes the effect of one RecordDate call.
type Transition struct {
	Stage string
	Date  time.Time
	// Cleared is true when the call removed the stage date.
	Cleared bool
	// StageKnown is true when the stage belongs to the catalog of the order's
	// location at the time of the update.
	StageKnown bool

	PrevStatus   string
	Status       string
	PrevProgress int
	Progress     int
	PrevLocation Location
	Location     Location
}

// DerivedChanged reports whether status, progress, or location differ from
// their values before the update.
func (t Transition) DerivedChanged() bool {
	return t.PrevStatus != t.Status || t.PrevProgress != t.Progress || t.PrevLocation != t.Location
}

// Advanced reports whether the order moved to a new location.
func (t Transition) Advanced() bool {
	return t.PrevLocation != t.Location
}

// Derived returns the post-update engine fields.
func (t Transition) Derived() Derived {
	return Derived{Status: t.Status, Progress: t.Progress, Location: t.Location}
}

// RecordDate records date for stage on w and advances the derived fields.
//
// A zero date clears the stage date and leaves status, progress, and location
// untouched. A non-zero date for a stage in the catalog of w's current
// location sets status and progress to that stage and applies the hand-off
// rule. Any other non-empty stage name, including stages of another pipeline
// and names outside every catalog, has its date recorded with status,
// progress, and location unchanged. A blank stage name fails with
// ErrValidation and ARCHIVED orders fail with ErrArchived. On error w is not
// modified.
func RecordDate(w *WorkOrder, stage string, date time.Time) (Transition, error) {
	const op = "record stage date"
	if w == nil {
		return Transition{}, E(op, ErrNotFound, nil)
	}
	stage = strings.TrimSpace(stage)
	tr := Transition{
		Stage:        stage,
		Date:         TruncateDate(date),
		Cleared:      date.IsZero(),
		PrevStatus:   w.Status,
		Status:       w.Status,
		PrevProgress: w.Progress,
		Progress:     w.Progress,
		PrevLocation: w.Location,
		Location:     w.Location,
	}

	if stage == "" {
		return tr, E(op, ErrValidation, errors.New("stage name is required"))
	}
	if w.Location.IsTerminal() {
		return tr, E(op, ErrArchived, fmt.Errorf("ot %s", w.OT))
	}

	if w.Dates == nil {
		w.Dates = map[string]time.Time{}
	}
	current, hasPipeline := w.Location.Pipeline()
	if hasPipeline {
		_, tr.StageKnown = stages.IndexOf(current, stage)
	}
	if tr.Cleared {
		delete(w.Dates, stage)
		return tr, nil
	}
	w.Dates[stage] = tr.Date
	if !tr.StageKnown {
		return tr, nil
	}

	found, _ := stages.Find(current, stage)
	w.Status = found.Name
	w.Progress = found.Progress
	if stage == stages.HandOff(current) {
		w.Location = w.Location.Next()
	}

	tr.Status = w.Status
	tr.Progress = w.Progress
	tr.Location = w.Location
	return tr, nil
}
