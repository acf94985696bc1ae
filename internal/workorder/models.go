package workorder

import (
	"maps"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"otrack/internal/stages"
)

// Location is the coarse bucket a work order sits in.
type Location string

const (
	LocationINCO     Location = "INCO"
	LocationANTI     Location = "ANTI"
	LocationArchived Location = "ARCHIVED"
)

var allLocations = []Location{LocationINCO, LocationANTI, LocationArchived}

// AllLocations returns the locations in forward order.
func AllLocations() []Location {
	cp := make([]Location, len(allLocations))
	copy(cp, allLocations)
	return cp
}

// ParseLocation converts a string into a known Location.
func ParseLocation(value string) (Location, bool) {
	normalized := Location(strings.ToUpper(strings.TrimSpace(value)))
	switch normalized {
	case LocationINCO, LocationANTI, LocationArchived:
		return normalized, true
	default:
		return "", false
	}
}

// Rank orders locations along the forward-only path. Unknown locations rank -1.
func (l Location) Rank() int {
	switch l {
	case LocationINCO:
		return 0
	case LocationANTI:
		return 1
	case LocationArchived:
		return 2
	default:
		return -1
	}
}

// Pipeline returns the stage pipeline active for the location. ARCHIVED has
// none.
func (l Location) Pipeline() (stages.Pipeline, bool) {
	switch l {
	case LocationINCO:
		return stages.PipelineINCO, true
	case LocationANTI:
		return stages.PipelineANTI, true
	default:
		return "", false
	}
}

// Next returns the location an order moves to after its pipeline hand-off.
func (l Location) Next() Location {
	switch l {
	case LocationINCO:
		return LocationANTI
	case LocationANTI:
		return LocationArchived
	default:
		return l
	}
}

// IsTerminal reports whether the location accepts no further stage updates.
func (l Location) IsTerminal() bool {
	return l == LocationArchived
}

// WorkOrder is a tracked manufacturing/repair order.
type WorkOrder struct {
	ID          int64
	OT          string
	Client      string
	Description string
	Tag         string
	Status      string
	Progress    int
	Location    Location
	Dates       map[string]time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   string
	UpdatedBy   string
}

// Details are the descriptive fields edited outside the progression engine.
type Details struct {
	Client      string
	Description string
	Tag         string
}

// Derived are the fields the progression engine owns.
type Derived struct {
	Status   string
	Progress int
	Location Location
}

var otCaser = cases.Upper(language.Und)

// NormalizeOT trims and upper-cases an OT identifier so "ot-100" and
// "OT-100" refer to the same order.
func NormalizeOT(ot string) string {
	return otCaser.String(strings.TrimSpace(ot))
}

// New builds a freshly created order: INCO, no status, no progress, no dates.
func New(ot string, details Details) WorkOrder {
	return WorkOrder{
		OT:          NormalizeOT(ot),
		Client:      strings.TrimSpace(details.Client),
		Description: strings.TrimSpace(details.Description),
		Tag:         strings.TrimSpace(details.Tag),
		Location:    LocationINCO,
		Dates:       map[string]time.Time{},
	}
}

// Clone returns a deep copy so callers can run the engine without touching a
// shared snapshot.
func (w WorkOrder) Clone() WorkOrder {
	cp := w
	cp.Dates = make(map[string]time.Time, len(w.Dates))
	maps.Copy(cp.Dates, w.Dates)
	return cp
}

// Derived returns the engine-owned fields.
func (w WorkOrder) Derived() Derived {
	return Derived{Status: w.Status, Progress: w.Progress, Location: w.Location}
}

// Details returns the descriptive fields.
func (w WorkOrder) Details() Details {
	return Details{Client: w.Client, Description: w.Description, Tag: w.Tag}
}

// EarliestDate returns the chronologically smallest recorded stage date.
func (w WorkOrder) EarliestDate() (time.Time, bool) {
	var (
		earliest time.Time
		found    bool
	)
	for _, d := range w.Dates {
		if d.IsZero() {
			continue
		}
		if !found || d.Before(earliest) {
			earliest = d
			found = true
		}
	}
	return earliest, found
}

// DateFor returns the recorded date for a stage.
func (w WorkOrder) DateFor(stage string) (time.Time, bool) {
	d, ok := w.Dates[stage]
	if !ok || d.IsZero() {
		return time.Time{}, false
	}
	return d, true
}

// ProgressConsistent reports whether Progress matches the catalog weight of
// Status.
func (w WorkOrder) ProgressConsistent() bool {
	return w.Progress == stages.ProgressOf(w.Status)
}
