package projection

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"otrack/internal/stages"
	"otrack/internal/workorder"
)

// Options tunes dashboard aggregation.
type Options struct {
	// TopClients caps the per-client breakdown. Zero or less means no cap.
	TopClients int
}

// ClientCount is the number of in-progress orders for one client.
type ClientCount struct {
	Client string
	Count  int
}

// CycleTimes are average durations, in days, computed from archived orders.
// A nil field means no archived order carried the dates it needs.
type CycleTimes struct {
	INCO    *float64
	ANTI    *float64
	Overall *float64
}

// Summary is the aggregate dashboard view of the work-order set.
type Summary struct {
	Total      int
	InProgress int
	Completed  int
	ByLocation map[workorder.Location]int
	Delayed    []workorder.WorkOrder
	Clients    []ClientCount
	CycleTimes CycleTimes
}

// Summarize aggregates buckets for the dashboard. Delay detection covers
// only INCO and ANTI orders; archived orders are finished.
func Summarize(b Buckets, now time.Time, opts Options) Summary {
	inProgress := b.InProgress()
	return Summary{
		Total:      b.Total(),
		InProgress: len(inProgress),
		Completed:  len(b.Archived),
		ByLocation: map[workorder.Location]int{
			workorder.LocationINCO:     len(b.INCO),
			workorder.LocationANTI:     len(b.ANTI),
			workorder.LocationArchived: len(b.Archived),
		},
		Delayed:    Delayed(inProgress, now),
		Clients:    CountByClient(inProgress, opts.TopClients),
		CycleTimes: ComputeCycleTimes(b.Archived),
	}
}

var clientFolder = cases.Fold()

// CountByClient counts orders per client in first-seen order. Client names
// are grouped case-insensitively and reported with their first spelling.
// limit <= 0 returns every client.
func CountByClient(orders []workorder.WorkOrder, limit int) []ClientCount {
	index := map[string]int{}
	var out []ClientCount
	for _, order := range orders {
		key := clientFolder.String(strings.TrimSpace(order.Client))
		if i, ok := index[key]; ok {
			out[i].Count++
			continue
		}
		index[key] = len(out)
		out = append(out, ClientCount{Client: strings.TrimSpace(order.Client), Count: 1})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ComputeCycleTimes averages pipeline durations over archived orders:
// INCO runs from the earliest INCO date to the INCO hand-off, ANTI from the
// INCO hand-off to the ANTI hand-off, and Overall from the earliest date to
// the ANTI hand-off.
func ComputeCycleTimes(archived []workorder.WorkOrder) CycleTimes {
	var inco, anti, overall averager
	for _, order := range archived {
		incoEnd, hasIncoEnd := order.DateFor(stages.HandOffINCO)
		antiEnd, hasAntiEnd := order.DateFor(stages.HandOffANTI)
		if start, ok := earliestInPipeline(order, stages.PipelineINCO); ok && hasIncoEnd {
			inco.add(workorder.DaysBetween(start, incoEnd))
		}
		if hasIncoEnd && hasAntiEnd {
			anti.add(workorder.DaysBetween(incoEnd, antiEnd))
		}
		if start, ok := order.EarliestDate(); ok && hasAntiEnd {
			overall.add(workorder.DaysBetween(start, antiEnd))
		}
	}
	return CycleTimes{INCO: inco.mean(), ANTI: anti.mean(), Overall: overall.mean()}
}

func earliestInPipeline(order workorder.WorkOrder, p stages.Pipeline) (time.Time, bool) {
	var (
		earliest time.Time
		found    bool
	)
	for _, stage := range stages.Stages(p) {
		d, ok := order.DateFor(stage.Name)
		if !ok {
			continue
		}
		if !found || d.Before(earliest) {
			earliest = d
			found = true
		}
	}
	return earliest, found
}

type averager struct {
	sum   int
	count int
}

func (a *averager) add(days int) {
	a.sum += days
	a.count++
}

func (a *averager) mean() *float64 {
	if a.count == 0 {
		return nil
	}
	v := float64(a.sum) / float64(a.count)
	return &v
}
