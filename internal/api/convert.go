package api

import (
	"time"

	"otrack/internal/projection"
	"otrack/internal/stages"
	"otrack/internal/store"
	"otrack/internal/workorder"
)

// FromWorkOrder converts a work order to its API representation. now drives
// the delayed flag, which only applies to in-progress orders.
func FromWorkOrder(w workorder.WorkOrder, now time.Time) WorkOrder {
	dto := WorkOrder{
		ID:          w.ID,
		OT:          w.OT,
		Client:      w.Client,
		Description: w.Description,
		Tag:         w.Tag,
		Status:      w.Status,
		Progress:    w.Progress,
		Location:    string(w.Location),
		Dates:       make(map[string]string, len(w.Dates)),
		Delayed:     !w.Location.IsTerminal() && projection.IsDelayed(w, now),
	}
	for stage, d := range w.Dates {
		if d.IsZero() {
			continue
		}
		dto.Dates[stage] = workorder.FormatDate(d)
	}
	if !w.CreatedAt.IsZero() {
		dto.CreatedAt = w.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !w.UpdatedAt.IsZero() {
		dto.UpdatedAt = w.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromWorkOrders converts a slice preserving order.
func FromWorkOrders(orders []workorder.WorkOrder, now time.Time) []WorkOrder {
	out := make([]WorkOrder, 0, len(orders))
	for _, w := range orders {
		out = append(out, FromWorkOrder(w, now))
	}
	return out
}

// FromBuckets builds a Board with every bucket sorted by descending progress.
func FromBuckets(b projection.Buckets, now time.Time) Board {
	board := Board{
		INCO:     FromWorkOrders(projection.SortByProgress(b.INCO), now),
		ANTI:     FromWorkOrders(projection.SortByProgress(b.ANTI), now),
		Archived: FromWorkOrders(projection.SortByProgress(b.Archived), now),
	}
	if len(b.Unknown) > 0 {
		board.Unknown = FromWorkOrders(b.Unknown, now)
	}
	return board
}

// FromTransition converts a progression result.
func FromTransition(w workorder.WorkOrder, tr workorder.Transition, now time.Time) StageUpdate {
	return StageUpdate{
		WorkOrder:    FromWorkOrder(w, now),
		Stage:        tr.Stage,
		Cleared:      tr.Cleared,
		StageKnown:   tr.StageKnown,
		PrevLocation: string(tr.PrevLocation),
		Location:     string(tr.Location),
		Advanced:     tr.Advanced(),
	}
}

// FromSummary converts a projection summary. preview caps the delayed list;
// zero or less keeps all of it.
func FromSummary(s projection.Summary, now time.Time, preview int) Dashboard {
	delayed := s.Delayed
	if preview > 0 && len(delayed) > preview {
		delayed = delayed[:preview]
	}
	dash := Dashboard{
		Total:        s.Total,
		InProgress:   s.InProgress,
		Completed:    s.Completed,
		ByLocation:   make(map[string]int, len(s.ByLocation)),
		DelayedCount: len(s.Delayed),
		Delayed:      FromWorkOrders(delayed, now),
		Clients:      make([]ClientCount, 0, len(s.Clients)),
		CycleTimes: CycleTimes{
			INCODays:    s.CycleTimes.INCO,
			ANTIDays:    s.CycleTimes.ANTI,
			OverallDays: s.CycleTimes.Overall,
		},
		History:     []HistoryEntry{},
		GeneratedAt: now.UTC().Format(dateTimeFormat),
	}
	for loc, count := range s.ByLocation {
		dash.ByLocation[string(loc)] = count
	}
	for _, c := range s.Clients {
		dash.Clients = append(dash.Clients, ClientCount{Client: c.Client, Count: c.Count})
	}
	return dash
}

// FromHistory converts store history rows.
func FromHistory(entries []store.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		dto := HistoryEntry{
			OT:       e.OT,
			Field:    e.Field,
			OldValue: e.OldValue,
			NewValue: e.NewValue,
			Actor:    e.ActorEmail,
		}
		if !e.ChangedAt.IsZero() {
			dto.ChangedAt = e.ChangedAt.UTC().Format(dateTimeFormat)
		}
		out = append(out, dto)
	}
	return out
}

// Catalog returns both pipelines in forward order.
func Catalog() []Pipeline {
	var out []Pipeline
	for _, p := range stages.Pipelines() {
		handOff := stages.HandOff(p)
		pipeline := Pipeline{Name: string(p)}
		for _, s := range stages.Stages(p) {
			pipeline.Stages = append(pipeline.Stages, Stage{Name: s.Name, Progress: s.Progress, HandOff: s.Name == handOff})
		}
		out = append(out, pipeline)
	}
	return out
}
