package projection

import (
	"slices"
	"time"

	"otrack/internal/workorder"
)

// DelayThreshold is the age of an order's earliest stage date past which the
// order counts as delayed.
const DelayThreshold = 30 * 24 * time.Hour

const delayThresholdDays = int(DelayThreshold / (24 * time.Hour))

// Buckets is the split of the work-order set by location. Unknown holds
// orders whose location is not recognised so the split stays total.
type Buckets struct {
	INCO     []workorder.WorkOrder
	ANTI     []workorder.WorkOrder
	Archived []workorder.WorkOrder
	Unknown  []workorder.WorkOrder
}

// Partition splits orders by location in a single pass, preserving input
// order within each bucket.
func Partition(orders []workorder.WorkOrder) Buckets {
	var b Buckets
	for _, order := range orders {
		switch order.Location {
		case workorder.LocationINCO:
			b.INCO = append(b.INCO, order)
		case workorder.LocationANTI:
			b.ANTI = append(b.ANTI, order)
		case workorder.LocationArchived:
			b.Archived = append(b.Archived, order)
		default:
			b.Unknown = append(b.Unknown, order)
		}
	}
	return b
}

// For returns the bucket holding the given location.
func (b Buckets) For(loc workorder.Location) []workorder.WorkOrder {
	switch loc {
	case workorder.LocationINCO:
		return b.INCO
	case workorder.LocationANTI:
		return b.ANTI
	case workorder.LocationArchived:
		return b.Archived
	default:
		return b.Unknown
	}
}

// Total counts every order across the buckets.
func (b Buckets) Total() int {
	return len(b.INCO) + len(b.ANTI) + len(b.Archived) + len(b.Unknown)
}

// InProgress returns INCO followed by ANTI orders.
func (b Buckets) InProgress() []workorder.WorkOrder {
	out := make([]workorder.WorkOrder, 0, len(b.INCO)+len(b.ANTI))
	out = append(out, b.INCO...)
	return append(out, b.ANTI...)
}

// IsDelayed reports whether the order's earliest recorded date is more than
// 30 whole days before now. Orders without dates are never delayed.
func IsDelayed(order workorder.WorkOrder, now time.Time) bool {
	earliest, ok := order.EarliestDate()
	if !ok {
		return false
	}
	return workorder.DaysBetween(earliest, now) > delayThresholdDays
}

// Delayed returns the delayed subset of orders in input order.
func Delayed(orders []workorder.WorkOrder, now time.Time) []workorder.WorkOrder {
	var out []workorder.WorkOrder
	for _, order := range orders {
		if IsDelayed(order, now) {
			out = append(out, order)
		}
	}
	return out
}

// SortByProgress returns a copy of orders sorted by descending progress.
// Orders with equal progress keep their relative order.
func SortByProgress(orders []workorder.WorkOrder) []workorder.WorkOrder {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b workorder.WorkOrder) int {
		return b.Progress - a.Progress
	})
	return sorted
}
