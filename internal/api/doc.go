// Package api is the work-order service and its wire format.
//
// Service orchestrates every mutation the same way: check the caller's
// session, run the progression engine on a copy of the stored order, persist
// the result, then reload the full work-order set and publish a new view
// snapshot. Readers always see a complete snapshot; a failed write or reload
// leaves the previous one in place.
//
// # Key Types
//
// WorkOrder: transport representation with dates as YYYY-MM-DD strings and a
// delayed flag computed at conversion time.
//
// Board: the INCO/ANTI/ARCHIVED buckets, each sorted by descending progress.
//
// Dashboard: totals, delayed preview, top clients, cycle times, and the recent
// change feed.
//
// # Design Notes
//
// DTOs use camelCase JSON tags and matching YAML tags so the export command
// can emit either format from the same values. Timestamps use RFC3339 with
// milliseconds.
package api
