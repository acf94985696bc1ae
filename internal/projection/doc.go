// Package projection derives read-side views from a loaded work-order set:
// the INCO/ANTI/ARCHIVED buckets, delay detection, display ordering, and
// the dashboard summary.
//
// Every function is pure. The service layer reloads the full set after each
// mutation and recomputes projections from scratch.
package projection
