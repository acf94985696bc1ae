// Package daemon coordinates the long-running otrackd process.
//
// It wires configuration, the SQLite store, the identity provider, the
// work-order service, and Prometheus metrics into a single lifecycle with
// flock-based locking to prevent multiple instances on one data directory.
// The HTTP API lives here too: routing, bearer-session authentication, and
// the mapping from error kinds to status codes.
//
// Keep orchestration logic here: progression rules belong in workorder and
// read-side aggregation in projection.
package daemon
