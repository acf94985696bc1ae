// Package daemonctl starts, stops, and probes otrackd from the CLI.
//
// The daemon is found through its HTTP health endpoint; the pid file in the
// data directory is the fallback when the API does not answer.
package daemonctl
