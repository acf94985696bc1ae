// Package logs tails the otrackd log file for `otrack logs`.
//
// Tail keeps memory bounded when returning the last N lines, resumes from a
// byte offset for follow mode, and can filter lines by work order or level
// before the limit is applied.
package logs
