// Package main hosts the otrack CLI entrypoint and command graph.
//
// Commands open the SQLite store directly, so the CLI works whether or not
// otrackd is running. Mutating commands need a session created by
// `otrack login`; the token is kept in the data directory.
package main
