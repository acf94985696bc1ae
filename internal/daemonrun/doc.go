// Package daemonrun holds the otrackd process bootstrap shared by the
// otrackd binary and `otrack daemon run`.
package daemonrun
