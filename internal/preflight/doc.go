// Package preflight provides readiness checks for the paths and database
// otrack depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll during Start and refuses to serve when a check
//     fails.
//   - The CLI "otrack doctor" command prints every result.
package preflight
