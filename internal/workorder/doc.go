// Package workorder defines the work order entity and the rules that advance
// it through the INCO and ANTI pipelines.
//
// RecordDate is the progression engine: it records a stage date on an
// in-memory order and derives the new status, progress, and location. The
// machine only moves forward. Clearing a date never reverts derived fields,
// and ARCHIVED orders reject further stage updates.
//
// The package also owns the error taxonomy shared by the store, service, and
// transport layers. Callers match sentinel kinds with errors.Is and transports
// map them to status codes through KindOf.
package workorder
