// Package store persists work orders, their stage dates, change history, and
// identity records in SQLite.
//
// Stage dates live in their own table keyed by (work_order_id, stage) so a
// date can be upserted or cleared without rewriting the order row. Row-level
// history is written by triggers; callers only stamp updated_by on each write.
// Errors are classified with the workorder taxonomy: duplicate identifiers
// surface as ErrConflict, missing rows as ErrNotFound, and everything else as
// ErrStorage.
package store
