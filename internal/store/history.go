package store

import (
	"context"
	"database/sql"
	"time"
)

// UnknownActor labels history rows whose author no longer resolves to a user.
const UnknownActor = "unknown user"

// maxHistoryLimit caps ListRecentHistory regardless of the requested size.
const maxHistoryLimit = 500

// HistoryEntry is one recorded field change.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	WorkOrderID int64     `json:"work_order_id"`
	OT          string    `json:"ot"`
	Field       string    `json:"field"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	ActorEmail  string    `json:"actor_email"`
	ChangedAt   time.Time `json:"changed_at"`
}

// ListRecentHistory returns the newest field changes first. Status and
// progress rows are skipped since every stage date already implies them.
func (s *Store) ListRecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	const op = "list recent history"
	ctx = ensureContext(ctx)
	if limit <= 0 {
		return []HistoryEntry{}, nil
	}
	limit = min(limit, maxHistoryLimit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT h.id, h.work_order_id, w.ot, h.field, h.old_value, h.new_value, h.changed_by, u.email, h.changed_at
        FROM work_order_history h
        JOIN work_orders w ON w.id = h.work_order_id
        LEFT JOIN users u ON u.id = h.changed_by
        WHERE h.field NOT IN ('status', 'progress')
        ORDER BY h.changed_at DESC, h.id DESC
        LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			entry     HistoryEntry
			oldValue  sql.NullString
			newValue  sql.NullString
			changedBy sql.NullString
			email     sql.NullString
			changedAt sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.WorkOrderID,
			&entry.OT,
			&entry.Field,
			&oldValue,
			&newValue,
			&changedBy,
			&email,
			&changedAt,
		); err != nil {
			return nil, storageError(op, err)
		}
		entry.OldValue = oldValue.String
		entry.NewValue = newValue.String
		entry.ActorID = changedBy.String
		entry.ActorEmail = email.String
		if entry.ActorEmail == "" {
			entry.ActorEmail = UnknownActor
		}
		entry.ChangedAt = parseNullTime(changedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return entries, nil
}
