package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"otrack/internal/workorder"
)

const workOrderColumns = "id, ot, client, description, tag, status, progress, location, created_at, updated_at, created_by, updated_by"

func scanWorkOrder(scanner rowScanner) (workorder.WorkOrder, error) {
	var (
		w           workorder.WorkOrder
		client      sql.NullString
		description sql.NullString
		tag         sql.NullString
		status      sql.NullString
		location    string
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
		createdBy   sql.NullString
		updatedBy   sql.NullString
	)
	if err := scanner.Scan(
		&w.ID,
		&w.OT,
		&client,
		&description,
		&tag,
		&status,
		&w.Progress,
		&location,
		&createdRaw,
		&updatedRaw,
		&createdBy,
		&updatedBy,
	); err != nil {
		return workorder.WorkOrder{}, err
	}
	w.Client = client.String
	w.Description = description.String
	w.Tag = tag.String
	w.Status = status.String
	w.Location = workorder.Location(location)
	w.CreatedAt = parseNullTime(createdRaw)
	w.UpdatedAt = parseNullTime(updatedRaw)
	w.CreatedBy = createdBy.String
	w.UpdatedBy = updatedBy.String
	w.Dates = map[string]time.Time{}
	return w, nil
}

// ListWorkOrders returns every work order with its recorded stage dates,
// newest first. Cleared dates are omitted.
func (s *Store) ListWorkOrders(ctx context.Context) ([]workorder.WorkOrder, error) {
	const op = "list work orders"
	ctx = ensureContext(ctx)

	rows, err := s.db.QueryContext(ctx, `SELECT `+workOrderColumns+` FROM work_orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	var orders []workorder.WorkOrder
	index := make(map[int64]int)
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, storageError(op, err)
		}
		index[w.ID] = len(orders)
		orders = append(orders, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	dateRows, err := s.db.QueryContext(ctx, `SELECT work_order_id, stage, date FROM work_order_dates WHERE date IS NOT NULL`)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer dateRows.Close()
	for dateRows.Next() {
		var (
			id    int64
			stage string
			raw   string
		)
		if err := dateRows.Scan(&id, &stage, &raw); err != nil {
			return nil, storageError(op, err)
		}
		pos, ok := index[id]
		if !ok {
			continue
		}
		d, err := workorder.ParseDate(raw)
		if err != nil || d.IsZero() {
			continue
		}
		orders[pos].Dates[stage] = d
	}
	if err := dateRows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return orders, nil
}

// GetWorkOrderByOT fetches a single order with its dates.
func (s *Store) GetWorkOrderByOT(ctx context.Context, ot string) (workorder.WorkOrder, error) {
	const op = "get work order"
	ctx = ensureContext(ctx)
	ot = workorder.NormalizeOT(ot)

	row := s.db.QueryRowContext(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE ot = ?`, ot)
	w, err := scanWorkOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workorder.WorkOrder{}, workorder.E(op, workorder.ErrNotFound, fmt.Errorf("ot %s", ot))
	}
	if err != nil {
		return workorder.WorkOrder{}, storageError(op, err)
	}
	if err := s.loadDates(ctx, &w); err != nil {
		return workorder.WorkOrder{}, storageError(op, err)
	}
	return w, nil
}

func (s *Store) getWorkOrderByID(ctx context.Context, id int64) (workorder.WorkOrder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id = ?`, id)
	w, err := scanWorkOrder(row)
	if err != nil {
		return workorder.WorkOrder{}, err
	}
	if err := s.loadDates(ctx, &w); err != nil {
		return workorder.WorkOrder{}, err
	}
	return w, nil
}

func (s *Store) loadDates(ctx context.Context, w *workorder.WorkOrder) error {
	rows, err := s.db.QueryContext(ctx, `SELECT stage, date FROM work_order_dates WHERE work_order_id = ? AND date IS NOT NULL`, w.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var stage, raw string
		if err := rows.Scan(&stage, &raw); err != nil {
			return err
		}
		if d, err := workorder.ParseDate(raw); err == nil && !d.IsZero() {
			w.Dates[stage] = d
		}
	}
	return rows.Err()
}

// InsertWorkOrder creates a new order row together with any dates it already
// carries. A duplicate OT fails with ErrConflict.
func (s *Store) InsertWorkOrder(ctx context.Context, w workorder.WorkOrder, actor string) (workorder.WorkOrder, error) {
	const op = "insert work order"
	ctx = ensureContext(ctx)
	ot := workorder.NormalizeOT(w.OT)
	if ot == "" {
		return workorder.WorkOrder{}, workorder.E(op, workorder.ErrValidation, errors.New("ot is required"))
	}
	location := w.Location
	if location == "" {
		location = workorder.LocationINCO
	}
	timestamp := formatTime(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return workorder.WorkOrder{}, storageError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO work_orders (
            ot, client, description, tag, status, progress, location,
            created_at, updated_at, created_by, updated_by
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ot,
		nullableString(strings.TrimSpace(w.Client)),
		nullableString(strings.TrimSpace(w.Description)),
		nullableString(strings.TrimSpace(w.Tag)),
		nullableString(w.Status),
		w.Progress,
		string(location),
		timestamp,
		timestamp,
		nullableString(actor),
		nullableString(actor),
	)
	if err != nil {
		return workorder.WorkOrder{}, storageError(op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return workorder.WorkOrder{}, storageError(op, fmt.Errorf("last insert id: %w", err))
	}
	for stage, d := range w.Dates {
		if d.IsZero() {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO work_order_dates (work_order_id, stage, date, updated_at, updated_by) VALUES (?, ?, ?, ?, ?)`,
			id, stage, workorder.FormatDate(d), timestamp, nullableString(actor),
		); err != nil {
			return workorder.WorkOrder{}, storageError(op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return workorder.WorkOrder{}, storageError(op, err)
	}

	created, err := s.getWorkOrderByID(ctx, id)
	if err != nil {
		return workorder.WorkOrder{}, storageError(op, err)
	}
	return created, nil
}

// UpsertStageDate records or clears the date for one stage of order id. A
// zero date stores NULL, which ListWorkOrders treats as absent.
func (s *Store) UpsertStageDate(ctx context.Context, id int64, stage string, date time.Time, actor string) error {
	return s.RecordStageDate(ctx, id, stage, date, nil, actor)
}

// RecordStageDate upserts the stage date of order id and, when derived is
// non-nil, writes status, progress, and location in the same transaction.
func (s *Store) RecordStageDate(ctx context.Context, id int64, stage string, date time.Time, derived *workorder.Derived, actor string) error {
	const op = "record stage date"
	ctx = ensureContext(ctx)
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return workorder.E(op, workorder.ErrValidation, errors.New("stage name is required"))
	}

	var value any
	if !date.IsZero() {
		value = workorder.FormatDate(date)
	}
	timestamp := formatTime(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireWorkOrder(ctx, tx, op, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO work_order_dates (work_order_id, stage, date, updated_at, updated_by)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (work_order_id, stage) DO UPDATE SET
            date = excluded.date,
            updated_at = excluded.updated_at,
            updated_by = excluded.updated_by`,
		id, stage, value, timestamp, nullableString(actor),
	); err != nil {
		return storageError(op, err)
	}
	if derived != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE work_orders SET status = ?, progress = ?, location = ?, updated_at = ?, updated_by = ? WHERE id = ?`,
			nullableString(derived.Status),
			derived.Progress,
			string(derived.Location),
			timestamp,
			nullableString(actor),
			id,
		); err != nil {
			return storageError(op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageError(op, err)
	}
	return nil
}

// UpdateWorkOrderDerived writes the engine-owned fields of order id.
func (s *Store) UpdateWorkOrderDerived(ctx context.Context, id int64, derived workorder.Derived, actor string) error {
	const op = "update work order derived fields"
	return s.updateRow(ensureContext(ctx), op, id,
		`UPDATE work_orders SET status = ?, progress = ?, location = ?, updated_at = ?, updated_by = ? WHERE id = ?`,
		nullableString(derived.Status),
		derived.Progress,
		string(derived.Location),
		formatTime(time.Now()),
		nullableString(actor),
		id,
	)
}

// UpdateWorkOrderDetails writes the descriptive fields of order id.
func (s *Store) UpdateWorkOrderDetails(ctx context.Context, id int64, details workorder.Details, actor string) error {
	const op = "update work order details"
	return s.updateRow(ensureContext(ctx), op, id,
		`UPDATE work_orders SET client = ?, description = ?, tag = ?, updated_at = ?, updated_by = ? WHERE id = ?`,
		nullableString(strings.TrimSpace(details.Client)),
		nullableString(strings.TrimSpace(details.Description)),
		nullableString(strings.TrimSpace(details.Tag)),
		formatTime(time.Now()),
		nullableString(actor),
		id,
	)
}

func (s *Store) updateRow(ctx context.Context, op string, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storageError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageError(op, err)
	}
	if affected == 0 {
		return workorder.E(op, workorder.ErrNotFound, fmt.Errorf("work order id %d", id))
	}
	return nil
}

func requireWorkOrder(ctx context.Context, tx *sql.Tx, op string, id int64) error {
	var exists int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM work_orders WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return workorder.E(op, workorder.ErrNotFound, fmt.Errorf("work order id %d", id))
	}
	if err != nil {
		return storageError(op, err)
	}
	return nil
}
