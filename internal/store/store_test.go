package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"otrack/internal/store"
	"otrack/internal/testsupport"
	"otrack/internal/workorder"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if st.Path() != filepath.Join(cfg.Paths.DataDir, "otrack.db") {
		t.Fatalf("unexpected path %q", st.Path())
	}
	testsupport.NewWorkOrder(t, st, "OT-1", "Acme")
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	orders, err := reopened.ListWorkOrders(context.Background())
	if err != nil {
		t.Fatalf("ListWorkOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].OT != "OT-1" {
		t.Fatalf("unexpected orders after reopen: %+v", orders)
	}
}

func TestInsertWorkOrderDefaultsAndConflict(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	created, err := st.InsertWorkOrder(ctx, workorder.New("ot-100", workorder.Details{Client: "Acme", Tag: "T1"}), "user-1")
	if err != nil {
		t.Fatalf("InsertWorkOrder: %v", err)
	}
	if created.ID == 0 || created.OT != "OT-100" {
		t.Fatalf("unexpected created order %+v", created)
	}
	if created.Location != workorder.LocationINCO || created.Status != "" || created.Progress != 0 || len(created.Dates) != 0 {
		t.Fatalf("unexpected defaults %+v", created)
	}
	if created.CreatedBy != "user-1" || created.CreatedAt.IsZero() {
		t.Fatalf("bookkeeping not recorded: %+v", created)
	}

	_, err = st.InsertWorkOrder(ctx, workorder.New("OT-100", workorder.Details{}), "user-1")
	if !errors.Is(err, workorder.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	_, err = st.InsertWorkOrder(ctx, workorder.New("  ", workorder.Details{}), "user-1")
	if !errors.Is(err, workorder.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank ot, got %v", err)
	}
}

func TestUpsertStageDateRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	w := testsupport.NewWorkOrder(t, st, "OT-2", "Acme")

	if err := st.UpsertStageDate(ctx, w.ID, "Corte", testsupport.MustDate(t, "2024-01-01"), ""); err != nil {
		t.Fatalf("UpsertStageDate: %v", err)
	}
	if err := st.UpsertStageDate(ctx, w.ID, "Corte", testsupport.MustDate(t, "2024-01-03"), ""); err != nil {
		t.Fatalf("UpsertStageDate overwrite: %v", err)
	}
	if err := st.UpsertStageDate(ctx, w.ID, "Armado", testsupport.MustDate(t, "2024-01-05"), ""); err != nil {
		t.Fatalf("UpsertStageDate second stage: %v", err)
	}

	got, err := st.GetWorkOrderByOT(ctx, "ot-2")
	if err != nil {
		t.Fatalf("GetWorkOrderByOT: %v", err)
	}
	if d, ok := got.DateFor("Corte"); !ok || workorder.FormatDate(d) != "2024-01-03" {
		t.Fatalf("unexpected Corte date %v", got.Dates)
	}
	if len(got.Dates) != 2 {
		t.Fatalf("expected two dates, got %v", got.Dates)
	}

	if err := st.UpsertStageDate(ctx, w.ID, "Corte", time.Time{}, ""); err != nil {
		t.Fatalf("clear date: %v", err)
	}
	orders, err := st.ListWorkOrders(ctx)
	if err != nil {
		t.Fatalf("ListWorkOrders: %v", err)
	}
	if _, ok := orders[0].Dates["Corte"]; ok {
		t.Fatalf("cleared date still listed: %v", orders[0].Dates)
	}
	if _, ok := orders[0].Dates["Armado"]; !ok {
		t.Fatalf("unrelated date lost: %v", orders[0].Dates)
	}

	if err := st.UpsertStageDate(ctx, 9999, "Corte", testsupport.MustDate(t, "2024-01-01"), ""); !errors.Is(err, workorder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing order, got %v", err)
	}
}

func TestRecordStageDateWritesDateAndDerivedTogether(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	w := testsupport.NewWorkOrder(t, st, "OT-8", "Acme")

	derived := workorder.Derived{Status: "Corte", Progress: 25, Location: workorder.LocationINCO}
	if err := st.RecordStageDate(ctx, w.ID, "Corte", testsupport.MustDate(t, "2024-01-01"), &derived, "user-1"); err != nil {
		t.Fatalf("RecordStageDate: %v", err)
	}
	got, err := st.GetWorkOrderByOT(ctx, "OT-8")
	if err != nil {
		t.Fatalf("GetWorkOrderByOT: %v", err)
	}
	if got.Derived() != derived || !got.Dates["Corte"].Equal(testsupport.MustDate(t, "2024-01-01")) {
		t.Fatalf("unexpected order after record: %+v", got)
	}

	// A failing derived write must roll back the date written before it.
	raw, err := sql.Open("sqlite", st.Path())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer raw.Close()
	if _, err := raw.ExecContext(ctx, `CREATE TRIGGER reject_armado BEFORE UPDATE OF status ON work_orders
        WHEN NEW.status = 'Armado' BEGIN SELECT RAISE(ABORT, 'rejected'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	blocked := workorder.Derived{Status: "Armado", Progress: 45, Location: workorder.LocationINCO}
	if err := st.RecordStageDate(ctx, w.ID, "Armado", testsupport.MustDate(t, "2024-01-05"), &blocked, "user-1"); !errors.Is(err, workorder.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	got, err = st.GetWorkOrderByOT(ctx, "OT-8")
	if err != nil {
		t.Fatalf("GetWorkOrderByOT: %v", err)
	}
	if _, ok := got.Dates["Armado"]; ok || got.Status != "Corte" {
		t.Fatalf("partial write survived: %+v", got)
	}

	if err := st.RecordStageDate(ctx, 9999, "Corte", testsupport.MustDate(t, "2024-01-01"), &derived, ""); !errors.Is(err, workorder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDerivedAndDetails(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	w := testsupport.NewWorkOrder(t, st, "OT-3", "Acme")

	derived := workorder.Derived{Status: "Anticorr", Progress: 100, Location: workorder.LocationANTI}
	if err := st.UpdateWorkOrderDerived(ctx, w.ID, derived, "user-2"); err != nil {
		t.Fatalf("UpdateWorkOrderDerived: %v", err)
	}
	if err := st.UpdateWorkOrderDetails(ctx, w.ID, workorder.Details{Client: "Beta", Description: "Tank", Tag: "T9"}, "user-2"); err != nil {
		t.Fatalf("UpdateWorkOrderDetails: %v", err)
	}

	got, err := st.GetWorkOrderByOT(ctx, "OT-3")
	if err != nil {
		t.Fatalf("GetWorkOrderByOT: %v", err)
	}
	if got.Derived() != derived {
		t.Fatalf("derived = %+v, want %+v", got.Derived(), derived)
	}
	if got.Client != "Beta" || got.Description != "Tank" || got.Tag != "T9" || got.UpdatedBy != "user-2" {
		t.Fatalf("details not persisted: %+v", got)
	}

	if err := st.UpdateWorkOrderDerived(ctx, 4242, derived, ""); !errors.Is(err, workorder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.UpdateWorkOrderDetails(ctx, 4242, workorder.Details{}, ""); !errors.Is(err, workorder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.GetWorkOrderByOT(ctx, "OT-404"); !errors.Is(err, workorder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListWorkOrdersNewestFirst(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	for _, ot := range []string{"OT-A", "OT-B", "OT-C"} {
		testsupport.NewWorkOrder(t, st, ot, "Acme")
	}
	orders, err := st.ListWorkOrders(context.Background())
	if err != nil {
		t.Fatalf("ListWorkOrders: %v", err)
	}
	var got []string
	for _, o := range orders {
		got = append(got, o.OT)
	}
	if len(got) != 3 || got[0] != "OT-C" || got[2] != "OT-A" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestListRecentHistory(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := st.InsertUser(ctx, store.User{ID: "user-1", Email: "ana@example.com"}); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	w, err := st.InsertWorkOrder(ctx, workorder.New("OT-5", workorder.Details{Client: "Acme"}), "user-1")
	if err != nil {
		t.Fatalf("InsertWorkOrder: %v", err)
	}
	if err := st.UpsertStageDate(ctx, w.ID, "Corte", testsupport.MustDate(t, "2024-01-01"), "user-1"); err != nil {
		t.Fatalf("UpsertStageDate: %v", err)
	}
	if err := st.UpdateWorkOrderDerived(ctx, w.ID, workorder.Derived{Status: "Corte", Progress: 25, Location: workorder.LocationINCO}, "user-1"); err != nil {
		t.Fatalf("UpdateWorkOrderDerived: %v", err)
	}
	if err := st.UpdateWorkOrderDetails(ctx, w.ID, workorder.Details{Client: "Beta"}, "ghost"); err != nil {
		t.Fatalf("UpdateWorkOrderDetails: %v", err)
	}

	entries, err := st.ListRecentHistory(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentHistory: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (created, date, client), got %+v", entries)
	}
	for _, e := range entries {
		if e.Field == "status" || e.Field == "progress" {
			t.Fatalf("status/progress rows must be excluded: %+v", e)
		}
	}
	if entries[0].Field != "client" || entries[0].OldValue != "Acme" || entries[0].NewValue != "Beta" {
		t.Fatalf("unexpected newest entry %+v", entries[0])
	}
	if entries[0].ActorEmail != store.UnknownActor {
		t.Fatalf("expected unknown actor fallback, got %q", entries[0].ActorEmail)
	}
	if entries[1].Field != "dates.Corte" || entries[1].NewValue != "2024-01-01" || entries[1].ActorEmail != "ana@example.com" {
		t.Fatalf("unexpected date entry %+v", entries[1])
	}
	if entries[2].Field != "created" || entries[2].OT != "OT-5" {
		t.Fatalf("unexpected creation entry %+v", entries[2])
	}

	limited, err := st.ListRecentHistory(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit not applied: %v %+v", err, limited)
	}
	none, err := st.ListRecentHistory(ctx, 0)
	if err != nil || len(none) != 0 {
		t.Fatalf("zero limit should return nothing: %v %+v", err, none)
	}
}

func TestUsersAndSessions(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := st.InsertUser(ctx, store.User{ID: "u1", Email: "Ana@Example.com"}); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	if err := st.InsertUser(ctx, store.User{ID: "u2", Email: "ana@example.com"}); !errors.Is(err, workorder.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
	user, err := st.GetUserByEmail(ctx, "ANA@example.com")
	if err != nil || user.ID != "u1" {
		t.Fatalf("GetUserByEmail: %+v %v", user, err)
	}
	if _, err := st.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	now := time.Now().UTC()
	live := store.SessionRecord{Token: "live", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := store.SessionRecord{Token: "stale", UserID: "u1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, rec := range []store.SessionRecord{live, stale} {
		if err := st.InsertSession(ctx, rec); err != nil {
			t.Fatalf("InsertSession: %v", err)
		}
	}
	got, err := st.GetSession(ctx, "live")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Email != "Ana@Example.com" || !got.ExpiresAt.Equal(live.ExpiresAt) {
		t.Fatalf("unexpected session %+v", got)
	}

	purged, err := st.PurgeExpiredSessions(ctx, now)
	if err != nil || purged != 1 {
		t.Fatalf("PurgeExpiredSessions = %d, %v", purged, err)
	}
	removed, err := st.DeleteSession(ctx, "live")
	if err != nil || !removed {
		t.Fatalf("DeleteSession = %v, %v", removed, err)
	}
	if _, err := st.GetSession(ctx, "live"); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
