package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"otrack/internal/config"
	"otrack/internal/identity"
	"otrack/internal/logging"
	"otrack/internal/metrics"
	"otrack/internal/projection"
	"otrack/internal/store"
	"otrack/internal/workorder"
)

// Store abstracts the persistence the service needs.
type Store interface {
	ListWorkOrders(ctx context.Context) ([]workorder.WorkOrder, error)
	InsertWorkOrder(ctx context.Context, w workorder.WorkOrder, actor string) (workorder.WorkOrder, error)
	GetWorkOrderByOT(ctx context.Context, ot string) (workorder.WorkOrder, error)
	RecordStageDate(ctx context.Context, id int64, stage string, date time.Time, derived *workorder.Derived, actor string) error
	UpdateWorkOrderDetails(ctx context.Context, id int64, details workorder.Details, actor string) error
	ListRecentHistory(ctx context.Context, limit int) ([]store.HistoryEntry, error)
}

// Notifier receives location hand-offs.
type Notifier interface {
	NotifyHandOff(ctx context.Context, ot, client, from, to string) error
}

// View is an immutable snapshot of the full work-order set.
type View struct {
	Orders   []workorder.WorkOrder
	Buckets  projection.Buckets
	LoadedAt time.Time
}

// Options configures a Service.
type Options struct {
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
	Clock     func() time.Time
	Dashboard config.Dashboard
	Notifier  Notifier
}

// Service runs work-order operations against a Store and keeps the current
// view snapshot.
type Service struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Recorder
	now       func() time.Time
	dashboard config.Dashboard
	notifier  Notifier
	view      atomic.Pointer[View]
}

// NewService constructs a Service around st.
func NewService(st Store, opts Options) *Service {
	if st == nil {
		return nil
	}
	s := &Service{
		store:     st,
		logger:    logging.NewComponentLogger(opts.Logger, "service"),
		metrics:   opts.Metrics,
		now:       opts.Clock,
		dashboard: opts.Dashboard,
		notifier:  opts.Notifier,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Reload fetches the full work-order set and publishes a new snapshot. On
// failure the previous snapshot stays in place.
func (s *Service) Reload(ctx context.Context) error {
	const op = "reload work orders"
	orders, err := s.store.ListWorkOrders(ctx)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	now := s.now()
	v := &View{
		Orders:   orders,
		Buckets:  projection.Partition(orders),
		LoadedAt: now,
	}
	s.view.Store(v)

	counts := map[workorder.Location]int{
		workorder.LocationINCO:     len(v.Buckets.INCO),
		workorder.LocationANTI:     len(v.Buckets.ANTI),
		workorder.LocationArchived: len(v.Buckets.Archived),
	}
	s.metrics.ObserveView(counts, len(projection.Delayed(v.Buckets.InProgress(), now)))
	if n := len(v.Buckets.Unknown); n > 0 {
		s.logger.Warn("work orders with unknown location",
			logging.String(logging.FieldEventType, "unknown_location"),
			logging.Int("count", n),
		)
	}
	s.logger.Debug("view reloaded", logging.Int("orders", len(orders)))
	return nil
}

// Snapshot reloads the view from the store so writes made by other processes
// sharing the database are visible. When the reload fails the last published
// view is returned; without one the error is.
func (s *Service) Snapshot(ctx context.Context) (*View, error) {
	if err := s.Reload(ctx); err != nil {
		if v := s.view.Load(); v != nil {
			return v, nil
		}
		return nil, err
	}
	return s.view.Load(), nil
}

// Create inserts a new INCO work order.
func (s *Service) Create(ctx context.Context, session *identity.Session, req CreateRequest) (WorkOrder, error) {
	const op = "create work order"
	if err := s.authorize(ctx, op, session); err != nil {
		return WorkOrder{}, err
	}
	if strings.TrimSpace(req.OT) == "" {
		return WorkOrder{}, s.fail(ctx, op, workorder.E(op, workorder.ErrValidation, errors.New("ot is required")))
	}
	draft := workorder.New(req.OT, workorder.Details{Client: req.Client, Description: req.Description, Tag: req.Tag})
	ctx = logging.WithActor(logging.WithOT(ctx, draft.OT), session.UserID)

	created, err := s.store.InsertWorkOrder(ctx, draft, session.UserID)
	if err != nil {
		return WorkOrder{}, s.fail(ctx, op, err)
	}
	if err := s.Reload(ctx); err != nil {
		return WorkOrder{}, err
	}
	s.metrics.WorkOrderCreated()
	logging.WithContext(ctx, s.logger).Info("work order created", logging.String("client", created.Client))
	return FromWorkOrder(created, s.now()), nil
}

// RecordStageDate records or clears (zero date) the date of stage on order ot
// and persists the derived fields the progression engine computes.
func (s *Service) RecordStageDate(ctx context.Context, session *identity.Session, ot, stage string, date time.Time) (StageUpdate, error) {
	const op = "record stage date"
	if err := s.authorize(ctx, op, session); err != nil {
		return StageUpdate{}, err
	}
	ctx = logging.WithActor(logging.WithStage(logging.WithOT(ctx, workorder.NormalizeOT(ot)), stage), session.UserID)

	current, err := s.store.GetWorkOrderByOT(ctx, ot)
	if err != nil {
		return StageUpdate{}, s.fail(ctx, op, err)
	}
	next := current.Clone()
	tr, err := workorder.RecordDate(&next, stage, date)
	if err != nil {
		return StageUpdate{}, s.fail(ctx, op, err)
	}

	stored := tr.Date
	if tr.Cleared {
		stored = time.Time{}
	}
	var derived *workorder.Derived
	if tr.DerivedChanged() {
		d := tr.Derived()
		derived = &d
	}
	if err := s.store.RecordStageDate(ctx, next.ID, tr.Stage, stored, derived, session.UserID); err != nil {
		return StageUpdate{}, s.fail(ctx, op, err)
	}
	if err := s.Reload(ctx); err != nil {
		return StageUpdate{}, err
	}

	s.metrics.StageDateRecorded(tr.Stage, tr.Cleared, tr.PrevLocation, tr.Location)
	logger := logging.WithContext(ctx, s.logger)
	if tr.Advanced() {
		logger.Info("work order advanced",
			logging.String("from", string(tr.PrevLocation)),
			logging.String("to", string(tr.Location)),
		)
		if s.notifier != nil {
			if err := s.notifier.NotifyHandOff(ctx, next.OT, next.Client, string(tr.PrevLocation), string(tr.Location)); err != nil {
				logger.Warn("hand-off notification failed", logging.Error(err))
			}
		}
	} else {
		logger.Info("stage date recorded",
			logging.Bool("cleared", tr.Cleared),
			logging.Int("progress", tr.Progress),
		)
	}
	return FromTransition(next, tr, s.now()), nil
}

// UpdateDetails edits client, tag, and description. Archived orders accept
// detail edits.
func (s *Service) UpdateDetails(ctx context.Context, session *identity.Session, ot string, req DetailsRequest) (WorkOrder, error) {
	const op = "update work order details"
	if err := s.authorize(ctx, op, session); err != nil {
		return WorkOrder{}, err
	}
	ctx = logging.WithActor(logging.WithOT(ctx, workorder.NormalizeOT(ot)), session.UserID)

	current, err := s.store.GetWorkOrderByOT(ctx, ot)
	if err != nil {
		return WorkOrder{}, s.fail(ctx, op, err)
	}
	details := workorder.Details{
		Client:      strings.TrimSpace(req.Client),
		Description: strings.TrimSpace(req.Description),
		Tag:         strings.TrimSpace(req.Tag),
	}
	if err := s.store.UpdateWorkOrderDetails(ctx, current.ID, details, session.UserID); err != nil {
		return WorkOrder{}, s.fail(ctx, op, err)
	}
	if err := s.Reload(ctx); err != nil {
		return WorkOrder{}, err
	}
	current.Client, current.Description, current.Tag = details.Client, details.Description, details.Tag
	logging.WithContext(ctx, s.logger).Info("work order details updated")
	return FromWorkOrder(current, s.now()), nil
}

// Board returns the current buckets sorted for display.
func (s *Service) Board(ctx context.Context) (Board, error) {
	v, err := s.Snapshot(ctx)
	if err != nil {
		return Board{}, err
	}
	board := FromBuckets(v.Buckets, s.now())
	board.LoadedAt = v.LoadedAt.UTC().Format(dateTimeFormat)
	return board, nil
}

// List returns the orders of one location sorted by descending progress, or
// every order (newest first) when location is empty.
func (s *Service) List(ctx context.Context, location string) ([]WorkOrder, error) {
	const op = "list work orders"
	v, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if strings.TrimSpace(location) == "" {
		return FromWorkOrders(v.Orders, now), nil
	}
	loc, ok := workorder.ParseLocation(location)
	if !ok {
		return nil, workorder.E(op, workorder.ErrValidation, fmt.Errorf("unknown location %q", location))
	}
	return FromWorkOrders(projection.SortByProgress(v.Buckets.For(loc)), now), nil
}

// Describe fetches one order from the store.
func (s *Service) Describe(ctx context.Context, ot string) (WorkOrder, error) {
	const op = "describe work order"
	w, err := s.store.GetWorkOrderByOT(ctx, ot)
	if err != nil {
		return WorkOrder{}, s.fail(ctx, op, err)
	}
	return FromWorkOrder(w, s.now()), nil
}

// Dashboard summarizes the current snapshot and attaches the recent change
// feed.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	v, err := s.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.now()
	summary := projection.Summarize(v.Buckets, now, projection.Options{TopClients: s.dashboard.TopClients})
	dash := FromSummary(summary, now, s.dashboard.DelayedPreview)
	history, err := s.History(ctx, s.dashboard.HistoryLimit)
	if err != nil {
		return Dashboard{}, err
	}
	dash.History = history
	return dash, nil
}

// History returns the newest field changes. limit <= 0 uses the configured
// dashboard length.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	const op = "list history"
	if limit <= 0 {
		limit = s.dashboard.HistoryLimit
	}
	entries, err := s.store.ListRecentHistory(ctx, limit)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return FromHistory(entries), nil
}

// Stages returns the stage catalog.
func (s *Service) Stages() []Pipeline {
	return Catalog()
}

func (s *Service) authorize(ctx context.Context, op string, session *identity.Session) error {
	if err := identity.Require(op, session, s.now()); err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}

// fail classifies err, counts it, and logs it. Unclassified errors become
// ErrStorage.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	var classified *workorder.Error
	if !errors.As(err, &classified) {
		err = workorder.E(op, workorder.ErrStorage, err)
	}
	kind := workorder.KindOf(err)
	s.metrics.OperationFailed(op, kind)
	logger := logging.WithContext(ctx, s.logger)
	attrs := logging.Args(
		logging.String(logging.FieldEventType, "operation_failed"),
		logging.String("op", op),
		logging.String("kind", kind),
		logging.Error(err),
	)
	if kind == "storage" {
		logger.Error("operation failed", attrs...)
	} else {
		logger.Warn("operation rejected", attrs...)
	}
	return err
}
