package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simvault/orderdesk/internal/lifecycle"
	"github.com/simvault/orderdesk/internal/metrics"
	"github.com/simvault/orderdesk/internal/model"
)

// RemoteClient issues a mutating action against the remote order service.
// Failures come back as *Error.
type RemoteClient interface {
	PerformAction(ctx context.Context, kind model.ActionKind, remoteOrderID string) error
}

// RecordSource reads current records from the working set.
type RecordSource interface {
	Get(id string) (*model.OrderRecord, bool)
}

// HistoryEntry is what gets recorded about a finished dispatch.
type HistoryEntry struct {
	ID            uuid.UUID
	OrderID       string
	RemoteOrderID string
	Kind          model.ActionKind
	Outcome       string // "success" or the error kind
	Detail        string
	CreatedAt     time.Time
}

// History records finished dispatches. Recording is best effort and never
// affects the dispatch result.
type History interface {
	Record(ctx context.Context, entry HistoryEntry) error
}

// Dispatcher serializes mutating actions: at most one dispatch may be
// outstanding across the entire working set. A request while one is in
// flight is rejected immediately, never queued. The in-flight marker is
// owned state behind the mutex, exposed only through State.
type Dispatcher struct {
	mu       sync.Mutex
	inflight *inflightOp

	records RecordSource
	engine  *lifecycle.Engine
	client  RemoteClient
	history History
	logger  *zap.Logger
	clock   func() time.Time
}

type inflightOp struct {
	orderID string
	kind    model.ActionKind
}

func New(records RecordSource, engine *lifecycle.Engine, client RemoteClient, history History, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		records: records,
		engine:  engine,
		client:  client,
		history: history,
		logger:  logger,
		clock:   time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (d *Dispatcher) WithClock(clock func() time.Time) *Dispatcher {
	d.clock = clock
	return d
}

// Dispatch performs kind on the record. Preconditions are re-checked here
// against the working set, never trusted from stale caller state: the
// dispatcher must be idle and the action must be eligible at this instant.
// On success nothing is mutated locally; the next authoritative feed event
// carries the new status. The in-flight marker is cleared on every path,
// including caller teardown mid-call.
func (d *Dispatcher) Dispatch(ctx context.Context, recordID string, kind model.ActionKind) error {
	d.mu.Lock()
	if d.inflight != nil {
		d.mu.Unlock()
		metrics.DispatchRejectionsTotal.Inc()
		return ErrDispatchInFlight
	}

	rec, found := d.records.Get(recordID)
	if !found {
		d.mu.Unlock()
		return ErrOrderNotFound
	}
	if !d.engine.CanPerform(rec, d.clock(), kind) {
		d.mu.Unlock()
		return ErrActionNotAllowed
	}

	d.inflight = &inflightOp{orderID: recordID, kind: kind}
	d.mu.Unlock()
	metrics.DispatchInFlight.Set(1)

	defer func() {
		d.mu.Lock()
		d.inflight = nil
		d.mu.Unlock()
		metrics.DispatchInFlight.Set(0)
	}()

	l := d.logger.With(
		zap.String("order_id", recordID),
		zap.String("remote_order_id", rec.RemoteOrderID),
		zap.String("kind", string(kind)))
	l.Info("dispatching action")

	err := d.client.PerformAction(ctx, kind, rec.RemoteOrderID)

	outcome := "success"
	detail := ""
	if err != nil {
		var derr *Error
		if !errors.As(err, &derr) {
			derr = NewError(KindUnknown, err.Error())
		}
		outcome = string(derr.Kind)
		detail = derr.Message
		l.Warn("dispatch failed", zap.String("error_kind", outcome), zap.Error(err))
		metrics.DispatchesTotal.WithLabelValues(string(kind), outcome).Inc()
		d.record(recordID, rec.RemoteOrderID, kind, outcome, detail)
		return derr
	}

	l.Info("dispatch succeeded")
	metrics.DispatchesTotal.WithLabelValues(string(kind), outcome).Inc()
	d.record(recordID, rec.RemoteOrderID, kind, outcome, detail)
	return nil
}

// State reports the in-flight dispatch, if any. Views use it to render a
// transient "processing" marker during dispatch only.
func (d *Dispatcher) State() (orderID string, kind model.ActionKind, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight == nil {
		return "", "", false
	}
	return d.inflight.orderID, d.inflight.kind, true
}

// record writes the history entry with its own timeout so a torn-down caller
// context cannot drop the record.
func (d *Dispatcher) record(orderID, remoteOrderID string, kind model.ActionKind, outcome, detail string) {
	if d.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := HistoryEntry{
		ID:            uuid.New(),
		OrderID:       orderID,
		RemoteOrderID: remoteOrderID,
		Kind:          kind,
		Outcome:       outcome,
		Detail:        detail,
		CreatedAt:     d.clock().UTC(),
	}
	if err := d.history.Record(ctx, entry); err != nil {
		d.logger.Error("failed to record dispatch history", zap.Error(err))
	}
}
