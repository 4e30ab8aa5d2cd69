package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/simvault/orderdesk/internal/lifecycle"
	"github.com/simvault/orderdesk/internal/model"
	"github.com/simvault/orderdesk/internal/store"
)

// DispatchState tells the scheduler which record, if any, is mid-dispatch so
// its view can carry the transient processing marker.
type DispatchState interface {
	State() (orderID string, kind model.ActionKind, ok bool)
}

// Ticker re-evaluates the pure lifecycle functions over the whole working
// set on a fixed interval and republishes the result. The lifecycle
// functions recompute from absolute timestamps, so the cadence affects only
// display freshness, never correctness.
type Ticker struct {
	interval time.Duration
	set      *store.WorkingSet
	engine   *lifecycle.Engine
	state    DispatchState
	logger   *zap.Logger

	mu     sync.Mutex
	latest []model.OrderView
	subs   map[chan []model.OrderView]struct{}
}

func New(interval time.Duration, set *store.WorkingSet, engine *lifecycle.Engine, state DispatchState, logger *zap.Logger) *Ticker {
	return &Ticker{
		interval: interval,
		set:      set,
		engine:   engine,
		state:    state,
		logger:   logger,
		subs:     make(map[chan []model.OrderView]struct{}),
	}
}

// Run ticks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	t.logger.Info("scheduler started", zap.Duration("interval", t.interval))
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.refresh(time.Now())
	for {
		select {
		case now := <-ticker.C:
			t.refresh(now)
		case <-ctx.Done():
			t.logger.Info("scheduler stopping")
			return nil
		}
	}
}

// Compute builds the views for every record in the working set at now,
// newest order first.
func (t *Ticker) Compute(now time.Time) []model.OrderView {
	inflightID, _, inflight := t.state.State()

	records := t.set.Snapshot()
	views := make([]model.OrderView, 0, len(records))
	for _, rec := range records {
		processing := inflight && rec.ID == inflightID
		views = append(views, t.engine.BuildView(rec, now, processing))
	}
	return views
}

// Latest returns the views computed on the most recent tick.
func (t *Ticker) Latest() []model.OrderView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

// Subscribe registers for per-tick view snapshots. A slow subscriber misses
// ticks rather than blocking the scheduler. The returned func unsubscribes.
func (t *Ticker) Subscribe() (<-chan []model.OrderView, func()) {
	ch := make(chan []model.OrderView, 1)

	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
		t.mu.Unlock()
	}
	return ch, cancel
}

func (t *Ticker) refresh(now time.Time) {
	views := t.Compute(now)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = views
	for ch := range t.subs {
		select {
		case ch <- views:
		default:
		}
	}
}
