package store

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/simvault/orderdesk/internal/metrics"
	"github.com/simvault/orderdesk/internal/model"
)

// WorkingSet is the in-memory keyed collection of live order records. The
// feed is the source of truth: records enter on "added", change on
// "modified" and leave on "removed". Nothing here is persisted.
type WorkingSet struct {
	mu      sync.RWMutex
	records map[string]*model.OrderRecord
	logger  *zap.Logger
}

func New(logger *zap.Logger) *WorkingSet {
	return &WorkingSet{
		records: make(map[string]*model.OrderRecord),
		logger:  logger,
	}
}

// Upsert applies an added or modified record. A persisted status is monotonic
// per type: once terminal it absorbs, so a feed update that tries to move a
// record out of a terminal status keeps the terminal status while the other
// fields still apply.
func (s *WorkingSet) Upsert(rec model.OrderRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, found := s.records[rec.ID]; found {
		if existing.Status.IsTerminal() && rec.Status != existing.Status {
			s.logger.Warn("ignoring status transition out of terminal state",
				zap.String("order_id", rec.ID),
				zap.String("status", string(existing.Status)),
				zap.String("feed_status", string(rec.Status)))
			rec.Status = existing.Status
		}
	}

	recCopy := rec
	s.records[rec.ID] = &recCopy
	metrics.WorkingSetSize.Set(float64(len(s.records)))
}

// Remove drops a record from the working set.
func (s *WorkingSet) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.records[id]; found {
		delete(s.records, id)
		metrics.WorkingSetSize.Set(float64(len(s.records)))
	}
}

// Get returns a copy of the record, if present.
func (s *WorkingSet) Get(id string) (*model.OrderRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, found := s.records[id]
	if !found {
		return nil, false
	}
	recCopy := *rec
	return &recCopy, true
}

// Snapshot returns copies of all records sorted by creation time descending,
// newest first.
func (s *WorkingSet) Snapshot() []*model.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.OrderRecord, 0, len(s.records))
	for _, rec := range s.records {
		recCopy := *rec
		out = append(out, &recCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of records in the working set.
func (s *WorkingSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
