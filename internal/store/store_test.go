package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simvault/orderdesk/internal/model"
)

func record(id string, status model.Status, createdAt time.Time) model.OrderRecord {
	return model.OrderRecord{
		ID:          id,
		ServiceType: model.TypeLong,
		Status:      status,
		CreatedAt:   createdAt,
	}
}

func TestUpsertAndGet(t *testing.T) {
	set := New(zap.NewNop())
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	set.Upsert(record("a", model.StatusInactive, createdAt))

	got, found := set.Get("a")
	require.True(t, found)
	assert.Equal(t, model.StatusInactive, got.Status)

	// Mutating the returned copy must not leak into the set.
	got.Status = model.StatusActive
	again, _ := set.Get("a")
	assert.Equal(t, model.StatusInactive, again.Status)
}

func TestUpsertTerminalStatusIsMonotonic(t *testing.T) {
	set := New(zap.NewNop())
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	set.Upsert(record("a", model.StatusCancelled, createdAt))

	// A feed update trying to resurrect the order keeps the terminal status
	// while other fields still apply.
	update := record("a", model.StatusActive, createdAt)
	update.Code = "424242"
	set.Upsert(update)

	got, found := set.Get("a")
	require.True(t, found)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, "424242", got.Code)
}

func TestRemove(t *testing.T) {
	set := New(zap.NewNop())
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	set.Upsert(record("a", model.StatusActive, createdAt))
	require.Equal(t, 1, set.Len())

	set.Remove("a")
	assert.Equal(t, 0, set.Len())

	_, found := set.Get("a")
	assert.False(t, found)

	// Removing an absent record is a no-op.
	set.Remove("a")
}

func TestSnapshotSortedNewestFirst(t *testing.T) {
	set := New(zap.NewNop())
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	set.Upsert(record("old", model.StatusActive, base))
	set.Upsert(record("new", model.StatusActive, base.Add(2*time.Hour)))
	set.Upsert(record("mid", model.StatusActive, base.Add(time.Hour)))

	snapshot := set.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "new", snapshot[0].ID)
	assert.Equal(t, "mid", snapshot[1].ID)
	assert.Equal(t, "old", snapshot[2].ID)
}
