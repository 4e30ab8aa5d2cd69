package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simvault/orderdesk/internal/model"
)

func TestNormalizeServiceType(t *testing.T) {
	tests := []struct {
		raw      string
		expected model.ServiceType
		wantErr  bool
	}{
		{raw: "short", expected: model.TypeShort},
		{raw: "Short", expected: model.TypeShort},
		{raw: "middle", expected: model.TypeMiddle},
		{raw: "long", expected: model.TypeLong},
		{raw: "Empty SIM card", expected: model.TypeEmptySim},
		{raw: "empty simcard", expected: model.TypeEmptySim},
		{raw: "Empty Simcard", expected: model.TypeEmptySim},
		{raw: "empty_sim", expected: model.TypeEmptySim},
		{raw: "emptysim", expected: model.TypeEmptySim},
		{raw: "virtual card", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := NormalizeServiceType(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestNormalizeStatusTimedOutAliases(t *testing.T) {
	aliases := []string{"timed out", "timedout", "timeout", "timed-out", "Timed Out", "TIMEOUT", "timed_out"}

	for _, alias := range aliases {
		got, coerced, err := NormalizeStatus(model.TypeShort, alias)
		require.NoError(t, err, alias)
		assert.False(t, coerced, alias)
		assert.Equal(t, model.StatusTimedOut, got, alias)
	}
}

func TestNormalizeStatusIdempotent(t *testing.T) {
	shortStatuses := []model.Status{
		model.StatusPending, model.StatusCompleted, model.StatusCancelled, model.StatusTimedOut,
	}
	for _, s := range shortStatuses {
		got, coerced, err := NormalizeStatus(model.TypeShort, string(s))
		require.NoError(t, err)
		assert.False(t, coerced)
		assert.Equal(t, s, got)
	}

	rentalStatuses := []model.Status{
		model.StatusInactive, model.StatusActive, model.StatusCancelled, model.StatusExpired,
	}
	for _, s := range rentalStatuses {
		got, coerced, err := NormalizeStatus(model.TypeLong, string(s))
		require.NoError(t, err)
		assert.False(t, coerced)
		assert.Equal(t, s, got)
	}
}

func TestNormalizeStatusUnknown(t *testing.T) {
	// Short folds to the per-type default.
	got, coerced, err := NormalizeStatus(model.TypeShort, "garbled!!")
	require.NoError(t, err)
	assert.True(t, coerced)
	assert.Equal(t, model.StatusPending, got)

	// Rental types reject instead of guessing.
	_, _, err = NormalizeStatus(model.TypeMiddle, "garbled!!")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected float64
		ok       bool
	}{
		{name: "float", raw: 12.345, expected: 12.35, ok: true},
		{name: "int", raw: 7, expected: 7.0, ok: true},
		{name: "numeric string", raw: "3.999", expected: 4.0, ok: true},
		{name: "padded string", raw: " 1.5 ", expected: 1.5, ok: true},
		{name: "garbage string", raw: "free", expected: 0, ok: false},
		{name: "nil", raw: nil, expected: 0, ok: false},
		{name: "bool", raw: true, expected: 0, ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParsePrice(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestNormalizeDocument(t *testing.T) {
	n := New(zap.NewNop())
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rec, err := n.Normalize(RawDocument{
		ID:        "ord-1",
		Type:      "Empty SIM card",
		Status:    "Active",
		Price:     "249.999",
		CreatedAt: createdAt,
		Expiry:    createdAt.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, model.TypeEmptySim, rec.ServiceType)
	assert.Equal(t, model.StatusActive, rec.Status)
	assert.InDelta(t, 250.0, rec.Price, 1e-9)
	assert.Equal(t, PlaceholderNumber, rec.Number)
	assert.Equal(t, PlaceholderCountry, rec.Country)
	assert.Equal(t, PlaceholderService, rec.ServiceName)
	assert.Equal(t, "ord-1", rec.RemoteOrderID, "remote order id falls back to the document id")
}

func TestNormalizeDocumentRejectsUnknownType(t *testing.T) {
	n := New(zap.NewNop())

	_, err := n.Normalize(RawDocument{ID: "ord-2", Type: "proxy bundle", Status: "active"})
	assert.ErrorIs(t, err, ErrUnknownServiceType)
}
