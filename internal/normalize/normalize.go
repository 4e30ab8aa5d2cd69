package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/simvault/orderdesk/internal/metrics"
	"github.com/simvault/orderdesk/internal/model"
)

// Placeholders substituted for fields the feed left empty.
const (
	PlaceholderNumber  = "—"
	PlaceholderCountry = "Unknown"
	PlaceholderService = "Unknown service"
)

var (
	ErrUnknownServiceType = errors.New("unknown service type")
	ErrUnknownStatus      = errors.New("unknown status")
)

// RawDocument is the loosely typed payload of a feed event. Field values are
// taken as-is from the upstream document store; only the normalizer may read
// this type.
type RawDocument struct {
	ID            string      `json:"id"`
	Type          string      `json:"type"`
	Status        string      `json:"status"`
	Number        string      `json:"number"`
	Country       string      `json:"country"`
	ServiceName   string      `json:"service_name"`
	Price         interface{} `json:"price"`
	CreatedAt     time.Time   `json:"created_at"`
	Expiry        time.Time   `json:"expiry"`
	AwakeIn       *time.Time  `json:"awake_in,omitempty"`
	CodeAwakeAt   *time.Time  `json:"code_awake_at,omitempty"`
	Code          string      `json:"code"`
	Reuse         bool        `json:"reuse"`
	MaySend       bool        `json:"may_send"`
	RemoteOrderID string      `json:"remote_order_id"`
}

// Normalizer turns raw feed documents into validated OrderRecords. It is a
// pure transformation apart from logging the coercions it had to apply.
type Normalizer struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize validates doc and returns the canonical record. Unrecognized
// service types and, for rental types, unrecognized statuses are rejected so
// that no unvalidated value ever reaches the rest of the system.
func (n *Normalizer) Normalize(doc RawDocument) (model.OrderRecord, error) {
	serviceType, err := NormalizeServiceType(doc.Type)
	if err != nil {
		metrics.NormalizerRejectsTotal.WithLabelValues("service_type").Inc()
		return model.OrderRecord{}, fmt.Errorf("document %s: %w: %q", doc.ID, ErrUnknownServiceType, doc.Type)
	}

	status, coerced, err := NormalizeStatus(serviceType, doc.Status)
	if err != nil {
		metrics.NormalizerRejectsTotal.WithLabelValues("status").Inc()
		return model.OrderRecord{}, fmt.Errorf("document %s: %w: %q", doc.ID, ErrUnknownStatus, doc.Status)
	}
	if coerced {
		n.logger.Warn("coerced unrecognized status",
			zap.String("document_id", doc.ID),
			zap.String("raw_status", doc.Status),
			zap.String("status", string(status)))
		metrics.NormalizerCoercionsTotal.WithLabelValues("status").Inc()
	}

	price, ok := ParsePrice(doc.Price)
	if !ok {
		n.logger.Warn("coerced non-numeric price to zero",
			zap.String("document_id", doc.ID),
			zap.Any("raw_price", doc.Price))
		metrics.NormalizerCoercionsTotal.WithLabelValues("price").Inc()
	}

	rec := model.OrderRecord{
		ID:            doc.ID,
		ServiceType:   serviceType,
		Status:        status,
		Number:        fallback(doc.Number, PlaceholderNumber),
		Country:       fallback(doc.Country, PlaceholderCountry),
		ServiceName:   fallback(doc.ServiceName, PlaceholderService),
		Price:         price,
		CreatedAt:     doc.CreatedAt,
		Expiry:        doc.Expiry,
		AwakeIn:       doc.AwakeIn,
		CodeAwakeAt:   doc.CodeAwakeAt,
		Code:          doc.Code,
		Reuse:         doc.Reuse,
		MaySend:       doc.MaySend,
		RemoteOrderID: fallback(doc.RemoteOrderID, doc.ID),
	}
	return rec, nil
}

// NormalizeServiceType folds wording and case variants of the service type
// onto the canonical values. "Empty SIM card", "empty simcard" and
// "Empty Simcard" all name the same logical type.
func NormalizeServiceType(raw string) (model.ServiceType, error) {
	switch squash(raw) {
	case "short":
		return model.TypeShort, nil
	case "middle":
		return model.TypeMiddle, nil
	case "long":
		return model.TypeLong, nil
	case "emptysim", "emptysimcard":
		return model.TypeEmptySim, nil
	}
	return "", ErrUnknownServiceType
}

// NormalizeStatus maps a raw status string onto the service type's status
// domain. All aliases of "timed out" fold to the single canonical value. An
// unrecognized Short status folds to pending (coerced=true); for the rental
// types an unrecognized status is an error. Normalization is idempotent:
// canonical input comes back unchanged.
func NormalizeStatus(serviceType model.ServiceType, raw string) (status model.Status, coerced bool, err error) {
	s := strings.ToLower(strings.TrimSpace(raw))

	if serviceType == model.TypeShort {
		switch s {
		case "pending":
			return model.StatusPending, false, nil
		case "completed":
			return model.StatusCompleted, false, nil
		case "cancelled", "canceled":
			return model.StatusCancelled, false, nil
		case "timed_out", "timed out", "timedout", "timeout", "timed-out":
			return model.StatusTimedOut, false, nil
		}
		return model.StatusPending, true, nil
	}

	switch s {
	case "inactive":
		return model.StatusInactive, false, nil
	case "active":
		return model.StatusActive, false, nil
	case "cancelled", "canceled":
		return model.StatusCancelled, false, nil
	case "expired":
		return model.StatusExpired, false, nil
	}
	return "", false, ErrUnknownStatus
}

// ParsePrice coerces the loosely typed price field to a two-decimal-rounded
// number. Anything unparseable becomes 0 with ok=false.
func ParsePrice(v interface{}) (price float64, ok bool) {
	switch p := v.(type) {
	case nil:
		return 0, false
	case float64:
		return round2(p), true
	case float32:
		return round2(float64(p)), true
	case int:
		return round2(float64(p)), true
	case int64:
		return round2(float64(p)), true
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0, false
		}
		return round2(f), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, false
		}
		return round2(f), true
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// squash lowercases and strips separators so wording variants compare equal.
func squash(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func fallback(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}
