package model

import (
	"encoding/json"
	"time"
)

// ServiceType identifies the tier of a purchased virtual resource.
type ServiceType string

const (
	TypeShort    ServiceType = "short"
	TypeMiddle   ServiceType = "middle"
	TypeLong     ServiceType = "long"
	TypeEmptySim ServiceType = "empty_sim"
)

// Status is the persisted status last received from the feed. The domain
// depends on the service type: Short orders move through pending, completed,
// cancelled and timed_out; the rental types move through inactive, active,
// cancelled and expired.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusTimedOut  Status = "timed_out"

	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
)

// IsTerminal reports whether s absorbs all further feed transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusTimedOut, StatusExpired:
		return true
	}
	return false
}

// DisplayStatus is what the user sees. It is a superset of Status: DisplayNone
// renders as a dash for a Short order whose pending window lapsed before the
// feed confirmed the timeout.
type DisplayStatus string

const (
	DisplayPending   DisplayStatus = "pending"
	DisplayCompleted DisplayStatus = "completed"
	DisplayCancelled DisplayStatus = "cancelled"
	DisplayTimedOut  DisplayStatus = "timed_out"
	DisplayInactive  DisplayStatus = "inactive"
	DisplayActive    DisplayStatus = "active"
	DisplayExpired   DisplayStatus = "expired"
	DisplayNone      DisplayStatus = "-"
)

type ActionKind string

const (
	ActionCancel   ActionKind = "cancel"
	ActionActivate ActionKind = "activate"
)

// TimerKind names the single timer window currently live for a record.
type TimerKind string

const (
	TimerWake          TimerKind = "wake"
	TimerCodeReveal    TimerKind = "code_reveal"
	TimerPendingExpiry TimerKind = "pending_expiry"
	TimerActiveExpiry  TimerKind = "active_expiry"
)

// OrderRecord is the validated unit of state held in the working set. It is
// created by the first "added" feed event, mutated in place by "modified"
// events and removed by a "removed" event. The core never persists it.
type OrderRecord struct {
	ID          string      `json:"id"`
	ServiceType ServiceType `json:"service_type"`
	Status      Status      `json:"status"`

	Number      string  `json:"number"`
	Country     string  `json:"country"`
	ServiceName string  `json:"service_name"`
	Price       float64 `json:"price"`

	CreatedAt time.Time `json:"created_at"`
	Expiry    time.Time `json:"expiry"`

	// AwakeIn and CodeAwakeAt only occur on Short orders. A future AwakeIn
	// means the number is asleep and not actionable; CodeAwakeAt opens the
	// post-wake reveal window.
	AwakeIn     *time.Time `json:"awake_in,omitempty"`
	CodeAwakeAt *time.Time `json:"code_awake_at,omitempty"`

	// Code is the delivered SMS payload, empty until one arrives.
	Code string `json:"code"`

	Reuse   bool `json:"reuse"`
	MaySend bool `json:"may_send"`

	// RemoteOrderID is the identifier the remote order service knows this
	// order by; it may differ from ID.
	RemoteOrderID string `json:"remote_order_id"`
}

// Asleep reports whether the record's wake timer is live at now.
func (r *OrderRecord) Asleep(now time.Time) bool {
	return r.AwakeIn != nil && r.AwakeIn.After(now)
}

// HasCode reports whether an SMS payload has been delivered.
func (r *OrderRecord) HasCode() bool {
	return r.Code != ""
}

// Countdown is the remaining duration of whichever timer window is live.
type Countdown struct {
	Kind      TimerKind     `json:"kind"`
	Remaining time.Duration `json:"remaining"`
}

// Seconds returns the remaining time rounded down to whole seconds,
// never negative.
func (c Countdown) Seconds() int64 {
	if c.Remaining < 0 {
		return 0
	}
	return int64(c.Remaining / time.Second)
}

// OrderView is the render model produced on every tick: the projected display
// status plus live countdown and the actions legal at that instant.
type OrderView struct {
	ID            string        `json:"id"`
	ServiceType   ServiceType   `json:"service_type"`
	Number        string        `json:"number"`
	Country       string        `json:"country"`
	ServiceName   string        `json:"service_name"`
	Price         float64       `json:"price"`
	DisplayStatus DisplayStatus `json:"display_status"`
	Code          string        `json:"code,omitempty"`
	Countdown     *Countdown    `json:"countdown,omitempty"`
	Actions       []ActionKind  `json:"actions"`
	Processing    bool          `json:"processing"`
}

// FeedEventType discriminates inbound feed envelopes.
type FeedEventType string

const (
	FeedAdded    FeedEventType = "added"
	FeedModified FeedEventType = "modified"
	FeedRemoved  FeedEventType = "removed"
)

// FeedEvent is one element of the inbound feed stream. Doc is the raw,
// loosely typed document; nothing downstream of the normalizer may see it.
type FeedEvent struct {
	Type FeedEventType   `json:"type"`
	ID   string          `json:"id"`
	Doc  json.RawMessage `json:"doc,omitempty"`
}
