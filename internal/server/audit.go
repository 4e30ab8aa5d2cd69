package server

import (
	"time"
)

// AuditLogEntry describes one handled API request. Entries are batched and
// published to the audit topic by the AuditManager.
type AuditLogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Handler    string    `json:"handler"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	UserID     string    `json:"user_id,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	Action     string    `json:"action,omitempty"`
	Response   string    `json:"response,omitempty"`
}
