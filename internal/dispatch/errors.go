package dispatch

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed remote dispatch. Every failure the remote
// order service can produce folds into exactly one kind; anything
// unrecognized is KindUnknown.
type ErrorKind string

const (
	// KindAuth: no valid credential was available before the call.
	KindAuth ErrorKind = "auth"
	// KindValidation: missing/invalid order identifier, or the remote
	// service could not find the order.
	KindValidation ErrorKind = "validation"
	// KindConflict: the order is not in a state compatible with the action.
	KindConflict ErrorKind = "conflict"
	// KindUpstream: the provider's own cancel/activate operation failed.
	KindUpstream ErrorKind = "upstream"
	// KindPersistence: the action succeeded but the balance update did not.
	KindPersistence ErrorKind = "persistence"
	// KindUnknown: network failure, malformed response or unrecognized
	// message.
	KindUnknown ErrorKind = "unknown"
)

var userMessages = map[ErrorKind]string{
	KindAuth:        "You are not signed in. Please sign in and try again.",
	KindValidation:  "The order could not be found.",
	KindConflict:    "The order is not in a state that allows this action.",
	KindUpstream:    "The provider could not complete the action. Please try again.",
	KindPersistence: "The action completed but your balance may not reflect it yet. Please contact support.",
	KindUnknown:     "Something went wrong. Please contact support.",
}

// Error is the typed failure surfaced by the dispatcher. It never escapes
// the dispatcher boundary unresolved: callers read Kind and UserMessage.
type Error struct {
	Kind    ErrorKind
	Message string // raw remote message or transport error, for logs only
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dispatch failed: %s", e.Kind)
	}
	return fmt.Sprintf("dispatch failed: %s: %s", e.Kind, e.Message)
}

// UserMessage returns the stable user-visible message for the error's kind.
func (e *Error) UserMessage() string {
	if msg, ok := userMessages[e.Kind]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}

// NewError builds a typed dispatch error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Local precondition failures. These are rejected before any remote call is
// made and carry no taxonomy kind.
var (
	ErrDispatchInFlight = errors.New("another action is already in flight")
	ErrActionNotAllowed = errors.New("action is not currently allowed for this order")
	ErrOrderNotFound    = errors.New("order is not in the working set")
)
