package review

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned when a mutation is requested before a successful load.
	ErrNotReady = errors.New("screen is not ready")
	// ErrMutationInFlight is returned when the item already has a mutation pending.
	ErrMutationInFlight = errors.New("a change to this item is already in progress")
	// ErrItemNotFound is returned when the item is not on the screen.
	ErrItemNotFound = errors.New("item not found on screen")
	// ErrLoadInProgress is returned when a reload is requested while loading.
	ErrLoadInProgress = errors.New("load already in progress")
	// ErrNotAuthenticated is returned when creating without an authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Localised message ids carried by OperationFailed.
const (
	MsgLoadFailed   = "MsgLoadFailed"
	MsgToggleFailed = "MsgToggleFailed"
	MsgDeleteFailed = "MsgDeleteFailed"
	MsgCreateFailed = "MsgCreateFailed"
)

// Controller operation names.
const (
	OpLoad   = "load"
	OpToggle = "toggle"
	OpDelete = "delete"
	OpCreate = "create"
)

// OperationFailed is the user-visible failure of a screen operation.
// MessageID names the localised text to show the moderator.
type OperationFailed struct {
	MessageID string
	Op        string
	ID        string
	Cause     error
}

func (e *OperationFailed) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s failed: %v", e.Op, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *OperationFailed) Unwrap() error {
	return e.Cause
}
