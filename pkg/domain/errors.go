package domain

import (
	"errors"
	"fmt"
)

// Error kinds returned by stores, the registry and the coordinators. Callers
// match them with errors.Is.
var (
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrDuplicateID      = errors.New("duplicate sample id")
	ErrLocationMismatch = errors.New("location mismatch")
	ErrModeIncompatible = errors.New("selection mode incompatible")
	ErrNotFound         = errors.New("sample not found")
	ErrLimitExceeded    = errors.New("capacity limit exceeded")
	ErrTransferFailed   = errors.New("transfer failed")
	ErrInvalidRecord    = errors.New("invalid sample record")

	ErrNotActive     = errors.New("selection not active")
	ErrSelectionFull = errors.New("selection full")
	ErrDebounced     = errors.New("selection input debounced")
)

// TransferError describes why moving one sample did not complete. Err is the
// error kind; Cause is the underlying failure when the transfer was rolled
// back.
type TransferError struct {
	ID    string
	From  Location
	To    Location
	Err   error
	Cause error
}

func (e *TransferError) Error() string {
	msg := fmt.Sprintf("transfer %s %s -> %s: %v", e.ID, e.From, e.To, e.Err)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *TransferError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
