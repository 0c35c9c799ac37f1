package oplog

import (
	"errors"
	"fmt"
)

var (
	// ErrOperationNotFound indicates that no operation with the given ID exists
	ErrOperationNotFound = errors.New("operation not found")

	// ErrCorruptLog indicates that the persisted log could not be decoded
	ErrCorruptLog = errors.New("corrupt operation log")

	// ErrInvalidKind indicates an unknown operation kind
	ErrInvalidKind = errors.New("invalid operation kind")
)

// PersistenceError is returned when the log cannot be read from or written
// to durable storage. The in-memory log is left as it was before the call,
// except after MarkSynced.
type PersistenceError struct {
	Err error
	Op  string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("operation log %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
