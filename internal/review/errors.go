package review

import (
	"errors"
	"fmt"
)

// ErrStaleSelection is returned when a submitted transaction ID is not present
// in the currently filtered view, e.g. because a filter changed between render
// and submit. No write is issued; the reviewer must re-select.
var ErrStaleSelection = errors.New("selection not present in the filtered view")

// ErrSessionClosed is returned when a handler races a session discard.
var ErrSessionClosed = errors.New("session is closed")

// PersistenceError wraps a rejected downstream write. It is surfaced to the
// reviewer and never retried automatically; the in-memory label stays as it
// was before the submission.
type PersistenceError struct {
	TransactionID string
	Err           error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting label for transaction %s: %v", e.TransactionID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LoadError wraps a failed working-set load. It is fatal to session creation;
// no partial working set is ever accepted.
type LoadError struct {
	Source string // "warehouse" or "csv"
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading working set from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
