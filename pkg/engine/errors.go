package engine

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error so callers can map it to a stable
// user-visible outcome without parsing messages.
type Kind string

const (
	// KindNotFound means a work, postulation, instance or session id did
	// not resolve.
	KindNotFound Kind = "not_found"
	// KindForbidden means the actor is not the owning volunteer or
	// supplier, or lacks the role the operation requires.
	KindForbidden Kind = "forbidden"
	// KindInvalidState means the requested transition is not legal from
	// the current status.
	KindInvalidState Kind = "invalid_state"
	// KindInvalidRange means a date range fails validation against the
	// work's window or the current date.
	KindInvalidRange Kind = "invalid_range"
	// KindConflict means the volunteer already holds an overlapping
	// commitment in the same hour block.
	KindConflict Kind = "conflict"
	// KindCapacityExceeded means the work already has as many instances
	// as volunteers needed.
	KindCapacityExceeded Kind = "capacity_exceeded"
	// KindStorage wraps a fault in the underlying store.
	KindStorage Kind = "storage"
)

// Error is a classified engine error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errNotFound(what, id string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %s does not exist", what, id)}
}

func errForbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func errInvalidState(msg string) error {
	return &Error{Kind: KindInvalidState, Msg: msg}
}

func errInvalidRange(msg string) error {
	return &Error{Kind: KindInvalidRange, Msg: msg}
}

func errConflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func errCapacity(workID string) error {
	return &Error{Kind: KindCapacityExceeded, Msg: fmt.Sprintf("work %s is already fully staffed", workID)}
}

func storageErr(op string, err error) error {
	return &Error{Kind: KindStorage, Msg: op, Err: err}
}

// KindOf returns the kind of an engine error, or KindStorage for errors
// that did not originate in the engine.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
