package loadable

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Kind identifies which of the four loading states a State holds.
type Kind int

const (
	// KindIdle means no load has started (or the loadable was reset).
	KindIdle Kind = iota
	// KindLoading means a load attempt is in flight.
	KindLoading
	// KindLoaded means the last attempt produced a value.
	KindLoaded
	// KindFailure means the last attempt produced an error.
	KindFailure
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindLoading:
		return "loading"
	case KindLoaded:
		return "loaded"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is one of the four loading states: idle, loading (with
// optional progress), loaded (with a value), or failure (with an
// error). States are immutable values; use the constructors.
type State[V any] struct {
	kind     Kind
	progress *Progress
	value    V
	err      error
}

// Idle returns the idle state.
func Idle[V any]() State[V] {
	return State[V]{kind: KindIdle}
}

// Loading returns a loading state carrying optional progress.
func Loading[V any](progress *Progress) State[V] {
	return State[V]{kind: KindLoading, progress: progress}
}

// Loaded returns a loaded state carrying the fetched value.
func Loaded[V any](value V) State[V] {
	return State[V]{kind: KindLoaded, value: value}
}

// Failure returns a failure state carrying the error.
func Failure[V any](err error) State[V] {
	return State[V]{kind: KindFailure, err: err}
}

// Kind returns which state this is.
func (s State[V]) Kind() Kind {
	return s.kind
}

// Progress returns the progress attached to a loading state, or nil.
func (s State[V]) Progress() *Progress {
	return s.progress
}

// Value returns the loaded value and true if the state is loaded.
func (s State[V]) Value() (V, bool) {
	return s.value, s.kind == KindLoaded
}

// Err returns the failure error, or nil if the state is not a failure.
func (s State[V]) Err() error {
	return s.err
}

// IsTerminal reports whether the state is loaded or failure.
func (s State[V]) IsTerminal() bool {
	return s.kind == KindLoaded || s.kind == KindFailure
}

// Equal reports coarse equality suitable for deciding whether the
// externally visible state bucket changed. Loading states compare
// their progress, loaded states compare values, and any two failures
// compare equal regardless of the underlying errors. Error identity,
// when needed, comes from UniqueError instead.
func (s State[V]) Equal(other State[V]) bool {
	if s.kind != other.kind {
		return false
	}
	switch s.kind {
	case KindLoading:
		if s.progress == nil || other.progress == nil {
			return s.progress == other.progress
		}
		return *s.progress == *other.progress
	case KindLoaded:
		return reflect.DeepEqual(s.value, other.value)
	default:
		return true
	}
}

// String formats the state for logs and test failures.
func (s State[V]) String() string {
	switch s.kind {
	case KindLoading:
		if s.progress != nil {
			return fmt.Sprintf("loading(%v)", s.progress)
		}
		return "loading"
	case KindLoaded:
		return fmt.Sprintf("loaded(%v)", s.value)
	case KindFailure:
		return fmt.Sprintf("failure(%v)", s.err)
	default:
		return s.kind.String()
	}
}

// UniqueError wraps an error with a generated identity so that errors
// whose payloads compare equal can still be told apart, for example as
// map keys. Two UniqueErrors are the same error only if their IDs match.
type UniqueError struct {
	id  string
	err error
}

// NewUniqueError wraps err with a fresh identity.
func NewUniqueError(err error) *UniqueError {
	return &UniqueError{id: uuid.NewString(), err: err}
}

// ID returns the generated identity.
func (e *UniqueError) ID() string {
	return e.id
}

// Error implements the error interface.
func (e *UniqueError) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error.
func (e *UniqueError) Unwrap() error {
	return e.err
}
