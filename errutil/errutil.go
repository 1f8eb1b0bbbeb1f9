package errutil

import "fmt"

// Kind classifies a controller failure. Kinds satisfy the error interface
// so they work as sentinel values with errors.Is.
type Kind string

// DependencyMissing, DeviceUnreachable and AudioSystemInitFailure are fatal
// at startup; the remaining kinds are handled by the synchronization loop.
const (
	DependencyMissing       Kind = "dependency missing"
	DeviceUnreachable       Kind = "device unreachable"
	AudioSystemInitFailure  Kind = "audio system init failure"
	TransientCommandFailure Kind = "transient command failure"
	ConnectionLost          Kind = "connection lost"
	SessionNotFound         Kind = "session not found"
)

// Error returns the kind as a human-readable string.
func (k Kind) Error() string { return string(k) }

// Error pairs a failure kind with the operation that produced it and the
// underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E builds an *Error. err may be nil when the kind and operation say it all.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause, so errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
