// Package fault defines the typed failure taxonomy shared by the domain
// services: NotFound, InvalidInput, InvalidState, StorageFailure, and
// AuditWriteFailure. Callers distinguish "nothing to retry" kinds from
// storage failures where a retry may help.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown is the zero value; errors without a kind map here.
	KindUnknown Kind = iota
	// KindNotFound means a referenced entity is absent.
	KindNotFound
	// KindInvalidInput means the input violates a field-level invariant.
	KindInvalidInput
	// KindInvalidState means the action is not permitted in the entity's
	// current lifecycle state.
	KindInvalidState
	// KindStorageFailure means a repository or blob I/O error occurred.
	KindStorageFailure
	// KindAuditWrite means the audit trail write failed. It is never
	// returned as a primary error, only logged.
	KindAuditWrite
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidState:
		return "invalid_state"
	case KindStorageFailure:
		return "storage_failure"
	case KindAuditWrite:
		return "audit_write_failure"
	default:
		return "unknown"
	}
}

// Error is a classified failure. It wraps an optional cause.
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

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether retrying the operation may help.
func (e *Error) Retryable() bool { return e.Kind == KindStorageFailure }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a KindNotFound error.
func NotFoundf(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

// InvalidInputf builds a KindInvalidInput error.
func InvalidInputf(format string, args ...interface{}) *Error {
	return newf(KindInvalidInput, format, args...)
}

// InvalidStatef builds a KindInvalidState error.
func InvalidStatef(format string, args ...interface{}) *Error {
	return newf(KindInvalidState, format, args...)
}

// Storage wraps a repository or blob I/O error.
func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorageFailure, Msg: msg, Err: err}
}

// AuditWrite wraps a failed audit trail write.
func AuditWrite(err error) *Error {
	return &Error{Kind: KindAuditWrite, Msg: "audit record not written", Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is classified KindNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsInvalidInput reports whether err is classified KindInvalidInput.
func IsInvalidInput(err error) bool { return KindOf(err) == KindInvalidInput }

// IsInvalidState reports whether err is classified KindInvalidState.
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

// IsStorage reports whether err is classified KindStorageFailure.
func IsStorage(err error) bool { return KindOf(err) == KindStorageFailure }
