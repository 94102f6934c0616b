package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies mutation failures. All three kinds are non-fatal to
// the engine; the working copy stays usable and the user may retry.
type ErrorKind string

const (
	// ErrorKindValidation is a local, field-specific failure raised before
	// any network call is made.
	ErrorKindValidation ErrorKind = "validation_failed"
	// ErrorKindRemoteRejected means the record store responded with a
	// failure status or a status:false payload.
	ErrorKindRemoteRejected ErrorKind = "remote_rejected"
	// ErrorKindNetworkUnavailable means the request never reached the store.
	ErrorKindNetworkUnavailable ErrorKind = "network_unavailable"
)

// MutationError is the engine's error taxonomy. It is caught at the
// mutation controller boundary and converted to a notification; it never
// propagates out of the engine as an unhandled failure.
type MutationError struct {
	Kind   ErrorKind
	Field  string // set for validation failures
	Reason string
	Err    error
}

func (e *MutationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s %s", e.Kind, e.Field, e.Reason)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return string(e.Kind)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a local field-level validation failure.
func NewValidationError(field, reason string) *MutationError {
	return &MutationError{Kind: ErrorKindValidation, Field: field, Reason: reason}
}

// NewRemoteRejected wraps a store-side rejection (non-2xx or status:false).
func NewRemoteRejected(reason string, err error) *MutationError {
	return &MutationError{Kind: ErrorKindRemoteRejected, Reason: reason, Err: err}
}

// NewNetworkUnavailable wraps a transport-level failure.
func NewNetworkUnavailable(err error) *MutationError {
	return &MutationError{Kind: ErrorKindNetworkUnavailable, Reason: "record store unreachable", Err: err}
}

// KindOf returns the taxonomy kind for err, or "" when err is not a
// MutationError.
func KindOf(err error) ErrorKind {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

var (
	// ErrRowBusy is returned when a mutation is attempted on a row that has
	// an in-flight remote call. Same-row operations are serialized.
	ErrRowBusy = errors.New("row has an in-flight mutation")

	// ErrRowNotFound is returned when the target row is not in the working copy.
	ErrRowNotFound = errors.New("row not found")

	// ErrTypeNotFound is returned when the target variation type is unknown.
	ErrTypeNotFound = errors.New("variation type not found")

	// ErrNotEditing is returned for save/cancel on a row that is not in the
	// editing state.
	ErrNotEditing = errors.New("row is not being edited")

	// ErrConfirmationRequired is returned when a delete is attempted without
	// explicit confirmation.
	ErrConfirmationRequired = errors.New("delete requires confirmation")
)
