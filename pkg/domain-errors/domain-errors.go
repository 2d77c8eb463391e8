package domainerrors

import "errors"

// Code represents a stable pipeline error category independent of transport.
// These codes travel to dispatch logs and dead-letter messages, so they must
// never change once emitted.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeBadRequest   Code = "BAD_REQUEST"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeConflict     Code = "CONFLICT"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeInternal     Code = "INTERNAL_ERROR"

	// Configuration store codes.
	CodeConfigNotResolved  Code = "CONFIG_NOT_RESOLVED"
	CodeBindingNotResolved Code = "BINDING_NOT_RESOLVED"
	CodeRevisionMismatch   Code = "REVISION_MISMATCH"

	// Dispatch pipeline codes (NB_* prefix kept for wire compatibility with
	// existing dead-letter tooling).
	CodeInvalidEvent        Code = "NB_INVALID_EVENT"
	CodeRecipientMissing    Code = "NB_RECIPIENT_UUID_MISSING"
	CodePreferenceDenied    Code = "NB_PREFERENCE_DENIED"
	CodeRequiredVarsMissing Code = "NB_REQUIRED_VARS_MISSING"
	CodeContentSidInvalid   Code = "NB_TWILIO_CONTENT_SID_INVALID"
	CodeParamOrderRequired  Code = "NB_TWILIO_PARAM_ORDER_REQUIRED"
	CodeTriggerFailed       Code = "NB_NOVU_TRIGGER_FAILED"
	CodeResolveFailed       Code = "NB_CONFIG_RESOLVE_FAILED"
	CodeProcessingError     Code = "NB_PROCESSING_ERROR"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and
// consumer layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the code from a domain error, or CodeProcessingError when
// the error is not a domain error. Consumers use this to annotate dead-letter
// messages without ever dropping an event.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeProcessingError
}
