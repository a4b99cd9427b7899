package sms

import (
	"errors"
	"fmt"
)

// Code is the stable error identifier surfaced to callers.
type Code string

const (
	// CodePermissionDenied indicates the gate rejected the capability.
	CodePermissionDenied Code = "PERMISSION_DENIED"
	// CodeReadError indicates the provider query or normalization failed.
	CodeReadError Code = "SMS_READ_ERROR"
	// CodeSendError indicates the transport rejected the dispatch.
	CodeSendError Code = "SMS_SEND_ERROR"
)

// Error is the only error type returned by [Service] operations.
type Error struct {
	Code       Code
	Message    string
	Capability Capability
	Err        error
}

// Sentinels for errors.Is. They match any *Error with the same Code.
var (
	ErrPermissionDenied = &Error{Code: CodePermissionDenied}
	ErrRead             = &Error{Code: CodeReadError}
	ErrSend             = &Error{Code: CodeSendError}
)

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e == nil {
		return "sms: <nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("sms: %s", e.Code)
	}
	return fmt.Sprintf("sms: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// PermissionDenied builds the error for a rejected capability.
func PermissionDenied(capability Capability) *Error {
	return &Error{
		Code:       CodePermissionDenied,
		Message:    fmt.Sprintf("%s permission not granted", capability),
		Capability: capability,
	}
}

// ProviderError wraps a query execution or resource release failure.
func ProviderError(err error) *Error {
	return &Error{Code: CodeReadError, Message: diagnostic(err), Err: err}
}

// TransportError wraps a dispatch failure.
func TransportError(err error) *Error {
	return &Error{Code: CodeSendError, Message: diagnostic(err), Err: err}
}

// CodeOf returns the Code carried by err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func diagnostic(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
