// Package errors provides custom errors for the client services.
package errors

import (
	"errors"
	"fmt"
)

type (
	// UnauthorizedError is returned when there is no usable session. The gateway has already
	// notified the user when it returns this error, so callers must not report it again.
	UnauthorizedError struct {
		Reason string
	}
	ValidationError struct {
		Field string
		Msg   string
	}
	RequestError struct {
		Method     string
		Endpoint   string
		StatusCode int
		Detail     string
	}
	TransportError struct {
		Method   string
		Endpoint string
		Err      error
	}
	DecodeError struct {
		Endpoint string
		Err      error
	}
	ConfirmationDeclinedError struct {
		Action string
	}
	InvalidStateError struct {
		Op    string
		State string
	}
	ServiceFoundNilDependency struct {
		Msg string
	}
)

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *RequestError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Detail)
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Endpoint, e.Err.Error())
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: could not decode response: %s", e.Endpoint, e.Err.Error())
}

func (e *ConfirmationDeclinedError) Error() string {
	return fmt.Sprintf("%s: declined by user", e.Action)
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
}

func (e *ServiceFoundNilDependency) Error() string {
	return e.Msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err carries the Unauthorized condition.
func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}

// IsConfirmationDeclined reports whether the user cancelled the action.
func IsConfirmationDeclined(err error) bool {
	var declined *ConfirmationDeclinedError
	return errors.As(err, &declined)
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}
