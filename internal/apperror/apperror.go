// Package apperror defines the failure taxonomy shared by the gateway, the workflows and the API.
package apperror

import (
	"errors"
	"fmt"
)

// GenericMessage is shown when a failure carries no human-readable message.
const GenericMessage = "An unexpected error occurred. Please try again."

// ValidationError is a local precondition failure. No network call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation returns a ValidationError for field.
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NetworkError is a transport-level failure: connection refused, timeout, cancelled context.
type NetworkError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is a 401 answer. The session has already been torn down when it is returned.
type AuthError struct {
	Op      string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: unauthorized: %s", e.Op, e.Message)
}

// ServerError is any other 4xx/5xx answer, or a request that could not be built or decoded.
// StatusCode is zero when no answer was received.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServerError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message == "":
		return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *ServerError) Unwrap() error { return e.Err }

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNetwork reports whether err wraps a NetworkError.
func IsNetwork(err error) bool {
	var n *NetworkError
	return errors.As(err, &n)
}

// IsAuth reports whether err wraps an AuthError.
func IsAuth(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}

// IsServer reports whether err wraps a ServerError.
func IsServer(err error) bool {
	var s *ServerError
	return errors.As(err, &s)
}

// UserMessage returns the text to display for err.
// Server messages are passed through verbatim, everything unknown gets GenericMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}

	var n *NetworkError
	if errors.As(err, &n) {
		if n.Timeout {
			return "The server took too long to respond. Please try again."
		}
		return "Unable to reach the server. Check your connection and try again."
	}

	var a *AuthError
	if errors.As(err, &a) {
		return "Your session has expired. Please log in again."
	}

	var s *ServerError
	if errors.As(err, &s) && s.Message != "" {
		return s.Message
	}

	return GenericMessage
}
