package grammarbot

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrRequestFailed means a request could not be executed; there is no valid response.
	ErrRequestFailed = errors.New("request failed")
	// ErrInvalidURL means a base URL or request URL could not be parsed.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrInvalidJSON means the response body is not the expected JSON document.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrUnexpectedStatus means the API answered with a non 2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrEmptyText is returned when there is nothing to check.
	ErrEmptyText = errors.New("text must not be empty")
	// ErrEmptyAPIKey is returned when the client has no API key.
	ErrEmptyAPIKey = errors.New("api key must be set")
)

// Error ties a failure kind (one of the Err variables) to its cause.
type Error struct {
	Kind  error
	Cause error
}

func newError(kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Cause.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

// StatusError is returned when the API answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %d %s", ErrUnexpectedStatus, e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("%s: %d %s: %s", ErrUnexpectedStatus, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Is matches ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus //nolint:errorlint,goerr113
}

// Temporary reports whether the request may succeed if retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
