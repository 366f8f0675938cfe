// Package errors defines common error types used throughout the Reddit API wrapper.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned by the thing factory for a record whose kind tag it
// does not recognize. Callers log it and skip the record.
var ErrUnknownKind = stderrors.New("unknown thing kind")

// ConfigError indicates a problem with the client configuration or with
// caller-supplied parameters rejected before any request is made.
type ConfigError struct {
	// Field contains the name of the configuration field that caused the error
	Field string
	// Message contains the detailed error message
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// AuthError indicates an authentication failure.
type AuthError struct {
	// StatusCode is the HTTP status code (if from an HTTP response)
	StatusCode int
	// Message contains the detailed error message
	Message string
	// Body contains the raw response body (if available)
	Body string
	// Err contains the underlying error if available
	Err error
}

func (e *AuthError) Error() string {
	parts := make([]string, 0, 4)
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status code %d", e.StatusCode))
	}
	if e.Body != "" {
		parts = append(parts, fmt.Sprintf("body: %q", e.Body))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, fmt.Sprintf("err: %v", e.Err))
	}

	if len(parts) == 0 {
		return "auth error"
	}
	return "auth error: " + strings.Join(parts, ", ")
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RequestError indicates the request never produced an HTTP response, for
// example a network failure or a cancelled context.
type RequestError struct {
	// Endpoint is the name of the API endpoint that was called
	Endpoint string
	// URL is the URL that was being accessed
	URL string
	// Err contains the underlying error
	Err error
}

func (e *RequestError) Error() string {
	msg := "unknown failure"
	if e.Err != nil {
		msg = e.Err.Error()
	}

	if e.Endpoint != "" && e.URL != "" {
		return fmt.Sprintf("request error during %s to %s: %s", e.Endpoint, e.URL, msg)
	} else if e.Endpoint != "" {
		return fmt.Sprintf("request error during %s: %s", e.Endpoint, msg)
	}
	return fmt.Sprintf("request error: %s", msg)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ParseError indicates a problem parsing the API response.
type ParseError struct {
	// Operation is the name of the API operation where parsing failed
	Operation string
	// Message contains the detailed error message
	Message string
	// Err contains the underlying error if available
	Err error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	if e.Operation != "" {
		return fmt.Sprintf("parse error during %s: %s", e.Operation, msg)
	}
	return fmt.Sprintf("parse error: %s", msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// APIError represents an error response from the Reddit API: either a non-2xx
// status or an "errors" array in a 200 response to a command endpoint.
type APIError struct {
	// StatusCode is the HTTP status code
	StatusCode int
	// Endpoint is the name of the API endpoint that was called
	Endpoint string
	// ErrorCode is the error code from Reddit (if available)
	ErrorCode string
	// Message is the error message from Reddit
	Message string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("reddit API error (status %d, code %s) during %s: %s", e.StatusCode, e.ErrorCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API request %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// UserNotFoundError reports that a user-scoped listing returned 404, which is
// what the API does for deleted, suspended and shadowbanned accounts.
type UserNotFoundError struct {
	Username string
	Err      error
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %q not found", e.Username)
}

func (e *UserNotFoundError) Unwrap() error {
	return e.Err
}

// BadSettingsError is returned before a subreddit settings update is sent when
// a required field is missing.
type BadSettingsError struct {
	Field   string
	Message string
}

func (e *BadSettingsError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("bad settings: '%s' %s", e.Field, e.Message)
	}
	return "bad settings: " + e.Message
}
