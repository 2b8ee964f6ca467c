package internal

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a session id that is not in the store.
var ErrNotFound = errors.New("session not found")

// ErrStaleRevision indicates an update that lost a revision race: the stored
// record advanced past the revision the caller read.
var ErrStaleRevision = errors.New("stale session revision")

// APIError represents a non-success response from the Devin API. Message is
// safe to show a user; Detail carries the raw response body for diagnostics.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s (HTTP %d)", e.Message(), e.Status)
}

// Message returns a short human-readable description of the failure class.
func (e *APIError) Message() string {
	switch {
	case e.Status == 401:
		return "Invalid API key. Check your settings."
	case e.Status == 429:
		return "Too many requests. Try again in a moment."
	case e.Status >= 500:
		return "Devin is having issues. Try again later."
	}
	return "Something went wrong."
}

// IsAuth reports whether the error is a credential failure.
func (e *APIError) IsAuth() bool { return e.Status == 401 }

// IsRateLimit reports whether the error is a rate-limit rejection.
func (e *APIError) IsRateLimit() bool { return e.Status == 429 }

// IsServer reports whether the error is a remote server failure.
func (e *APIError) IsServer() bool { return e.Status >= 500 }

// StoreError represents errors accessing the session database.
type StoreError struct {
	Op  string // "open", "query", "exec", "scan"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ConfigError represents errors loading or saving the config file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
