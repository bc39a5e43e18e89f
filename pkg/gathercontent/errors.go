package gathercontent

import (
	"errors"
	"fmt"
)

// Configuration problems. They are fatal and never retried.
var (
	ErrUnknownSource      = errors.New("no client registered for source")
	ErrDuplicateSource    = errors.New("source is already registered")
	ErrMissingClient      = errors.New("client is required")
	ErrMissingCredentials = errors.New("missing credentials")
)

// ConfigurationError reports a setup mistake tied to a source key.
type ConfigurationError struct {
	Source string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration error for source '%s': %v", e.Source, e.Err)
	}
	return fmt.Sprintf("configuration error for source '%s': %v: %s", e.Source, e.Err, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response from the GatherContent API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

// Error returns the upstream message.
func (e *APIError) Error() string {
	return e.Message
}
