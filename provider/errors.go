package provider

import "fmt"

// ConfigurationError reports a missing or invalid backend configuration,
// typically an absent API key.
type ConfigurationError struct {
	Provider string
	Reason   string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s provider configuration error: %s", e.Provider, e.Reason)
}

// NoModelsError reports that a backend resolved an empty model catalog during
// initialization and no fallback model could be selected.
type NoModelsError struct {
	Provider string
}

// Error implements the error interface.
func (e *NoModelsError) Error() string {
	return fmt.Sprintf("no %s models available", e.Provider)
}

// BackendError wraps a failure returned by the remote backend.
type BackendError struct {
	Provider string
	Op       string // "generate", "stream", "list-models"
	Err      error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Op, e.Err)
}

// Unwrap exposes the wrapped error for errors.Is / errors.As.
func (e *BackendError) Unwrap() error { return e.Err }
