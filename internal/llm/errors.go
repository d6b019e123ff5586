package llm

import "fmt"

// ErrorKind classifies a terminal call failure after all retries.
type ErrorKind string

const (
	// ErrKindRateLimit means provider throttling exhausted every retry.
	ErrKindRateLimit ErrorKind = "rate_limit"

	// ErrKindTimeout means the call exceeded its deadline after retries.
	ErrKindTimeout ErrorKind = "timeout"

	// ErrKindUnknown covers any other provider failure after retries.
	ErrKindUnknown ErrorKind = "unknown"
)

// CallError is the typed terminal error returned by the caller once its
// retry budget for a single call is exhausted.
type CallError struct {
	Kind     ErrorKind
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("llm: %s after %d attempts: %v", e.Kind, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *CallError) Unwrap() error {
	return e.Err
}
