package extract

import (
	"errors"
	"fmt"
)

// Common extraction errors
var (
	// ErrNoTextExtracted is returned when no method obtained any text from
	// a document. Callers must treat this as a per-document failure; it
	// never aborts the surrounding batch.
	ErrNoTextExtracted = errors.New("no text could be extracted from the document")

	// ErrInvalidPDF is returned when the provided data cannot be opened as
	// a PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrInvalidDOCX is returned when the provided data is not a readable
	// DOCX archive.
	ErrInvalidDOCX = errors.New("invalid or corrupted DOCX document")

	// ErrInvalidImage is returned when the image bytes cannot be decoded.
	ErrInvalidImage = errors.New("invalid or unsupported image data")
)

// ExtractError wraps errors with additional context about the extraction
// failure.
type ExtractError struct {
	// Op is the operation that failed (e.g., "Assemble", "ExtractPage").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extract: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extract: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapExtractError wraps an error as an ExtractError if it isn't already one.
func WrapExtractError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return err // Already wrapped
	}

	return &ExtractError{Op: op, Err: err, Details: details}
}
