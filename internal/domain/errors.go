package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds matched with errors.Is against the typed errors below.
var (
	ErrSchema     = errors.New("schema error")
	ErrValidation = errors.New("validation error")
	ErrFileAccess = errors.New("file access error")
)

// SchemaError reports a tabular input whose header row cannot be used.
type SchemaError struct {
	Reason string
	// Column is the first offending column in check order.
	Column string
	// Missing holds every absent required column, Column included.
	Missing []string
}

func NewMissingColumnsError(missing []string) *SchemaError {
	return &SchemaError{
		Reason:  "missing required column",
		Column:  missing[0],
		Missing: missing,
	}
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Reason, e.Column)
	if len(e.Missing) > 1 {
		msg += fmt.Sprintf(" (all missing: %s)", strings.Join(e.Missing, ", "))
	}
	return msg
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// ValidationError reports a single field that failed coercion or a constraint.
type ValidationError struct {
	// Row is the 1-based data row of the tabular input, 0 if unknown.
	Row    int
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s %v: %s", e.Field, formatValue(e.Value), e.Reason)
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	return msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

// FileAccessError wraps an OS error hit while reading input or writing output.
type FileAccessError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("failed to %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

func (e *FileAccessError) Is(target error) bool {
	return target == ErrFileAccess
}
