// Package parsererror holds the typed errors shared by the classification,
// parsing and storage layers.
package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnrecognizedFormat means no registered format could be identified.
	// Callers route the table to the generic fallback processor.
	ErrUnrecognizedFormat = errors.New("unrecognized statement format")

	// ErrFormatNotFound is returned by registry lookups for an unknown id.
	ErrFormatNotFound = errors.New("format not found")

	// ErrDuplicateFormat is returned when adding a format whose id exists.
	ErrDuplicateFormat = errors.New("format already exists")

	// ErrNotFound is returned by the history store for unknown records.
	ErrNotFound = errors.New("record not found")
)

// ParseError is a single cell that could not be coerced.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v", e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingColumnsError is raised by a bank parser when required canonical
// columns resolve neither by name nor by position.
type MissingColumnsError struct {
	Format  string
	Missing []string
	Columns int
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: required columns missing: %s (table has %d columns)",
		e.Format, strings.Join(e.Missing, ", "), e.Columns)
}

// ValidationError is a rejected format descriptor or settings value.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}

// InvalidFormatError means the input file is not a readable table.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

// DataExtractionError wraps a failure of an underlying reader (csv, xlsx,
// xls) while building a raw table.
type DataExtractionError struct {
	FilePath string
	Reader   string
	Err      error
}

func (e *DataExtractionError) Error() string {
	return fmt.Sprintf("data extraction failed in file '%s' (%s): %v", e.FilePath, e.Reader, e.Err)
}

func (e *DataExtractionError) Unwrap() error {
	return e.Err
}
