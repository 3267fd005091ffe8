package parsererror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "parse error",
			err:      &ParseError{Parser: "garanti", Field: "Tutar", Value: "abc", Err: errors.New("not a number")},
			expected: "garanti: failed to parse Tutar='abc': not a number",
		},
		{
			name:     "missing columns",
			err:      &MissingColumnsError{Format: "ziraat", Missing: []string{"debit", "credit"}, Columns: 3},
			expected: "ziraat: required columns missing: debit, credit (table has 3 columns)",
		},
		{
			name:     "validation",
			err:      &ValidationError{Subject: "format garanti", Reason: "name is required"},
			expected: "validation failed for format garanti: name is required",
		},
		{
			name:     "invalid format without snippet",
			err:      &InvalidFormatError{FilePath: "a.pdf", ExpectedFormat: "csv, xlsx or xls", Msg: "unsupported extension"},
			expected: "invalid format in file 'a.pdf': unsupported extension. Expected: csv, xlsx or xls",
		},
		{
			name:     "invalid format with snippet",
			err:      &InvalidFormatError{FilePath: "a.csv", ExpectedFormat: "csv", ActualContentSnippet: "%PDF", Msg: "binary content"},
			expected: "invalid format in file 'a.csv': binary content. Expected: csv. Content snippet: '%PDF'",
		},
		{
			name:     "data extraction",
			err:      &DataExtractionError{FilePath: "a.xlsx", Reader: "xlsx", Err: errors.New("zip: not a valid zip file")},
			expected: "data extraction failed in file 'a.xlsx' (xlsx): zip: not a valid zip file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUnwrapChains(t *testing.T) {
	cause := errors.New("cause")

	parseErr := &ParseError{Parser: "p", Field: "f", Value: "v", Err: cause}
	assert.True(t, errors.Is(parseErr, cause))

	extractErr := fmt.Errorf("reading: %w", &DataExtractionError{FilePath: "x", Reader: "csv", Err: cause})
	assert.True(t, errors.Is(extractErr, cause))

	var target *DataExtractionError
	assert.True(t, errors.As(extractErr, &target))
	assert.Equal(t, "csv", target.Reader)
}

func TestSentinelsWrap(t *testing.T) {
	err := fmt.Errorf("lookup yapi_kredi: %w", ErrFormatNotFound)
	assert.ErrorIs(t, err, ErrFormatNotFound)
	assert.NotErrorIs(t, err, ErrDuplicateFormat)
}
