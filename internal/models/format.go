package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fjacquet/ekstre-csv/internal/parsererror"
	"fjacquet/ekstre-csv/internal/textutils"

	"gopkg.in/yaml.v3"
)

var formatIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// FormatDescriptor describes one bank's statement layout.
type FormatDescriptor struct {
	ID                string   `yaml:"id" json:"id"`
	Name              string   `yaml:"name" json:"name"`
	HeaderIdentifiers []string `yaml:"header_identifiers" json:"header_identifiers"`

	DateCol        string `yaml:"date_col,omitempty" json:"date_col,omitempty"`
	DescriptionCol string `yaml:"description_col,omitempty" json:"description_col,omitempty"`
	AmountCol      string `yaml:"amount_col,omitempty" json:"amount_col,omitempty"`
	DebitCol       string `yaml:"debit_col,omitempty" json:"debit_col,omitempty"`
	CreditCol      string `yaml:"credit_col,omitempty" json:"credit_col,omitempty"`
	BalanceCol     string `yaml:"balance_col,omitempty" json:"balance_col,omitempty"`
	DocumentNoCol  string `yaml:"document_no_col,omitempty" json:"document_no_col,omitempty"`

	// ContentIndicators are banner/description keywords typed in by whoever
	// registered the format. Fingerprints, when set, take precedence for the
	// fingerprint signal of the content classifier.
	ContentIndicators []string `yaml:"content_indicators,omitempty" json:"content_indicators,omitempty"`
	Fingerprints      []string `yaml:"fingerprints,omitempty" json:"fingerprints,omitempty"`

	// Aliases are alternate spellings used by the filename classifier.
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`

	// DateSeparators are the characters the bank puts between date parts.
	DateSeparators []string `yaml:"date_separators,omitempty" json:"date_separators,omitempty"`

	// Active defaults to true when the key is absent.
	Active    bool      `yaml:"active" json:"active"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}

// formatFields has the fields of FormatDescriptor without its decoders.
type formatFields FormatDescriptor

// UnmarshalYAML decodes a descriptor, treating a missing active key as true.
func (f *FormatDescriptor) UnmarshalYAML(value *yaml.Node) error {
	fields := formatFields{Active: true}
	if err := value.Decode(&fields); err != nil {
		return err
	}
	*f = FormatDescriptor(fields)
	return nil
}

// UnmarshalJSON is UnmarshalYAML for JSON request bodies.
func (f *FormatDescriptor) UnmarshalJSON(data []byte) error {
	fields := formatFields{Active: true}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*f = FormatDescriptor(fields)
	return nil
}

// HasDebitCredit reports whether the format declares a debit/credit pair.
func (f FormatDescriptor) HasDebitCredit() bool {
	return f.DebitCol != "" && f.CreditCol != ""
}

// Keywords returns the fingerprint keywords, falling back to the content
// indicators.
func (f FormatDescriptor) Keywords() []string {
	if len(f.Fingerprints) > 0 {
		return f.Fingerprints
	}
	return f.ContentIndicators
}

// HeaderTokens returns the lower-cased header identifiers.
func (f FormatDescriptor) HeaderTokens() []string {
	out := make([]string, 0, len(f.HeaderIdentifiers))
	for _, h := range f.HeaderIdentifiers {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, textutils.Lower(h))
		}
	}
	return out
}

// Validate enforces the descriptor invariants: a slug id, a name, at least
// one header token and exactly one of {amount column, debit/credit pair}.
func (f FormatDescriptor) Validate() error {
	subject := fmt.Sprintf("format %q", f.ID)
	switch {
	case f.ID == "":
		return &parsererror.ValidationError{Subject: "format", Reason: "id is required"}
	case !formatIDPattern.MatchString(f.ID):
		return &parsererror.ValidationError{Subject: subject, Reason: "id must contain only lower-case letters, digits and underscores"}
	case strings.TrimSpace(f.Name) == "":
		return &parsererror.ValidationError{Subject: subject, Reason: "name is required"}
	case len(f.HeaderTokens()) == 0:
		return &parsererror.ValidationError{Subject: subject, Reason: "at least one header identifier is required"}
	}

	if (f.DebitCol != "") != (f.CreditCol != "") {
		return &parsererror.ValidationError{Subject: subject, Reason: "debit_col and credit_col must be declared together"}
	}
	hasAmount := f.AmountCol != ""
	if hasAmount == f.HasDebitCredit() {
		return &parsererror.ValidationError{Subject: subject, Reason: "declare either amount_col or debit_col and credit_col"}
	}
	return nil
}

// Clone returns a deep copy.
func (f FormatDescriptor) Clone() FormatDescriptor {
	c := f
	c.HeaderIdentifiers = cloneStrings(f.HeaderIdentifiers)
	c.ContentIndicators = cloneStrings(f.ContentIndicators)
	c.Fingerprints = cloneStrings(f.Fingerprints)
	c.Aliases = cloneStrings(f.Aliases)
	c.DateSeparators = cloneStrings(f.DateSeparators)
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
