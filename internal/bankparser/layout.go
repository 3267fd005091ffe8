package bankparser

import (
	"strings"

	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/standardizer"
	"fjacquet/ekstre-csv/internal/textutils"
)

// Field names a canonical column a bank parser resolves.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldBalance     Field = "balance"
	FieldDocumentNo  Field = "document_no"
)

// Rule binds a field to the label fragments that identify it.
type Rule struct {
	Field     Field
	Fragments []string
}

// Layout is the column shape of one bank family.
type Layout struct {
	Name string

	// Rules are tried in order for every label; a label goes to the first
	// rule it matches, and a field keeps the first label it gets.
	Rules []Rule

	// Required fields must resolve by name or by position.
	Required []Field

	// Positions is the default column order used by PartialPositionalPatch.
	Positions []Field

	// SortByDate orders the rows by transaction date.
	SortByDate bool
}

// Assignment maps resolved fields to column indexes.
type Assignment map[Field]int

func (a Assignment) claimed(col int) bool {
	for _, c := range a {
		if c == col {
			return true
		}
	}
	return false
}

// Missing returns the required fields that have no column, in order.
func (a Assignment) Missing(required []Field) []string {
	var missing []string
	for _, f := range required {
		if _, ok := a[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	return missing
}

// Columns converts the assignment for standardizer.Build.
func (a Assignment) Columns() standardizer.Columns {
	cols := standardizer.NoColumns()
	set := func(f Field, dst *int) {
		if c, ok := a[f]; ok {
			*dst = c
		}
	}
	set(FieldDate, &cols.Date)
	set(FieldDescription, &cols.Description)
	set(FieldAmount, &cols.Amount)
	set(FieldDebit, &cols.Debit)
	set(FieldCredit, &cols.Credit)
	set(FieldBalance, &cols.Balance)
	set(FieldDocumentNo, &cols.DocumentNo)
	return cols
}

// MatchLabels assigns columns by label fragments.
func (l Layout) MatchLabels(labels []string) Assignment {
	a := Assignment{}
	for i, label := range labels {
		lower := textutils.Lower(label)
		for _, rule := range l.Rules {
			if !matchesAny(lower, rule.Fragments) {
				continue
			}
			if _, taken := a[rule.Field]; !taken {
				a[rule.Field] = i
			}
			break
		}
	}
	return a
}

func matchesAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// PartialPositionalPatch fills each required field that no label matched
// from its default position, provided the table is at least as wide as the
// default layout and that column is not already taken. When no label
// matched at all, the optional balance column is patched too. It returns
// the fields it filled.
func PartialPositionalPatch(a Assignment, width int, l Layout) []Field {
	if width < len(l.Positions) {
		return nil
	}
	nameMatched := len(a) > 0

	var patched []Field
	for pos, f := range l.Positions {
		if _, ok := a[f]; ok {
			continue
		}
		if !isRequired(f, l.Required) && nameMatched {
			continue
		}
		if a.claimed(pos) {
			continue
		}
		a[f] = pos
		patched = append(patched, f)
	}
	return patched
}

func isRequired(f Field, required []Field) bool {
	for _, r := range required {
		if r == f {
			return true
		}
	}
	return false
}

// resolve runs name matching and the positional patch for a table.
func (l Layout) resolve(table models.RawTable) (Assignment, []Field) {
	a := l.MatchLabels(table.Columns)
	if len(a.Missing(l.Required)) == 0 {
		return a, nil
	}
	return a, PartialPositionalPatch(a, table.Width(), l)
}
