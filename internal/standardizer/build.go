package standardizer

import (
	"strings"

	"fjacquet/ekstre-csv/internal/currencyutils"
	"fjacquet/ekstre-csv/internal/dateutils"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/textutils"

	"github.com/shopspring/decimal"
)

// Unassigned marks a canonical field with no source column.
const Unassigned = -1

// Columns assigns a source column index to each canonical field.
type Columns struct {
	Date        int `json:"date"`
	Description int `json:"description"`
	Amount      int `json:"amount"`
	Debit       int `json:"debit"`
	Credit      int `json:"credit"`
	Balance     int `json:"balance"`
	DocumentNo  int `json:"document_no"`
	Currency    int `json:"currency"`
}

// NoColumns returns a Columns with every field unassigned.
func NoColumns() Columns {
	return Columns{
		Date:        Unassigned,
		Description: Unassigned,
		Amount:      Unassigned,
		Debit:       Unassigned,
		Credit:      Unassigned,
		Balance:     Unassigned,
		DocumentNo:  Unassigned,
		Currency:    Unassigned,
	}
}

// HasDebitCredit reports whether both halves of a debit/credit pair are set.
func (c Columns) HasDebitCredit() bool {
	return c.Debit != Unassigned && c.Credit != Unassigned
}

// Stats counts the row-local coercion failures of one conversion. Failed
// cells keep their row: numbers become null, dates keep their original text.
type Stats struct {
	Rows            int `json:"rows"`
	SkippedRows     int `json:"skipped_rows"`
	NumericFailures int `json:"numeric_failures"`
	DateFailures    int `json:"date_failures"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Rows += o.Rows
	s.SkippedRows += o.SkippedRows
	s.NumericFailures += o.NumericFailures
	s.DateFailures += o.DateFailures
}

// Build converts every non-blank row of table into a canonical transaction
// using the given column assignment.
//
// The amount is credit - debit when both columns are assigned, with
// missing or unparseable halves counted as zero. Otherwise it is read from
// the amount column (null when unparseable), or zero without one.
func Build(table models.RawTable, cols Columns) ([]models.CanonicalTransaction, Stats) {
	return BuildWith(table, cols, currencyutils.ParseCell)
}

// NumberParser coerces a cell to a decimal. Empty cells give a null value
// and no error.
type NumberParser func(models.Cell) (decimal.NullDecimal, error)

// BuildWith is Build with a custom number parser.
func BuildWith(table models.RawTable, cols Columns, parseNumber NumberParser) ([]models.CanonicalTransaction, Stats) {
	var stats Stats
	parse := func(c models.Cell) decimal.NullDecimal {
		v, err := parseNumber(c)
		if err != nil {
			stats.NumericFailures++
		}
		return v
	}
	out := make([]models.CanonicalTransaction, 0, table.Len())

	for row := 0; row < table.Len(); row++ {
		if rowBlank(table, row) {
			stats.SkippedRows++
			continue
		}

		var tx models.CanonicalTransaction
		if cols.Date != Unassigned {
			c := table.Cell(row, cols.Date)
			date, ok := dateutils.NormalizeCell(c)
			if !ok && !c.IsEmpty() {
				stats.DateFailures++
				date = strings.TrimSpace(c.String())
			}
			tx.Date = date
		}
		if cols.Description != Unassigned {
			tx.Description = textutils.CleanDescription(table.Cell(row, cols.Description).String())
		}

		switch {
		case cols.HasDebitCredit():
			debit := parse(table.Cell(row, cols.Debit))
			credit := parse(table.Cell(row, cols.Credit))
			tx.SetAmount(models.AmountFromDebitCredit(currencyutils.ZeroIfNull(debit), currencyutils.ZeroIfNull(credit)))
		case cols.Amount != Unassigned:
			tx.SetAmount(parse(table.Cell(row, cols.Amount)))
		default:
			tx.SetAmount(decimal.NewNullDecimal(decimal.Zero))
		}

		if cols.Balance != Unassigned {
			tx.Balance = parse(table.Cell(row, cols.Balance))
		}
		if cols.DocumentNo != Unassigned {
			tx.DocumentNo = strings.TrimSpace(table.Cell(row, cols.DocumentNo).String())
		}
		if cols.Currency != Unassigned {
			tx.Currency = strings.TrimSpace(table.Cell(row, cols.Currency).String())
		}

		out = append(out, tx)
	}
	stats.Rows = len(out)
	return out, stats
}

func rowBlank(t models.RawTable, row int) bool {
	for _, c := range t.Rows[row] {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
