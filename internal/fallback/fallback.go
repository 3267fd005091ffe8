// Package fallback extracts canonical transactions from a table no
// registered format recognized, by guessing its columns from labels and
// from the shape of their values.
package fallback

import (
	"strings"
	"unicode/utf8"

	"fjacquet/ekstre-csv/internal/currencyutils"
	"fjacquet/ekstre-csv/internal/dateutils"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/standardizer"
	"fjacquet/ekstre-csv/internal/textutils"

	"github.com/shopspring/decimal"
)

// MinDescriptionLength is the average text length a column needs before
// it is taken for the description without a matching label.
const MinDescriptionLength = 15.0

var (
	dateKeywords        = []string{"tarih", "date", "datum"}
	descriptionKeywords = []string{"açıklama", "aciklama", "açiklama", "description", "detail", "detay"}
	amountKeywords      = []string{"tutar", "amount", "betrag", "miktar"}
	documentKeywords    = []string{"dekont", "belge", "document", "no", "numara", "number"}
)

// Result is the outcome of a fallback extraction.
type Result struct {
	Transactions []models.CanonicalTransaction
	Columns      standardizer.Columns
	Stats        standardizer.Stats
	Evidence     []string
}

// Processor runs the fallback extraction.
type Processor struct {
	logger logging.Logger
}

// NewProcessor creates a Processor. A nil logger discards output.
func NewProcessor(logger logging.Logger) *Processor {
	return &Processor{logger: logging.OrDiscard(logger)}
}

// Process guesses the columns of table and builds canonical rows from them.
func (p *Processor) Process(table models.RawTable) Result {
	cols, evidence := DetectColumns(table)
	txs, stats := standardizer.BuildWith(table, cols, currencyutils.ParseCellLoose)

	p.logger.Info("Processed unrecognized statement with generic column detection",
		logging.F(logging.FieldRows, len(txs)),
		logging.F(logging.FieldMethod, strings.Join(evidence, "; ")))

	return Result{Transactions: txs, Columns: cols, Stats: stats, Evidence: evidence}
}

// DetectColumns resolves the date, description, amount and document
// number columns. Label keywords win; otherwise the date is the first text
// column whose values mostly parse as dates, the description the text
// column with the longest average value and the amount the first column
// whose values mostly parse as varying numbers.
func DetectColumns(table models.RawTable) (standardizer.Columns, []string) {
	cols := standardizer.NoColumns()
	var evidence []string

	cols.Date = labelColumn(table, dateKeywords, cols)
	cols.Description = labelColumn(table, descriptionKeywords, cols)
	cols.Amount = labelColumn(table, amountKeywords, cols)
	if cols.Date != standardizer.Unassigned {
		evidence = append(evidence, "date column by label "+quote(table.Columns[cols.Date]))
	}
	if cols.Description != standardizer.Unassigned {
		evidence = append(evidence, "description column by label "+quote(table.Columns[cols.Description]))
	}
	if cols.Amount != standardizer.Unassigned {
		evidence = append(evidence, "amount column by label "+quote(table.Columns[cols.Amount]))
	}

	if cols.Date == standardizer.Unassigned {
		if i := dateLikeColumn(table, cols); i != standardizer.Unassigned {
			cols.Date = i
			evidence = append(evidence, "date column by values "+quote(table.Columns[i]))
		}
	}
	if cols.Description == standardizer.Unassigned {
		if i := proseColumn(table, cols); i != standardizer.Unassigned {
			cols.Description = i
			evidence = append(evidence, "description column by text length "+quote(table.Columns[i]))
		}
	}
	if cols.Amount == standardizer.Unassigned {
		if i := numericColumn(table, cols); i != standardizer.Unassigned {
			cols.Amount = i
			evidence = append(evidence, "amount column by values "+quote(table.Columns[i]))
		}
	}

	cols.DocumentNo = labelColumn(table, documentKeywords, cols)
	return cols, evidence
}

func quote(s string) string {
	return "\"" + s + "\""
}

func used(cols standardizer.Columns, i int) bool {
	return i == cols.Date || i == cols.Description || i == cols.Amount || i == cols.DocumentNo
}

// labelColumn returns the first free column whose label contains one of
// the keywords.
func labelColumn(table models.RawTable, keywords []string, cols standardizer.Columns) int {
	for i, label := range table.Columns {
		if used(cols, i) {
			continue
		}
		l := textutils.Lower(label)
		for _, k := range keywords {
			if strings.Contains(l, k) {
				return i
			}
		}
	}
	return standardizer.Unassigned
}

// dateLikeColumn returns the first free text column in which more than
// half of the non-empty values parse as dates.
func dateLikeColumn(table models.RawTable, cols standardizer.Columns) int {
	for i := 0; i < table.Width(); i++ {
		if used(cols, i) || !table.IsTextColumn(i) {
			continue
		}
		if mostlyDates(table, i) {
			return i
		}
	}
	return standardizer.Unassigned
}

func mostlyDates(table models.RawTable, col int) bool {
	nonEmpty, dates := 0, 0
	for _, c := range table.Column(col) {
		if c.IsEmpty() {
			continue
		}
		nonEmpty++
		if _, err := dateutils.ParseDate(c.String()); err == nil {
			dates++
		}
	}
	return nonEmpty > 0 && dates*2 > nonEmpty
}

// proseColumn returns the free text column with the largest average value
// length, if that average exceeds MinDescriptionLength.
func proseColumn(table models.RawTable, cols standardizer.Columns) int {
	best := standardizer.Unassigned
	bestAvg := MinDescriptionLength
	for i := 0; i < table.Width(); i++ {
		if used(cols, i) || !table.IsTextColumn(i) {
			continue
		}
		total, n := 0, 0
		for _, c := range table.Column(i) {
			if c.IsEmpty() {
				continue
			}
			total += utf8.RuneCountInString(c.String())
			n++
		}
		if n == 0 {
			continue
		}
		if avg := float64(total) / float64(n); avg > bestAvg {
			best, bestAvg = i, avg
		}
	}
	return best
}

// numericColumn returns the first free column in which more than half of
// all values parse as numbers and those numbers are not all equal. Columns
// of dotted dates would parse as large numbers and are skipped.
func numericColumn(table models.RawTable, cols standardizer.Columns) int {
	if table.Len() == 0 {
		return standardizer.Unassigned
	}
	for i := 0; i < table.Width(); i++ {
		if used(cols, i) || mostlyDates(table, i) {
			continue
		}
		var values []decimal.Decimal
		for _, c := range table.Column(i) {
			v, err := currencyutils.ParseCellLoose(c)
			if err == nil && v.Valid {
				values = append(values, v.Decimal)
			}
		}
		if len(values)*2 > table.Len() && varies(values) {
			return i
		}
	}
	return standardizer.Unassigned
}

func varies(values []decimal.Decimal) bool {
	for _, v := range values[1:] {
		if !v.Equal(values[0]) {
			return true
		}
	}
	return false
}
