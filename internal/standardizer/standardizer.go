// Package standardizer maps the columns of a statement table onto the
// canonical transaction schema by label keywords, by the column names a
// format declares and, as a last resort, by position.
package standardizer

import (
	"strings"

	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/textutils"
)

// HeaderScanRows bounds the generic header probe.
const HeaderScanRows = 20

// Label keywords, matched as substrings of the lower-cased column label.
// A label is claimed by the first group it matches, in this order.
var (
	DateKeywords        = []string{"tarih", "date"}
	DescriptionKeywords = []string{"açıklama", "aciklama", "açiklama", "explain", "desc"}
	AmountKeywords      = []string{"tutar", "amount"}
	DebitKeywords       = []string{"borç", "borc", "debit"}
	CreditKeywords      = []string{"alacak", "credit"}
	BalanceKeywords     = []string{"bakiye", "balance"}
	DocumentNoKeywords  = []string{"dekont", "document", "belge", "işlem no", "islem no"}
	CurrencyKeywords    = []string{"para birimi", "currency"}
)

// Mapping is the outcome of column resolution.
type Mapping struct {
	Columns Columns `json:"columns"`

	// ByName counts canonical fields resolved from a label keyword or a
	// declared column name.
	ByName int `json:"by_name"`

	// Positional is set when PurePositional produced the assignment.
	Positional bool `json:"positional"`
}

// Result is a standardized table.
type Result struct {
	Transactions []models.CanonicalTransaction
	Mapping      Mapping
	Stats        Stats

	// HeaderRow is the row promoted by the generic header probe, or -1.
	HeaderRow int
}

// Standardize maps table onto the canonical schema. f may be nil when no
// format was recognized.
func Standardize(table models.RawTable, f *models.FormatDescriptor) Result {
	headerRow := ProbeHeader(table)
	if headerRow >= 0 {
		table = table.Reheader(headerRow)
	}

	mapping := MapColumns(table, f)
	txs, stats := Build(table, mapping.Columns)
	return Result{Transactions: txs, Mapping: mapping, Stats: stats, HeaderRow: headerRow}
}

// ProbeHeader looks for a row that reads like a Turkish statement header:
// it mentions "tarih", "açıklama" and one of "tutar", "borç" or "alacak".
// It returns -1 when none of the leading rows does.
func ProbeHeader(table models.RawTable) int {
	limit := table.Len()
	if limit > HeaderScanRows {
		limit = HeaderScanRows
	}
	for i := 0; i < limit; i++ {
		row := textutils.Lower(table.RowText(i))
		if strings.Contains(row, "tarih") && strings.Contains(row, "açıklama") &&
			(strings.Contains(row, "tutar") || strings.Contains(row, "borç") || strings.Contains(row, "alacak")) {
			return i
		}
	}
	return -1
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// keywordColumns assigns each label to the first keyword group it matches.
// When several labels match one group the leftmost wins.
func keywordColumns(labels []string) Columns {
	cols := NoColumns()
	claim := func(field *int, i int) {
		if *field == Unassigned {
			*field = i
		}
	}
	for i, label := range labels {
		l := textutils.Lower(label)
		switch {
		case containsAny(l, DateKeywords):
			claim(&cols.Date, i)
		case containsAny(l, DescriptionKeywords):
			claim(&cols.Description, i)
		case containsAny(l, AmountKeywords):
			claim(&cols.Amount, i)
		case containsAny(l, DebitKeywords):
			claim(&cols.Debit, i)
		case containsAny(l, CreditKeywords):
			claim(&cols.Credit, i)
		case containsAny(l, BalanceKeywords):
			claim(&cols.Balance, i)
		case containsAny(l, DocumentNoKeywords):
			claim(&cols.DocumentNo, i)
		case containsAny(l, CurrencyKeywords):
			claim(&cols.Currency, i)
		}
	}
	return cols
}

// declared returns the index of the column a format names, matching the
// label exactly first and then case-insensitively.
func declared(table models.RawTable, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return Unassigned
	}
	if i := table.ColumnIndex(name); i >= 0 {
		return i
	}
	want := textutils.Lower(name)
	for i, c := range table.Columns {
		if textutils.Lower(c) == want {
			return i
		}
	}
	return Unassigned
}

// MapColumns resolves each canonical field: label keyword first, then the
// column the format declares. When nothing resolves that way, the
// PurePositional policy applies.
func MapColumns(table models.RawTable, f *models.FormatDescriptor) Mapping {
	var decl models.FormatDescriptor
	if f != nil {
		decl = *f
	}
	kw := keywordColumns(table.Columns)
	cols := NoColumns()

	pick := func(keyword int, declaredName string) int {
		if keyword != Unassigned {
			return keyword
		}
		return declared(table, declaredName)
	}

	cols.Date = pick(kw.Date, decl.DateCol)
	cols.Description = pick(kw.Description, decl.DescriptionCol)

	switch {
	case kw.HasDebitCredit():
		cols.Debit, cols.Credit = kw.Debit, kw.Credit
	case kw.Amount != Unassigned:
		cols.Amount = kw.Amount
	case declared(table, decl.AmountCol) != Unassigned:
		cols.Amount = declared(table, decl.AmountCol)
	default:
		d, c := declared(table, decl.DebitCol), declared(table, decl.CreditCol)
		if d != Unassigned && c != Unassigned {
			cols.Debit, cols.Credit = d, c
		}
	}

	cols.Balance = pick(kw.Balance, decl.BalanceCol)
	cols.DocumentNo = pick(kw.DocumentNo, decl.DocumentNoCol)
	cols.Currency = kw.Currency

	byName := 0
	for _, v := range []int{cols.Date, cols.Description, cols.Amount, cols.Debit, cols.Credit, cols.Balance} {
		if v != Unassigned {
			byName++
		}
	}

	if byName == 0 {
		if positional, ok := PurePositional(table); ok {
			positional.DocumentNo = cols.DocumentNo
			positional.Currency = cols.Currency
			return Mapping{Columns: positional, Positional: true}
		}
	}
	return Mapping{Columns: cols, ByName: byName}
}

// PurePositional assigns column 0 to the date, column 1 to the description
// and the first numeric column (else column 2) to the amount. It needs at
// least three columns and is only used when no column matched by name.
func PurePositional(table models.RawTable) (Columns, bool) {
	if table.Width() < 3 {
		return NoColumns(), false
	}
	cols := NoColumns()
	cols.Date = 0
	cols.Description = 1
	cols.Amount = 2
	for i := 0; i < table.Width(); i++ {
		if table.IsNumericColumn(i) {
			cols.Amount = i
			break
		}
	}
	return cols, true
}
