// Package bankparser holds the per-bank routines that turn a classified
// statement table into canonical transactions. Banks come in two shapes:
// a single signed amount column, or separate debit and credit columns.
package bankparser

import (
	"sort"
	"strings"

	"fjacquet/ekstre-csv/internal/classifier"
	"fjacquet/ekstre-csv/internal/dateutils"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/parsererror"
	"fjacquet/ekstre-csv/internal/standardizer"
)

// Parser converts a table of one bank family into canonical rows.
type Parser interface {
	// Parse reads table, which is already reheadered when headerResolved is
	// true. It returns a *parsererror.MissingColumnsError when a required
	// column resolves by neither name nor position and the table is
	// narrower than the default layout.
	Parse(table models.RawTable, headerResolved bool, f models.FormatDescriptor) (*Result, error)
}

// Result is the outcome of one bank parse.
type Result struct {
	Transactions []models.CanonicalTransaction
	Columns      standardizer.Columns
	Patched      []Field
	Stats        standardizer.Stats

	// HeaderRow is the row the parser promoted itself, or -1.
	HeaderRow int
}

// BaseParser carries the logger shared by every bank parser.
type BaseParser struct {
	logger logging.Logger
}

// NewBaseParser creates a BaseParser. A nil logger discards output.
func NewBaseParser(logger logging.Logger) BaseParser {
	return BaseParser{logger: logging.OrDiscard(logger)}
}

// SetLogger replaces the logger.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// GetLogger returns the logger.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// TableParser is a Parser driven by a Layout.
type TableParser struct {
	BaseParser
	layout Layout
}

// NewTableParser creates a parser for layout.
func NewTableParser(layout Layout, logger logging.Logger) *TableParser {
	return &TableParser{BaseParser: NewBaseParser(logger), layout: layout}
}

// Layout returns the layout the parser applies.
func (p *TableParser) Layout() Layout {
	return p.layout
}

// Parse implements Parser.
func (p *TableParser) Parse(table models.RawTable, headerResolved bool, f models.FormatDescriptor) (*Result, error) {
	headerRow := classifier.NotFound
	if !headerResolved {
		if row := classifier.LocateHeader(table, f.HeaderTokens(), classifier.DefaultWeights().HeaderScanRows); row != classifier.NotFound {
			headerRow = row
			table = table.Reheader(row)
		}
	}

	assignment, patched := p.layout.resolve(table)
	if missing := assignment.Missing(p.layout.Required); len(missing) > 0 {
		if table.Width() < len(p.layout.Positions) {
			return nil, &parsererror.MissingColumnsError{Format: f.ID, Missing: missing, Columns: table.Width()}
		}
		// Wide enough for the default layout but the default position is
		// taken by another named column: the field stays empty.
		p.logger.Warn("Required columns left unassigned",
			logging.F(logging.FieldFormat, f.ID),
			logging.F(logging.FieldMethod, strings.Join(missing, ", ")))
	}
	if len(patched) > 0 {
		p.logger.Warn("Resolved columns by position",
			logging.F(logging.FieldFormat, f.ID),
			logging.F(logging.FieldCount, len(patched)))
	}

	cols := assignment.Columns()
	txs, stats := standardizer.Build(table, cols)
	if p.layout.SortByDate {
		sortByDate(txs)
	}

	p.logger.Debug("Parsed bank statement",
		logging.F(logging.FieldFormat, f.ID),
		logging.F(logging.FieldRows, len(txs)))

	return &Result{
		Transactions: txs,
		Columns:      cols,
		Patched:      patched,
		Stats:        stats,
		HeaderRow:    headerRow,
	}, nil
}

// sortByDate orders rows chronologically. Rows whose date does not parse
// keep their relative order after the dated ones.
func sortByDate(txs []models.CanonicalTransaction) {
	type key struct {
		ok   bool
		unix int64
	}
	keys := make(map[int]key, len(txs))
	idx := make([]int, len(txs))
	for i, tx := range txs {
		idx[i] = i
		if t, err := dateutils.ParseDate(tx.Date); err == nil {
			keys[i] = key{ok: true, unix: t.Unix()}
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.ok != kb.ok {
			return ka.ok
		}
		return ka.unix < kb.unix
	})

	sorted := make([]models.CanonicalTransaction, len(txs))
	for i, j := range idx {
		sorted[i] = txs[j]
	}
	copy(txs, sorted)
}
