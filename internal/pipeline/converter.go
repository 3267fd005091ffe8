// Package pipeline wires classification, column mapping and transcoding
// into one conversion of a statement table into a ledger table.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"fjacquet/ekstre-csv/internal/bankparser"
	"fjacquet/ekstre-csv/internal/classifier"
	"fjacquet/ekstre-csv/internal/fallback"
	"fjacquet/ekstre-csv/internal/history"
	"fjacquet/ekstre-csv/internal/ledger"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/parsererror"
	"fjacquet/ekstre-csv/internal/registry"
	"fjacquet/ekstre-csv/internal/standardizer"
	"fjacquet/ekstre-csv/internal/tableio"

	"github.com/google/uuid"
)

// Route names the component that produced the canonical rows.
type Route string

const (
	RouteBankParser   Route = "bank_parser"
	RouteStandardizer Route = "standardizer"
	RouteFallback     Route = "fallback"
)

// Diagnostics describes how one table was converted.
type Diagnostics struct {
	FormatID        string            `json:"format_id"`
	Method          classifier.Method `json:"method"`
	Score           float64           `json:"score"`
	Route           Route             `json:"route"`
	HeaderRow       int               `json:"header_row"`
	Evidence        []string          `json:"evidence"`
	Patched         []string          `json:"patched_columns,omitempty"`
	Rows            int               `json:"rows"`
	SkippedRows     int               `json:"skipped_rows"`
	NumericFailures int               `json:"numeric_failures"`
	DateFailures    int               `json:"date_failures"`
}

func (d *Diagnostics) addStats(s standardizer.Stats) {
	d.Rows = s.Rows
	d.SkippedRows = s.SkippedRows
	d.NumericFailures = s.NumericFailures
	d.DateFailures = s.DateFailures
}

// Result is one converted statement.
type Result struct {
	FileName     string                        `json:"file_name"`
	Decision     classifier.Decision           `json:"decision"`
	Transactions []models.CanonicalTransaction `json:"transactions"`
	Ledger       models.LedgerTable            `json:"-"`
	Diagnostics  Diagnostics                   `json:"diagnostics"`

	// StatementID is set once the conversion is recorded in history.
	StatementID uuid.UUID `json:"statement_id,omitempty"`

	// Original is the table as read, kept for the history record.
	Original models.RawTable `json:"-"`
}

// Converter turns statement tables into ledger tables. It is safe for
// concurrent use as long as its registry Source is.
type Converter struct {
	source     registry.Source
	classifier *classifier.Classifier
	fallback   *fallback.Processor
	reader     *tableio.Reader
	history    history.Store
	logger     logging.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithHistory records every file conversion in store.
func WithHistory(store history.Store) Option {
	return func(c *Converter) { c.history = store }
}

// WithReader replaces the table reader used by ConvertFile and ConvertReader.
func WithReader(r *tableio.Reader) Option {
	return func(c *Converter) {
		if r != nil {
			c.reader = r
		}
	}
}

// NewConverter creates a Converter over the formats of source.
func NewConverter(source registry.Source, weights classifier.Weights, logger logging.Logger, opts ...Option) *Converter {
	logger = logging.OrDiscard(logger)
	c := &Converter{
		source:     source,
		classifier: classifier.New(weights),
		fallback:   fallback.NewProcessor(logger),
		reader:     tableio.NewReader(tableio.Options{}),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read parses a statement with the converter's table reader.
func (c *Converter) Read(name string, r io.Reader) (models.RawTable, error) {
	return c.reader.Read(name, r)
}

// Classify runs the classification stages only.
func (c *Converter) Classify(table models.RawTable, filename string) (classifier.Decision, error) {
	formats, err := c.source.Snapshot()
	if err != nil {
		return classifier.Decision{}, fmt.Errorf("failed to read format registry: %w", err)
	}
	return c.classifier.Classify(table, filename, formats), nil
}

// Convert classifies table, extracts canonical rows with the matching bank
// parser, the standardizer or the generic fallback, and transcodes them.
// A *parsererror.MissingColumnsError is returned when a bank parser cannot
// resolve its required columns.
func (c *Converter) Convert(table models.RawTable, filename string) (*Result, error) {
	d, err := c.Classify(table, filename)
	if err != nil {
		return nil, err
	}

	res := &Result{
		FileName: filename,
		Decision: d,
		Original: table,
		Diagnostics: Diagnostics{
			FormatID:  d.FormatID,
			Method:    d.Method,
			Score:     d.Score,
			HeaderRow: d.HeaderRow,
			Evidence:  append([]string(nil), d.Evidence...),
		},
	}

	switch {
	case !d.Recognized():
		c.logger.Info("No registered format matched",
			logging.F(logging.FieldFile, filename),
			logging.F(logging.FieldError, parsererror.ErrUnrecognizedFormat.Error()))
		fb := c.fallback.Process(d.Table)
		res.Transactions = fb.Transactions
		res.Diagnostics.Route = RouteFallback
		res.Diagnostics.Evidence = append(res.Diagnostics.Evidence, fb.Evidence...)
		res.Diagnostics.addStats(fb.Stats)

	case bankparser.Has(d.FormatID):
		parser, err := bankparser.GetParserWithLogger(d.FormatID, c.logger)
		if err != nil {
			return nil, err
		}
		pr, err := parser.Parse(d.Table, d.HeaderRow != classifier.NotFound, *d.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s statement: %w", d.FormatID, err)
		}
		res.Transactions = pr.Transactions
		res.Diagnostics.Route = RouteBankParser
		if pr.HeaderRow != classifier.NotFound {
			res.Diagnostics.HeaderRow = pr.HeaderRow
		}
		for _, f := range pr.Patched {
			res.Diagnostics.Patched = append(res.Diagnostics.Patched, string(f))
		}
		res.Diagnostics.addStats(pr.Stats)

	default:
		sr := standardizer.Standardize(d.Table, d.Format)
		res.Transactions = sr.Transactions
		res.Diagnostics.Route = RouteStandardizer
		if d.HeaderRow == classifier.NotFound && sr.HeaderRow >= 0 {
			res.Diagnostics.HeaderRow = sr.HeaderRow
		}
		if sr.Mapping.Positional {
			res.Diagnostics.Evidence = append(res.Diagnostics.Evidence, "columns assigned by position")
		}
		res.Diagnostics.addStats(sr.Stats)
	}

	res.Ledger = ledger.Transcode(res.Transactions)

	c.logger.Info("Converted statement",
		logging.F(logging.FieldFile, filename),
		logging.F(logging.FieldFormat, d.FormatID),
		logging.F(logging.FieldMethod, string(d.Method)),
		logging.F(logging.FieldScore, d.Score),
		logging.F(logging.FieldHeaderRow, res.Diagnostics.HeaderRow),
		logging.F(logging.FieldRows, len(res.Transactions)))
	if n := res.Diagnostics.NumericFailures + res.Diagnostics.DateFailures; n > 0 {
		c.logger.Warn("Some cells could not be coerced",
			logging.F(logging.FieldFile, filename),
			logging.F(logging.FieldCount, n))
	}

	return res, nil
}

// ConvertReader reads a statement from r, converts it and records it in
// history when a store is configured. name selects the reader by extension
// and feeds the filename classifier.
func (c *Converter) ConvertReader(ctx context.Context, name string, r io.Reader) (*Result, error) {
	table, err := c.reader.Read(name, r)
	if err != nil {
		return nil, err
	}
	res, err := c.Convert(table, filepath.Base(name))
	if err != nil {
		return nil, err
	}
	if err := c.record(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ConvertFile reads and converts the statement at path.
func (c *Converter) ConvertFile(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := c.reader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := c.Convert(table, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if err := c.record(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Converter) record(ctx context.Context, res *Result) error {
	if c.history == nil {
		return nil
	}
	id, err := c.history.SaveStatement(ctx, &history.Statement{
		UploadDate:   time.Now().UTC(),
		FileName:     res.FileName,
		BankType:     res.Diagnostics.FormatID,
		Original:     res.Original,
		Transactions: res.Transactions,
		Ledger:       res.Ledger,
	})
	if err != nil {
		return fmt.Errorf("failed to record conversion history: %w", err)
	}
	res.StatementID = id
	c.logger.Debug("Recorded statement",
		logging.F(logging.FieldStatementID, id.String()),
		logging.F(logging.FieldFile, res.FileName))
	return nil
}

// RecordExport stores that the ledger of a recorded statement was exported
// in the given output format.
func (c *Converter) RecordExport(ctx context.Context, statementID uuid.UUID, format string, settings map[string]string) error {
	if c.history == nil || statementID == uuid.Nil {
		return nil
	}
	_, err := c.history.SaveConversion(ctx, &history.Conversion{
		StatementID:    statementID,
		ConversionDate: time.Now().UTC(),
		Format:         format,
		Settings:       settings,
	})
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}
