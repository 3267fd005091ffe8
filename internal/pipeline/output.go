package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/tableio"
)

// Output formats.
const (
	OutputCSV  = "csv"
	OutputXLSX = "xlsx"
)

// OutputOptions controls how ledgers are written.
type OutputOptions struct {
	Format string
	CSV    tableio.CSVOptions

	// Canonical also writes the canonical rows next to the ledger.
	Canonical bool
}

// DefaultOutputOptions writes semicolon separated CSV with a BOM.
func DefaultOutputOptions() OutputOptions {
	return OutputOptions{Format: OutputCSV, CSV: tableio.DefaultCSVOptions()}
}

// ContentType returns the MIME type of the ledger format.
func (o OutputOptions) ContentType() string {
	if o.Format == OutputXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// WriteLedger writes table to w in the configured format.
func WriteLedger(w io.Writer, table models.LedgerTable, o OutputOptions) error {
	switch o.Format {
	case OutputXLSX:
		return tableio.WriteLedgerXLSX(w, table)
	case OutputCSV, "":
		return tableio.WriteLedgerCSV(w, table, o.CSV)
	default:
		return fmt.Errorf("unsupported output format: %s", o.Format)
	}
}

// LedgerPath returns the ledger file name for input inside dir.
func LedgerPath(dir, input string, o OutputOptions) string {
	ext := o.Format
	if ext == "" {
		ext = OutputCSV
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_ledger."+ext)
}

// CanonicalPath returns the canonical CSV path that accompanies a ledger.
func CanonicalPath(ledgerPath string) string {
	return strings.TrimSuffix(ledgerPath, "_ledger"+filepath.Ext(ledgerPath)) + "_canonical.csv"
}

// SaveResult writes the ledger of res to path, and the canonical rows next
// to it when o.Canonical is set.
func SaveResult(path string, res *Result, o OutputOptions) error {
	if err := writeFile(path, func(w io.Writer) error { return WriteLedger(w, res.Ledger, o) }); err != nil {
		return err
	}
	if !o.Canonical {
		return nil
	}
	return writeFile(CanonicalPath(path), func(w io.Writer) error {
		return tableio.WriteCanonicalCSV(w, res.Transactions, o.CSV)
	})
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	// #nosec G304 -- output path is chosen by the user
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()
	return write(f)
}
