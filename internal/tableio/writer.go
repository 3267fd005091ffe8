package tableio

import (
	"encoding/csv"
	"fmt"
	"io"

	"fjacquet/ekstre-csv/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions controls CSV output.
type CSVOptions struct {
	Delimiter rune
	// BOM prefixes the output with a UTF-8 byte order mark so spreadsheet
	// applications detect the encoding.
	BOM bool
}

// DefaultCSVOptions matches what Turkish accounting imports expect.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ';', BOM: true}
}

func (o CSVOptions) writer(w io.Writer) (*csv.Writer, error) {
	if o.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return nil, fmt.Errorf("error writing byte order mark: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if o.Delimiter != 0 {
		cw.Comma = o.Delimiter
	}
	return cw, nil
}

// WriteLedgerCSV writes the 14 ledger columns of every row, the separator
// row included. The separator flag itself is never written.
func WriteLedgerCSV(w io.Writer, table models.LedgerTable, opts CSVOptions) error {
	cw, err := opts.writer(w)
	if err != nil {
		return err
	}
	rows := []models.LedgerEntry(table)
	if rows == nil {
		rows = []models.LedgerEntry{}
	}
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("error writing ledger csv: %w", err)
	}
	return nil
}

// canonicalRow is the CSV shape of a canonical transaction.
type canonicalRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Debit       string `csv:"Debit"`
	Credit      string `csv:"Credit"`
	Balance     string `csv:"Balance"`
	DocumentNo  string `csv:"Document No"`
	Currency    string `csv:"Currency"`
}

func fixed(n decimal.NullDecimal) string {
	if !n.Valid {
		return ""
	}
	return n.Decimal.StringFixed(2)
}

// WriteCanonicalCSV writes canonical transactions with plain two-decimal
// amounts. Null amounts and balances are left empty.
func WriteCanonicalCSV(w io.Writer, txs []models.CanonicalTransaction, opts CSVOptions) error {
	cw, err := opts.writer(w)
	if err != nil {
		return err
	}
	rows := make([]canonicalRow, len(txs))
	for i, tx := range txs {
		rows[i] = canonicalRow{
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      fixed(tx.Amount),
			Debit:       tx.Debit.StringFixed(2),
			Credit:      tx.Credit.StringFixed(2),
			Balance:     fixed(tx.Balance),
			DocumentNo:  tx.DocumentNo,
			Currency:    tx.Currency,
		}
	}
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("error writing canonical csv: %w", err)
	}
	return nil
}
