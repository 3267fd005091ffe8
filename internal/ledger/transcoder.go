// Package ledger turns canonical transactions into the two-section
// accounting import table.
package ledger

import (
	"strings"

	"fjacquet/ekstre-csv/internal/currencyutils"
	"fjacquet/ekstre-csv/internal/dateutils"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/textutils"

	"github.com/shopspring/decimal"
)

// Section identifies one half of the ledger.
type Section int

const (
	// Upper places inflows in Debit and outflows in Credit.
	Upper Section = iota
	// Lower mirrors Upper.
	Lower
)

func (s Section) String() string {
	if s == Lower {
		return "lower"
	}
	return "upper"
}

// Transcode builds the ledger for txs: one Upper row per transaction, the
// separator, then one Lower row per transaction. The result always has
// 2*len(txs)+1 rows.
func Transcode(txs []models.CanonicalTransaction) models.LedgerTable {
	out := make(models.LedgerTable, 0, 2*len(txs)+1)
	for _, tx := range txs {
		out = append(out, Entry(tx, Upper))
	}
	out = append(out, models.SeparatorEntry())
	for _, tx := range txs {
		out = append(out, Entry(tx, Lower))
	}
	return out
}

// Entry renders one transaction for the given section. A null amount
// leaves both Debit and Credit empty.
func Entry(tx models.CanonicalTransaction, section Section) models.LedgerEntry {
	voucherDate, _ := dateutils.Group(tx.Date)
	documentDate, _ := dateutils.Normalize(tx.Date)

	e := models.LedgerEntry{
		VoucherDate:       strings.TrimSpace(voucherDate),
		DocumentNo:        tx.DocumentNo,
		DocumentDate:      strings.TrimSpace(documentDate),
		DetailDescription: textutils.CleanDescription(tx.Description),
		Currency:          tx.Currency,
	}
	if !tx.Amount.Valid {
		return e
	}

	amount := tx.Amount.Decimal
	outflow := amount.Sign() < 0
	rendered := currencyutils.FormatTurkish(amount.Abs())
	if outflow == (section == Upper) {
		e.Credit = rendered
	} else {
		e.Debit = rendered
	}
	return e
}

// Totals holds the summed Debit and Credit of a run of ledger rows.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// SectionTotals adds up Debit and Credit of rows, parsing the Turkish
// rendering back. Separator rows and empty cells are skipped.
func SectionTotals(rows models.LedgerTable) Totals {
	t := Totals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, e := range rows {
		if e.IsSeparator {
			continue
		}
		if d, err := currencyutils.ParseAmount(e.Debit); err == nil {
			t.Debit = t.Debit.Add(d)
		}
		if c, err := currencyutils.ParseAmount(e.Credit); err == nil {
			t.Credit = t.Credit.Add(c)
		}
	}
	return t
}
