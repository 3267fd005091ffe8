package models

// SeparatorMarker is the Detail Description text of the sentinel row placed
// between the two mirrored ledger sections.
const SeparatorMarker = "*** SARI AYIRICI ÇIZGI ***"

// LedgerColumns lists the exported ledger fields in output order.
var LedgerColumns = []string{
	"Voucher No",
	"Voucher Date",
	"Voucher Description",
	"Account Code",
	"Document No",
	"Document Date",
	"Detail Description",
	"Debit",
	"Credit",
	"Quantity",
	"Document Type",
	"Currency",
	"Exchange Rate",
	"FX Amount",
}

// LedgerEntry is one row of the accounting import table. Amount fields are
// already rendered in the Turkish convention ("1.234,56", empty for zero).
type LedgerEntry struct {
	VoucherNo          string `csv:"Voucher No" json:"voucher_no"`
	VoucherDate        string `csv:"Voucher Date" json:"voucher_date"`
	VoucherDescription string `csv:"Voucher Description" json:"voucher_description"`
	AccountCode        string `csv:"Account Code" json:"account_code"`
	DocumentNo         string `csv:"Document No" json:"document_no"`
	DocumentDate       string `csv:"Document Date" json:"document_date"`
	DetailDescription  string `csv:"Detail Description" json:"detail_description"`
	Debit              string `csv:"Debit" json:"debit"`
	Credit             string `csv:"Credit" json:"credit"`
	Quantity           string `csv:"Quantity" json:"quantity"`
	DocumentType       string `csv:"Document Type" json:"document_type"`
	Currency           string `csv:"Currency" json:"currency"`
	ExchangeRate       string `csv:"Exchange Rate" json:"exchange_rate"`
	FXAmount           string `csv:"FX Amount" json:"fx_amount"`

	IsSeparator bool `csv:"-" json:"-"`
}

// Values returns the 14 exported fields in LedgerColumns order.
func (e LedgerEntry) Values() []string {
	return []string{
		e.VoucherNo, e.VoucherDate, e.VoucherDescription, e.AccountCode,
		e.DocumentNo, e.DocumentDate, e.DetailDescription, e.Debit, e.Credit,
		e.Quantity, e.DocumentType, e.Currency, e.ExchangeRate, e.FXAmount,
	}
}

// SeparatorEntry returns the sentinel row.
func SeparatorEntry() LedgerEntry {
	return LedgerEntry{DetailDescription: SeparatorMarker, IsSeparator: true}
}

// LedgerTable is the full two-section ledger: N upper rows, the separator,
// N lower rows.
type LedgerTable []LedgerEntry

// SeparatorIndex returns the index of the separator row, or -1.
func (t LedgerTable) SeparatorIndex() int {
	for i, e := range t {
		if e.IsSeparator {
			return i
		}
	}
	return -1
}

// Upper returns the rows above the separator.
func (t LedgerTable) Upper() LedgerTable {
	if i := t.SeparatorIndex(); i >= 0 {
		return t[:i]
	}
	return t
}

// Lower returns the rows below the separator.
func (t LedgerTable) Lower() LedgerTable {
	if i := t.SeparatorIndex(); i >= 0 {
		return t[i+1:]
	}
	return nil
}
