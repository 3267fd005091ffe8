// Package models holds the data shapes passed between the classifier, the
// parsers, the transcoder and the storage layers.
package models

import (
	"github.com/shopspring/decimal"
)

// CanonicalTransaction is one statement row mapped onto the canonical schema.
//
// Debit and Credit are always derived from Amount through SetAmount:
// debit = max(0, -amount), credit = max(0, amount). A null Amount (a cell
// that could not be parsed) leaves both at zero.
type CanonicalTransaction struct {
	Date        string              `json:"date"`
	Description string              `json:"description"`
	Amount      decimal.NullDecimal `json:"amount"`
	Debit       decimal.Decimal     `json:"debit"`
	Credit      decimal.Decimal     `json:"credit"`
	Balance     decimal.NullDecimal `json:"balance"`
	DocumentNo  string              `json:"document_no,omitempty"`
	Currency    string              `json:"currency,omitempty"`
}

// NewTransaction builds a canonical row and derives its debit/credit split.
func NewTransaction(date, description string, amount decimal.NullDecimal) CanonicalTransaction {
	tx := CanonicalTransaction{Date: date, Description: description}
	tx.SetAmount(amount)
	return tx
}

// SetAmount stores the signed amount and re-derives Debit and Credit.
func (t *CanonicalTransaction) SetAmount(amount decimal.NullDecimal) {
	t.Amount = amount
	t.Debit = decimal.Zero
	t.Credit = decimal.Zero
	if !amount.Valid {
		return
	}
	switch amount.Decimal.Sign() {
	case -1:
		t.Debit = amount.Decimal.Neg()
	case 1:
		t.Credit = amount.Decimal
	}
}

// AmountFromDebitCredit returns credit - debit.
func AmountFromDebitCredit(debit, credit decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(credit.Sub(debit))
}

// SignedAmount returns the amount, treating null as zero.
func (t CanonicalTransaction) SignedAmount() decimal.Decimal {
	if !t.Amount.Valid {
		return decimal.Zero
	}
	return t.Amount.Decimal
}
