// Package currencyutils parses the amounts found in bank exports and renders
// ledger amounts in the Turkish convention.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"fjacquet/ekstre-csv/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNotANumber is returned when a value cannot be coerced to a decimal.
var ErrNotANumber = errors.New("not a number")

var (
	currencyTokens = regexp.MustCompile(`(?i)\b(TL|TRY|EUR|USD|GBP|CHF)\b|[₺€$£]`)
	nonNumeric     = regexp.MustCompile(`[^0-9.\-]`)
)

// StandardizeAmount turns a bank amount string into a literal decimal can
// parse. It strips currency codes and symbols and all whitespace, moves a
// trailing minus to the front and resolves decimal separators:
//
//	"1.234,56 TL" -> "1234.56"
//	"1,234.56"    -> "1234.56"
//	"120,50"      -> "120.50"
//	"1.234.567"   -> "1234567"
//	"120,50-"     -> "-120.50"
func StandardizeAmount(amountStr string) string {
	s := currencyTokens.ReplaceAllString(amountStr, "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\u00a0', '\u202f', '\'':
			return -1
		}
		return r
	}, s)
	s = strings.TrimPrefix(s, "+")

	if strings.HasSuffix(s, "-") && !strings.HasPrefix(s, "-") {
		s = "-" + strings.TrimSuffix(s, "-")
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		if strings.Count(s, ",") == 1 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// ParseAmount parses a bank amount string. An empty string is an error.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, amountStr)
	}
	d, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, amountStr)
	}
	return d, nil
}

// ParseCell coerces a cell. Empty cells give a null value and no error;
// cells that cannot be coerced give a null value and ErrNotANumber.
func ParseCell(c models.Cell) (decimal.NullDecimal, error) {
	switch c.Kind {
	case models.CellEmpty:
		return decimal.NullDecimal{}, nil
	case models.CellNumber:
		return decimal.NewNullDecimal(decimal.NewFromFloat(c.Number)), nil
	}
	d, err := ParseAmount(c.Text)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseCellLoose is ParseCell that additionally drops every character other
// than digits, '.' and '-' after separator resolution. It is used when
// guessing which unnamed column holds amounts.
func ParseCellLoose(c models.Cell) (decimal.NullDecimal, error) {
	if c.Kind != models.CellText {
		return ParseCell(c)
	}
	s := nonNumeric.ReplaceAllString(StandardizeAmount(c.Text), "")
	if s == "" || s == "-" || s == "." {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q", ErrNotANumber, c.Text)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q", ErrNotANumber, c.Text)
	}
	return decimal.NewNullDecimal(d), nil
}

// ZeroIfNull returns the decimal, or zero for a null value.
func ZeroIfNull(n decimal.NullDecimal) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}

// FormatTurkish renders d with '.' thousands and ',' decimal separators and
// two decimals ("1.234,56"). Zero renders as the empty string.
func FormatTurkish(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")
	if strings.Trim(intPart, "0") == "" && strings.Trim(frac, "0") == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "," + frac
}

// FormatTurkishNull is FormatTurkish with a null value rendering empty.
func FormatTurkishNull(n decimal.NullDecimal) string {
	if !n.Valid {
		return ""
	}
	return FormatTurkish(n.Decimal)
}
