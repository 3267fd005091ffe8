package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is one loosely typed value of a raw statement table: text, number or
// empty. Readers decide the kind; nothing downstream guesses it again.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell returns a text cell, or an empty cell when s is blank.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell. NaN becomes empty.
func NumberCell(f float64) Cell {
	if math.IsNaN(f) {
		return Cell{}
	}
	return Cell{Kind: CellNumber, Number: f}
}

// EmptyCell returns the empty cell.
func EmptyCell() Cell {
	return Cell{}
}

// InferCell builds a number cell when s is a plain decimal literal
// ("1234.5", "-12", "20250615") and a text cell otherwise.
func InferCell(s string) Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Cell{}
	}
	if looksNumeric(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return NumberCell(f)
		}
	}
	return TextCell(s)
}

// looksNumeric rejects strings ParseFloat would accept but a spreadsheet
// would not treat as numbers (hex, "Inf", "NaN", exponents, underscores).
func looksNumeric(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case (r == '-' || r == '+') && i == 0:
		case r == '.':
		default:
			return false
		}
	}
	return digits > 0
}

func (c Cell) IsEmpty() bool  { return c.Kind == CellEmpty }
func (c Cell) IsText() bool   { return c.Kind == CellText }
func (c Cell) IsNumber() bool { return c.Kind == CellNumber }

// String renders the cell as text. Integral numbers have no fractional part.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON writes text as a string, numbers as numbers and empty as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Number)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		*c = TextCell(val)
	case float64:
		*c = NumberCell(val)
	default:
		*c = Cell{}
	}
	return nil
}
