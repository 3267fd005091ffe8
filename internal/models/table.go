package models

import (
	"fmt"
	"strings"
)

// RawTable is a rectangular statement table as read from a file, before any
// header resolution. Columns holds the labels of the first line, which may
// be banner noise such as "Unnamed: 0".
type RawTable struct {
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// UnnamedLabel is the label given to a column without a header.
func UnnamedLabel(i int) string {
	return fmt.Sprintf("Unnamed: %d", i)
}

// NewRawTable pads every row and the label list to the same width. Blank
// labels become UnnamedLabel(i).
func NewRawTable(columns []string, rows [][]Cell) RawTable {
	width := len(columns)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	labels := make([]string, width)
	for i := 0; i < width; i++ {
		if i < len(columns) && strings.TrimSpace(columns[i]) != "" {
			labels[i] = strings.TrimSpace(columns[i])
		} else {
			labels[i] = UnnamedLabel(i)
		}
	}

	padded := make([][]Cell, len(rows))
	for i, r := range rows {
		row := make([]Cell, width)
		copy(row, r)
		padded[i] = row
	}
	return RawTable{Columns: labels, Rows: padded}
}

// Len is the number of data rows.
func (t RawTable) Len() int { return len(t.Rows) }

// Width is the number of columns.
func (t RawTable) Width() int { return len(t.Columns) }

// Cell returns the cell at (row, col), or an empty cell when out of range.
func (t RawTable) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return Cell{}
	}
	return t.Rows[row][col]
}

// Column returns all cells of column col.
func (t RawTable) Column(col int) []Cell {
	out := make([]Cell, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out
}

// ColumnIndex returns the index of the first column whose label equals
// label, or -1.
func (t RawTable) ColumnIndex(label string) int {
	for i, c := range t.Columns {
		if c == label {
			return i
		}
	}
	return -1
}

// Head returns a view of the first n rows.
func (t RawTable) Head(n int) RawTable {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return RawTable{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Reheader promotes data row `row` to column labels and drops that row and
// everything above it. Blank header cells become UnnamedLabel(i).
func (t RawTable) Reheader(row int) RawTable {
	if row < 0 || row >= len(t.Rows) {
		return t
	}
	labels := make([]string, t.Width())
	for i := range labels {
		labels[i] = strings.TrimSpace(t.Cell(row, i).String())
	}
	return NewRawTable(labels, t.Rows[row+1:])
}

// IsTextColumn reports whether column col holds at least one text cell.
// This matches how spreadsheet readers type a mixed column as text.
func (t RawTable) IsTextColumn(col int) bool {
	for i := range t.Rows {
		if t.Cell(i, col).IsText() {
			return true
		}
	}
	return false
}

// IsNumericColumn reports whether column col has at least one number and no
// text cells.
func (t RawTable) IsNumericColumn(col int) bool {
	numbers := 0
	for i := range t.Rows {
		c := t.Cell(i, col)
		if c.IsText() {
			return false
		}
		if c.IsNumber() {
			numbers++
		}
	}
	return numbers > 0
}

// RowText joins the non-empty cells of a row with single spaces.
func (t RawTable) RowText(row int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	parts := make([]string, 0, len(t.Rows[row]))
	for _, c := range t.Rows[row] {
		if !c.IsEmpty() {
			parts = append(parts, c.String())
		}
	}
	return strings.Join(parts, " ")
}
