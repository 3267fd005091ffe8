package tableio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"fjacquet/ekstre-csv/internal/models"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// LedgerSheet is the name of the sheet WriteLedgerXLSX produces.
const LedgerSheet = "Ledger"

const (
	separatorFill = "FFD700"
	negativeFont  = "FF0000"
)

func readXLSX(data []byte) ([][]models.Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("xlsx has no sheets")
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}
	return inferRows(raw), nil
}

func readXLS(data []byte) ([][]models.Cell, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("xls has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("could not read first xls sheet")
	}

	// MaxRow is the index of the last row, not a count.
	raw := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			raw = append(raw, nil)
			continue
		}
		values := make([]string, row.LastCol())
		for c := range values {
			values[c] = row.Col(c)
		}
		raw = append(raw, values)
	}
	return inferRows(trimTrailingBlank(raw)), nil
}

func inferRows(raw [][]string) [][]models.Cell {
	rows := make([][]models.Cell, len(raw))
	for i, r := range raw {
		row := make([]models.Cell, len(r))
		for j, v := range r {
			row[j] = models.InferCell(v)
		}
		rows[i] = row
	}
	return rows
}

func trimTrailingBlank(raw [][]string) [][]string {
	for len(raw) > 0 {
		last := raw[len(raw)-1]
		blank := true
		for _, v := range last {
			if v != "" {
				blank = false
				break
			}
		}
		if !blank {
			break
		}
		raw = raw[:len(raw)-1]
	}
	return raw
}

// WriteLedgerXLSX writes table as a workbook with a bold header, a gold
// separator row and red amounts in the credit column above the separator
// and the debit column below it.
func WriteLedgerXLSX(w io.Writer, table models.LedgerTable) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	separator, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{separatorFill}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create separator style: %w", err)
	}
	red, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: negativeFont}})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(models.LedgerColumns))
	for i, name := range models.LedgerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(LedgerSheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := f.SetCellStyle(LedgerSheet, "A1", lastCol+"1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	debitCol := columnIndex("Debit")
	creditCol := columnIndex("Credit")
	below := false
	for i, e := range table {
		rowNum := i + 2
		for j, v := range e.Values() {
			cell, _ := excelize.CoordinatesToCellName(j+1, rowNum)
			if err := f.SetCellValue(LedgerSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
		}

		if e.IsSeparator {
			below = true
			first, _ := excelize.CoordinatesToCellName(1, rowNum)
			last, _ := excelize.CoordinatesToCellName(len(models.LedgerColumns), rowNum)
			if err := f.SetCellStyle(LedgerSheet, first, last, separator); err != nil {
				return fmt.Errorf("failed to style separator: %w", err)
			}
			continue
		}

		col := creditCol
		if below {
			col = debitCol
		}
		cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
		if err := f.SetCellStyle(LedgerSheet, cell, cell, red); err != nil {
			return fmt.Errorf("failed to style row %d: %w", rowNum, err)
		}
	}

	for i, name := range models.LedgerColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(name) + 4)
		if width < 12 {
			width = 12
		}
		_ = f.SetColWidth(LedgerSheet, colName, colName, width)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func columnIndex(name string) int {
	for i, c := range models.LedgerColumns {
		if c == name {
			return i
		}
	}
	return -1
}
