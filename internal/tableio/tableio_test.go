package tableio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  rune
	}{
		{name: "semicolon", input: "a;b;c\n1;2;3\n", want: ';'},
		{name: "comma", input: "a,b,c\n1,2,3\n", want: ','},
		{name: "tab", input: "a\tb\tc\n1\t2\t3\n", want: '\t'},
		{name: "pipe", input: "a|b\n1|2\n", want: '|'},
		{name: "decimal commas inside semicolons", input: "Tarih;Tutar\n01.01.2025;1,50\n02.01.2025;2,75\n", want: ';'},
		{name: "quoted delimiters ignored", input: "\"a;x\",b,c\n\"1;y\",2,3\n", want: ','},
		{name: "single column", input: "only\nvalues\n", want: ';'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SniffDelimiter([]byte(tt.input)))
		})
	}
}

func TestRead_CSV(t *testing.T) {
	input := "\xEF\xBB\xBFTarih;Açıklama;Tutar;\n15/06/2025;MARKET;-120,50;\n16/06/2025;MAAŞ;1000;\n"

	table, err := Read("garanti_ekstre.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Tarih", "Açıklama", "Tutar", "Unnamed: 3"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, models.TextCell("-120,50"), table.Cell(0, 2))
	assert.True(t, table.Cell(1, 2).IsNumber())
	assert.Equal(t, 1000.0, table.Cell(1, 2).Number)
	assert.True(t, table.Cell(0, 3).IsEmpty())
}

func TestRead_Windows1254(t *testing.T) {
	encoded, err := charmap.Windows1254.NewEncoder().String("Tarih;Açıklama;Tutar\n01.07.2025;İŞLEM ÜCRETİ;-5\n")
	require.NoError(t, err)

	table, err := Read("ziraat.csv", strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, "Açıklama", table.Columns[1])
	assert.Equal(t, "İŞLEM ÜCRETİ", table.Cell(0, 1).String())
}

func TestRead_ForcedDelimiter(t *testing.T) {
	r := NewReader(Options{Delimiter: ','})
	table, err := r.Read("x.txt", strings.NewReader("a;b,c\n1;2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a;b", "c"}, table.Columns)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		want    Kind
		wantErr bool
	}{
		{name: "csv", file: "a.csv", data: []byte("a;b"), want: KindCSV},
		{name: "txt", file: "a.TXT", data: []byte("a;b"), want: KindCSV},
		{name: "zip magic beats extension", file: "a.csv", data: []byte{0x50, 0x4B, 0x03, 0x04, 0x00}, want: KindXLSX},
		{name: "ole2 magic", file: "a.bin", data: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1}, want: KindXLS},
		{name: "xlsx without zip", file: "a.xlsx", data: []byte("plain text"), wantErr: true},
		{name: "unsupported", file: "a.pdf", data: []byte("%PDF-1.4"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.file, tt.data)
			if tt.wantErr {
				var target *parsererror.InvalidFormatError
				assert.True(t, errors.As(err, &target))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.csv"))
	assert.True(t, Supported("b.XLSX"))
	assert.True(t, Supported("c.xls"))
	assert.False(t, Supported("d.pdf"))
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"GARANTİ BBVA HESAP EKSTRESİ", nil, nil},
		{"Tarih", "Açıklama", "Tutar"},
		{"15.06.2025", "BONUS", "-120,50"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	table, err := Read("statement.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, "GARANTİ BBVA HESAP EKSTRESİ", table.Columns[0])
	assert.Equal(t, "Unnamed: 1", table.Columns[1])
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "Tarih", table.Cell(0, 0).String())
	assert.Equal(t, "-120,50", table.Cell(1, 2).String())
}

func TestRead_CorruptWorkbook(t *testing.T) {
	data := append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("not really a zip")...)
	_, err := Read("broken.xlsx", bytes.NewReader(data))
	var target *parsererror.DataExtractionError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "xlsx", target.Reader)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "akbank.csv")
	require.NoError(t, os.WriteFile(path, []byte("TARİH,AÇIKLAMA,TUTAR\n01/06/2025,X,-50\n"), 0600))

	table, err := NewReader(Options{}).ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TARİH", "AÇIKLAMA", "TUTAR"}, table.Columns)

	_, err = NewReader(Options{}).ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func ledgerFixture() models.LedgerTable {
	return models.LedgerTable{
		{VoucherDate: "20.06.2025", DocumentDate: "15.06.2025", DetailDescription: "BONUS", Credit: "120,50"},
		models.SeparatorEntry(),
		{VoucherDate: "20.06.2025", DocumentDate: "15.06.2025", DetailDescription: "BONUS", Debit: "120,50"},
	}
}

func TestWriteLedgerCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, ledgerFixture(), DefaultCSVOptions()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"))
	lines := strings.Split(strings.TrimRight(strings.TrimPrefix(out, "\xEF\xBB\xBF"), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(models.LedgerColumns, ";"), lines[0])
	assert.Equal(t, ";20.06.2025;;;;15.06.2025;BONUS;;120,50;;;;;", lines[1])
	assert.Equal(t, ";;;;;;"+models.SeparatorMarker+";;;;;;;", lines[2])
	assert.Equal(t, ";20.06.2025;;;;15.06.2025;BONUS;120,50;;;;;;", lines[3])
	assert.NotContains(t, out, "IsSeparator")
}

func TestWriteLedgerCSV_NoBOMComma(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, nil, CSVOptions{Delimiter: ','}))
	assert.Equal(t, strings.Join(models.LedgerColumns, ",")+"\n", buf.String())
}

func TestWriteCanonicalCSV(t *testing.T) {
	txs := []models.CanonicalTransaction{
		models.NewTransaction("15.06.2025", "BONUS", decimal.NewNullDecimal(decimal.RequireFromString("-120.5"))),
		models.NewTransaction("16.06.2025", "BROKEN", decimal.NullDecimal{}),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCanonicalCSV(&buf, txs, CSVOptions{Delimiter: ';'}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date;Description;Amount;Debit;Credit;Balance;Document No;Currency", lines[0])
	assert.Equal(t, "15.06.2025;BONUS;-120.50;120.50;0.00;;;", lines[1])
	assert.Equal(t, "16.06.2025;BROKEN;;0.00;0.00;;;", lines[2])
}

func TestWriteLedgerXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLedgerXLSX(&buf, ledgerFixture()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(LedgerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, models.LedgerColumns, rows[0])
	assert.Equal(t, "120,50", rows[1][8])
	assert.Equal(t, models.SeparatorMarker, rows[2][6])

	styleOf := func(cell string) int {
		id, err := f.GetCellStyle(LedgerSheet, cell)
		require.NoError(t, err)
		return id
	}
	assert.NotZero(t, styleOf("A3"))
	assert.Equal(t, styleOf("A3"), styleOf("N3"))
	assert.NotEqual(t, styleOf("A3"), styleOf("A2"))

	// credit above the separator and debit below share the red font
	assert.NotZero(t, styleOf("I2"))
	assert.Equal(t, styleOf("I2"), styleOf("H4"))
	assert.NotEqual(t, styleOf("I2"), styleOf("H2"))
}
