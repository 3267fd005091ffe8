package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/ekstre-csv/internal/classifier"
	"fjacquet/ekstre-csv/internal/history"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/parsererror"
	"fjacquet/ekstre-csv/internal/registry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const garantiCSV = "Hesap Hareketleri;;;\n" +
	";;;\n" +
	"Tarih;Açıklama;Tutar;Bakiye\n" +
	"15.06.2025;MARKET ALIŞVERİŞİ;-120,50;879,50\n" +
	"16.06.2025;MAAŞ;1.000,00;1.879,50\n"

const genericCSV = "Date,Desc,Amount\n" +
	"15/06/2025,Card payment at grocery store,-120.5\n" +
	"16/06/2025,Salary transfer from employer,3000\n"

func text(values ...string) []models.Cell {
	out := make([]models.Cell, len(values))
	for i, v := range values {
		out[i] = models.TextCell(v)
	}
	return out
}

func garantiStatement() models.RawTable {
	return models.NewRawTable(nil, [][]models.Cell{
		text("Hesap Hareketleri", "", "", ""),
		text("", "", "", ""),
		text("Tarih", "Açıklama", "Tutar", "Bakiye"),
		{models.TextCell("15.06.2025"), models.TextCell("MARKET ALIŞVERİŞİ"), models.NumberCell(-120.5), models.NumberCell(879.5)},
		{models.TextCell("16.06.2025"), models.TextCell("MAAŞ"), models.NumberCell(1000), models.NumberCell(1879.5)},
	})
}

func newConverter(t *testing.T, logger logging.Logger, opts ...Option) *Converter {
	t.Helper()
	return NewConverter(registry.Static(registry.DefaultFormats()...), classifier.DefaultWeights(), logger, opts...)
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestConvert_BankParserRoute(t *testing.T) {
	logger := logging.NewMockLogger()
	res, err := newConverter(t, logger).Convert(garantiStatement(), "garanti_ekstre.csv")
	require.NoError(t, err)

	d := res.Diagnostics
	assert.Equal(t, "garanti", d.FormatID)
	assert.Equal(t, classifier.MethodFilename, d.Method)
	assert.Equal(t, RouteBankParser, d.Route)
	assert.Equal(t, 2, d.HeaderRow)
	assert.Equal(t, 2, d.Rows)
	assert.Contains(t, d.Evidence, "header row found at row 2")

	require.Len(t, res.Transactions, 2)
	assert.True(t, res.Transactions[0].Debit.Equal(decimal.RequireFromString("120.5")))

	require.Len(t, res.Ledger, 5)
	assert.Equal(t, 2, res.Ledger.SeparatorIndex())
	assert.Equal(t, "120,50", res.Ledger[0].Credit)
	assert.Equal(t, "20.06.2025", res.Ledger[0].VoucherDate)
	assert.Equal(t, "15.06.2025", res.Ledger[0].DocumentDate)
	assert.Equal(t, "120,50", res.Ledger[3].Debit)

	assert.True(t, logger.HasEntry("INFO", "Converted statement"))
}

func TestConvert_StandardizerRoute(t *testing.T) {
	deniz := models.FormatDescriptor{
		ID:                "denizbank",
		Name:              "DenizBank",
		HeaderIdentifiers: []string{"Tarih", "Açıklama", "Tutar"},
		Active:            true,
	}
	table := models.NewRawTable(nil, [][]models.Cell{
		text("DENİZBANK A.Ş.", "", ""),
		text("Tarih", "Açıklama", "Tutar"),
		text("03.07.2025", "KİRA ÖDEMESİ", "-1.500,00"),
	})

	conv := NewConverter(registry.Static(deniz), classifier.DefaultWeights(), nil)
	res, err := conv.Convert(table, "denizbank_ozet.csv")
	require.NoError(t, err)

	assert.Equal(t, "denizbank", res.Diagnostics.FormatID)
	assert.Equal(t, RouteStandardizer, res.Diagnostics.Route)
	assert.Equal(t, 1, res.Diagnostics.HeaderRow)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "KİRA ÖDEMESİ", res.Transactions[0].Description)
	assert.True(t, res.Transactions[0].Amount.Decimal.Equal(decimal.RequireFromString("-1500")))

	require.Len(t, res.Ledger, 3)
	assert.Equal(t, "1.500,00", res.Ledger[0].Credit)
	assert.Equal(t, "10.07.2025", res.Ledger[0].VoucherDate)
	assert.Equal(t, "1.500,00", res.Ledger[2].Debit)
}

func TestConvert_FallbackRoute(t *testing.T) {
	table := models.NewRawTable([]string{"Date", "Desc", "Amount"}, [][]models.Cell{
		{models.TextCell("15/06/2025"), models.TextCell("Card payment at grocery store"), models.NumberCell(-120.5)},
		{models.TextCell("16/06/2025"), models.TextCell("Salary transfer from employer"), models.NumberCell(3000)},
	})

	res, err := newConverter(t, nil).Convert(table, "export.csv")
	require.NoError(t, err)

	assert.Equal(t, classifier.UnknownFormat, res.Diagnostics.FormatID)
	assert.Equal(t, classifier.MethodNone, res.Diagnostics.Method)
	assert.Equal(t, RouteFallback, res.Diagnostics.Route)
	assert.Contains(t, res.Diagnostics.Evidence, `description column by text length "Desc"`)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "Card payment at grocery store", res.Transactions[0].Description)
	assert.Len(t, res.Ledger, 5)
}

func TestConvert_MissingColumns(t *testing.T) {
	table := models.NewRawTable([]string{"Tarih", "Açıklama", "Tutar"}, [][]models.Cell{
		text("01.07.2025", "ZİRAATKART HARCAMA", "250,00"),
	})

	_, err := newConverter(t, nil).Convert(table, "ziraat.csv")
	require.Error(t, err)

	var missing *parsererror.MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "ziraat", missing.Format)
	assert.Contains(t, missing.Missing, "debit")
}

func TestConvert_Idempotent(t *testing.T) {
	conv := newConverter(t, nil)
	first, err := conv.Convert(garantiStatement(), "garanti_ekstre.csv")
	require.NoError(t, err)
	second, err := conv.Convert(garantiStatement(), "garanti_ekstre.csv")
	require.NoError(t, err)

	assert.Equal(t, first.Ledger, second.Ledger)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestConvertFile_RecordsHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "garanti_ekstre.csv", garantiCSV)

	store := history.NewMemoryStore()
	conv := newConverter(t, nil, WithHistory(store))

	ctx := context.Background()
	res, err := conv.ConvertFile(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, RouteBankParser, res.Diagnostics.Route)
	assert.Equal(t, 1, res.Diagnostics.HeaderRow)
	require.Len(t, res.Transactions, 2)
	assert.True(t, res.Transactions[1].Credit.Equal(decimal.RequireFromString("1000")))
	require.NotEqual(t, uuid.Nil, res.StatementID)

	saved, err := store.Get(ctx, res.StatementID)
	require.NoError(t, err)
	assert.Equal(t, "garanti_ekstre.csv", saved.FileName)
	assert.Equal(t, "garanti", saved.BankType)
	assert.Len(t, saved.Ledger, 5)

	require.NoError(t, conv.RecordExport(ctx, res.StatementID, OutputCSV, map[string]string{"delimiter": ";"}))
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalStatements)
	assert.Equal(t, 1, stats.TotalConversions)

	assert.Error(t, conv.RecordExport(ctx, uuid.New(), OutputCSV, nil))
}

func TestConvertReader(t *testing.T) {
	res, err := newConverter(t, nil).ConvertReader(context.Background(), "upload.csv", strings.NewReader(genericCSV))
	require.NoError(t, err)
	assert.Equal(t, RouteFallback, res.Diagnostics.Route)
	assert.Equal(t, "upload.csv", res.FileName)
	assert.Equal(t, uuid.Nil, res.StatementID)
}

func TestConvertFile_Errors(t *testing.T) {
	conv := newConverter(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := conv.ConvertFile(ctx, "whatever.csv")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = conv.ConvertFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
