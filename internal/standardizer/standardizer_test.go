package standardizer

import (
	"testing"

	"fjacquet/ekstre-csv/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(values ...string) []models.Cell {
	out := make([]models.Cell, len(values))
	for i, v := range values {
		out[i] = models.TextCell(v)
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMapColumns_Keywords(t *testing.T) {
	table := models.NewRawTable(
		[]string{"İşlem Tarihi", "Açıklama", "Tutar", "Bakiye", "Dekont No", "Para Birimi"}, nil)

	m := MapColumns(table, nil)
	assert.False(t, m.Positional)
	assert.Equal(t, 4, m.ByName)
	assert.Equal(t, 0, m.Columns.Date)
	assert.Equal(t, 1, m.Columns.Description)
	assert.Equal(t, 2, m.Columns.Amount)
	assert.Equal(t, 3, m.Columns.Balance)
	assert.Equal(t, 4, m.Columns.DocumentNo)
	assert.Equal(t, 5, m.Columns.Currency)
	assert.Equal(t, Unassigned, m.Columns.Debit)
}

func TestMapColumns_FirstMatchingColumnWins(t *testing.T) {
	table := models.NewRawTable([]string{"İşlem Tarihi", "Valör Tarihi", "Açıklama", "Tutar"}, nil)
	m := MapColumns(table, nil)
	assert.Equal(t, 0, m.Columns.Date)
}

func TestMapColumns_DebitCreditBeatsAmount(t *testing.T) {
	table := models.NewRawTable([]string{"Tarih", "Açıklama", "Borç", "Alacak", "Bakiye"}, nil)
	m := MapColumns(table, nil)
	assert.Equal(t, 2, m.Columns.Debit)
	assert.Equal(t, 3, m.Columns.Credit)
	assert.Equal(t, Unassigned, m.Columns.Amount)
}

func TestMapColumns_DeclaredColumns(t *testing.T) {
	f := &models.FormatDescriptor{
		ID:             "custom",
		DateCol:        "Valuta",
		DescriptionCol: "Buchungstext",
		AmountCol:      "Betrag",
		BalanceCol:     "Saldo",
	}
	table := models.NewRawTable([]string{"Valuta", "Buchungstext", "betrag", "Saldo"}, nil)

	m := MapColumns(table, f)
	assert.False(t, m.Positional)
	assert.Equal(t, 0, m.Columns.Date)
	assert.Equal(t, 1, m.Columns.Description)
	assert.Equal(t, 2, m.Columns.Amount)
	assert.Equal(t, 3, m.Columns.Balance)
}

func TestMapColumns_DeclaredDebitCredit(t *testing.T) {
	f := &models.FormatDescriptor{ID: "custom", DebitCol: "Out", CreditCol: "In"}
	table := models.NewRawTable([]string{"When", "What", "Out", "In"}, nil)

	m := MapColumns(table, f)
	assert.Equal(t, 2, m.Columns.Debit)
	assert.Equal(t, 3, m.Columns.Credit)
	assert.False(t, m.Positional)
}

func TestPurePositional(t *testing.T) {
	tests := []struct {
		name       string
		table      models.RawTable
		wantOK     bool
		wantAmount int
	}{
		{
			name: "first numeric column",
			table: models.NewRawTable([]string{"A", "B", "C", "D"}, [][]models.Cell{
				{models.TextCell("01.02.2025"), models.TextCell("x"), models.TextCell("ref"), models.NumberCell(10)},
			}),
			wantOK:     true,
			wantAmount: 3,
		},
		{
			name: "no numeric column",
			table: models.NewRawTable([]string{"A", "B", "C"}, [][]models.Cell{
				text("01.02.2025", "x", "12,50"),
			}),
			wantOK:     true,
			wantAmount: 2,
		},
		{
			name:   "too narrow",
			table:  models.NewRawTable([]string{"A", "B"}, nil),
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, ok := PurePositional(tt.table)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, 0, cols.Date)
				assert.Equal(t, 1, cols.Description)
				assert.Equal(t, tt.wantAmount, cols.Amount)
			}
		})
	}
}

func TestMapColumns_PositionalOnlyWithoutNameMatches(t *testing.T) {
	none := models.NewRawTable([]string{"A", "B", "C"}, nil)
	m := MapColumns(none, nil)
	assert.True(t, m.Positional)
	assert.Equal(t, 0, m.ByName)

	oneMatch := models.NewRawTable([]string{"Tarih", "B", "C"}, nil)
	m = MapColumns(oneMatch, nil)
	assert.False(t, m.Positional)
	assert.Equal(t, 1, m.ByName)
	assert.Equal(t, Unassigned, m.Columns.Description)
	assert.Equal(t, Unassigned, m.Columns.Amount)
}

func TestStandardize_GarantiTable(t *testing.T) {
	table := models.NewRawTable([]string{"Tarih", "Açıklama", "Tutar", "Bakiye", "Dekont No"}, [][]models.Cell{
		{models.TextCell("15/06/2025-14:36:26"), models.TextCell("MARKET *ALIŞVERİŞ*  Kadıköy"), models.TextCell("-120,50 TL"), models.TextCell("1.879,50"), models.TextCell("D-1")},
		{models.TextCell("16.06.2025"), models.TextCell("MAAŞ"), models.NumberCell(1000), models.NumberCell(2879.5), models.TextCell("D-2")},
	})

	res := Standardize(table, nil)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, -1, res.HeaderRow)

	first := res.Transactions[0]
	assert.Equal(t, "15.06.2025", first.Date)
	assert.Equal(t, "MARKET ALIŞVERİŞ Kadıköy", first.Description)
	assert.True(t, first.Amount.Decimal.Equal(dec("-120.50")))
	assert.True(t, first.Debit.Equal(dec("120.50")))
	assert.True(t, first.Credit.IsZero())
	assert.True(t, first.Balance.Decimal.Equal(dec("1879.50")))
	assert.Equal(t, "D-1", first.DocumentNo)

	second := res.Transactions[1]
	assert.True(t, second.Credit.Equal(dec("1000")))
	assert.True(t, second.Debit.IsZero())
	assert.Equal(t, Stats{Rows: 2}, res.Stats)
}

func TestStandardize_DebitCreditAmount(t *testing.T) {
	table := models.NewRawTable([]string{"Tarih", "Açıklama", "Borç", "Alacak"}, [][]models.Cell{
		{models.TextCell("01.03.2025"), models.TextCell("ATM"), models.TextCell("200,00"), models.EmptyCell()},
		{models.TextCell("02.03.2025"), models.TextCell("EFT"), models.EmptyCell(), models.TextCell("1.500,25")},
		{models.TextCell("03.03.2025"), models.TextCell("Bad"), models.TextCell("abc"), models.EmptyCell()},
	})

	res := Standardize(table, nil)
	require.Len(t, res.Transactions, 3)
	assert.True(t, res.Transactions[0].Amount.Decimal.Equal(dec("-200")))
	assert.True(t, res.Transactions[1].Amount.Decimal.Equal(dec("1500.25")))
	assert.True(t, res.Transactions[2].Amount.Valid)
	assert.True(t, res.Transactions[2].Amount.Decimal.IsZero())
	assert.Equal(t, 1, res.Stats.NumericFailures)
}

func TestStandardize_ProbesHeaderRow(t *testing.T) {
	table := models.NewRawTable(nil, [][]models.Cell{
		text("Hesap Hareketleri", "", ""),
		text("Tarih", "Açıklama", "Tutar"),
		{models.TextCell("05.05.2025"), models.TextCell("Kira"), models.NumberCell(-3000)},
	})

	res := Standardize(table, nil)
	assert.Equal(t, 1, res.HeaderRow)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "05.05.2025", res.Transactions[0].Date)
	assert.Equal(t, "Kira", res.Transactions[0].Description)
}

func TestStandardize_RowLocalFailures(t *testing.T) {
	table := models.NewRawTable([]string{"Date", "Description", "Amount"}, [][]models.Cell{
		text("yesterday", "coffee", "n/a"),
		text("", "", ""),
		text("01/01/2025", "tea", "3.5"),
	})

	res := Standardize(table, nil)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "yesterday", res.Transactions[0].Date)
	assert.False(t, res.Transactions[0].Amount.Valid)
	assert.True(t, res.Transactions[0].Debit.IsZero())
	assert.True(t, res.Transactions[0].Credit.IsZero())
	assert.Equal(t, Stats{Rows: 2, SkippedRows: 1, NumericFailures: 1, DateFailures: 1}, res.Stats)
}

func TestBuild_NoAmountColumnIsZero(t *testing.T) {
	table := models.NewRawTable([]string{"Tarih"}, [][]models.Cell{text("01.01.2025")})
	cols := NoColumns()
	cols.Date = 0

	txs, _ := Build(table, cols)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Valid)
	assert.True(t, txs[0].Amount.Decimal.IsZero())
}

func TestBuild_DebitCreditInvariant(t *testing.T) {
	table := models.NewRawTable([]string{"Tutar"}, [][]models.Cell{
		{models.NumberCell(-10)}, {models.NumberCell(0)}, {models.NumberCell(25.75)},
	})
	cols := NoColumns()
	cols.Amount = 0

	txs, _ := Build(table, cols)
	require.Len(t, txs, 3)
	for _, tx := range txs {
		amount := tx.SignedAmount()
		assert.True(t, tx.Debit.Equal(decimal.Max(decimal.Zero, amount.Neg())))
		assert.True(t, tx.Credit.Equal(decimal.Max(decimal.Zero, amount)))
		assert.False(t, !tx.Debit.IsZero() && !tx.Credit.IsZero())
	}
}
