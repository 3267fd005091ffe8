package history

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"fjacquet/ekstre-csv/internal/ledger"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/parsererror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(name string, uploaded time.Time) *Statement {
	txs := []models.CanonicalTransaction{
		models.NewTransaction("15.06.2025", "BONUS KART", decimal.NewNullDecimal(decimal.RequireFromString("-120.5"))),
	}
	return &Statement{
		UploadDate: uploaded,
		FileName:   name,
		BankType:   "garanti",
		Original: models.NewRawTable([]string{"Tarih", "Açıklama", "Tutar"}, [][]models.Cell{
			{models.TextCell("15/06/2025"), models.TextCell("BONUS KART"), models.NumberCell(-120.5)},
		}),
		Transactions: txs,
		Ledger:       ledger.Transcode(txs),
	}
}

// exerciseStore runs the behaviour every Store implementation shares.
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	require.NoError(t, store.Purge(ctx))

	now := time.Now().UTC().Truncate(time.Second)
	old := fixture("old.csv", now.Add(-100*24*time.Hour))
	fresh := fixture("fresh.csv", now.Add(-time.Hour))
	newest := fixture("newest.xlsx", time.Time{})

	for _, s := range []*Statement{old, fresh, newest} {
		id, err := store.SaveStatement(ctx, s)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
		assert.Equal(t, s.ID, id)
	}
	assert.False(t, newest.UploadDate.IsZero())

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "newest.xlsx", recent[0].FileName)
	assert.Equal(t, "fresh.csv", recent[1].FileName)

	got, err := store.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "garanti", got.BankType)
	assert.Equal(t, fresh.Original.Columns, got.Original.Columns)
	require.Len(t, got.Transactions, 1)
	assert.True(t, got.Transactions[0].Amount.Decimal.Equal(decimal.RequireFromString("-120.5")))
	require.Len(t, got.Ledger, 3)
	assert.Equal(t, 1, got.Ledger.SeparatorIndex())
	assert.Equal(t, "120,50", got.Ledger[0].Credit)

	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, parsererror.ErrNotFound)

	for _, s := range []*Statement{old, fresh} {
		_, err := store.SaveConversion(ctx, &Conversion{StatementID: s.ID, Format: "csv", Settings: map[string]string{"delimiter": ";"}})
		require.NoError(t, err)
	}
	_, err = store.SaveConversion(ctx, &Conversion{StatementID: uuid.New(), Format: "csv"})
	assert.ErrorIs(t, err, parsererror.ErrNotFound)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalStatements: 3, TotalConversions: 2, RecentStatements: 2}, stats)

	removed, err := store.CleanOlderThan(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalStatements: 2, TotalConversions: 1, RecentStatements: 2}, stats)

	require.NoError(t, store.Purge(ctx))
	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("EKSTRE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("EKSTRE_TEST_DATABASE_URL not set")
	}
	store, err := NewPostgresStore(context.Background(), PoolConfig{URL: url, MaxConns: 2}, nil)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	s := fixture("a.csv", time.Time{})
	id, err := store.SaveStatement(context.Background(), s)
	require.NoError(t, err)

	s.FileName = "changed.csv"
	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "a.csv", got.FileName)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.SaveStatement(ctx, fixture("c.csv", time.Time{}))
			assert.NoError(t, err)
			_, err = store.Recent(ctx, 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.TotalStatements)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Recent(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLedgerRoundTripKeepsSeparator(t *testing.T) {
	table := ledger.Transcode(fixture("a.csv", time.Time{}).Transactions)
	back := decodeLedger(encodeLedger(table))
	assert.Equal(t, table, back)
}
