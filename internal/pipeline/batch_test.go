package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/ekstre-csv/internal/history"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/tableio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDirectory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "ledgers")
	writeTestFile(t, in, "garanti_ekstre.csv", garantiCSV)
	writeTestFile(t, in, "statement.csv", genericCSV)
	writeTestFile(t, in, "broken.xlsx", "not a workbook")
	writeTestFile(t, in, "notes.md", "# ignored")

	store := history.NewMemoryStore()
	logger := logging.NewMockLogger()
	bp := NewBatchProcessor(newConverter(t, logger, WithHistory(store)), 2, logger)

	summary, err := bp.ProcessDirectory(context.Background(), in, out, DefaultOutputOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Unrecognized)

	require.Len(t, summary.Files, 3)
	assert.Equal(t, filepath.Join(in, "broken.xlsx"), summary.Files[0].Path)
	assert.NotEmpty(t, summary.Files[0].Error)
	assert.Equal(t, "garanti", summary.Files[1].Format)
	assert.Equal(t, 2, summary.Files[1].Rows)
	assert.Equal(t, "unknown", summary.Files[2].Format)

	ledger, err := os.ReadFile(filepath.Join(out, "garanti_ekstre_ledger.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(ledger, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(ledger), "*** SARI AYIRICI ÇIZGI ***")
	assert.FileExists(t, filepath.Join(out, "statement_ledger.csv"))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStatements)
	assert.Equal(t, 2, stats.TotalConversions)

	assert.True(t, logger.HasEntry("WARN", "Failed to convert file"))
	assert.True(t, logger.HasEntry("INFO", "Batch conversion completed"))
}

func TestProcessDirectory_XLSXAndCanonical(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTestFile(t, in, "garanti_ekstre.csv", garantiCSV)

	o := DefaultOutputOptions()
	o.Format = OutputXLSX
	o.Canonical = true

	bp := NewBatchProcessor(newConverter(t, nil), 0, nil)
	assert.GreaterOrEqual(t, bp.Workers(), 1)
	assert.Equal(t, 3, bp.WithWorkers(3).Workers())

	summary, err := bp.ProcessDirectory(context.Background(), in, out, o)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)

	ledgerPath := filepath.Join(out, "garanti_ekstre_ledger.xlsx")
	assert.Equal(t, ledgerPath, summary.Files[0].Output)

	f, err := os.Open(ledgerPath)
	require.NoError(t, err)
	defer f.Close()
	kind, err := tableio.Detect(ledgerPath, readHead(t, f))
	require.NoError(t, err)
	assert.Equal(t, tableio.KindXLSX, kind)

	assert.FileExists(t, filepath.Join(out, "garanti_ekstre_canonical.csv"))
}

func readHead(t *testing.T, f *os.File) []byte {
	t.Helper()
	buf := make([]byte, 8)
	n, err := f.Read(buf)
	require.NoError(t, err)
	return buf[:n]
}

func TestProcessDirectory_MissingDir(t *testing.T) {
	bp := NewBatchProcessor(newConverter(t, nil), 1, nil)
	_, err := bp.ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), DefaultOutputOptions())
	assert.Error(t, err)
}

func TestProcessFiles_PreservesOrder(t *testing.T) {
	paths := make([]string, 25)
	for i := range paths {
		paths[i] = fmt.Sprintf("file-%02d.csv", i)
	}

	bp := NewBatchProcessor(nil, 4, nil)
	results := bp.ProcessFiles(context.Background(), paths, func(_ context.Context, p string) FileResult {
		if p == "file-07.csv" {
			return FileResult{Path: p, Err: errors.New("boom")}
		}
		return FileResult{Path: p, Output: p + ".out"}
	})

	require.Len(t, results, len(paths))
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
		if i == 7 {
			assert.EqualError(t, r.Err, "boom")
		} else {
			assert.NoError(t, r.Err)
			assert.Equal(t, paths[i]+".out", r.Output)
		}
	}
}

func TestProcessFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := []string{"a.csv", "b.csv", "c.csv"}
	results := NewBatchProcessor(nil, 2, nil).ProcessFiles(ctx, paths, func(_ context.Context, p string) FileResult {
		return FileResult{Path: p}
	})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
	}
}

func TestProcessFiles_Empty(t *testing.T) {
	assert.Empty(t, NewBatchProcessor(nil, 2, nil).ProcessFiles(context.Background(), nil, nil))
}

func TestSummarize(t *testing.T) {
	results := []FileResult{
		{Path: "a.csv", Result: &Result{Diagnostics: Diagnostics{FormatID: "garanti", Route: RouteBankParser, Rows: 3, DateFailures: 1}}},
		{Path: "b.csv", Result: &Result{Diagnostics: Diagnostics{FormatID: "unknown", Route: RouteFallback}}},
		{Path: "c.xls", Err: errors.New("corrupt")},
	}

	s := Summarize(results)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Unrecognized)
	assert.Equal(t, FileReport{Path: "a.csv", Format: "garanti", Rows: 3, Failures: 1}, s.Files[0])
	assert.Equal(t, "corrupt", s.Files[2].Error)
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		input  string
		format string
		want   string
	}{
		{"/in/garanti.xlsx", OutputXLSX, filepath.Join("out", "garanti_ledger.xlsx")},
		{"/in/ekstre.2025.csv", OutputCSV, filepath.Join("out", "ekstre.2025_ledger.csv")},
		{"ziraat.xls", "", filepath.Join("out", "ziraat_ledger.csv")},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, LedgerPath("out", tt.input, OutputOptions{Format: tt.format}))
		})
	}
	assert.Equal(t, filepath.Join("out", "a_canonical.csv"), CanonicalPath(filepath.Join("out", "a_ledger.csv")))
}

func TestWriteLedger_UnknownFormat(t *testing.T) {
	err := WriteLedger(&bytes.Buffer{}, nil, OutputOptions{Format: "pdf"})
	assert.EqualError(t, err, "unsupported output format: pdf")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", DefaultOutputOptions().ContentType())
	assert.Contains(t, OutputOptions{Format: OutputXLSX}.ContentType(), "spreadsheetml")
}
