package common_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/ekstre-csv/cmd/common"
	"fjacquet/ekstre-csv/internal/config"
	"fjacquet/ekstre-csv/internal/container"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const garantiCSV = "Hesap Hareketleri;;;\n" +
	";;;\n" +
	"Tarih;Açıklama;Tutar;Bakiye\n" +
	"15.06.2025;MARKET ALIŞVERİŞİ;-120,50;879,50\n" +
	"16.06.2025;MAAŞ;1.000,00;1.879,50\n"

func newContainer(t *testing.T) (*container.Container, string) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("EKSTRE_DATABASE_URL", "")
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"registry:\n  file: "+filepath.Join(dir, "formats.yaml")+"\n"+
			"admin:\n  file: "+filepath.Join(dir, "admin.yaml")+"\n"+
			"batch:\n  workers: 2\n"), 0600))

	cfg, err := config.InitializeConfigFrom(cfgFile)
	require.NoError(t, err)
	c, err := container.NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, dir
}

func TestProcessFile(t *testing.T) {
	tests := []struct {
		name        string
		noHistory   bool
		statements  int
		conversions int
	}{
		{"records history", false, 1, 1},
		{"without history", true, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, dir := newContainer(t)
			input := filepath.Join(dir, "garanti_ekstre.csv")
			require.NoError(t, os.WriteFile(input, []byte(garantiCSV), 0600))

			opts := common.ProcessOptions{Output: c.OutputOptions(), NoHistory: tt.noHistory}
			res, out, err := common.ProcessFile(context.Background(), c, input, "", opts)
			require.NoError(t, err)

			assert.Equal(t, filepath.Join(dir, "garanti_ekstre_ledger.csv"), out)
			assert.FileExists(t, out)
			assert.Equal(t, "garanti", res.Diagnostics.FormatID)

			stats, err := c.GetHistory().Stats(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.statements, stats.TotalStatements)
			assert.Equal(t, tt.conversions, stats.TotalConversions)
		})
	}
}

func TestProcessFile_ExplicitOutputAndCanonical(t *testing.T) {
	c, dir := newContainer(t)
	input := filepath.Join(dir, "garanti_ekstre.csv")
	require.NoError(t, os.WriteFile(input, []byte(garantiCSV), 0600))

	o := c.OutputOptions()
	o.Format = pipeline.OutputXLSX
	o.Canonical = true
	target := filepath.Join(dir, "out", "ledger_ledger.xlsx")

	_, out, err := common.ProcessFile(context.Background(), c, input, target, common.ProcessOptions{Output: o})
	require.NoError(t, err)
	assert.Equal(t, target, out)
	assert.FileExists(t, target)
	assert.FileExists(t, filepath.Join(dir, "out", "ledger_canonical.csv"))
}

func TestProcessFile_Errors(t *testing.T) {
	c, dir := newContainer(t)

	_, _, err := common.ProcessFile(context.Background(), nil, "x.csv", "", common.ProcessOptions{})
	assert.ErrorIs(t, err, common.ErrNoContainer)

	_, _, err = common.ProcessFile(context.Background(), c, "", "", common.ProcessOptions{})
	assert.EqualError(t, err, "input file must be specified")

	_, _, err = common.ProcessFile(context.Background(), c, filepath.Join(dir, "missing.csv"), "", common.ProcessOptions{Output: c.OutputOptions()})
	assert.Error(t, err)

	_, _, err = common.ProcessFile(context.Background(), c, filepath.Join(dir, "missing.csv"), "", common.ProcessOptions{Output: c.OutputOptions(), NoHistory: true})
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	c, _ := newContainer(t)
	var buf bytes.Buffer

	require.NoError(t, common.WriteReport(&buf, c, pipeline.Diagnostics{FormatID: "garanti", HeaderRow: 2}, "text"))
	assert.Contains(t, buf.String(), "Format:     garanti")

	assert.Error(t, common.WriteReport(&buf, c, pipeline.Diagnostics{}, "xml"))
	assert.ErrorIs(t, common.WriteReport(&buf, nil, nil, "text"), common.ErrNoContainer)
}
