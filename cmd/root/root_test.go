package root_test

import (
	"context"
	"path/filepath"
	"testing"

	"fjacquet/ekstre-csv/cmd/root"
	"fjacquet/ekstre-csv/internal/config"
	"fjacquet/ekstre-csv/internal/container"
	"fjacquet/ekstre-csv/internal/logging"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	root.Init()
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "ekstre-csv", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "Turkish bank statements")
	assert.Contains(t, root.Cmd.Long, "two-section ledger")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRun)
}

func TestRootCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
	}{
		{"input", "i"},
		{"output", "o"},
		{"config", ""},
		{"log-level", ""},
		{"log-format", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := root.Cmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestRootCommand_Run(t *testing.T) {
	assert.NotPanics(t, func() {
		root.Cmd.Run(&cobra.Command{}, []string{})
	})
}

func TestSetContainer(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Registry.File = filepath.Join(dir, "formats.yaml")
	cfg.Admin.File = filepath.Join(dir, "admin.yaml")
	cfg.Output.Format = "csv"
	cfg.Output.Delimiter = ";"
	cfg.Batch.Workers = 1

	logger := logging.NewMockLogger()
	c, err := container.NewContainerWithLogger(context.Background(), cfg, logger)
	require.NoError(t, err)

	root.SetContainer(c)
	t.Cleanup(func() { root.SetContainer(nil) })

	assert.Same(t, c, root.GetContainer())
	assert.Same(t, cfg, root.GetConfig())
	assert.Equal(t, logger, root.Log)

	root.Cmd.PersistentPostRun(root.Cmd, nil)
	assert.Nil(t, root.GetContainer())
}
