package admin

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/ekstre-csv/cmd/root"
	"fjacquet/ekstre-csv/internal/config"
	"fjacquet/ekstre-csv/internal/container"
	"fjacquet/ekstre-csv/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (string, *container.Container, *bytes.Buffer) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("EKSTRE_DATABASE_URL", "")
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"registry:\n  file: "+filepath.Join(dir, "formats.yaml")+"\n"+
			"admin:\n  file: "+filepath.Join(dir, "admin.yaml")+"\n"), 0600))
	cfg, err := config.InitializeConfigFrom(cfgFile)
	require.NoError(t, err)
	c, err := container.NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	require.NoError(t, err)

	root.SetContainer(c)
	t.Cleanup(func() {
		root.SetContainer(nil)
		_ = c.Close()
	})

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetContext(context.Background())
	return dir, c, &out
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	password, retentionDays, maxUploadMB = "", 0, 0
	for _, name := range []string{"retention-days", "max-upload-mb"} {
		settingsCmd.Flags().Lookup(name).Changed = false
	}
	Cmd.SetArgs(args)
	return Cmd.Execute()
}

func TestAdminCommand_SetPassword(t *testing.T) {
	_, c, out := setup(t)

	require.NoError(t, run(t, "set-password", "--password", "s3cret"))
	assert.Contains(t, out.String(), "Administrator password updated")
	assert.True(t, c.GetAdmin().Authenticate("s3cret"))

	Cmd.SetIn(strings.NewReader("from-stdin\n"))
	require.NoError(t, run(t, "set-password"))
	assert.True(t, c.GetAdmin().Authenticate("from-stdin"))

	Cmd.SetIn(strings.NewReader(""))
	assert.Error(t, run(t, "set-password"))
}

func TestAdminCommand_Settings(t *testing.T) {
	_, c, out := setup(t)

	require.NoError(t, run(t, "settings"))
	assert.Contains(t, out.String(), "Retention (days):   90")

	require.NoError(t, run(t, "settings", "--retention-days", "30"))
	assert.Equal(t, 30, c.GetAdmin().Settings().FileRetentionDays)
	assert.Equal(t, 10, c.GetAdmin().Settings().MaxUploadSizeMB)

	assert.Error(t, run(t, "settings", "--max-upload-mb", "0"))
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pw\n", "pw"},
		{"pw\r\n", "pw"},
		{"pw", "pw"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := readLine(strings.NewReader(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
