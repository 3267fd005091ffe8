package serve

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
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

func TestServeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "serve", Cmd.Use)
	assert.Contains(t, Cmd.Long, "SIGTERM")
	assert.NotNil(t, Cmd.Flags().Lookup("addr"))
}

func TestNewServer(t *testing.T) {
	_, c, _ := setup(t)
	srv := NewServer(c)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "garanti")
}

func TestServeCommand_StopsOnCancel(t *testing.T) {
	_, _, _ = setup(t)
	addr = "127.0.0.1:0"
	t.Cleanup(func() { addr = "" })

	ctx, cancel := context.WithCancel(context.Background())
	Cmd.SetContext(ctx)
	cancel()

	assert.NoError(t, serveFunc(Cmd, nil))
}
