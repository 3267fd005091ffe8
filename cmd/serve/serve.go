// Package serve runs the HTTP API
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"fjacquet/ekstre-csv/cmd/common"
	"fjacquet/ekstre-csv/cmd/root"
	"fjacquet/ekstre-csv/internal/container"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/web"

	"github.com/spf13/cobra"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API for uploads, conversion, history and format administration.

The admin endpoints under /api/admin require HTTP basic auth with the
administrator password. The server stops gracefully on SIGINT or SIGTERM.

Example:
  ekstre-csv serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address; defaults to server.addr")
}

// NewServer builds the HTTP server from the container.
func NewServer(c *container.Container) *web.Server {
	cfg := c.GetConfig()
	return web.NewServer(web.Deps{
		Converter:   c.GetConverter(),
		Registry:    c.GetRegistry(),
		History:     c.GetHistory(),
		Admin:       c.GetAdmin(),
		Output:      c.OutputOptions(),
		RecentLimit: cfg.History.RecentLimit,
		Logger:      c.GetLogger(),
	}, web.Options{
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		HandlerTimeout: cfg.Server.WriteTimeout,
	})
}

func serveFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return common.ErrNoContainer
	}
	cfg := c.GetConfig()
	listen := addr
	if listen == "" {
		listen = cfg.Server.Addr
	}
	logger := c.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := NewServer(c)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", logging.F("timeout", cfg.Server.ShutdownTimeout.String()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
