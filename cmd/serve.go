package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FutingLiang/dmv-routes-frontend/internal/api"
	"github.com/FutingLiang/dmv-routes-frontend/internal/config"
	"github.com/FutingLiang/dmv-routes-frontend/internal/resilience"
	"github.com/FutingLiang/dmv-routes-frontend/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the statistics API",
	Long:  "Serves the route listing, statistics and xlsx export endpoints over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, "serve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := preflight(ctx, st, cfg); err != nil {
			return err
		}

		router := buildRouter(st, cfg.Server)
		return startServer(ctx, router, cfg.Server.Host, resolvePort(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// preflight checks database connectivity unless server.skip_db_check is set.
func preflight(ctx context.Context, p pinger, c *config.Config) error {
	log := zap.L().With(zap.String("component", "serve"))
	dsn := config.RedactDSN(c.Database.URL)
	if c.Server.SkipDBCheck {
		log.Warn("skipping database preflight")
		return nil
	}
	retry := resilience.FromSettings(c.Database.ConnectAttempts, c.Database.ConnectBackoffMs)
	retry.OnRetry = resilience.RetryLogger("serve", "preflight")
	if err := resilience.Do(ctx, retry, p.Ping); err != nil {
		log.Error("database preflight failed", zap.String("dsn", dsn), zap.Error(err))
		return eris.Wrapf(err, "serve: database preflight failed for %s", dsn)
	}
	log.Info("database reachable", zap.String("dsn", dsn))
	return nil
}

func buildRouter(st api.Reader, sc config.ServerConfig) http.Handler {
	return api.NewRouter(st, api.Options{
		CORSOrigins:    sc.CORSOrigins,
		RequestTimeout: time.Duration(sc.RequestTimeoutSecs) * time.Second,
		ExportRPS:      sc.ExportRPS,
		ExportBurst:    sc.ExportBurst,
	})
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, host string, port int) error {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		zap.L().Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

var _ api.Reader = (*store.PostgresStore)(nil)
