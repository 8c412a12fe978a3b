package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stockdash/internal/logging"
	"stockdash/internal/metrics"
	"stockdash/internal/server"
	"stockdash/internal/store"
	"stockdash/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the layout sync API server",
	Long: `Run the HTTP API the dashboard syncs layouts with.

Users and saved layouts live in SQLite (default) or Postgres. The demo
accounts admin/admin and demo/demo are created on first start.

Examples:
  # Serve on the configured port with the SQLite database
  stockdash serve

  # Use Postgres
  STOCKDASH_DB_DRIVER=postgres STOCKDASH_DB="postgres://..." stockdash serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.Console(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Setup(ctx, "stockdash-server")
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer shutdownTracing(tp, log)

	db, err := store.Open(cfg.Server.DBDriver, cfg.Server.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = db.Init(initCtx, store.DefaultSeeds)
	cancel()
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	lms := cfg.LMS
	srv := server.New(db, server.Options{
		ReadTimeout:       cfg.Server.ReadTimeoutDuration(),
		WriteTimeout:      cfg.Server.WriteTimeoutDuration(),
		PushRatePerMinute: cfg.Server.PushRatePerMinute,
		LMS:               &lms,
		Metrics:           metrics.New(),
		Logger:            log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
