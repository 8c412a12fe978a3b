package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockdash/internal/api"
	"stockdash/internal/cache"
	"stockdash/internal/logging"
	"stockdash/internal/registry"
	"stockdash/internal/telemetry"
	"stockdash/internal/uisync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Keep the local layout cache in sync with the server",
	Long: `Log in, replace the cached layouts with the ones saved on the server, then
save every layout change written to the cache (by a dashboard, by
"stockdash layout reset" or by a push) on the configured sync interval.

Runs until interrupted; pending changes are saved before it exits.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.Console(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Setup(ctx, "stockdash-sync")
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer shutdownTracing(tp, log)

	fc, err := cache.New(cfg.Client.CacheDir)
	if err != nil {
		return err
	}

	client := api.New(cfg.Client.APIURL, api.WithLogger(log))
	loginCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	_, err = client.Login(loginCtx, cfg.Client.Login, cfg.Client.Password)
	cancel()
	if err != nil {
		return fmt.Errorf("login as %s: %w", cfg.Client.Login, err)
	}

	reg := registry.New()
	coord := uisync.New(reg, client,
		uisync.WithCache(fc),
		uisync.WithLogger(log),
		uisync.WithInterval(cfg.Client.SyncIntervalDuration()),
	)
	log.Info().Str("api", cfg.Client.APIURL).Dur("interval", coord.Interval()).Msg("syncing layouts")
	return syncLoop(ctx, coord, fc, reg, log)
}

// syncLoop hydrates, watches the cache for edits and flushes them until ctx
// is done. A failed hydration is logged and the loop still runs.
func syncLoop(ctx context.Context, coord *uisync.Coordinator, fc *cache.FileCache, reg *registry.Registry, log zerolog.Logger) error {
	if err := coord.SetAuthenticated(ctx, true); err != nil {
		log.Warn().Err(err).Msg("hydrate")
	}
	watchCache(ctx, fc, reg, log)

	err := coord.Run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, ferr := coord.Tick(flushCtx); ferr != nil {
		log.Warn().Err(ferr).Msg("final flush")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
