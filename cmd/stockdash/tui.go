package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockdash/internal/api"
	"stockdash/internal/cache"
	"stockdash/internal/layout"
	"stockdash/internal/logging"
	"stockdash/internal/registry"
	"stockdash/internal/telemetry"
	"stockdash/internal/ui"
	"stockdash/internal/uisync"
)

var offline bool

func init() {
	rootCmd.Flags().BoolVar(&offline, "offline", false, "do not contact the server; layouts stay in the local cache")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, closer, err := logging.File(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Setup(ctx, "stockdash")
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer shutdownTracing(tp, log)

	fc, err := cache.New(cfg.Client.CacheDir)
	if err != nil {
		return err
	}

	reg := registry.New()
	watchCache(ctx, fc, reg, log)

	deps := ui.Deps{
		Registry:  reg,
		Cache:     fc,
		Logger:    log,
		Animation: cfg.Client.AnimationDuration(),
	}
	var coord *uisync.Coordinator
	if !offline {
		client := api.New(cfg.Client.APIURL, api.WithLogger(log))
		coord = uisync.New(reg, client,
			uisync.WithCache(fc),
			uisync.WithLogger(log),
			uisync.WithInterval(cfg.Client.SyncIntervalDuration()),
		)
		deps.Client = client
		deps.Sync = coord
		deps.Login = cfg.Client.Login
		deps.Password = cfg.Client.Password
	}

	app := ui.NewAppModel(deps)
	defer app.Close()

	log.Info().Str("api", cfg.Client.APIURL).Bool("offline", offline).Msg("starting dashboard")
	p := tea.NewProgram(app.AsTeaModel(), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}

	if coord != nil {
		flushCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if _, err := coord.Tick(flushCtx); err != nil {
			log.Warn().Err(err).Msg("final flush")
		}
	}
	return nil
}

// watchCache applies layouts written to the cache by other processes (a
// second client, `stockdash layout reset` or an admin push from the CLI) to
// the registry. They count as local edits, so the next sync saves them.
func watchCache(ctx context.Context, fc *cache.FileCache, reg *registry.Registry, log zerolog.Logger) {
	onChange := func(key, value string) {
		if key == api.LMSCacheKey {
			return
		}
		s, err := layout.Decode(value)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("ignoring unreadable cache entry")
			return
		}
		if cur, ok := reg.Get(key); ok && cur.Equal(s) {
			return
		}
		reg.Update(key, s)
	}
	onErr := func(err error) {
		log.Warn().Err(err).Msg("cache watch")
	}
	if err := fc.Watch(ctx, onChange, onErr); err != nil {
		log.Warn().Err(err).Msg("cache watch disabled")
	}
}

func shutdownTracing(tp *telemetry.Provider, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown tracing")
	}
}
