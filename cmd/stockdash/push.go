package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stockdash/internal/admin"
	"stockdash/internal/api"
	"stockdash/internal/cache"
	"stockdash/internal/jsonutil"
	"stockdash/internal/layout"
	"stockdash/internal/logging"
	"stockdash/internal/registry"
	"stockdash/internal/screens"
)

var pushFile string

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push layouts to every user (admin only)",
	Long: `Overwrite every user's saved layouts with the admin's.

Without --file the layouts in the local cache are pushed (the same set the
admin screen pushes). With --file, a JSON object keyed by storage key is read
instead; entries that are not layouts are skipped.

Examples:
  # Push the locally cached layouts
  stockdash push

  # Push layouts from a file
  stockdash push --file layouts.json`,
	Args: cobra.NoArgs,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVarP(&pushFile, "file", "f", "", "JSON file of layouts keyed by storage key")
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closer, err := logging.File(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fc, err := cache.New(cfg.Client.CacheDir)
	if err != nil {
		return err
	}
	reg := registry.New()
	for _, key := range screens.Keys() {
		if s, err := layout.Load(fc, key); err == nil && s != nil {
			reg.Apply(key, *s)
		}
	}

	if pushFile != "" {
		data, err := os.ReadFile(pushFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", pushFile, err)
		}
		doc, err := jsonutil.UnmarshalObject(data, pushFile)
		if err != nil {
			return err
		}
		layouts, skipped := api.DecodeLayouts(doc)
		if len(skipped) > 0 {
			sort.Strings(skipped)
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping non-layout entries: %s\n", strings.Join(skipped, ", "))
		}
		for key, s := range layouts {
			reg.Apply(key, s)
		}
	}

	client := api.New(cfg.Client.APIURL, api.WithLogger(log))
	res, err := client.Login(ctx, cfg.Client.Login, cfg.Client.Password)
	if err != nil {
		return fmt.Errorf("login as %s: %w", cfg.Client.Login, err)
	}
	if !res.User.IsAdmin {
		return fmt.Errorf("%s is not an admin", res.User.Login)
	}

	tool := admin.New(reg, fc, client, admin.WithLogger(log))
	n, err := tool.Push(ctx)
	if err != nil {
		_, msg := tool.Status()
		return fmt.Errorf("%s: %w", msg, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d layouts to %d users\n", len(tool.Keys()), n)
	return nil
}
