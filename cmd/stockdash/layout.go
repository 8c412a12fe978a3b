package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stockdash/internal/cache"
	"stockdash/internal/layout"
	"stockdash/internal/screens"
	"stockdash/internal/ui/textutil"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Inspect or reset the locally cached layouts",
}

var layoutShowCmd = &cobra.Command{
	Use:   "show [KEY]",
	Short: "Print the cached layout of every screen, or of KEY",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLayoutShow,
}

var layoutResetCmd = &cobra.Command{
	Use:   "reset KEY",
	Short: "Reset the cached layout of KEY to its defaults",
	Long: `Reset the cached layout of KEY to its defaults.

A running dashboard (or "stockdash sync") picks the change up from the cache
and saves it to the server with its next sync. Otherwise the next login
restores the layout saved on the server.`,
	Args: cobra.ExactArgs(1),
	RunE: runLayoutReset,
}

func init() {
	layoutCmd.AddCommand(layoutShowCmd, layoutResetCmd)
	rootCmd.AddCommand(layoutCmd)
}

func openCache() (*cache.FileCache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Client.CacheDir)
}

func runLayoutShow(cmd *cobra.Command, args []string) error {
	fc, err := openCache()
	if err != nil {
		return err
	}
	keys := screens.Keys()
	if len(args) == 1 {
		if _, ok := screens.Lookup(args[0]); !ok {
			return fmt.Errorf("unknown layout key %q", args[0])
		}
		keys = args
	}
	for i, key := range keys {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if err := printLayout(cmd.OutOrStdout(), fc, key); err != nil {
			return err
		}
	}
	return nil
}

func printLayout(w io.Writer, c layout.Cache, key string) error {
	s, _ := screens.Lookup(key)
	cached, err := layout.Load(c, key)
	source := "cached"
	if err != nil {
		source = "unreadable cache, defaults"
	} else if cached == nil {
		source = "defaults"
	}
	st := layout.Reconcile(screens.Definitions(key, nil), cached)

	fmt.Fprintf(w, "%s (%s, %s)\n", s.Tab, key, source)
	for i, id := range st.Order {
		mark := "shown"
		if !st.IsVisible(id) {
			mark = "hidden"
		}
		fmt.Fprintf(w, "  %d. %s %s %s\n", i+1, textutil.PadRight(screens.Label(key, id), 22), textutil.PadRight(id, 18), mark)
	}
	return nil
}

func runLayoutReset(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, ok := screens.Lookup(key); !ok {
		return fmt.Errorf("unknown layout key %q", key)
	}
	fc, err := openCache()
	if err != nil {
		return err
	}
	if err := layout.Persist(fc, key, screens.Defaults(key)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", key)
	return nil
}
