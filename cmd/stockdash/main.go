package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stockdash/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stockdash",
	Short: "Stock dashboard with customizable panel layouts",
	Long: `stockdash is a terminal stock dashboard whose screens are built from
panels you can reorder (drag with the mouse, or enter + j/k), hide and reset.

Layouts are cached locally and synced to the stockdash server once a minute.
Admins can edit every screen's layout and push it to all users.

Run without a subcommand to open the dashboard.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.stockdash/config.toml, or $"+config.PathEnv+")")
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
