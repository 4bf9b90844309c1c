package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ltfschoen/trunk/internal/config"
	"github.com/ltfschoen/trunk/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "trunk",
	Short: "Trunk is a bundler for static web applications",
	Long:  `Trunk scans asset declarations out of your index.html, builds each asset concurrently, and writes a finalized document plus its assets into the dist dir.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "Trunk.toml", "Path to the project config file")
	rootCmd.PersistentFlags().String("log", "info", "Log level: debug, info, warn or error")
}

// loadConfig reads the project file named by the --config flag and returns
// it together with the directory relative paths resolve against. Only the
// default path may be absent; an explicitly passed path must exist, so a
// typo never degrades silently into the default config.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); err != nil {
			return nil, "", fmt.Errorf("config file %q is not accessible: %w", path, err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(path), nil
}

// createLogger configures the application logger from the --log flag.
func createLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelStr, _ := cmd.Flags().GetString("log")
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}
