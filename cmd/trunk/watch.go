package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ltfschoen/trunk/internal/build"
	"github.com/ltfschoen/trunk/internal/config"
	"github.com/ltfschoen/trunk/internal/pipelines"
	"github.com/ltfschoen/trunk/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build the project and rebuild on source changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := createLogger(cmd)
		if err != nil {
			return err
		}
		cfg, dir, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rtc, err := cfg.RuntimeWatch(dir)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err = runWatch(ctx, rtc, logger, nil)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// runWatch runs an initial build then rebuilds on every change burst.
// onBuilt, when set, runs after each successful rebuild (the dev server
// uses it to broadcast reloads). A failed rebuild only logs: the watcher
// keeps running so the next save can fix the build.
func runWatch(ctx context.Context, rtc *config.RtcWatch, logger *slog.Logger, onBuilt func()) error {
	ignore := pipelines.NewIgnoreChan()
	builder, err := build.New(rtc.RtcBuild, logger, ignore)
	if err != nil {
		return err
	}

	watcher := watch.New(rtc, logger)
	watcher.Drain(ctx, ignore)

	rebuild := func() {
		if err := builder.Run(ctx); err != nil {
			logger.Error("build failed", "error", err)
			return
		}
		if onBuilt != nil {
			onBuilt()
		}
	}
	rebuild()

	return watcher.Run(ctx, rebuild)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
