package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ltfschoen/trunk/internal/serve"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build, watch, and serve the project over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := createLogger(cmd)
		if err != nil {
			return err
		}
		cfg, dir, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Serve.Port = port
		}
		rtc, err := cfg.RuntimeServe(dir)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := serve.New(rtc, logger)

		watchErr := make(chan error, 1)
		go func() {
			watchErr <- runWatch(ctx, rtc.RtcWatch, logger, server.NotifyReload)
		}()

		err = server.ListenAndServe(ctx)
		if werr := <-watchErr; werr != nil && !errors.Is(werr, context.Canceled) {
			return werr
		}
		return err
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Port to serve on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
