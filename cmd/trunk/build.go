package main

import (
	"github.com/spf13/cobra"

	"github.com/ltfschoen/trunk/internal/build"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the project once",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := createLogger(cmd)
		if err != nil {
			return err
		}
		cfg, dir, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if release, _ := cmd.Flags().GetBool("release"); release {
			cfg.Build.Release = true
		}

		rtc, err := cfg.RuntimeBuild(dir)
		if err != nil {
			return err
		}
		builder, err := build.New(rtc, logger, nil)
		if err != nil {
			return err
		}
		return builder.Run(cmd.Context())
	},
}

func init() {
	buildCmd.Flags().Bool("release", false, "Build in release mode")
	rootCmd.AddCommand(buildCmd)
}
