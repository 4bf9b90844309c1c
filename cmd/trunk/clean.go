package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the dist dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rtc, err := cfg.RuntimeBuild(dir)
		if err != nil {
			return err
		}
		if err := os.RemoveAll(rtc.Dist); err != nil {
			return fmt.Errorf("error removing dist dir %q: %w", rtc.Dist, err)
		}
		if cargo, _ := cmd.Flags().GetBool("cargo"); cargo {
			clean := exec.CommandContext(cmd.Context(), "cargo", "clean")
			clean.Dir = rtc.TargetDir
			if out, err := clean.CombinedOutput(); err != nil {
				return fmt.Errorf("cargo clean failed: %w: %s", err, out)
			}
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().Bool("cargo", false, "Also run cargo clean in the project dir")
	rootCmd.AddCommand(cleanCmd)
}
