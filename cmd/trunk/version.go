package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ltfschoen/trunk"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of trunk",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trunk version %s\n", trunk.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
