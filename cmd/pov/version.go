package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pov/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pov build fingerprints",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pov", version.Version)
		if version.GitCommit != "" {
			fmt.Println("commit:", version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Println("built:", version.BuildDate)
		}
	},
}
