// Package main implements the pov CLI: demo scenarios that exercise the
// tracing library end to end.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"pov"
	"pov/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "pov",
	Short: "Print-oriented debugging demos",
	Long:  `pov runs small self-contained programs with the pov tracing library wired in, so the trace output can be inspected without writing any code.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyGlobalFlags(cmd)
	},
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(fibCmd)
	rootCmd.AddCommand(memoCmd)
	rootCmd.AddCommand(binomCmd)
	rootCmd.AddCommand(factorCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("depth", 2, "value printer recursion depth")
	rootCmd.PersistentFlags().Bool("full", false, "show unexported struct fields")
	rootCmd.PersistentFlags().Int("stack", -1, "stack frames per block (-1 unlimited, 0 off)")
	rootCmd.PersistentFlags().String("out", "-", "trace sink (- for stderr)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyGlobalFlags reconfigures the library from the persistent flags.
// When nothing changed the environment-derived defaults stay in force.
func applyGlobalFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	changed := false
	for _, name := range []string{"color", "depth", "full", "stack", "out"} {
		if flags.Changed(name) {
			changed = true
		}
	}
	if !changed {
		return
	}

	cfg := pov.DefaultConfig()
	cfg.Color, _ = flags.GetString("color")
	cfg.Depth, _ = flags.GetInt("depth")
	cfg.Full, _ = flags.GetBool("full")
	cfg.StackDepth, _ = flags.GetInt("stack")
	cfg.OutputPath, _ = flags.GetString("out")
	pov.Init(cfg)
}
