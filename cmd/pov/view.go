package main

import (
	"github.com/spf13/cobra"

	"pov"
)

var viewCmd = &cobra.Command{
	Use:   "view [expr...]",
	Short: "Evaluate expressions against a sample scope",
	Long: `Evaluate the given expressions against a small built-in variable
scope and display each result as a trace line. With --check the
expressions are asserted instead, ending with a pass/fail summary.
Without arguments a default set of expressions runs.`,
	RunE: runView,
}

var viewCheck bool

func init() {
	viewCmd.Flags().BoolVar(&viewCheck, "check", false, "assert the expressions instead of displaying them")
}

func runView(cmd *cobra.Command, args []string) error {
	type point struct{ X, Y int }
	vars := pov.Vars{
		"n":      7,
		"pi":     3.14159,
		"name":   "ada",
		"origin": point{},
		"p":      point{X: 3, Y: 4},
		"primes": []any{2, 3, 5, 7},
		"table":  map[string]any{"a": 1, "b": 2},
	}

	exprs := args
	if len(exprs) == 0 {
		exprs = []string{
			"n * n + 1",
			"name + \"!\"",
			"p.X + p.Y",
			"primes[2]",
			"table.a < table.b",
			"len(primes)",
		}
	}

	items := make([]any, len(exprs))
	for i, e := range exprs {
		items[i] = e
	}

	if viewCheck {
		pov.Check(vars, items...)
		return nil
	}
	pov.ViewAs("Scope", vars, items...)
	return nil
}
