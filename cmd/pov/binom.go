package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pov"
)

var binomCmd = &cobra.Command{
	Use:   "binom [n] [k]",
	Short: "Binomial coefficient through a tracked function",
	Long: `Compute a binomial coefficient with a memoized recursion that runs
entirely through a traced function wrapper, so every call and return
shows up as a nested block.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBinom,
}

func runBinom(cmd *cobra.Command, args []string) error {
	n, k := 10, 5
	var err error
	if len(args) >= 1 {
		if n, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid n: %w", err)
		}
	}
	if len(args) == 2 {
		if k, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid k: %w", err)
		}
	}

	memo := map[[2]int]int{}
	var binom func(n, k int) int
	binom = pov.TrackFunc(func(n, k int) int {
		if k < 0 || k > n {
			return 0
		}
		if k == 0 || k == n {
			return 1
		}
		if v, ok := memo[[2]int{n, k}]; ok {
			return v
		}
		// Recursion goes through the wrapper, so inner calls nest.
		v := binom(n-1, k-1) + binom(n-1, k)
		memo[[2]int{n, k}] = v
		return v
	}, pov.WithName("binom"))

	fmt.Printf("%d choose %d = %d\n", n, k, binom(n, k))
	return nil
}
