package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pov"
)

var fibCmd = &cobra.Command{
	Use:   "fib [n]",
	Short: "Naive Fibonacci with attribute and method tracking",
	Long: `Compute a Fibonacci number naively while a counter object records
every partial result. The --track flag selects what gets traced:

  count      writes to the Count attribute
  track      writes to the Track attribute
  all        writes to every attribute
  count-fun  calls to the Bump method`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFib,
}

func init() {
	fibCmd.Flags().StringSlice("track", nil, "what to trace (count|track|all|count-fun)")
}

// counter tallies how many partial results were produced and remembers
// the most recent one. Writes go through the attached observable so they
// can be traced.
type counter struct {
	Count int
	Track any

	obs *pov.Observable
}

func newCounter() *counter {
	c := &counter{}
	c.obs = pov.Wrap(c)
	return c
}

// Bump records one partial result.
func (c *counter) Bump(value int) {
	c.obs.Set("Count", c.Count+1)
	c.obs.Set("Track", value)
}

func naiveFibonacci(n int, c *counter) int {
	result := n
	if n > 1 {
		result = naiveFibonacci(n-1, c) + naiveFibonacci(n-2, c)
	}
	pov.Invoke(c, "Bump", result)
	return result
}

func runFib(cmd *cobra.Command, args []string) error {
	n := 5
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid n: %w", err)
		}
		n = v
	}

	selected, err := cmd.Flags().GetStringSlice("track")
	if err != nil {
		return err
	}
	for _, what := range selected {
		switch what {
		case "count":
			pov.TrackAttr("counter", "Count")
		case "track":
			pov.TrackAttr("counter", "Track")
		case "all":
			pov.TrackAttr("counter", pov.All)
		case "count-fun":
			pov.TrackMemfun(pov.Class(&counter{}), "Bump")
		default:
			return fmt.Errorf("unknown track target %q", what)
		}
	}

	c := newCounter()
	fmt.Printf("Fibonacci(%d) = %d\n", n, naiveFibonacci(n, c))
	fmt.Println("Count:", c.Count, "Track:", c.Track)
	return nil
}
