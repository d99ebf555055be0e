package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pov"
)

var memoCmd = &cobra.Command{
	Use:   "memo [n]",
	Short: "Memoized Fibonacci with container tracking",
	Long: `Compute a Fibonacci number through a memoisation table held in a
traced dictionary proxy. The --track flag selects what gets traced:

  memo  mutations of the memoisation table
  get   calls to the Get method`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMemo,
}

func init() {
	memoCmd.Flags().StringSlice("track", nil, "what to trace (memo|get)")
}

// fibonacci memoizes computed values; with tracking on the table lives
// behind a dictionary proxy so every lookup and insert is traced.
type fibonacci struct {
	plain map[int]int
	memo  *pov.Dict
}

func newFibonacci(traced bool) *fibonacci {
	m := map[int]int{0: 0, 1: 1}
	if traced {
		return &fibonacci{memo: pov.NewDict("fibonacci.memo", m)}
	}
	return &fibonacci{plain: m}
}

func (f *fibonacci) lookup(n int) (int, bool) {
	if f.memo != nil {
		v := f.memo.Get(n, nil)
		if v == nil {
			return 0, false
		}
		return v.(int), true
	}
	v, ok := f.plain[n]
	return v, ok
}

func (f *fibonacci) store(n, v int) {
	if f.memo != nil {
		f.memo.Set(n, v)
		return
	}
	f.plain[n] = v
}

// Get returns the n-th Fibonacci number, filling the table on demand.
func (f *fibonacci) Get(n int) int {
	if v, ok := f.lookup(n); ok {
		return v
	}
	a := pov.Invoke(f, "Get", n-1)[0].(int)
	b := pov.Invoke(f, "Get", n-2)[0].(int)
	f.store(n, a+b)
	return a + b
}

func runMemo(cmd *cobra.Command, args []string) error {
	n := 10
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
	trackMemo := false
	for _, what := range selected {
		switch what {
		case "memo":
			trackMemo = true
		case "get":
			pov.TrackMemfun(pov.Class(&fibonacci{}), "Get")
		default:
			return fmt.Errorf("unknown track target %q", what)
		}
	}

	f := newFibonacci(trackMemo)
	fmt.Printf("Fibonacci(%d) = %d\n", n, f.Get(n))
	return nil
}
