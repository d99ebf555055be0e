package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pov"
)

var factorCmd = &cobra.Command{
	Use:   "factor [n...]",
	Short: "Prime factorization with object tracking",
	Long: `Factor a product of numbers into primes while the factor table, the
methods and a helper function are all tracked. Exponents greater than
one are themselves factored, recursively.`,
	RunE: runFactor,
}

// factors holds a prime-to-exponent table behind a dictionary proxy. An
// exponent slot holds either an int or a nested *factors once
// FactorExponents has run.
type factors struct {
	primes *pov.Dict
}

func newFactors(ns ...int) *factors {
	f := &factors{primes: pov.NewDict("factors.primes", map[int]any{})}
	for _, n := range ns {
		f.AppendFactors(n)
	}
	return f
}

// AppendFactors merges n's prime factorization into the table.
func (f *factors) AppendFactors(n int) {
	for k := 2; n > 1; k++ {
		for n%k == 0 {
			n /= k
			f.primes.SetDefault(k, 0)
			f.primes.Set(k, f.primes.Get(k, 0).(int)+1)
		}
	}
}

func (f *factors) sortedPrimes() []int {
	m := f.primes.Unwrap().(map[int]any)
	primes := make([]int, 0, len(m))
	for p := range m {
		primes = append(primes, p)
	}
	sort.Ints(primes)
	return primes
}

// FactorExponents replaces every exponent greater than one with its own
// factorization, recursing when asked.
func (f *factors) FactorExponents(recursive bool) {
	for _, p := range f.sortedPrimes() {
		switch e := f.primes.Get(p, nil).(type) {
		case *factors:
			if recursive {
				e.FactorExponents(true)
			}
		case int:
			if e == 1 {
				continue
			}
			sub := newFactors(e)
			f.primes.Set(p, sub)
			if recursive {
				sub.FactorExponents(true)
			}
		}
	}
}

func (f *factors) String() string {
	primes := f.sortedPrimes()
	if len(primes) == 0 {
		return "1"
	}
	terms := make([]string, len(primes))
	for i, p := range primes {
		terms[i] = fmt.Sprintf("%d**%v", p, f.primes.Get(p, nil))
	}
	return "(" + strings.Join(terms, " * ") + ")"
}

// Value multiplies the factorization back out.
func (f *factors) Value() int {
	v := 1
	for _, p := range f.sortedPrimes() {
		switch e := f.primes.Get(p, nil).(type) {
		case int:
			for i := 0; i < e; i++ {
				v *= p
			}
		case *factors:
			n := e.Value()
			for i := 0; i < n; i++ {
				v *= p
			}
		}
	}
	return v
}

func runFactor(cmd *cobra.Command, args []string) error {
	ns := []int{16, 625, 39, 39}
	if len(args) > 0 {
		ns = ns[:0]
		for _, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("invalid number %q: %w", a, err)
			}
			ns = append(ns, n)
		}
	}

	pov.TrackMemfun(pov.Class(&factors{}), "FactorExponents")

	about := pov.TrackFunc(func() string {
		return "This command factorises a product-list of numbers."
	}, pov.WithName("about"))

	fmt.Println("About:", about())

	fac := newFactors(ns...)
	fmt.Println("Factors:", fac)

	pov.Invoke(fac, "FactorExponents", true)
	fmt.Println("Factored, recursively:", fac)

	fmt.Println("Value:", fac.Value())
	return nil
}
