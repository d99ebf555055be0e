package pov

import (
	"fmt"
	"io"
	"os"

	"pov/internal/block"
	"pov/internal/expr"
	"pov/internal/shell"
	"pov/internal/style"
	"pov/internal/valuefmt"
)

// Vars is the explicit variable context that view, check, nop and the
// interactive session evaluate expressions against. Call sites build it
// from whatever locals they want visible; there is no implicit access to
// the caller's scope.
type Vars map[string]any

// Named pairs a display name with a literal value, for view items that
// should not go through the expression evaluator.
type Named struct {
	Name  string
	Value any
}

// N is shorthand for a Named value.
func N(name string, value any) Named {
	return Named{Name: name, Value: value}
}

// POV is a chainable front end carrying per-call rendering settings
// snapshotted from the process defaults.
type POV struct {
	depth      int
	full       bool
	stackDepth int
}

// New snapshots the current defaults into a builder.
func New() *POV {
	ensureInit()
	return &POV{
		depth:      global.cfg.Depth,
		full:       global.cfg.Full,
		stackDepth: global.sess.StackDepth(),
	}
}

// Detail sets the value-rendering depth for this builder. -1 means
// unlimited, which is not safe against cyclic structures.
func (p *POV) Detail(depth int) *POV {
	p.depth = depth
	return p
}

// Full controls whether unexported struct fields are rendered.
func (p *POV) Full(full bool) *POV {
	p.full = full
	return p
}

// Stack bounds the captured stack for this builder's blocks; 0 disables
// stack lines, -1 captures without bound.
func (p *POV) Stack(depth int) *POV {
	p.stackDepth = depth
	return p
}

// PrintTo redirects the process-wide output stream.
func (p *POV) PrintTo(w io.Writer) *POV {
	PrintTo(w)
	return p
}

// Globally commits this builder's depth, full and stack settings to the
// process-wide defaults.
func (p *POV) Globally() *POV {
	ensureInit()
	global.cfg.Depth = p.depth
	global.cfg.Full = p.full
	global.cfg.StackDepth = p.stackDepth
	global.sess.SetStackDepth(p.stackDepth)
	return p
}

func (p *POV) value(v any) style.Fragment {
	return valuefmt.Print(v, p.depth, p.full)
}

func (p *POV) open(cat style.Category) *block.Block {
	return global.sess.OpenDepth(cat, p.stackDepth)
}

func (p *POV) log(cat style.Category, args []any) *POV {
	if disabled() {
		return p
	}
	b := p.open(cat)
	b.Print(args...)
	b.Close()
	return p
}

// Print logs an ordinary output line in Norm style, so plain prints of
// the program under observation line up with its trace. With KeepPrint
// set the line goes to the sink unformatted.
func (p *POV) Print(args ...any) *POV {
	if disabled() {
		return p
	}
	if global.cfg.KeepPrint {
		fmt.Fprintln(global.sess.Output(), args...)
		return p
	}
	return p.log(style.Norm, args)
}

// Info logs a plain informational line.
func (p *POV) Info(args ...any) *POV { return p.log(style.Info, args) }

// OK logs a success line.
func (p *POV) OK(args ...any) *POV { return p.log(style.OK, args) }

// Bad logs a failure line.
func (p *POV) Bad(args ...any) *POV { return p.log(style.Bad, args) }

// Warn logs a warning line.
func (p *POV) Warn(args ...any) *POV { return p.log(style.Warn, args) }

// View evaluates and displays each item against vars. String items are
// expressions; evaluation failures render inline and never propagate.
// Named items and other values display as-is.
func (p *POV) View(vars Vars, items ...any) *POV {
	return p.view("", vars, items)
}

// ViewAs is View with a leading title line.
func (p *POV) ViewAs(title string, vars Vars, items ...any) *POV {
	return p.view(title, vars, items)
}

func (p *POV) view(title string, vars Vars, items []any) *POV {
	if disabled() {
		return p
	}
	b := p.open(style.OK)
	defer b.Close()
	if title != "" {
		b.Print(title + ":")
	}
	for _, item := range items {
		switch it := item.(type) {
		case string:
			val, err := expr.Eval(it, vars)
			if err != nil {
				b.Append(style.Bad, style.Styled(style.Expr, it), "><", style.Exception(err))
				continue
			}
			b.Append(style.OK, style.Styled(style.Expr, it), "=>", p.value(val))
		case Named:
			b.Append(style.OK, style.Styled(style.Var, it.Name), "=>", p.value(it.Value))
		default:
			b.Append(style.OK, style.Styled(style.Var, "$"), "=>", p.value(item))
		}
	}
	return p
}

// CheckOpt configures Check failure handling.
type CheckOpt struct {
	// ExitOnFailure terminates the process with status 1 after rendering.
	ExitOnFailure bool
	// InteractOnFailure opens an interactive session over vars first.
	InteractOnFailure bool
}

// Check asserts that each item is truthy. String items are evaluated
// against vars; evaluation failure counts as a failed check. Returns
// whether everything passed.
func (p *POV) Check(vars Vars, items ...any) bool {
	return p.CheckWith(CheckOpt{}, vars, items...)
}

// CheckWith is Check with explicit failure handling.
func (p *POV) CheckWith(opt CheckOpt, vars Vars, items ...any) bool {
	if disabled() {
		return true
	}
	b := p.open(style.Info)
	b.Print("Assertions:")

	allTrue := true
	for _, item := range items {
		switch it := item.(type) {
		case string:
			val, err := expr.Eval(it, vars)
			if err != nil {
				allTrue = false
				b.Append(style.Bad, style.Styled(style.Expr, it), "><", style.Exception(err))
				continue
			}
			if expr.Truthy(val) {
				b.Append(style.OK, style.Styled(style.Expr, it), "=>", p.value(val))
			} else {
				allTrue = false
				b.Append(style.Warn, style.Styled(style.Expr, it), "=>", p.value(val))
			}
		default:
			if expr.Truthy(item) {
				b.Append(style.OK, p.value(item))
			} else {
				allTrue = false
				b.Append(style.Warn, p.value(item))
			}
		}
	}

	if allTrue {
		b.Append(style.OK, style.Styled(style.OK, "All checks passed."))
		b.Close()
		return true
	}

	b.Append(style.Warn, style.Styled(style.Bad, "Some assertions failed."))
	if opt.ExitOnFailure {
		b.Append(style.Bad, "Exiting due to failed assertions...")
	}
	b.Close()
	if opt.InteractOnFailure {
		p.Interact(vars, InteractOpt{NormalQuit: true})
	}
	if opt.ExitOnFailure {
		osExit(1)
	}
	return false
}

// Note annotates a Nop call.
type Note = Named

// Nop logs a value and passes it through unchanged. Notes print alongside,
// so the original of a tweaked argument can ride along:
//
//	f(pov.Nop(newArg, pov.N("old", oldArg)))
func (p *POV) Nop(value any, notes ...Note) any {
	if disabled() {
		return value
	}
	b := p.open(style.Info)
	defer b.Close()
	b.Print("NOP wrap")
	for _, n := range notes {
		b.Print(style.Styled(style.Var, n.Name+":"), "\t", p.value(n.Value))
	}
	b.Append(style.OK, style.Styled(style.Var, "$"), p.value(value))
	return value
}

// NopExpr evaluates expr against vars, logs it, and returns the result.
// The evaluation error, if any, is logged and returned.
func (p *POV) NopExpr(vars Vars, src string, notes ...Note) (any, error) {
	if disabled() {
		return expr.Eval(src, vars)
	}
	b := p.open(style.Info)
	defer b.Close()
	b.Print("NOP wrap")
	for _, n := range notes {
		b.Print(style.Styled(style.Var, n.Name+":"), "\t", p.value(n.Value))
	}
	b.Print(style.Styled(style.Var, "$"), style.Styled(style.Expr, src))
	val, err := expr.Eval(src, vars)
	if err != nil {
		b.Append(style.Bad, "><", style.Exception(err))
		return nil, err
	}
	b.Append(style.OK, "=>", p.value(val))
	return val, nil
}

// InteractOpt configures an interactive session.
type InteractOpt struct {
	// NormalExit allows the "exit" command to terminate the process;
	// when false it prints a reminder instead.
	NormalExit bool
	// NormalQuit allows the "quit" command to terminate the process.
	NormalQuit bool
	// Input defaults to stdin, Output to stdout.
	Input  io.Reader
	Output io.Writer
}

// Interact suspends the program in an interactive session seeded with
// vars. Returns the builder once the operator resumes execution; if the
// operator terminates and the relevant command is allowed, the process
// exits normally.
func (p *POV) Interact(vars Vars, opt InteractOpt) *POV {
	if disabled() {
		return p
	}
	if shell.Run(vars, shell.Options{
		NormalExit: opt.NormalExit,
		NormalQuit: opt.NormalQuit,
		Depth:      p.depth,
		Full:       p.full,
		Input:      opt.Input,
		Output:     opt.Output,
	}) {
		osExit(0)
	}
	return p
}

// osExit is swapped out by tests that cover the exit paths.
var osExit = os.Exit

// Package-level front ends over a fresh builder.

// Print logs an ordinary output line in Norm style.
func Print(args ...any) *POV { return New().Print(args...) }

// Info logs a plain informational line.
func Info(args ...any) *POV { return New().Info(args...) }

// OK logs a success line.
func OK(args ...any) *POV { return New().OK(args...) }

// Bad logs a failure line.
func Bad(args ...any) *POV { return New().Bad(args...) }

// Warn logs a warning line.
func Warn(args ...any) *POV { return New().Warn(args...) }

// View evaluates and displays items against vars.
func View(vars Vars, items ...any) *POV { return New().View(vars, items...) }

// ViewAs is View with a leading title line.
func ViewAs(title string, vars Vars, items ...any) *POV {
	return New().ViewAs(title, vars, items...)
}

// Check asserts that items are truthy against vars.
func Check(vars Vars, items ...any) bool { return New().Check(vars, items...) }

// CheckWith is Check with explicit failure handling.
func CheckWith(opt CheckOpt, vars Vars, items ...any) bool {
	return New().CheckWith(opt, vars, items...)
}

// Nop logs a value and passes it through unchanged.
func Nop(value any, notes ...Note) any { return New().Nop(value, notes...) }

// Interact launches an interactive session over vars.
func Interact(vars Vars, opt InteractOpt) *POV { return New().Interact(vars, opt) }

// Detail sets the process-wide value-rendering depth.
func Detail(depth int) *POV { return New().Detail(depth).Globally() }
