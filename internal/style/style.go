package style

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Category is the semantic class of a trace fragment. It decides both the
// gutter tag of a line and the ANSI styling of inline text.
type Category uint8

const (
	// Norm is the default category; unknown categories degrade to it.
	Norm Category = iota
	// Head tags the leading "POV" marker of every flushed line.
	Head
	// Path tags stack-frame locations and path-like text.
	Path
	// Bad tags failures and exceptions.
	Bad
	// OK tags successful events and results.
	OK
	// Warn tags warnings and failed checks.
	Warn
	// Func tags traced-call blocks and function names.
	Func
	// Attr tags attribute and container mutations.
	Attr
	// Info tags plain informational lines.
	Info
	// Var styles variable and attribute names.
	Var
	// Expr styles expression and punctuation text.
	Expr
	// Obj styles type and object names.
	Obj
	// Const styles literal values.
	Const
	// ID styles identity tags (addresses, pids, ordinals).
	ID

	categoryCount
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case Norm:
		return "norm"
	case Head:
		return "head"
	case Path:
		return "path"
	case Bad:
		return "bad"
	case OK:
		return "ok"
	case Warn:
		return "warn"
	case Func:
		return "func"
	case Attr:
		return "attr"
	case Info:
		return "info"
	case Var:
		return "var"
	case Expr:
		return "expr"
	case Obj:
		return "obj"
	case Const:
		return "const"
	case ID:
		return "id"
	default:
		return "unknown"
	}
}

// ParseCategory converts a string to a Category. Unknown names degrade to
// Norm; the bool result reports whether the name was recognized.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(s) {
	case "norm":
		return Norm, true
	case "head":
		return Head, true
	case "path":
		return Path, true
	case "bad":
		return Bad, true
	case "ok":
		return OK, true
	case "warn":
		return Warn, true
	case "func":
		return Func, true
	case "attr":
		return Attr, true
	case "info":
		return Info, true
	case "var":
		return Var, true
	case "expr":
		return Expr, true
	case "obj":
		return Obj, true
	case "const":
		return Const, true
	case "id":
		return ID, true
	default:
		return Norm, false
	}
}

// tags are the gutter markers per category. Value-styling categories carry
// no tag and fall back to the Norm tag when used as a line category.
var tags = [categoryCount]string{
	Norm: "[ ]",
	Head: "POV",
	Path: "[/]",
	Bad:  "[-]",
	OK:   "[+]",
	Warn: "[!]",
	Func: "[f]",
	Attr: "[a]",
	Info: "[i]",
}

// colors are forced-on so that the colorize decision is made per render,
// not by the fatih/color globals.
var colors [categoryCount]*color.Color

func init() {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		c.EnableColor()
		return c
	}
	colors[Norm] = mk(color.FgWhite)
	colors[Head] = mk(color.BgRed, color.FgWhite)
	colors[Path] = mk(color.Faint)
	colors[Bad] = mk(color.FgRed)
	colors[OK] = mk(color.FgGreen)
	colors[Warn] = mk(color.FgYellow)
	colors[Func] = mk(color.FgBlue)
	colors[Attr] = mk(color.FgGreen, color.Italic)
	colors[Info] = mk(color.FgCyan)
	colors[Var] = mk(color.FgMagenta, color.Italic)
	colors[Expr] = mk(color.FgMagenta)
	colors[Obj] = mk(color.FgCyan, color.Bold)
	colors[Const] = mk(color.FgYellow, color.Italic)
	colors[ID] = mk(color.FgYellow, color.Faint)
}

func (c Category) normalized() Category {
	if c >= categoryCount {
		return Norm
	}
	return c
}

// Tag returns the styled gutter marker for the category.
func (c Category) Tag() Fragment {
	c = c.normalized()
	tag := tags[c]
	if tag == "" {
		c = Norm
		tag = tags[Norm]
	}
	return Fragment{cat: c, text: tag, styled: true}
}

// Bar returns the one-column nesting marker for the category.
func (c Category) Bar() Fragment {
	return Fragment{cat: c.normalized(), text: "|", styled: true}
}

func (c Category) sprint(s string) string {
	return colors[c.normalized()].Sprint(s)
}

// ColorMode controls whether rendered output carries ANSI escapes.
type ColorMode uint8

const (
	// ColorAuto enables color when the output stream is a terminal.
	ColorAuto ColorMode = iota
	// ColorOn forces color on.
	ColorOn
	// ColorOff forces color off.
	ColorOff
)

// ParseColorMode converts a string to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return ColorAuto, nil
	case "on", "always", "1", "true":
		return ColorOn, nil
	case "off", "never", "0", "false":
		return ColorOff, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode: %q (expected: auto|on|off)", s)
	}
}

// Colored reports whether output to w should carry ANSI escapes under the
// given mode. The probe runs at flush time so that redirecting the stream
// mid-run changes the decision.
func Colored(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorOn:
		return true
	case ColorOff:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
