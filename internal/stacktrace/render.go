package stacktrace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	"pov/internal/style"
)

const (
	excerptWidth = 63
	excerptEdge  = 30
)

// sourceLines caches file contents for excerpt lookup.
var sourceLines = map[string][]string{}

func sourceLine(path string, line int) (string, bool) {
	lines, ok := sourceLines[path]
	if !ok {
		data, err := os.ReadFile(path)
		if err != nil {
			sourceLines[path] = nil
			return "", false
		}
		lines = strings.Split(string(data), "\n")
		sourceLines[path] = lines
	}
	if line < 1 || line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

// Excerpt returns the whitespace-collapsed source text at file:line,
// truncated to a head...tail window when too wide.
func Excerpt(file string, line int) (style.Fragment, bool) {
	raw, ok := sourceLine(file, line)
	if !ok {
		return style.Fragment{}, false
	}
	src := strings.Join(strings.Fields(raw), " ")
	if runewidth.StringWidth(src) <= excerptWidth {
		return style.Styled(style.Expr, src), true
	}
	head := runewidth.Truncate(src, excerptEdge, "")
	tail := runewidth.TruncateLeft(src, runewidth.StringWidth(src)-excerptEdge, "")
	return style.Concat(
		style.Styled(style.Expr, head),
		style.Text("..."),
		style.Styled(style.Expr, tail),
	), true
}

// displayPath picks the shorter of the absolute and working-dir-relative
// spellings of a file path.
func displayPath(path string) string {
	if rel, err := filepath.Rel(".", path); err == nil && len(rel) < len(path) {
		return rel
	}
	return path
}

// Render formats one frame as "file:line (func) excerpt".
func (f Frame) Render() style.Fragment {
	loc := style.Concat(
		style.Styled(style.Path, displayPath(f.File)),
		style.Text(":"),
		style.Styled(style.Info, f.Line),
		style.Text(" ("),
		style.Styled(style.Func, f.Function),
		style.Text(")"),
	)
	if src, ok := Excerpt(f.File, f.Line); ok {
		return style.Concat(loc, style.Text(" "), src)
	}
	return loc
}

// RenderDelta computes the incremental stack lines to show for cur, given
// that prev was the last stack rendered. Each returned fragment is one
// output line in Path category.
func RenderDelta(prev, cur Stack) []style.Fragment {
	if len(cur) == 0 {
		return nil
	}
	i := CommonPrefix(prev, cur)

	var lines []style.Fragment
	if i > 0 {
		if i < len(prev) {
			// Control flow returned toward the shared frame: re-anchor on it
			// and note how many levels unwound.
			lines = append(lines, style.Concat(
				cur[i-1].Render(),
				style.Text(" "),
				style.Styled(style.Path, fmt.Sprintf("<up %d>", len(prev)-i)),
			))
		}
	} else {
		lines = append(lines, style.Styled(style.Path, "<new stack>"))
	}
	for j := i; j < len(cur); j++ {
		lines = append(lines, cur[j].Render())
	}
	return lines
}
