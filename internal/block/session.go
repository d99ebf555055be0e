// Package block implements the nesting-aware trace buffer. Lines produced
// by one logical operation are grouped into a block; blocks opened while
// another block is open become its children and are flushed, in opening
// order, only when the outermost block closes. This keeps nested traces
// from interleaving and lets the stack renderer diff against the last
// flushed stack.
//
// The session state (current block, previous stack) assumes a single
// logical call stack; none of this is safe for concurrent use.
package block

import (
	"fmt"
	"io"
	"os"
	"strings"

	"pov/internal/stacktrace"
	"pov/internal/style"
)

// Session owns the output stream and the process-wide flush state.
type Session struct {
	w          io.Writer
	color      style.ColorMode
	stackDepth int
	pid        int

	current   *Block
	prevStack stacktrace.Stack
}

// NewSession creates a session writing to w. stackDepth bounds captured
// stack slices: 0 disables stack lines entirely, -1 captures without bound.
func NewSession(w io.Writer, color style.ColorMode, stackDepth int) *Session {
	if w == nil {
		w = os.Stderr
	}
	return &Session{
		w:          w,
		color:      color,
		stackDepth: stackDepth,
		pid:        os.Getpid(),
	}
}

// SetOutput redirects the session. Takes effect on the next flush.
func (s *Session) SetOutput(w io.Writer) {
	if w != nil {
		s.w = w
	}
}

// Output returns the current output stream.
func (s *Session) Output() io.Writer { return s.w }

// SetColor changes the color mode.
func (s *Session) SetColor(mode style.ColorMode) { s.color = mode }

// SetStackDepth changes the captured stack bound for subsequent blocks.
func (s *Session) SetStackDepth(depth int) { s.stackDepth = depth }

// StackDepth returns the current captured stack bound.
func (s *Session) StackDepth() int { return s.stackDepth }

// Open begins a block of the given category. The block inherits the
// currently open block's nesting bars plus one of its own, and captures
// the active call stack. Close must be called in LIFO order.
func (s *Session) Open(cat style.Category) *Block {
	b := &Block{sess: s, parent: s.current, cat: cat}
	if b.parent != nil {
		b.bars = append(append([]style.Fragment{}, b.parent.bars...), cat.Bar())
	} else {
		b.bars = []style.Fragment{cat.Bar()}
	}
	if s.stackDepth != 0 {
		limit := s.stackDepth
		if limit < 0 {
			limit = 0
		}
		b.stack = stacktrace.Capture(2, limit)
	}
	s.current = b
	return b
}

// OpenDepth is Open with a per-block stack bound override.
func (s *Session) OpenDepth(cat style.Category, stackDepth int) *Block {
	prev := s.stackDepth
	s.stackDepth = stackDepth
	b := s.Open(cat)
	s.stackDepth = prev
	return b
}

// flush writes queued units to the stream and advances the previous-stack
// memory. Units with no lines are dropped.
func (s *Session) flush(units []unit) {
	colored := style.Colored(s.w, s.color)
	for _, u := range units {
		if len(u.lines) == 0 {
			continue
		}
		bars := renderBars(u.bars, colored)
		for _, frag := range stacktrace.RenderDelta(s.prevStack, u.stack) {
			s.emit(style.Path, bars, frag, colored)
		}
		for _, ln := range u.lines {
			s.emit(ln.cat, bars, ln.frag, colored)
		}
		if len(u.stack) > 0 {
			s.prevStack = u.stack
		}
	}
}

func renderBars(bars []style.Fragment, colored bool) string {
	var sb strings.Builder
	for _, b := range bars {
		sb.WriteString(b.Render(colored))
	}
	return sb.String()
}

// emit writes one logical line, splitting multi-line content so every
// physical line carries the POV/pid/bars prefix.
func (s *Session) emit(cat style.Category, bars string, frag style.Fragment, colored bool) {
	prefix := style.Head.Tag().Render(colored) + " " +
		cat.Tag().Render(colored) + " " +
		style.Styled(style.ID, s.pid).Render(colored) + " " +
		bars + " "
	for _, physical := range strings.Split(frag.Render(colored), "\n") {
		// Best-effort write: trace output must never fail the program.
		_, _ = fmt.Fprintln(s.w, prefix+physical)
	}
}
