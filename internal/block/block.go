package block

import (
	"pov/internal/stacktrace"
	"pov/internal/style"
)

// line is one queued trace line: a category for the gutter tag plus the
// composed fragment. Immutable once appended.
type line struct {
	cat  style.Category
	frag style.Fragment
}

// unit is a flushable group: the stack captured when its block opened, the
// nesting bars, and the block's own lines.
type unit struct {
	stack stacktrace.Stack
	bars  []style.Fragment
	lines []line
}

// Block accumulates the trace lines of one logical operation.
type Block struct {
	sess     *Session
	parent   *Block
	cat      style.Category
	bars     []style.Fragment
	stack    stacktrace.Stack
	lines    []line
	children []unit
	closed   bool
}

// Category returns the category the block was opened with.
func (b *Block) Category() style.Category { return b.cat }

// Print appends a line in the block's own category. Parts are joined with
// single spaces; fragments render deferred, other values via fmt.
func (b *Block) Print(parts ...any) {
	b.Append(b.cat, parts...)
}

// Append appends a line with an explicit category.
func (b *Block) Append(cat style.Category, parts ...any) {
	frags := make([]style.Fragment, 0, len(parts))
	for _, p := range parts {
		frags = append(frags, style.Of(p))
	}
	b.lines = append(b.lines, line{cat: cat, frag: style.Join(style.Text(" "), frags...)})
}

// Close seals the block. A nested block hands its units to its parent; the
// outermost block flushes everything in opening order. Closing twice is a
// no-op.
func (b *Block) Close() {
	if b.closed {
		return
	}
	b.closed = true

	units := append([]unit{{stack: b.stack, bars: b.bars, lines: b.lines}}, b.children...)
	if b.parent != nil {
		b.parent.children = append(b.parent.children, units...)
	} else {
		b.sess.flush(units)
	}
	b.sess.current = b.parent
}
