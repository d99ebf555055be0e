package style

import (
	"fmt"
	"strings"
)

// Fragment is a piece of renderable trace text. Rendering is deferred: the
// colorize decision is taken against the output stream at flush time, so a
// Fragment carries structure (category per leaf, concatenation) instead of
// escape sequences.
type Fragment struct {
	cat    Category
	text   string
	styled bool
	parts  []Fragment
}

// Text returns an unstyled leaf fragment.
func Text(s string) Fragment {
	return Fragment{text: s}
}

// Textf returns an unstyled leaf fragment from a format string.
func Textf(format string, args ...any) Fragment {
	return Fragment{text: fmt.Sprintf(format, args...)}
}

// Styled returns a leaf fragment rendered in the category's style.
func Styled(c Category, v any) Fragment {
	return Fragment{cat: c.normalized(), text: fmt.Sprint(v), styled: true}
}

// Of converts an arbitrary value to a Fragment. Fragments pass through
// unchanged; anything else becomes unstyled text.
func Of(v any) Fragment {
	if f, ok := v.(Fragment); ok {
		return f
	}
	return Text(fmt.Sprint(v))
}

// Concat joins fragments with no separator.
func Concat(frags ...Fragment) Fragment {
	return Fragment{parts: frags}
}

// Join joins fragments with a separator fragment, skipping zero fragments.
func Join(sep Fragment, elems ...Fragment) Fragment {
	out := make([]Fragment, 0, 2*len(elems))
	for _, e := range elems {
		if e.IsZero() {
			continue
		}
		if len(out) > 0 {
			out = append(out, sep)
		}
		out = append(out, e)
	}
	if len(out) == 1 {
		return out[0]
	}
	return Fragment{parts: out}
}

// Template renders base<p1,p2,...> with the parameters in ID style unless
// they are already fragments.
func Template(base Fragment, params ...Fragment) Fragment {
	return Concat(base, Text("<"), Join(Text(","), params...), Text(">"))
}

// IsZero reports whether the fragment renders to nothing.
func (f Fragment) IsZero() bool {
	return !f.styled && f.text == "" && len(f.parts) == 0
}

// Render resolves the fragment to a string, with or without ANSI escapes.
func (f Fragment) Render(colored bool) string {
	if len(f.parts) == 0 {
		if f.styled && colored {
			return f.cat.sprint(f.text)
		}
		return f.text
	}
	var sb strings.Builder
	for _, p := range f.parts {
		sb.WriteString(p.Render(colored))
	}
	return sb.String()
}

// Plain is Render without color.
func (f Fragment) Plain() string {
	return f.Render(false)
}

// String implements fmt.Stringer with the color-free rendering, so that
// fragments embedded in ordinary formatting stay readable.
func (f Fragment) String() string {
	return f.Plain()
}
