package style

import (
	"bytes"
	"strings"
	"testing"
)

func TestCategoryStringRoundTrip(t *testing.T) {
	for c := Norm; c < categoryCount; c++ {
		name := c.String()
		if name == "unknown" {
			t.Fatalf("category %d has no name", c)
		}
		got, ok := ParseCategory(name)
		if !ok || got != c {
			t.Errorf("ParseCategory(%q) = %v, %v; want %v, true", name, got, ok, c)
		}
	}
}

func TestParseCategoryUnknown(t *testing.T) {
	got, ok := ParseCategory("bogus")
	if ok || got != Norm {
		t.Errorf("ParseCategory(bogus) = %v, %v; want Norm, false", got, ok)
	}
}

func TestTagFallsBackForValueCategories(t *testing.T) {
	// Var styles inline text only; as a line category it gets the plain tag.
	if got := Var.Tag().Plain(); got != "[ ]" {
		t.Errorf("Var tag = %q, want %q", got, "[ ]")
	}
	if got := Info.Tag().Plain(); got != "[i]" {
		t.Errorf("Info tag = %q, want %q", got, "[i]")
	}
	if got := Head.Tag().Plain(); got != "POV" {
		t.Errorf("Head tag = %q, want %q", got, "POV")
	}
}

func TestStyledRenderCarriesEscapesOnlyWhenColored(t *testing.T) {
	f := Styled(Bad, "broken")
	if got := f.Render(false); got != "broken" {
		t.Errorf("plain render = %q", got)
	}
	colored := f.Render(true)
	if !strings.Contains(colored, "\x1b[") || !strings.Contains(colored, "broken") {
		t.Errorf("colored render = %q, want ANSI-wrapped text", colored)
	}
}

func TestJoinSkipsZeroFragments(t *testing.T) {
	got := Join(Text(" "), Text("a"), Fragment{}, Text("b")).Plain()
	if got != "a b" {
		t.Errorf("Join = %q, want %q", got, "a b")
	}
}

func TestTemplate(t *testing.T) {
	got := Template(Styled(Obj, "Point"), Styled(ID, "#3")).Plain()
	if got != "Point<#3>" {
		t.Errorf("Template = %q, want %q", got, "Point<#3>")
	}
}

func TestConcatNestsArbitrarily(t *testing.T) {
	f := Concat(Text("a"), Concat(Text("b"), Text("c")))
	if got := f.Plain(); got != "abc" {
		t.Errorf("Concat = %q, want %q", got, "abc")
	}
}

func TestOfPassesFragmentsThrough(t *testing.T) {
	orig := Styled(Const, 42)
	got := Of(orig)
	if got.Plain() != orig.Plain() || got.Render(true) != orig.Render(true) {
		t.Errorf("Of(Fragment) changed the fragment: %#v", got)
	}
	if got := Of(42).Plain(); got != "42" {
		t.Errorf("Of(42) = %q", got)
	}
}

func TestParseColorMode(t *testing.T) {
	cases := []struct {
		in   string
		want ColorMode
		ok   bool
	}{
		{"auto", ColorAuto, true},
		{"", ColorAuto, true},
		{"on", ColorOn, true},
		{"always", ColorOn, true},
		{"off", ColorOff, true},
		{"never", ColorOff, true},
		{"sometimes", ColorAuto, false},
	}
	for _, c := range cases {
		got, err := ParseColorMode(c.in)
		if (err == nil) != c.ok || got != c.want {
			t.Errorf("ParseColorMode(%q) = %v, %v", c.in, got, err)
		}
	}
}

func TestColoredAgainstBuffer(t *testing.T) {
	var buf bytes.Buffer
	if Colored(&buf, ColorAuto) {
		t.Error("auto mode should disable color for a non-terminal writer")
	}
	if !Colored(&buf, ColorOn) {
		t.Error("on mode should force color")
	}
	if Colored(&buf, ColorOff) {
		t.Error("off mode should force plain")
	}
}
