package pov

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// captureTrace resets the process-wide state to deterministic settings
// (no stack lines, no color) and redirects the sink to a buffer.
func captureTrace(t *testing.T) *bytes.Buffer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StackDepth = 0
	cfg.Color = "off"
	Init(cfg)
	var buf bytes.Buffer
	PrintTo(&buf)
	return &buf
}

func stubExit(t *testing.T) *int {
	t.Helper()
	code := -1
	osExit = func(c int) { code = c }
	t.Cleanup(func() { osExit = os.Exit })
	return &code
}

func TestStackLinesPrintOnceAcrossFlushes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Color = "off"
	Init(cfg)
	var buf bytes.Buffer
	PrintTo(&buf)
	t.Cleanup(func() { captureTrace(t) })

	Info("first")
	first := buf.String()
	if !strings.Contains(first, "<new stack>") {
		t.Fatalf("first flush should render the full stack: %q", first)
	}
	if !strings.Contains(first, "[/]") {
		t.Errorf("stack lines missing their tag: %q", first)
	}

	// An identical stack on the next flush renders no frames at all.
	buf.Reset()
	Info("second")
	second := buf.String()
	if strings.Contains(second, "<new stack>") || strings.Contains(second, ".go:") {
		t.Errorf("unchanged stack re-rendered: %q", second)
	}
	if !strings.Contains(second, "| second") {
		t.Errorf("log line missing: %q", second)
	}
}

func TestPrintLine(t *testing.T) {
	buf := captureTrace(t)
	Print("plain", "output")

	got := buf.String()
	if !strings.Contains(got, "[ ]") || !strings.Contains(got, "| plain output") {
		t.Errorf("output = %q", got)
	}
}

func TestPrintKeepPrintBypassesRenderer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StackDepth = 0
	cfg.Color = "off"
	cfg.KeepPrint = true
	Init(cfg)
	var buf bytes.Buffer
	PrintTo(&buf)
	t.Cleanup(func() { captureTrace(t) })

	Print("plain", "output")
	if got := buf.String(); got != "plain output\n" {
		t.Errorf("output = %q, want unformatted line", got)
	}
}

func TestInfoLine(t *testing.T) {
	buf := captureTrace(t)
	Info("hello", "world")

	got := buf.String()
	if !strings.Contains(got, "[i]") || !strings.Contains(got, "| hello world") {
		t.Errorf("output = %q", got)
	}
	if !strings.HasPrefix(got, "POV ") {
		t.Errorf("missing POV prefix: %q", got)
	}
}

func TestSeverityTags(t *testing.T) {
	buf := captureTrace(t)
	OK("fine")
	Bad("broken")
	Warn("careful")

	got := buf.String()
	for _, want := range []string{"[+]", "[-]", "[!]"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %s tag in %q", want, got)
		}
	}
}

func TestViewExpression(t *testing.T) {
	buf := captureTrace(t)
	View(Vars{"x": 2}, "x + 1")

	if !strings.Contains(buf.String(), "x + 1 => 3") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestViewEvaluationErrorRendersInline(t *testing.T) {
	buf := captureTrace(t)
	View(nil, "ghost")

	got := buf.String()
	if !strings.Contains(got, "ghost >< ") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "[-]") {
		t.Errorf("error item should carry the failure tag: %q", got)
	}
}

func TestViewNamedAndLiteral(t *testing.T) {
	buf := captureTrace(t)
	View(nil, N("total", 5), 42)

	got := buf.String()
	if !strings.Contains(got, "total => 5") {
		t.Errorf("named item missing: %q", got)
	}
	if !strings.Contains(got, "$ => 42") {
		t.Errorf("literal item missing: %q", got)
	}
}

func TestViewAsTitle(t *testing.T) {
	buf := captureTrace(t)
	New().ViewAs("State", Vars{"n": 1}, "n")

	if !strings.Contains(buf.String(), "State:") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCheckPass(t *testing.T) {
	buf := captureTrace(t)
	ok := Check(Vars{"n": 7}, "n == 7", "n > 0", true)

	if !ok {
		t.Fatal("Check = false, want true")
	}
	if !strings.Contains(buf.String(), "All checks passed.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCheckFail(t *testing.T) {
	buf := captureTrace(t)
	ok := Check(Vars{"n": 0}, "n > 1")

	if ok {
		t.Fatal("Check = true, want false")
	}
	got := buf.String()
	if !strings.Contains(got, "Some assertions failed.") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "n > 1 => false") {
		t.Errorf("failed item missing: %q", got)
	}
}

func TestCheckEvaluationErrorFails(t *testing.T) {
	captureTrace(t)
	if Check(nil, "missing == 1") {
		t.Error("evaluation failure should fail the check")
	}
}

func TestCheckExitOnFailure(t *testing.T) {
	buf := captureTrace(t)
	code := stubExit(t)

	ok := CheckWith(CheckOpt{ExitOnFailure: true}, Vars{"n": 0}, "n")
	if ok {
		t.Fatal("check should fail")
	}
	if *code != 1 {
		t.Errorf("exit code = %d, want 1", *code)
	}
	if !strings.Contains(buf.String(), "Exiting due to failed assertions...") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCheckExitNotTakenOnPass(t *testing.T) {
	captureTrace(t)
	code := stubExit(t)

	CheckWith(CheckOpt{ExitOnFailure: true}, Vars{"n": 1}, "n")
	if *code != -1 {
		t.Errorf("exit taken on passing check: %d", *code)
	}
}

func TestNopPassthrough(t *testing.T) {
	buf := captureTrace(t)
	got := Nop(42, N("old", 41))

	if got != 42 {
		t.Fatalf("Nop = %v, want 42", got)
	}
	out := buf.String()
	if !strings.Contains(out, "NOP wrap") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "old:") || !strings.Contains(out, "41") {
		t.Errorf("note missing: %q", out)
	}
}

func TestNopExpr(t *testing.T) {
	buf := captureTrace(t)
	got, err := New().NopExpr(Vars{"a": 2}, "a * 3")
	if err != nil || got != int64(6) {
		t.Fatalf("NopExpr = %v, %v", got, err)
	}
	if !strings.Contains(buf.String(), "=> 6") {
		t.Errorf("output = %q", buf.String())
	}

	if _, err := New().NopExpr(nil, "oops +"); err == nil {
		t.Error("NopExpr should surface evaluation errors")
	}
}

func TestInteractPlainSession(t *testing.T) {
	captureTrace(t)
	var out bytes.Buffer
	in := strings.NewReader("n + 1\n")

	New().Interact(Vars{"n": 1}, InteractOpt{Input: in, Output: &out})
	if !strings.Contains(out.String(), "=> 2") {
		t.Errorf("shell output = %q", out.String())
	}
}

func TestInteractQuitExitsNormally(t *testing.T) {
	captureTrace(t)
	code := stubExit(t)
	var out bytes.Buffer

	Interact(nil, InteractOpt{NormalQuit: true, Input: strings.NewReader("quit\n"), Output: &out})
	if *code != 0 {
		t.Errorf("exit code = %d, want 0", *code)
	}
}

func TestDetailDepthCollapsesNestedValues(t *testing.T) {
	buf := captureTrace(t)
	nested := map[string]any{"inner": map[string]int{"a": 1, "b": 2}}

	New().Detail(3).View(nil, N("v", nested))
	deep := buf.String()
	if !strings.Contains(deep, "a=1") {
		t.Errorf("depth 3 should expand: %q", deep)
	}

	buf.Reset()
	New().Detail(1).View(nil, N("v", nested))
	if strings.Contains(buf.String(), "a=1") {
		t.Errorf("depth 1 should collapse: %q", buf.String())
	}
}

func TestGloballyCommitsDefaults(t *testing.T) {
	captureTrace(t)
	New().Detail(5).Full(true).Stack(3).Globally()

	p := New()
	if p.depth != 5 || !p.full || p.stackDepth != 3 {
		t.Errorf("snapshot = %+v, want depth 5, full, stack 3", p)
	}
}

func TestDisableTurnsOperationsIntoNoops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Disable = true
	Init(cfg)
	var buf bytes.Buffer
	PrintTo(&buf)
	t.Cleanup(func() { captureTrace(t) })

	Info("silent")
	View(Vars{"x": 1}, "x")
	if got := Nop("v"); got != "v" {
		t.Errorf("Nop passthrough broken under disable: %v", got)
	}
	if !Check(Vars{"n": 0}, "n") {
		t.Error("disabled Check should report success")
	}
	if buf.Len() != 0 {
		t.Errorf("disabled mode produced output: %q", buf.String())
	}
}

func TestNestedBuilderCallsShareOneFlush(t *testing.T) {
	buf := captureTrace(t)

	fn := TrackFunc(func(n int) int {
		Info("inside")
		return n * 2
	}, WithName("double"))
	buf.Reset()

	if got := fn(3); got != 6 {
		t.Fatalf("wrapped call = %d", got)
	}
	got := buf.String()
	open := strings.Index(got, "double(")
	inside := strings.Index(got, "inside")
	result := strings.Index(got, "=> 6")
	if open == -1 || inside == -1 || result == -1 {
		t.Fatalf("output = %q", got)
	}
	if !(open < result && result < inside) {
		t.Errorf("flush order wrong (call lines first, nested after): %q", got)
	}
}
