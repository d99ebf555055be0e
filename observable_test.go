package pov

import (
	"strings"
	"testing"
)

func TestUnwatchedWritesAreSilent(t *testing.T) {
	buf := captureTrace(t)
	o := NewObservable("silentThing")
	buf.Reset()

	o.Set("X", 1)
	if buf.Len() != 0 {
		t.Errorf("unwatched write produced output: %q", buf.String())
	}
	if got := o.Get("X"); got != 1 {
		t.Errorf("Get = %v, want 1", got)
	}
}

func TestTrackedAttributeWriteTraces(t *testing.T) {
	buf := captureTrace(t)
	o := NewObservable("meter")
	o.Track("Level")

	if !strings.Contains(buf.String(), "Tracking Level for meter<#") {
		t.Errorf("tracking announcement missing: %q", buf.String())
	}

	buf.Reset()
	o.Set("Level", 3)
	got := buf.String()
	if !strings.Contains(got, ".Level := 3") {
		t.Errorf("write trace = %q", got)
	}
	if !strings.Contains(got, "[a]") {
		t.Errorf("attribute tag missing: %q", got)
	}

	buf.Reset()
	o.Set("Other", 9)
	if buf.Len() != 0 {
		t.Errorf("untracked attribute traced: %q", buf.String())
	}
}

func TestTrackAllAttributes(t *testing.T) {
	buf := captureTrace(t)
	o := NewObservable("wide").Track(All)

	buf.Reset()
	o.Set("A", 1)
	o.Set("B", 2)
	got := buf.String()
	if !strings.Contains(got, ".A := 1") || !strings.Contains(got, ".B := 2") {
		t.Errorf("all-attrs tracking = %q", got)
	}
}

func TestUntrackStopsTracing(t *testing.T) {
	buf := captureTrace(t)
	o := NewObservable("flip").Track("X")

	buf.Reset()
	o.Set("X", 1)
	if buf.Len() == 0 {
		t.Fatal("tracked write should trace")
	}

	o.Untrack("X")
	buf.Reset()
	o.Set("X", 2)
	if buf.Len() != 0 {
		t.Errorf("untracked write traced: %q", buf.String())
	}
	if got := o.Get("X"); got != 2 {
		t.Errorf("write lost after untrack: %v", got)
	}
}

type gauge struct {
	Value int
	Label string

	hidden int
}

func TestWrapWriteThrough(t *testing.T) {
	buf := captureTrace(t)
	g := &gauge{}
	o := Wrap(g)
	o.Track("Value")

	buf.Reset()
	o.Set("Value", 7)
	if g.Value != 7 {
		t.Errorf("struct field = %d, want write-through 7", g.Value)
	}
	if !strings.Contains(buf.String(), ".Value := 7") {
		t.Errorf("trace = %q", buf.String())
	}

	// Convertible values are coerced to the field type.
	o.Set("Value", int8(3))
	if g.Value != 3 {
		t.Errorf("converted write = %d", g.Value)
	}
}

func TestWrapFallsBackToBagForUnknownFields(t *testing.T) {
	captureTrace(t)
	g := &gauge{}
	o := Wrap(g)

	o.Set("Nonexistent", "x")
	if got := o.Get("Nonexistent"); got != "x" {
		t.Errorf("bag fallback = %v", got)
	}

	o.Set("hidden", 5)
	if g.hidden != 0 {
		t.Error("unexported field must not be written through")
	}
	if got := o.Get("hidden"); got != 5 {
		t.Errorf("bag fallback for unexported = %v", got)
	}
}

func TestClassWideTracking(t *testing.T) {
	buf := captureTrace(t)
	TrackAttr("sensor", "Reading")

	a := NewObservable("sensor")
	b := NewObservable("sensor")
	other := NewObservable("antenna")

	buf.Reset()
	a.Set("Reading", 1)
	b.Set("Reading", 2)
	other.Set("Reading", 3)

	got := buf.String()
	if strings.Count(got, ".Reading := ") != 2 {
		t.Errorf("class-wide tracking = %q", got)
	}

	UntrackAttr("sensor", All)
	buf.Reset()
	a.Set("Reading", 4)
	if buf.Len() != 0 {
		t.Errorf("untracked class still traces: %q", buf.String())
	}
}

func TestTrackAttrRejectsOtherTargets(t *testing.T) {
	captureTrace(t)
	defer func() {
		if recover() == nil {
			t.Error("TrackAttr should panic on an unsupported target")
		}
	}()
	TrackAttr(42, "X")
}

func TestContainerAdoption(t *testing.T) {
	buf := captureTrace(t)
	o := NewObservable("holder").Track("Data")

	buf.Reset()
	o.Set("Data", map[string]any{"k": 1})

	d, ok := o.Get("Data").(*Dict)
	if !ok {
		t.Fatalf("assigned map not adopted, got %T", o.Get("Data"))
	}

	// The substitution is durable: later mutations through the proxy
	// keep tracing under the attribute path.
	buf.Reset()
	d.Set("k", 2)
	if !strings.Contains(buf.String(), ".Data") {
		t.Errorf("adopted dict trace = %q", buf.String())
	}
	if d.Get("k", nil) != 2 {
		t.Errorf("adopted dict lost the write")
	}
}

func TestSliceAdoption(t *testing.T) {
	captureTrace(t)
	o := NewObservable("holder2").Track("Items")
	o.Set("Items", []any{1, 2})

	l, ok := o.Get("Items").(*List)
	if !ok {
		t.Fatalf("assigned slice not adopted, got %T", o.Get("Items"))
	}
	l.Append(3)
	if l.Len() != 3 {
		t.Errorf("adopted list length = %d", l.Len())
	}
}

func TestWriteThroughContainerAdoptionKeepsFieldAssignment(t *testing.T) {
	captureTrace(t)
	type holder struct {
		Items map[string]any
		Rows  []any
	}
	var h holder
	o := Wrap(&h).Track(All)

	o.Set("Items", map[string]any{"a": 1})
	if h.Items == nil || h.Items["a"] != 1 {
		t.Fatalf("struct field not written: %#v", h.Items)
	}
	d, ok := o.Get("Items").(*Dict)
	if !ok {
		t.Fatalf("Get should return the proxy, got %T", o.Get("Items"))
	}
	// The proxy and the field share storage.
	d.Set("b", 2)
	if h.Items["b"] != 2 {
		t.Errorf("proxy write not visible through the field: %#v", h.Items)
	}

	o.Set("Rows", []any{1, 2})
	if len(h.Rows) != 2 {
		t.Fatalf("slice field not written: %#v", h.Rows)
	}
	if _, ok := o.Get("Rows").(*List); !ok {
		t.Errorf("Get should return the list proxy, got %T", o.Get("Rows"))
	}
}

func TestIDRangeFilterSilencesOutOfRangeInstances(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StackDepth = 0
	cfg.Color = "off"
	cfg.IDRange = "0:1"
	Init(cfg)
	var buf strings.Builder
	PrintTo(&buf)
	t.Cleanup(func() { captureTrace(t) })

	o := NewObservable("muted").Track("X")
	buf.Reset()
	o.Set("X", 1)

	if strings.Contains(buf.String(), ":= 1") {
		t.Errorf("out-of-range instance traced: %q", buf.String())
	}
	if got := o.Get("X"); got != 1 {
		t.Errorf("write must still land: %v", got)
	}
}

func TestFiveAssignmentScenario(t *testing.T) {
	buf := captureTrace(t)
	o := NewObservable("counterDemo").Track("Count")

	buf.Reset()
	for i := 1; i <= 5; i++ {
		o.Set("Count", i)
	}

	if got := strings.Count(buf.String(), ".Count := "); got != 5 {
		t.Errorf("assignment traces = %d, want 5\n%s", got, buf.String())
	}
	if o.Get("Count") != 5 {
		t.Errorf("final value = %v", o.Get("Count"))
	}
}
