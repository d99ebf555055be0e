package pov

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTrackAnnouncesWrap(t *testing.T) {
	buf := captureTrace(t)
	Track(func() {}, WithName("noop"))

	if !strings.Contains(buf.String(), "Tracking function noop") {
		t.Errorf("announcement = %q", buf.String())
	}
}

func TestTrackRejectsNonFunction(t *testing.T) {
	captureTrace(t)
	defer func() {
		if recover() == nil {
			t.Error("Track should panic on a non-function")
		}
	}()
	Track(42)
}

func TestTrackedCallLogsArgsAndResult(t *testing.T) {
	buf := captureTrace(t)
	add := TrackFunc(func(a, b int) int { return a + b }, WithName("add"))
	buf.Reset()

	if got := add(2, 3); got != 5 {
		t.Fatalf("add = %d", got)
	}
	got := buf.String()
	if !strings.Contains(got, "add(") {
		t.Errorf("call line missing: %q", got)
	}
	if !strings.Contains(got, "2") || !strings.Contains(got, "3") {
		t.Errorf("args missing: %q", got)
	}
	if !strings.Contains(got, ") => 5") {
		t.Errorf("result line missing: %q", got)
	}
	if !strings.Contains(got, "[f]") || !strings.Contains(got, "[+]") {
		t.Errorf("category tags missing: %q", got)
	}
}

func TestTrackedCallRendersTrailingError(t *testing.T) {
	buf := captureTrace(t)
	fail := TrackFunc(func() (int, error) { return 0, errors.New("boom") }, WithName("fail"))
	buf.Reset()

	if _, err := fail(); err == nil || err.Error() != "boom" {
		t.Fatalf("error passthrough broken: %v", err)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("error not rendered: %q", buf.String())
	}
}

func TestTrackedPanicPropagatesIdenticalValue(t *testing.T) {
	buf := captureTrace(t)
	sentinel := errors.New("sentinel")
	explode := TrackFunc(func() { panic(sentinel) }, WithName("explode"))
	buf.Reset()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("panic swallowed")
		}
		if err, ok := r.(error); !ok || err != sentinel {
			t.Errorf("panic value changed: %v", r)
		}
		if !strings.Contains(buf.String(), "><") || !strings.Contains(buf.String(), "sentinel") {
			t.Errorf("panic trace = %q", buf.String())
		}
	}()
	explode()
}

func TestTrackedVariadicExpandsTail(t *testing.T) {
	buf := captureTrace(t)
	sum := TrackFunc(func(base int, ns ...int) int {
		for _, n := range ns {
			base += n
		}
		return base
	}, WithName("sum"))
	buf.Reset()

	if got := sum(1, 2, 3); got != 6 {
		t.Fatalf("sum = %d", got)
	}
	got := buf.String()
	// Three separate argument lines, not one packed slice.
	if strings.Contains(got, "[ 2, 3 ]") {
		t.Errorf("variadic tail logged packed: %q", got)
	}
	if !strings.Contains(got, ") => 6") {
		t.Errorf("result missing: %q", got)
	}
}

func TestTrackedNoResultCall(t *testing.T) {
	buf := captureTrace(t)
	ping := TrackFunc(func() {}, WithName("ping"))
	buf.Reset()

	ping()
	if !strings.Contains(buf.String(), ") => ()") {
		t.Errorf("void result line = %q", buf.String())
	}
}

type register struct{ total int }

func (r *register) Add(d int) int {
	r.total += d
	return r.total
}

func (r *register) Reset() { r.total = 0 }

func TestTrackMemfunInstanceScope(t *testing.T) {
	buf := captureTrace(t)
	tracked := &register{}
	other := &register{}
	TrackMemfun(tracked, "Add")
	buf.Reset()

	if got := Invoke(tracked, "Add", 2)[0]; got != 2 {
		t.Fatalf("tracked invoke = %v", got)
	}
	if !strings.Contains(buf.String(), "Add(") {
		t.Errorf("tracked call not traced: %q", buf.String())
	}

	buf.Reset()
	if got := Invoke(other, "Add", 5)[0]; got != 5 {
		t.Fatalf("other invoke = %v", got)
	}
	if strings.Contains(buf.String(), "Add(") {
		t.Errorf("foreign instance traced: %q", buf.String())
	}
}

type meterbox struct{ n int }

func (m *meterbox) Tick() int {
	m.n++
	return m.n
}

func TestTrackMemfunClassWide(t *testing.T) {
	buf := captureTrace(t)
	TrackMemfun(Class(&meterbox{}), "Tick")
	buf.Reset()

	a, b := &meterbox{}, &meterbox{}
	Invoke(a, "Tick")
	Invoke(b, "Tick")

	if got := strings.Count(buf.String(), "Tick("); got != 2 {
		t.Errorf("class-wide traces = %d, want 2\n%s", got, buf.String())
	}
}

func TestUntrackStopsMethodTracing(t *testing.T) {
	buf := captureTrace(t)
	r := &register{}
	TrackMemfun(r, "Reset")
	Untrack(r, "Reset")
	buf.Reset()

	Invoke(r, "Reset")
	if buf.Len() != 0 {
		t.Errorf("untracked method still traced: %q", buf.String())
	}
}

func TestInvokeUntrackedFallsThrough(t *testing.T) {
	buf := captureTrace(t)
	r := &register{}
	buf.Reset()

	if got := Invoke(r, "Add", 3)[0]; got != 3 {
		t.Fatalf("direct invoke = %v", got)
	}
	if buf.Len() != 0 {
		t.Errorf("untracked invoke traced: %q", buf.String())
	}
}

func TestInvokeUnknownMethodPanics(t *testing.T) {
	captureTrace(t)
	defer func() {
		if recover() == nil {
			t.Error("Invoke should panic on an unknown method")
		}
	}()
	Invoke(&register{}, "Bogus")
}

func TestTrackMemfunUnknownMethodPanics(t *testing.T) {
	captureTrace(t)
	defer func() {
		if recover() == nil {
			t.Error("TrackMemfun should panic on an unknown method")
		}
	}()
	TrackMemfun(&register{}, "Bogus")
}

func TestTrackedMethodStripsReceiverFromArgs(t *testing.T) {
	buf := captureTrace(t)
	r := &register{}
	TrackMemfun(r, "Add")
	buf.Reset()

	Invoke(r, "Add", 4)
	got := buf.String()
	// The receiver shows up in the call name, not as an argument line.
	if !strings.Contains(got, "register<0x") {
		t.Errorf("receiver tag missing from call name: %q", got)
	}
	if strings.Count(got, "\t") != 1 {
		t.Errorf("want exactly one argument line: %q", got)
	}
}

type service struct {
	Handle func(int) (int, error)
	calls  int
}

func (s *service) Bump() int {
	s.calls++
	return s.calls
}

func TestTrackObjectWrapsFuncFields(t *testing.T) {
	buf := captureTrace(t)
	s := &service{Handle: func(n int) (int, error) { return n * 2, nil }}
	TrackObject(s)

	if !strings.Contains(buf.String(), "Tracking class service") {
		t.Errorf("announcement = %q", buf.String())
	}

	buf.Reset()
	got, err := s.Handle(4)
	if err != nil || got != 8 {
		t.Fatalf("wrapped field call = %v, %v", got, err)
	}
	// Exactly one call block: the wrapper must hold the original
	// function, not the replaced field.
	if n := strings.Count(buf.String(), "service.Handle("); n != 1 {
		t.Errorf("call blocks = %d, want 1\n%s", n, buf.String())
	}
}

func TestTrackObjectRegistersMethods(t *testing.T) {
	buf := captureTrace(t)
	s := &service{Handle: func(n int) (int, error) { return n, nil }}
	TrackObject(s)
	buf.Reset()

	if got := Invoke(s, "Bump")[0]; got != 1 {
		t.Fatalf("Bump = %v", got)
	}
	if !strings.Contains(buf.String(), "Bump(") {
		t.Errorf("method trace = %q", buf.String())
	}
}

func TestTrackObjectWithAttrs(t *testing.T) {
	buf := captureTrace(t)
	type cell struct{ V int }
	c := &cell{}
	TrackObject(c, WithAttrs(All))

	o := NewObservable("cell")
	buf.Reset()
	o.Set("V", 1)
	if !strings.Contains(buf.String(), ".V := 1") {
		t.Errorf("class-wide attr tracking not registered: %q", buf.String())
	}
}

func TestTrackDisabledReturnsOriginal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Disable = true
	Init(cfg)
	t.Cleanup(func() { Init(DefaultConfig()) })

	f := func() int { return 1 }
	if got := Track(f); fmt.Sprintf("%p", got) != fmt.Sprintf("%p", f) {
		t.Error("disabled Track should return the original function")
	}
}
