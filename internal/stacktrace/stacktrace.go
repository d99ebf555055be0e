// Package stacktrace captures bounded call-stack slices and renders them
// incrementally: only frames that diverge from the previously rendered
// stack are shown, the way a diff shows only changed lines.
package stacktrace

import (
	"os"
	"runtime"
	"strings"
)

// Frame is one captured call site, outermost-first in a Stack.
type Frame struct {
	File     string
	Line     int
	Function string
}

// Stack is a captured slice of the call stack, outermost frame first.
type Stack []Frame

// maxCapture bounds how many raw frames are read from the runtime before
// filtering. Deep recursions past this window lose their outermost frames.
const maxCapture = 128

// ownPrefixes are function prefixes belonging to this library; their frames
// never appear in traces.
var ownPrefixes = []string{
	"pov.",
	"pov/internal/",
}

// extraExcluded holds caller-registered exclusion prefixes.
var extraExcluded []string

// Exclude registers additional function-name prefixes to filter from
// captured stacks.
func Exclude(prefixes ...string) {
	extraExcluded = append(extraExcluded, prefixes...)
}

// fileExists caches existence checks for frame files, so that frames from
// generated or stripped sources are filtered without repeated stats.
var fileExists = map[string]bool{}

func existingFile(path string) bool {
	if ok, seen := fileExists[path]; seen {
		return ok
	}
	_, err := os.Stat(path)
	fileExists[path] = err == nil
	return err == nil
}

func excluded(fn string) bool {
	for _, p := range ownPrefixes {
		if strings.HasPrefix(fn, p) {
			return true
		}
	}
	for _, p := range extraExcluded {
		if strings.HasPrefix(fn, p) {
			return true
		}
	}
	// Runtime plumbing below main is noise in every trace.
	return strings.HasPrefix(fn, "runtime.")
}

// Capture returns the active call stack, outermost frame first, skipping
// the given number of innermost frames, the library's own frames, runtime
// frames, and frames whose source file no longer exists. limit bounds the
// number of kept frames (innermost); limit <= 0 keeps everything captured.
func Capture(skip, limit int) Stack {
	pcs := make([]uintptr, maxCapture)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])

	// Innermost-first while reading, reversed at the end.
	var inner []Frame
	for {
		f, more := frames.Next()
		if f.Function != "" && !excluded(f.Function) && existingFile(f.File) {
			inner = append(inner, Frame{File: f.File, Line: f.Line, Function: shortFunc(f.Function)})
		}
		if !more {
			break
		}
	}
	if limit > 0 && len(inner) > limit {
		inner = inner[:limit]
	}

	out := make(Stack, len(inner))
	for i, f := range inner {
		out[len(inner)-1-i] = f
	}
	return out
}

// shortFunc trims the package path from a runtime function name, keeping
// receiver and method: "pkg/path.(*T).M" -> "(*T).M".
func shortFunc(fn string) string {
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		fn = fn[i+1:]
	}
	if i := strings.IndexByte(fn, '.'); i >= 0 {
		return fn[i+1:]
	}
	return fn
}

// Equal reports whether two frames denote the same call site.
func (f Frame) Equal(o Frame) bool {
	return f.File == o.File && f.Line == o.Line && f.Function == o.Function
}

// CommonPrefix returns the number of leading frames shared by two stacks.
func CommonPrefix(a, b Stack) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i].Equal(b[i]) {
		i++
	}
	return i
}
