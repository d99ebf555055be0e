package pov

import (
	"pov/internal/stacktrace"
	"pov/internal/style"
)

// ExitOnPanic reports an escaping panic as a trace block and terminates
// the process with status 255. Use it as a deferred call at the top of
// main:
//
//	defer pov.ExitOnPanic()
//
// A goroutine that panics elsewhere is out of reach; only panics
// unwinding through the deferring frame are caught. With KeepPanicHook
// set the panic is re-raised untouched so the runtime prints its usual
// trace.
func ExitOnPanic() {
	r := recover()
	if r == nil {
		return
	}
	if disabled() || global.cfg.KeepPanicHook {
		panic(r)
	}

	b := global.sess.OpenDepth(style.Bad, -1)
	b.Print("Terminated with uncaught panic")
	for _, f := range stacktrace.Capture(2, 0) {
		b.Print("\t", f.Render())
	}
	b.Print(style.Panic(r))
	b.Close()
	osExit(255)
}
