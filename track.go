package pov

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"pov/internal/style"
)

// trackOpts carries wrapper configuration.
type trackOpts struct {
	name            string
	attrs           []string
	interactOnPanic bool
	interactVars    Vars
	stripReceiver   bool
	recvTag         func(recv any) style.Fragment
}

// TrackOption configures Track, TrackObject and TrackMemfun.
type TrackOption func(*trackOpts)

// WithName overrides the display name of the tracked callable.
func WithName(name string) TrackOption {
	return func(o *trackOpts) { o.name = name }
}

// WithInteractOnPanic opens an interactive session over vars when the
// tracked callable panics, before the panic is re-raised.
func WithInteractOnPanic(vars Vars) TrackOption {
	return func(o *trackOpts) {
		o.interactOnPanic = true
		o.interactVars = vars
	}
}

// WithAttrs additionally registers class-wide attribute tracking when
// passed to TrackObject.
func WithAttrs(attrs ...string) TrackOption {
	return func(o *trackOpts) { o.attrs = attrs }
}

// Track wraps a function so every invocation is traced: one call block
// holding the arguments, then the results or the panic. The wrapper has
// the same dynamic type as fn and is returned as any. Results pass
// through unchanged and a panic propagates with the identical value
// after being logged.
func Track(fn any, opts ...TrackOption) any {
	if disabled() {
		return fn
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		panic(fmt.Errorf("pov: Track needs a function, got %T", fn))
	}

	var o trackOpts
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = funcName(rv)
	}
	nameFrag := style.FuncName(o.name)

	b := global.sess.Open(style.Info)
	b.Print("Tracking function", nameFrag)
	b.Close()

	return wrapCallable(rv, nameFrag, o).Interface()
}

// TrackFunc is Track with the static type preserved.
func TrackFunc[F any](fn F, opts ...TrackOption) F {
	return Track(fn, opts...).(F)
}

// funcName resolves a function's name from the runtime, trimmed to its
// last path segment.
func funcName(rv reflect.Value) string {
	f := runtime.FuncForPC(rv.Pointer())
	if f == nil {
		return rv.Type().String()
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// wrapCallable builds the traced replacement via reflect.MakeFunc.
func wrapCallable(orig reflect.Value, name style.Fragment, o trackOpts) reflect.Value {
	t := orig.Type()
	id := newOrdinal()

	return reflect.MakeFunc(t, func(args []reflect.Value) []reflect.Value {
		if disabled() || !global.ids.allows(id) {
			return call(orig, args)
		}

		p := New()
		callName := name
		logged := args
		if o.stripReceiver && len(args) > 0 {
			if o.recvTag != nil {
				callName = style.Concat(o.recvTag(args[0].Interface()), style.Text("."), name)
			}
			logged = args[1:]
		}

		b := p.open(style.Func)
		b.Print(style.Concat(callName, style.Text("(")))
		for i, arg := range logged {
			if t.IsVariadic() && i == len(logged)-1 {
				// The variadic tail arrives packed; show each element.
				for j := 0; j < arg.Len(); j++ {
					b.Print("\t", p.value(arg.Index(j).Interface()))
				}
				continue
			}
			b.Print("\t", p.value(arg.Interface()))
		}

		var results []reflect.Value
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.Append(style.Bad, ")", "><", style.Panic(r))
					b.Close()
					if o.interactOnPanic {
						p.Interact(o.interactVars, InteractOpt{NormalQuit: true})
					}
					panic(r)
				}
			}()
			results = call(orig, args)
		}()

		b.Append(style.OK, append([]any{")", "=>"}, renderResults(p, results)...)...)
		b.Close()
		return results
	})
}

func call(orig reflect.Value, args []reflect.Value) []reflect.Value {
	if orig.Type().IsVariadic() {
		return orig.CallSlice(args)
	}
	return orig.Call(args)
}

// renderResults formats return values; a trailing non-nil error renders in
// exception style.
func renderResults(p *POV, results []reflect.Value) []any {
	if len(results) == 0 {
		return []any{style.Styled(style.Obj, "()")}
	}
	out := make([]any, 0, len(results))
	for i, r := range results {
		if i == len(results)-1 && r.Type() == errType && !r.IsNil() {
			out = append(out, style.Exception(r.Interface().(error)))
			continue
		}
		out = append(out, p.value(r.Interface()))
	}
	return out
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// classMarker requests class-wide method tracking.
type classMarker struct {
	t reflect.Type
}

// Class marks every instance of v's type for TrackMemfun.
func Class(v any) classMarker {
	return classMarker{t: reflect.TypeOf(v)}
}

// memfunEntry is one tracked method: the traced replacement plus the
// instance it is scoped to (nil for class-wide).
type memfunEntry struct {
	instance any
	wrapped  reflect.Value
}

// funcRegistry maps receiver type and method name to the tracked
// replacement. Installed entries are consulted by Invoke before normal
// dispatch; lookups for untracked names or foreign instances fall through
// untouched.
var funcRegistry = map[reflect.Type]map[string]*memfunEntry{}

// TrackMemfun registers call tracing for a single named method. The
// target is either an instance (only identity-equal receivers trace) or a
// Class marker (every receiver of that type traces). Subsequent calls for
// other methods just add registry entries.
func TrackMemfun(target any, method string, opts ...TrackOption) {
	if disabled() {
		return
	}

	var t reflect.Type
	var instance any
	if m, ok := target.(classMarker); ok {
		t = m.t
	} else {
		t = reflect.TypeOf(target)
		instance = target
	}

	mt, ok := t.MethodByName(method)
	if !ok {
		panic(fmt.Errorf("pov: %s has no method %q", t, method))
	}

	var o trackOpts
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = method
	}
	o.stripReceiver = true
	o.recvTag = func(recv any) style.Fragment { return style.Instance(recv) }

	nameFrag := style.FuncName(o.name)
	b := global.sess.Open(style.Info)
	b.Print("Tracking method", style.Member(style.TypeName(t), method))
	b.Close()

	methods := funcRegistry[t]
	if methods == nil {
		methods = map[string]*memfunEntry{}
		funcRegistry[t] = methods
	}
	methods[method] = &memfunEntry{
		instance: instance,
		wrapped:  wrapCallable(mt.Func, nameFrag, o),
	}
}

// Untrack removes call tracing for a method registered with TrackMemfun
// or TrackObject. The target is an instance or a Class marker; either
// form clears the registry slot for that receiver type.
func Untrack(target any, method string) {
	var t reflect.Type
	if m, ok := target.(classMarker); ok {
		t = m.t
	} else {
		t = reflect.TypeOf(target)
	}
	if methods := funcRegistry[t]; methods != nil {
		delete(methods, method)
	}
}

// Invoke dispatches a method call through the tracking registry: a
// tracked method on a matching receiver goes through the traced wrapper,
// anything else dispatches directly. Results come back as a plain slice.
func Invoke(recv any, method string, args ...any) []any {
	t := reflect.TypeOf(recv)
	if entry := lookupMemfun(t, method); entry != nil &&
		(entry.instance == nil || sameInstance(entry.instance, recv)) {
		in := make([]reflect.Value, 0, len(args)+1)
		in = append(in, reflect.ValueOf(recv))
		for i, a := range args {
			in = append(in, conv(a, argType(entry.wrapped.Type(), i+1)))
		}
		return valuesToAny(entry.wrapped.Call(in))
	}

	m := reflect.ValueOf(recv).MethodByName(method)
	if !m.IsValid() {
		panic(fmt.Errorf("pov: %T has no method %q", recv, method))
	}
	in := make([]reflect.Value, 0, len(args))
	for i, a := range args {
		in = append(in, conv(a, argType(m.Type(), i)))
	}
	return valuesToAny(m.Call(in))
}

// argType resolves the expected type of positional argument i, unpacking
// the slice type for variadic tails.
func argType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

func lookupMemfun(t reflect.Type, method string) *memfunEntry {
	if methods := funcRegistry[t]; methods != nil {
		return methods[method]
	}
	return nil
}

func sameInstance(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.Pointer && rb.Kind() == reflect.Pointer {
		return ra.Pointer() == rb.Pointer()
	}
	if ra.Comparable() && rb.Comparable() {
		return a == b
	}
	return false
}

func valuesToAny(values []reflect.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.Interface()
	}
	return out
}

// TrackObject instruments one object: every exported func-typed field of
// the pointed-to struct is replaced in place by a traced wrapper, and
// every exported method is registered for this instance so Invoke traces
// it. WithAttrs additionally registers class-wide attribute tracking for
// the struct's type name.
func TrackObject(target any, opts ...TrackOption) {
	if disabled() {
		return
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Errorf("pov: TrackObject needs a pointer to struct, got %T", target))
	}

	var o trackOpts
	for _, opt := range opts {
		opt(&o)
	}
	className := o.name
	if className == "" {
		className = rv.Elem().Type().Name()
	}
	classFrag := style.Styled(style.Obj, className)

	b := global.sess.Open(style.Info)
	b.Print("Tracking class", classFrag)
	b.Close()

	if len(o.attrs) > 0 {
		TrackAttr(className, o.attrs...)
	}

	// Callable members: exported func-typed fields get wrapped in place.
	st := rv.Elem()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		ft := st.Type().Field(i)
		if !ft.IsExported() || f.Kind() != reflect.Func || f.IsNil() || !f.CanSet() {
			continue
		}
		fo := o
		fo.name = className + "." + ft.Name
		// Snapshot the field value; wrapping the addressable field itself
		// would make the wrapper call back into the field it replaced.
		orig := reflect.ValueOf(f.Interface())
		f.Set(wrapCallable(orig, style.Member(classFrag, ft.Name), fo))
	}

	// Methods route through the memfun registry, scoped to this instance.
	t := rv.Type()
	for i := 0; i < t.NumMethod(); i++ {
		TrackMemfun(target, t.Method(i).Name)
	}
}
