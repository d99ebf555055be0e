package pov

import (
	"fmt"
	"reflect"
	"strconv"
	"sync/atomic"

	"pov/internal/style"
)

// All is the sentinel attribute name meaning "watch every attribute".
const All = "*"

// nextOrdinal assigns stable ordinal ids to tracked entities. The id is
// what the identity-range filter matches against.
var nextOrdinal uint64

func newOrdinal() uint64 {
	return atomic.AddUint64(&nextOrdinal, 1)
}

// watchSet is the set of watched attribute names; the All sentinel as a
// member means everything.
type watchSet map[string]struct{}

func (s watchSet) covers(attr string) bool {
	if _, ok := s[All]; ok {
		return true
	}
	_, ok := s[attr]
	return ok
}

// attrRegistry maps classes (all instances) and individual observables to
// their watched attribute sets. Registration is additive; once a class or
// instance appears here, every Set on a matching observable consults it.
var attrRegistry = struct {
	classes   map[string]watchSet
	instances map[uint64]watchSet
}{
	classes:   map[string]watchSet{},
	instances: map[uint64]watchSet{},
}

// Observable is the explicit wrapper that makes attribute writes
// observable. A bag-backed observable (NewObservable) owns its field
// storage; a write-through observable (Wrap) forwards Set and Get to the
// fields of an underlying struct.
type Observable struct {
	id     uint64
	class  string
	target reflect.Value // struct value via pointer; invalid for bag mode
	fields map[string]any
}

// NewObservable creates a bag-backed observable of the given class name.
func NewObservable(class string) *Observable {
	return &Observable{
		id:     newOrdinal(),
		class:  class,
		fields: map[string]any{},
	}
}

// Wrap creates a write-through observable over a pointer to struct. Sets
// on watched exported fields are traced and stored into the struct itself.
func Wrap(target any) *Observable {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Errorf("pov: Wrap needs a pointer to struct, got %T", target))
	}
	return &Observable{
		id:     newOrdinal(),
		class:  rv.Elem().Type().Name(),
		target: rv.Elem(),
	}
}

// ID returns the observable's ordinal id.
func (o *Observable) ID() uint64 { return o.id }

// Class returns the class name used for class-wide tracking.
func (o *Observable) Class() string { return o.class }

// tag renders the identity tag Class<#id>.
func (o *Observable) tag() style.Fragment {
	return style.Template(
		style.Styled(style.Obj, o.class),
		style.Styled(style.ID, "#"+strconv.FormatUint(o.id, 10)),
	)
}

// watched reports whether a write to attr on this observable is traced.
func (o *Observable) watched(attr string) bool {
	if attrRegistry.classes[o.class].covers(attr) {
		return true
	}
	return attrRegistry.instances[o.id].covers(attr)
}

// Set assigns a field, tracing the write when the attribute is watched for
// this observable's class or for this instance. Assigned dynamic
// containers (map[string]any, []any, or an existing Dict/List proxy) are
// substituted by proxies named after the attribute path, so later in-place
// mutations keep tracing. The assignment itself always happens: on a
// write-through observable the struct field receives the native
// container, and the proxy lives in the side bag for Get.
func (o *Observable) Set(attr string, value any) {
	ensureInit()
	traced := !disabled() && o.watched(attr) && global.ids.allows(o.id)

	if traced {
		p := New()
		b := p.open(style.Attr)
		b.Print(style.Member(o.tag(), attr), ":=", p.value(value))
		b.Close()
	}

	stored := value
	if o.watched(attr) {
		stored = adoptContainer(value, style.Member(o.tag(), attr))
	}
	if raw, ok := proxyContents(stored); ok && o.target.IsValid() {
		o.store(attr, raw)
		o.stash(attr, stored)
		return
	}
	o.store(attr, stored)
}

// proxyContents extracts the native container behind a Dict or List proxy.
func proxyContents(v any) (raw any, ok bool) {
	switch p := v.(type) {
	case *Dict:
		return p.Unwrap(), true
	case *List:
		return p.Unwrap(), true
	}
	return nil, false
}

func (o *Observable) stash(attr string, value any) {
	if o.fields == nil {
		o.fields = map[string]any{}
	}
	o.fields[attr] = value
}

// adoptContainer substitutes a proxy for dynamic container values so that
// tracking flows into nested structures. The substitution is durable: the
// proxy replaces the raw value in storage.
func adoptContainer(value any, name style.Fragment) any {
	switch v := value.(type) {
	case *Dict:
		v.rename(name)
		return v
	case *List:
		v.rename(name)
		return v
	case map[string]any:
		return newDict(name, v)
	case []any:
		return newList(name, v)
	default:
		return value
	}
}

func (o *Observable) store(attr string, value any) {
	if !o.target.IsValid() {
		o.fields[attr] = value
		return
	}
	f := o.target.FieldByName(attr)
	if !f.IsValid() || !f.CanSet() {
		// Unknown or unexported fields fall back to the side bag, so the
		// write is never silently lost.
		if o.fields == nil {
			o.fields = map[string]any{}
		}
		o.fields[attr] = value
		return
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		f.Set(reflect.Zero(f.Type()))
		return
	}
	if rv.Type().AssignableTo(f.Type()) {
		f.Set(rv)
		return
	}
	if rv.Type().ConvertibleTo(f.Type()) {
		f.Set(rv.Convert(f.Type()))
		return
	}
	if o.fields == nil {
		o.fields = map[string]any{}
	}
	o.fields[attr] = value
}

// Get reads a field back; proxies substituted by Set are returned as-is.
func (o *Observable) Get(attr string) any {
	if v, ok := o.fields[attr]; ok {
		return v
	}
	if o.target.IsValid() {
		f := o.target.FieldByName(attr)
		if f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	}
	return nil
}

// Track watches the given attributes on this instance only. Use the All
// sentinel to watch everything.
func (o *Observable) Track(attrs ...string) *Observable {
	TrackAttr(o, attrs...)
	return o
}

// Untrack removes attributes from this instance's watch set. Untrack(All)
// clears it. Class-wide watches are unaffected.
func (o *Observable) Untrack(attrs ...string) *Observable {
	set := attrRegistry.instances[o.id]
	for _, a := range attrs {
		if a == All {
			delete(attrRegistry.instances, o.id)
			return o
		}
		delete(set, a)
	}
	return o
}

// TrackAttr registers attribute-change tracking. The target is either an
// *Observable (that instance only) or a class-name string (every
// observable of that class). Registration is additive across calls.
func TrackAttr(target any, attrs ...string) {
	ensureInit()

	var set watchSet
	var targetTag style.Fragment
	switch t := target.(type) {
	case *Observable:
		set = attrRegistry.instances[t.id]
		if set == nil {
			set = watchSet{}
			attrRegistry.instances[t.id] = set
		}
		targetTag = t.tag()
	case string:
		set = attrRegistry.classes[t]
		if set == nil {
			set = watchSet{}
			attrRegistry.classes[t] = set
		}
		targetTag = style.Styled(style.Obj, t)
	default:
		panic(fmt.Errorf("pov: TrackAttr target must be *Observable or class name string, got %T", target))
	}

	for _, a := range attrs {
		set[a] = struct{}{}
	}

	if disabled() {
		return
	}
	attrMsg := style.Fragment{}
	if set.covers(All) {
		attrMsg = style.Text("all attrs")
	} else {
		frags := make([]style.Fragment, 0, len(attrs))
		for _, a := range attrs {
			frags = append(frags, style.Styled(style.Var, a))
		}
		attrMsg = style.Join(style.Text(", "), frags...)
	}
	b := global.sess.Open(style.Info)
	b.Print("Tracking", attrMsg, "for", targetTag)
	b.Close()
}

// UntrackAttr removes class-wide watches. UntrackAttr(class, All) clears
// the class entry entirely.
func UntrackAttr(class string, attrs ...string) {
	set := attrRegistry.classes[class]
	for _, a := range attrs {
		if a == All {
			delete(attrRegistry.classes, class)
			return
		}
		delete(set, a)
	}
}
