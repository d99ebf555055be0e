package pov

import (
	"fmt"
	"reflect"

	"pov/internal/style"
)

// Dict is a drop-in mutation-traced wrapper around a native map. Every
// mutating operation emits one trace line and then delegates to the map
// itself, so behavior and results are exactly those of the raw map.
// Non-mutating reads are not intercepted; the one exception is Get, whose
// key misses are diagnostically interesting and logged.
//
// The wrapper is reflection-backed so any map type can be adopted; the
// original map remains the storage and is visible through Unwrap.
type Dict struct {
	id   uint64
	name style.Fragment
	m    reflect.Value
}

// NewDict wraps a native map under a display name.
func NewDict(name string, m any) *Dict {
	return newDict(style.Styled(style.Obj, name), m)
}

func newDict(name style.Fragment, m any) *Dict {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		panic(fmt.Errorf("pov: Dict needs a map, got %T", m))
	}
	d := &Dict{id: newOrdinal(), name: name, m: rv}
	if !disabled() && global.ids.allows(d.id) {
		b := global.sess.Open(style.Info)
		b.Print("Intercepting", style.TypeName(rv.Type()), "instance", name)
		b.Close()
	}
	return d
}

func (d *Dict) rename(name style.Fragment) { d.name = name }

// trace emits one attribute-category line for a mutation.
func (d *Dict) trace(parts ...any) {
	if disabled() || !global.ids.allows(d.id) {
		return
	}
	b := global.sess.Open(style.Attr)
	b.Print(parts...)
	b.Close()
}

func (d *Dict) value(v any) style.Fragment {
	ensureInit()
	return New().value(v)
}

// conv coerces a dynamic key or value to the map's expected type.
func conv(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t)
	}
	panic(fmt.Errorf("pov: cannot use %T as %s", v, t))
}

// Unwrap returns the underlying native map.
func (d *Dict) Unwrap() any { return d.m.Interface() }

// Len returns the number of entries.
func (d *Dict) Len() int { return d.m.Len() }

// Set stores key := value.
func (d *Dict) Set(key, value any) {
	d.trace(d.name, "[", d.value(key), "]", ":=", d.value(value))
	d.m.SetMapIndex(conv(key, d.m.Type().Key()), conv(value, d.m.Type().Elem()))
}

// Delete removes a key.
func (d *Dict) Delete(key any) {
	d.trace("del", d.name, "[", d.value(key), "]")
	d.m.SetMapIndex(conv(key, d.m.Type().Key()), reflect.Value{})
}

// Clear removes every entry.
func (d *Dict) Clear() {
	d.trace(d.name, "cleared")
	d.m.Clear()
}

// Get returns the value for key, or def when absent. Only the miss is
// traced: a miss and a hit can return the same value, which makes the
// difference invisible to the caller but interesting to the trace.
func (d *Dict) Get(key, def any) any {
	v := d.m.MapIndex(conv(key, d.m.Type().Key()))
	if !v.IsValid() {
		d.trace(d.name, "get(", d.value(key), ") missed", "=>", d.value(def))
		return def
	}
	return v.Interface()
}

// Pop removes and returns the value for key, or def when absent.
func (d *Dict) Pop(key, def any) any {
	k := conv(key, d.m.Type().Key())
	v := d.m.MapIndex(k)
	hit := v.IsValid()
	result := def
	if hit {
		result = v.Interface()
		d.m.SetMapIndex(k, reflect.Value{})
	}
	marker := "<miss>"
	if hit {
		marker = "<hit>"
	}
	d.trace(d.name, "pop(", d.value(key), ")", style.Styled(style.Info, marker), "=>", d.value(result))
	return result
}

// PopItem removes and returns an arbitrary entry; ok is false on an empty
// map.
func (d *Dict) PopItem() (key, value any, ok bool) {
	keys := d.m.MapKeys()
	if len(keys) == 0 {
		d.trace(d.name, "popitem", style.Styled(style.Info, "<empty>"))
		return nil, nil, false
	}
	k := keys[0]
	v := d.m.MapIndex(k)
	d.m.SetMapIndex(k, reflect.Value{})
	key, value = k.Interface(), v.Interface()
	d.trace(d.name, "popitem", "=>", "(", d.value(key), ",", d.value(value), ")")
	return key, value, true
}

// SetDefault stores def under key if absent, returning the value now
// present.
func (d *Dict) SetDefault(key, def any) any {
	k := conv(key, d.m.Type().Key())
	v := d.m.MapIndex(k)
	had := v.IsValid()
	result := def
	if had {
		result = v.Interface()
	} else {
		d.m.SetMapIndex(k, conv(def, d.m.Type().Elem()))
	}
	marker := "<updated>"
	if had {
		marker = "<no update>"
	}
	d.trace(d.name, "setdefault(", d.value(key), ")", "=>", d.value(result), style.Styled(style.Info, marker))
	return result
}

// Update bulk-stores every entry of the argument map.
func (d *Dict) Update(other any) {
	rv := reflect.ValueOf(other)
	if rv.Kind() != reflect.Map {
		panic(fmt.Errorf("pov: Dict.Update needs a map, got %T", other))
	}
	if !disabled() && global.ids.allows(d.id) {
		b := global.sess.Open(style.Attr)
		b.Print(d.name, "update:")
		for _, k := range rv.MapKeys() {
			b.Print("\t", d.value(k.Interface()), "=>", d.value(rv.MapIndex(k).Interface()))
		}
		b.Close()
	}
	for _, k := range rv.MapKeys() {
		d.m.SetMapIndex(conv(k.Interface(), d.m.Type().Key()), conv(rv.MapIndex(k).Interface(), d.m.Type().Elem()))
	}
}

// Merge is Update traced with the merge operator.
func (d *Dict) Merge(other any) {
	rv := reflect.ValueOf(other)
	if rv.Kind() != reflect.Map {
		panic(fmt.Errorf("pov: Dict.Merge needs a map, got %T", other))
	}
	if !disabled() && global.ids.allows(d.id) {
		b := global.sess.Open(style.Attr)
		b.Print(d.name, "|=")
		for _, k := range rv.MapKeys() {
			b.Print("\t", d.value(k.Interface()), "=>", d.value(rv.MapIndex(k).Interface()))
		}
		b.Close()
	}
	for _, k := range rv.MapKeys() {
		d.m.SetMapIndex(conv(k.Interface(), d.m.Type().Key()), conv(rv.MapIndex(k).Interface(), d.m.Type().Elem()))
	}
}
