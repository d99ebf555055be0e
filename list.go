package pov

import (
	"fmt"
	"reflect"

	"pov/internal/style"
)

// List is a drop-in mutation-traced wrapper around a native slice. Every
// mutating operation emits one trace line and then performs the same
// change the raw slice operation would, returning identical results.
// Reads are not intercepted.
//
// The wrapper owns the slice header: growth operations re-slice in place
// of the original, and Unwrap returns the current storage.
type List struct {
	id   uint64
	name style.Fragment
	v    reflect.Value
}

// NewList wraps a native slice under a display name.
func NewList(name string, s any) *List {
	return newList(style.Styled(style.Obj, name), s)
}

func newList(name style.Fragment, s any) *List {
	rv := reflect.ValueOf(s)
	if rv.Kind() != reflect.Slice {
		panic(fmt.Errorf("pov: List needs a slice, got %T", s))
	}
	l := &List{id: newOrdinal(), name: name, v: rv}
	if !disabled() && global.ids.allows(l.id) {
		b := global.sess.Open(style.Info)
		b.Print("Intercepting", style.TypeName(rv.Type()), "instance", name)
		b.Close()
	}
	return l
}

func (l *List) rename(name style.Fragment) { l.name = name }

func (l *List) trace(parts ...any) {
	if disabled() || !global.ids.allows(l.id) {
		return
	}
	b := global.sess.Open(style.Attr)
	b.Print(parts...)
	b.Close()
}

func (l *List) value(v any) style.Fragment {
	ensureInit()
	return New().value(v)
}

// Unwrap returns the underlying native slice.
func (l *List) Unwrap() any { return l.v.Interface() }

// Len returns the element count.
func (l *List) Len() int { return l.v.Len() }

// Index reads an element without tracing.
func (l *List) Index(i int) any { return l.v.Index(i).Interface() }

// elem coerces a dynamic value to the slice's element type.
func (l *List) elem(v any) reflect.Value {
	return conv(v, l.v.Type().Elem())
}

// norm resolves a possibly-negative index against the current length.
func (l *List) norm(i int) int {
	if i < 0 {
		return l.v.Len() + i
	}
	return i
}

// Set stores list[i] := value.
func (l *List) Set(i int, value any) {
	l.trace(l.name, "[", style.Styled(style.Const, i), "]", ":=", l.value(value))
	l.v.Index(l.norm(i)).Set(l.elem(value))
}

// Delete removes the element at index i.
func (l *List) Delete(i int) {
	l.trace("del", l.name, "[", style.Styled(style.Const, i), "]")
	i = l.norm(i)
	l.v = reflect.AppendSlice(l.v.Slice(0, i), l.v.Slice(i+1, l.v.Len()))
}

// Append adds values at the end.
func (l *List) Append(values ...any) {
	for _, v := range values {
		l.trace(l.name, "append(", l.value(v), ")")
		l.v = reflect.Append(l.v, l.elem(v))
	}
}

// Extend concatenates another slice in place.
func (l *List) Extend(other any) {
	rv := reflect.ValueOf(other)
	if rv.Kind() != reflect.Slice {
		panic(fmt.Errorf("pov: List.Extend needs a slice, got %T", other))
	}
	if !disabled() && global.ids.allows(l.id) {
		b := global.sess.Open(style.Attr)
		b.Print(l.name, "+=")
		for i := 0; i < rv.Len(); i++ {
			b.Print("\t", l.value(rv.Index(i).Interface()))
		}
		b.Close()
	}
	for i := 0; i < rv.Len(); i++ {
		l.v = reflect.Append(l.v, l.elem(rv.Index(i).Interface()))
	}
}

// Repeat replaces the contents with n concatenated copies. n <= 0 empties
// the list, matching in-place repetition semantics.
func (l *List) Repeat(n int) {
	l.trace(l.name, "*=", style.Styled(style.Const, n))
	if n <= 0 {
		l.v = l.v.Slice(0, 0)
		return
	}
	orig := l.v
	out := reflect.MakeSlice(l.v.Type(), 0, orig.Len()*n)
	for i := 0; i < n; i++ {
		out = reflect.AppendSlice(out, orig)
	}
	l.v = out
}

// Insert places value at index i, shifting the tail.
func (l *List) Insert(i int, value any) {
	l.trace(l.name, "insert", l.value(value), "at index", style.Styled(style.Const, i))
	i = l.norm(i)
	tail := reflect.MakeSlice(l.v.Type(), l.v.Len()-i, l.v.Len()-i)
	reflect.Copy(tail, l.v.Slice(i, l.v.Len()))
	l.v = reflect.Append(l.v.Slice(0, i), l.elem(value))
	l.v = reflect.AppendSlice(l.v, tail)
}

// Pop removes and returns the element at index i; -1 pops the last.
func (l *List) Pop(i int) any {
	idx := l.norm(i)
	value := l.v.Index(idx).Interface()
	l.v = reflect.AppendSlice(l.v.Slice(0, idx), l.v.Slice(idx+1, l.v.Len()))
	l.trace(l.name, "pop(", style.Styled(style.Const, i), ")", "=>", l.value(value))
	return value
}

// Remove deletes the first element equal to value, reporting whether one
// was found.
func (l *List) Remove(value any) bool {
	l.trace(l.name, "removing", l.value(value))
	for i := 0; i < l.v.Len(); i++ {
		if reflect.DeepEqual(l.v.Index(i).Interface(), value) {
			l.v = reflect.AppendSlice(l.v.Slice(0, i), l.v.Slice(i+1, l.v.Len()))
			return true
		}
	}
	return false
}

// Reverse reverses the elements in place.
func (l *List) Reverse() {
	l.trace(l.name, "in-place reversal")
	n := l.v.Len()
	tmp := reflect.New(l.v.Type().Elem()).Elem()
	for i := 0; i < n/2; i++ {
		a, b := l.v.Index(i), l.v.Index(n-1-i)
		tmp.Set(a)
		a.Set(b)
		b.Set(tmp)
	}
}

// Sort orders the elements in place with the given comparison.
func (l *List) Sort(less func(a, b any) bool) {
	l.trace(l.name, "sorted")
	n := l.v.Len()
	tmp := reflect.New(l.v.Type().Elem()).Elem()
	// Stable insertion sort; element counts here are tiny.
	for i := 1; i < n; i++ {
		for j := i; j > 0 && less(l.v.Index(j).Interface(), l.v.Index(j-1).Interface()); j-- {
			tmp.Set(l.v.Index(j))
			l.v.Index(j).Set(l.v.Index(j - 1))
			l.v.Index(j - 1).Set(tmp)
		}
	}
}

// Clear empties the list.
func (l *List) Clear() {
	l.trace(l.name, "cleared")
	l.v = l.v.Slice(0, 0)
}
