// Package valuefmt renders arbitrary Go values as styled fragments with a
// bounded recursion depth. Past the depth limit, compound values collapse to
// an opaque Type<id> placeholder (or Type{string} for fmt.Stringer values).
//
// A depth of -1 means unlimited. There is no cycle detection: unlimited
// depth over a cyclic structure does not terminate.
package valuefmt

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"pov/internal/style"
)

const shortStringWidth = 16

// Print renders v to the given depth limit. When full is set, unexported
// struct fields are probed as well.
func Print(v any, depth int, full bool) style.Fragment {
	return render(reflect.ValueOf(v), depth, full, 0)
}

func render(rv reflect.Value, depth int, full bool, level int) style.Fragment {
	if !rv.IsValid() {
		return style.Styled(style.Obj, "nil")
	}
	rv = indirect(rv)
	if !rv.IsValid() {
		return style.Styled(style.Obj, "nil")
	}

	switch rv.Kind() {
	case reflect.Bool:
		return style.Styled(style.Const, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return style.Styled(style.Const, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return style.Styled(style.Const, rv.Uint())
	case reflect.Float32, reflect.Float64:
		return style.Styled(style.Const, rv.Float())
	case reflect.Complex64, reflect.Complex128:
		return style.Styled(style.Const, rv.Complex())
	case reflect.String:
		return style.Styled(style.Const, strconv.Quote(rv.String()))
	}

	if depth == 0 && !shortRepr(rv) {
		return placeholder(rv)
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return renderSeq(rv, depth, full, level)
	case reflect.Map:
		return renderMap(rv, depth, full, level)
	case reflect.Struct:
		return renderStruct(rv, depth, full, level)
	default:
		// Channels, funcs and anything else opaque.
		return placeholder(rv)
	}
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return reflect.Value{}
		}
		if rv.Kind() == reflect.Interface && rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func placeholder(rv reflect.Value) style.Fragment {
	v := iface(rv)
	if s, ok := v.(fmt.Stringer); ok {
		return style.Concat(
			style.TypeName(rv.Type()),
			style.Styled(style.Expr, "{"+s.String()+"}"),
		)
	}
	return style.Instance(v)
}

// iface extracts an interface value even for unexported fields, falling
// back to a zero-information copy when the value cannot be interfaced.
func iface(rv reflect.Value) any {
	if rv.CanInterface() {
		return rv.Interface()
	}
	return reflect.Zero(rv.Type()).Interface()
}

// shortRepr reports whether a value renders compactly enough to show inline
// even when the depth budget is spent.
func shortRepr(rv reflect.Value) bool {
	rv = indirect(rv)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.String:
		return runewidth.StringWidth(rv.String()) < shortStringWidth
	case reflect.Slice, reflect.Array:
		switch rv.Len() {
		case 0:
			return true
		case 1:
			return shortRepr(rv.Index(0))
		}
		return false
	case reflect.Map:
		switch rv.Len() {
		case 0:
			return true
		case 1:
			k := rv.MapKeys()[0]
			return shortRepr(k) && shortRepr(rv.MapIndex(k))
		}
		return false
	default:
		return false
	}
}

// tab picks the separator whitespace: a single space for flat short
// containers, a newline plus indentation otherwise.
func tab(flat bool, level int) string {
	if flat {
		return " "
	}
	return "\n" + strings.Repeat("  ", level+1)
}

func renderSeq(rv reflect.Value, depth int, full bool, level int) style.Fragment {
	n := rv.Len()
	allShort := true
	for i := 0; i < n; i++ {
		if !shortRepr(rv.Index(i)) {
			allShort = false
			break
		}
	}
	t := tab((depth-1 == 0 || allShort) && n < 10, level)

	elems := make([]style.Fragment, 0, n)
	for i := 0; i < n; i++ {
		elems = append(elems, render(rv.Index(i), depth-1, full, level+1))
	}
	return style.Concat(
		style.Styled(style.Expr, "["+t),
		style.Join(style.Styled(style.Expr, ","+t), elems...),
		style.Text(t),
		style.Styled(style.Expr, "]"),
	)
}

func renderMap(rv reflect.Value, depth int, full bool, level int) style.Fragment {
	n := rv.Len()
	if n == 0 {
		return style.Concat(style.TypeName(rv.Type()), style.Styled(style.Expr, "()"))
	}

	keys := rv.MapKeys()
	sortKeys(keys)

	allShort := true
	stringKeys := true
	for _, k := range keys {
		if !shortRepr(k) || !shortRepr(rv.MapIndex(k)) {
			allShort = false
		}
		if k.Kind() != reflect.String {
			stringKeys = false
		}
	}
	t := tab((depth-1 == 0 || allShort) && n < 5, level)

	if stringKeys {
		pairs := make([]style.Fragment, 0, n)
		for _, k := range keys {
			pairs = append(pairs, style.Concat(
				style.Styled(style.Attr, k.String()),
				style.Text("="),
				render(rv.MapIndex(k), depth-1, full, level+1),
			))
		}
		return style.Concat(
			style.TypeName(rv.Type()),
			style.Text("("+t),
			style.Join(style.Text(","+t), pairs...),
			style.Text(t+")"),
		)
	}

	pairs := make([]style.Fragment, 0, n)
	for _, k := range keys {
		pairs = append(pairs, style.Concat(
			render(k, depth-1, full, level+1),
			style.Styled(style.Expr, " : "),
			render(rv.MapIndex(k), depth-1, full, level+1),
		))
	}
	return style.Concat(
		style.Styled(style.Expr, "{"+t),
		style.Join(style.Styled(style.Expr, ","+t), pairs...),
		style.Text(t),
		style.Styled(style.Expr, "}"),
	)
}

func renderStruct(rv reflect.Value, depth int, full bool, level int) style.Fragment {
	t := rv.Type()
	type fieldPair struct {
		name  string
		value reflect.Value
	}
	fields := make([]fieldPair, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() && !full {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Func {
			continue
		}
		fields = append(fields, fieldPair{f.Name, fv})
	}
	if len(fields) == 0 {
		return placeholder(rv)
	}

	allShort := true
	for _, f := range fields {
		if !shortRepr(f.value) {
			allShort = false
			break
		}
	}
	sep := tab((depth-1 == 0 || allShort) && len(fields) < 5, level)

	pairs := make([]style.Fragment, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, style.Concat(
			style.Styled(style.Attr, f.name),
			style.Text("="),
			renderField(f.value, depth-1, full, level+1),
		))
	}
	return style.Concat(
		style.Instance(iface(rv)),
		style.Text("("+sep),
		style.Join(style.Text(","+sep), pairs...),
		style.Text(sep+")"),
	)
}

// renderField handles unexported fields, which cannot be interfaced: basic
// kinds are formatted from the reflect value directly, compound ones
// collapse to a type placeholder.
func renderField(rv reflect.Value, depth int, full bool, level int) style.Fragment {
	if rv.CanInterface() {
		return render(rv, depth, full, level)
	}
	switch rv.Kind() {
	case reflect.Bool:
		return style.Styled(style.Const, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return style.Styled(style.Const, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return style.Styled(style.Const, rv.Uint())
	case reflect.Float32, reflect.Float64:
		return style.Styled(style.Const, rv.Float())
	case reflect.String:
		return style.Styled(style.Const, strconv.Quote(rv.String()))
	default:
		return style.Template(style.TypeName(rv.Type()), style.Styled(style.ID, "?"))
	}
}

// sortKeys orders map keys deterministically for stable trace output.
func sortKeys(keys []reflect.Value) {
	if len(keys) < 2 {
		return
	}
	lessFn := func(a, b reflect.Value) bool {
		switch a.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		case reflect.String:
			return a.String() < b.String()
		default:
			return fmt.Sprint(iface(a)) < fmt.Sprint(iface(b))
		}
	}
	// Insertion sort: key counts here are tiny.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && lessFn(keys[j], keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}
