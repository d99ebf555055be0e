package style

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeName renders a type as dotted path segments (Path style) followed by
// the type name (Obj style). The main package prefix is elided, matching
// how traces should read from a program's own point of view.
func TypeName(t reflect.Type) Fragment {
	if t == nil {
		return Styled(Obj, "nil")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	pkg := t.PkgPath()
	name := t.Name()
	if name == "" {
		// Composite types (maps, slices, funcs) carry their full spelling.
		return Styled(Obj, t.String())
	}
	if pkg == "" || pkg == "main" {
		return Styled(Obj, name)
	}
	segs := strings.Split(pkg, "/")
	frags := make([]Fragment, 0, len(segs)+1)
	for _, s := range segs {
		if s == "main" {
			continue
		}
		frags = append(frags, Styled(Path, s))
	}
	frags = append(frags, Styled(Obj, name))
	return Join(Text("."), frags...)
}

// TypeOf is TypeName over a value's dynamic type.
func TypeOf(v any) Fragment {
	return TypeName(reflect.TypeOf(v))
}

// Instance renders an identity tag for a value: Type<0xaddr> when the value
// has a stable address (pointer-like kinds), Type<?> otherwise.
func Instance(v any) Fragment {
	if v == nil {
		return Styled(Obj, "nil")
	}
	return Template(TypeOf(v), Styled(ID, identityOf(v)))
}

func identityOf(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if rv.IsNil() {
			return "nil"
		}
		return fmt.Sprintf("0x%x", rv.Pointer())
	default:
		return "?"
	}
}

// Member renders an owner.attr access path.
func Member(owner Fragment, attr string) Fragment {
	return Concat(owner, Text("."), Styled(Var, attr))
}

// FuncName renders a function name in Func style.
func FuncName(name string) Fragment {
	return Styled(Func, name)
}

// Exception renders an error as "Type: message".
func Exception(err error) Fragment {
	if err == nil {
		return Styled(Obj, "nil")
	}
	return Concat(TypeOf(err), Text(": "), Styled(Bad, err.Error()))
}

// Panic renders a recovered panic value. Errors render as exceptions;
// anything else shows the value in Bad style with its type.
func Panic(v any) Fragment {
	if err, ok := v.(error); ok {
		return Exception(err)
	}
	return Concat(TypeOf(v), Text(": "), Styled(Bad, fmt.Sprint(v)))
}
