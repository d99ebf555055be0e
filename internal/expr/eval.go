// Package expr implements the small expression language used by view,
// check, nop and the interactive shell. Expressions are evaluated against
// an explicit variable context; evaluation failures are returned as errors
// for inline rendering, never panics.
//
// Supported: int/float/string/bool/nil literals, identifiers, selectors
// (struct field, map key, zero-argument method), indexing, len(),
// unary ! and -, and the usual arithmetic, comparison and boolean binary
// operators.
package expr

import (
	"errors"
	"fmt"
	"reflect"

	"fortio.org/safecast"
)

// Eval parses and evaluates src against vars.
func Eval(src string, vars map[string]any) (any, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return evalNode(n, vars)
}

func evalNode(n node, vars map[string]any) (any, error) {
	switch n := n.(type) {
	case litNode:
		return n.value, nil
	case identNode:
		v, ok := vars[n.name]
		if !ok {
			return nil, fmt.Errorf("undefined variable %q", n.name)
		}
		return v, nil
	case selectNode:
		base, err := evalNode(n.base, vars)
		if err != nil {
			return nil, err
		}
		return selectMember(base, n.name)
	case indexNode:
		base, err := evalNode(n.base, vars)
		if err != nil {
			return nil, err
		}
		idx, err := evalNode(n.index, vars)
		if err != nil {
			return nil, err
		}
		return indexValue(base, idx)
	case lenNode:
		arg, err := evalNode(n.arg, vars)
		if err != nil {
			return nil, err
		}
		return lengthOf(arg)
	case unaryNode:
		arg, err := evalNode(n.arg, vars)
		if err != nil {
			return nil, err
		}
		return applyUnary(n.op, arg)
	case binaryNode:
		return applyBinary(n, vars)
	default:
		return nil, fmt.Errorf("unsupported expression node %T", n)
	}
}

func selectMember(base any, name string) (any, error) {
	if base == nil {
		return nil, fmt.Errorf("cannot select %q from nil", name)
	}
	rv := reflect.ValueOf(base)

	// A zero-argument method takes priority over fields of the same name,
	// pointer receiver included.
	if m := rv.MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 && m.Type().NumOut() >= 1 {
		return m.Call(nil)[0].Interface(), nil
	}

	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot select %q from nil", name)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		f := rv.FieldByName(name)
		if !f.IsValid() {
			return nil, fmt.Errorf("%s has no field %q", rv.Type(), name)
		}
		if !f.CanInterface() {
			return nil, fmt.Errorf("field %q of %s is unexported", name, rv.Type())
		}
		return f.Interface(), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot select %q from %s", name, rv.Type())
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, fmt.Errorf("key %q not in map", name)
		}
		return v.Interface(), nil
	default:
		return nil, fmt.Errorf("cannot select %q from %s", name, rv.Kind())
	}
}

func indexValue(base, idx any) (any, error) {
	if base == nil {
		return nil, errors.New("cannot index nil")
	}
	rv := reflect.ValueOf(base)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, errors.New("cannot index nil")
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		i64, ok := asInt(idx)
		if !ok {
			return nil, fmt.Errorf("index must be an integer, got %T", idx)
		}
		i, err := safecast.Conv[int](i64)
		if err != nil {
			return nil, fmt.Errorf("index overflow: %w", err)
		}
		if i < 0 || i >= rv.Len() {
			return nil, fmt.Errorf("index %d out of range (len %d)", i, rv.Len())
		}
		if rv.Kind() == reflect.String {
			return string(rv.String()[i]), nil
		}
		return rv.Index(i).Interface(), nil
	case reflect.Map:
		key := reflect.ValueOf(idx)
		if !key.IsValid() || !key.Type().AssignableTo(rv.Type().Key()) {
			if key.IsValid() && key.Type().ConvertibleTo(rv.Type().Key()) {
				key = key.Convert(rv.Type().Key())
			} else {
				return nil, fmt.Errorf("cannot index %s with %T", rv.Type(), idx)
			}
		}
		v := rv.MapIndex(key)
		if !v.IsValid() {
			return nil, fmt.Errorf("key %v not in map", idx)
		}
		return v.Interface(), nil
	default:
		return nil, fmt.Errorf("cannot index %s", rv.Kind())
	}
}

func lengthOf(v any) (any, error) {
	if v == nil {
		return nil, errors.New("len of nil")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return int64(rv.Len()), nil
	default:
		return nil, fmt.Errorf("len of %s", rv.Kind())
	}
}

func applyUnary(op kind, arg any) (any, error) {
	switch op {
	case tokNot:
		return !Truthy(arg), nil
	case tokMinus:
		if i, ok := asInt(arg); ok {
			return -i, nil
		}
		if f, ok := asFloat(arg); ok {
			return -f, nil
		}
		return nil, fmt.Errorf("cannot negate %T", arg)
	default:
		return nil, fmt.Errorf("unsupported unary operator %s", op)
	}
}

func applyBinary(n binaryNode, vars map[string]any) (any, error) {
	// Short-circuit the boolean operators before evaluating the right side.
	if n.op == tokAnd || n.op == tokOr {
		left, err := evalNode(n.left, vars)
		if err != nil {
			return nil, err
		}
		if n.op == tokAnd && !Truthy(left) {
			return false, nil
		}
		if n.op == tokOr && Truthy(left) {
			return true, nil
		}
		right, err := evalNode(n.right, vars)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	left, err := evalNode(n.left, vars)
	if err != nil {
		return nil, err
	}
	right, err := evalNode(n.right, vars)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokEq:
		return equal(left, right), nil
	case tokNeq:
		return !equal(left, right), nil
	}

	if ls, lok := left.(string); lok {
		rs, rok := right.(string)
		if !rok {
			return nil, fmt.Errorf("mismatched operands: string %s %T", n.op, right)
		}
		switch n.op {
		case tokPlus:
			return ls + rs, nil
		case tokLt:
			return ls < rs, nil
		case tokLeq:
			return ls <= rs, nil
		case tokGt:
			return ls > rs, nil
		case tokGeq:
			return ls >= rs, nil
		default:
			return nil, fmt.Errorf("unsupported string operator %s", n.op)
		}
	}

	li, lInt := asInt(left)
	ri, rInt := asInt(right)
	if lInt && rInt {
		switch n.op {
		case tokPlus:
			return li + ri, nil
		case tokMinus:
			return li - ri, nil
		case tokStar:
			return li * ri, nil
		case tokSlash:
			if ri == 0 {
				return nil, errors.New("division by zero")
			}
			return li / ri, nil
		case tokPercent:
			if ri == 0 {
				return nil, errors.New("division by zero")
			}
			return li % ri, nil
		case tokLt:
			return li < ri, nil
		case tokLeq:
			return li <= ri, nil
		case tokGt:
			return li > ri, nil
		case tokGeq:
			return li >= ri, nil
		}
	}

	lf, lFloat := asFloat(left)
	rf, rFloat := asFloat(right)
	if lFloat && rFloat {
		switch n.op {
		case tokPlus:
			return lf + rf, nil
		case tokMinus:
			return lf - rf, nil
		case tokStar:
			return lf * rf, nil
		case tokSlash:
			if rf == 0 {
				return nil, errors.New("division by zero")
			}
			return lf / rf, nil
		case tokPercent:
			return nil, errors.New("'%' requires integer operands")
		case tokLt:
			return lf < rf, nil
		case tokLeq:
			return lf <= rf, nil
		case tokGt:
			return lf > rf, nil
		case tokGeq:
			return lf >= rf, nil
		}
	}

	return nil, fmt.Errorf("unsupported operands for %s: %T and %T", n.op, left, right)
}

func equal(a, b any) bool {
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return ai == bi
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func asInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	switch v := v.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// Truthy reports whether a value counts as true: non-nil, non-zero,
// non-empty.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len() != 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	default:
		return true
	}
}
