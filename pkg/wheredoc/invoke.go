package wheredoc

import (
	"fmt"
	"math"
	"reflect"
)

// InvokeError is returned when a test scenario's values cannot be passed to its callback.
// The callback is not called in that case.
type InvokeError struct {
	Position int    // zero-based argument position
	Key      string // the key of the value, if known
	Value    any
	Type     reflect.Type // the parameter type the value could not be adapted to
	Reason   string
}

func (e *InvokeError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("invoking callback: %s", e.Reason)
	}
	return fmt.Sprintf("invoking callback: argument %d (%s): cannot use %s (%T) as %s: %s",
		e.Position, e.Key, Format(e.Value), e.Value, e.Type, e.Reason)
}

var errorType = reflect.TypeFor[error]()

// Call the callback positionally with the given values, adapting each value to its parameter type.
// Extra values are dropped for non-variadic callbacks, and missing values are passed as zero values.
// Returns the callback's first non-error result, and its trailing error result (if it has one).
func invoke(callback any, keys []string, values []any) (any, error) {
	fn := reflect.ValueOf(callback)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, &InvokeError{Reason: fmt.Sprintf("expected a func but got %s", describeType(callback))}
	}
	fnType := fn.Type()

	// Build the argument list, respecting variadic parameters
	numFixed := fnType.NumIn()
	if fnType.IsVariadic() {
		numFixed--
	}
	args := make([]reflect.Value, 0, max(numFixed, len(values)))
	for i := range numFixed {
		paramType := fnType.In(i)
		if i >= len(values) {
			args = append(args, reflect.Zero(paramType))
			continue
		}
		arg, err := adaptArg(values[i], paramType)
		if err != nil {
			return nil, newInvokeError(i, keys, values[i], paramType, err)
		}
		args = append(args, arg)
	}
	if fnType.IsVariadic() {
		elemType := fnType.In(numFixed).Elem()
		for i := numFixed; i < len(values); i++ {
			arg, err := adaptArg(values[i], elemType)
			if err != nil {
				return nil, newInvokeError(i, keys, values[i], elemType, err)
			}
			args = append(args, arg)
		}
	}

	// Actually call the callback, without recovering from any panic
	results := fn.Call(args)

	var result any
	var resultErr error
	for i, out := range results {
		if i == len(results)-1 && out.Type().Implements(errorType) {
			if !isNilValue(out) {
				resultErr = out.Interface().(error)
			}
			continue
		}
		if i == 0 {
			result = out.Interface()
		}
	}
	return result, resultErr
}

func newInvokeError(position int, keys []string, value any, paramType reflect.Type, err error) *InvokeError {
	var key string
	if position < len(keys) {
		key = keys[position]
	}
	return &InvokeError{Position: position, Key: key, Value: value, Type: paramType, Reason: err.Error()}
}

// Adapt a converted value to the given parameter type.
func adaptArg(value any, paramType reflect.Type) (reflect.Value, error) {
	// Undefined keeps its identity when the parameter can hold it
	if value == nil || value == Undefined {
		if value != nil && reflect.TypeOf(value).AssignableTo(paramType) {
			return reflect.ValueOf(value), nil
		}
		return reflect.Zero(paramType), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(paramType) {
		return v, nil
	}

	switch v.Kind() {
	case reflect.Float64:
		return adaptNumber(v.Float(), paramType)

	case reflect.String:
		if paramType.Kind() == reflect.String {
			return v.Convert(paramType), nil
		}

	case reflect.Slice:
		elems, ok := value.([]any)
		if !ok || (paramType.Kind() != reflect.Slice && paramType.Kind() != reflect.Array) {
			break
		}
		if paramType.Kind() == reflect.Array && paramType.Len() != len(elems) {
			return reflect.Value{}, fmt.Errorf("array length %d does not match %d elements", paramType.Len(), len(elems))
		}
		var out reflect.Value
		if paramType.Kind() == reflect.Array {
			out = reflect.New(paramType).Elem()
		} else {
			out = reflect.MakeSlice(paramType, len(elems), len(elems))
		}
		for i, elem := range elems {
			adapted, err := adaptArg(elem, paramType.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(adapted)
		}
		return out, nil

	case reflect.Map:
		fields, ok := value.(map[string]any)
		if !ok || paramType.Kind() != reflect.Map || paramType.Key().Kind() != reflect.String {
			break
		}
		out := reflect.MakeMapWithSize(paramType, len(fields))
		for key, field := range fields {
			adapted, err := adaptArg(field, paramType.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("field %q: %w", key, err)
			}
			out.SetMapIndex(reflect.ValueOf(key).Convert(paramType.Key()), adapted)
		}
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("incompatible types")
}

// Adapt a number to a numeric parameter type. Integer types only accept integral values in range.
func adaptNumber(f float64, paramType reflect.Type) (reflect.Value, error) {
	switch paramType.Kind() {
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(f).Convert(paramType), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return reflect.Value{}, fmt.Errorf("not an integer")
		}
		out := reflect.New(paramType).Elem()
		if f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f)) {
			return reflect.Value{}, fmt.Errorf("overflows %s", paramType)
		}
		out.SetInt(int64(f))
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return reflect.Value{}, fmt.Errorf("not an integer")
		}
		out := reflect.New(paramType).Elem()
		if f < 0 || f >= math.MaxUint64 || out.OverflowUint(uint64(f)) {
			return reflect.Value{}, fmt.Errorf("overflows %s", paramType)
		}
		out.SetUint(uint64(f))
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("incompatible types")
}

// Return whether a reflected value holds nil, for kinds that can be nil.
func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	}
	return false
}
