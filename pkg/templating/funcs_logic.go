package templating

import "reflect"

// Arithmetic over canvas dimensions. Layout sizes are whole pixels, so
// division truncates and a zero divisor yields zero instead of failing the
// render.

func add(a, b int) int { return a + b }

func sub(a, b int) int { return a - b }

func div(a, b int) int {
	if b == 0 {
		return 0
	}
	return a / b
}

// toFloat converts any numeric value; everything else is zero.
func toFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return 0
}

// The text/template builtins and/or/not take any value and return one of
// their arguments; layouts only combine flags, so these stay boolean.

func and(flags ...bool) bool {
	for _, f := range flags {
		if !f {
			return false
		}
	}
	return true
}

func or(flags ...bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

func not(flag bool) bool { return !flag }
