package wheredoc

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Render a converted value as text, the way it would be written in a table.
// Numbers use the shortest representation (switching to exponent notation for very large or small magnitudes),
// strings nested inside arrays and objects are quoted, object keys are sorted, and errors render as their message.
func Format(v any) string {
	var sb strings.Builder
	writeValue(&sb, v, false)
	return sb.String()
}

func writeValue(sb *strings.Builder, v any, nested bool) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case undefined:
		sb.WriteString("undefined")
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	case float64:
		sb.WriteString(formatNumber(val))
	case string:
		if nested {
			sb.WriteString(strconv.Quote(val))
		} else {
			sb.WriteString(val)
		}
	case []any:
		sb.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, elem, true)
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		sb.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			if keyPattern.MatchString(key) {
				sb.WriteString(key)
			} else {
				sb.WriteString(strconv.Quote(key))
			}
			sb.WriteString(": ")
			writeValue(sb, val[key], true)
		}
		sb.WriteByte('}')
	case error:
		sb.WriteString(val.Error())
	default:
		fmt.Fprint(sb, val)
	}
}

// Format a number using the shortest decimal form, with exponent notation outside of [1e-6, 1e21).
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0" // includes negative zero
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	// Go pads exponents to two digits ("1e-07"), which is trimmed to "1e-7"
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exponent, _ := strings.Cut(s, "e")
	sign := exponent[:1]
	digits := strings.TrimLeft(exponent[1:], "0")
	return mantissa + "e" + sign + digits
}

// Return the name of a converted value's kind:
// "boolean", "null", "undefined", "number", "string", "array", "object", or "error".
// Values of any other Go type are reported as "other".
func KindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case undefined:
		return "undefined"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case error:
		return "error"
	default:
		return "other"
	}
}
