package wheredoc

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Represents the "undefined" value, which is distinct from null (nil).
// Use the Undefined variable rather than constructing new instances.
type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the converted value of the `undefined` token, and of keys that have no matching value.
var Undefined = undefined{}

var (
	mathConstantPattern   = regexp.MustCompile(`^Math\.([A-Z][A-Za-z0-9_]*)$`)
	numberConstantPattern = regexp.MustCompile(`^Number\.([A-Z][A-Za-z0-9_]*)$`)

	decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	radixPattern   = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
)

// Named constants of the `Math.NAME` form
var mathConstants = map[string]float64{
	"E":       math.E,
	"LN2":     math.Ln2,
	"LN10":    math.Ln10,
	"LOG2E":   math.Log2E,
	"LOG10E":  math.Log10E,
	"PI":      math.Pi,
	"SQRT1_2": math.Sqrt2 / 2,
	"SQRT2":   math.Sqrt2,
}

// Named constants of the `Number.NAME` form
var numberConstants = map[string]float64{
	"EPSILON":           0x1p-52,
	"MAX_SAFE_INTEGER":  1<<53 - 1,
	"MIN_SAFE_INTEGER":  -(1<<53 - 1),
	"MAX_VALUE":         math.MaxFloat64,
	"MIN_VALUE":         math.SmallestNonzeroFloat64,
	"NEGATIVE_INFINITY": math.Inf(-1),
	"POSITIVE_INFINITY": math.Inf(1),
	"NaN":               math.NaN(),
}

// Convert each token to its runtime value, preserving order. See ConvertToken for the rules.
func Convert(tokens []string) []any {
	values := make([]any, len(tokens))
	for i, token := range tokens {
		values[i] = ConvertToken(token)
	}
	return values
}

// Convert a single token to its runtime value. The first matching rule wins:
//  1. tokens containing a digit and no quotes are tried as numbers, with grouping commas removed
//  2. `true` and `false` become booleans
//  3. `null` becomes nil, and `undefined` becomes Undefined
//  4. `NaN`, `Infinity` and `-Infinity` become the matching float64
//  5. `Math.NAME` and `Number.NAME` become the named constant (or Undefined if there is no such constant)
//  6. tokens wrapped in `[...]` or `{...}` are parsed as literals, becoming `[]any` or `map[string]any`;
//     a malformed literal becomes a *LiteralError value instead of failing the conversion
//  7. everything else is returned unchanged as a string
func ConvertToken(token string) any {
	// Possibly a number if it contains a digit: .1, +1, -1, 1e1, 12,345.6789
	if strings.ContainsAny(token, "0123456789") && !strings.ContainsAny(token, `'"`) {
		if number, ok := parseNumber(strings.ReplaceAll(token, ",", "")); ok {
			return number
		}
	}

	switch token {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	case "undefined":
		return Undefined
	case "NaN":
		return math.NaN()
	case "Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if match := mathConstantPattern.FindStringSubmatch(token); match != nil {
		return lookupConstant(mathConstants, match[1])
	}

	if match := numberConstantPattern.FindStringSubmatch(token); match != nil {
		return lookupConstant(numberConstants, match[1])
	}

	if isBracketed(token) {
		value, err := ParseLiteral(token)
		if err != nil {
			return err
		}
		return value
	}

	// Default case: quoted strings, bare words, and anything else unrecognized
	return token
}

func lookupConstant(constants map[string]float64, name string) any {
	if value, ok := constants[name]; ok {
		return value
	}
	return Undefined
}

// Return whether the token starts and ends with a matching pair of brackets or braces.
func isBracketed(token string) bool {
	if len(token) < 2 {
		return false
	}
	first, last := token[0], token[len(token)-1]
	return (first == '[' && last == ']') || (first == '{' && last == '}')
}

// Parse a numeric string, returning false if it is not a well-formed number.
// Accepts an optional sign, a decimal point, exponent notation, and unsigned `0x`, `0o`, and `0b` integers.
// Magnitudes that are out of range become infinities (or zero) rather than failing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)

	if decimalPattern.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// ParseFloat still returns the saturated value (±Inf or ±0) for range errors
			if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
				return f, true
			}
			return 0, false
		}
		return f, true
	}

	if radixPattern.MatchString(s) {
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	}

	return 0, false
}
