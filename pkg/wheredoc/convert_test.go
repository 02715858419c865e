package wheredoc

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSpecialWords(t *testing.T) {
	tokens := []string{"true", "false", "null", "undefined", "NaN", "Infinity", "-Infinity"}
	want := []any{true, false, nil, Undefined, math.NaN(), math.Inf(1), math.Inf(-1)}

	// Converting repeatedly, and in between other conversions, always gives the same result
	for range 3 {
		if diff := cmp.Diff(want, Convert(tokens), cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("Convert() mismatch (-want +got):\n%s", diff)
		}
		Convert([]string{"1", "[1, 2]", "Math.PI"})
	}
}

func TestConvertNumbers(t *testing.T) {
	got := Convert([]string{"1234.5678", "12,345.6789", "-0", ".1"})
	want := []any{1234.5678, 12345.6789, 0.0, 0.1}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Convert() mismatch (-want +got):\n%s", diff)
	}
	require.IsType(t, 0.0, got[2])
	assert.True(t, math.Signbit(got[2].(float64)), "-0 should be negative zero")
}

func TestConvertToken(t *testing.T) {
	tests := []struct {
		token string
		want  any
	}{
		// numbers
		{"0", 0.0},
		{"+1", 1.0},
		{"-1.5", -1.5},
		{"5.", 5.0},
		{"1e3", 1000.0},
		{"1E-2", 0.01},
		{"-2.5e+2", -250.0},
		{"1,000,000", 1e6},
		{"1,2,3", 123.0},
		{"0x1F", 31.0},
		{"0o17", 15.0},
		{"0b101", 5.0},
		{"1e400", math.Inf(1)},
		{"-1e400", math.Inf(-1)},

		// digits that don't make a number
		{"1.2.3", "1.2.3"},
		{"abc1", "abc1"},
		{"1 2", "1 2"},
		{"'1'", "'1'"},
		{`"2"`, `"2"`},

		// named constants
		{"Math.PI", math.Pi},
		{"Math.E", math.E},
		{"Math.SQRT1_2", math.Sqrt2 / 2},
		{"Math.LN10", math.Ln10},
		{"Number.MAX_SAFE_INTEGER", 9007199254740991.0},
		{"Number.MIN_SAFE_INTEGER", -9007199254740991.0},
		{"Number.EPSILON", 2.220446049250313e-16},
		{"Number.MAX_VALUE", math.MaxFloat64},
		{"Number.MIN_VALUE", math.SmallestNonzeroFloat64},
		{"Number.POSITIVE_INFINITY", math.Inf(1)},
		{"Number.NEGATIVE_INFINITY", math.Inf(-1)},
		{"Number.NaN", math.NaN()},
		{"Math.NOPE", Undefined},
		{"Number.NOPE", Undefined},
		{"math.PI", "math.PI"},
		{"Math.pi", "Math.pi"},

		// literals
		{"[]", []any{}},
		{"{}", map[string]any{}},
		{"[1, 2]", []any{1.0, 2.0}},
		{`[ "one", true, 3 ]`, []any{"one", true, 3.0}},
		{"{ a: 1, b: [null] }", map[string]any{"a": 1.0, "b": []any{nil}}},

		// everything else is returned unchanged
		{"", ""},
		{"hello", "hello"},
		{"'quoted'", "'quoted'"},
		{"TRUE", "TRUE"},
		{"[unclosed", "[unclosed"},
		{"-", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := ConvertToken(tt.token)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("ConvertToken(%q) mismatch (-want +got):\n%s", tt.token, diff)
			}
		})
	}
}

func TestConvertMalformedLiteral(t *testing.T) {
	values := Convert([]string{"1", "{ { }", "2"})
	require.Len(t, values, 3)

	assert.Equal(t, 1.0, values[0])
	assert.Equal(t, 2.0, values[2])

	var litErr *LiteralError
	require.ErrorAs(t, values[1].(error), &litErr)
	assert.Equal(t, "{ { }", litErr.Literal)
	assert.Contains(t, litErr.Error(), "Unexpected token '{'")
}

func TestConvertEmpty(t *testing.T) {
	assert.Empty(t, Convert(nil))
	assert.Empty(t, Convert([]string{}))
}
