package wheredoc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"integer", 1.0, "1"},
		{"fraction", 0.1, "0.1"},
		{"negative", -12.5, "-12.5"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"large integer", 123456789012.0, "123456789012"},
		{"small fixed", 0.000001, "0.000001"},
		{"small exponent", 1.5e-7, "1.5e-7"},
		{"large exponent", 1e21, "1e+21"},
		{"NaN", math.NaN(), "NaN"},
		{"Infinity", math.Inf(1), "Infinity"},
		{"-Infinity", math.Inf(-1), "-Infinity"},
		{"null", nil, "null"},
		{"undefined", Undefined, "undefined"},
		{"boolean", true, "true"},
		{"string", "abc", "abc"},
		{"array", []any{"one", true, 3.0, nil}, `["one", true, 3, null]`},
		{"object", map[string]any{"b": 1.0, "a": "x", "two words": []any{}}, `{a: "x", b: 1, "two words": []}`},
		{"error", errors.New("bad literal"), "bad literal"},
		{"other", 42, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.value))
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"true", "boolean"},
		{"null", "null"},
		{"undefined", "undefined"},
		{"1,000", "number"},
		{"Math.PI", "number"},
		{"'text'", "string"},
		{"[1]", "array"},
		{"{a: 1}", "object"},
		{"{ { }", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(ConvertToken(tt.token)))
		})
	}

	assert.Equal(t, "other", KindOf(42))
}
