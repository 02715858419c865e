package wheredoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	var nilFunc func()
	validFunc := func(a, b float64) {}

	tests := []struct {
		name     string
		keys     []string
		rows     [][]string
		callback any
		want     []string
	}{
		{
			name:     "valid outline",
			keys:     []string{"a", "b"},
			rows:     [][]string{{"1", "2"}},
			callback: validFunc,
			want:     []string{},
		},
		{
			name:     "nil callback",
			keys:     []string{"a"},
			rows:     [][]string{{"1"}},
			callback: nil,
			want:     []string{"Expected callback to be a func but was nil."},
		},
		{
			name:     "typed nil func",
			keys:     []string{"a"},
			rows:     [][]string{{"1"}},
			callback: nilFunc,
			want:     []string{"Expected callback to be a func but was nil func()."},
		},
		{
			name:     "non-func callback",
			keys:     []string{"a"},
			rows:     [][]string{{"1"}},
			callback: "callback",
			want:     []string{"Expected callback to be a func but was string."},
		},
		{
			name:     "no rows",
			keys:     []string{"a", "b", "c"},
			rows:     nil,
			callback: validFunc,
			want:     []string{"No data rows defined for keys, [a, b, c]."},
		},
		{
			name:     "no keys",
			keys:     []string{},
			rows:     [][]string{{"1"}},
			callback: validFunc,
			want:     []string{"No keys defined."},
		},
		{
			name:     "duplicate keys listed once",
			keys:     []string{"a", "b", "a", "b", "a", "c"},
			rows:     [][]string{{"1", "2", "3", "4", "5", "6"}},
			callback: validFunc,
			want:     []string{"Duplicate keys: [a, b]."},
		},
		{
			name:     "invalid keys",
			keys:     []string{"1a", "$ok", "_ok", "b c", "Ok9"},
			rows:     [][]string{{"1", "2", "3", "4", "5"}},
			callback: validFunc,
			want: []string{
				"Invalid key, 1a, expected to start with A-z, $, or _ (Key, key, $key, _Key).",
				"Invalid key, b c, expected to start with A-z, $, or _ (Key, key, $key, _Key).",
			},
		},
		{
			name:     "every check is reported in order",
			keys:     []string{"a", "a", "-"},
			rows:     nil,
			callback: 42,
			want: []string{
				"Expected callback to be a func but was int.",
				"No data rows defined for keys, [a, a, -].",
				"Duplicate keys: [a].",
				"Invalid key, -, expected to start with A-z, $, or _ (Key, key, $key, _Key).",
			},
		},
		{
			name:     "empty outline",
			keys:     nil,
			rows:     nil,
			callback: nil,
			want: []string{
				"Expected callback to be a func but was nil.",
				"No data rows defined for keys, [].",
				"No keys defined.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corrections := Analyze(tt.keys, tt.rows, tt.callback)

			messages := make([]string, len(corrections))
			for i, c := range corrections {
				messages[i] = c.Error
			}
			assert.Equal(t, tt.want, messages)

			for i, c := range corrections {
				assert.Equal(t, KindCorrection, c.Kind)
				assert.Equal(t, -1, c.Index)
				assert.Equal(t, tt.keys, c.Keys)
				assert.Equal(t, tt.rows, c.Rows)

				_, err := c.Invoke()
				require.Error(t, err)
				assert.Equal(t, tt.want[i], err.Error())
			}
		})
	}
}

func TestIsCallable(t *testing.T) {
	var nilFunc func(int) error

	assert.True(t, IsCallable(func() {}))
	assert.True(t, IsCallable(TestIsCallable))
	assert.False(t, IsCallable(nil))
	assert.False(t, IsCallable(nilFunc))
	assert.False(t, IsCallable("func"))
}
