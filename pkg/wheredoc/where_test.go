package wheredoc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumCheck(a, b, c float64) error {
	if a+b != c {
		return fmt.Errorf("%v + %v != %v", a, b, c)
	}
	return nil
}

func kinds(scenarios []*Scenario) []Kind {
	out := make([]Kind, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.Kind
	}
	return out
}

func TestBuild(t *testing.T) {
	scenarios := Build(`
		a | b | c
		1 | 2 | 3
		4 | 5 | 9
	`, sumCheck)

	require.Len(t, scenarios, 2)
	for i, s := range scenarios {
		assert.Equal(t, KindTest, s.Kind)
		assert.Equal(t, i, s.Index)
		assert.Len(t, s.Params, 3)
		_, err := s.Invoke()
		assert.NoError(t, err)
	}
	assert.Equal(t, Params{"a": 4.0, "b": 5.0, "c": 9.0}, scenarios[1].Params)
}

func TestBuildRowErrorsDontBlockOtherRows(t *testing.T) {
	scenarios := Build("a | b | c\n1 | 2 | 3\n1 | 2\n4 | 5 | 9 | 0\n2 | 2 | 5", sumCheck)

	require.Equal(t, []Kind{KindTest, KindRowError, KindRowError, KindTest}, kinds(scenarios))
	assert.Equal(t, "Row 2, expected 3 tokens, but found 2.", scenarios[1].Error)
	assert.Equal(t, "Row 3, expected 3 tokens, but found 4.", scenarios[2].Error)

	_, err := scenarios[0].Invoke()
	assert.NoError(t, err)
	_, err = scenarios[3].Invoke()
	assert.EqualError(t, err, "2 + 2 != 5")
}

func TestBuildCorrectionsSupersedeRows(t *testing.T) {
	scenarios := Build("a | a | b\n1 | 2 | 3\n4 | 5 | 6", sumCheck)

	require.Len(t, scenarios, 1)
	assert.Equal(t, KindCorrection, scenarios[0].Kind)
	assert.Equal(t, "Duplicate keys: [a].", scenarios[0].Error)
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}}, scenarios[0].Rows)
}

func TestBuildEmpty(t *testing.T) {
	scenarios := Build("", sumCheck)

	messages := make([]string, len(scenarios))
	for i, s := range scenarios {
		messages[i] = s.Error
	}
	assert.Equal(t, []string{"No data rows defined for keys, [].", "No keys defined."}, messages)
}

func TestWhereFunc(t *testing.T) {
	scenarios := Where(func(a, b, c float64) error {
		// where:
		//   a | b | c
		//   1 | 2 | 3
		//   4 | 5 | 9
		//  -1 | 1 | 0
		return sumCheck(a, b, c)
	})

	require.Len(t, scenarios, 3)
	for _, s := range scenarios {
		t.Run(s.Name(), func(t *testing.T) { s.Test(t) })
	}
	assert.Equal(t, "a=-1,b=1,c=0", scenarios[2].Name())
}

func TestWhereFuncCommentBetweenRows(t *testing.T) {
	scenarios := Where(func(a, b, c float64) error {
		// where:
		//   a | b | c
		//   // positive numbers
		//   1 | 2 | 3
		//   4 | 5 | 9
		return sumCheck(a, b, c)
	})

	require.Equal(t, []Kind{KindTest, KindTest}, kinds(scenarios))
	assert.Equal(t, Params{"a": 1.0, "b": 2.0, "c": 3.0}, scenarios[0].Params)
	for _, s := range scenarios {
		_, err := s.Invoke()
		assert.NoError(t, err)
	}
}

func TestWhereFuncFencedTable(t *testing.T) {
	var seen []string
	scenarios := Where(func(name string, tags []string) {
		/*
			where:
			| name    | tags          |
			| 'first' | ["x", "y"]    |
			| second  | []            | // no tags
		*/
		seen = append(seen, fmt.Sprint(name, len(tags)))
	})

	require.Equal(t, []Kind{KindTest, KindTest}, kinds(scenarios))
	for _, s := range scenarios {
		_, err := s.Invoke()
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"'first'2", "second0"}, seen)
}

func TestWhereFuncWithoutTable(t *testing.T) {
	scenarios := Where(func(a float64) {})

	require.Equal(t, []Kind{KindCorrection, KindCorrection}, kinds(scenarios))
	assert.Equal(t, "No data rows defined for keys, [].", scenarios[0].Error)
}

func TestWhereSpec(t *testing.T) {
	table := "a | b | c\n1 | 2 | 3"

	byValue := Where(Spec{Table: table, Callback: sumCheck})
	require.Equal(t, []Kind{KindTest}, kinds(byValue))

	byPointer := Where(&Spec{Table: table, Callback: sumCheck})
	require.Equal(t, []Kind{KindTest}, kinds(byPointer))

	noCallback := Where(Spec{Table: table})
	require.Len(t, noCallback, 1)
	assert.Equal(t, "Expected callback to be a func but was nil.", noCallback[0].Error)
}

func TestWhereInvalidSpec(t *testing.T) {
	tests := []struct {
		name string
		spec any
		want string
	}{
		{"nil", nil, "Expected callback to be a func but was nil."},
		{"nil spec pointer", (*Spec)(nil), "Expected callback to be a func but was nil."},
		{"string", "a | b", "Expected callback to be a func but was string."},
		{"map", map[string]any{"table": "a"}, "Expected callback to be a func but was map[string]interface {}."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenarios := Where(tt.spec)
			require.NotEmpty(t, scenarios)
			for _, s := range scenarios {
				assert.Equal(t, KindCorrection, s.Kind)
			}
			assert.Equal(t, tt.want, scenarios[0].Error)
		})
	}
}
