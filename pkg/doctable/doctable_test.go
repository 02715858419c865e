package doctable

import (
	"encoding/json"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"testing"

	"github.com/maxgreen01/go-wheredoc/pkg/wheredoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleFile = `package sample

import (
	"testing"

	"example.com/wheredoc"
)

func TestSum(t *testing.T) {
	wheredoc.Where(func(a, b, c int) {
		// where:
		//   a | b | c
		//   1 | 2 | 3
		//   4 | 5
	})
}

func TestSpec(t *testing.T) {
	wheredoc.Where(wheredoc.Spec{
		Table:    "a | a\n1 | 2",
		Callback: check,
	})
}

func helper() {
	wheredoc.Build(` + "`" + `
		list      | obj
		[1, 'x']  | { bonk }
	` + "`" + `, nil)
}

func TestNamed(t *testing.T) {
	wheredoc.Where(check)
	wheredoc.Where(table)
	wheredoc.Build(dynamicTable, check)
	other.Where(func() {
		// where:
		// x
		// 1 |
	})
}

func check(a, b int) {
	// where:
	// a | b
	// 1 | 2
}
`

var sampleOptions = Options{
	WhereCalls: []string{"wheredoc.Where"},
	BuildCalls: []string{"wheredoc.Build"},
}

func findSample(t *testing.T) []*DocTable {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "sample_test.go", sampleFile, parser.ParseComments)
	require.NoError(t, err)
	return Find(file, fset, nil, "sampleProject", sampleOptions)
}

func TestFind(t *testing.T) {
	tables := findSample(t)
	require.Len(t, tables, 4)

	// Comment inside a callback literal
	sum := tables[0]
	assert.Equal(t, OriginComment, sum.Origin)
	assert.Equal(t, "TestSum", sum.FuncName)
	assert.True(t, sum.IsTest)
	assert.Equal(t, "sampleProject", sum.ProjectName)
	assert.Equal(t, "sample", sum.PackageName)
	assert.Equal(t, "sample_test.go", sum.FilePath)
	assert.Equal(t, 10, sum.Line)
	assert.Equal(t, []string{"a", "b", "c"}, sum.Table.Keys)
	assert.Empty(t, sum.Corrections)
	assert.Equal(t, []string{"Row 2, expected 3 tokens, but found 2."}, sum.RowErrors)
	assert.Equal(t, []wheredoc.Params{{"a": 1.0, "b": 2.0, "c": 3.0}}, sum.Records)
	assert.Equal(t, map[string]int{"number": 3}, sum.ValueKinds)
	assert.True(t, sum.HasProblems())

	// Spec literal
	spec := tables[1]
	assert.Equal(t, OriginSpec, spec.Origin)
	assert.Equal(t, "TestSpec", spec.FuncName)
	assert.Equal(t, []string{"Duplicate keys: [a]."}, spec.Corrections)
	assert.Empty(t, spec.Records)

	// Build call with a nil callback, outside of a test
	build := tables[2]
	assert.Equal(t, OriginBuild, build.Origin)
	assert.Equal(t, "helper", build.FuncName)
	assert.False(t, build.IsTest)
	assert.Equal(t, []string{"Expected callback to be a func but was nil."}, build.Corrections)

	// Named function declared in the same file; `table`, `dynamicTable` and `other.Where` are skipped
	named := tables[3]
	assert.Equal(t, OriginComment, named.Origin)
	assert.Equal(t, "TestNamed", named.FuncName)
	assert.Equal(t, []string{"a", "b"}, named.Table.Keys)
	assert.False(t, named.HasProblems())
	assert.Equal(t, 2, named.NumCells())
}

func TestNewConversionErrors(t *testing.T) {
	dt := New("list | obj | n\n[1, 'x'] | { bonk } | NaN", OriginBuild, true)

	assert.Empty(t, dt.Corrections)
	assert.Empty(t, dt.RowErrors)
	require.Len(t, dt.ConversionErrors, 1)
	assert.Contains(t, dt.ConversionErrors[0], "Row 1, key obj: bonk is not defined")
	assert.Equal(t, map[string]int{"array": 1, "error": 1, "number": 1}, dt.ValueKinds)
	assert.Equal(t, "array=1, error=1, number=1", FormatKindCounts(dt.ValueKinds))
}

func TestEncodeAsCSV(t *testing.T) {
	dt := findSample(t)[0]

	headers := dt.GetCSVHeaders()
	row := dt.EncodeAsCSV()
	require.Len(t, row, len(headers))

	record := make(map[string]string, len(headers))
	for i, header := range headers {
		record[header] = row[i]
	}
	assert.Equal(t, "10", record["line"])
	assert.Equal(t, "true", record["isTest"])
	assert.Equal(t, "comment", record["origin"])
	assert.Equal(t, "a, b, c", record["keys"])
	assert.Equal(t, "2", record["rows"])
	assert.Equal(t, "5", record["cells"])
	assert.Equal(t, "number=3", record["valueKinds"])
}

func TestMarshalJSON(t *testing.T) {
	dt := New("n | u | l | s\nNaN | undefined | {x} | 'str'\n-Infinity | 1 | [2] | s", OriginSpec, true)
	dt.FilePath = "a_test.go"
	dt.Line = 3

	data, err := json.Marshal(dt)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "spec", decoded["origin"])
	assert.Equal(t, []any{"n", "u", "l", "s"}, decoded["keys"])

	records, ok := decoded["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, map[string]any{
		"n": "NaN",
		"u": nil,
		"l": map[string]any{"error": "x is not defined (at position 1 in \"{x}\")"},
		"s": "'str'",
	}, records[0])
	assert.Equal(t, map[string]any{"n": "-Infinity", "u": 1.0, "l": []any{2.0}, "s": "s"}, records[1])
}

func TestMarshalYAML(t *testing.T) {
	dt := New("a | b\n1 | Infinity", OriginComment, true)

	data, err := yaml.Marshal(dt)
	require.NoError(t, err)

	var decoded struct {
		Origin  string           `yaml:"origin"`
		Keys    []string         `yaml:"keys"`
		Records []map[string]any `yaml:"records"`
	}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "comment", decoded.Origin)
	assert.Equal(t, []string{"a", "b"}, decoded.Keys)
	require.Len(t, decoded.Records, 1)
	assert.Equal(t, "Infinity", decoded.Records[0]["b"])
}

func TestEncodeValue(t *testing.T) {
	assert.Equal(t, "NaN", EncodeValue(math.NaN()))
	assert.Equal(t, "Infinity", EncodeValue(math.Inf(1)))
	assert.Nil(t, EncodeValue(wheredoc.Undefined))
	assert.Nil(t, EncodeValue(nil))
	assert.Equal(t, 1.5, EncodeValue(1.5))
	assert.Equal(t, []any{"-Infinity", true}, EncodeValue([]any{math.Inf(-1), true}))
	assert.Equal(t, []int{1}, EncodeValue([]int{1}))
}

func TestIsTestFunc(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"func TestA(t *testing.T) {}", true},
		{"func Testlower(t *testing.T) {}", true},
		{"func Helper(t *testing.T) {}", false},
		{"func TestA(b *testing.B) {}", false},
		{"func TestA(t testing.T) {}", false},
		{"func TestA(t *testing.T) error { return nil }", false},
		{"func (s *S) TestA(t *testing.T) {}", false},
		{"func TestA[T any](t *testing.T) {}", false},
		{"func TestA(t *testing.T, n int) {}", false},
		{"func TestA() {}", false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			file, err := parser.ParseFile(token.NewFileSet(), "", "package p\n"+tt.src, 0)
			require.NoError(t, err)
			decl, ok := file.Decls[0].(*ast.FuncDecl)
			require.True(t, ok)
			assert.Equal(t, tt.want, IsTestFunc(decl))
		})
	}
}
