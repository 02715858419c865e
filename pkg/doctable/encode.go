package doctable

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/maxgreen01/go-wheredoc/pkg/wheredoc"
)

//
// ========== Output Methods ==========
//

// Return a string representation of the DocTable for logging and debugging purposes
func (dt *DocTable) String() string {
	return fmt.Sprintf("DocTable{Location: %s, Origin: %s, Keys: %v, Rows: %d}", dt.Location(), dt.Origin, dt.Table.Keys, len(dt.Table.Rows))
}

// Return the headers for the CSV representation of the DocTable.
// The table text and converted records are excluded for the sake of brevity.
func (dt *DocTable) GetCSVHeaders() []string {
	return []string{
		"project",
		"package",
		"filePath",
		"line",
		"function",
		"isTest",
		"origin",
		"keys",
		"rows",
		"cells",
		"corrections",
		"rowErrors",
		"conversionErrors",
		"valueKinds",
	}
}

// Encode the DocTable as a CSV row, returning the encoded data corresponding to the headers in `GetCSVHeaders()`.
func (dt *DocTable) EncodeAsCSV() []string {
	return []string{
		dt.ProjectName,
		dt.PackageName,
		dt.FilePath,
		strconv.Itoa(dt.Line),
		dt.FuncName,
		strconv.FormatBool(dt.IsTest),
		dt.Origin.String(),
		strings.Join(dt.Table.Keys, ", "),
		strconv.Itoa(len(dt.Table.Rows)),
		strconv.Itoa(dt.NumCells()),
		strings.Join(dt.Corrections, " "),
		strings.Join(dt.RowErrors, " "),
		strings.Join(dt.ConversionErrors, " "),
		FormatKindCounts(dt.ValueKinds),
	}
}

// Format value kind counts like `number=3, string=1`, sorted by kind.
func FormatKindCounts(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, kind := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, counts[kind]))
	}
	return strings.Join(parts, ", ")
}

// Helper struct for Marshaling JSON and YAML
type docTableJSON struct {
	Project     string `json:"project" yaml:"project"`
	Package     string `json:"package" yaml:"package"`
	PackagePath string `json:"packagePath,omitempty" yaml:"packagePath,omitempty"`
	FilePath    string `json:"filePath" yaml:"filePath"`
	Line        int    `json:"line" yaml:"line"`
	Function    string `json:"function,omitempty" yaml:"function,omitempty"`
	IsTest      bool   `json:"isTest" yaml:"isTest"`
	Origin      string `json:"origin" yaml:"origin"`

	Text string     `json:"text" yaml:"text"`
	Keys []string   `json:"keys" yaml:"keys"`
	Rows [][]string `json:"rows" yaml:"rows"`

	Corrections      []string         `json:"corrections,omitempty" yaml:"corrections,omitempty"`
	RowErrors        []string         `json:"rowErrors,omitempty" yaml:"rowErrors,omitempty"`
	ConversionErrors []string         `json:"conversionErrors,omitempty" yaml:"conversionErrors,omitempty"`
	Records          []map[string]any `json:"records" yaml:"records"`
	ValueKinds       map[string]int   `json:"valueKinds" yaml:"valueKinds"`
}

func (dt *DocTable) toJSON() docTableJSON {
	return docTableJSON{
		Project:     dt.ProjectName,
		Package:     dt.PackageName,
		PackagePath: dt.PackagePath,
		FilePath:    dt.FilePath,
		Line:        dt.Line,
		Function:    dt.FuncName,
		IsTest:      dt.IsTest,
		Origin:      dt.Origin.String(),

		Text: dt.Text,
		Keys: dt.Table.Keys,
		Rows: dt.Table.Rows,

		Corrections:      dt.Corrections,
		RowErrors:        dt.RowErrors,
		ConversionErrors: dt.ConversionErrors,
		Records:          EncodeRecords(dt.Records),
		ValueKinds:       dt.ValueKinds,
	}
}

// Marshal a DocTable for JSON output
func (dt *DocTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(dt.toJSON())
}

// Marshal a DocTable for YAML output
func (dt *DocTable) MarshalYAML() (any, error) {
	return dt.toJSON(), nil
}

// Convert a list of records into values that can be encoded as JSON or YAML. See EncodeValue.
func EncodeRecords(records []wheredoc.Params) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, record := range records {
		encoded := make(map[string]any, len(record))
		for key, value := range record {
			encoded[key] = EncodeValue(value)
		}
		out[i] = encoded
	}
	return out
}

// Convert a converted table value into one that can be encoded as JSON or YAML:
// non-finite numbers become the strings "NaN", "Infinity" and "-Infinity", undefined becomes null,
// and errors become an object like `{"error": "message"}`. Arrays and objects are converted recursively.
func EncodeValue(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return wheredoc.Format(val)
		}
		return val
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = EncodeValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, field := range val {
			out[key] = EncodeValue(field)
		}
		return out
	case error:
		return map[string]any{"error": val.Error()}
	}

	if v == wheredoc.Undefined {
		return nil
	}
	return v
}
