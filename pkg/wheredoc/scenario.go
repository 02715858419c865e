package wheredoc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Represents the kind of a Scenario produced by the pipeline.
type Kind int

const (
	KindTest       Kind = iota // a runnable scenario that applies the callback to a row's values
	KindRowError                // a row whose token count doesn't match the key count
	KindCorrection              // a table-wide outline problem, which suppresses every row scenario
)

func (k Kind) String() string {
	switch k {
	case KindTest:
		return "test"
	case KindRowError:
		return "rowError"
	case KindCorrection:
		return "correction"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "test":
		*k = KindTest
	case "rowError":
		*k = KindRowError
	case "correction":
		*k = KindCorrection
	default:
		return fmt.Errorf("unknown scenario kind %q", str)
	}
	return nil
}

// Represents a single unit of generated test work.
// A test scenario carries the row's converted values and calls the callback when invoked,
// while row error and correction scenarios carry a diagnostic and always fail when invoked.
// Scenarios are never modified after they are created.
type Scenario struct {
	Kind  Kind
	Index int // zero-based row index, or -1 for corrections

	Keys   []string   // the table's keys
	Tokens []string   // the row's raw tokens (test and row error scenarios)
	Rows   [][]string // the table's raw rows (corrections only)

	Params Params // the row's values by key (test scenarios only)
	Values []any  // the row's values in column order (test scenarios only)

	Error string // the diagnostic message (row error and correction scenarios only)

	callback any
}

// Params maps each key of a table to the converted value of a row.
type Params map[string]any

// ScenarioError is returned when invoking a row error or correction scenario.
// Its message is exactly the scenario's Error field.
type ScenarioError struct {
	Kind    Kind
	Index   int
	Message string
}

func (e *ScenarioError) Error() string { return e.Message }

// Create the scenario for a single row of a table.
// Rows whose token count doesn't match the number of keys become row error scenarios,
// and every other row is converted and mapped into a test scenario that calls `callback`.
// `index` is zero-based, but error messages report rows starting from 1.
func NewScenario(keys []string, tokens []string, index int, callback any) *Scenario {
	if len(keys) != len(tokens) {
		return &Scenario{
			Kind:   KindRowError,
			Index:  index,
			Keys:   keys,
			Tokens: tokens,
			Error:  fmt.Sprintf("Row %d, expected %d tokens, but found %d.", index+1, len(keys), len(tokens)),
		}
	}

	values := Convert(tokens)
	return &Scenario{
		Kind:     KindTest,
		Index:    index,
		Keys:     keys,
		Tokens:   tokens,
		Params:   Map(keys, values),
		Values:   values,
		callback: callback,
	}
}

// Create a correction scenario for a table-wide problem.
func newCorrection(keys []string, rows [][]string, message string) *Scenario {
	return &Scenario{
		Kind:  KindCorrection,
		Index: -1,
		Keys:  keys,
		Rows:  rows,
		Error: message,
	}
}

// Run the scenario.
// Test scenarios call the callback with the row's values and return whatever the callback returns;
// a panic inside the callback is not recovered. Other scenarios return a *ScenarioError carrying their message.
func (s *Scenario) Invoke() (any, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	return invoke(s.callback, s.Keys, s.Values)
}

// Return the scenario's diagnostic as an error, or nil for test scenarios.
func (s *Scenario) Err() error {
	if s.Kind == KindTest {
		return nil
	}
	return &ScenarioError{Kind: s.Kind, Index: s.Index, Message: s.Error}
}

// Return a short, human-readable name for the scenario, suitable for `t.Run()`.
// Test scenarios are named after their params in column order, e.g. "a=1,b=2,c=3".
func (s *Scenario) Name() string {
	switch s.Kind {
	case KindTest:
		parts := make([]string, len(s.Keys))
		for i, key := range s.Keys {
			parts[i] = key + "=" + Format(s.Values[i])
		}
		return strings.Join(parts, ",")
	case KindRowError:
		return fmt.Sprintf("row %d", s.Index+1)
	default:
		return "correction"
	}
}

// The subset of `testing.TB` needed to run a scenario as a test.
type TestingT interface {
	Helper()
	Fatal(args ...any)
}

// Invoke the scenario and fail the test if it returns an error.
// Intended to be used from a subtest, e.g. `t.Run(s.Name(), func(t *testing.T) { s.Test(t) })`.
func (s *Scenario) Test(t TestingT) {
	t.Helper()
	if _, err := s.Invoke(); err != nil {
		t.Fatal(err)
	}
}

// Return a string representation of the Scenario for logging and debugging purposes
func (s *Scenario) String() string {
	if s.Kind == KindTest {
		return fmt.Sprintf("Scenario{Kind: %s, Row: %d, Params: %s}", s.Kind, s.Index+1, s.Name())
	}
	return fmt.Sprintf("Scenario{Kind: %s, Error: %q}", s.Kind, s.Error)
}
