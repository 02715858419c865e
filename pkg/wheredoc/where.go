package wheredoc

import (
	"log/slog"

	"github.com/maxgreen01/go-wheredoc/pkg/docsource"
)

// Spec pairs a table with the callback its rows are passed to, for callers that
// don't embed the table inside the callback's source.
type Spec struct {
	Table    string
	Callback any
}

// Build the scenarios for a table and its callback.
// If the table's outline has any problems, only the corrections are returned and no row is processed.
// Otherwise one scenario is returned per row, in row order.
func Build(doc string, callback any) []*Scenario {
	table := Parse(doc)

	if corrections := Analyze(table.Keys, table.Rows, callback); len(corrections) > 0 {
		return corrections
	}

	scenarios := make([]*Scenario, len(table.Rows))
	for i, tokens := range table.Rows {
		scenarios[i] = NewScenario(table.Keys, tokens, i, callback)
	}
	return scenarios
}

// Build the scenarios described by `spec`, which is either a Spec (or *Spec), or a func whose body contains
// a comment with a `where:` label followed by the table's lines:
//
//	wheredoc.Where(func(a, b, c float64) error {
//		// where:
//		//   a | b | c
//		//   1 | 2 | 3
//		//   4 | 5 | 9
//		if a+b != c {
//			return fmt.Errorf("%v + %v != %v", a, b, c)
//		}
//		return nil
//	})
//
// Reading a func's table requires its source file to be available at runtime, which is always true under `go test`.
// Anything else is treated as a callback with an empty table, so it yields corrections.
func Where(spec any) []*Scenario {
	switch s := spec.(type) {
	case Spec:
		return Build(s.Table, s.Callback)
	case *Spec:
		if s == nil {
			return Build("", nil)
		}
		return Build(s.Table, s.Callback)
	}

	if !IsCallable(spec) {
		return Build("", spec)
	}

	doc, err := docsource.FromFunc(spec)
	if err != nil {
		slog.Debug("Could not read table from callback source", "callback", describeType(spec), "err", err)
	}
	return Build(doc, spec)
}
