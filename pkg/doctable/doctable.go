// Provides functionality for finding and evaluating the doc tables written in Go source files.
// The fields of the structs defined in this package should never be modified directly.
package doctable

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"

	"github.com/maxgreen01/go-wheredoc/pkg/asttools"
	"github.com/maxgreen01/go-wheredoc/pkg/docsource"
	"github.com/maxgreen01/go-wheredoc/pkg/wheredoc"
	"golang.org/x/tools/go/packages"
)

// Represents where a doc table's text was found.
type Origin int

const (
	OriginComment Origin = iota // a labeled comment inside a callback passed to `Where`
	OriginSpec                  // the `Table` field of a Spec literal passed to `Where`
	OriginBuild                 // the string argument of a `Build` call
)

func (o Origin) String() string {
	switch o {
	case OriginComment:
		return "comment"
	case OriginSpec:
		return "spec"
	case OriginBuild:
		return "build"
	default:
		return "unknown"
	}
}

func (o Origin) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// Settings describing which calls introduce doc tables.
type Options struct {
	Label      string   // the label line that introduces a table inside a callback's comments
	WhereCalls []string // calls like `wheredoc.Where` that take a callback or Spec as their first argument
	BuildCalls []string // calls like `wheredoc.Build` that take a table string and a callback
}

// Represents an individual doc table written in a Go source file, along with the results of running it
// through the scenario pipeline.
type DocTable struct {
	// High-level identifiers
	ProjectName string // the name of the overarching project that the table is part of
	PackageName string // the name of the package where the table is defined, as it appears in the source code
	PackagePath string // the import path of the package, if known
	FilePath    string // the path to the file where the table is defined
	Line        int    // the line of the call that consumes the table
	FuncName    string // the top-level function enclosing the call, if any
	IsTest      bool   // whether the enclosing function is a valid test function

	// The table itself
	Origin Origin
	Text   string
	Table  wheredoc.Table

	// Evaluation results
	Corrections      []string          // table-wide problems, which suppress every row
	RowErrors        []string          // rows with the wrong number of tokens
	ConversionErrors []string          // tokens whose literal could not be parsed
	Records          []wheredoc.Params // the converted values of every valid row
	ValueKinds       map[string]int    // how many converted values there are of each kind
}

// Stands in for a callback that exists in the source, since the real one can't be called statically
var placeholderCallback = func(...any) {}

// Create a new DocTable from a table's text, running the text through the scenario pipeline.
// `hasCallback` reports whether a callback was supplied alongside the table in the source.
func New(text string, origin Origin, hasCallback bool) *DocTable {
	var callback any
	if hasCallback {
		callback = placeholderCallback
	}

	dt := &DocTable{
		Origin:     origin,
		Text:       text,
		Table:      wheredoc.Parse(text),
		ValueKinds: make(map[string]int),
	}

	for _, s := range wheredoc.Build(text, callback) {
		switch s.Kind {
		case wheredoc.KindCorrection:
			dt.Corrections = append(dt.Corrections, s.Error)
		case wheredoc.KindRowError:
			dt.RowErrors = append(dt.RowErrors, s.Error)
		case wheredoc.KindTest:
			dt.Records = append(dt.Records, s.Params)
			for i, value := range s.Values {
				dt.ValueKinds[wheredoc.KindOf(value)]++
				if litErr, ok := value.(*wheredoc.LiteralError); ok {
					dt.ConversionErrors = append(dt.ConversionErrors,
						fmt.Sprintf("Row %d, key %s: %s", s.Index+1, s.Keys[i], litErr.Error()))
				}
			}
		}
	}
	return dt
}

// Return whether evaluating the table found any problem.
func (dt *DocTable) HasProblems() bool {
	return len(dt.Corrections) > 0 || len(dt.RowErrors) > 0 || len(dt.ConversionErrors) > 0
}

// Return the number of table cells, counting every token of every row.
func (dt *DocTable) NumCells() int {
	cells := 0
	for _, row := range dt.Table.Rows {
		cells += len(row)
	}
	return cells
}

// Return a short identifier for the table, like `path/to/file_test.go:42`.
func (dt *DocTable) Location() string {
	return fmt.Sprintf("%s:%d", dt.FilePath, dt.Line)
}

//
// =============== Discovery ===============
//

// Find every doc table consumed by a matching call in a file, and evaluate each one.
// Tables whose text can't be determined without running the code (e.g. a table held in a variable) are skipped.
func Find(file *ast.File, fset *token.FileSet, pkg *packages.Package, project string, opts Options) []*DocTable {
	if file == nil || fset == nil {
		slog.Error("Cannot find doc tables with nil syntax data", "file", file, "project", project)
		return nil
	}
	label := opts.Label
	if label == "" {
		label = docsource.DefaultLabel
	}

	var tables []*DocTable
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}

		var dt *DocTable
		switch {
		case asttools.MatchCall(call, opts.WhereCalls):
			dt = fromWhereCall(file, call, label)
		case asttools.MatchCall(call, opts.BuildCalls):
			dt = fromBuildCall(call)
		default:
			return true
		}

		pos := fset.Position(call.Pos())
		if dt == nil {
			slog.Debug("Skipping doc table that can't be read statically", "file", pos.Filename, "line", pos.Line)
			return true
		}

		dt.ProjectName = project
		dt.PackageName = file.Name.Name
		if pkg != nil {
			dt.PackagePath = pkg.PkgPath
		}
		dt.FilePath = pos.Filename
		dt.Line = pos.Line
		if decl := asttools.EnclosingFuncDecl(file, call); decl != nil {
			dt.FuncName = decl.Name.Name
			dt.IsTest = IsTestFunc(decl)
		}

		slog.Debug("Found doc table", "location", dt.Location(), "origin", dt.Origin, "rows", len(dt.Table.Rows))
		tables = append(tables, dt)
		return true
	})
	return tables
}

// Read the table passed to a `Where`-style call, either from the callback's comments or from a Spec literal
func fromWhereCall(file *ast.File, call *ast.CallExpr, label string) *DocTable {
	arg := call.Args[0]

	if lit, ok := ast.Unparen(arg).(*ast.FuncLit); ok {
		return New(docsource.FromNode(file, lit, label), OriginComment, true)
	}

	// A named function declared in the same file
	if ident, ok := ast.Unparen(arg).(*ast.Ident); ok {
		for _, decl := range file.Decls {
			if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil && fn.Name.Name == ident.Name {
				return New(docsource.FromNode(file, fn, label), OriginComment, true)
			}
		}
		return nil
	}

	if asttools.IsCompositeLit(arg) {
		text := ""
		if tableExpr := asttools.CompositeField(arg, "Table"); tableExpr != nil {
			value, ok := asttools.StringValue(tableExpr)
			if !ok {
				return nil
			}
			text = value
		}
		return New(text, OriginSpec, isCallbackExpr(asttools.CompositeField(arg, "Callback")))
	}

	return nil
}

// Read the table passed to a `Build`-style call
func fromBuildCall(call *ast.CallExpr) *DocTable {
	text, ok := asttools.StringValue(call.Args[0])
	if !ok {
		return nil
	}

	var callback ast.Expr
	if len(call.Args) > 1 {
		callback = call.Args[1]
	}
	return New(text, OriginBuild, isCallbackExpr(callback))
}

// Return whether an expression supplies a callback, i.e. it exists and isn't the literal `nil`
func isCallbackExpr(expr ast.Expr) bool {
	if expr == nil {
		return false
	}
	if ident, ok := ast.Unparen(expr).(*ast.Ident); ok && ident.Name == "nil" {
		return false
	}
	return true
}
