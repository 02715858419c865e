// Extracts doc string tables from text and from Go source code.
//
// A table is marked by a label line (by default `where:`), followed by the lines of the table itself.
// In Go source the marker lives in a comment inside the function that consumes the table, e.g.
//
//	func(a, b, c int) {
//		// where:
//		//   a | b | c
//		//   1 | 2 | 3
//	}
package docsource

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"reflect"
	"runtime"
	"strings"
)

// The label that introduces a table when no other label is configured.
const DefaultLabel = "where:"

// Returned when a text or function contains no labeled table.
var ErrNoTable = errors.New("no labeled table found")

// Extract the table following the default `where:` label. See ExtractLabel.
func Extract(text string) string {
	return ExtractLabel(text, DefaultLabel)
}

// Extract the table following the first line that contains `label`.
// Anything else on the label line is ignored, then every following line is kept up to (but not including) the
// first line that is not blank, does not contain a `|`, and is not a `//` comment. Kept lines are trimmed,
// leading blank lines are dropped, and the table ends at its last line containing a `|`. Returns "" if the label is missing or is not followed by any table lines.
func ExtractLabel(text, label string) string {
	if label == "" {
		label = DefaultLabel
	}

	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(line, label) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	var table []string
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if line != "" && !strings.Contains(line, "|") && !strings.HasPrefix(line, "//") {
			break
		}
		table = append(table, line)
	}

	for len(table) > 0 && table[0] == "" {
		table = table[1:]
	}
	for len(table) > 0 && !strings.Contains(table[len(table)-1], "|") {
		table = table[:len(table)-1]
	}
	return strings.Join(table, "\n")
}

//
// =============== Go Source Extraction ===============
//

// Return the text of every comment lexically inside `node`, in source order, with comment markers removed.
func CommentText(file *ast.File, node ast.Node) string {
	if file == nil || node == nil {
		return ""
	}

	var parts []string
	for _, group := range file.Comments {
		if group.Pos() < node.Pos() || group.End() > node.End() {
			continue
		}
		parts = append(parts, group.Text())
	}
	return strings.Join(parts, "\n")
}

// Extract the table that follows `label` in the comments inside `node`.
func FromNode(file *ast.File, node ast.Node, label string) string {
	return ExtractLabel(CommentText(file, node), label)
}

// Extract the table embedded in the comments of a func's own source code, using the default label.
// The func's source file is located through the runtime's symbol table and parsed with `go/parser`,
// so the file must still exist at its build-time path.
func FromFunc(fn any) (string, error) {
	file, line, err := funcLocation(fn)
	if err != nil {
		return "", err
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading source of func: %w", err)
	}

	fset := token.NewFileSet()
	astFile, err := parser.ParseFile(fset, file, src, parser.ParseComments)
	if err != nil {
		return "", fmt.Errorf("parsing source of func: %w", err)
	}

	node := FuncAtLine(fset, astFile, line)
	if node == nil {
		return "", fmt.Errorf("no func found at %s:%d", file, line)
	}

	table := FromNode(astFile, node, DefaultLabel)
	if table == "" {
		return "", fmt.Errorf("func at %s:%d: %w", file, line, ErrNoTable)
	}
	slog.Debug("Extracted table from func source", "file", file, "line", line)
	return table, nil
}

// Return the source file and line where a func's code starts.
func funcLocation(fn any) (string, int, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "", 0, fmt.Errorf("expected a func but got %T", fn)
	}

	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "", 0, errors.New("func has no runtime symbol information")
	}
	file, line := rf.FileLine(rf.Entry())
	if file == "" || line == 0 {
		return "", 0, fmt.Errorf("no source position for func %s", rf.Name())
	}
	return file, line, nil
}

// Return the innermost function declaration or literal whose span includes `line`, or nil if there is none.
// When several functions share the line, the one starting on that line is preferred.
func FuncAtLine(fset *token.FileSet, file *ast.File, line int) ast.Node {
	var best ast.Node
	ast.Inspect(file, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.FuncDecl, *ast.FuncLit:
		default:
			return true
		}

		start, end := fset.Position(n.Pos()).Line, fset.Position(n.End()).Line
		if line < start || line > end {
			return false // nothing nested can contain the line either
		}
		if best == nil || fset.Position(best.Pos()).Line != line || start == line {
			best = n
		}
		return true
	})
	return best
}
