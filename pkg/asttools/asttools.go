package asttools

// A collection of general-purpose AST-related utility functions

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

//
// ========== Conversion Functions ==========
//

// Define a printer config for converting AST nodes to string representations
var printerCfg = &printer.Config{
	Mode:     printer.UseSpaces | printer.TabIndent,
	Tabwidth: 4,
}

// Convert an AST node to a string representation using `go/printer`.
// Returns an empty string if the node is nil or cannot be printed.
func NodeToString(node ast.Node, fset *token.FileSet) string {
	if node == nil || reflect.ValueOf(node).IsNil() {
		return ""
	}
	if fset == nil {
		slog.Error("Failed to format AST node because FileSet is nil", "nodeType", fmt.Sprintf("%T", node))
		return ""
	}

	var buf bytes.Buffer
	if err := printerCfg.Fprint(&buf, fset, node); err != nil {
		slog.Error("Failed to format AST node", "err", err, "nodeType", fmt.Sprintf("%T", node))
		return ""
	}
	return buf.String()
}

// Return the value of a constant string expression made of string literals, optionally joined with `+`.
// Returns false for anything that can't be evaluated without type information.
func StringValue(expr ast.Expr) (string, bool) {
	switch e := ast.Unparen(expr).(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return "", false
		}
		value, err := strconv.Unquote(e.Value)
		if err != nil {
			return "", false
		}
		return value, true

	case *ast.BinaryExpr:
		if e.Op != token.ADD {
			return "", false
		}
		left, ok := StringValue(e.X)
		if !ok {
			return "", false
		}
		right, ok := StringValue(e.Y)
		if !ok {
			return "", false
		}
		return left + right, true
	}
	return "", false
}

//
// ========== Node Detection Functions ==========
//

// Returns a boolean indicating whether a selector expression has the form `owner.name`.
func MatchSelectorExpr(expr ast.Expr, owner, name string) bool {
	if selExpr, ok := ast.Unparen(expr).(*ast.SelectorExpr); ok {
		if ident, ok := selExpr.X.(*ast.Ident); ok && ident.Name == owner && selExpr.Sel.Name == name {
			return true
		}
	}
	return false
}

// Returns a boolean indicating whether a call's function matches any of the given names.
// Each name is either qualified like `owner.name` (matching a selector) or bare like `name` (matching an identifier).
func MatchCall(call *ast.CallExpr, names []string) bool {
	if call == nil {
		return false
	}
	fun := ast.Unparen(call.Fun)

	for _, name := range names {
		if owner, sel, qualified := strings.Cut(name, "."); qualified {
			if MatchSelectorExpr(fun, owner, sel) {
				return true
			}
		} else if ident, ok := fun.(*ast.Ident); ok && ident.Name == name {
			return true
		}
	}
	return false
}

// Return the value expression of the field named `name` in a keyed composite literal like `T{Name: value}`,
// looking through a leading `&`. Returns nil if the expression isn't a composite literal or has no such field.
func CompositeField(expr ast.Expr, name string) ast.Expr {
	expr = ast.Unparen(expr)
	if unary, ok := expr.(*ast.UnaryExpr); ok && unary.Op == token.AND {
		expr = ast.Unparen(unary.X)
	}

	lit, ok := expr.(*ast.CompositeLit)
	if !ok {
		return nil
	}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		if key, ok := kv.Key.(*ast.Ident); ok && key.Name == name {
			return kv.Value
		}
	}
	return nil
}

// Return whether a composite literal (optionally behind `&`) is present at all.
func IsCompositeLit(expr ast.Expr) bool {
	expr = ast.Unparen(expr)
	if unary, ok := expr.(*ast.UnaryExpr); ok && unary.Op == token.AND {
		expr = ast.Unparen(unary.X)
	}
	_, ok := expr.(*ast.CompositeLit)
	return ok
}

// Return the top-level function declaration that encloses `node` in `file`, or nil if there is none.
func EnclosingFuncDecl(file *ast.File, node ast.Node) *ast.FuncDecl {
	if file == nil || node == nil {
		return nil
	}
	path, _ := astutil.PathEnclosingInterval(file, node.Pos(), node.End())
	for _, n := range path {
		if decl, ok := n.(*ast.FuncDecl); ok {
			return decl
		}
	}
	return nil
}
