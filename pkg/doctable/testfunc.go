package doctable

import (
	"go/ast"
	"strings"
)

// Determine if the given function declaration is a valid top-level test function.
//
// The function is validated using the following criteria:
//   - The function name starts with "Test"
//   - The function has `*testing.T` as its only formal parameter
//   - The function does not have any receiver (i.e., it is not a method)
//   - The function does not have any generic type parameters
//   - The function does not return any values
func IsTestFunc(funcDecl *ast.FuncDecl) bool {
	if funcDecl == nil || funcDecl.Name == nil || !strings.HasPrefix(funcDecl.Name.Name, "Test") {
		return false
	}

	funcType := funcDecl.Type
	if funcDecl.Recv != nil || funcType.TypeParams != nil || funcType.Results != nil {
		return false
	}
	if funcType.Params == nil || len(funcType.Params.List) != 1 || len(funcType.Params.List[0].Names) > 1 {
		return false
	}

	// expecting exactly `*testing.T`
	starExpr, ok := funcType.Params.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	selectorExpr, ok := starExpr.X.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkgIdent, ok := selectorExpr.X.(*ast.Ident)
	return ok && pkgIdent.Name == "testing" && selectorExpr.Sel.Name == "T"
}
