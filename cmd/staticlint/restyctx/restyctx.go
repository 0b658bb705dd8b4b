// Package restyctx reports resty requests that are sent without a context.
// A request built from Client.R() and sent in the same chain must call
// SetContext somewhere in between, otherwise the call outlives the HTTP
// request that triggered it.
package restyctx

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

const restyPath = "github.com/go-resty/resty/v2"

var sendMethods = map[string]bool{
	"Get":     true,
	"Head":    true,
	"Post":    true,
	"Put":     true,
	"Patch":   true,
	"Delete":  true,
	"Options": true,
	"Execute": true,
	"Send":    true,
}

var Analyzer = &analysis.Analyzer{
	Name: "restyctx",
	Doc:  "reports resty requests sent without SetContext",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || !sendMethods[sel.Sel.Name] || !isRestyType(pass.TypesInfo.TypeOf(sel.X), "Request") {
				return true
			}

			if startsAtClientR(pass, sel.X) {
				pass.Reportf(call.Pos(), "resty request sent without SetContext")
			}

			return true
		})
	}

	return nil, nil
}

// startsAtClientR walks the builder chain down to its root. It reports true when
// the root is Client.R() and no link of the chain is SetContext.
func startsAtClientR(pass *analysis.Pass, expr ast.Expr) bool {
	for {
		call, ok := expr.(*ast.CallExpr)
		if !ok {
			return false
		}

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return false
		}

		switch {
		case sel.Sel.Name == "SetContext":
			return false
		case sel.Sel.Name == "R" && isRestyType(pass.TypesInfo.TypeOf(sel.X), "Client"):
			return true
		}

		expr = sel.X
	}
}

func isRestyType(t types.Type, name string) bool {
	if t == nil {
		return false
	}
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	named, ok := t.(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()

	return obj.Pkg() != nil && obj.Pkg().Path() == restyPath && obj.Name() == name
}
