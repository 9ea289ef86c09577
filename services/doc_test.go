package services

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Error and Unwrap only satisfy the standard error interfaces.
var undocumentedAllowed = map[string]bool{"Error": true, "Unwrap": true}

func TestExportedFunctionsDocumented(t *testing.T) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, ".", func(fi os.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go")
	}, parser.ParseComments)
	require.NoError(t, err)
	require.Contains(t, pkgs, "services")

	for name, file := range pkgs["services"].Files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || !fn.Name.IsExported() || undocumentedAllowed[fn.Name.Name] {
				continue
			}
			assert.NotNil(t, fn.Doc, "%s: %s has no doc comment", name, fn.Name.Name)
		}
	}
}
