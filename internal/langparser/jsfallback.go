package langparser

import (
	"github.com/t14raptor/go-fast/ast"
	"github.com/t14raptor/go-fast/parser"

	"github.com/reflexsearch/reflex/internal/types"
)

// jsFallbackSymbols supplements the tree-sitter query's captures for plain
// JavaScript with declarations it structurally can't express as a single
// query pattern: a function or arrow function assigned to a const/let/var
// binding. go-fAST parses plain ES5/ES6 script bodies (it doesn't handle
// ES modules or TypeScript, so this only ever runs for LangJavaScript and
// any parse error is swallowed — it's a best-effort addition, not the
// primary extraction path).
func jsFallbackSymbols(fileID types.FileID, content []byte, existing map[string]bool) []types.Symbol {
	program, err := parser.ParseFile(string(content))
	if err != nil {
		return nil
	}

	var out []types.Symbol
	var visit func(stmt ast.Stmt)
	visit = func(stmt ast.Stmt) {
		switch s := stmt.(type) {
		case *ast.VariableDeclaration:
			for _, decl := range s.List {
				ident, ok := decl.Target.Target.(*ast.Identifier)
				if !ok || ident == nil || decl.Initializer == nil || decl.Initializer.Expr == nil {
					continue
				}
				name := ident.Name
				if existing[name] {
					continue
				}
				switch decl.Initializer.Expr.(type) {
				case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
					line, col := offsetToLineCol(content, int(s.Idx))
					out = append(out, types.Symbol{
						FileID: fileID,
						Kind:   types.SymbolFunction,
						Name:   name,
						Span:   types.Span{StartLine: line, StartCol: col, EndLine: line, EndCol: col + len(name)},
					})
					existing[name] = true
				}
			}
		case *ast.BlockStatement:
			for _, bodyStmt := range s.List {
				visit(bodyStmt.Stmt)
			}
		}
	}
	for _, stmt := range program.Body {
		visit(stmt.Stmt)
	}
	return out
}

// offsetToLineCol converts a 0-based byte offset into a 1-based
// (line, column) pair by counting newlines, matching the convention
// tree-sitter positions are normalized to elsewhere in this package.
func offsetToLineCol(content []byte, offset int) (line, col int) {
	if offset > len(content) {
		offset = len(content)
	}
	if offset < 0 {
		offset = 0
	}
	line = 1
	lastNL := -1
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			line++
			lastNL = i
		}
	}
	return line, offset - lastNL
}
