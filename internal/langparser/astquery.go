package langparser

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/reflexsearch/reflex/internal/rerrors"
	"github.com/reflexsearch/reflex/internal/types"
)

// QueryAST runs an ad-hoc tree-sitter query pattern (as opposed to Parse's
// fixed per-language symbol/import query) against one file's syntax tree and
// returns the span of every capture, in document order. A pattern that fails
// to compile against lang's grammar is reported as AstPatternInvalid rather
// than a bare compile error, so callers can distinguish a bad pattern from a
// missing grammar.
func (p *Parser) QueryAST(lang types.Language, content []byte, pattern string) ([]types.Span, error) {
	g, err := p.grammarFor(lang)
	if err != nil {
		return nil, err
	}
	ts := p.parserFor(lang, g.lang)

	tree := ts.Parse(content, nil)
	if tree == nil {
		return nil, rerrors.NewParseFailed(lang.String(), fmt.Errorf("tree-sitter returned no tree"))
	}
	defer tree.Close()

	q, qErr := tree_sitter.NewQuery(g.lang, pattern)
	if qErr != nil {
		return nil, rerrors.NewAstPatternInvalid(pattern, qErr)
	}
	defer q.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	var spans []types.Span
	matches := qc.Matches(q, tree.RootNode(), content)
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		for _, c := range m.Captures {
			start, end := c.Node.StartPosition(), c.Node.EndPosition()
			spans = append(spans, types.Span{
				StartLine: int(start.Row) + 1,
				StartCol:  int(start.Column) + 1,
				EndLine:   int(end.Row) + 1,
				EndCol:    int(end.Column) + 1,
			})
		}
	}
	return spans, nil
}
