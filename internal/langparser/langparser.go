// Package langparser is the Parser Layer: tree-sitter based extraction of
// symbols and import edges from source text, one grammar per supported
// language. Parsing never fails the index — an unsupported or malformed
// file simply yields a trigram/content-only entry with no symbols.
package langparser

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"

	"github.com/reflexsearch/reflex/internal/rerrors"
	"github.com/reflexsearch/reflex/internal/types"
)

// ParseResult is what one file's parse yields.
type ParseResult struct {
	Symbols      []types.Symbol
	Dependencies []types.DependencyEdge
}

// grammar bundles a compiled tree-sitter Language with the single query
// this package runs over every file of that language. Captures are named
// `<kind>` (the whole declaration) and `<kind>.name` (its identifier);
// `import` and `import.source` drive dependency-edge extraction.
type grammar struct {
	lang  *tree_sitter.Language
	query *tree_sitter.Query
}

// Parser holds one lazily-initialized tree_sitter.Parser + compiled Query
// per language. Not safe for concurrent use across goroutines that share
// the same language — the Indexer's worker pool gives each worker its own
// Parser via NewParser.
type Parser struct {
	mu       sync.Mutex
	grammars map[types.Language]*grammar
	parsers  map[types.Language]*tree_sitter.Parser
}

// NewParser builds a Parser with every supported grammar registered but
// not yet compiled; compilation happens lazily on first use of a language
// so a process that only ever sees Go files never pays for the rest.
func NewParser() *Parser {
	return &Parser{
		grammars: make(map[types.Language]*grammar),
		parsers:  make(map[types.Language]*tree_sitter.Parser),
	}
}

// Supported reports whether lang has a registered grammar.
func Supported(lang types.Language) bool {
	_, ok := querySources[lang]
	return ok
}

// Supported is the method form, so callers holding a *Parser (the Indexer's
// per-worker instance, the background worker's instance) don't need a
// separate import-qualified call.
func (p *Parser) Supported(lang types.Language) bool {
	return Supported(lang)
}

func (p *Parser) grammarFor(lang types.Language) (*grammar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if g, ok := p.grammars[lang]; ok {
		return g, nil
	}
	ptrFn, ok := languagePointers[lang]
	if !ok {
		return nil, rerrors.NewUnsupportedLanguage(lang.String())
	}
	tsLang := tree_sitter.NewLanguage(ptrFn())
	q, qErr := tree_sitter.NewQuery(tsLang, querySources[lang])
	if qErr != nil {
		return nil, fmt.Errorf("langparser: compile query for %s: %w", lang, qErr)
	}
	g := &grammar{lang: tsLang, query: q}
	p.grammars[lang] = g
	return g, nil
}

func (p *Parser) parserFor(lang types.Language, tsLang *tree_sitter.Language) *tree_sitter.Parser {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ps, ok := p.parsers[lang]; ok {
		return ps
	}
	ps := tree_sitter.NewParser()
	ps.SetLanguage(tsLang)
	p.parsers[lang] = ps
	return ps
}

// Parse runs the language's grammar over content and extracts symbols and
// dependency edges. Non-nil error means the grammar could not be prepared
// (unsupported language or query compile failure); a malformed file under
// a supported grammar still returns whatever partial tree tree-sitter's
// error-recovery produced, never an error.
func (p *Parser) Parse(fileID types.FileID, lang types.Language, content []byte) (ParseResult, error) {
	g, err := p.grammarFor(lang)
	if err != nil {
		return ParseResult{}, err
	}
	ts := p.parserFor(lang, g.lang)

	tree := ts.Parse(content, nil)
	if tree == nil {
		return ParseResult{}, rerrors.NewParseFailed(lang.String(), fmt.Errorf("tree-sitter returned no tree"))
	}
	defer tree.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(g.query, tree.RootNode(), content)
	captureNames := g.query.CaptureNames()

	var result ParseResult
	names := make(map[string]string, 4) // capture kind (without ".name") -> identifier text

	for {
		m := matches.Next()
		if m == nil {
			break
		}
		for k := range names {
			delete(names, k)
		}
		for _, c := range m.Captures {
			cname := captureNames[c.Index]
			if strings.HasSuffix(cname, ".name") {
				names[strings.TrimSuffix(cname, ".name")] = nodeText(c.Node, content)
			}
		}
		for _, c := range m.Captures {
			cname := captureNames[c.Index]
			node := c.Node
			switch {
			case cname == "import.source":
				path := stripQuotes(nodeText(node, content))
				if path == "" {
					continue
				}
				result.Dependencies = append(result.Dependencies, types.DependencyEdge{
					SourceFileID: fileID,
					ImportedPath: path,
					Kind:         classifyImportKind(lang, path),
					LineNumber:   int(node.StartPosition().Row) + 1,
				})
			case strings.HasSuffix(cname, ".name") || cname == "import":
				// handled above, or not a standalone declaration
			default:
				kind := symbolKindFor(cname)
				if kind == types.SymbolUnknown {
					continue
				}
				start := node.StartPosition()
				end := node.EndPosition()
				result.Symbols = append(result.Symbols, types.Symbol{
					FileID: fileID,
					Kind:   kind,
					Name:   names[cname],
					Span: types.Span{
						StartLine: int(start.Row) + 1,
						StartCol:  int(start.Column) + 1,
						EndLine:   int(end.Row) + 1,
						EndCol:    int(end.Column) + 1,
					},
				})
			}
		}
	}

	if lang == types.LangJavaScript {
		existing := make(map[string]bool, len(result.Symbols))
		for _, s := range result.Symbols {
			existing[s.Name] = true
		}
		result.Symbols = append(result.Symbols, jsFallbackSymbols(fileID, content, existing)...)
	}

	return result, nil
}

func nodeText(n tree_sitter.Node, content []byte) string {
	s, e := n.StartByte(), n.EndByte()
	if int(e) > len(content) || s > e {
		return ""
	}
	return string(content[s:e])
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func symbolKindFor(capture string) types.SymbolKind {
	switch capture {
	case "function":
		return types.SymbolFunction
	case "method":
		return types.SymbolMethod
	case "class":
		return types.SymbolClass
	case "struct":
		return types.SymbolStruct
	case "enum":
		return types.SymbolEnum
	case "trait", "impl":
		return types.SymbolTrait
	case "interface":
		return types.SymbolInterface
	case "type":
		return types.SymbolType
	case "constant":
		return types.SymbolConstant
	case "variable":
		return types.SymbolVariable
	case "module", "namespace":
		return types.SymbolNamespace
	case "property":
		return types.SymbolProperty
	case "field":
		return types.SymbolField
	default:
		return types.SymbolUnknown
	}
}

// classifyImportKind distinguishes relative/local imports (resolved against
// the workspace by internal/depgraph) from package-manager or stdlib
// imports, per language convention.
func classifyImportKind(lang types.Language, path string) types.DependencyKind {
	switch lang {
	case types.LangGo:
		if !strings.Contains(path, ".") && !strings.Contains(path, "/") {
			return types.DepStdlib
		}
		return types.DepExternal
	case types.LangPython:
		if strings.HasPrefix(path, ".") {
			return types.DepInternal
		}
		return types.DepExternal
	case types.LangJavaScript, types.LangTypeScript, types.LangVue, types.LangSvelte:
		if strings.HasPrefix(path, ".") || strings.HasPrefix(path, "/") {
			return types.DepInternal
		}
		return types.DepExternal
	case types.LangRust:
		if strings.HasPrefix(path, "crate::") || strings.HasPrefix(path, "self::") || strings.HasPrefix(path, "super::") {
			return types.DepInternal
		}
		return types.DepExternal
	default:
		if strings.HasPrefix(path, ".") {
			return types.DepInternal
		}
		return types.DepExternal
	}
}

var languagePointers = map[types.Language]func() unsafe.Pointer{
	types.LangGo:         func() unsafe.Pointer { return tree_sitter_go.Language() },
	types.LangPython:     func() unsafe.Pointer { return tree_sitter_python.Language() },
	types.LangJavaScript: func() unsafe.Pointer { return tree_sitter_javascript.Language() },
	types.LangTypeScript: func() unsafe.Pointer { return tree_sitter_typescript.LanguageTypescript() },
	types.LangRust:       func() unsafe.Pointer { return tree_sitter_rust.Language() },
	types.LangCPP:        func() unsafe.Pointer { return tree_sitter_cpp.Language() },
	types.LangC:          func() unsafe.Pointer { return tree_sitter_cpp.Language() },
	types.LangJava:       func() unsafe.Pointer { return tree_sitter_java.Language() },
	types.LangCSharp:     func() unsafe.Pointer { return tree_sitter_csharp.Language() },
	types.LangPHP:        func() unsafe.Pointer { return tree_sitter_php.LanguagePHP() },
	types.LangZig:        func() unsafe.Pointer { return tree_sitter_zig.Language() },
}
