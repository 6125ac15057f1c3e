// Package query is the Query Pipeline: candidate selection, enrichment, and
// filter/finalize, grounded on internal/search/engine.go and
// internal/search/search_coordinator.go's phase separation but trimmed to
// the three named phases with every semantic-scoring stage removed.
package query

import (
	"time"

	"github.com/reflexsearch/reflex/internal/types"
)

// Mode selects which candidate/enrichment strategy a Request uses.
type Mode string

const (
	ModeSubstring   Mode = "substring"
	ModeRegex       Mode = "regex"
	ModeSymbolsOnly Mode = "symbols_only"
	ModeAST         Mode = "ast"
)

// Request is the query operation's input, matching the operation surface's
// query(request) signature.
type Request struct {
	Pattern         string `json:"pattern"`
	Mode            Mode   `json:"mode"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty"`
	Exact           bool   `json:"exact,omitempty"`    // symbols_only: require an exact name match
	Contains        bool   `json:"contains,omitempty"` // symbols_only: substring name match (default when neither Exact nor Contains is set)

	Language *types.Language   `json:"language,omitempty"` // nil = no language filter
	Kind     *types.SymbolKind `json:"kind,omitempty"`
	PathGlob string            `json:"path_glob,omitempty"`

	Offset    int  `json:"offset,omitempty"`
	Limit     int  `json:"limit,omitempty"`
	PathsOnly bool `json:"paths_only,omitempty"`

	WithDependencies bool          `json:"with_dependencies,omitempty"`
	ContextLines     int           `json:"context_lines,omitempty"`
	Timeout          time.Duration `json:"timeout_ns,omitempty"`

	// AST mode only.
	ASTPattern string         `json:"ast_pattern,omitempty"`
	ASTLang    types.Language `json:"ast_lang,omitempty"`
	TextFilter string         `json:"text_filter,omitempty"` // optional literal used to trigram-prefilter an AST scan
}

// Pagination mirrors the result envelope's pagination block.
type Pagination struct {
	Total   int  `json:"total"`
	Count   int  `json:"count"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// Result is one SearchResult. Fields unrelated to the query mode are left
// at their zero value and omitted from JSON rather than nulled.
type Result struct {
	Path          string                 `json:"path"`
	Span          types.Span             `json:"span"`
	Kind          string                 `json:"kind,omitempty"`
	Symbol        string                 `json:"symbol,omitempty"`
	Language      string                 `json:"language,omitempty"`
	Preview       string                 `json:"preview,omitempty"`
	ContextBefore []string               `json:"context_before,omitempty"`
	ContextAfter  []string               `json:"context_after,omitempty"`
	Dependencies  []types.DependencyEdge `json:"dependencies,omitempty"`

	// ID is a compact, opaque reference to a symbols_only result — the
	// owning file's ID and the symbol's position within that file's symbol
	// list, base-63 encoded. Empty for non-symbol results.
	ID string `json:"id,omitempty"`

	fileID types.FileID
}

// Response is the query operation's output.
type Response struct {
	types.Freshness
	Pagination  Pagination `json:"pagination"`
	Results     []Result   `json:"results"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

// candidate is an unverified hit produced by the candidate phase, carrying
// just enough to drive enrichment.
type candidate struct {
	fileID types.FileID
	path   string
	lang   types.Language
}
