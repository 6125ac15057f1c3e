package query

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/reflexsearch/reflex/internal/content"
	"github.com/reflexsearch/reflex/internal/depgraph"
	"github.com/reflexsearch/reflex/internal/indexer"
	"github.com/reflexsearch/reflex/internal/langparser"
	"github.com/reflexsearch/reflex/internal/metadata"
	"github.com/reflexsearch/reflex/internal/rerrors"
	"github.com/reflexsearch/reflex/internal/trigram"
	"github.com/reflexsearch/reflex/internal/types"
)

// Engine holds the opened stores a query runs against. One Engine is built
// per CLI invocation (or held open for the lifetime of a "serve" process).
// The Engine only reads its stores, but symbols_only and ast queries share
// the one langparser.Parser, which is not safe for concurrent use; the CLI
// and rpc.Serve issue one Query at a time. The Engine takes no lock of its
// own, and the Indexer's writer lock excludes other writers only.
type Engine struct {
	Meta      *metadata.Store
	Content   *content.Store
	Trigram   *trigram.Index
	Parser    *langparser.Parser
	BranchKey string

	defaultTimeout time.Duration
	maxResults     int
	suggest        bool
}

// Open opens the persisted stores under cacheDir: the content store is
// mapped read-only and the trigram blob is loaded into memory, while the
// metadata store is opened through metadata.Open like any other. branchKey
// selects which file_branches row SymbolCache lookups are gated against.
func Open(cacheDir, branchKey string, defaultTimeout time.Duration, maxResults int, enableSuggestions bool) (*Engine, error) {
	meta, err := metadata.Open(filepath.Join(cacheDir, indexer.MetadataFileName))
	if err != nil {
		return nil, fmt.Errorf("query: open metadata store: %w", err)
	}
	cs, err := content.Open(filepath.Join(cacheDir, indexer.ContentFileName))
	if err != nil {
		meta.Close()
		return nil, fmt.Errorf("query: open content store: %w", err)
	}
	reader, err := trigram.Open(filepath.Join(cacheDir, indexer.TrigramFileName))
	if err != nil {
		meta.Close()
		cs.Close()
		return nil, fmt.Errorf("query: open trigram index: %w", err)
	}
	idx := trigram.New()
	idx.Load(reader.LoadAll())
	reader.Close()

	if branchKey == "" {
		branchKey = "default"
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Second
	}
	if maxResults <= 0 {
		maxResults = 100
	}

	return &Engine{
		Meta:           meta,
		Content:        cs,
		Trigram:        idx,
		Parser:         langparser.NewParser(),
		BranchKey:      branchKey,
		defaultTimeout: defaultTimeout,
		maxResults:     maxResults,
		suggest:        enableSuggestions,
	}, nil
}

// Close releases the Engine's stores. It does not affect the trigram index,
// which was already fully loaded into memory by Open.
func (e *Engine) Close() error {
	e.Content.Close()
	return e.Meta.Close()
}

// Query runs the three-phase pipeline: candidate selection, enrichment, and
// filter/finalize.
func (e *Engine) Query(ctx context.Context, req Request) (Response, error) {
	if req.Exact && req.Contains {
		return Response{}, rerrors.NewRegexInvalid(req.Pattern, fmt.Errorf("exact and contains cannot both be set"))
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cands, err := e.candidates(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if err := ctx.Err(); err != nil {
		return Response{}, rerrors.NewQueryTimeout("candidate phase")
	}

	results, err := e.enrich(ctx, req, cands)
	if err != nil {
		return Response{}, err
	}
	if err := ctx.Err(); err != nil {
		return Response{}, rerrors.NewQueryTimeout("enrichment phase")
	}

	resp := e.finalize(req, results)
	if e.suggest && resp.Pagination.Count == 0 && req.Mode == ModeSymbolsOnly {
		resp.Suggestions = e.suggestSymbols(req.Pattern)
	}
	return resp, nil
}

// finalize applies filters, deterministic sort, pagination, and (for
// paths_only) path dedup.
func (e *Engine) finalize(req Request, results []Result) Response {
	filtered := results[:0]
	for _, r := range results {
		if req.Language != nil && r.Language != req.Language.String() {
			continue
		}
		if req.Kind != nil && r.Kind != req.Kind.String() {
			continue
		}
		if req.PathGlob != "" {
			if ok, _ := filepath.Match(req.PathGlob, r.Path); !ok {
				continue
			}
		}
		filtered = append(filtered, r)
	}
	results = filtered

	sort.Slice(results, func(i, j int) bool {
		if results[i].Path != results[j].Path {
			return results[i].Path < results[j].Path
		}
		if results[i].Span.StartLine != results[j].Span.StartLine {
			return results[i].Span.StartLine < results[j].Span.StartLine
		}
		return results[i].Span.StartCol < results[j].Span.StartCol
	})

	if req.PathsOnly {
		seen := make(map[string]bool, len(results))
		deduped := results[:0]
		for _, r := range results {
			if seen[r.Path] {
				continue
			}
			seen[r.Path] = true
			deduped = append(deduped, Result{Path: r.Path})
		}
		results = deduped
	}

	total := len(results)
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	limit := req.Limit
	if limit <= 0 || limit > e.maxResults {
		limit = e.maxResults
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := results[offset:end]

	return Response{
		Freshness: types.NewFreshness(types.StatusFresh, ""),
		Pagination: Pagination{
			Total:   total,
			Count:   len(page),
			Offset:  offset,
			Limit:   limit,
			HasMore: end < total,
		},
		Results: page,
	}
}

// graphFor builds a dependency graph over every indexed file, used by the
// deps() and analyze() operations.
func (e *Engine) graphFor() (*depgraph.Graph, error) {
	files, err := e.Meta.AllFiles()
	if err != nil {
		return nil, err
	}
	ids := make([]types.FileID, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	edges, err := e.Meta.AllDependencyEdges()
	if err != nil {
		return nil, err
	}
	return depgraph.Build(ids, edges), nil
}
