// Package metrics computes aggregate codebase statistics beyond the basic
// counters types.Statistics already tracks, backing `reflex stats
// --detailed`. Grounded on the teacher's codebase_stats.go for the
// summary/language-distribution shape, rewritten against internal/metadata
// and internal/depgraph directly: the teacher's internal/core
// (SymbolIndex, ReferenceTracker, ComponentDetector) was never carried into
// this tree, and most of the teacher's methods that depended on it were
// already unimplemented stubs ("This will be populated with actual
// implementation").
package metrics

import (
	"sort"

	"github.com/reflexsearch/reflex/internal/depgraph"
	"github.com/reflexsearch/reflex/internal/metadata"
	"github.com/reflexsearch/reflex/internal/types"
)

// LanguageStats is one language's contribution to a CodebaseStats report.
type LanguageStats struct {
	Language  string `json:"language"`
	Files     int    `json:"files"`
	Symbols   int    `json:"symbols"`
	SizeBytes int64  `json:"size_bytes"`
}

// SymbolKindStats is one symbol kind's share of the indexed symbol set.
type SymbolKindStats struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// CodebaseStats is the detailed statistics report assembled from the
// Metadata Store and dependency graph.
type CodebaseStats struct {
	TotalFiles   int   `json:"total_files"`
	TotalBytes   int64 `json:"total_bytes"`
	TotalSymbols int   `json:"total_symbols"`

	Languages   []LanguageStats   `json:"languages"`
	SymbolKinds []SymbolKindStats `json:"symbol_kinds"`

	AverageSymbolsPerFile float64 `json:"average_symbols_per_file"`

	TotalDependencyEdges int     `json:"total_dependency_edges"`
	AverageFanOut        float64 `json:"average_fan_out"`
	CyclicFileCount      int     `json:"cyclic_file_count"`
	UnusedFileCount      int     `json:"unused_file_count"`
}

// Compute builds a CodebaseStats report by walking every file store holds,
// reading its symbols and forward dependency edges, and folding the edge set
// into a depgraph.Graph for the cycle/unused-file queries.
func Compute(store *metadata.Store) (CodebaseStats, error) {
	files, err := store.AllFiles()
	if err != nil {
		return CodebaseStats{}, err
	}

	var cs CodebaseStats
	langTotals := make(map[types.Language]*LanguageStats)
	kindTotals := make(map[types.SymbolKind]int)

	var allEdges []types.DependencyEdge
	allFileIDs := make([]types.FileID, 0, len(files))

	for _, f := range files {
		cs.TotalFiles++
		cs.TotalBytes += f.SizeBytes
		allFileIDs = append(allFileIDs, f.ID)

		lt, ok := langTotals[f.Language]
		if !ok {
			lt = &LanguageStats{Language: f.Language.String()}
			langTotals[f.Language] = lt
		}
		lt.Files++
		lt.SizeBytes += f.SizeBytes

		if syms, err := store.SymbolsByFile(f.ID); err == nil {
			cs.TotalSymbols += len(syms)
			lt.Symbols += len(syms)
			for _, s := range syms {
				kindTotals[s.Kind]++
			}
		}

		if edges, err := store.ForwardDependencies(f.ID); err == nil {
			allEdges = append(allEdges, edges...)
		}
	}

	for _, lt := range langTotals {
		cs.Languages = append(cs.Languages, *lt)
	}
	sort.Slice(cs.Languages, func(i, j int) bool { return cs.Languages[i].Language < cs.Languages[j].Language })

	for k, count := range kindTotals {
		cs.SymbolKinds = append(cs.SymbolKinds, SymbolKindStats{Kind: k.String(), Count: count})
	}
	sort.Slice(cs.SymbolKinds, func(i, j int) bool { return cs.SymbolKinds[i].Kind < cs.SymbolKinds[j].Kind })

	if cs.TotalFiles > 0 {
		cs.AverageSymbolsPerFile = float64(cs.TotalSymbols) / float64(cs.TotalFiles)
		cs.AverageFanOut = float64(len(allEdges)) / float64(cs.TotalFiles)
	}
	cs.TotalDependencyEdges = len(allEdges)

	g := depgraph.Build(allFileIDs, allEdges)
	for _, cycle := range g.Cycles() {
		cs.CyclicFileCount += len(cycle)
	}
	cs.UnusedFileCount = len(g.Unused())

	return cs, nil
}
