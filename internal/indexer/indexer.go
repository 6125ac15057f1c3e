// Package indexer orchestrates one full index run: walk the workspace,
// parse changed files, and write the trigram, content and metadata stores.
// Grounded on internal/indexing/pipeline.go and internal/indexing/
// master_index.go's scan -> process -> integrate pipeline, trimmed to the
// spec's three-store commit (no semantic/intent/propagation stages — see
// DESIGN.md's drop list) and parallelized with golang.org/x/sync/errgroup.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reflexsearch/reflex/internal/config"
	"github.com/reflexsearch/reflex/internal/content"
	"github.com/reflexsearch/reflex/internal/langparser"
	"github.com/reflexsearch/reflex/internal/metadata"
	"github.com/reflexsearch/reflex/internal/rlog"
	"github.com/reflexsearch/reflex/internal/trigram"
	"github.com/reflexsearch/reflex/internal/types"
	"github.com/reflexsearch/reflex/internal/walker"
)

const (
	TrigramFileName  = "trigrams.bin"
	ContentFileName  = "content.bin"
	MetadataFileName = "metadata.db"
)

// IndexStats summarizes one Run, returned to the CLI's `index` command as
// spec §6's IndexStats.
type IndexStats struct {
	Scanned        int
	Indexed        int
	Unchanged      int
	Removed        int
	SkippedBinary  int
	SkippedSize    int
	SkippedIgnored int
	Errors         []string
	Duration       time.Duration
}

// Indexer drives a single index generation against one workspace root and
// cache directory.
type Indexer struct {
	Root      string
	CacheDir  string
	Cfg       *config.Config
	Store     *metadata.Store
	Parser    *langparser.Parser
	BranchKey string
}

// New constructs an Indexer. store is owned by the caller (it's shared
// with the query pipeline's live reads), so Run never closes it.
func New(root, cacheDir string, cfg *config.Config, store *metadata.Store) *Indexer {
	branch := cfg.Project.BranchKey
	if branch == "" {
		branch = "default"
	}
	return &Indexer{
		Root:      root,
		CacheDir:  cacheDir,
		Cfg:       cfg,
		Store:     store,
		Parser:    langparser.NewParser(),
		BranchKey: branch,
	}
}

type fileResult struct {
	candidate walker.Candidate
	fileID    types.FileID
	hash      [32]byte
	changed   bool
	parsed    langparser.ParseResult
	parseErr  error
}

// Run performs one full scan/process/integrate index generation, per spec
// §4.6. Deletion detection compares the walked file set against every path
// currently in the metadata store; anything missing is removed from all
// three stores. Metadata changes (removed files, file rows, hashes,
// symbols, dependency edges) are written as they are computed, each Store
// call in its own statement or per-file transaction, before the trigram
// and content blobs are written to temp files and renamed into place. The
// three stores are not committed as one unit: until both renames finish, a
// concurrent reader can see the new metadata next to the previous blobs.
func (ix *Indexer) Run(ctx context.Context) (IndexStats, error) {
	start := time.Now()
	var stats IndexStats

	lock, err := acquireWriterLock(ix.CacheDir)
	if err != nil {
		return stats, err
	}
	defer lock.Release()

	w, err := walker.New(ix.Root, ix.Cfg.Index, ix.Cfg.Include, ix.Cfg.Exclude)
	if err != nil {
		return stats, fmt.Errorf("indexer: build walker: %w", err)
	}
	candidates, wstats, err := w.Walk()
	if err != nil {
		return stats, fmt.Errorf("indexer: walk: %w", err)
	}
	stats.Scanned = wstats.Scanned
	stats.SkippedBinary = wstats.SkippedBinary
	stats.SkippedSize = wstats.SkippedSize
	stats.SkippedIgnored = wstats.SkippedIgnored

	results := make([]fileResult, len(candidates))
	workers := boundedWorkers()
	// One Parser per worker slot: a langparser.Parser is not safe for
	// concurrent use.
	parsers := make(chan *langparser.Parser, workers)
	for n := 0; n < workers; n++ {
		parsers <- langparser.NewParser()
	}
	g, gctx := errgroup.WithContext(ctx)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			var p *langparser.Parser
			select {
			case p = <-parsers:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { parsers <- p }()

			results[i] = ix.processOne(p, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	existing, err := ix.Store.ListFiles()
	if err != nil {
		return stats, fmt.Errorf("indexer: list existing files: %w", err)
	}
	walked := make(map[string]bool, len(results))
	for _, r := range results {
		walked[r.candidate.Path] = true
	}
	var removedPaths []string
	for _, p := range existing {
		if !walked[p] {
			removedPaths = append(removedPaths, p)
		}
	}
	sort.Strings(removedPaths)

	trigramIdx := trigram.New()
	contentBuilder, err := content.NewBuilder(ix.CacheDir)
	if err != nil {
		return stats, fmt.Errorf("indexer: open content builder: %w", err)
	}

	for _, path := range removedPaths {
		if f, ok, err := ix.Store.FileByPath(path); err == nil && ok {
			if err := ix.Store.DeleteFile(f.ID); err != nil {
				contentBuilder.Abort()
				return stats, fmt.Errorf("indexer: delete removed file %s: %w", path, err)
			}
			stats.Removed++
		}
	}

	for i := range results {
		r := &results[i]
		if r.parseErr != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", r.candidate.Path, r.parseErr))
		}

		fileID, err := ix.Store.UpsertFile(types.File{
			Path:      r.candidate.Path,
			Language:  r.candidate.Language,
			SizeBytes: int64(len(r.candidate.Content)),
		})
		if err != nil {
			contentBuilder.Abort()
			return stats, fmt.Errorf("indexer: upsert file %s: %w", r.candidate.Path, err)
		}
		r.fileID = fileID

		prevHash, hadPrev, _ := ix.Store.FileHash(fileID, ix.BranchKey)
		newHash := fmt.Sprintf("%x", r.hash)
		r.changed = !hadPrev || prevHash != newHash
		if r.changed {
			stats.Indexed++
			if err := ix.Store.SetFileHash(fileID, ix.BranchKey, r.hash); err != nil {
				contentBuilder.Abort()
				return stats, fmt.Errorf("indexer: set hash for %s: %w", r.candidate.Path, err)
			}
			if err := ix.Store.ReplaceSymbols(fileID, r.parsed.Symbols); err != nil {
				contentBuilder.Abort()
				return stats, fmt.Errorf("indexer: replace symbols for %s: %w", r.candidate.Path, err)
			}
		} else {
			stats.Unchanged++
		}

		trigramIdx.AddFile(fileID, r.candidate.Content)
		if err := contentBuilder.Add(fileID, r.candidate.Path, r.candidate.Content); err != nil {
			contentBuilder.Abort()
			return stats, fmt.Errorf("indexer: append content for %s: %w", r.candidate.Path, err)
		}
	}

	// Dependency edges resolve against the file set as a whole, so they're
	// replaced in a second pass after every file has a FileID.
	pathToID := make(map[string]types.FileID, len(results))
	for _, r := range results {
		pathToID[r.candidate.Path] = r.fileID
	}
	for _, r := range results {
		if !r.changed {
			continue
		}
		edges := resolveDependencies(r.parsed.Dependencies, pathToID)
		if err := ix.Store.ReplaceDependencies(r.fileID, edges); err != nil {
			contentBuilder.Abort()
			return stats, fmt.Errorf("indexer: replace dependencies for %s: %w", r.candidate.Path, err)
		}
	}

	if err := trigram.WriteTo(filepath.Join(ix.CacheDir, TrigramFileName), trigramIdx.Snapshot()); err != nil {
		contentBuilder.Abort()
		return stats, fmt.Errorf("indexer: write trigram blob: %w", err)
	}
	if err := contentBuilder.Finish(filepath.Join(ix.CacheDir, ContentFileName)); err != nil {
		return stats, fmt.Errorf("indexer: write content blob: %w", err)
	}

	if _, err := ix.Store.RecomputeStatistics(); err != nil {
		return stats, fmt.Errorf("indexer: recompute statistics: %w", err)
	}

	if ix.Cfg.Worker.Enabled {
		if err := spawnBackgroundWorker(ix.Root, ix.CacheDir, ix.Cfg.Worker.StatusDir); err != nil {
			rlog.LogIndexing("background symbol worker not started: %v", err)
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// processOne reads, hashes, and parses a single candidate. It never
// returns an error for a per-file parse failure (spec §7: ParseFailed is
// non-fatal and recorded, not propagated); it only returns through
// fileResult.parseErr, which the caller surfaces as a warning.
func (ix *Indexer) processOne(p *langparser.Parser, c walker.Candidate) fileResult {
	r := fileResult{candidate: c, hash: walker.CanonicalHash(c.Content)}
	if !p.Supported(c.Language) {
		return r
	}
	parsed, err := p.Parse(0, c.Language, c.Content)
	if err != nil {
		r.parseErr = err
		return r
	}
	r.parsed = parsed
	return r
}

// resolveDependencies rewrites a file's raw edges to attach ResolvedFileID
// wherever the imported path matches a file in this index generation.
func resolveDependencies(edges []types.DependencyEdge, pathToID map[string]types.FileID) []types.DependencyEdge {
	out := make([]types.DependencyEdge, len(edges))
	for i, e := range edges {
		out[i] = e
		if e.Kind != types.DepInternal {
			continue
		}
		if id, ok := pathToID[e.ImportedPath]; ok {
			fid := id
			out[i].ResolvedFileID = &fid
		}
	}
	return out
}

// boundedWorkers caps the parse-stage pool at 80% of available cores per
// spec §5, leaving headroom for the metadata store's single writer
// connection and any concurrent query readers.
func boundedWorkers() int {
	n := runtime.NumCPU() * 8 / 10
	if n < 1 {
		n = 1
	}
	return n
}

// EnsureCacheDir creates the cache directory if absent, for `reflex init`.
func EnsureCacheDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
