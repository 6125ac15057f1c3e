// Package walker discovers candidate source files under a project root,
// applying size/count limits, gitignore-aware exclusion, and binary
// detection before a file ever reaches the Parser Layer, and computes the
// canonical and fast-fingerprint hashes the Indexer uses to decide whether
// a file actually changed.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/reflexsearch/reflex/internal/config"
	"github.com/reflexsearch/reflex/internal/types"
)

// Candidate is one file the Walker has accepted for indexing, with its raw
// bytes already loaded (the Walker reads each file exactly once, so the
// content it sniffed for binariness is handed straight to the Indexer).
type Candidate struct {
	Path     string // workspace-relative, forward-slash separated
	Language types.Language
	Content  []byte
	Fast     uint64 // FastFingerprint(Content)
}

// Stats summarizes one Walk invocation, including what was skipped and why,
// so callers can surface an accurate "N files skipped: too large" message.
type Stats struct {
	Scanned        int
	Accepted       int
	SkippedBinary  int
	SkippedSize    int
	SkippedIgnored int
	TotalBytes     int64
}

// Walker traverses a project root and yields indexable candidates.
type Walker struct {
	root      string
	cfg       config.Index
	include   []string
	exclude   []string
	gitignore *config.GitignoreParser
}

// New builds a Walker rooted at root. include/exclude are doublestar glob
// patterns layered on top of cfg.RespectGitignore exclusions.
func New(root string, cfg config.Index, include, exclude []string) (*Walker, error) {
	w := &Walker{
		root:    filepath.Clean(root),
		cfg:     cfg,
		include: include,
		exclude: exclude,
	}
	if cfg.RespectGitignore {
		gp := config.NewGitignoreParser()
		if err := gp.LoadGitignore(w.root); err != nil {
			return nil, fmt.Errorf("walker: load .gitignore: %w", err)
		}
		w.gitignore = gp
	}
	return w, nil
}

// Walk traverses the project root and returns every accepted candidate.
// It stops early once cfg.MaxFileCount candidates are accepted; a file that
// would push the total past cfg.MaxTotalSizeMB is skipped (counted in
// SkippedSize) and the walk goes on.
func (w *Walker) Walk() ([]Candidate, Stats, error) {
	var (
		candidates []Candidate
		stats      Stats
		totalBytes int64
		maxTotal   = w.cfg.MaxTotalSizeMB * 1024 * 1024
	)

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if w.isExcludedDir(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			if d.Type()&fs.ModeSymlink != 0 && !w.cfg.FollowSymlinks {
				return nil
			}
		}

		stats.Scanned++

		if len(candidates) >= w.cfg.MaxFileCount {
			return filepath.SkipAll
		}
		if w.isExcluded(rel) {
			stats.SkippedIgnored++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > w.cfg.MaxFileSize {
			stats.SkippedSize++
			return nil
		}
		if maxTotal > 0 && totalBytes+info.Size() > maxTotal {
			stats.SkippedSize++
			return nil
		}
		if isBinaryExtension(rel) {
			stats.SkippedBinary++
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if looksBinary(firstBytes(data, types.BinaryPreCheckBytes)) {
			stats.SkippedBinary++
			return nil
		}

		candidates = append(candidates, Candidate{
			Path:     rel,
			Language: types.LanguageFromExtension(strings.ToLower(filepath.Ext(rel))),
			Content:  data,
			Fast:     FastFingerprint(data),
		})
		stats.Accepted++
		totalBytes += info.Size()
		stats.TotalBytes = totalBytes
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walker: walk %s: %w", w.root, err)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	return candidates, stats, nil
}

func firstBytes(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}

var alwaysExcludedDirs = map[string]bool{
	".git": true, "node_modules": true, ".hg": true, ".svn": true,
}

func (w *Walker) isExcludedDir(rel string) bool {
	base := filepath.Base(rel)
	if alwaysExcludedDirs[base] {
		return true
	}
	return w.isExcluded(rel + "/")
}

// isExcluded applies, in order: explicit include (if any, acts as an
// allowlist), explicit exclude globs, then .gitignore patterns.
func (w *Walker) isExcluded(rel string) bool {
	if len(w.include) > 0 && !matchesAny(w.include, rel) {
		return true
	}
	if matchesAny(w.exclude, rel) {
		return true
	}
	if w.gitignore != nil {
		isDir := strings.HasSuffix(rel, "/")
		if w.gitignore.ShouldIgnore(strings.TrimSuffix(rel, "/"), isDir) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, strings.TrimSuffix(rel, "/")); ok {
			return true
		}
	}
	return false
}
