package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexsearch/reflex/internal/config"
	"github.com/reflexsearch/reflex/internal/indexer"
	"github.com/reflexsearch/reflex/internal/metadata"
	"github.com/reflexsearch/reflex/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{Index: config.Index{MaxFileSize: 1 << 20, MaxTotalSizeMB: 100, MaxFileCount: 10000}}
}

func buildEngine(t *testing.T, root string) *Engine {
	t.Helper()
	cacheDir := t.TempDir()
	store, err := metadata.Open(filepath.Join(cacheDir, indexer.MetadataFileName))
	require.NoError(t, err)

	ix := indexer.New(root, cacheDir, testConfig(), store)
	_, err = ix.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	eng, err := Open(cacheDir, "default", 0, 0, false)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestQuery_SymbolsOnlyExactMatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n\nfunc parseTree() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package a\n\nfunc testParse() { parseTree() }\n"), 0o644))

	eng := buildEngine(t, root)
	resp, err := eng.Query(context.Background(), Request{Pattern: "parseTree", Mode: ModeSymbolsOnly, Exact: true})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a.go", resp.Results[0].Path)
	assert.Equal(t, "function", resp.Results[0].Kind)
}

func TestQuery_RegexRequiresLiteralMatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "m.go"), []byte("package m\n\nfunc TestAlpha(t *int) {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "n.go"), []byte("package m\n\n// TestAlpha\n"), 0o644))

	eng := buildEngine(t, root)

	resp, err := eng.Query(context.Background(), Request{Pattern: `^func\s+TestAlpha`, Mode: ModeRegex})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "m.go", resp.Results[0].Path)

	resp, err = eng.Query(context.Background(), Request{Pattern: "TestAlpha", Mode: ModeSubstring})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestQuery_PaginationLaw(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, string(rune('a'+i))+".go"), []byte("package p\n\nfunc Needle() {}\n"), 0o644))
	}
	eng := buildEngine(t, root)

	full, err := eng.Query(context.Background(), Request{Pattern: "Needle", Mode: ModeSymbolsOnly, Exact: true, Limit: 100})
	require.NoError(t, err)
	require.Len(t, full.Results, 5)

	first, err := eng.Query(context.Background(), Request{Pattern: "Needle", Mode: ModeSymbolsOnly, Exact: true, Offset: 0, Limit: 3})
	require.NoError(t, err)
	second, err := eng.Query(context.Background(), Request{Pattern: "Needle", Mode: ModeSymbolsOnly, Exact: true, Offset: 3, Limit: 2})
	require.NoError(t, err)

	combined := append(append([]Result{}, first.Results...), second.Results...)
	require.Len(t, combined, 5)
	for i := range combined {
		assert.Equal(t, full.Results[i].Path, combined[i].Path)
	}
}

func TestQuery_ShortPatternScansAllFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "x.go"), []byte("package x\nvar ab = 1\n"), 0o644))
	eng := buildEngine(t, root)

	resp, err := eng.Query(context.Background(), Request{Pattern: "ab", Mode: ModeSubstring})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)
}

func TestDeps_ReverseLookup(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.go"), []byte("package root\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte(`package root

import "./lib.go"
`), 0o644))
	eng := buildEngine(t, root)

	resp, err := eng.Deps(DepsRequest{File: "lib.go", Direction: DirReverse})
	require.NoError(t, err)
	assert.Equal(t, types.StatusFresh, resp.Status)
}

func TestAnalyze_Unused(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package root\n"), 0o644))
	eng := buildEngine(t, root)

	resp, err := eng.Analyze(AnalysisRequest{Kind: AnalysisUnused})
	require.NoError(t, err)
	assert.Contains(t, resp.Unused, "a.go")
}
