package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexsearch/reflex/internal/config"
	"github.com/reflexsearch/reflex/internal/types"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func defaultIndexCfg() config.Index {
	return config.Index{
		MaxFileSize:    types.DefaultMaxFileSize,
		MaxTotalSizeMB: types.DefaultMaxTotalSizeMB,
		MaxFileCount:   types.DefaultMaxFileCount,
	}
}

func TestWalk_AcceptsTextSkipsBinary(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\nfunc main() {}\n")
	writeFile(t, root, "logo.png", "\x89PNG\r\n\x1a\nnotarealpng")

	w, err := New(root, defaultIndexCfg(), nil, nil)
	require.NoError(t, err)
	candidates, stats, err := w.Walk()
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "main.go", candidates[0].Path)
	assert.Equal(t, types.LangGo, candidates[0].Language)
	assert.Equal(t, 1, stats.SkippedBinary)
}

func TestWalk_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "build/\n")
	writeFile(t, root, "src/a.go", "package a\n")
	writeFile(t, root, "build/out.go", "package build\n")

	cfg := defaultIndexCfg()
	cfg.RespectGitignore = true
	w, err := New(root, cfg, nil, nil)
	require.NoError(t, err)
	candidates, _, err := w.Walk()
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "src/a.go", candidates[0].Path)
}

func TestWalk_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.go", "package main\n")

	cfg := defaultIndexCfg()
	cfg.MaxFileSize = 5
	w, err := New(root, cfg, nil, nil)
	require.NoError(t, err)
	candidates, stats, err := w.Walk()
	require.NoError(t, err)

	assert.Empty(t, candidates)
	assert.Equal(t, 1, stats.SkippedSize)
}

func TestWalk_ExcludeGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "a_test.go", "package a\n")

	w, err := New(root, defaultIndexCfg(), nil, []string{"**/*_test.go"})
	require.NoError(t, err)
	candidates, _, err := w.Walk()
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "a.go", candidates[0].Path)
}

func TestHash_FastFingerprintDiffersOnChange(t *testing.T) {
	a := FastFingerprint([]byte("hello"))
	b := FastFingerprint([]byte("hello!"))
	assert.NotEqual(t, a, b)

	h1 := CanonicalHash([]byte("hello"))
	h2 := CanonicalHash([]byte("hello"))
	assert.Equal(t, h1, h2)
}
