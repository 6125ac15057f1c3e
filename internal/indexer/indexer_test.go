package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexsearch/reflex/internal/config"
	"github.com/reflexsearch/reflex/internal/metadata"
)

func testConfig() *config.Config {
	return &config.Config{
		Index: config.Index{
			MaxFileSize:      1 << 20,
			MaxTotalSizeMB:   100,
			MaxFileCount:     10000,
			RespectGitignore: true,
		},
	}
}

func setup(t *testing.T) (root, cacheDir string, store *metadata.Store) {
	t.Helper()
	root = t.TempDir()
	cacheDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(`package main

func Greet() string { return "hi" }
`), 0o644))

	store, err := metadata.Open(filepath.Join(cacheDir, MetadataFileName))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return root, cacheDir, store
}

func TestRun_IndexesFilesAndWritesBlobs(t *testing.T) {
	root, cacheDir, store := setup(t)
	ix := New(root, cacheDir, testConfig(), store)

	stats, err := ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Indexed)
	assert.Empty(t, stats.Errors)

	assert.FileExists(t, filepath.Join(cacheDir, TrigramFileName))
	assert.FileExists(t, filepath.Join(cacheDir, ContentFileName))

	f, ok, err := store.FileByPath("main.go")
	require.NoError(t, err)
	require.True(t, ok)

	syms, err := store.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "Greet", syms[0].Name)
}

func TestRun_SecondRunIsUnchanged(t *testing.T) {
	root, cacheDir, store := setup(t)
	ix := New(root, cacheDir, testConfig(), store)

	_, err := ix.Run(context.Background())
	require.NoError(t, err)

	stats, err := ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 0, stats.Indexed)
}

func TestRun_DetectsDeletion(t *testing.T) {
	root, cacheDir, store := setup(t)
	ix := New(root, cacheDir, testConfig(), store)

	_, err := ix.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "main.go")))

	stats, err := ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)

	_, ok, err := store.FileByPath("main.go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcquireWriterLock_FailsFastWhenHeld(t *testing.T) {
	dir := t.TempDir()
	lock, err := acquireWriterLock(dir)
	require.NoError(t, err)
	defer lock.Release()

	_, err = acquireWriterLock(dir)
	assert.Error(t, err)
}
