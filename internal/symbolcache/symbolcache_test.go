package symbolcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexsearch/reflex/internal/config"
	"github.com/reflexsearch/reflex/internal/indexer"
	"github.com/reflexsearch/reflex/internal/metadata"
	"github.com/reflexsearch/reflex/internal/types"
)

func TestStatus_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := Status{State: StateRunning, PID: 123, TotalPending: 5, Processed: 2, UpdatedAt: time.Now()}
	require.NoError(t, WriteStatus(dir, st))

	got, err := ReadStatus(dir)
	require.NoError(t, err)
	assert.Equal(t, StateRunning, got.State)
	assert.Equal(t, 5, got.TotalPending)
}

func TestReadStatus_MissingIsIdle(t *testing.T) {
	st, err := ReadStatus(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st.State)
}

func TestLookup_MissesUntilHashRecorded(t *testing.T) {
	cacheDir := t.TempDir()
	store, err := metadata.Open(filepath.Join(cacheDir, indexer.MetadataFileName))
	require.NoError(t, err)
	defer store.Close()

	fileID, err := store.UpsertFile(types.File{Path: "a.go", Language: types.LangGo, SizeBytes: 10})
	require.NoError(t, err)

	syms, hit, err := Lookup(store, fileID, "default", [32]byte{1})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, syms)

	require.NoError(t, store.SetFileHash(fileID, "default", [32]byte{1}))
	require.NoError(t, store.ReplaceSymbols(fileID, []types.Symbol{{FileID: fileID, Kind: types.SymbolFunction, Name: "F"}}))

	syms, hit, err = Lookup(store, fileID, "default", [32]byte{1})
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, syms, 1)
}

func TestWorker_BackfillsMissingSymbols(t *testing.T) {
	root := t.TempDir()
	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(`package main

func Hello() {}
`), 0o644))

	cfg := &config.Config{Index: config.Index{MaxFileSize: 1 << 20, MaxTotalSizeMB: 100, MaxFileCount: 1000}}
	store, err := metadata.Open(filepath.Join(cacheDir, indexer.MetadataFileName))
	require.NoError(t, err)
	defer store.Close()

	ix := indexer.New(root, cacheDir, cfg, store)
	_, err = ix.Run(context.Background())
	require.NoError(t, err)

	f, ok, err := store.FileByPath("main.go")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.ReplaceSymbols(f.ID, nil)) // simulate symbols never having been parsed

	w := &Worker{Root: root, CacheDir: cacheDir, StatusDir: filepath.Join(cacheDir, "worker"), PollInterval: 10 * time.Millisecond, IdleTimeout: 20 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Run(ctx))

	syms, err := store.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "Hello", syms[0].Name)

	st, err := ReadStatus(w.StatusDir)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st.State)
}
