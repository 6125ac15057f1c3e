package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOnFileCreate(t *testing.T) {
	root, cacheDir, store := setup(t)

	ix := New(root, cacheDir, testConfig(), store)
	_, err := ix.Run(context.Background())
	require.NoError(t, err)

	w, err := NewWatcher(ix, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	events := w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(root, "second.go"), []byte("package main\n\nfunc Extra() {}\n"), 0o644))

	select {
	case ev, ok := <-events:
		require.True(t, ok)
		assert.Empty(t, ev.Error)
		assert.Equal(t, 1, ev.Stats.Indexed)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a debounced watch event")
	}
}
