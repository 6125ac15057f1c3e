package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexsearch/reflex/internal/types"
)

func buildStore(t *testing.T, files map[types.FileID]struct {
	Path string
	Data string
}) *Store {
	t.Helper()
	dir := t.TempDir()
	b, err := NewBuilder(dir)
	require.NoError(t, err)
	for id, f := range files {
		require.NoError(t, b.Add(id, f.Path, []byte(f.Data)))
	}
	finalPath := filepath.Join(dir, "content.bin")
	require.NoError(t, b.Finish(finalPath))

	s, err := Open(finalPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBuilder_RoundTrip(t *testing.T) {
	s := buildStore(t, map[types.FileID]struct {
		Path string
		Data string
	}{
		1: {Path: "a.go", Data: "package a\nfunc A() {}\n"},
		2: {Path: "b.go", Data: "package b\n"},
	})

	assert.Equal(t, 2, s.Count())

	data, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "package a\nfunc A() {}\n", string(data))

	data, ok = s.GetByPath("b.go")
	require.True(t, ok)
	assert.Equal(t, "package b\n", string(data))

	_, ok = s.Get(99)
	assert.False(t, ok)
}

func TestStore_ExtractContext(t *testing.T) {
	s := buildStore(t, map[types.FileID]struct {
		Path string
		Data string
	}{
		1: {Path: "multi.go", Data: "line1\nline2\nline3\nline4\n"},
	})

	ctx, err := s.ExtractContext(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "line2\nline3\n", string(ctx))

	ctx, err = s.ExtractContext(1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "line1\n", string(ctx))
}

func TestStore_LineCount(t *testing.T) {
	s := buildStore(t, map[types.FileID]struct {
		Path string
		Data string
	}{
		1: {Path: "x.go", Data: "a\nb\nc"},
	})
	assert.Equal(t, 3, s.LineCount(1))
}

func TestOpen_DetectsTornWrite(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(dir)
	require.NoError(t, err)
	require.NoError(t, b.Add(1, "a.go", []byte("content")))

	// Simulate a crash mid-write: copy the temp file as it stands before
	// Finish (only the header has reached disk; Add's bytes are still in
	// the write buffer), so there is no directory or trailer.
	tornPath := filepath.Join(dir, "torn.bin")
	raw, err := os.ReadFile(b.tmpPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tornPath, raw, 0644))
	b.Abort()

	_, err = Open(tornPath)
	assert.Error(t, err)
}

func TestOpen_RejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a content store at all, padding"), 0644))

	_, err := Open(path)
	assert.Error(t, err)
}
