package trigram

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexsearch/reflex/internal/types"
)

func TestIndex_AddAndSearchAnd(t *testing.T) {
	idx := New()
	idx.AddFile(types.FileID(1), []byte("hello world\nsecond line"))
	idx.AddFile(types.FileID(2), []byte("goodbye world"))

	assert.Equal(t, 2, idx.FileCount())

	hello := ExtractSet([]byte("hello"))
	files := idx.SearchAnd(hello)
	require.Len(t, files, 1)
	assert.Equal(t, types.FileID(1), files[0])

	world := ExtractSet([]byte("world"))
	files = idx.SearchAnd(world)
	assert.ElementsMatch(t, []types.FileID{1, 2}, files)
}

func TestIndex_SearchOr(t *testing.T) {
	idx := New()
	idx.AddFile(types.FileID(1), []byte("alpha"))
	idx.AddFile(types.FileID(2), []byte("bravo"))

	ts := append(ExtractSet([]byte("alp")), ExtractSet([]byte("bra"))...)
	files := idx.SearchOr(ts)
	assert.ElementsMatch(t, []types.FileID{1, 2}, files)
}

func TestIndex_RemoveFile(t *testing.T) {
	idx := New()
	idx.AddFile(types.FileID(1), []byte("removable content"))
	require.Equal(t, 1, idx.FileCount())

	idx.RemoveFile(types.FileID(1))
	assert.Equal(t, 0, idx.FileCount())
	assert.Empty(t, idx.SearchAnd(ExtractSet([]byte("removable"))))
}

func TestIndex_UpdateFile(t *testing.T) {
	idx := New()
	idx.AddFile(types.FileID(1), []byte("old content here"))
	idx.UpdateFile(types.FileID(1), []byte("new content here"))

	assert.Empty(t, idx.SearchAnd(ExtractSet([]byte("old"))))
	files := idx.SearchAnd(ExtractSet([]byte("new")))
	assert.Equal(t, []types.FileID{1}, files)
}

func TestIndex_ShortPatternReturnsNil(t *testing.T) {
	idx := New()
	idx.AddFile(types.FileID(1), []byte("hi"))
	assert.Nil(t, idx.SearchAnd(nil))
}

func TestIndex_LineTracking(t *testing.T) {
	idx := New()
	idx.AddFile(types.FileID(1), []byte("line one\nline two\nline three"))

	postings := idx.Postings(Of('l', 'i', 'n'))
	require.Len(t, postings, 3)
	lines := map[int]bool{}
	for _, p := range postings {
		lines[p.Line] = true
	}
	assert.True(t, lines[1])
	assert.True(t, lines[2])
	assert.True(t, lines[3])
}

func TestPersist_RoundTrip(t *testing.T) {
	idx := New()
	idx.AddFile(types.FileID(1), []byte("persisted content for testing"))
	idx.AddFile(types.FileID(2), []byte("another file with overlap content"))

	dir := t.TempDir()
	path := filepath.Join(dir, "trigrams.bin")
	require.NoError(t, WriteTo(path, idx.Snapshot()))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, idx.TrigramCount(), r.TrigramCount())

	want := idx.Postings(Of('c', 'o', 'n'))
	got := r.Postings(Of('c', 'o', 'n'))
	assert.ElementsMatch(t, want, got)

	loaded := New()
	loaded.Load(r.LoadAll())
	assert.Equal(t, idx.FileCount(), loaded.FileCount())
}

func TestOpen_RejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a trigram index at all"), 0644))

	_, err := Open(path)
	assert.Error(t, err)
}
