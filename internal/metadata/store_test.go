package metadata

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexsearch/reflex/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_SeedsSymbolKinds(t *testing.T) {
	s := openTestStore(t)
	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM symbol_kinds`).Scan(&count))
	assert.Equal(t, int(types.SymbolField)+1, count)
}

func TestUpsertFile_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	id, err := s.UpsertFile(types.File{Path: "main.go", Language: types.LangGo, SizeBytes: 128})
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, ok, err := s.FileByPath("main.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, types.LangGo, got.Language)
	assert.EqualValues(t, 128, got.SizeBytes)

	// Re-upserting the same path updates in place rather than duplicating.
	id2, err := s.UpsertFile(types.File{Path: "main.go", Language: types.LangGo, SizeBytes: 256})
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	got, _, err = s.FileByPath("main.go")
	require.NoError(t, err)
	assert.EqualValues(t, 256, got.SizeBytes)
}

func TestFileHash_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	id, err := s.UpsertFile(types.File{Path: "a.go", Language: types.LangGo})
	require.NoError(t, err)

	_, ok, err := s.FileHash(id, "main")
	require.NoError(t, err)
	assert.False(t, ok)

	var hash [32]byte
	hash[0] = 0xAB
	require.NoError(t, s.SetFileHash(id, "main", hash))

	got, ok, err := s.FileHash(id, "main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(got, "ab"))
	assert.Len(t, got, 64)
}

func TestReplaceSymbols(t *testing.T) {
	s := openTestStore(t)
	id, err := s.UpsertFile(types.File{Path: "a.go", Language: types.LangGo})
	require.NoError(t, err)

	syms := []types.Symbol{
		{Kind: types.SymbolFunction, Name: "Foo", Span: types.Span{StartLine: 1, EndLine: 3}},
		{Kind: types.SymbolStruct, Name: "Bar", Span: types.Span{StartLine: 5, EndLine: 10}},
	}
	require.NoError(t, s.ReplaceSymbols(id, syms))

	got, err := s.SymbolsByFile(id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Foo", got[0].Name)
	assert.Equal(t, types.SymbolFunction, got[0].Kind)

	// Replacing again drops the old set instead of appending.
	require.NoError(t, s.ReplaceSymbols(id, syms[:1]))
	got, err = s.SymbolsByFile(id)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSymbolsByName(t *testing.T) {
	s := openTestStore(t)
	id, err := s.UpsertFile(types.File{Path: "a.go", Language: types.LangGo})
	require.NoError(t, err)
	require.NoError(t, s.ReplaceSymbols(id, []types.Symbol{
		{Kind: types.SymbolFunction, Name: "Handle", Span: types.Span{StartLine: 1, EndLine: 2}},
	}))

	got, err := s.SymbolsByName("Handle")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.go", got[0].Path)
}

func TestReplaceDependencies_ForwardAndReverse(t *testing.T) {
	s := openTestStore(t)
	src, err := s.UpsertFile(types.File{Path: "main.go", Language: types.LangGo})
	require.NoError(t, err)
	dst, err := s.UpsertFile(types.File{Path: "util.go", Language: types.LangGo})
	require.NoError(t, err)

	dstID := dst
	require.NoError(t, s.ReplaceDependencies(src, []types.DependencyEdge{
		{ImportedPath: "./util", ResolvedFileID: &dstID, Kind: types.DepInternal, LineNumber: 3},
	}))

	fwd, err := s.ForwardDependencies(src)
	require.NoError(t, err)
	require.Len(t, fwd, 1)
	assert.Equal(t, "./util", fwd[0].ImportedPath)

	rev, err := s.ReverseDependencies(dst)
	require.NoError(t, err)
	require.Len(t, rev, 1)
	assert.Equal(t, src, rev[0])
}

func TestRecomputeStatistics(t *testing.T) {
	s := openTestStore(t)
	_, err := s.UpsertFile(types.File{Path: "a.go", Language: types.LangGo, SizeBytes: 10})
	require.NoError(t, err)
	_, err = s.UpsertFile(types.File{Path: "b.py", Language: types.LangPython, SizeBytes: 20})
	require.NoError(t, err)

	stats, err := s.RecomputeStatistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.EqualValues(t, 30, stats.TotalBytes)
	assert.Equal(t, 1, stats.FilesByLang["go"])

	reread, err := s.Statistics()
	require.NoError(t, err)
	assert.Equal(t, stats.TotalFiles, reread.TotalFiles)
}

func TestConfig_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.GetConfig("branch")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetConfig("branch", "main"))
	v, ok, err := s.GetConfig("branch")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main", v)
}

func TestDeleteFile_CascadesSymbolsAndDependencies(t *testing.T) {
	s := openTestStore(t)
	id, err := s.UpsertFile(types.File{Path: "a.go", Language: types.LangGo})
	require.NoError(t, err)
	require.NoError(t, s.ReplaceSymbols(id, []types.Symbol{{Kind: types.SymbolFunction, Name: "F"}}))

	require.NoError(t, s.DeleteFile(id))

	got, err := s.SymbolsByFile(id)
	require.NoError(t, err)
	assert.Empty(t, got)
}
