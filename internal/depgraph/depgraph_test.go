package depgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexsearch/reflex/internal/types"
)

func edge(src, dst types.FileID) types.DependencyEdge {
	return types.DependencyEdge{SourceFileID: src, ResolvedFileID: &dst, Kind: types.DepInternal}
}

func TestForwardReverse(t *testing.T) {
	files := []types.FileID{1, 2, 3}
	edges := []types.DependencyEdge{edge(1, 2), edge(2, 3)}
	g := Build(files, edges)

	fwd := g.Forward(1)
	require.Len(t, fwd, 1)
	assert.EqualValues(t, 2, *fwd[0].ResolvedFileID)

	rev := g.Reverse(3)
	require.Len(t, rev, 1)
	assert.EqualValues(t, 2, rev[0])
}

func TestTransitive(t *testing.T) {
	files := []types.FileID{1, 2, 3, 4}
	edges := []types.DependencyEdge{edge(1, 2), edge(2, 3), edge(3, 4)}
	g := Build(files, edges)

	all := g.Transitive(1, false, 0)
	assert.ElementsMatch(t, []types.FileID{2, 3, 4}, all)

	bounded := g.Transitive(1, false, 1)
	assert.ElementsMatch(t, []types.FileID{2}, bounded)
}

func TestCycles_DetectsSimpleCycle(t *testing.T) {
	files := []types.FileID{1, 2, 3}
	edges := []types.DependencyEdge{edge(1, 2), edge(2, 3), edge(3, 1)}
	g := Build(files, edges)

	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []types.FileID{1, 2, 3}, cycles[0])
}

func TestCycles_AcyclicGraphHasNone(t *testing.T) {
	files := []types.FileID{1, 2, 3}
	edges := []types.DependencyEdge{edge(1, 2), edge(2, 3)}
	g := Build(files, edges)
	assert.Empty(t, g.Cycles())
}

func TestCycles_SelfImport(t *testing.T) {
	files := []types.FileID{1}
	edges := []types.DependencyEdge{edge(1, 1)}
	g := Build(files, edges)
	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []types.FileID{1}, cycles[0])
}

func TestHotspots(t *testing.T) {
	files := []types.FileID{1, 2, 3, 4}
	edges := []types.DependencyEdge{edge(1, 3), edge(2, 3), edge(4, 3)}
	g := Build(files, edges)

	hotspots := g.Hotspots(1)
	require.Len(t, hotspots, 1)
	assert.EqualValues(t, 3, hotspots[0].File)
	assert.Equal(t, 3, hotspots[0].ImportedBy)
}

func TestUnused(t *testing.T) {
	files := []types.FileID{1, 2, 3}
	edges := []types.DependencyEdge{edge(1, 2)}
	g := Build(files, edges)

	unused := g.Unused()
	assert.ElementsMatch(t, []types.FileID{1, 3}, unused)
}

func TestIslands(t *testing.T) {
	files := []types.FileID{1, 2, 3, 4}
	edges := []types.DependencyEdge{edge(1, 2)}
	g := Build(files, edges)

	islands := g.Islands()
	require.Len(t, islands, 3)
}

func TestManifest_Cargo(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(`
[dependencies]
serde = "1.0"
`), 0644))

	m := LoadManifest(dir)
	assert.True(t, m.KnownExternal("serde::Serialize"))
	assert.False(t, m.KnownExternal("std::fmt"))
}

func TestManifest_Pyproject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(`
[project]
dependencies = ["requests>=2.0", "click"]
`), 0644))

	m := LoadManifest(dir)
	assert.True(t, m.KnownExternal("requests"))
	assert.True(t, m.KnownExternal("click"))
	assert.False(t, m.KnownExternal("os"))
}
