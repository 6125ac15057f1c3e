// Package depgraph builds an in-memory, file-level dependency graph from
// the edges internal/metadata persists, and answers the graph queries
// SPEC_FULL §4.8 names: forward/reverse/transitive lookup, cycle
// detection, hotspots, unused files, and dependency islands.
package depgraph

import (
	"sort"

	"github.com/reflexsearch/reflex/internal/types"
)

// Graph is a snapshot of the dependency edges at one point in time. It is
// immutable once built; a new index commit builds a fresh Graph rather
// than mutating one in place.
type Graph struct {
	forward map[types.FileID][]types.DependencyEdge // source -> edges it declares
	reverse map[types.FileID][]types.FileID          // resolved target -> sources that import it
	files   map[types.FileID]bool
}

// Build indexes edges into forward/reverse adjacency. Edges with a nil
// ResolvedFileID (external or unresolved imports) contribute to forward
// lookups but never to reverse lookups, cycles, or hotspots — those
// queries only make sense between files actually in the workspace.
func Build(allFiles []types.FileID, edges []types.DependencyEdge) *Graph {
	g := &Graph{
		forward: make(map[types.FileID][]types.DependencyEdge),
		reverse: make(map[types.FileID][]types.FileID),
		files:   make(map[types.FileID]bool, len(allFiles)),
	}
	for _, f := range allFiles {
		g.files[f] = true
	}
	for _, e := range edges {
		g.forward[e.SourceFileID] = append(g.forward[e.SourceFileID], e)
		if e.ResolvedFileID != nil {
			g.reverse[*e.ResolvedFileID] = append(g.reverse[*e.ResolvedFileID], e.SourceFileID)
		}
	}
	return g
}

// Forward returns the edges a file declares, in recorded order.
func (g *Graph) Forward(file types.FileID) []types.DependencyEdge {
	return g.forward[file]
}

// Reverse returns every file that imports target, deduplicated and sorted.
func (g *Graph) Reverse(target types.FileID) []types.FileID {
	return dedupeSorted(g.reverse[target])
}

// Transitive returns every file reachable by following forward (direction
// forward) or reverse (direction reverse) edges from start, not including
// start itself, via breadth-first traversal bounded by maxDepth (0 means
// unbounded).
func (g *Graph) Transitive(start types.FileID, reverse bool, maxDepth int) []types.FileID {
	visited := map[types.FileID]bool{start: true}
	var out []types.FileID
	queue := []types.FileID{start}
	depth := 0
	for len(queue) > 0 && (maxDepth <= 0 || depth < maxDepth) {
		var next []types.FileID
		for _, f := range queue {
			neighbors := g.neighbors(f, reverse)
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				out = append(out, n)
				next = append(next, n)
			}
		}
		queue = next
		depth++
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (g *Graph) neighbors(file types.FileID, reverse bool) []types.FileID {
	if reverse {
		return g.reverse[file]
	}
	var out []types.FileID
	for _, e := range g.forward[file] {
		if e.ResolvedFileID != nil {
			out = append(out, *e.ResolvedFileID)
		}
	}
	return out
}

func dedupeSorted(ids []types.FileID) []types.FileID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[types.FileID]bool, len(ids))
	out := make([]types.FileID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Hotspot is a file ranked by how many other files import it.
type Hotspot struct {
	File       types.FileID
	ImportedBy int
}

// Hotspots returns the top-n files by reverse-dependency count,
// descending, ties broken by FileID for determinism.
func (g *Graph) Hotspots(n int) []Hotspot {
	out := make([]Hotspot, 0, len(g.reverse))
	for f := range g.files {
		count := len(dedupeSorted(g.reverse[f]))
		if count == 0 {
			continue
		}
		out = append(out, Hotspot{File: f, ImportedBy: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ImportedBy != out[j].ImportedBy {
			return out[i].ImportedBy > out[j].ImportedBy
		}
		return out[i].File < out[j].File
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Unused returns files with no internal importers — candidates for
// removal. Entry points (cmd/main files) are not excluded.
func (g *Graph) Unused() []types.FileID {
	var out []types.FileID
	for f := range g.files {
		if len(dedupeSorted(g.reverse[f])) == 0 {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Islands returns the connected components of the undirected version of
// the graph (treating an edge as linking two files regardless of
// direction), so files that only import each other in a closed cluster
// with no path to the rest of the workspace are grouped together.
func (g *Graph) Islands() [][]types.FileID {
	undirected := make(map[types.FileID]map[types.FileID]bool)
	link := func(a, b types.FileID) {
		if undirected[a] == nil {
			undirected[a] = make(map[types.FileID]bool)
		}
		undirected[a][b] = true
	}
	for f := range g.files {
		undirected[f] = undirected[f] // ensure isolated files appear
	}
	for src, edges := range g.forward {
		for _, e := range edges {
			if e.ResolvedFileID == nil {
				continue
			}
			link(src, *e.ResolvedFileID)
			link(*e.ResolvedFileID, src)
		}
	}

	visited := make(map[types.FileID]bool)
	var islands [][]types.FileID
	files := make([]types.FileID, 0, len(g.files))
	for f := range g.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	for _, start := range files {
		if visited[start] {
			continue
		}
		var component []types.FileID
		queue := []types.FileID{start}
		visited[start] = true
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			component = append(component, f)
			for n := range undirected[f] {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Slice(component, func(i, j int) bool { return component[i] < component[j] })
		islands = append(islands, component)
	}
	return islands
}
