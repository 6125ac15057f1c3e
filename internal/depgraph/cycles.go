package depgraph

import (
	"sort"

	"github.com/reflexsearch/reflex/internal/types"
)

// tarjan finds strongly connected components of the directed forward
// graph using Tarjan's algorithm, grounded on the classic index/lowlink/
// onstack formulation (iterative to avoid stack overflow on large
// workspaces).
type tarjan struct {
	g       *Graph
	index   map[types.FileID]int
	lowlink map[types.FileID]int
	onStack map[types.FileID]bool
	stack   []types.FileID
	counter int
	sccs    [][]types.FileID
}

// Cycles returns every strongly connected component of size > 1 (a true
// cycle) or of size 1 where the file imports itself. Single-file SCCs
// with no self-loop are acyclic and omitted.
func (g *Graph) Cycles() [][]types.FileID {
	t := &tarjan{
		g:       g,
		index:   make(map[types.FileID]int),
		lowlink: make(map[types.FileID]int),
		onStack: make(map[types.FileID]bool),
	}

	files := make([]types.FileID, 0, len(g.files))
	for f := range g.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	for _, f := range files {
		if _, ok := t.index[f]; !ok {
			t.strongConnect(f)
		}
	}

	var cycles [][]types.FileID
	for _, scc := range t.sccs {
		if len(scc) > 1 {
			cycles = append(cycles, scc)
			continue
		}
		f := scc[0]
		if selfImports(g, f) {
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

func selfImports(g *Graph, f types.FileID) bool {
	for _, e := range g.forward[f] {
		if e.ResolvedFileID != nil && *e.ResolvedFileID == f {
			return true
		}
	}
	return false
}

// strongConnect is the recursive step of Tarjan's algorithm, written
// iteratively with an explicit work stack so a long forward-import chain
// can't blow the goroutine stack on a very large workspace.
func (t *tarjan) strongConnect(start types.FileID) {
	type frame struct {
		node     types.FileID
		children []types.FileID
		ci       int
	}

	push := func(n types.FileID) *frame {
		t.index[n] = t.counter
		t.lowlink[n] = t.counter
		t.counter++
		t.stack = append(t.stack, n)
		t.onStack[n] = true
		return &frame{node: n, children: t.g.neighbors(n, false)}
	}

	var work []*frame
	work = append(work, push(start))

	for len(work) > 0 {
		f := work[len(work)-1]
		if f.ci < len(f.children) {
			w := f.children[f.ci]
			f.ci++
			if _, ok := t.index[w]; !ok {
				work = append(work, push(w))
				continue
			}
			if t.onStack[w] {
				if t.lowlink[w] < t.lowlink[f.node] {
					t.lowlink[f.node] = t.lowlink[w]
				}
			}
			continue
		}

		// Done with f's children: pop it, propagating lowlink to the
		// caller and emitting an SCC if f is its own root.
		work = work[:len(work)-1]
		if len(work) > 0 {
			parent := work[len(work)-1]
			if t.lowlink[f.node] < t.lowlink[parent.node] {
				t.lowlink[parent.node] = t.lowlink[f.node]
			}
		}
		if t.lowlink[f.node] == t.index[f.node] {
			var scc []types.FileID
			for {
				n := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[n] = false
				scc = append(scc, n)
				if n == f.node {
					break
				}
			}
			t.sccs = append(t.sccs, scc)
		}
	}
}
