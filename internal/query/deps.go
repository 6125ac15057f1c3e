package query

import (
	"fmt"
	"sort"

	"github.com/reflexsearch/reflex/internal/types"
)

// Direction selects which edge direction Deps traverses.
type Direction string

const (
	DirForward Direction = "forward"
	DirReverse Direction = "reverse"
)

// DepsRequest is the deps(file, direction, depth) operation's input.
type DepsRequest struct {
	File      string    `json:"file"`
	Direction Direction `json:"direction,omitempty"`
	Depth     int       `json:"depth,omitempty"` // 0 means unbounded
}

// DepsResponse is deps()'s output.
type DepsResponse struct {
	types.Freshness
	Files []string `json:"files"`
}

// Deps resolves file to a FileID and returns every file reachable by
// following import edges in Direction, up to Depth hops.
func (e *Engine) Deps(req DepsRequest) (DepsResponse, error) {
	f, ok, err := e.Meta.FileByPath(req.File)
	if err != nil {
		return DepsResponse{}, err
	}
	if !ok {
		return DepsResponse{Freshness: types.NewFreshness(types.StatusMissing, fmt.Sprintf("%s is not indexed", req.File))}, nil
	}

	g, err := e.graphFor()
	if err != nil {
		return DepsResponse{}, err
	}
	ids := g.Transitive(f.ID, req.Direction == DirReverse, req.Depth)
	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		if ff, ok, err := e.Meta.FileByID(id); err == nil && ok {
			paths = append(paths, ff.Path)
		}
	}
	sort.Strings(paths)
	return DepsResponse{Freshness: types.NewFreshness(types.StatusFresh, ""), Files: paths}, nil
}

// AnalysisKind selects which graph query Analyze runs.
type AnalysisKind string

const (
	AnalysisCircular AnalysisKind = "circular"
	AnalysisHotspots AnalysisKind = "hotspots"
	AnalysisUnused   AnalysisKind = "unused"
	AnalysisIslands  AnalysisKind = "islands"
)

// AnalysisRequest is the analyze(kind, pagination) operation's input.
// TopN bounds hotspots (default 10); MinIslandSize/MaxIslandSize bound the
// islands size window (0 means unbounded on that side). Offset and Limit are
// accepted but not applied: Analyze returns every result and leaves
// Pagination zero.
type AnalysisRequest struct {
	Kind          AnalysisKind `json:"kind"`
	TopN          int          `json:"top_n,omitempty"`
	MinIslandSize int          `json:"min_island_size,omitempty"`
	MaxIslandSize int          `json:"max_island_size,omitempty"`
	Offset        int          `json:"offset,omitempty"`
	Limit         int          `json:"limit,omitempty"`
}

// HotspotResult is one entry of a hotspots analysis.
type HotspotResult struct {
	Path       string `json:"path"`
	ImportedBy int    `json:"imported_by"`
}

// AnalysisResponse is analyze()'s output. Only the field matching Kind is
// populated.
type AnalysisResponse struct {
	types.Freshness
	Pagination Pagination      `json:"pagination"`
	Cycles     [][]string      `json:"cycles,omitempty"`
	Hotspots   []HotspotResult `json:"hotspots,omitempty"`
	Unused     []string        `json:"unused,omitempty"`
	Islands    [][]string      `json:"islands,omitempty"`
}

// Analyze runs a single graph query over every indexed file's dependency
// edges. Cycle detection uses internal/depgraph's Tarjan SCC pass; hotspots,
// unused, and islands are the straightforward adjacency queries §4.8 names.
func (e *Engine) Analyze(req AnalysisRequest) (AnalysisResponse, error) {
	g, err := e.graphFor()
	if err != nil {
		return AnalysisResponse{}, err
	}
	resp := AnalysisResponse{Freshness: types.NewFreshness(types.StatusFresh, "")}

	switch req.Kind {
	case AnalysisCircular:
		for _, cycle := range g.Cycles() {
			resp.Cycles = append(resp.Cycles, e.pathsFor(cycle))
		}
	case AnalysisHotspots:
		n := req.TopN
		if n <= 0 {
			n = 10
		}
		for _, h := range g.Hotspots(n) {
			f, ok, err := e.Meta.FileByID(h.File)
			if err != nil || !ok {
				continue
			}
			resp.Hotspots = append(resp.Hotspots, HotspotResult{Path: f.Path, ImportedBy: h.ImportedBy})
		}
	case AnalysisUnused:
		resp.Unused = e.pathsFor(g.Unused())
	case AnalysisIslands:
		for _, island := range g.Islands() {
			if req.MinIslandSize > 0 && len(island) < req.MinIslandSize {
				continue
			}
			if req.MaxIslandSize > 0 && len(island) > req.MaxIslandSize {
				continue
			}
			resp.Islands = append(resp.Islands, e.pathsFor(island))
		}
	}
	return resp, nil
}

func (e *Engine) pathsFor(ids []types.FileID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if f, ok, err := e.Meta.FileByID(id); err == nil && ok {
			out = append(out, f.Path)
		}
	}
	return out
}
