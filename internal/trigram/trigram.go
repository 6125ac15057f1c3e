// Package trigram implements the in-memory and persisted trigram index:
// a map from every 3-byte window seen across indexed files to the sorted,
// deduplicated list of (file, line) postings where it occurs. Queries
// reduce a literal or regex fragment to an AND/OR of trigrams and use the
// index purely to narrow candidates; every candidate is still verified
// byte-exactly downstream.
package trigram

import (
	"sort"
	"sync"

	"github.com/reflexsearch/reflex/internal/alloc"
	"github.com/reflexsearch/reflex/internal/types"
)

// Trigram packs three bytes into a uint32: (b0<<16)|(b1<<8)|b2. Windows
// that straddle non-ASCII runes are folded to their raw byte values; this
// is sound for substring search (bytes still compare equal) even though it
// is not "one trigram per rune" for multi-byte UTF-8 sequences.
type Trigram uint32

// Of builds the Trigram for three consecutive bytes.
func Of(b0, b1, b2 byte) Trigram {
	return Trigram(b0)<<16 | Trigram(b1)<<8 | Trigram(b2)
}

// Extract returns every trigram in s, in left-to-right order with
// duplicates preserved (callers that need a candidate set should
// dedupe, e.g. via ExtractSet).
func Extract(s []byte) []Trigram {
	if len(s) < 3 {
		return nil
	}
	out := make([]Trigram, 0, len(s)-2)
	for i := 0; i <= len(s)-3; i++ {
		out = append(out, Of(s[i], s[i+1], s[i+2]))
	}
	return out
}

// ExtractSet returns the distinct trigrams in s.
func ExtractSet(s []byte) []Trigram {
	seen := make(map[Trigram]struct{})
	for _, t := range Extract(s) {
		seen[t] = struct{}{}
	}
	out := make([]Trigram, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	return out
}

// Index is the in-memory Trigram Index. It is safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	postings map[Trigram][]types.Posting
	alloc    *alloc.SlabAllocator[types.Posting]
	// lines has an entry for every file in the index (AddFile stores its
	// line count, Load its posting count); only presence is read, so
	// RemoveFile can be skipped cheaply when a file was never added.
	lines map[types.FileID]int
}

// New creates an empty Trigram Index.
func New() *Index {
	return &Index{
		postings: make(map[Trigram][]types.Posting),
		alloc:    alloc.NewTrigramSlabAllocator[types.Posting](),
		lines:    make(map[types.FileID]int),
	}
}

// AddFile indexes content line by line. Each line contributes at most one
// posting per distinct trigram it contains, so a trigram repeated many
// times on one line is stored once. Content should already be confirmed
// non-binary and within size limits by the Walker before this is called.
func (idx *Index) AddFile(fileID types.FileID, content []byte) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	line := 1
	start := 0
	n := len(content)
	lineCount := 0
	for i := 0; i <= n; i++ {
		if i == n || content[i] == '\n' {
			lineCount++
			idx.addLineLocked(fileID, line, content[start:i])
			start = i + 1
			line++
		}
	}
	idx.lines[fileID] = lineCount
}

func (idx *Index) addLineLocked(fileID types.FileID, line int, lineContent []byte) {
	for _, t := range ExtractSet(lineContent) {
		posting := types.Posting{FileID: fileID, Line: line}
		existing := idx.postings[t]
		existing = idx.alloc.GrowSlice(existing, 1)
		idx.postings[t] = append(existing, posting)
	}
}

// RemoveFile drops every posting referencing fileID. This is an O(total
// postings) sweep; callers invoke it only on explicit removal or before a
// full re-add during incremental reindexing of a changed file.
func (idx *Index) RemoveFile(fileID types.FileID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.lines[fileID]; !ok {
		return
	}
	delete(idx.lines, fileID)

	for t, postings := range idx.postings {
		filtered := postings[:0]
		for _, p := range postings {
			if p.FileID != fileID {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			idx.alloc.Put(postings)
			delete(idx.postings, t)
		} else {
			idx.postings[t] = filtered
		}
	}
}

// UpdateFile replaces a file's postings by calling RemoveFile and then
// AddFile. The two calls lock independently, so a concurrent reader can
// see the file with no postings between them.
func (idx *Index) UpdateFile(fileID types.FileID, content []byte) {
	idx.RemoveFile(fileID)
	idx.AddFile(fileID, content)
}

// Postings returns the postings for a single trigram, or nil if absent.
func (idx *Index) Postings(t Trigram) []types.Posting {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	src := idx.postings[t]
	if src == nil {
		return nil
	}
	out := make([]types.Posting, len(src))
	copy(out, src)
	return out
}

// SearchAnd returns files containing every trigram in ts, i.e. candidates
// for a literal whose full set of trigrams is ts. An empty or nil ts
// (pattern shorter than 3 bytes) returns nil — callers must fall back to
// a full scan, since the index cannot narrow sub-trigram patterns.
func (idx *Index) SearchAnd(ts []Trigram) []types.FileID {
	if len(ts) == 0 {
		return nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	counts := make(map[types.FileID]int)
	for _, t := range ts {
		seenInTrigram := make(map[types.FileID]struct{})
		for _, p := range idx.postings[t] {
			if _, dup := seenInTrigram[p.FileID]; dup {
				continue
			}
			seenInTrigram[p.FileID] = struct{}{}
			counts[p.FileID]++
		}
	}

	need := len(ts)
	files := make([]types.FileID, 0, len(counts))
	for fileID, c := range counts {
		if c == need {
			files = append(files, fileID)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })
	return files
}

// SearchOr returns files containing at least one trigram in ts. Used when
// a regex over-approximates to a disjunction of trigram sets (spec §4.10).
func (idx *Index) SearchOr(ts []Trigram) []types.FileID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[types.FileID]struct{})
	for _, t := range ts {
		for _, p := range idx.postings[t] {
			seen[p.FileID] = struct{}{}
		}
	}
	files := make([]types.FileID, 0, len(seen))
	for fileID := range seen {
		files = append(files, fileID)
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })
	return files
}

// FileCount returns the number of distinct files with at least one posting.
func (idx *Index) FileCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.lines)
}

// TrigramCount returns the number of distinct trigrams stored.
func (idx *Index) TrigramCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.postings)
}

// Clear removes every posting, returning all slab-backed slices to the pool.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, postings := range idx.postings {
		idx.alloc.Put(postings)
	}
	idx.postings = make(map[Trigram][]types.Posting)
	idx.lines = make(map[types.FileID]int)
}

// Snapshot returns a stable copy of the full postings map for persistence.
func (idx *Index) Snapshot() map[Trigram][]types.Posting {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[Trigram][]types.Posting, len(idx.postings))
	for t, postings := range idx.postings {
		cp := make([]types.Posting, len(postings))
		copy(cp, postings)
		sort.Slice(cp, func(i, j int) bool {
			if cp[i].FileID != cp[j].FileID {
				return cp[i].FileID < cp[j].FileID
			}
			return cp[i].Line < cp[j].Line
		})
		out[t] = cp
	}
	return out
}

// Load replaces the index contents with postings read from persisted
// storage (see Reader.LoadAll in persist.go).
func (idx *Index) Load(postings map[Trigram][]types.Posting) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.postings = postings
	idx.lines = make(map[types.FileID]int)
	for _, ps := range postings {
		for _, p := range ps {
			idx.lines[p.FileID]++
		}
	}
}
