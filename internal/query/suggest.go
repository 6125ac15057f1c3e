package query

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"
)

const (
	maxSuggestions    = 5
	suggestionMinSim  = 0.6
	suggestionScanCap = 20000 // corpora larger than this are sampled, not exhaustively scored
)

// suggestSymbols finds symbol names close to pattern by Jaro-Winkler
// similarity over stemmed tokens, grounded on
// internal/semantic/fuzzy_matcher.go's edlib.StringsSimilarity usage and
// internal/semantic/stemmer.go's porter2.Stem call. It only runs when the
// caller has already established the query returned zero rows, per spec
// §4.9's "attach only when pagination.count == 0 and mode == symbols_only".
func (e *Engine) suggestSymbols(pattern string) []string {
	names, err := e.Meta.AllSymbolNames()
	if err != nil || len(names) == 0 {
		return nil
	}
	if len(names) > suggestionScanCap {
		names = names[:suggestionScanCap]
	}

	needle := stem(pattern)

	type scored struct {
		name  string
		score float64
	}
	var candidates []scored
	for _, name := range names {
		score, err := edlib.StringsSimilarity(needle, stem(name), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if float64(score) >= suggestionMinSim {
			candidates = append(candidates, scored{name: name, score: float64(score)})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})

	seen := make(map[string]bool, maxSuggestions)
	var out []string
	for _, c := range candidates {
		if seen[c.name] {
			continue
		}
		seen[c.name] = true
		out = append(out, c.name)
		if len(out) >= maxSuggestions {
			break
		}
	}
	return out
}

// stem lowercases and porter2-stems a single identifier-like token; symbol
// names are rarely multi-word so, unlike the teacher's corpus of English
// query text, there is no tokenization step before stemming.
func stem(s string) string {
	return porter2.Stem(strings.ToLower(s))
}
