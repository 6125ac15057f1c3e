// Package regexlit extracts trigram witnesses from a compiled regular
// expression: a set of trigrams such that any string the regex can match is
// guaranteed to contain at least one of them. It is the sound replacement
// for the teacher's regex_analyzer.LiteralExtractor, which scanned the
// pattern text with heuristic regexes (alternation groups, word-like runs)
// and could not prove its extractions correct. Here the witness set is
// derived by walking the compiled regexp/syntax.Regexp tree, the same AST
// Go's own regexp engine compiles to, so there is no string-heuristic gap.
package regexlit

import (
	"regexp/syntax"
	"strings"

	"github.com/reflexsearch/reflex/internal/trigram"
)

// Result is the extractor's conservative output.
type Result struct {
	// Trigrams must all be absent from the extractor's certainty set if
	// Witness is false; when Witness is true, every matched string is
	// guaranteed to contain at least one trigram in this set.
	Trigrams []trigram.Trigram
	// Witness is false when no literal run could be proven required (the
	// regex is case-insensitive, anchmd only by `.`/classes, or otherwise
	// has no extractable run of length >= 3). Callers must fall back to a
	// full scan in that case.
	Witness bool
}

// Extract walks re's syntax tree and returns the required-trigram witness
// set. re must have been parsed without syntax.FoldCase for the result to
// be sound against a case-sensitive match; callers doing case-insensitive
// matching should not call Extract (see Open Question decision in
// DESIGN.md: case-insensitive patterns always fall back to a full scan).
func Extract(re *syntax.Regexp) Result {
	runs := literalRuns(re)
	var out []trigram.Trigram
	seen := make(map[trigram.Trigram]bool)
	any := false
	for _, run := range runs {
		if len(run) < 3 {
			continue
		}
		any = true
		for _, t := range trigram.ExtractSet([]byte(run)) {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	if !any || len(out) == 0 {
		return Result{Witness: false}
	}
	return Result{Trigrams: out, Witness: true}
}

// IsCaseInsensitive reports whether pattern carries an inline
// case-insensitivity flag. A case-insensitive match can't soundly use a
// literal run's trigrams (the indexed trigrams are of the raw bytes on
// disk), so the candidate phase falls back to a full scan instead of
// calling Extract.
func IsCaseInsensitive(pattern string) bool {
	return strings.Contains(pattern, "(?i)") || strings.Contains(pattern, "(?i:")
}

// literalRuns returns every maximal literal run the tree is guaranteed to
// contain at least one of, i.e. the disjunction of what a full OR-trigram
// query over all returned runs would require. The list is empty when no
// run can be proven: any character class, `.`, anchor, or zero-lower-bound
// repetition severs a literal run at that point.
func literalRuns(re *syntax.Regexp) []string {
	switch re.Op {
	case syntax.OpLiteral:
		return []string{string(re.Rune)}

	case syntax.OpConcat:
		return concatRuns(re.Sub)

	case syntax.OpCapture:
		if len(re.Sub) == 1 {
			return literalRuns(re.Sub[0])
		}
		return nil

	case syntax.OpPlus:
		// x+ requires at least one x; its runs are a subset of x's runs.
		if len(re.Sub) == 1 {
			return literalRuns(re.Sub[0])
		}
		return nil

	case syntax.OpRepeat:
		if re.Min >= 1 && len(re.Sub) == 1 {
			return literalRuns(re.Sub[0])
		}
		return nil

	case syntax.OpAlternate:
		// Every branch must contribute a run of at least three bytes for
		// the alternation to have a sound witness; if any branch has none,
		// there is no guarantee.
		var all []string
		for _, sub := range re.Sub {
			branch := literalRuns(sub)
			long := false
			for _, r := range branch {
				if len(r) >= 3 {
					long = true
					break
				}
			}
			if !long {
				return nil
			}
			all = append(all, branch...)
		}
		return all

	default:
		// OpAnyChar, OpAnyCharNotNL, OpCharClass, OpStar, OpQuest,
		// OpBeginLine/Text, OpEndLine/Text, OpWordBoundary, etc: none of
		// these guarantee a literal byte run.
		return nil
	}
}

// concatRuns walks a concatenation left to right, merging adjacent literal
// subexpressions into single runs and cutting the run whenever a
// non-literal subexpression is hit (anything that doesn't guarantee exact
// bytes at that position, such as a character class or optional group).
func concatRuns(subs []*syntax.Regexp) []string {
	var runs []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			runs = append(runs, string(current))
			current = nil
		}
	}
	for _, sub := range subs {
		if sub.Op == syntax.OpLiteral {
			current = append(current, sub.Rune...)
			continue
		}
		// A capture group wrapping a single literal is transparent to the
		// surrounding concatenation.
		if sub.Op == syntax.OpCapture && len(sub.Sub) == 1 && sub.Sub[0].Op == syntax.OpLiteral {
			current = append(current, sub.Sub[0].Rune...)
			continue
		}
		flush()
		// A nested concat or a required-repeat of literals still
		// contributes its own runs, just not merged into ours (their
		// boundary isn't guaranteed adjacent to surrounding literals once
		// a non-literal separates them, but each run standing alone is
		// still a valid, sound witness).
		runs = append(runs, literalRuns(sub)...)
	}
	flush()
	return runs
}
