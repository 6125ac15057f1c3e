package query

import (
	"context"
	"regexp/syntax"

	"github.com/reflexsearch/reflex/internal/regexlit"
	"github.com/reflexsearch/reflex/internal/rerrors"
	"github.com/reflexsearch/reflex/internal/trigram"
	"github.com/reflexsearch/reflex/internal/types"
)

// candidates runs the first pipeline phase: pick a (hopefully small) set of
// files worth enriching, grounded on internal/regex_analyzer/engine.go's
// classify-then-narrow structure.
func (e *Engine) candidates(ctx context.Context, req Request) ([]candidate, error) {
	switch req.Mode {
	case ModeSubstring, ModeSymbolsOnly:
		return e.candidatesByLiteral(req.Pattern)
	case ModeRegex:
		return e.candidatesByRegex(req.Pattern, req.CaseInsensitive)
	case ModeAST:
		var (
			cands []candidate
			err   error
		)
		if req.TextFilter != "" {
			cands, err = e.candidatesByLiteral(req.TextFilter)
		} else {
			cands, err = e.allCandidates()
		}
		if err != nil {
			return nil, err
		}
		return filterByLanguage(cands, req.ASTLang), nil
	default:
		return e.candidatesByLiteral(req.Pattern)
	}
}

// filterByLanguage narrows candidates to one language, since an AST pattern
// is only meaningful against the grammar it was written for.
func filterByLanguage(cands []candidate, lang types.Language) []candidate {
	if lang == types.LangUnknown {
		return cands
	}
	out := cands[:0]
	for _, c := range cands {
		if c.lang == lang {
			out = append(out, c)
		}
	}
	return out
}

// candidatesByLiteral intersects trigram postings for pattern's trigrams. A
// pattern under three bytes (or one from which fewer than three distinct
// trigrams can be formed) cannot be trigram-filtered at all, so every
// indexed file is a candidate.
func (e *Engine) candidatesByLiteral(pattern string) ([]candidate, error) {
	trigrams := trigram.ExtractSet([]byte(pattern))
	if len(pattern) < 3 || len(trigrams) == 0 {
		return e.allCandidates()
	}
	ids := e.Trigram.SearchAnd(trigrams)
	return e.candidatesFromIDs(ids)
}

// candidatesByRegex extracts the regex's required literal runs (see
// internal/regexlit) and unions their trigrams. A case-insensitive pattern,
// or one from which nothing sound can be extracted, falls back to scanning
// every indexed file rather than risk an unsound filter.
func (e *Engine) candidatesByRegex(pattern string, caseInsensitive bool) ([]candidate, error) {
	flags := syntax.Perl
	if caseInsensitive || regexlit.IsCaseInsensitive(pattern) {
		return e.allCandidates()
	}
	re, err := syntax.Parse(pattern, flags)
	if err != nil {
		return nil, rerrors.NewRegexInvalid(pattern, err)
	}
	result := regexlit.Extract(re)
	if !result.Witness || len(result.Trigrams) == 0 {
		return e.allCandidates()
	}
	ids := e.Trigram.SearchOr(result.Trigrams)
	return e.candidatesFromIDs(ids)
}

func (e *Engine) candidatesFromIDs(ids []types.FileID) ([]candidate, error) {
	out := make([]candidate, 0, len(ids))
	for _, id := range ids {
		f, ok, err := e.Meta.FileByID(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, candidate{fileID: f.ID, path: f.Path, lang: f.Language})
	}
	return out, nil
}

func (e *Engine) allCandidates() ([]candidate, error) {
	files, err := e.Meta.AllFiles()
	if err != nil {
		return nil, err
	}
	out := make([]candidate, len(files))
	for i, f := range files {
		out[i] = candidate{fileID: f.ID, path: f.Path, lang: f.Language}
	}
	return out, nil
}
