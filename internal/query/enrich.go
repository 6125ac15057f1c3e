package query

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/reflexsearch/reflex/internal/idcodec"
	"github.com/reflexsearch/reflex/internal/symbolcache"
	"github.com/reflexsearch/reflex/internal/types"
	"github.com/reflexsearch/reflex/internal/walker"
)

// enrich runs the second pipeline phase over every candidate: byte-exact
// verification for substring/regex, symbol lookup for symbols_only, AST
// matching for ast.
func (e *Engine) enrich(ctx context.Context, req Request, cands []candidate) ([]Result, error) {
	var re *regexp.Regexp
	if req.Mode == ModeRegex {
		// (?m) lets ^ and $ match at line boundaries; the regex runs over
		// the whole file, not line by line.
		pattern := "(?m)" + req.Pattern
		if req.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("query: compile regex: %w", err)
		}
		re = compiled
	}

	var results []Result
	for _, c := range cands {
		if ctx.Err() != nil {
			return nil, nil // caller re-checks ctx.Err() and raises QueryTimeout
		}
		data, ok := e.Content.Get(c.fileID)
		if !ok {
			continue
		}
		var hits []Result
		var err error
		switch req.Mode {
		case ModeSubstring:
			hits = e.verifySubstring(c, data, req)
		case ModeRegex:
			hits = e.verifyRegex(c, data, re, req)
		case ModeSymbolsOnly:
			hits, err = e.verifySymbols(c, data, req)
		case ModeAST:
			hits, err = e.verifyAST(c, data, req)
		default:
			hits = e.verifySubstring(c, data, req)
		}
		if err != nil {
			continue // per-file enrichment failure is non-fatal; other candidates still count
		}
		results = append(results, hits...)
	}

	if req.WithDependencies {
		e.attachDependencies(results)
	}
	return results, nil
}

func (e *Engine) verifySubstring(c candidate, data []byte, req Request) []Result {
	pattern := []byte(req.Pattern)
	haystack := data
	if req.CaseInsensitive {
		haystack = bytes.ToLower(data)
		pattern = bytes.ToLower(pattern)
	}
	var out []Result
	offset := 0
	for {
		idx := bytes.Index(haystack[offset:], pattern)
		if idx < 0 {
			break
		}
		pos := offset + idx
		line, col := lineCol(data, pos)
		endLine, endCol := lineCol(data, pos+len(pattern))
		out = append(out, e.buildResult(c, types.Span{StartLine: line, StartCol: col, EndLine: endLine, EndCol: endCol}, req, ""))
		offset = pos + len(pattern)
		if offset >= len(haystack) {
			break
		}
	}
	return out
}

func (e *Engine) verifyRegex(c candidate, data []byte, re *regexp.Regexp, req Request) []Result {
	locs := re.FindAllIndex(data, -1)
	out := make([]Result, 0, len(locs))
	for _, loc := range locs {
		line, col := lineCol(data, loc[0])
		endLine, endCol := lineCol(data, loc[1])
		out = append(out, e.buildResult(c, types.Span{StartLine: line, StartCol: col, EndLine: endLine, EndCol: endCol}, req, ""))
	}
	return out
}

// verifySymbols obtains symbols for c — from the Symbol Cache if its
// recorded hash still matches the current content, otherwise by parsing in
// process — and filters by name per req's exact/contains toggle.
func (e *Engine) verifySymbols(c candidate, data []byte, req Request) ([]Result, error) {
	hash := walker.CanonicalHash(data)
	syms, hit, err := symbolcache.Lookup(e.Meta, c.fileID, e.BranchKey, hash)
	if err != nil {
		return nil, err
	}
	if !hit {
		if !e.Parser.Supported(c.lang) {
			return nil, nil
		}
		result, err := e.Parser.Parse(c.fileID, c.lang, data)
		if err != nil {
			return nil, err
		}
		syms = result.Symbols
	}

	var out []Result
	for i, s := range syms {
		if !symbolNameMatches(s.Name, req) {
			continue
		}
		r := e.buildResult(c, s.Span, req, s.Name)
		r.Kind = s.Kind.String()
		r.ID = idcodec.EncodeComposite(c.fileID, uint32(i))
		out = append(out, r)
	}
	return out, nil
}

func symbolNameMatches(name string, req Request) bool {
	switch {
	case req.Exact:
		return name == req.Pattern
	case req.Contains:
		return bytes.Contains([]byte(name), []byte(req.Pattern))
	default:
		return name == req.Pattern || bytes.Contains([]byte(name), []byte(req.Pattern))
	}
}

func (e *Engine) verifyAST(c candidate, data []byte, req Request) ([]Result, error) {
	if !e.Parser.Supported(c.lang) {
		return nil, nil
	}
	spans, err := e.Parser.QueryAST(c.lang, data, req.ASTPattern)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(spans))
	for _, sp := range spans {
		out = append(out, e.buildResult(c, sp, req, ""))
	}
	return out, nil
}

func (e *Engine) buildResult(c candidate, span types.Span, req Request, symbol string) Result {
	r := Result{
		Path:     c.path,
		Span:     span,
		Symbol:   symbol,
		Language: c.lang.String(),
		fileID:   c.fileID,
	}
	if req.ContextLines > 0 {
		if before, err := e.Content.ExtractContext(c.fileID, span.StartLine-req.ContextLines, span.StartLine-1); err == nil && before != nil {
			r.ContextBefore = splitLines(before)
		}
		if after, err := e.Content.ExtractContext(c.fileID, span.EndLine+1, span.EndLine+req.ContextLines); err == nil && after != nil {
			r.ContextAfter = splitLines(after)
		}
	}
	if preview, err := e.Content.ExtractContext(c.fileID, span.StartLine, span.StartLine); err == nil {
		r.Preview = string(bytes.TrimRight(preview, "\n"))
	}
	return r
}

func (e *Engine) attachDependencies(results []Result) {
	for i := range results {
		edges, err := e.Meta.ForwardDependencies(results[i].fileID)
		if err != nil {
			continue
		}
		results[i].Dependencies = edges
	}
}

func splitLines(data []byte) []string {
	data = bytes.TrimRight(data, "\n")
	if len(data) == 0 {
		return nil
	}
	parts := bytes.Split(data, []byte{'\n'})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}

// lineCol converts a byte offset into data to a 1-based (line, col).
func lineCol(data []byte, offset int) (line, col int) {
	line = 1
	lineStart := 0
	for i := 0; i < offset && i < len(data); i++ {
		if data[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, offset - lineStart + 1
}
