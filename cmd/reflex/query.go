package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/reflexsearch/reflex/internal/query"
	"github.com/reflexsearch/reflex/internal/types"
	"github.com/reflexsearch/reflex/pkg/pathutil"
)

var commonQueryFlags = []cli.Flag{
	&cli.BoolFlag{Name: "case-insensitive", Aliases: []string{"i"}},
	&cli.BoolFlag{Name: "exact"},
	&cli.BoolFlag{Name: "contains"},
	&cli.StringFlag{Name: "language"},
	&cli.StringFlag{Name: "kind"},
	&cli.StringFlag{Name: "path-glob"},
	&cli.IntFlag{Name: "offset"},
	&cli.IntFlag{Name: "limit"},
	&cli.BoolFlag{Name: "paths-only"},
	&cli.BoolFlag{Name: "with-deps"},
	&cli.IntFlag{Name: "context-lines"},
	&cli.IntFlag{Name: "timeout-ms"},
}

func baseRequest(c *cli.Context) query.Request {
	req := query.Request{
		CaseInsensitive:  c.Bool("case-insensitive"),
		Exact:            c.Bool("exact"),
		Contains:         c.Bool("contains"),
		PathGlob:         c.String("path-glob"),
		Offset:           c.Int("offset"),
		Limit:            c.Int("limit"),
		PathsOnly:        c.Bool("paths-only"),
		WithDependencies: c.Bool("with-deps"),
		ContextLines:     c.Int("context-lines"),
	}
	if ms := c.Int("timeout-ms"); ms > 0 {
		req.Timeout = time.Duration(ms) * time.Millisecond
	}
	if c.IsSet("language") {
		l := types.ParseLanguage(c.String("language"))
		req.Language = &l
	}
	if c.IsSet("kind") {
		k := types.ParseSymbolKind(c.String("kind"))
		req.Kind = &k
	}
	return req
}

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "run a query (query(request) -> QueryResponse)",
	ArgsUsage: "<pattern>",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "mode", Value: "substring", Usage: "substring|regex|symbols_only"},
	}, commonQueryFlags...),
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("query: %w: usage: reflex query <pattern>", errUsage)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		eng, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		req := baseRequest(c)
		req.Pattern = c.Args().First()
		switch c.String("mode") {
		case "regex":
			req.Mode = query.ModeRegex
		case "symbols_only":
			req.Mode = query.ModeSymbolsOnly
		default:
			req.Mode = query.ModeSubstring
		}

		resp, err := eng.Query(context.Background(), req)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		return emit(resp)
	},
}

var astQueryCommand = &cli.Command{
	Name:      "ast-query",
	Usage:     "run a tree-sitter query (ast_query(pattern, lang, text_pattern?, filters) -> QueryResponse)",
	ArgsUsage: "<tree-sitter-pattern>",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "lang", Required: true},
		&cli.StringFlag{Name: "text-filter", Usage: "literal used to trigram-prefilter candidate files"},
	}, commonQueryFlags...),
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("ast-query: %w: usage: reflex ast-query <pattern> --lang <language>", errUsage)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		eng, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		req := baseRequest(c)
		req.Mode = query.ModeAST
		req.ASTPattern = c.Args().First()
		req.ASTLang = types.ParseLanguage(c.String("lang"))
		req.TextFilter = c.String("text-filter")

		resp, err := eng.Query(context.Background(), req)
		if err != nil {
			return fmt.Errorf("ast-query: %w", err)
		}
		return emit(resp)
	},
}

var depsCommand = &cli.Command{
	Name:      "deps",
	Usage:     "dependency closure of a file (deps(file, direction, depth) -> DepsResponse)",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "direction", Value: "forward", Usage: "forward|reverse"},
		&cli.IntFlag{Name: "depth", Usage: "0 means unbounded"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("deps: %w: usage: reflex deps <file>", errUsage)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		eng, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		dir := query.DirForward
		if c.String("direction") == "reverse" {
			dir = query.DirReverse
		}
		file := pathutil.ToRelative(c.Args().First(), cfg.Project.Root)
		resp, err := eng.Deps(query.DepsRequest{File: file, Direction: dir, Depth: c.Int("depth")})
		if err != nil {
			return fmt.Errorf("deps: %w", err)
		}
		return emit(resp)
	},
}

var analyzeCommand = &cli.Command{
	Name:      "analyze",
	Usage:     "whole-graph query (analyze(kind, pagination) -> AnalysisResponse)",
	ArgsUsage: "<circular|hotspots|unused|islands>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "top-n", Usage: "hotspots: how many to return (default 10)"},
		&cli.IntFlag{Name: "min-island-size"},
		&cli.IntFlag{Name: "max-island-size"},
		&cli.IntFlag{Name: "offset"},
		&cli.IntFlag{Name: "limit"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("analyze: %w: usage: reflex analyze <circular|hotspots|unused|islands>", errUsage)
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		eng, err := openEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		req := query.AnalysisRequest{
			Kind:          query.AnalysisKind(c.Args().First()),
			TopN:          c.Int("top-n"),
			MinIslandSize: c.Int("min-island-size"),
			MaxIslandSize: c.Int("max-island-size"),
			Offset:        c.Int("offset"),
			Limit:         c.Int("limit"),
		}
		resp, err := eng.Analyze(req)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		return emit(resp)
	},
}
