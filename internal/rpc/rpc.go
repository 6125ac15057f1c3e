// Package rpc is the line-delimited JSON "serve" mode named in spec §6: a
// thin encode/decode pass-through over the same Request/Response structs
// internal/query and cmd/reflex already use, so the wire schema mirrors the
// operation surface exactly without a real HTTP server or tool registry.
package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/reflexsearch/reflex/internal/query"
)

// Envelope is one request line. Exactly one of Query/Deps/Analyze is set,
// selected by Op.
type Envelope struct {
	ID      string                `json:"id,omitempty"`
	Op      string                `json:"op"`
	Query   *query.Request        `json:"query,omitempty"`
	Deps    *query.DepsRequest    `json:"deps,omitempty"`
	Analyze *query.AnalysisRequest `json:"analyze,omitempty"`
}

// Reply is one response line, echoing the request's ID.
type Reply struct {
	ID     string      `json:"id,omitempty"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

const maxLineBytes = 8 << 20

// Serve reads one JSON Envelope per line from r, dispatches it against eng,
// and writes one JSON Reply per line to w. It returns on read error or when
// r is exhausted; a malformed line or a failed operation produces an error
// Reply rather than stopping the loop, so one bad request can't wedge a
// long-lived serve session.
func Serve(ctx context.Context, eng *query.Engine, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			enc.Encode(Reply{Error: fmt.Sprintf("rpc: malformed request: %v", err)})
			continue
		}
		enc.Encode(dispatch(ctx, eng, env))
	}
	return scanner.Err()
}

func dispatch(ctx context.Context, eng *query.Engine, env Envelope) Reply {
	switch env.Op {
	case "query":
		if env.Query == nil {
			return Reply{ID: env.ID, Error: "rpc: query op requires a query request"}
		}
		resp, err := eng.Query(ctx, *env.Query)
		if err != nil {
			return Reply{ID: env.ID, Error: err.Error()}
		}
		return Reply{ID: env.ID, Result: resp}
	case "deps":
		if env.Deps == nil {
			return Reply{ID: env.ID, Error: "rpc: deps op requires a deps request"}
		}
		resp, err := eng.Deps(*env.Deps)
		if err != nil {
			return Reply{ID: env.ID, Error: err.Error()}
		}
		return Reply{ID: env.ID, Result: resp}
	case "analyze":
		if env.Analyze == nil {
			return Reply{ID: env.ID, Error: "rpc: analyze op requires an analyze request"}
		}
		resp, err := eng.Analyze(*env.Analyze)
		if err != nil {
			return Reply{ID: env.ID, Error: err.Error()}
		}
		return Reply{ID: env.ID, Result: resp}
	default:
		return Reply{ID: env.ID, Error: fmt.Sprintf("rpc: unknown op %q", env.Op)}
	}
}
