package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexsearch/reflex/internal/config"
	"github.com/reflexsearch/reflex/internal/indexer"
	"github.com/reflexsearch/reflex/internal/metadata"
	"github.com/reflexsearch/reflex/internal/query"
)

func buildTestEngine(t *testing.T) *query.Engine {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n\nfunc Needle() {}\n"), 0o644))

	cacheDir := t.TempDir()
	store, err := metadata.Open(filepath.Join(cacheDir, indexer.MetadataFileName))
	require.NoError(t, err)

	cfg := &config.Config{Index: config.Index{MaxFileSize: 1 << 20, MaxTotalSizeMB: 100, MaxFileCount: 10000}}
	_, err = indexer.New(root, cacheDir, cfg, store).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	eng, err := query.Open(cacheDir, "default", 0, 0, false)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestServe_QueryRoundTrip(t *testing.T) {
	eng := buildTestEngine(t)

	req := Envelope{ID: "1", Op: "query", Query: &query.Request{Pattern: "Needle", Mode: query.ModeSymbolsOnly, Exact: true}}
	line, err := json.Marshal(req)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Serve(context.Background(), eng, strings.NewReader(string(line)+"\n"), &out))

	var reply Reply
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &reply))
	assert.Equal(t, "1", reply.ID)
	assert.Empty(t, reply.Error)
	assert.NotNil(t, reply.Result)
}

func TestServe_UnknownOpIsNonFatal(t *testing.T) {
	eng := buildTestEngine(t)

	var out bytes.Buffer
	in := `{"id":"a","op":"bogus"}` + "\n" + `{"id":"b","op":"query","query":{"pattern":"Needle","mode":"symbols_only","exact":true}}` + "\n"
	require.NoError(t, Serve(context.Background(), eng, strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first, second Reply
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.NotEmpty(t, first.Error)
	assert.Empty(t, second.Error)
}

func TestServe_MalformedLineIsNonFatal(t *testing.T) {
	eng := buildTestEngine(t)

	var out bytes.Buffer
	in := "{not json}\n" + `{"op":"query","query":{"pattern":"Needle","mode":"symbols_only","exact":true}}` + "\n"
	require.NoError(t, Serve(context.Background(), eng, strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "malformed")
}
