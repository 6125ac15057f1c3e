package symbolcache

import (
	"fmt"

	"github.com/reflexsearch/reflex/internal/metadata"
	"github.com/reflexsearch/reflex/internal/types"
)

// Lookup returns the symbols already recorded for fileID if its stored
// content hash still matches currentHash, per spec §4.9's enrichment
// phase: "obtain symbols (from Symbol Cache if hash matches; otherwise
// parse in process)". A mismatch or an unindexed file means the cache is
// stale for that file and the caller must parse it itself.
func Lookup(store *metadata.Store, fileID types.FileID, branchKey string, currentHash [32]byte) ([]types.Symbol, bool, error) {
	stored, ok, err := store.FileHash(fileID, branchKey)
	if err != nil {
		return nil, false, fmt.Errorf("symbolcache: lookup hash: %w", err)
	}
	if !ok || stored != fmt.Sprintf("%x", currentHash) {
		return nil, false, nil
	}
	syms, err := store.SymbolsByFile(fileID)
	if err != nil {
		return nil, false, fmt.Errorf("symbolcache: load symbols: %w", err)
	}
	return syms, true, nil
}
