package metadata

import (
	"fmt"

	"github.com/reflexsearch/reflex/internal/types"
)

// seedSymbolKinds inserts a row per types.SymbolKind value so symbols.kind_id
// can foreign-key against a stable, human-readable name instead of the raw
// enum byte. Idempotent: re-running against an already-seeded database is a
// no-op thanks to the UNIQUE(name) constraint.
func (s *Store) seedSymbolKinds() error {
	for k := types.SymbolUnknown; k <= types.SymbolField; k++ {
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO symbol_kinds (name) VALUES (?)`, k.String()); err != nil {
			return fmt.Errorf("metadata: seed symbol kind %s: %w", k.String(), err)
		}
	}
	return nil
}

func (s *Store) symbolKindID(k types.SymbolKind) (int64, error) {
	var id int64
	row := s.db.QueryRow(`SELECT id FROM symbol_kinds WHERE name = ?`, k.String())
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("metadata: resolve symbol kind %s: %w", k.String(), err)
	}
	return id, nil
}

// ReplaceSymbols atomically swaps out every symbol row belonging to fileID
// for syms, so a reindex of one file never leaves stale symbols behind.
func (s *Store) ReplaceSymbols(fileID types.FileID, syms []types.Symbol) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("metadata: begin replace symbols: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("metadata: clear symbols for %d: %w", fileID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO symbols (file_id, kind_id, name, start_line, start_col, end_line, end_col, scope)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("metadata: prepare symbol insert: %w", err)
	}
	defer stmt.Close()

	// Kind IDs are resolved through tx: the store has a single connection
	// and the transaction holds it, so a query on s.db would block.
	kindIDs := make(map[types.SymbolKind]int64, len(syms))
	for _, sym := range syms {
		if _, ok := kindIDs[sym.Kind]; ok {
			continue
		}
		var id int64
		if err := tx.QueryRow(`SELECT id FROM symbol_kinds WHERE name = ?`, sym.Kind.String()).Scan(&id); err != nil {
			return fmt.Errorf("metadata: resolve symbol kind %s: %w", sym.Kind.String(), err)
		}
		kindIDs[sym.Kind] = id
	}

	for _, sym := range syms {
		if _, err := stmt.Exec(fileID, kindIDs[sym.Kind], sym.Name, sym.Span.StartLine, sym.Span.StartCol, sym.Span.EndLine, sym.Span.EndCol, sym.Scope); err != nil {
			return fmt.Errorf("metadata: insert symbol %s: %w", sym.Name, err)
		}
	}

	return tx.Commit()
}

// SymbolsByFile returns every symbol recorded for fileID, in source order.
func (s *Store) SymbolsByFile(fileID types.FileID) ([]types.Symbol, error) {
	rows, err := s.db.Query(`
		SELECT sk.name, sy.name, sy.start_line, sy.start_col, sy.end_line, sy.end_col, sy.scope
		FROM symbols sy JOIN symbol_kinds sk ON sk.id = sy.kind_id
		WHERE sy.file_id = ?
		ORDER BY sy.start_line, sy.start_col
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("metadata: query symbols for %d: %w", fileID, err)
	}
	defer rows.Close()
	return scanSymbols(rows, fileID)
}

// SymbolsByName returns every symbol named exactly name, across all files.
func (s *Store) SymbolsByName(name string) ([]types.Symbol, error) {
	rows, err := s.db.Query(`
		SELECT sk.name, sy.name, sy.start_line, sy.start_col, sy.end_line, sy.end_col, sy.scope, f.path
		FROM symbols sy
		JOIN symbol_kinds sk ON sk.id = sy.kind_id
		JOIN files f ON f.id = sy.file_id
		WHERE sy.name = ?
		ORDER BY f.path, sy.start_line
	`, name)
	if err != nil {
		return nil, fmt.Errorf("metadata: query symbols named %s: %w", name, err)
	}
	defer rows.Close()

	var out []types.Symbol
	for rows.Next() {
		var kindName string
		var sym types.Symbol
		if err := rows.Scan(&kindName, &sym.Name, &sym.Span.StartLine, &sym.Span.StartCol, &sym.Span.EndLine, &sym.Span.EndCol, &sym.Scope, &sym.Path); err != nil {
			return nil, fmt.Errorf("metadata: scan symbol: %w", err)
		}
		sym.Kind = types.ParseSymbolKind(kindName)
		out = append(out, sym)
	}
	return out, rows.Err()
}

// AllSymbolNames returns every distinct symbol name in the workspace, for
// the query pipeline's zero-result suggestion path.
func (s *Store) AllSymbolNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT name FROM symbols`)
	if err != nil {
		return nil, fmt.Errorf("metadata: list symbol names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("metadata: scan symbol name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func scanSymbols(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}, fileID types.FileID) ([]types.Symbol, error) {
	var out []types.Symbol
	for rows.Next() {
		var kindName string
		var sym types.Symbol
		if err := rows.Scan(&kindName, &sym.Name, &sym.Span.StartLine, &sym.Span.StartCol, &sym.Span.EndLine, &sym.Span.EndCol, &sym.Scope); err != nil {
			return nil, fmt.Errorf("metadata: scan symbol: %w", err)
		}
		sym.Kind = types.ParseSymbolKind(kindName)
		sym.FileID = fileID
		out = append(out, sym)
	}
	return out, rows.Err()
}
