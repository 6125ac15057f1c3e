package metadata

import (
	"fmt"

	"github.com/reflexsearch/reflex/internal/types"
)

// ReplaceDependencies atomically swaps out every dependency edge sourced
// from fileID for edges, mirroring ReplaceSymbols' reindex-one-file pattern.
func (s *Store) ReplaceDependencies(fileID types.FileID, edges []types.DependencyEdge) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("metadata: begin replace dependencies: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM file_dependencies WHERE source_file_id = ?`, fileID); err != nil {
		return fmt.Errorf("metadata: clear dependencies for %d: %w", fileID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO file_dependencies (source_file_id, imported_path, resolved_file_id, kind, line_number, imported_symbols)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("metadata: prepare dependency insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		var resolved any
		if e.ResolvedFileID != nil {
			resolved = *e.ResolvedFileID
		}
		if _, err := stmt.Exec(fileID, e.ImportedPath, resolved, e.Kind.String(), e.LineNumber, joinSymbols(e.ImportedSymbols)); err != nil {
			return fmt.Errorf("metadata: insert dependency %s: %w", e.ImportedPath, err)
		}
	}

	return tx.Commit()
}

// ForwardDependencies returns the edges a file imports.
func (s *Store) ForwardDependencies(fileID types.FileID) ([]types.DependencyEdge, error) {
	rows, err := s.db.Query(`
		SELECT imported_path, resolved_file_id, kind, line_number, imported_symbols
		FROM file_dependencies WHERE source_file_id = ?
		ORDER BY line_number
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("metadata: query forward deps for %d: %w", fileID, err)
	}
	defer rows.Close()
	return scanDependencyEdges(rows, fileID)
}

// ReverseDependencies returns every file that imports target.
func (s *Store) ReverseDependencies(target types.FileID) ([]types.FileID, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT source_file_id FROM file_dependencies WHERE resolved_file_id = ?
		ORDER BY source_file_id
	`, target)
	if err != nil {
		return nil, fmt.Errorf("metadata: query reverse deps for %d: %w", target, err)
	}
	defer rows.Close()

	var out []types.FileID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("metadata: scan reverse dep: %w", err)
		}
		out = append(out, types.FileID(id))
	}
	return out, rows.Err()
}

// AllDependencyEdges returns every dependency edge in the store, for
// building an in-memory dependency graph (cycle detection, hotspots).
func (s *Store) AllDependencyEdges() ([]types.DependencyEdge, error) {
	rows, err := s.db.Query(`
		SELECT source_file_id, imported_path, resolved_file_id, kind, line_number, imported_symbols
		FROM file_dependencies
	`)
	if err != nil {
		return nil, fmt.Errorf("metadata: query all dependencies: %w", err)
	}
	defer rows.Close()

	var out []types.DependencyEdge
	for rows.Next() {
		var sourceID int64
		var resolved *int64
		var kind, path, symbols string
		var line int
		if err := rows.Scan(&sourceID, &path, &resolved, &kind, &line, &symbols); err != nil {
			return nil, fmt.Errorf("metadata: scan dependency: %w", err)
		}
		e := types.DependencyEdge{
			SourceFileID:    types.FileID(sourceID),
			ImportedPath:    path,
			Kind:            parseDependencyKind(kind),
			LineNumber:      line,
			ImportedSymbols: splitSymbols(symbols),
		}
		if resolved != nil {
			fid := types.FileID(*resolved)
			e.ResolvedFileID = &fid
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanDependencyEdges(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}, sourceID types.FileID) ([]types.DependencyEdge, error) {
	var out []types.DependencyEdge
	for rows.Next() {
		var resolved *int64
		var kind, path, symbols string
		var line int
		if err := rows.Scan(&path, &resolved, &kind, &line, &symbols); err != nil {
			return nil, fmt.Errorf("metadata: scan dependency: %w", err)
		}
		e := types.DependencyEdge{
			SourceFileID:    sourceID,
			ImportedPath:    path,
			Kind:            parseDependencyKind(kind),
			LineNumber:      line,
			ImportedSymbols: splitSymbols(symbols),
		}
		if resolved != nil {
			fid := types.FileID(*resolved)
			e.ResolvedFileID = &fid
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func parseDependencyKind(s string) types.DependencyKind {
	switch s {
	case "external":
		return types.DepExternal
	case "stdlib":
		return types.DepStdlib
	default:
		return types.DepInternal
	}
}

// joinSymbols/splitSymbols use a comma separator; imported symbol names are
// identifiers in every supported language and so never contain a comma.
func joinSymbols(syms []string) string {
	out := ""
	for i, s := range syms {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func splitSymbols(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
