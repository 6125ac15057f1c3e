package metadata

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/reflexsearch/reflex/internal/types"
)

// UpsertFile inserts or updates a file row, returning its FileID. The
// (path) unique constraint makes this idempotent across reindexes: a file
// that is renamed gets a new row since its path changed.
func (s *Store) UpsertFile(f types.File) (types.FileID, error) {
	_, err := s.db.Exec(`
		INSERT INTO files (path, language, size_bytes) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET language = excluded.language, size_bytes = excluded.size_bytes
	`, f.Path, f.Language.String(), f.SizeBytes)
	if err != nil {
		return 0, fmt.Errorf("metadata: upsert file %s: %w", f.Path, err)
	}

	// LastInsertId is not used: when the conflict path updates an existing
	// row, SQLite leaves it at the connection's previous insert.
	var id int64
	row := s.db.QueryRow(`SELECT id FROM files WHERE path = ?`, f.Path)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("metadata: lookup file id for %s: %w", f.Path, err)
	}
	return types.FileID(id), nil
}

// FileByPath returns the file row for path, or ok=false if absent.
func (s *Store) FileByPath(path string) (types.File, bool, error) {
	row := s.db.QueryRow(`SELECT id, path, language, size_bytes FROM files WHERE path = ?`, path)
	return scanFile(row)
}

// FileByID returns the file row for id, or ok=false if absent.
func (s *Store) FileByID(id types.FileID) (types.File, bool, error) {
	row := s.db.QueryRow(`SELECT id, path, language, size_bytes FROM files WHERE id = ?`, id)
	return scanFile(row)
}

func scanFile(row *sql.Row) (types.File, bool, error) {
	var f types.File
	var id int64
	var lang string
	if err := row.Scan(&id, &f.Path, &lang, &f.SizeBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.File{}, false, nil
		}
		return types.File{}, false, fmt.Errorf("metadata: scan file: %w", err)
	}
	f.ID = types.FileID(id)
	f.Language = types.LanguageFromExtension(extOf(lang))
	return f, true, nil
}

// extOf maps a stored language string back to a representative extension
// so LanguageFromExtension can re-derive the Language enum; stored
// language names already come from Language.String(), so a direct
// round-trip table is simpler than re-parsing extensions.
func extOf(lang string) string {
	switch lang {
	case "go":
		return ".go"
	case "rust":
		return ".rs"
	case "python":
		return ".py"
	case "javascript":
		return ".js"
	case "typescript":
		return ".ts"
	case "java":
		return ".java"
	case "c":
		return ".c"
	case "cpp":
		return ".cpp"
	case "csharp":
		return ".cs"
	case "ruby":
		return ".rb"
	case "kotlin":
		return ".kt"
	case "zig":
		return ".zig"
	case "php":
		return ".php"
	case "vue":
		return ".vue"
	case "svelte":
		return ".svelte"
	default:
		return ""
	}
}

// DeleteFile removes a file row; ON DELETE CASCADE drops its symbols,
// dependency edges, and branch hashes along with it.
func (s *Store) DeleteFile(id types.FileID) error {
	_, err := s.db.Exec(`DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("metadata: delete file %d: %w", id, err)
	}
	return nil
}

// ListFiles returns every indexed file path.
func (s *Store) ListFiles() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("metadata: list files: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("metadata: scan file path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// AllFiles returns every indexed file with its ID, for query-pipeline scans
// that must fall back to "every indexed file" (a pattern too short to
// trigram-filter, a regex with no extractable literal, an AST query with no
// accompanying text pattern).
func (s *Store) AllFiles() ([]types.File, error) {
	rows, err := s.db.Query(`SELECT id, path, language, size_bytes FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("metadata: list all files: %w", err)
	}
	defer rows.Close()

	var out []types.File
	for rows.Next() {
		var f types.File
		var id int64
		var lang string
		if err := rows.Scan(&id, &f.Path, &lang, &f.SizeBytes); err != nil {
			return nil, fmt.Errorf("metadata: scan file: %w", err)
		}
		f.ID = types.FileID(id)
		f.Language = types.LanguageFromExtension(extOf(lang))
		out = append(out, f)
	}
	return out, rows.Err()
}

// FilesNeedingSymbols returns every file with no symbol rows at all,
// distinguishing "never parsed" from "parsed, legitimately has zero
// symbols" is not possible from this table alone; callers (the background
// symbol worker) re-derive that distinction by checking whether the
// language is one langparser supports before spending effort on a file.
func (s *Store) FilesNeedingSymbols() ([]types.File, error) {
	rows, err := s.db.Query(`
		SELECT f.id, f.path, f.language, f.size_bytes FROM files f
		WHERE NOT EXISTS (SELECT 1 FROM symbols sy WHERE sy.file_id = f.id)
		ORDER BY f.path
	`)
	if err != nil {
		return nil, fmt.Errorf("metadata: query files needing symbols: %w", err)
	}
	defer rows.Close()

	var out []types.File
	for rows.Next() {
		var f types.File
		var id int64
		var lang string
		if err := rows.Scan(&id, &f.Path, &lang, &f.SizeBytes); err != nil {
			return nil, fmt.Errorf("metadata: scan file needing symbols: %w", err)
		}
		f.ID = types.FileID(id)
		f.Language = types.LanguageFromExtension(extOf(lang))
		out = append(out, f)
	}
	return out, rows.Err()
}

// SetFileHash records a file's content hash on a branch, replacing any
// prior hash for the same (file, branch) pair.
func (s *Store) SetFileHash(fileID types.FileID, branchKey string, hash [32]byte) error {
	_, err := s.db.Exec(`
		INSERT INTO file_branches (file_id, branch_key, content_hash) VALUES (?, ?, ?)
		ON CONFLICT(file_id, branch_key) DO UPDATE SET content_hash = excluded.content_hash, indexed_at = CURRENT_TIMESTAMP
	`, fileID, branchKey, fmt.Sprintf("%x", hash))
	if err != nil {
		return fmt.Errorf("metadata: set file hash for %d: %w", fileID, err)
	}
	return nil
}

// FileHash returns the recorded content hash for (fileID, branchKey), or
// ok=false if the file has never been indexed on that branch.
func (s *Store) FileHash(fileID types.FileID, branchKey string) (hash string, ok bool, err error) {
	row := s.db.QueryRow(`SELECT content_hash FROM file_branches WHERE file_id = ? AND branch_key = ?`, fileID, branchKey)
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("metadata: read file hash for %d: %w", fileID, err)
	}
	return hash, true, nil
}
