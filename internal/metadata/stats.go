package metadata

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reflexsearch/reflex/internal/types"
)

// RecomputeStatistics derives aggregate counters from the files table and
// persists them, overwriting whatever was there before. Called once per
// index commit so Statistics never drifts from the files it summarizes.
func (s *Store) RecomputeStatistics() (types.Statistics, error) {
	var stats types.Statistics
	stats.FilesByLang = make(map[string]int)

	rows, err := s.db.Query(`SELECT language, COUNT(*), COALESCE(SUM(size_bytes), 0) FROM files GROUP BY language`)
	if err != nil {
		return stats, fmt.Errorf("metadata: aggregate statistics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lang string
		var count int
		var bytes int64
		if err := rows.Scan(&lang, &count, &bytes); err != nil {
			return stats, fmt.Errorf("metadata: scan statistics row: %w", err)
		}
		stats.FilesByLang[lang] = count
		stats.TotalFiles += count
		stats.TotalBytes += bytes
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}
	stats.LastUpdated = time.Now()

	langJSON, err := json.Marshal(stats.FilesByLang)
	if err != nil {
		return stats, fmt.Errorf("metadata: marshal files_by_lang: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO statistics (id, total_files, total_bytes, files_by_lang, last_updated) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET total_files = excluded.total_files, total_bytes = excluded.total_bytes,
			files_by_lang = excluded.files_by_lang, last_updated = excluded.last_updated
	`, stats.TotalFiles, stats.TotalBytes, string(langJSON), stats.LastUpdated)
	if err != nil {
		return stats, fmt.Errorf("metadata: persist statistics: %w", err)
	}
	return stats, nil
}

// Statistics returns the last persisted aggregate counters.
func (s *Store) Statistics() (types.Statistics, error) {
	var stats types.Statistics
	var langJSON string
	var lastUpdated sql.NullTime

	row := s.db.QueryRow(`SELECT total_files, total_bytes, files_by_lang, last_updated FROM statistics WHERE id = 1`)
	if err := row.Scan(&stats.TotalFiles, &stats.TotalBytes, &langJSON, &lastUpdated); err != nil {
		if err == sql.ErrNoRows {
			stats.FilesByLang = make(map[string]int)
			return stats, nil
		}
		return stats, fmt.Errorf("metadata: read statistics: %w", err)
	}
	if err := json.Unmarshal([]byte(langJSON), &stats.FilesByLang); err != nil {
		return stats, fmt.Errorf("metadata: unmarshal files_by_lang: %w", err)
	}
	if lastUpdated.Valid {
		stats.LastUpdated = lastUpdated.Time
	}
	return stats, nil
}

// SetConfig persists a key/value pair in the config table, e.g. the active
// branch key or the last full-reindex timestamp.
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("metadata: set config %s: %w", key, err)
	}
	return nil
}

// GetConfig reads a persisted config value, or ok=false if unset.
func (s *Store) GetConfig(key string) (value string, ok bool, err error) {
	row := s.db.QueryRow(`SELECT value FROM config WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("metadata: get config %s: %w", key, err)
	}
	return value, true, nil
}
