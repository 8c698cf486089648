package library

import (
	"database/sql"
	"fmt"
	"time"
)

// Song is one cataloged .cwpm file's searchable metadata.
type Song struct {
	ID             int64
	ContentHash    string
	Path           string
	Name           string
	Artist         string
	Categories     uint8
	Keywords       []string
	FileSize       int64
	FileModifiedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ChartSummary is one song's indexed difficulty row.
type ChartSummary struct {
	DifficultyName string
	DifficultyText string
	Difficulty     uint32
	RGB            [3]uint8
}

// UpsertSong inserts or updates a song by content hash, replacing its
// keyword and chart-summary rows.
func (d *DB) UpsertSong(s *Song, charts []ChartSummary) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("library: upsert song: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO songs (content_hash, path, name, artist, categories, file_size, file_modified_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(content_hash) DO UPDATE SET
			path = excluded.path,
			name = excluded.name,
			artist = excluded.artist,
			categories = excluded.categories,
			file_size = excluded.file_size,
			file_modified_at = excluded.file_modified_at,
			updated_at = CURRENT_TIMESTAMP
	`, s.ContentHash, s.Path, s.Name, s.Artist, s.Categories, s.FileSize, s.FileModifiedAt)
	if err != nil {
		return 0, fmt.Errorf("library: upsert song: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil || id == 0 {
		row := tx.QueryRow("SELECT id FROM songs WHERE content_hash = ?", s.ContentHash)
		if scanErr := row.Scan(&id); scanErr != nil {
			return 0, fmt.Errorf("library: resolve song id: %w", scanErr)
		}
	}

	if _, err := tx.Exec("DELETE FROM song_keywords WHERE song_id = ?", id); err != nil {
		return 0, fmt.Errorf("library: clear keywords: %w", err)
	}
	for _, kw := range s.Keywords {
		if _, err := tx.Exec("INSERT OR IGNORE INTO song_keywords (song_id, keyword) VALUES (?, ?)", id, kw); err != nil {
			return 0, fmt.Errorf("library: insert keyword %q: %w", kw, err)
		}
	}

	if _, err := tx.Exec("DELETE FROM charts WHERE song_id = ?", id); err != nil {
		return 0, fmt.Errorf("library: clear charts: %w", err)
	}
	for _, c := range charts {
		if _, err := tx.Exec(`
			INSERT INTO charts (song_id, difficulty_name, difficulty_text, difficulty, rgb_r, rgb_g, rgb_b)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, c.DifficultyName, c.DifficultyText, c.Difficulty, c.RGB[0], c.RGB[1], c.RGB[2]); err != nil {
			return 0, fmt.Errorf("library: insert chart %q: %w", c.DifficultyName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("library: upsert song: %w", err)
	}
	return id, nil
}

// GetSongByHash retrieves a song and its chart summaries by content hash.
func (d *DB) GetSongByHash(hash string) (*Song, []ChartSummary, error) {
	s := &Song{}
	row := d.db.QueryRow(`
		SELECT id, content_hash, path, name, artist, categories, file_size, file_modified_at, created_at, updated_at
		FROM songs WHERE content_hash = ?
	`, hash)

	var fileModifiedAt, createdAt, updatedAt sql.NullTime
	var fileSize sql.NullInt64
	if err := row.Scan(&s.ID, &s.ContentHash, &s.Path, &s.Name, &s.Artist, &s.Categories,
		&fileSize, &fileModifiedAt, &createdAt, &updatedAt); err != nil {
		return nil, nil, fmt.Errorf("library: get song %q: %w", hash, err)
	}
	if fileSize.Valid {
		s.FileSize = fileSize.Int64
	}
	if fileModifiedAt.Valid {
		s.FileModifiedAt = fileModifiedAt.Time
	}
	if createdAt.Valid {
		s.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		s.UpdatedAt = updatedAt.Time
	}

	keywords, err := d.keywordsForSong(s.ID)
	if err != nil {
		return nil, nil, err
	}
	s.Keywords = keywords

	charts, err := d.chartsForSong(s.ID)
	if err != nil {
		return nil, nil, err
	}

	return s, charts, nil
}

func (d *DB) keywordsForSong(songID int64) ([]string, error) {
	rows, err := d.db.Query("SELECT keyword FROM song_keywords WHERE song_id = ? ORDER BY keyword", songID)
	if err != nil {
		return nil, fmt.Errorf("library: load keywords: %w", err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("library: scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

func (d *DB) chartsForSong(songID int64) ([]ChartSummary, error) {
	rows, err := d.db.Query(`
		SELECT difficulty_name, difficulty_text, difficulty, rgb_r, rgb_g, rgb_b
		FROM charts WHERE song_id = ? ORDER BY difficulty
	`, songID)
	if err != nil {
		return nil, fmt.Errorf("library: load charts: %w", err)
	}
	defer rows.Close()

	var charts []ChartSummary
	for rows.Next() {
		var c ChartSummary
		if err := rows.Scan(&c.DifficultyName, &c.DifficultyText, &c.Difficulty, &c.RGB[0], &c.RGB[1], &c.RGB[2]); err != nil {
			return nil, fmt.Errorf("library: scan chart: %w", err)
		}
		charts = append(charts, c)
	}
	return charts, rows.Err()
}

// SearchByKeyword returns every song tagged with the given keyword.
func (d *DB) SearchByKeyword(keyword string) ([]*Song, error) {
	rows, err := d.db.Query(`
		SELECT s.id, s.content_hash, s.path, s.name, s.artist, s.categories
		FROM songs s
		JOIN song_keywords k ON k.song_id = s.id
		WHERE k.keyword = ?
		ORDER BY s.name
	`, keyword)
	if err != nil {
		return nil, fmt.Errorf("library: search by keyword %q: %w", keyword, err)
	}
	defer rows.Close()

	var songs []*Song
	for rows.Next() {
		s := &Song{}
		if err := rows.Scan(&s.ID, &s.ContentHash, &s.Path, &s.Name, &s.Artist, &s.Categories); err != nil {
			return nil, fmt.Errorf("library: scan song: %w", err)
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}
