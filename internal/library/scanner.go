package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cartomix/cwp/internal/musicfile"
)

// Extension is the file extension the scanner looks for.
const Extension = ".cwpm"

// Scanner recursively walks directories for .cwpm files and indexes them.
type Scanner struct {
	db     *DB
	logger *slog.Logger
	hashes *HashCache
}

// NewScanner creates a scanner writing into db.
func NewScanner(db *DB, logger *slog.Logger) *Scanner {
	return &Scanner{db: db, logger: logger, hashes: NewHashCache()}
}

// FileResult holds the outcome of indexing a single file.
type FileResult struct {
	Path        string
	ContentHash string
	SongID      int64
	IsNew       bool
	Error       error
}

// Progress reports scanning progress for one file.
type Progress struct {
	Path      string
	Status    string // done, skipped, error
	Error     string
	Processed int64
	Total     int64
	IsNew     bool
}

// Scan walks roots for .cwpm files, indexing each into the catalog and
// recording a scan session row. Progress is reported on progress, which
// is closed when the scan finishes.
func (s *Scanner) Scan(ctx context.Context, roots []string, forceRescan bool, progress chan<- Progress) error {
	defer close(progress)

	sessionID := uuid.New().String()
	if _, err := s.db.db.Exec("INSERT INTO scan_sessions (id) VALUES (?)", sessionID); err != nil {
		return err
	}

	var total int64
	for _, root := range roots {
		count, err := s.countFiles(root)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to count files in root", "root", root, "error", err)
			}
			continue
		}
		total += count
	}

	var processed, added, failed int64

	for _, root := range roots {
		walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), Extension) {
				return nil
			}

			result := s.processFile(path, forceRescan)
			processed++

			status := "done"
			errMsg := ""
			if result.Error != nil {
				status = "error"
				errMsg = result.Error.Error()
				failed++
			} else if !result.IsNew {
				status = "skipped"
			} else {
				added++
			}

			select {
			case progress <- Progress{
				Path:      path,
				Status:    status,
				Error:     errMsg,
				Processed: processed,
				Total:     total,
				IsNew:     result.IsNew,
			}:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})
		if walkErr != nil && walkErr != context.Canceled {
			if s.logger != nil {
				s.logger.Error("scan error", "root", root, "error", walkErr)
			}
		}
	}

	_, err := s.db.db.Exec(`
		UPDATE scan_sessions SET finished_at = CURRENT_TIMESTAMP,
			files_scanned = ?, files_added = ?, files_failed = ?
		WHERE id = ?
	`, processed, added, failed, sessionID)
	return err
}

func (s *Scanner) countFiles(root string) (int64, error) {
	var count int64
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), Extension) {
			count++
		}
		return nil
	})
	return count, err
}

func (s *Scanner) processFile(path string, forceRescan bool) FileResult {
	result := FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		result.Error = err
		return result
	}

	hash, ok := s.hashes.Get(path, info.ModTime())
	if !ok {
		hash, err = ComputeHash(path)
		if err != nil {
			result.Error = err
			return result
		}
		s.hashes.Set(path, hash, info.ModTime())
	}
	result.ContentHash = hash

	if !forceRescan {
		if existing, _, err := s.db.GetSongByHash(hash); err == nil && existing != nil {
			result.SongID = existing.ID
			result.IsNew = false
			return result
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Error = err
		return result
	}

	m, err := musicfile.Decode(raw)
	if err != nil {
		result.Error = err
		return result
	}

	song := &Song{
		ContentHash:    hash,
		Path:           path,
		Name:           m.Name,
		Artist:         m.Artist,
		Categories:     m.Categories,
		Keywords:       m.Keywords,
		FileSize:       info.Size(),
		FileModifiedAt: info.ModTime(),
	}

	var charts []ChartSummary
	for _, ci := range m.Charts.All() {
		charts = append(charts, ChartSummary{
			DifficultyName: ci.DifficultyName,
			DifficultyText: ci.DifficultyText,
			Difficulty:     ci.Difficulty,
			RGB:            ci.RGB,
		})
	}

	songID, err := s.db.UpsertSong(song, charts)
	if err != nil {
		result.Error = err
		return result
	}

	result.SongID = songID
	result.IsNew = true
	return result
}

// ComputeHash returns a deterministic hash of the first 64KB of path,
// sufficient for identity without hashing large embedded audio blobs.
func ComputeHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	_, err = io.CopyN(h, file, 64*1024)
	if err != nil && err != io.EOF {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashCache caches file hashes keyed by path and modification time.
type HashCache struct {
	cache map[string]cacheEntry
}

type cacheEntry struct {
	hash    string
	modTime time.Time
}

// NewHashCache creates an empty hash cache.
func NewHashCache() *HashCache {
	return &HashCache{cache: make(map[string]cacheEntry)}
}

// Get returns a cached hash if path hasn't been modified since it was set.
func (c *HashCache) Get(path string, modTime time.Time) (string, bool) {
	entry, ok := c.cache[path]
	if !ok || !entry.modTime.Equal(modTime) {
		return "", false
	}
	return entry.hash, true
}

// Set records a hash for path at modTime.
func (c *HashCache) Set(path string, hash string, modTime time.Time) {
	c.cache[path] = cacheEntry{hash: hash, modTime: modTime}
}
