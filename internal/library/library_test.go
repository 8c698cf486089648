package library

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/chart"
	"github.com/cartomix/cwp/internal/musicfile"
	"github.com/cartomix/cwp/internal/notes"
	"github.com/cartomix/cwp/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func buildSampleMusicFile(t *testing.T, name, artist string) []byte {
	t.Helper()

	c := chart.New()
	c.Bps.InitialBps = 2
	c.Speed.InitialSpeed = 1
	c.Notes.AddNote(&notes.Note{Beat: beat.MustNew(1, 1), TrackCount: 4, TrackIndex: 0, Variant: notes.Tap})

	m := musicfile.New()
	m.Name = name
	m.Artist = artist
	m.Keywords = []string{"anime", "vocal"}
	m.MusicProvider = &provider.MusicProvider{File: &provider.FromPath{Path: "music.ogg"}}
	m.PreviewProvider = &provider.PreviewFromMusic{OffsetSeconds: 1, LengthSeconds: 5, FadeInFrames: 50, FadeOutFrames: 50}

	ci := &musicfile.ChartInfo{
		DifficultyName: "EXPERT",
		DifficultyText: "13",
		RGB:            [3]uint8{255, 0, 0},
		Difficulty:     13,
		Chart:          c,
	}
	m.Charts.Set(ci)

	buf, err := m.Encode()
	if err != nil {
		t.Fatalf("encode music: %v", err)
	}
	return buf
}

func TestUpsertAndGetSongByHash(t *testing.T) {
	logger := testLogger()
	dir := t.TempDir()

	db, err := Open(dir, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	song := &Song{
		ContentHash: "hash-1",
		Path:        "/songs/one.cwpm",
		Name:        "Song One",
		Artist:      "Artist One",
		Categories:  3,
		Keywords:    []string{"vocal", "anime"},
		FileSize:    1024,
	}
	charts := []ChartSummary{
		{DifficultyName: "EXPERT", DifficultyText: "13", Difficulty: 13, RGB: [3]uint8{255, 0, 0}},
	}

	id, err := db.UpsertSong(song, charts)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero song id")
	}

	got, gotCharts, err := db.GetSongByHash("hash-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != song.Name || got.Artist != song.Artist {
		t.Fatalf("unexpected song: %+v", got)
	}
	if len(got.Keywords) != 2 {
		t.Fatalf("expected 2 keywords, got %v", got.Keywords)
	}
	if len(gotCharts) != 1 || gotCharts[0].DifficultyName != "EXPERT" {
		t.Fatalf("unexpected charts: %+v", gotCharts)
	}

	// Re-upsert with fewer keywords and charts; old rows must be replaced.
	song.Keywords = []string{"vocal"}
	if _, err := db.UpsertSong(song, nil); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, gotCharts, err = db.GetSongByHash("hash-1")
	if err != nil {
		t.Fatalf("get after re-upsert: %v", err)
	}
	if len(got.Keywords) != 1 {
		t.Fatalf("expected keywords replaced, got %v", got.Keywords)
	}
	if len(gotCharts) != 0 {
		t.Fatalf("expected charts cleared, got %+v", gotCharts)
	}
}

func TestSearchByKeyword(t *testing.T) {
	db, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.UpsertSong(&Song{ContentHash: "a", Path: "a.cwpm", Name: "A", Artist: "X", Keywords: []string{"vocal"}}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertSong(&Song{ContentHash: "b", Path: "b.cwpm", Name: "B", Artist: "Y", Keywords: []string{"instrumental"}}, nil); err != nil {
		t.Fatal(err)
	}

	songs, err := db.SearchByKeyword("vocal")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(songs) != 1 || songs[0].Name != "A" {
		t.Fatalf("unexpected search result: %+v", songs)
	}
}

func TestScannerIndexesMusicFiles(t *testing.T) {
	db, err := Open(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	root := t.TempDir()
	data := buildSampleMusicFile(t, "Scanned Song", "Scanned Artist")
	if err := os.WriteFile(filepath.Join(root, "song.cwpm"), data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "ignore.txt"), []byte("not a chart"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	sc := NewScanner(db, testLogger())
	progress := make(chan Progress, 16)
	if err := sc.Scan(context.Background(), []string{root}, false, progress); err != nil {
		t.Fatalf("scan: %v", err)
	}

	var results []Progress
	for p := range progress {
		results = append(results, p)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 scanned file, got %d: %+v", len(results), results)
	}
	if results[0].Status != "done" || !results[0].IsNew {
		t.Fatalf("expected new done result, got %+v", results[0])
	}

	hash, err := ComputeHash(filepath.Join(root, "song.cwpm"))
	if err != nil {
		t.Fatalf("compute hash: %v", err)
	}
	song, charts, err := db.GetSongByHash(hash)
	if err != nil {
		t.Fatalf("get scanned song: %v", err)
	}
	if song.Name != "Scanned Song" || song.Artist != "Scanned Artist" {
		t.Fatalf("unexpected scanned song: %+v", song)
	}
	if len(charts) != 1 || charts[0].DifficultyName != "EXPERT" {
		t.Fatalf("unexpected scanned charts: %+v", charts)
	}

	// Re-scanning without forceRescan should report the file as skipped.
	progress2 := make(chan Progress, 16)
	if err := sc.Scan(context.Background(), []string{root}, false, progress2); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	var results2 []Progress
	for p := range progress2 {
		results2 = append(results2, p)
	}
	if len(results2) != 1 || results2[0].Status != "skipped" {
		t.Fatalf("expected skipped result, got %+v", results2)
	}
}

func TestHashCache(t *testing.T) {
	c := NewHashCache()

	if _, ok := c.Get("missing", time.Now()); ok {
		t.Fatal("expected cache miss for unknown path")
	}

	mod := time.Now()
	c.Set("song.cwpm", "deadbeef", mod)
	hash, ok := c.Get("song.cwpm", mod)
	if !ok || hash != "deadbeef" {
		t.Fatalf("expected cache hit, got %q %v", hash, ok)
	}
	if _, ok := c.Get("song.cwpm", mod.Add(time.Second)); ok {
		t.Fatal("expected cache miss after modification time changes")
	}
}
