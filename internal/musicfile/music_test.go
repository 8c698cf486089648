package musicfile

import (
	"bytes"
	"testing"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/chart"
	"github.com/cartomix/cwp/internal/notes"
	"github.com/cartomix/cwp/internal/provider"
)

func buildSampleChart(t *testing.T) *chart.Chart {
	t.Helper()
	c := chart.New()
	c.Charter = "dj"
	c.Bps.InitialBps = 2
	c.Speed.InitialSpeed = 1
	c.Notes.AddNote(&notes.Note{Beat: beat.MustNew(1, 1), TrackCount: 4, TrackIndex: 1, Variant: notes.Tap})
	return c
}

func buildSampleMusic(t *testing.T) *Music {
	t.Helper()
	m := New()
	m.Name = "Song Title"
	m.Artist = "Some Artist"
	m.Categories = 0b0101
	m.Keywords = []string{"fast", "electronic"}

	musicBytes := []byte("fake-ogg-bytes-not-real-audio")
	embedded, err := provider.NewEmbedded(musicBytes, false)
	if err != nil {
		t.Fatal(err)
	}
	m.MusicProvider = &provider.MusicProvider{File: embedded}
	m.PreviewProvider = &provider.PreviewFromMusic{OffsetSeconds: 1, LengthSeconds: 5, FadeInFrames: 50, FadeOutFrames: 50}

	easy := &ChartInfo{
		DifficultyName: "Easy",
		DifficultyText: "3",
		RGB:            [3]uint8{0, 200, 0},
		Difficulty:     3,
		Chart:          buildSampleChart(t),
	}
	m.Charts.Set(easy)

	return m
}

func TestMusicRoundTrip(t *testing.T) {
	m := buildSampleMusic(t)

	out, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	total, err := m.TotalEncodedLength()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != total {
		t.Fatalf("encoded %d bytes, want %d", len(out), total)
	}

	got, err := Decode(out)
	if err != nil {
		t.Fatal(err)
	}

	if got.Name != m.Name || got.Artist != m.Artist || got.Categories != m.Categories {
		t.Fatalf("header mismatch: %+v", got)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "fast" || got.Keywords[1] != "electronic" {
		t.Fatalf("keyword mismatch: %v", got.Keywords)
	}

	mp, ok := got.MusicProvider.File.(*provider.Embedded)
	if !ok {
		t.Fatalf("expected embedded music provider, got %T", got.MusicProvider.File)
	}
	buf, err := mp.ArrayBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte("fake-ogg-bytes-not-real-audio")) {
		t.Fatalf("music bytes mismatch: %q", buf)
	}

	if got.Charts.Len() != 1 {
		t.Fatalf("expected 1 chart, got %d", got.Charts.Len())
	}
	easy, ok := got.Charts.Get("Easy")
	if !ok {
		t.Fatal("expected Easy chart to round-trip")
	}
	if easy.Difficulty != 3 || easy.RGB != [3]uint8{0, 200, 0} {
		t.Fatalf("chart info mismatch: %+v", easy)
	}
	if len(easy.Chart.Notes.Notes) != 1 {
		t.Fatalf("expected 1 note in decoded chart, got %d", len(easy.Chart.Notes.Notes))
	}
}

func TestMusicBadMagic(t *testing.T) {
	if _, err := Decode([]byte{0, 0, 0, 0, 1}); err == nil {
		t.Fatal("expected bad magic error")
	}
}

func TestChartListReplacePreservesOrder(t *testing.T) {
	l := NewChartList()
	l.Set(&ChartInfo{DifficultyName: "Easy"})
	l.Set(&ChartInfo{DifficultyName: "Hard"})
	l.Set(&ChartInfo{DifficultyName: "Easy", Difficulty: 9})

	all := l.All()
	if len(all) != 2 || all[0].DifficultyName != "Easy" || all[1].DifficultyName != "Hard" {
		t.Fatalf("unexpected order: %+v", all)
	}
	if all[0].Difficulty != 9 {
		t.Fatalf("expected replaced difficulty, got %d", all[0].Difficulty)
	}
}
