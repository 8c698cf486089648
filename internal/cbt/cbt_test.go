package cbt

import (
	"math"
	"testing"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/chart"
	"github.com/cartomix/cwp/internal/notes"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestToCbtThenFromCbtRoundTrip(t *testing.T) {
	c := chart.New()
	c.Bps.InitialBps = 2
	c.Speed.InitialSpeed = 1
	c.Offset = 0

	c.Bps.AddBpsChange(beat.MustNew(4, 1), 4)
	c.Speed.AddSpeedChange(beat.MustNew(2, 1), 0.5)

	c.Notes.AddNote(&notes.Note{Beat: beat.MustNew(1, 1), TrackCount: 4, TrackIndex: 0, Variant: notes.Tap})

	hold1 := &notes.Note{Beat: beat.MustNew(2, 1), TrackCount: 4, TrackIndex: 1, Variant: notes.Hold}
	hold2 := &notes.Note{Beat: beat.MustNew(3, 1), TrackCount: 4, TrackIndex: 1, Variant: notes.Hold}
	notes.MergeWith(hold1, hold2)
	c.Notes.AddNote(hold1)
	c.Notes.AddNote(hold2)

	doc, err := ToCbt(c, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}

	got, err := FromCbt(doc, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}

	if got.Bps.InitialBps != c.Bps.InitialBps {
		t.Fatalf("initial bps mismatch: got %v want %v", got.Bps.InitialBps, c.Bps.InitialBps)
	}
	if len(got.Bps.Changes) != 1 || got.Bps.Changes[0].Bps != 4 {
		t.Fatalf("bps changes mismatch: %+v", got.Bps.Changes)
	}
	if len(got.Speed.Changes) != 1 || got.Speed.Changes[0].Speed != 0.5 {
		t.Fatalf("speed changes mismatch: %+v", got.Speed.Changes)
	}
	if len(got.Notes.Notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(got.Notes.Notes))
	}

	var holds []*notes.Note
	for _, n := range got.Notes.Notes {
		if n.Variant == notes.Hold {
			holds = append(holds, n)
		}
	}
	if len(holds) != 2 || holds[0].Peers != holds[1].Peers {
		t.Fatalf("expected merged hold pair, got %+v", holds)
	}
}

func TestToCbtNegativeOffsetRoundTrips(t *testing.T) {
	c := chart.New()
	c.Bps.InitialBps = 2
	c.Speed.InitialSpeed = 1
	c.Offset = 1.5 // song audio starts 1.5s before beat 0

	doc, err := ToCbt(c, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}
	got, err := FromCbt(doc, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(got.Offset, c.Offset) {
		t.Fatalf("offset mismatch: got %v want %v", got.Offset, c.Offset)
	}
}

func TestToCbtPositiveDelayRoundTrips(t *testing.T) {
	c := chart.New()
	c.Bps.InitialBps = 2
	c.Speed.InitialSpeed = 1
	c.Offset = -1.0 // beat 0 occurs 1s before the audio starts

	doc, err := ToCbt(c, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}
	got, err := FromCbt(doc, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(got.Offset, c.Offset) {
		t.Fatalf("offset mismatch: got %v want %v", got.Offset, c.Offset)
	}
}

func TestWideTapPreservesWidth(t *testing.T) {
	c := chart.New()
	c.Bps.InitialBps = 2
	c.Speed.InitialSpeed = 1
	c.Notes.AddNote(&notes.Note{Beat: beat.MustNew(1, 1), TrackCount: 4, TrackIndex: 0, Variant: notes.Tap, Width: 2.5})

	doc, err := ToCbt(c, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}
	got, err := FromCbt(doc, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Notes.Notes) != 1 || got.Notes.Notes[0].Width != 2.5 {
		t.Fatalf("expected width 2.5 to round-trip, got %+v", got.Notes.Notes)
	}
}

// TestToCbtPickupMeasureScenario pins scenario 4 from the testable
// properties: a chart whose offset puts its bgm row before measure 0
// stores the pickup-shifted measure numbers, not the true negative ones.
func TestToCbtPickupMeasureScenario(t *testing.T) {
	c := chart.New()
	c.Bps.InitialBps = 1
	c.Speed.InitialSpeed = 1
	c.Offset = 0.5

	c.Notes.AddNote(&notes.Note{Beat: beat.MustNew(1, 1), TrackCount: 4, TrackIndex: 0, Variant: notes.Tap})

	doc, err := ToCbt(c, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}

	var bgm, tap *Tuple
	for i := range doc.Notes {
		switch doc.Notes[i].Type {
		case TypeBgm:
			bgm = &doc.Notes[i]
		case TypeTapNarrow:
			tap = &doc.Notes[i]
		}
	}
	if bgm == nil || tap == nil {
		t.Fatalf("expected a bgm and a tap tuple, got %+v", doc.Notes)
	}
	// 3.5/4 reduces to 7/8 once stored as a lowest-terms rational.
	if bgm.Measure != 0 || bgm.Subdivision != 7 || bgm.SubdivisionCount != 8 {
		t.Fatalf("bgm tuple mismatch: measure=%d subdivision=%d/%d", bgm.Measure, bgm.Subdivision, bgm.SubdivisionCount)
	}
	if tap.Measure != 1 || tap.Subdivision != 1 || tap.SubdivisionCount != 4 {
		t.Fatalf("tap tuple mismatch: measure=%d subdivision=%d/%d", tap.Measure, tap.Subdivision, tap.SubdivisionCount)
	}

	got, err := FromCbt(doc, DefaultBeatsPerMeasure)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(got.Offset, c.Offset) {
		t.Fatalf("offset mismatch: got %v want %v", got.Offset, c.Offset)
	}
	if len(got.Notes.Notes) != 1 || !beat.Equal(got.Notes.Notes[0].Beat, beat.MustNew(1, 1)) {
		t.Fatalf("tap beat did not round-trip: %+v", got.Notes.Notes)
	}
}
