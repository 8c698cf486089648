package notes

import (
	"testing"

	"github.com/cartomix/cwp/internal/beat"
)

func buildScenario3(t *testing.T) *List {
	t.Helper()
	l := &List{}

	tap := &Note{Beat: beat.MustNew(1, 1), TrackCount: 4, TrackIndex: 0, Variant: Tap}

	hold1 := &Note{Beat: beat.MustNew(1, 2), TrackCount: 5, TrackIndex: 4, Variant: Hold}
	hold2 := &Note{Beat: beat.MustNew(3, 2), TrackCount: 5, TrackIndex: 3, Variant: Hold}
	MergeWith(hold1, hold2)

	drag1 := &Note{Beat: beat.MustNew(2, 1), TrackCount: 5, TrackIndex: 2, Variant: Drag}
	drag2 := &Note{Beat: beat.MustNew(3, 1), TrackCount: 5, TrackIndex: 1, Variant: Drag}
	MergeWith(drag1, drag2)

	for _, n := range []*Note{tap, hold1, hold2, drag1, drag2} {
		l.AddNote(n)
	}
	return l
}

func TestMergeWithGroupsAndSorts(t *testing.T) {
	l := buildScenario3(t)
	var hold *Note
	for _, n := range l.Notes {
		if n.Variant == Hold {
			hold = n
			break
		}
	}
	if hold == nil || len(hold.Peers.Notes) != 2 {
		t.Fatalf("expected hold group of 2, got %+v", hold)
	}
	if !beat.Less(hold.Peers.Notes[0].Beat, hold.Peers.Notes[1].Beat) {
		t.Fatalf("peer list not sorted by beat")
	}
}

func TestEncodeDecodeScenario3(t *testing.T) {
	l := buildScenario3(t)

	w := beat.NewWriter(l.EncodedLength())
	l.Encode(w)
	if w.Len() != l.EncodedLength() {
		t.Fatalf("encoded %d bytes, want %d", w.Len(), l.EncodedLength())
	}

	got, err := Decode(beat.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Notes) != 5 {
		t.Fatalf("expected 5 notes, got %d", len(got.Notes))
	}

	var holds, drags, taps []*Note
	for _, n := range got.Notes {
		switch n.Variant {
		case Hold:
			holds = append(holds, n)
		case Drag:
			drags = append(drags, n)
		case Tap:
			taps = append(taps, n)
		}
	}

	if len(taps) != 1 {
		t.Fatalf("expected 1 tap, got %d", len(taps))
	}
	if len(holds) != 2 {
		t.Fatalf("expected 2 holds, got %d", len(holds))
	}
	if len(drags) != 2 {
		t.Fatalf("expected 2 drags, got %d", len(drags))
	}

	if holds[0].Peers != holds[1].Peers {
		t.Fatalf("decoded holds should share one peer list")
	}
	if len(holds[0].Peers.Notes) != 2 {
		t.Fatalf("hold peer list should have 2 members, got %d", len(holds[0].Peers.Notes))
	}

	if drags[0].Peers != drags[1].Peers {
		t.Fatalf("decoded drags should share one peer list")
	}
	if len(drags[0].Peers.Notes) != 2 {
		t.Fatalf("drag peer list should have 2 members, got %d", len(drags[0].Peers.Notes))
	}

	if holds[0].Peers == drags[0].Peers {
		t.Fatalf("hold and drag groups must not share a peer list")
	}
}

func TestGroupPredicates(t *testing.T) {
	a := &Note{Beat: beat.MustNew(0, 1), Variant: Hold}
	b := &Note{Beat: beat.MustNew(1, 1), Variant: Hold}
	c := &Note{Beat: beat.MustNew(2, 1), Variant: Hold}
	MergeWith(a, b, c)

	if !a.IsBegin() || a.IsEnd() || a.IsMiddle() {
		t.Fatalf("a should be begin only")
	}
	if !c.IsEnd() || c.IsBegin() || c.IsMiddle() {
		t.Fatalf("c should be end only")
	}
	if !b.IsMiddle() || b.IsBegin() || b.IsEnd() {
		t.Fatalf("b should be middle only")
	}

	solo := &Note{Beat: beat.MustNew(0, 1), Variant: Drag}
	if !solo.IsIsolated() {
		t.Fatalf("note with no peers should be isolated")
	}
}

func TestTapWidthZeroIsNotDrag(t *testing.T) {
	l := &List{}
	l.AddNote(&Note{Beat: beat.MustNew(0, 1), TrackCount: 4, TrackIndex: 0, Variant: Tap, Width: 0})

	w := beat.NewWriter(l.EncodedLength())
	l.Encode(w)
	got, err := Decode(beat.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got.Notes[0].Variant != Tap {
		t.Fatalf("expected tap, got %v", got.Notes[0].Variant)
	}
}
