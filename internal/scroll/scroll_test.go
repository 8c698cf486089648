package scroll

import (
	"testing"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/tempo"
)

func TestYAtScenario2(t *testing.T) {
	bps := tempo.New()
	bps.InitialBps = 1

	sp := New()
	sp.InitialSpeed = 1
	sp.AddSpeedChange(beat.MustNew(1, 1), 2)
	sp.AddSpeedChange(beat.MustNew(2, 1), 0.5)

	cases := []struct {
		beat beat.Beat
		want float64
	}{
		{beat.MustNew(0, 1), 0},
		{beat.MustNew(1, 2), 0.5},
		{beat.MustNew(1, 1), 1},
		{beat.MustNew(3, 2), 2},
		{beat.MustNew(2, 1), 3},
		{beat.MustNew(5, 2), 3.25},
		{beat.MustNew(3, 1), 3.5},
		{beat.MustNew(4, 1), 4},
	}

	for _, c := range cases {
		time := bps.TimeAt(c.beat)
		got := sp.YAt(time, bps)
		if got != c.want {
			t.Errorf("YAt(beat=%v, time=%v) = %v, want %v", c.beat, time, got, c.want)
		}
	}
}

func TestYAtMonotonicNonDecreasingForNonNegativeSpeeds(t *testing.T) {
	bps := tempo.New()
	sp := New()
	sp.AddSpeedChange(beat.MustNew(4, 1), 3)
	sp.AddSpeedChange(beat.MustNew(8, 1), 0.1)

	prev := 0.0
	for i := 0; i <= 40; i++ {
		b := beat.MustNew(uint64(i), 4)
		time := bps.TimeAt(b)
		y := sp.YAt(time, bps)
		if y < prev {
			t.Fatalf("YAt not monotonic at beat %v: %v < %v", b, y, prev)
		}
		prev = y
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	sp := New()
	sp.AddSpeedChange(beat.MustNew(1, 1), 2)
	sp.AddSpeedChange(beat.MustNew(2, 1), 0.5)

	w := beat.NewWriter(sp.EncodedLength())
	sp.Encode(w)

	got, err := Decode(beat.NewReader(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if got.InitialSpeed != sp.InitialSpeed || len(got.Changes) != len(sp.Changes) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, sp)
	}
}
