// Package tempo implements BpsList, the chart's tempo map: a piecewise-
// constant beats-per-second function over exact beat positions.
package tempo

import (
	"sort"

	"github.com/cartomix/cwp/internal/beat"
)

// DefaultInitialBps is the tempo in force before any BpsChange.
const DefaultInitialBps = 2

// Change is one tempo change: from Beat onward, the tempo is Bps
// beats-per-second (bpm = 60*Bps).
type Change struct {
	Beat beat.Beat
	Bps  float64
}

// List is a tempo map: InitialBps until the first Change, then each
// Change's Bps from its Beat onward. Changes is kept sorted strictly by
// Beat.
type List struct {
	InitialBps float64
	Changes    []Change
}

// New returns a List with the default initial tempo and no changes.
func New() *List {
	return &List{InitialBps: DefaultInitialBps}
}

// AddBpsChange inserts a tempo change, keeping Changes sorted by beat. If a
// change already exists at the same beat, it is replaced.
func (l *List) AddBpsChange(b beat.Beat, bps float64) {
	i := sort.Search(len(l.Changes), func(i int) bool {
		return !beat.Less(l.Changes[i].Beat, b)
	})
	if i < len(l.Changes) && beat.Equal(l.Changes[i].Beat, b) {
		l.Changes[i].Bps = bps
		return
	}
	l.Changes = append(l.Changes, Change{})
	copy(l.Changes[i+1:], l.Changes[i:])
	l.Changes[i] = Change{Beat: b, Bps: bps}
}

// BpsAt returns the tempo in force at b: InitialBps if b precedes every
// change, else the Bps of the greatest change with Beat <= b.
func (l *List) BpsAt(b beat.Beat) float64 {
	i := sort.Search(len(l.Changes), func(i int) bool {
		return beat.Less(b, l.Changes[i].Beat)
	})
	if i == 0 {
		return l.InitialBps
	}
	return l.Changes[i-1].Bps
}

// TimeAt returns the elapsed time in seconds from beat 0 to b, integrating
// the piecewise-constant tempo. Changes exactly at b do not contribute:
// the final segment from the last change strictly before b up to b uses
// the tempo in force just before b.
func (l *List) TimeAt(b beat.Beat) float64 {
	cur := beat.Zero
	curBps := l.InitialBps
	t := 0.0

	for _, c := range l.Changes {
		if !beat.Less(c.Beat, b) {
			break
		}
		t += beat.Sub(c.Beat, cur).Float64() / curBps
		cur = c.Beat
		curBps = c.Bps
	}

	t += beat.Sub(b, cur).Float64() / curBps
	return t
}

// Deduplicate removes any change whose Bps equals the tempo already in
// force immediately before it (i.e. a no-op change). Idempotent.
func (l *List) Deduplicate() {
	out := l.Changes[:0]
	prevBps := l.InitialBps
	for _, c := range l.Changes {
		if c.Bps == prevBps {
			continue
		}
		out = append(out, c)
		prevBps = c.Bps
	}
	l.Changes = out
}

// EncodedLength returns the exact byte length Encode will produce.
func (l *List) EncodedLength() int {
	return 4 + 8 + 16*len(l.Changes)
}

// Encode appends the wire encoding of l to w.
func (l *List) Encode(w *beat.Writer) {
	w.WriteUint32(uint32(len(l.Changes)))
	w.WriteFloat64(l.InitialBps)

	prev := beat.Zero
	for _, c := range l.Changes {
		d := beat.Sub(c.Beat, prev)
		w.WriteBeatDelta(uint32(d.N), uint32(d.D))
		w.WriteFloat64(c.Bps)
		prev = c.Beat
	}
}

// Decode reads a List from r.
func Decode(r *beat.Reader) (*List, error) {
	count, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	initial, err := r.ReadFloat64()
	if err != nil {
		return nil, err
	}

	l := &List{InitialBps: initial, Changes: make([]Change, 0, count)}
	prev := beat.Zero
	for i := uint32(0); i < count; i++ {
		dn, dd, err := r.ReadBeatDelta()
		if err != nil {
			return nil, err
		}
		bps, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		delta, err := beat.New(uint64(dn), uint64(dd))
		if err != nil {
			return nil, err
		}
		cur := beat.Add(prev, delta)
		l.Changes = append(l.Changes, Change{Beat: cur, Bps: bps})
		prev = cur
	}
	return l, nil
}
