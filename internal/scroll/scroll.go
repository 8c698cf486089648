// Package scroll implements SpeedList, the chart's visual scroll-speed map:
// a piecewise-constant scroll speed evaluated over time (via a tempo.List).
package scroll

import (
	"sort"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/tempo"
)

// DefaultInitialSpeed is the scroll speed in force before any SpeedChange.
const DefaultInitialSpeed = 1

// Change is one scroll-speed change: from Beat onward, the scroll speed is
// Speed.
type Change struct {
	Beat  beat.Beat
	Speed float64
}

// List is a scroll-speed map, same shape as tempo.List.
type List struct {
	InitialSpeed float64
	Changes      []Change
}

// New returns a List with the default initial speed and no changes.
func New() *List {
	return &List{InitialSpeed: DefaultInitialSpeed}
}

// AddSpeedChange inserts a speed change, keeping Changes sorted by beat.
func (l *List) AddSpeedChange(b beat.Beat, speed float64) {
	i := sort.Search(len(l.Changes), func(i int) bool {
		return !beat.Less(l.Changes[i].Beat, b)
	})
	if i < len(l.Changes) && beat.Equal(l.Changes[i].Beat, b) {
		l.Changes[i].Speed = speed
		return
	}
	l.Changes = append(l.Changes, Change{})
	copy(l.Changes[i+1:], l.Changes[i:])
	l.Changes[i] = Change{Beat: b, Speed: speed}
}

// SpeedAt returns the scroll speed in force at b, analogous to
// tempo.List.BpsAt.
func (l *List) SpeedAt(b beat.Beat) float64 {
	i := sort.Search(len(l.Changes), func(i int) bool {
		return beat.Less(b, l.Changes[i].Beat)
	})
	if i == 0 {
		return l.InitialSpeed
	}
	return l.Changes[i-1].Speed
}

// YAt returns the integral of speed(t) dt from 0 to time, where speed is
// this List's piecewise-constant function expressed over beats and mapped
// into time via bps.TimeAt.
func (l *List) YAt(time float64, bps *tempo.List) float64 {
	cur := 0.0
	curSpeed := l.InitialSpeed
	result := 0.0

	for _, c := range l.Changes {
		newTime := bps.TimeAt(c.Beat)
		if newTime >= time {
			break
		}
		result += (newTime - cur) * curSpeed
		cur = newTime
		curSpeed = c.Speed
	}

	result += (time - cur) * curSpeed
	return result
}

// Deduplicate removes any change whose Speed equals the speed already in
// force immediately before it. Idempotent.
func (l *List) Deduplicate() {
	out := l.Changes[:0]
	prevSpeed := l.InitialSpeed
	for _, c := range l.Changes {
		if c.Speed == prevSpeed {
			continue
		}
		out = append(out, c)
		prevSpeed = c.Speed
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
	w.WriteFloat64(l.InitialSpeed)

	prev := beat.Zero
	for _, c := range l.Changes {
		d := beat.Sub(c.Beat, prev)
		w.WriteBeatDelta(uint32(d.N), uint32(d.D))
		w.WriteFloat64(c.Speed)
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

	l := &List{InitialSpeed: initial, Changes: make([]Change, 0, count)}
	prev := beat.Zero
	for i := uint32(0); i < count; i++ {
		dn, dd, err := r.ReadBeatDelta()
		if err != nil {
			return nil, err
		}
		speed, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		delta, err := beat.New(uint64(dn), uint64(dd))
		if err != nil {
			return nil, err
		}
		cur := beat.Add(prev, delta)
		l.Changes = append(l.Changes, Change{Beat: cur, Speed: speed})
		prev = cur
	}
	return l, nil
}
