// Package notes implements the Note model (Tap/Hold/Drag), hold/drag peer
// grouping, and the NoteList codec.
package notes

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cartomix/cwp/internal/beat"
)

// Variant discriminates the three note kinds.
type Variant uint8

const (
	Tap Variant = iota
	Hold
	Drag
)

func (v Variant) String() string {
	switch v {
	case Tap:
		return "tap"
	case Hold:
		return "hold"
	case Drag:
		return "drag"
	default:
		return "unknown"
	}
}

// PeerList is the shared, ordered set of peers in one hold/drag group.
// Every member note's Peers field points at the same PeerList value; a
// singleton group is a PeerList of length 1 containing only that note.
type PeerList struct {
	Variant Variant
	Notes   []*Note
}

// Note is one chart note.
type Note struct {
	Beat       beat.Beat
	TrackCount uint16
	TrackIndex uint16
	Width      float64 // 0 if not wide
	Variant    Variant
	Peers      *PeerList // nil for Tap and for a Hold/Drag not yet in a group
}

// X returns the note's horizontal position in [0,1): (trackIndex+0.5)/trackCount.
func (n *Note) X() float64 {
	return (float64(n.TrackIndex) + 0.5) / float64(n.TrackCount)
}

// IsWide reports whether the note has a non-zero width.
func (n *Note) IsWide() bool {
	return n.Width != 0
}

// IsIsolated reports whether this note is a singleton group (or a Tap,
// which is never grouped).
func (n *Note) IsIsolated() bool {
	return n.Peers == nil || len(n.Peers.Notes) == 1
}

// IsBegin reports whether this note is the first member of a multi-note group.
func (n *Note) IsBegin() bool {
	return n.Peers != nil && len(n.Peers.Notes) > 1 && n.Peers.Notes[0] == n
}

// IsEnd reports whether this note is the last member of a multi-note group.
func (n *Note) IsEnd() bool {
	peers := n.Peers
	return peers != nil && len(peers.Notes) > 1 && peers.Notes[len(peers.Notes)-1] == n
}

// IsMiddle reports whether this note is neither the first nor last member
// of a group of three or more.
func (n *Note) IsMiddle() bool {
	return n.Peers != nil && len(n.Peers.Notes) > 2 && !n.IsBegin() && !n.IsEnd()
}

// MergeWith unions the peer lists of the given notes (which must all share
// the same Variant) into a single group, deduplicating by peer-list
// identity, re-binding every member's Peers reference, and sorting the
// result by beat. Each note that doesn't yet belong to a group is first
// wrapped in a singleton PeerList of its own variant.
func MergeWith(notes ...*Note) *PeerList {
	if len(notes) == 0 {
		return nil
	}

	variant := notes[0].Variant
	seen := mapset.NewThreadUnsafeSet[*PeerList]()
	var merged []*Note

	for _, n := range notes {
		if n.Peers == nil {
			n.Peers = &PeerList{Variant: n.Variant, Notes: []*Note{n}}
		}
		if seen.Contains(n.Peers) {
			continue
		}
		seen.Add(n.Peers)
		merged = append(merged, n.Peers.Notes...)
	}

	sort.Slice(merged, func(i, j int) bool {
		return beat.Less(merged[i].Beat, merged[j].Beat)
	})

	result := &PeerList{Variant: variant, Notes: merged}
	for _, n := range merged {
		n.Peers = result
	}
	return result
}

// List is a sequence of notes, kept sorted by beat.
type List struct {
	Notes []*Note
}

// AddNote inserts n, keeping Notes sorted by beat.
func (l *List) AddNote(n *Note) {
	i := sort.Search(len(l.Notes), func(i int) bool {
		return !beat.Less(l.Notes[i].Beat, n.Beat)
	})
	l.Notes = append(l.Notes, nil)
	copy(l.Notes[i+1:], l.Notes[i:])
	l.Notes[i] = n
}

// EncodedLength returns the exact byte length Encode will produce.
func (l *List) EncodedLength() int {
	return 4 + 18*len(l.Notes)
}

// Encode appends the wire encoding of l to w.
func (l *List) Encode(w *beat.Writer) {
	w.WriteUint32(uint32(len(l.Notes)))

	indexOf := make(map[*Note]int, len(l.Notes))
	for i, n := range l.Notes {
		indexOf[n] = i
	}

	// For each distinct peer group, precompute the "next peer" pointer so
	// the per-note pass below is a single map lookup.
	nextPeer := make(map[*Note]*Note, len(l.Notes))
	seenGroups := mapset.NewThreadUnsafeSet[*PeerList]()
	for _, n := range l.Notes {
		if n.Peers == nil || seenGroups.Contains(n.Peers) {
			continue
		}
		seenGroups.Add(n.Peers)
		peers := n.Peers.Notes
		for i := 0; i+1 < len(peers); i++ {
			nextPeer[peers[i]] = peers[i+1]
		}
	}

	prev := beat.Zero
	for _, n := range l.Notes {
		delta := beat.Sub(n.Beat, prev)
		w.WriteBeatDelta(uint32(delta.N), uint32(delta.D))
		w.WriteUint16(n.TrackCount)
		w.WriteUint16(n.TrackIndex)

		var next uint32
		if peer, ok := nextPeer[n]; ok {
			next = uint32(indexOf[peer] - indexOf[n])
		}
		w.WriteUint32(next)

		width := beat.ToFloat16(n.Width)
		if n.Variant == Drag {
			width = width.Negate()
		}
		w.WriteFloat16(width)

		prev = n.Beat
	}
}

// Decode reads a List from r.
func Decode(r *beat.Reader) (*List, error) {
	count, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	l := &List{Notes: make([]*Note, 0, count)}
	predecessors := make(map[int]*Note)
	prev := beat.Zero

	for i := 0; i < int(count); i++ {
		dn, dd, err := r.ReadBeatDelta()
		if err != nil {
			return nil, err
		}
		trackCount, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		trackIndex, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		next, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		width, err := r.ReadFloat16()
		if err != nil {
			return nil, err
		}

		delta, err := beat.New(uint64(dn), uint64(dd))
		if err != nil {
			return nil, err
		}
		cur := beat.Add(prev, delta)

		predNote, hasPred := predecessors[i]

		var variant Variant
		var widthValue float64
		if width.Negative() {
			variant = Drag
			widthValue = width.Abs().Float64()
		} else if hasPred || next != 0 {
			variant = Hold
			widthValue = width.Float64()
		} else {
			variant = Tap
			widthValue = width.Float64()
		}

		note := &Note{
			Beat:       cur,
			TrackCount: trackCount,
			TrackIndex: trackIndex,
			Width:      widthValue,
			Variant:    variant,
		}

		if hasPred {
			group := predNote.Peers
			group.Notes = append(group.Notes, note)
			note.Peers = group
			delete(predecessors, i)
		}

		if next != 0 {
			if note.Peers == nil {
				note.Peers = &PeerList{Variant: variant, Notes: []*Note{note}}
			}
			predecessors[i+int(next)] = note
		}

		l.Notes = append(l.Notes, note)
		prev = cur
	}

	return l, nil
}
