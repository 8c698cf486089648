// Package cbt converts between a Chart and the legacy CBT tuple-array
// interchange format: a flat list of (measure, trackCount, subdivisionCount,
// trackIndex, subdivision, type, ...args) rows, the format older chart editors in this
// ecosystem still read and write.
package cbt

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/chart"
	"github.com/cartomix/cwp/internal/notes"
)

// DefaultBeatsPerMeasure is the subdivision denominator's base unit when a
// caller doesn't specify one.
const DefaultBeatsPerMeasure = 4

// Type identifies a tuple's row kind.
type Type int

const (
	TypeBgm            Type = 1  // args: [string dir]
	TypeBpmChange      Type = 2  // args: [number bpm]
	TypeSpeedChange    Type = 3  // args: [number speed]
	TypeTapNarrow      Type = 10 // args: []
	TypeHoldBegin      Type = 20 // args: [int group]
	TypeHoldEnd        Type = 21
	TypeHoldMiddle     Type = 22
	TypeDragBegin      Type = 30 // args: [int group]
	TypeDragMiddle     Type = 31
	TypeDragEnd        Type = 32
	TypeTapWide        Type = 40 // args: [number width]
	TypeHoldWideBegin  Type = 50 // args: [int group, number width]
	TypeHoldWideEnd    Type = 51
	TypeHoldWideMiddle Type = 52 // args: [int group, number width]
)

// Document is the root CBT object: chart-level Info plus the flat tuple
// list. This is the shape that travels over the wire (JSON) and is what a
// real CBT-speaking editor reads and writes.
type Document struct {
	Info  Info    `json:"info"`
	Notes []Tuple `json:"notes"`
}

// Info carries the CBT document's chart-level fields. Bpm and Delay double
// as the recovery inputs FromCbt needs to undo the startingMeasure shift
// ToCbt applies to every tuple's Measure (see ToCbt); Dir is carried
// through but has no Chart-level equivalent to populate it from, so ToCbt
// always emits the empty string.
type Info struct {
	Bpm   float64 `json:"bpm"`
	Dir   string  `json:"dir"`
	Delay float64 `json:"delay"`
}

// Tuple is one row of a CBT file: a flat positional record
// [measure, trackCount, subdivisionCount, trackIndex, subdivision, type, ...args],
// per the CBT object format. TrackCount/TrackIndex are zero for
// non-note rows (bgm, tempo, speed). Args holds the type-specific
// trailing values (see the Type constants); its element types are
// float64 for every numeric arg and string for type 1's dir arg.
type Tuple struct {
	Measure          int64
	TrackCount       uint16
	SubdivisionCount uint64
	TrackIndex       uint16
	Subdivision      uint64
	Type             Type
	Args             []any
}

// MarshalJSON writes t as the CBT positional array, not a JSON object.
func (t Tuple) MarshalJSON() ([]byte, error) {
	row := make([]any, 0, 6+len(t.Args))
	row = append(row, t.Measure, t.TrackCount, t.SubdivisionCount, t.TrackIndex, t.Subdivision, int(t.Type))
	row = append(row, t.Args...)
	return json.Marshal(row)
}

// UnmarshalJSON reads t back from the CBT positional array form.
func (t *Tuple) UnmarshalJSON(data []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("cbt: tuple: %w", err)
	}
	if len(row) < 6 {
		return fmt.Errorf("cbt: tuple has %d elements, want at least 6", len(row))
	}
	if err := json.Unmarshal(row[0], &t.Measure); err != nil {
		return fmt.Errorf("cbt: tuple measure: %w", err)
	}
	if err := json.Unmarshal(row[1], &t.TrackCount); err != nil {
		return fmt.Errorf("cbt: tuple trackCount: %w", err)
	}
	if err := json.Unmarshal(row[2], &t.SubdivisionCount); err != nil {
		return fmt.Errorf("cbt: tuple subdivisionCount: %w", err)
	}
	if err := json.Unmarshal(row[3], &t.TrackIndex); err != nil {
		return fmt.Errorf("cbt: tuple trackIndex: %w", err)
	}
	if err := json.Unmarshal(row[4], &t.Subdivision); err != nil {
		return fmt.Errorf("cbt: tuple subdivision: %w", err)
	}
	var typ int
	if err := json.Unmarshal(row[5], &typ); err != nil {
		return fmt.Errorf("cbt: tuple type: %w", err)
	}
	t.Type = Type(typ)

	t.Args = make([]any, 0, len(row)-6)
	for _, raw := range row[6:] {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("cbt: tuple arg: %w", err)
		}
		t.Args = append(t.Args, v)
	}
	return nil
}

func argFloat(args []any, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("cbt: missing arg %d", i)
	}
	switch v := args[i].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("cbt: arg %d is %T, want a number", i, args[i])
	}
}

func argString(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("cbt: missing arg %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("cbt: arg %d is %T, want a string", i, args[i])
	}
	return s, nil
}

// beatToMeasureSubdivision maps a (possibly negative) rational beat
// position to (measure, subdivision, subdivisionCount) under
// beatsPerMeasure. measure is the true, unshifted rational floor; ToCbt
// and FromCbt are responsible for applying and undoing the
// startingMeasure offset around calls to this function.
func beatToMeasureSubdivision(b *big.Rat, beatsPerMeasure int) (measure int64, n, d uint64) {
	bpm := big.NewRat(int64(beatsPerMeasure), 1)
	quotient := new(big.Rat).Quo(b, bpm)
	measure = ratFloor(quotient)

	measureStart := new(big.Rat).Mul(big.NewRat(measure, 1), bpm)
	fraction := new(big.Rat).Sub(b, measureStart)
	fraction.Quo(fraction, bpm)

	return measure, fraction.Num().Uint64(), fraction.Denom().Uint64()
}

// measureSubdivisionToBeatRat inverts beatToMeasureSubdivision.
func measureSubdivisionToBeatRat(measure int64, n, d uint64, beatsPerMeasure int) *big.Rat {
	bpm := big.NewRat(int64(beatsPerMeasure), 1)
	measureStart := new(big.Rat).Mul(big.NewRat(measure, 1), bpm)
	fraction := new(big.Rat).SetFrac(new(big.Int).SetUint64(n), new(big.Int).SetUint64(d))
	fraction.Mul(fraction, bpm)
	return fraction.Add(fraction, measureStart)
}

// ratFloor returns the rational floor (round toward negative infinity).
func ratFloor(r *big.Rat) int64 {
	q := new(big.Int).Quo(r.Num(), r.Denom())
	if r.Sign() < 0 && new(big.Int).Mul(q, r.Denom()).Cmp(r.Num()) != 0 {
		q.Sub(q, big.NewInt(1))
	}
	return q.Int64()
}

// beatRatToBeat converts a non-negative big.Rat into a beat.Beat.
func beatRatToBeat(r *big.Rat) (beat.Beat, error) {
	if r.Sign() < 0 {
		return beat.Beat{}, fmt.Errorf("cbt: beat position %s is negative", r.String())
	}
	return beat.New(r.Num().Uint64(), r.Denom().Uint64())
}

// startingMeasureOf returns min(floor(offsetBeat/beatsPerMeasure), 0), the
// pickup-measure shift toCbt subtracts from every row's stored measure.
func startingMeasureOf(offsetBeat *big.Rat, beatsPerMeasure int) int64 {
	bpm := big.NewRat(int64(beatsPerMeasure), 1)
	q := new(big.Rat).Quo(offsetBeat, bpm)
	return minInt64(ratFloor(q), 0)
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// ToCbt converts c into a CBT Document under beatsPerMeasure.
//
// Per the measure formula, every row's stored Measure is the row's true
// rational-floor measure minus startingMeasure = min(⌊offsetBeat /
// beatsPerMeasure⌋, 0): a chart with a pickup before measure 0 stores
// measure 0 for its earliest row rather than a negative number. That
// shift is lossy by construction — the stored tuples alone can't
// distinguish "no pickup" from "some pickup" once the shifted measure
// lands on 0 — so Info.Bpm and Info.Delay carry the unshifted offset and
// initial tempo FromCbt needs to recompute startingMeasure exactly and
// undo the shift on every row, rather than trying to re-derive it from
// the (possibly ambiguous) bgm tuple alone.
func ToCbt(c *chart.Chart, beatsPerMeasure int) (*Document, error) {
	if beatsPerMeasure <= 0 {
		beatsPerMeasure = DefaultBeatsPerMeasure
	}
	bpmScale := float64(beatsPerMeasure) / 4

	offsetBeat := new(big.Rat).Mul(big.NewRat(-1, 1), new(big.Rat).SetFloat64(c.Offset*c.Bps.InitialBps))
	startingMeasure := startingMeasureOf(offsetBeat, beatsPerMeasure)

	row := func(b *big.Rat) int64 {
		m, _, _ := beatToMeasureSubdivision(b, beatsPerMeasure)
		return m - startingMeasure
	}
	sub := func(b *big.Rat) (n, d uint64) {
		_, n, d = beatToMeasureSubdivision(b, beatsPerMeasure)
		return n, d
	}

	doc := &Document{
		Info: Info{
			Bpm:   c.Bps.InitialBps * 60,
			Dir:   "",
			Delay: c.Offset,
		},
	}

	bgmN, bgmD := sub(offsetBeat)
	doc.Notes = append(doc.Notes, Tuple{
		Type: TypeBgm, Measure: row(offsetBeat),
		Subdivision: bgmN, SubdivisionCount: bgmD,
		Args: []any{""},
	})

	for _, ch := range c.Bps.Changes {
		n, d := sub(ch.Beat.Rat())
		doc.Notes = append(doc.Notes, Tuple{
			Type: TypeBpmChange, Measure: row(ch.Beat.Rat()),
			Subdivision: n, SubdivisionCount: d,
			Args: []any{ch.Bps * 60 * bpmScale},
		})
	}

	if c.Speed.InitialSpeed != 1 {
		n, d := sub(beat.Zero.Rat())
		doc.Notes = append(doc.Notes, Tuple{
			Type: TypeSpeedChange, Measure: row(beat.Zero.Rat()),
			Subdivision: n, SubdivisionCount: d,
			Args: []any{c.Speed.InitialSpeed},
		})
	}
	for _, ch := range c.Speed.Changes {
		n, d := sub(ch.Beat.Rat())
		doc.Notes = append(doc.Notes, Tuple{
			Type: TypeSpeedChange, Measure: row(ch.Beat.Rat()),
			Subdivision: n, SubdivisionCount: d,
			Args: []any{ch.Speed},
		})
	}

	groupIDs := make(map[*notes.PeerList]int)
	nextGroupID := 0
	groupIDFor := func(p *notes.PeerList) int {
		if id, ok := groupIDs[p]; ok {
			return id
		}
		id := nextGroupID
		groupIDs[p] = id
		nextGroupID++
		return id
	}

	for _, note := range c.Notes.Notes {
		n, d := sub(note.Beat.Rat())
		m := row(note.Beat.Rat())
		switch note.Variant {
		case notes.Tap:
			if note.Width > 0 {
				doc.Notes = append(doc.Notes, Tuple{
					Type: TypeTapWide, Measure: m, TrackCount: note.TrackCount, TrackIndex: note.TrackIndex,
					Subdivision: n, SubdivisionCount: d,
					Args: []any{note.Width},
				})
			} else {
				doc.Notes = append(doc.Notes, Tuple{
					Type: TypeTapNarrow, Measure: m, TrackCount: note.TrackCount, TrackIndex: note.TrackIndex,
					Subdivision: n, SubdivisionCount: d,
				})
			}
		case notes.Hold:
			groupID := groupIDFor(note.Peers)
			if note.Width > 0 {
				doc.Notes = append(doc.Notes, Tuple{
					Type: holdType(note, true), Measure: m, TrackCount: note.TrackCount, TrackIndex: note.TrackIndex,
					Subdivision: n, SubdivisionCount: d,
					Args: []any{groupID, note.Width},
				})
			} else {
				doc.Notes = append(doc.Notes, Tuple{
					Type: holdType(note, false), Measure: m, TrackCount: note.TrackCount, TrackIndex: note.TrackIndex,
					Subdivision: n, SubdivisionCount: d,
					Args: []any{groupID},
				})
			}
		case notes.Drag:
			groupID := groupIDFor(note.Peers)
			doc.Notes = append(doc.Notes, Tuple{
				Type: dragType(note), Measure: m, TrackCount: note.TrackCount, TrackIndex: note.TrackIndex,
				Subdivision: n, SubdivisionCount: d,
				Args: []any{groupID},
			})
		}
	}

	return doc, nil
}

func holdType(n *notes.Note, wide bool) Type {
	switch {
	case n.IsBegin():
		if wide {
			return TypeHoldWideBegin
		}
		return TypeHoldBegin
	case n.IsEnd():
		if wide {
			return TypeHoldWideEnd
		}
		return TypeHoldEnd
	default:
		if wide {
			return TypeHoldWideMiddle
		}
		return TypeHoldMiddle
	}
}

func dragType(n *notes.Note) Type {
	switch {
	case n.IsBegin():
		return TypeDragBegin
	case n.IsEnd():
		return TypeDragEnd
	default:
		return TypeDragMiddle
	}
}

// FromCbt reconstructs a Chart from a CBT Document under beatsPerMeasure.
// Rows are processed in the order given; within each group (shared group
// id), Hold/Drag notes are linked via notes.MergeWith.
//
// doc.Info.Bpm and doc.Info.Delay are used to recompute the same
// startingMeasure ToCbt subtracted from every row's Measure (see ToCbt),
// so that shift can be added back before any row is inverted to a beat
// position. A Document assembled by hand rather than by ToCbt, with
// Info.Bpm left at its zero value, decodes every measure unshifted
// (startingMeasure forced to 0) rather than dividing by zero.
func FromCbt(doc *Document, beatsPerMeasure int) (*chart.Chart, error) {
	if beatsPerMeasure <= 0 {
		beatsPerMeasure = DefaultBeatsPerMeasure
	}
	bpmScale := 4.0 / float64(beatsPerMeasure)

	c := chart.New()
	var startingMeasure int64
	if doc.Info.Bpm > 0 {
		initialBps := doc.Info.Bpm / 60
		c.Bps.InitialBps = initialBps
		offsetBeat := new(big.Rat).Mul(big.NewRat(-1, 1), new(big.Rat).SetFloat64(doc.Info.Delay*initialBps))
		startingMeasure = startingMeasureOf(offsetBeat, beatsPerMeasure)
	}

	var offsetBeat *big.Rat
	groups := make(map[int][]*notes.Note)
	var groupOrder []int

	for _, t := range doc.Notes {
		beatRat := measureSubdivisionToBeatRat(t.Measure+startingMeasure, t.Subdivision, t.SubdivisionCount, beatsPerMeasure)

		switch t.Type {
		case TypeBgm:
			offsetBeat = beatRat
		case TypeBpmChange:
			b, err := beatRatToBeat(beatRat)
			if err != nil {
				return nil, fmt.Errorf("cbt: bpm change: %w", err)
			}
			bpm, err := argFloat(t.Args, 0)
			if err != nil {
				return nil, fmt.Errorf("cbt: bpm change: %w", err)
			}
			c.Bps.AddBpsChange(b, bpm/60*bpmScale)
		case TypeSpeedChange:
			b, err := beatRatToBeat(beatRat)
			if err != nil {
				return nil, fmt.Errorf("cbt: speed change: %w", err)
			}
			speed, err := argFloat(t.Args, 0)
			if err != nil {
				return nil, fmt.Errorf("cbt: speed change: %w", err)
			}
			if beat.Equal(b, beat.Zero) {
				c.Speed.InitialSpeed = speed
			} else {
				c.Speed.AddSpeedChange(b, speed)
			}
		case TypeTapNarrow, TypeTapWide:
			b, err := beatRatToBeat(beatRat)
			if err != nil {
				return nil, fmt.Errorf("cbt: tap: %w", err)
			}
			n := &notes.Note{
				Beat:       b,
				TrackIndex: t.TrackIndex,
				TrackCount: t.TrackCount,
				Variant:    notes.Tap,
			}
			if t.Type == TypeTapWide {
				width, err := argFloat(t.Args, 0)
				if err != nil {
					return nil, fmt.Errorf("cbt: wide tap: %w", err)
				}
				n.Width = width
			}
			c.Notes.AddNote(n)
		case TypeHoldBegin, TypeHoldMiddle, TypeHoldEnd, TypeHoldWideBegin, TypeHoldWideMiddle, TypeHoldWideEnd:
			b, err := beatRatToBeat(beatRat)
			if err != nil {
				return nil, fmt.Errorf("cbt: hold: %w", err)
			}
			n := &notes.Note{
				Beat:       b,
				TrackIndex: t.TrackIndex,
				TrackCount: t.TrackCount,
				Variant:    notes.Hold,
			}
			groupF, err := argFloat(t.Args, 0)
			if err != nil {
				return nil, fmt.Errorf("cbt: hold: %w", err)
			}
			groupID := int(groupF)
			if t.Type == TypeHoldWideBegin || t.Type == TypeHoldWideMiddle || t.Type == TypeHoldWideEnd {
				width, err := argFloat(t.Args, 1)
				if err != nil {
					return nil, fmt.Errorf("cbt: wide hold: %w", err)
				}
				n.Width = width
			}
			if _, seen := groups[groupID]; !seen {
				groupOrder = append(groupOrder, groupID)
			}
			groups[groupID] = append(groups[groupID], n)
			c.Notes.AddNote(n)
		case TypeDragBegin, TypeDragMiddle, TypeDragEnd:
			b, err := beatRatToBeat(beatRat)
			if err != nil {
				return nil, fmt.Errorf("cbt: drag: %w", err)
			}
			n := &notes.Note{
				Beat:       b,
				TrackIndex: t.TrackIndex,
				TrackCount: t.TrackCount,
				Variant:    notes.Drag,
			}
			groupF, err := argFloat(t.Args, 0)
			if err != nil {
				return nil, fmt.Errorf("cbt: drag: %w", err)
			}
			groupID := int(groupF)
			if _, seen := groups[groupID]; !seen {
				groupOrder = append(groupOrder, groupID)
			}
			groups[groupID] = append(groups[groupID], n)
			c.Notes.AddNote(n)
		default:
			return nil, fmt.Errorf("cbt: unknown tuple type %d", t.Type)
		}
	}

	for _, id := range groupOrder {
		members := groups[id]
		if len(members) > 1 {
			notes.MergeWith(members...)
		}
	}

	if offsetBeat != nil {
		if offsetBeat.Sign() < 0 {
			b, err := beatRatToBeat(new(big.Rat).Neg(offsetBeat))
			if err != nil {
				return nil, fmt.Errorf("cbt: bgm offset: %w", err)
			}
			c.Offset = c.Bps.TimeAt(b)
		} else {
			b, err := beatRatToBeat(offsetBeat)
			if err != nil {
				return nil, fmt.Errorf("cbt: bgm offset: %w", err)
			}
			c.Offset = -c.Bps.TimeAt(b)
		}
	}

	return c, nil
}
