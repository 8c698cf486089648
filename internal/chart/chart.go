// Package chart implements the Chart aggregate: tempo, scroll, and notes
// bound to one piece of music, plus its binary codec.
package chart

import (
	"fmt"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/cwperrors"
	"github.com/cartomix/cwp/internal/notes"
	"github.com/cartomix/cwp/internal/scroll"
	"github.com/cartomix/cwp/internal/tempo"
)

// Magic is the four-byte little-endian "CWPC" constant every encoded
// Chart begins with.
const Magic uint32 = 0x43505743

// Version is the only chart format version this codec understands.
const Version uint8 = 1

// Chart binds timing, scroll, and notes to one piece of music.
type Chart struct {
	Charter  string
	Comments string
	Offset   float64 // audio time, in seconds, of beat 0
	Bps      *tempo.List
	Speed    *scroll.List
	Notes    *notes.List
}

// New returns an empty Chart with default tempo/speed.
func New() *Chart {
	return &Chart{
		Bps:   tempo.New(),
		Speed: scroll.New(),
		Notes: &notes.List{},
	}
}

// YAtBeat returns the scroll position at beat b.
func (c *Chart) YAtBeat(b beat.Beat) float64 {
	return c.Speed.YAt(c.Bps.TimeAt(b), c.Bps)
}

// EncodedLength returns the exact byte length Encode will produce.
func (c *Chart) EncodedLength() int {
	return 4 + 1 +
		beat.EncodedStringLength(c.Charter) +
		beat.EncodedStringLength(c.Comments) +
		8 +
		c.Bps.EncodedLength() +
		c.Speed.EncodedLength() +
		c.Notes.EncodedLength()
}

// Encode appends the wire encoding of c to w.
func (c *Chart) Encode(w *beat.Writer) error {
	w.WriteUint32(Magic)
	w.WriteUint8(Version)
	if err := w.WriteString(c.Charter); err != nil {
		return fmt.Errorf("chart: charter: %w", err)
	}
	if err := w.WriteString(c.Comments); err != nil {
		return fmt.Errorf("chart: comments: %w", err)
	}
	w.WriteFloat64(c.Offset)
	c.Bps.Encode(w)
	c.Speed.Encode(w)
	c.Notes.Encode(w)
	return nil
}

// Decode reads a Chart from r.
func Decode(r *beat.Reader) (*Chart, error) {
	magic, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("chart: %w: got %#x, want %#x", cwperrors.ErrBadMagic, magic, Magic)
	}

	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("chart: %w: got %d, want %d", cwperrors.ErrUnsupportedVersion, version, Version)
	}

	charter, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("chart: charter: %w", err)
	}
	comments, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("chart: comments: %w", err)
	}
	offset, err := r.ReadFloat64()
	if err != nil {
		return nil, err
	}
	bps, err := tempo.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("chart: bps list: %w", err)
	}
	speed, err := scroll.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("chart: speed list: %w", err)
	}
	noteList, err := notes.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("chart: notes: %w", err)
	}

	return &Chart{
		Charter:  charter,
		Comments: comments,
		Offset:   offset,
		Bps:      bps,
		Speed:    speed,
		Notes:    noteList,
	}, nil
}
