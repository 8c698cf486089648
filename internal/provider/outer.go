package provider

import (
	"fmt"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/cwperrors"
)

// MusicProvider locates the audio bytes for a chart's backing track. It is
// a thin, undiscriminated wrapper: the wire format never needs to tell a
// MusicProvider apart from anything else at this position, so it carries
// no tag of its own beyond the FileProvider it wraps.
type MusicProvider struct {
	File FileProvider
}

func (m *MusicProvider) EncodedLength() int      { return m.File.EncodedLength() }
func (m *MusicProvider) TotalEncodedLength() int { return m.File.TotalEncodedLength() }

func (m *MusicProvider) Encode(w *beat.Writer) ([]EmbedRequest, error) {
	return m.File.Encode(w)
}

// DecodeMusicProvider reads a MusicProvider.
func DecodeMusicProvider(r *beat.Reader) (*MusicProvider, error) {
	f, err := DecodeFileProvider(r)
	if err != nil {
		return nil, fmt.Errorf("provider: music: %w", err)
	}
	return &MusicProvider{File: f}, nil
}

// PreviewProvider locates the short clip played while browsing a song
// list. It is either its own FileProvider, or a window (with fade
// envelopes) carved out of the chart's MusicProvider.
type PreviewProvider interface {
	EncodedLength() int
	TotalEncodedLength() int
	Encode(w *beat.Writer) ([]EmbedRequest, error)
}

// PreviewFromFile wraps an independent FileProvider for the preview clip.
type PreviewFromFile struct {
	File FileProvider
}

func (p *PreviewFromFile) EncodedLength() int      { return p.File.EncodedLength() }
func (p *PreviewFromFile) TotalEncodedLength() int { return p.File.TotalEncodedLength() }

func (p *PreviewFromFile) Encode(w *beat.Writer) ([]EmbedRequest, error) {
	return p.File.Encode(w)
}

// PreviewFromMusic derives the preview clip from a window of the chart's
// own music, with linear fade envelopes at each end. This type only
// carries the window/fade parameters through the wire codec; actually
// slicing and fading PCM samples (factor = min((j+1)/fadeIn,
// (length-j)/fadeOut, 1) applied per-frame) is a decode-side audio
// operation for a player/editor to perform against the resolved
// MusicProvider bytes and OggDecoder output, not something this package
// does on its own.
type PreviewFromMusic struct {
	OffsetSeconds  float64
	LengthSeconds  float64
	FadeInFrames   uint32
	FadeOutFrames  uint32
}

// EncodedLength is fixed: 1 tag byte + 8 offset + 8 length + 4 fadeIn + 4
// fadeOut.
func (p *PreviewFromMusic) EncodedLength() int      { return 25 }
func (p *PreviewFromMusic) TotalEncodedLength() int { return 25 }

func (p *PreviewFromMusic) Encode(w *beat.Writer) ([]EmbedRequest, error) {
	w.WriteInt8(0)
	w.WriteFloat64(p.OffsetSeconds)
	w.WriteFloat64(p.LengthSeconds)
	w.WriteUint32(p.FadeInFrames)
	w.WriteUint32(p.FadeOutFrames)
	return nil, nil
}

// DecodePreviewProvider peeks the discriminant byte: 0 selects
// PreviewFromMusic, any other tag selects a FileProvider decode.
func DecodePreviewProvider(r *beat.Reader) (PreviewProvider, error) {
	peek, err := r.Peek()
	if err != nil {
		return nil, fmt.Errorf("provider: preview: %w", err)
	}
	if peek == 0 {
		r.Skip(1)
		offset, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		length, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		fadeIn, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		fadeOut, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return &PreviewFromMusic{OffsetSeconds: offset, LengthSeconds: length, FadeInFrames: fadeIn, FadeOutFrames: fadeOut}, nil
	}
	f, err := DecodeFileProvider(r)
	if err != nil {
		return nil, fmt.Errorf("provider: preview: %w", err)
	}
	return &PreviewFromFile{File: f}, nil
}

// CoverProvider locates a song's cover art, or its absence.
type CoverProvider interface {
	EncodedLength() int
	TotalEncodedLength() int
	Encode(w *beat.Writer) ([]EmbedRequest, error)
}

// CoverEmpty marks that a chart has no cover art.
type CoverEmpty struct{}

func (CoverEmpty) EncodedLength() int      { return 1 }
func (CoverEmpty) TotalEncodedLength() int { return 1 }

func (CoverEmpty) Encode(w *beat.Writer) ([]EmbedRequest, error) {
	w.WriteInt8(0)
	return nil, nil
}

// CoverFromFile wraps a FileProvider for the cover image.
type CoverFromFile struct {
	File FileProvider
}

func (c *CoverFromFile) EncodedLength() int      { return c.File.EncodedLength() }
func (c *CoverFromFile) TotalEncodedLength() int { return c.File.TotalEncodedLength() }

func (c *CoverFromFile) Encode(w *beat.Writer) ([]EmbedRequest, error) {
	return c.File.Encode(w)
}

// DecodeCoverProvider peeks the discriminant byte: 0 selects CoverEmpty,
// any other tag selects a FileProvider decode.
func DecodeCoverProvider(r *beat.Reader) (CoverProvider, error) {
	peek, err := r.Peek()
	if err != nil {
		return nil, fmt.Errorf("provider: cover: %w", err)
	}
	if peek == 0 {
		r.Skip(1)
		return CoverEmpty{}, nil
	}
	f, err := DecodeFileProvider(r)
	if err != nil {
		return nil, fmt.Errorf("provider: cover: %w", err)
	}
	return &CoverFromFile{File: f}, nil
}

// ChartProvider locates one difficulty's serialized chart bytes. Every
// chart is embedded, never fetched remotely or read from a loose path, so
// this is always backed by an Embedded FileProvider.
type ChartProvider struct {
	File *Embedded
}

// EncodedLength is always 17, matching Embedded's fixed header.
func (c *ChartProvider) EncodedLength() int { return 17 }

func (c *ChartProvider) TotalEncodedLength() int { return c.File.TotalEncodedLength() }

func (c *ChartProvider) Encode(w *beat.Writer) ([]EmbedRequest, error) {
	return c.File.Encode(w)
}

// DecodeChartProvider reads a ChartProvider, requiring the embedded tag.
func DecodeChartProvider(r *beat.Reader) (*ChartProvider, error) {
	f, err := DecodeFileProvider(r)
	if err != nil {
		return nil, fmt.Errorf("provider: chart: %w", err)
	}
	embedded, ok := f.(*Embedded)
	if !ok {
		return nil, fmt.Errorf("provider: chart: %w: chart providers must be embedded", cwperrors.ErrInvalidTag)
	}
	return &ChartProvider{File: embedded}, nil
}
