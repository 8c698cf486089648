package musicfile

import (
	"fmt"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/cwperrors"
	"github.com/cartomix/cwp/internal/provider"
)

// Magic is the four-byte little-endian "CWPM" constant every encoded
// Music file begins with.
const Magic uint32 = 0x4d505743

// Version is the only music-file format version this codec understands.
const Version uint8 = 1

// Music is one song: its metadata, its audio/preview/cover providers, and
// every chart built against it.
type Music struct {
	Name       string
	Artist     string
	Categories uint8

	MusicProvider   *provider.MusicProvider
	PreviewProvider provider.PreviewProvider
	CoverProvider   provider.CoverProvider

	Keywords []string

	Charts *ChartList
}

// New returns an empty Music with a CoverEmptyProvider and no charts.
func New() *Music {
	return &Music{
		CoverProvider: provider.CoverEmpty{},
		Charts:        NewChartList(),
	}
}

// TotalEncodedLength is the full file size, header plus every embedded
// blob, preparing any not-yet-serialized chart bytes along the way.
func (m *Music) TotalEncodedLength() (int, error) {
	return m.totalLength()
}

// Encode serializes m in full: header fields, a first pass over every
// provider writing placeholder headers, then the back-patch pass that
// stamps real offsets/lengths and appends blob bytes in collection order.
func (m *Music) Encode() ([]byte, error) {
	total, err := m.totalLength()
	if err != nil {
		return nil, err
	}

	w := beat.NewWriter(total)
	w.WriteUint32(Magic)
	w.WriteUint8(Version)
	if err := w.WriteString(m.Name); err != nil {
		return nil, fmt.Errorf("musicfile: name: %w", err)
	}
	if err := w.WriteString(m.Artist); err != nil {
		return nil, fmt.Errorf("musicfile: artist: %w", err)
	}
	w.WriteUint8(m.Categories)

	var reqs []provider.EmbedRequest

	musicReqs, err := m.MusicProvider.Encode(w)
	if err != nil {
		return nil, fmt.Errorf("musicfile: music provider: %w", err)
	}
	reqs = append(reqs, musicReqs...)

	previewReqs, err := m.PreviewProvider.Encode(w)
	if err != nil {
		return nil, fmt.Errorf("musicfile: preview provider: %w", err)
	}
	reqs = append(reqs, previewReqs...)

	coverReqs, err := m.CoverProvider.Encode(w)
	if err != nil {
		return nil, fmt.Errorf("musicfile: cover provider: %w", err)
	}
	reqs = append(reqs, coverReqs...)

	if len(m.Keywords) > 255 {
		return nil, fmt.Errorf("musicfile: %d keywords exceeds uint8 count", len(m.Keywords))
	}
	w.WriteUint8(uint8(len(m.Keywords)))
	for _, k := range m.Keywords {
		if err := w.WriteString(k); err != nil {
			return nil, fmt.Errorf("musicfile: keyword %q: %w", k, err)
		}
	}

	chartReqs, err := m.Charts.Encode(w)
	if err != nil {
		return nil, fmt.Errorf("musicfile: charts: %w", err)
	}
	reqs = append(reqs, chartReqs...)

	out := make([]byte, total)
	copy(out, w.Bytes())
	cursor := w.Len()
	for _, req := range reqs {
		cursor = req.Write(out, cursor)
	}
	if cursor != total {
		return nil, fmt.Errorf("musicfile: encoded %d bytes, expected %d", cursor, total)
	}
	return out, nil
}

// totalLength computes the final buffer size, preparing lazily-built
// chart providers first so their blob sizes are known.
func (m *Music) totalLength() (int, error) {
	chartsTotal, err := m.Charts.TotalEncodedLength()
	if err != nil {
		return 0, err
	}
	return 4 + 1 +
		beat.EncodedStringLength(m.Name) +
		beat.EncodedStringLength(m.Artist) +
		1 +
		m.MusicProvider.TotalEncodedLength() +
		m.PreviewProvider.TotalEncodedLength() +
		m.CoverProvider.TotalEncodedLength() +
		1 + keywordsLength(m.Keywords) +
		chartsTotal, nil
}

func keywordsLength(keywords []string) int {
	n := 0
	for _, k := range keywords {
		n += beat.EncodedStringLength(k)
	}
	return n
}

// Decode reads a complete Music file from buf.
func Decode(buf []byte) (*Music, error) {
	r := beat.NewReader(buf)

	magic, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("musicfile: %w: got %#x, want %#x", cwperrors.ErrBadMagic, magic, Magic)
	}
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("musicfile: %w: got %d, want %d", cwperrors.ErrUnsupportedVersion, version, Version)
	}

	name, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("musicfile: name: %w", err)
	}
	artist, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("musicfile: artist: %w", err)
	}
	categories, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("musicfile: categories: %w", err)
	}

	musicProvider, err := provider.DecodeMusicProvider(r)
	if err != nil {
		return nil, err
	}
	previewProvider, err := provider.DecodePreviewProvider(r)
	if err != nil {
		return nil, err
	}
	coverProvider, err := provider.DecodeCoverProvider(r)
	if err != nil {
		return nil, err
	}

	keywordCount, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("musicfile: keyword count: %w", err)
	}
	keywords := make([]string, keywordCount)
	for i := range keywords {
		keywords[i], err = r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("musicfile: keyword %d: %w", i, err)
		}
	}

	charts, err := DecodeChartList(r)
	if err != nil {
		return nil, err
	}

	return &Music{
		Name:            name,
		Artist:          artist,
		Categories:      categories,
		MusicProvider:   musicProvider,
		PreviewProvider: previewProvider,
		CoverProvider:   coverProvider,
		Keywords:        keywords,
		Charts:          charts,
	}, nil
}
