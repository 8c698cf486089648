// Package musicfile implements the top-level .cwpm container: one song's
// metadata, its music/preview/cover providers, and its list of charts.
package musicfile

import (
	"fmt"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/chart"
	"github.com/cartomix/cwp/internal/provider"
)

// ChartInfo is one playable difficulty: its display metadata plus the
// embedded chart bytes.
type ChartInfo struct {
	DifficultyName string
	DifficultyText string
	RGB            [3]uint8
	Difficulty     uint32

	// Chart is the in-memory chart this ChartInfo wraps. Encode lazily
	// serializes it into Provider the first time it's needed.
	Chart *chart.Chart
	// Compressed controls whether a lazily-built Provider gzips the
	// serialized chart blob.
	Compressed bool

	// Provider holds the already-embedded chart bytes, set either by
	// Decode or by a prior Encode.
	Provider *provider.ChartProvider
}

// EncodedLength is the header size: two strings, 3 RGB bytes, 4 difficulty
// bytes, plus the chart provider's fixed 17-byte header.
func (ci *ChartInfo) EncodedLength() int {
	return beat.EncodedStringLength(ci.DifficultyName) +
		beat.EncodedStringLength(ci.DifficultyText) +
		3 + 4 + 17
}

// prepare ensures Provider is set, serializing Chart into a fresh
// Embedded FileProvider if one hasn't been built yet.
func (ci *ChartInfo) prepare() error {
	if ci.Provider != nil {
		return nil
	}
	if ci.Chart == nil {
		return fmt.Errorf("musicfile: chart info %q has neither Chart nor Provider set", ci.DifficultyName)
	}
	w := beat.NewWriter(ci.Chart.EncodedLength())
	if err := ci.Chart.Encode(w); err != nil {
		return fmt.Errorf("musicfile: serialize chart %q: %w", ci.DifficultyName, err)
	}
	embedded, err := provider.NewEmbedded(w.Bytes(), ci.Compressed)
	if err != nil {
		return fmt.Errorf("musicfile: embed chart %q: %w", ci.DifficultyName, err)
	}
	ci.Provider = &provider.ChartProvider{File: embedded}
	return nil
}

// TotalEncodedLength is the header plus the serialized chart blob,
// preparing the provider first if necessary.
func (ci *ChartInfo) TotalEncodedLength() (int, error) {
	if err := ci.prepare(); err != nil {
		return 0, err
	}
	return ci.EncodedLength() - 17 + ci.Provider.TotalEncodedLength(), nil
}

// Encode writes the ChartInfo header and returns any EmbedRequests
// generated by its chart provider.
func (ci *ChartInfo) Encode(w *beat.Writer) ([]provider.EmbedRequest, error) {
	if err := ci.prepare(); err != nil {
		return nil, err
	}
	if err := w.WriteString(ci.DifficultyName); err != nil {
		return nil, fmt.Errorf("musicfile: difficulty name: %w", err)
	}
	if err := w.WriteString(ci.DifficultyText); err != nil {
		return nil, fmt.Errorf("musicfile: difficulty text: %w", err)
	}
	w.WriteUint8(ci.RGB[0])
	w.WriteUint8(ci.RGB[1])
	w.WriteUint8(ci.RGB[2])
	w.WriteUint32(ci.Difficulty)
	return ci.Provider.Encode(w)
}

// DecodeChartInfo reads one ChartInfo header.
func DecodeChartInfo(r *beat.Reader) (*ChartInfo, error) {
	name, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("musicfile: difficulty name: %w", err)
	}
	text, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("musicfile: difficulty text: %w", err)
	}
	var rgb [3]uint8
	for i := range rgb {
		rgb[i], err = r.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("musicfile: rgb: %w", err)
		}
	}
	difficulty, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("musicfile: difficulty: %w", err)
	}
	cp, err := provider.DecodeChartProvider(r)
	if err != nil {
		return nil, fmt.Errorf("musicfile: chart info %q: %w", name, err)
	}

	ci := &ChartInfo{
		DifficultyName: name,
		DifficultyText: text,
		RGB:            rgb,
		Difficulty:     difficulty,
		Provider:       cp,
	}

	raw, err := cp.File.ArrayBuffer()
	if err != nil {
		return nil, fmt.Errorf("musicfile: chart info %q: %w", name, err)
	}
	c, err := chart.Decode(beat.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("musicfile: chart info %q: decode embedded chart: %w", name, err)
	}
	ci.Chart = c
	return ci, nil
}
