package musicfile

import (
	"fmt"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/provider"
)

// ChartList holds one song's difficulties, keyed by difficulty name but
// iterated in insertion order (matching the teacher's table-driven
// ordering conventions rather than Go map iteration, which is
// unspecified).
type ChartList struct {
	order  []string
	byName map[string]*ChartInfo
}

// NewChartList returns an empty ChartList.
func NewChartList() *ChartList {
	return &ChartList{byName: make(map[string]*ChartInfo)}
}

// Set inserts or replaces the ChartInfo for a difficulty name. Replacing
// an existing name keeps its original position in iteration order.
func (l *ChartList) Set(ci *ChartInfo) {
	if l.byName == nil {
		l.byName = make(map[string]*ChartInfo)
	}
	if _, exists := l.byName[ci.DifficultyName]; !exists {
		l.order = append(l.order, ci.DifficultyName)
	}
	l.byName[ci.DifficultyName] = ci
}

// Get returns the ChartInfo for a difficulty name, if present.
func (l *ChartList) Get(name string) (*ChartInfo, bool) {
	ci, ok := l.byName[name]
	return ci, ok
}

// All returns every ChartInfo in insertion order.
func (l *ChartList) All() []*ChartInfo {
	out := make([]*ChartInfo, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.byName[name])
	}
	return out
}

// Len returns the number of charts.
func (l *ChartList) Len() int { return len(l.order) }

// EncodedLength is 1 count byte plus each ChartInfo's header length.
func (l *ChartList) EncodedLength() int {
	n := 1
	for _, ci := range l.All() {
		n += ci.EncodedLength()
	}
	return n
}

// TotalEncodedLength additionally counts each ChartInfo's embedded blob.
func (l *ChartList) TotalEncodedLength() (int, error) {
	n := 1
	for _, ci := range l.All() {
		total, err := ci.TotalEncodedLength()
		if err != nil {
			return 0, err
		}
		n += total
	}
	return n, nil
}

// Encode writes the count followed by every ChartInfo header, collecting
// their EmbedRequests.
func (l *ChartList) Encode(w *beat.Writer) ([]provider.EmbedRequest, error) {
	if l.Len() > 255 {
		return nil, fmt.Errorf("musicfile: chart list has %d entries, exceeds uint8 count", l.Len())
	}
	w.WriteUint8(uint8(l.Len()))
	var reqs []provider.EmbedRequest
	for _, ci := range l.All() {
		r, err := ci.Encode(w)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r...)
	}
	return reqs, nil
}

// DecodeChartList reads a ChartList.
func DecodeChartList(r *beat.Reader) (*ChartList, error) {
	count, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("musicfile: chart list count: %w", err)
	}
	l := NewChartList()
	for i := 0; i < int(count); i++ {
		ci, err := DecodeChartInfo(r)
		if err != nil {
			return nil, fmt.Errorf("musicfile: chart list entry %d: %w", i, err)
		}
		l.Set(ci)
	}
	return l, nil
}
