// Package display holds the ordered list of completed analyses shown on the
// home page and the open/closed state of each panel.
package display

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"review-analyzer/internal/analysis"
)

const (
	EmptyMessage = "No analyses yet. Analyze a video to see results here."
	Hint         = "Click on any analysis to view detailed statistics"
	panelIcon    = "🎯"
)

var ErrOutOfRange = errors.New("result index out of range")

// Board is an append-only list of results. Safe for concurrent use.
type Board struct {
	mu    sync.Mutex
	items []analysis.Result
	open  map[int]bool
}

func NewBoard() *Board {
	return &Board{open: map[int]bool{}}
}

// Append adds r to the end of the list with its panel closed and returns
// its index.
func (b *Board) Append(r analysis.Result) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, r.Normalized())
	return len(b.items) - 1
}

// Toggle flips the panel at i and reports whether it is now open.
func (b *Board) Toggle(i int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.items) {
		return false, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	if b.open[i] {
		delete(b.open, i)
		return false, nil
	}
	b.open[i] = true
	return true, nil
}

func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// View is the render model of the board.
type View struct {
	Empty        bool
	EmptyMessage string
	Hint         string
	Panels       []Panel
}

type Panel struct {
	Index         int
	Icon          string
	Title         string
	Open          bool
	Stats         []StatRow
	Transcription string
	// Features lists sentiment details no statistic matched, sorted by name.
	Features []Feature
}

type StatRow struct {
	Label     string
	Value     string
	Trend     analysis.Trend
	TrendIcon string
	Detail    *analysis.FeatureSentiment
}

type Feature struct {
	Name string
	analysis.FeatureSentiment
}

// View renders the current board. Closed panels carry only their title.
func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := View{Empty: len(b.items) == 0}
	if v.Empty {
		v.EmptyMessage = EmptyMessage
		return v
	}
	v.Hint = Hint
	v.Panels = make([]Panel, len(b.items))
	for i, r := range b.items {
		p := Panel{Index: i, Icon: panelIcon, Title: r.Title, Open: b.open[i]}
		if p.Open {
			p.Stats, p.Features = statRows(r)
			p.Transcription = r.FullTranscription
		}
		v.Panels[i] = p
	}
	return v
}

func statRows(r analysis.Result) ([]StatRow, []Feature) {
	matched := map[string]bool{}
	rows := make([]StatRow, len(r.Stats))
	for i, s := range r.Stats {
		rows[i] = StatRow{Label: s.Label, Value: s.Value, Trend: s.Trend, TrendIcon: TrendIcon(s.Trend)}
		key := strings.ToLower(s.Label)
		if d, ok := r.SentimentDetails[key]; ok {
			d := d
			rows[i].Detail = &d
			matched[key] = true
		}
	}

	var rest []Feature
	for name, d := range r.SentimentDetails {
		if !matched[name] {
			rest = append(rest, Feature{Name: name, FeatureSentiment: d})
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Name < rest[j].Name })
	return rows, rest
}

// TrendIcon maps a trend to its marker; no trend has no marker.
func TrendIcon(t analysis.Trend) string {
	switch t {
	case analysis.TrendUp:
		return "📈"
	case analysis.TrendDown:
		return "📉"
	case analysis.TrendNeutral:
		return "➡️"
	default:
		return ""
	}
}
