package layout

import (
	"fmt"

	"cuecast/internal/textwrap"
	"cuecast/internal/timeline"
)

// Segment is one wrapped physical line of a cue with its share of the cue interval.
type Segment struct {
	Cue     int
	Text    string
	StartMs int64
	EndMs   int64
}

// Page is a batch of segments shown together.
type Page struct {
	Segments []Segment
	StartMs  int64
	EndMs    int64
}

// Segments wraps every cue and allocates each line a slice of the cue interval
// proportional to its character count.
func Segments(tl timeline.Timeline, budget int) [][]Segment {
	out := make([][]Segment, 0, tl.Len())
	for i, cue := range tl.Cues {
		lines := textwrap.Wrap(tl.Lines[i], budget)
		if len(lines) == 0 {
			continue
		}
		var total int64
		for _, line := range lines {
			total += int64(max(textwrap.Columns(line), 1))
		}
		dur := cue.EndMs - cue.StartMs
		segs := make([]Segment, len(lines))
		var cum int64
		for k, line := range lines {
			start := cue.StartMs + dur*cum/total
			cum += int64(max(textwrap.Columns(line), 1))
			end := cue.StartMs + dur*cum/total
			if k == len(lines)-1 {
				end = cue.EndMs
			}
			segs[k] = Segment{Cue: i, Text: line, StartMs: start, EndMs: end}
		}
		out = append(out, segs)
	}
	return out
}

// Paginate groups per-cue segments into pages of at most visible segments.
// A cue that cannot fit on one page is spread over pages of its own.
func Paginate(cues [][]Segment, visible int) ([]Page, error) {
	if visible <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrVisibleLines, visible)
	}
	var pages []Page
	for i := 0; i < len(cues); {
		segs := cues[i]
		if len(segs) > visible {
			for off := 0; off < len(segs); off += visible {
				pages = append(pages, newPage(segs[off:min(off+visible, len(segs))]))
			}
			i++
			continue
		}
		page := append([]Segment(nil), segs...)
		i++
		for i < len(cues) && len(page)+len(cues[i]) <= visible {
			page = append(page, cues[i]...)
			i++
		}
		pages = append(pages, newPage(page))
	}
	return pages, nil
}

func newPage(segs []Segment) Page {
	page := Page{Segments: append([]Segment(nil), segs...)}
	if len(segs) == 0 {
		return page
	}
	page.StartMs = segs[0].StartMs
	for _, s := range segs {
		page.EndMs = max(page.EndMs, s.EndMs)
	}
	return page
}

// PaginatedPanel renders pages into the side panel. Each segment is dimmed for
// the page span except during its own interval, where it is highlighted.
func PaginatedPanel(tl timeline.Timeline, o Options) (Plan, error) {
	if o.VisibleLines <= 0 {
		return Plan{}, fmt.Errorf("%w: got %d", ErrVisibleLines, o.VisibleLines)
	}
	budget := o.Metrics.Budget(o.panelTextWidth(), o.FontSize, textwrap.Bold)
	pages, err := Paginate(Segments(tl, budget), o.VisibleLines)
	if err != nil {
		return Plan{}, err
	}

	panel := PanelRect(o)
	rowH := o.FontSize + o.LineSpacing
	x := panel.X + o.Panel.InnerPadding

	var events []Event
	add := func(layer int, start, end int64, style string, p Point, text string) {
		if end <= start {
			return
		}
		events = append(events, Event{Layer: layer, StartMs: start, EndMs: end, Style: style, Placement: Position(p), Text: text})
	}
	for _, page := range pages {
		blockH := len(page.Segments)*rowH - o.LineSpacing
		top := panel.Y + (panel.H-blockH)/2
		for row, seg := range page.Segments {
			p := Point{X: x, Y: top + row*rowH}
			add(0, page.StartMs, seg.StartMs, styleDimmed, p, seg.Text)
			add(1, seg.StartMs, seg.EndMs, styleCurrent, p, seg.Text)
			add(0, seg.EndMs, page.EndMs, styleDimmed, p, seg.Text)
		}
	}

	return Plan{
		Kind: KindPaginatedPanel,
		Styles: []StyleRef{
			{Name: styleCurrent, Level: LevelCurrent, Alignment: 7, MarginV: o.Padding.Top},
			{Name: styleDimmed, Level: LevelDimmed, Alignment: 7, MarginV: o.Padding.Top},
		},
		Events: events,
	}, nil
}
