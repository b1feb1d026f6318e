package layout_test

import (
	"errors"
	"strings"
	"testing"

	"cuecast/internal/layout"
	"cuecast/internal/textwrap"
	"cuecast/internal/timeline"
)

func testOptions() layout.Options {
	return layout.Options{
		Width:        1920,
		Height:       1080,
		FontSize:     54,
		LineSpacing:  10,
		Padding:      layout.Padding{Top: 64, Right: 64, Bottom: 220, Left: 64},
		Metrics:      textwrap.DefaultMetrics(),
		VisibleLines: 3,
		Panel:        layout.PanelOptions{WidthPct: 0.36, InnerPadding: 48},
	}
}

func mustTimeline(t *testing.T, bounds [][2]int64, lines []string, total int64) timeline.Timeline {
	t.Helper()
	cues := make([]timeline.Cue, len(bounds))
	for i, b := range bounds {
		cues[i] = timeline.Cue{Index: i, StartMs: b[0], EndMs: b[1]}
	}
	tl, err := timeline.New(cues, lines, total)
	if err != nil {
		t.Fatalf("timeline.New: %v", err)
	}
	return tl
}

func TestParseKindAliases(t *testing.T) {
	tests := map[string]layout.Kind{
		"BLUR_UNDERLAY":       layout.KindScrollingTriptych,
		"scrolling_triptych":  layout.KindScrollingTriptych,
		"vertical_one":        layout.KindInstantSingleLine,
		"PANEL_LEFT":          layout.KindPaginatedPanel,
		" paginated_panel ":   layout.KindPaginatedPanel,
		"instant_single_line": layout.KindInstantSingleLine,
	}
	for input, want := range tests {
		got, err := layout.ParseKind(input)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := layout.ParseKind("diagonal"); err == nil {
		t.Fatal("expected error for unknown layout")
	}
	if layout.DefaultKind(1080, 1920, false) != layout.KindInstantSingleLine {
		t.Fatal("portrait canvases default to a single line")
	}
	if layout.DefaultKind(1920, 1080, false) != layout.KindScrollingTriptych {
		t.Fatal("landscape canvases default to the triptych")
	}
}

func TestScrollingTriptychStateMachine(t *testing.T) {
	tl := mustTimeline(t, [][2]int64{{0, 1000}, {1000, 2000}, {2000, 3000}}, []string{"alpha", "beta", "gamma"}, 3000)
	plan, err := layout.Choreograph(layout.KindScrollingTriptych, tl, testOptions())
	if err != nil {
		t.Fatalf("Choreograph: %v", err)
	}
	if len(plan.Events) != 11 {
		t.Fatalf("expected 11 events, got %d: %+v", len(plan.Events), plan.Events)
	}
	for _, ev := range plan.Events {
		if ev.EndMs <= ev.StartMs {
			t.Fatalf("non-positive event: %+v", ev)
		}
	}

	slots := layout.TriptychSlots(testOptions(), layout.TriptychRows(tl, testOptions()))
	if slots.Current.X != 960 || slots.Current.Y != 732 || slots.Prev.Y != 604 || slots.Below.Y != 860 || slots.Above.Y != 476 {
		t.Fatalf("unexpected slot geometry: %+v", slots)
	}

	byText := map[string][]layout.Event{}
	for _, ev := range plan.Events {
		byText[ev.Text] = append(byText[ev.Text], ev)
	}
	alpha := byText["alpha"]
	if len(alpha) != 5 {
		t.Fatalf("expected full lifecycle for first line, got %+v", alpha)
	}
	wantStyles := []string{"next", "cur", "prev", "prev", "prev"}
	wantStarts := []int64{0, 240, 1000, 1240, 2000}
	for i, ev := range alpha {
		if ev.Style != wantStyles[i] || ev.StartMs != wantStarts[i] {
			t.Fatalf("alpha event %d = %+v", i, ev)
		}
	}
	exit := alpha[4]
	if exit.Placement.Kind != layout.PlaceMove || exit.Placement.To != slots.Above || exit.Placement.FadeOutMs != textwrap.ShiftMs {
		t.Fatalf("unexpected exit placement: %+v", exit.Placement)
	}
	if len(byText["beta"]) != 4 {
		t.Fatalf("second line has no exit, got %+v", byText["beta"])
	}
	for _, ev := range byText["gamma"] {
		if ev.Style == "prev" {
			t.Fatalf("last line must not be promoted: %+v", ev)
		}
	}
	if last := byText["gamma"][1]; last.EndMs != 3000 {
		t.Fatalf("last slot should run to total, got %+v", last)
	}
}

func TestScrollingTriptychSpacesSlotsForTallChunks(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("narration ", 40))
	tl := mustTimeline(t, [][2]int64{{0, 6000}, {6000, 9000}}, []string{long, "after"}, 9000)
	o := testOptions()
	plan := layout.ScrollingTriptych(tl, o)

	tallest := 0
	for _, ev := range plan.Events {
		tallest = max(tallest, strings.Count(ev.Text, textwrap.LineBreak)+1)
	}
	if tallest < 3 {
		t.Fatalf("expected a chunk of at least 3 rows, got %d", tallest)
	}
	rows := layout.TriptychRows(tl, o)
	if rows != tallest {
		t.Fatalf("TriptychRows = %d, want %d", rows, tallest)
	}

	slots := layout.TriptychSlots(o, rows)
	if pitch := slots.Current.Y - slots.Prev.Y; pitch < tallest*(o.FontSize+o.LineSpacing) {
		t.Fatalf("slot pitch %d cannot hold %d rows", pitch, tallest)
	}
	for _, ev := range plan.Events {
		if ev.Style == "cur" && ev.Placement.From != slots.Current {
			t.Fatalf("current event not at the current slot: %+v", ev)
		}
	}
}

func TestScrollingTriptychClampsShortWindows(t *testing.T) {
	tl := mustTimeline(t, [][2]int64{{0, 100}, {100, 1000}}, []string{"quick", "slow"}, 1000)
	plan := layout.ScrollingTriptych(tl, testOptions())
	for _, ev := range plan.Events {
		if ev.EndMs <= ev.StartMs {
			t.Fatalf("non-positive event: %+v", ev)
		}
		if ev.Text == "quick" && ev.Style == "cur" {
			t.Fatalf("settle phase should be omitted for a window shorter than the shift: %+v", ev)
		}
	}
}

func TestInstantSingleLineScenario(t *testing.T) {
	tl := mustTimeline(t, [][2]int64{{0, 1000}, {1000, 3000}}, []string{"hi", "a much longer line needing two segments to fit the frame"}, 3500)
	plan, err := layout.Choreograph(layout.KindInstantSingleLine, tl, testOptions())
	if err != nil {
		t.Fatalf("Choreograph: %v", err)
	}
	if len(plan.Events) != 2 {
		t.Fatalf("expected two events, got %+v", plan.Events)
	}
	if plan.Events[0].StartMs != 0 || plan.Events[0].EndMs != 1000 {
		t.Fatalf("unexpected first event %+v", plan.Events[0])
	}
	if plan.Events[1].StartMs != 1000 || plan.Events[1].EndMs != 3500 {
		t.Fatalf("unexpected second event %+v", plan.Events[1])
	}
	for _, ev := range plan.Events {
		if ev.Placement.Kind != layout.PlaceNone {
			t.Fatalf("instant layout must not animate: %+v", ev)
		}
	}
	if plan.Styles[0].Alignment != 2 {
		t.Fatalf("expected bottom-center alignment, got %d", plan.Styles[0].Alignment)
	}
}

func TestSegmentsAllocateByCharacters(t *testing.T) {
	tl := mustTimeline(t, [][2]int64{{0, 1000}}, []string{"aaaaaaaaaa bbbbb"}, 1000)
	segs := layout.Segments(tl, 10)
	if len(segs) != 1 || len(segs[0]) != 2 {
		t.Fatalf("unexpected segments %+v", segs)
	}
	if segs[0][0].EndMs != 666 || segs[0][1].StartMs != 666 || segs[0][1].EndMs != 1000 {
		t.Fatalf("unexpected allocation %+v", segs[0])
	}
}

func TestPaginateCoversEverySegmentOnce(t *testing.T) {
	counts := []int{2, 5, 1, 1, 3}
	var cues [][]layout.Segment
	for ci, n := range counts {
		var segs []layout.Segment
		for k := 0; k < n; k++ {
			segs = append(segs, layout.Segment{Cue: ci, StartMs: int64(ci*1000 + k*100), EndMs: int64(ci*1000 + k*100 + 100)})
		}
		cues = append(cues, segs)
	}
	pages, err := layout.Paginate(cues, 3)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(pages) != 5 {
		t.Fatalf("expected 5 pages, got %d", len(pages))
	}
	seen := map[[2]int64]int{}
	total := 0
	for _, page := range pages {
		if len(page.Segments) > 3 {
			t.Fatalf("page over capacity: %+v", page)
		}
		cueSet := map[int]bool{}
		for _, s := range page.Segments {
			seen[[2]int64{int64(s.Cue), s.StartMs}]++
			cueSet[s.Cue] = true
			total++
		}
		if cueSet[1] && len(cueSet) > 1 {
			t.Fatalf("overflowing cue shares a page: %+v", page)
		}
		if page.StartMs != page.Segments[0].StartMs {
			t.Fatalf("page start mismatch: %+v", page)
		}
	}
	if total != 12 || len(seen) != 12 {
		t.Fatalf("expected 12 unique segments, got total=%d unique=%d", total, len(seen))
	}
	for key, n := range seen {
		if n != 1 {
			t.Fatalf("segment %v placed %d times", key, n)
		}
	}
}

func TestPaginatedPanelEvents(t *testing.T) {
	tl := mustTimeline(t, [][2]int64{{0, 1000}}, []string{"aaaaaaaaaaaaaaaaaaa bbbbbbbbb"}, 1000)
	plan, err := layout.Choreograph(layout.KindPaginatedPanel, tl, testOptions())
	if err != nil {
		t.Fatalf("Choreograph: %v", err)
	}
	if len(plan.Events) != 4 {
		t.Fatalf("expected 4 events, got %+v", plan.Events)
	}
	styles := map[string]int{}
	for _, ev := range plan.Events {
		if ev.EndMs <= ev.StartMs {
			t.Fatalf("non-positive event %+v", ev)
		}
		styles[ev.Style]++
		p := ev.Placement.From
		if p.X != 48 || (p.Y != 481 && p.Y != 545) {
			t.Fatalf("unexpected row placement %+v", p)
		}
	}
	if styles["cur"] != 2 || styles["dim"] != 2 {
		t.Fatalf("unexpected style mix %v", styles)
	}
}

func TestPaginatedPanelRejectsZeroVisibleLines(t *testing.T) {
	tl := mustTimeline(t, [][2]int64{{0, 1000}}, []string{"text"}, 1000)
	opts := testOptions()
	opts.VisibleLines = 0
	if _, err := layout.Choreograph(layout.KindPaginatedPanel, tl, opts); !errors.Is(err, layout.ErrVisibleLines) {
		t.Fatalf("expected ErrVisibleLines, got %v", err)
	}
}
