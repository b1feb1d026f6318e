package pipeline_test

import (
	"bytes"
	"strings"
	"testing"

	"cuecast/internal/layout"
	"cuecast/internal/pipeline"
	"cuecast/internal/textwrap"
	"cuecast/internal/timeline"
)

func mustTimeline(t *testing.T, lines []string, totalMs int64, spans ...[2]int64) timeline.Timeline {
	t.Helper()
	cues := make([]timeline.Cue, len(spans))
	for i, s := range spans {
		cues[i] = timeline.Cue{Index: i, StartMs: s[0], EndMs: s[1]}
	}
	tl, err := timeline.New(cues, lines, totalMs)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	return tl
}

func resolve(t *testing.T, req pipeline.Request) pipeline.Settings {
	t.Helper()
	if req.AudioURL == "" {
		req.AudioURL = "a.mp3"
	}
	if req.CuesURL == "" {
		req.CuesURL = "c.json"
	}
	s, err := pipeline.Resolve(req, textwrap.DefaultMetrics())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return s
}

func dialogues(doc []byte) []string {
	var out []string
	for _, line := range strings.Split(string(doc), "\n") {
		if strings.HasPrefix(line, "Dialogue:") {
			out = append(out, line)
		}
	}
	return out
}

func TestBuildOverlayInstantSingleLine(t *testing.T) {
	lines := []string{"hi", "a much longer line needing two segments to fit"}
	tl := mustTimeline(t, lines, 5000, [2]int64{0, 1000}, [2]int64{1000, 3000})
	s := resolve(t, pipeline.Request{Lines: lines, Layout: "instant_single_line"})

	overlay, err := pipeline.BuildOverlay(s, tl)
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	events := dialogues(overlay.Document)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %v", len(events), events)
	}
	if !strings.HasPrefix(events[0], "Dialogue: 0,0:00:00.00,0:00:01.00,cur,,0,0,0,,hi") {
		t.Fatalf("unexpected first event %q", events[0])
	}
	if !strings.HasPrefix(events[1], "Dialogue: 0,0:00:01.00,0:00:05.00,cur,") {
		t.Fatalf("unexpected second event %q", events[1])
	}
	for _, ev := range events {
		if strings.Contains(ev, `\move`) || strings.Contains(ev, `\pos`) {
			t.Fatalf("single line events must not animate: %q", ev)
		}
	}
}

func TestBuildOverlayIsDeterministic(t *testing.T) {
	lines := []string{"first line of narration", "second line that is noticeably longer than the first", "third"}
	tl := mustTimeline(t, lines, 9000, [2]int64{0, 2500}, [2]int64{2500, 6000}, [2]int64{6000, 8000})
	for _, kind := range []string{"scrolling_triptych", "instant_single_line", "paginated_panel"} {
		s := resolve(t, pipeline.Request{Lines: lines, Layout: kind, Resolution: &pipeline.Resolution{Width: 1920, Height: 1080}})
		a, err := pipeline.BuildOverlay(s, tl)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		b, _ := pipeline.BuildOverlay(s, tl)
		if !bytes.Equal(a.Document, b.Document) {
			t.Fatalf("%s: documents differ between runs", kind)
		}
		if len(dialogues(a.Document)) == 0 {
			t.Fatalf("%s: no events", kind)
		}
	}
}

func TestBuildGraphSolidBackground(t *testing.T) {
	lines := []string{"a", "b"}
	tl := mustTimeline(t, lines, 4000, [2]int64{0, 2000}, [2]int64{2000, 4000})
	s := resolve(t, pipeline.Request{Lines: lines, Background: &pipeline.Background{ColorHex: "#102030"}})

	comp := pipeline.BuildGraph(s, tl, "/work/job/overlay.ass")
	if len(comp.Inputs) != 1 || !strings.Contains(strings.Join(comp.Inputs[0].Args, " "), "color=c=#102030:s=1080x1920:r=30") {
		t.Fatalf("unexpected inputs %+v", comp.Inputs)
	}
	graph := comp.Graph.String()
	want := "[0:v]format=yuv420p,setsar=1[bg];[bg]subtitles=filename=/work/job/overlay.ass[ov1]"
	if graph != want {
		t.Fatalf("graph = %q\nwant %q", graph, want)
	}
	if comp.Output != "ov1" {
		t.Fatalf("unexpected output label %q", comp.Output)
	}
}

func TestBuildGraphDecorations(t *testing.T) {
	lines := []string{"a", "b", "c"}
	tl := mustTimeline(t, lines, 6000, [2]int64{0, 2000}, [2]int64{2000, 4000}, [2]int64{4000, 6000})
	wide := &pipeline.Resolution{Width: 1920, Height: 1080}

	tests := []struct {
		layout   string
		drawbox  int
		contains string
	}{
		{"paginated_panel", 2, "drawbox=x=0:y=0:w=691:h=1080:color=0x141416@0.96:t=fill"},
		{"scrolling_triptych", 1, "color=0x000000@0.35"},
		{"instant_single_line", 0, "subtitles="},
	}
	for _, tt := range tests {
		s := resolve(t, pipeline.Request{Lines: lines, Layout: tt.layout, Resolution: wide})
		graph := pipeline.BuildGraph(s, tl, "/o.ass").Graph.String()
		if got := strings.Count(graph, "drawbox="); got != tt.drawbox {
			t.Fatalf("%s: %d drawbox filters in %q", tt.layout, got, graph)
		}
		if !strings.Contains(graph, tt.contains) {
			t.Fatalf("%s: %q missing from %q", tt.layout, tt.contains, graph)
		}
	}
}

func TestBuildGraphSpans(t *testing.T) {
	lines := []string{"0", "1", "2", "3", "4", "5"}
	tl := mustTimeline(t, lines, 6000,
		[2]int64{0, 1000}, [2]int64{1000, 2000}, [2]int64{2000, 3000},
		[2]int64{3000, 4000}, [2]int64{4000, 5000}, [2]int64{5000, 6000})
	s := resolve(t, pipeline.Request{
		Lines:  lines,
		Layout: "scrolling_triptych",
		BackgroundSpans: []pipeline.BackgroundSpan{
			{AnchorIdx: 0, ImageURL: "/img/a.png"},
			{AnchorIdx: 2, ImageURL: "/img/b.png"},
			{AnchorIdx: 5, ImageURL: "/img/c.png"},
		},
	})
	comp := pipeline.BuildGraph(s, tl, "/o.ass")
	graph := comp.Graph.String()
	if n := strings.Count(graph, "xfade="); n != 2 {
		t.Fatalf("expected 2 cross-fades, got %d in %q", n, graph)
	}
	if len(comp.Inputs) != 3 {
		t.Fatalf("expected 3 inputs, got %d", len(comp.Inputs))
	}
	if comp.DurationMs >= 6000 {
		t.Fatalf("chained duration %d should be shorter than the clip sum", comp.DurationMs)
	}
	if s.Layout != layout.KindScrollingTriptych {
		t.Fatalf("unexpected layout %s", s.Layout)
	}
}
