package compositor_test

import (
	"strings"
	"testing"

	"cuecast/internal/compositor"
	"cuecast/internal/timeline"
)

func evenCues(n int, stepMs int64) []timeline.Cue {
	cues := make([]timeline.Cue, n)
	for i := range cues {
		cues[i] = timeline.Cue{Index: i, StartMs: int64(i) * stepMs, EndMs: int64(i+1) * stepMs}
	}
	return cues
}

func baseOptions() compositor.Options {
	return compositor.Options{
		Width:      1920,
		Height:     1080,
		FPS:        30,
		Transition: compositor.Transition{Type: "fade", DurationMs: 400, Centered: true},
	}
}

func TestNormalizeSpans(t *testing.T) {
	got := compositor.NormalizeSpans([]compositor.Span{
		{Anchor: 5, Image: "c"},
		{Anchor: 2, Image: "b"},
		{Anchor: 2, Image: "b2"},
		{Anchor: 99, Image: "d"},
	}, 6)
	want := []compositor.Span{{Anchor: 0, Image: "b"}, {Anchor: 2, Image: "b"}, {Anchor: 5, Image: "c"}}
	if len(got) != len(want) {
		t.Fatalf("NormalizeSpans = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeSpans[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestComposeThreeSpansScenario(t *testing.T) {
	spans := []compositor.Span{{Anchor: 0, Image: "/img/a.jpg"}, {Anchor: 2, Image: "/img/b.jpg"}, {Anchor: 5, Image: "/img/c.jpg"}}
	comp, ok := compositor.Compose(spans, evenCues(6, 1000), 6000, baseOptions())
	if !ok {
		t.Fatal("expected composition")
	}
	if len(comp.Inputs) != 3 {
		t.Fatalf("expected 3 inputs, got %d", len(comp.Inputs))
	}
	if got := strings.Join(comp.Inputs[1].Args, " "); got != "-loop 1 -t 3.000 -i /img/b.jpg" {
		t.Fatalf("unexpected input args %q", got)
	}

	xfades := 0
	for _, stage := range comp.Graph.Stages {
		if len(stage.Filters) == 1 && stage.Filters[0].Name == "xfade" {
			xfades++
		}
	}
	if xfades != 2 {
		t.Fatalf("expected 2 cross-fades, got %d", xfades)
	}
	if comp.DurationMs != 5200 || comp.DurationMs >= 6000 {
		t.Fatalf("unexpected chain duration %d", comp.DurationMs)
	}
	graph := comp.Graph.String()
	for _, want := range []string{
		"[v0][v1]xfade=transition=fade:duration=0.400:offset=1.800[x1]",
		"[x1][v2]xfade=transition=fade:duration=0.400:offset=4.400[bg]",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("expected %q in graph %s", want, graph)
		}
	}
	if comp.Output != compositor.OutputLabel {
		t.Fatalf("unexpected output label %q", comp.Output)
	}
}

func TestComposeDurationMatchesOverlapSum(t *testing.T) {
	tests := []struct {
		name       string
		starts     []int64
		total      int64
		transition int64
	}{
		{"even", []int64{0, 4000, 8000, 12000}, 16000, 400},
		{"short middle", []int64{0, 3000, 3200, 9000}, 12000, 500},
		{"long fade", []int64{0, 1000, 5000}, 6000, 2000},
		{"tiny fade", []int64{0, 2000, 4000}, 7000, 60},
		{"no fade", []int64{0, 2000}, 4000, 0},
		{"fade below floor", []int64{0, 30, 2000}, 4000, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cues := make([]timeline.Cue, len(tt.starts))
			spans := make([]compositor.Span, len(tt.starts))
			for i, s := range tt.starts {
				cues[i] = timeline.Cue{Index: i, StartMs: s, EndMs: s + 100}
				spans[i] = compositor.Span{Anchor: i, Image: "img"}
			}
			opts := baseOptions()
			opts.Transition.DurationMs = tt.transition
			opts.Transition.Centered = false
			comp, ok := compositor.Compose(spans, cues, tt.total, opts)
			if !ok {
				t.Fatal("expected composition")
			}
			var sum, overlaps int64
			for i, clip := range comp.Clips {
				sum += clip.DurationMs
				if i > 0 {
					prev := comp.Clips[i-1].DurationMs
					overlaps += min(tt.transition, min(prev, clip.DurationMs))
				}
			}
			if comp.DurationMs != sum-overlaps {
				t.Fatalf("duration %d, want %d", comp.DurationMs, sum-overlaps)
			}
		})
	}
}

func TestComposeSingleSpanIsPassThrough(t *testing.T) {
	comp, ok := compositor.Compose([]compositor.Span{{Anchor: 0, Image: "/img/a.jpg"}}, evenCues(4, 1000), 4000, baseOptions())
	if !ok {
		t.Fatal("expected composition")
	}
	want := "[0:v]scale=w=1920:h=1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2:color=black,fps=30,format=yuv420p,setsar=1[v0];[v0]copy[bg]"
	if got := comp.Graph.String(); got != want {
		t.Fatalf("graph = %s\nwant    %s", got, want)
	}
	if comp.DurationMs != 4000 {
		t.Fatalf("single clip should cover the whole timeline, got %d", comp.DurationMs)
	}

	late, ok := compositor.Compose([]compositor.Span{{Anchor: 3, Image: "/img/a.jpg"}}, evenCues(4, 1000), 4000, baseOptions())
	if !ok {
		t.Fatal("expected composition")
	}
	if len(late.Clips) != 2 || late.Clips[0].StartMs != 0 || late.Clips[0].DurationMs != 3000 {
		t.Fatalf("expected synthetic clip from zero, got %+v", late.Clips)
	}
}

func TestComposeWithoutSurvivingSpans(t *testing.T) {
	if _, ok := compositor.Compose(nil, evenCues(2, 1000), 2000, baseOptions()); ok {
		t.Fatal("expected no composition without spans")
	}
	cues := []timeline.Cue{{Index: 0, StartMs: 0, EndMs: 0}}
	if _, ok := compositor.Compose([]compositor.Span{{Anchor: 0, Image: "a"}}, cues, 0, baseOptions()); ok {
		t.Fatal("expected no composition for zero-length timeline")
	}
}

func TestComposeMotionUsesZoompanForLongClips(t *testing.T) {
	opts := baseOptions()
	opts.Motion = compositor.Motion{Enabled: true, MaxZoom: 1.10, MinSpanMs: 3500}
	spans := []compositor.Span{{Anchor: 0, Image: "a"}, {Anchor: 1, Image: "b"}}
	cues := []timeline.Cue{{Index: 0, StartMs: 0, EndMs: 5000}, {Index: 1, StartMs: 5000, EndMs: 8000}}
	comp, ok := compositor.Compose(spans, cues, 8000, opts)
	if !ok {
		t.Fatal("expected composition")
	}
	first := comp.Graph.Stages[0].String()
	if !strings.Contains(first, "scale=w=2036:h=1146:force_original_aspect_ratio=decrease") {
		t.Fatalf("expected overscan scale, got %s", first)
	}
	if !strings.Contains(first, "zoompan=z='1+(0.015)*(0.5*(1-cos(PI*on/150)))'") {
		t.Fatalf("expected capped cosine zoom, got %s", first)
	}
	if second := comp.Graph.Stages[1].String(); strings.Contains(second, "zoompan") {
		t.Fatalf("clips shorter than four seconds stay static, got %s", second)
	}
}

func TestComposeTrailingOffset(t *testing.T) {
	opts := baseOptions()
	opts.Transition.Centered = false
	spans := []compositor.Span{{Anchor: 0, Image: "a"}, {Anchor: 1, Image: "b"}}
	comp, ok := compositor.Compose(spans, evenCues(2, 3000), 6000, opts)
	if !ok {
		t.Fatal("expected composition")
	}
	if !strings.Contains(comp.Graph.String(), "offset=2.600[bg]") {
		t.Fatalf("expected trailing offset, got %s", comp.Graph.String())
	}
}

func TestOverlapFloor(t *testing.T) {
	tests := []struct {
		transition, prev, cur int64
		want                  int64
	}{
		{400, 30, 1000, 50},
		{400, 300, 1000, 300},
		{400, 2000, 2000, 400},
		{20, 30, 1000, 20},
		{0, 2000, 2000, 0},
		{-100, 2000, 2000, 0},
	}
	for _, tt := range tests {
		if got := compositor.Overlap(tt.transition, tt.prev, tt.cur); got != tt.want {
			t.Fatalf("Overlap(%d, %d, %d) = %d, want %d", tt.transition, tt.prev, tt.cur, got, tt.want)
		}
	}
}

func TestComposeWithoutTransitionConcatenates(t *testing.T) {
	cues := []timeline.Cue{{Index: 0, StartMs: 0, EndMs: 2000}, {Index: 1, StartMs: 2000, EndMs: 4000}}
	spans := []compositor.Span{{Anchor: 0, Image: "/img/a.jpg"}, {Anchor: 1, Image: "/img/b.jpg"}}
	opts := baseOptions()
	opts.Transition.DurationMs = 0
	comp, ok := compositor.Compose(spans, cues, 4000, opts)
	if !ok {
		t.Fatal("expected composition")
	}
	if comp.DurationMs != 4000 {
		t.Fatalf("duration %d, want 4000", comp.DurationMs)
	}
	graph := comp.Graph.String()
	if strings.Contains(graph, "xfade") {
		t.Fatalf("expected no cross-fade, got %s", graph)
	}
	if !strings.Contains(graph, "[v0][v1]concat=n=2:v=1:a=0[bg]") {
		t.Fatalf("expected concat join, got %s", graph)
	}
}

func TestSolidWithOverlays(t *testing.T) {
	comp := compositor.Solid("#101010", 3000, baseOptions())
	comp.Append(compositor.DrawBox(compositor.Box{X: 0, Y: 0, W: 691, H: 1080, Color: "#141416", Opacity: 0.96}))
	comp.Append(compositor.Subtitles("/tmp/work/overlay.ass"))

	if got := strings.Join(comp.Inputs[0].Args, " "); got != "-f lavfi -t 3.000 -i color=c=#101010:s=1920x1080:r=30" {
		t.Fatalf("unexpected solid input %q", got)
	}
	want := "[0:v]format=yuv420p,setsar=1[bg];" +
		"[bg]drawbox=x=0:y=0:w=691:h=1080:color=0x141416@0.96:t=fill[ov1];" +
		"[ov1]subtitles=filename=/tmp/work/overlay.ass[ov2]"
	if got := comp.Graph.String(); got != want {
		t.Fatalf("graph = %s\nwant    %s", got, want)
	}
	if comp.Output != "ov2" {
		t.Fatalf("unexpected output %q", comp.Output)
	}
}

func TestEscapeValue(t *testing.T) {
	if got := compositor.EscapeValue("/plain/path.ass"); got != "/plain/path.ass" {
		t.Fatalf("plain path changed: %q", got)
	}
	if got := compositor.EscapeValue("/tmp/a:b/o'v.ass"); got != `/tmp/a\\:b/o\\\'v.ass` {
		t.Fatalf("EscapeValue = %q", got)
	}
}
