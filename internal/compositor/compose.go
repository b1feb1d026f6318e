// Package compositor builds the background video graph: one clip per
// background span, scaled or slowly zoomed, chained with cross-fades, plus
// the overlay stages drawn on top.
package compositor

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"cuecast/internal/timeline"
)

// OutputLabel is the label of the finished background stream.
const OutputLabel = "bg"

const (
	minOverlapMs      = 50
	motionZoomCeiling = 1.015
	motionMinSpanMs   = 4000
	overscanFactor    = 1.06
)

// Span pairs a background image with the cue index where it starts.
type Span struct {
	Anchor int
	Image  string
}

// Transition configures the cross-fade between clips.
type Transition struct {
	Type       string
	DurationMs int64
	Centered   bool
}

// Motion configures the slow zoom applied to long clips.
type Motion struct {
	Enabled   bool
	MaxZoom   float64
	MinSpanMs int64
}

// Options holds the output geometry and effects.
type Options struct {
	Width      int
	Height     int
	FPS        int
	Transition Transition
	Motion     Motion
}

// Input is one encoder input source.
type Input struct {
	Args []string
}

// Clip is a surviving span with its place on the timeline.
type Clip struct {
	Span       Span
	StartMs    int64
	DurationMs int64
}

// Composition is the compositor result consumed by the encoder.
type Composition struct {
	Inputs     []Input
	Graph      Graph
	Output     string
	Clips      []Clip
	DurationMs int64
	next       int
}

// NormalizeSpans clamps anchors into the cue range, sorts them, keeps the first
// span per anchor, and adds an anchor 0 span reusing the first image when absent.
func NormalizeSpans(spans []Span, cueCount int) []Span {
	if len(spans) == 0 || cueCount <= 0 {
		return nil
	}
	clamped := make([]Span, len(spans))
	for i, s := range spans {
		s.Anchor = min(max(s.Anchor, 0), cueCount-1)
		clamped[i] = s
	}
	slices.SortStableFunc(clamped, func(a, b Span) int { return a.Anchor - b.Anchor })

	out := make([]Span, 0, len(clamped)+1)
	for _, s := range clamped {
		if len(out) > 0 && out[len(out)-1].Anchor == s.Anchor {
			continue
		}
		out = append(out, s)
	}
	if out[0].Anchor != 0 {
		out = append([]Span{{Anchor: 0, Image: out[0].Image}}, out...)
	}
	return out
}

// Clips computes per-span durations from anchor cue starts. The first clip
// starts at zero and the last runs to totalMs; non-positive clips are dropped.
func Clips(spans []Span, cues []timeline.Cue, totalMs int64) []Clip {
	if len(cues) == 0 {
		return nil
	}
	startOf := func(anchor int) int64 {
		if anchor == 0 {
			return 0
		}
		return cues[anchor].StartMs
	}
	var clips []Clip
	for i, s := range spans {
		start := startOf(s.Anchor)
		end := totalMs
		if i+1 < len(spans) {
			end = startOf(spans[i+1].Anchor)
		}
		if end-start <= 0 {
			continue
		}
		clips = append(clips, Clip{Span: s, StartMs: start, DurationMs: end - start})
	}
	return clips
}

// Overlap returns the cross-fade length between two clips. It never exceeds
// transitionMs; the floor only lifts very short neighbours.
func Overlap(transitionMs, prevMs, curMs int64) int64 {
	return min(max(transitionMs, 0), max(min(prevMs, curMs), minOverlapMs))
}

// Compose turns spans into inputs and a filter graph. It reports false when no
// span survives, leaving the caller to use a static background.
func Compose(spans []Span, cues []timeline.Cue, totalMs int64, opts Options) (*Composition, bool) {
	clips := Clips(NormalizeSpans(spans, len(cues)), cues, totalMs)
	if len(clips) == 0 {
		return nil, false
	}

	c := &Composition{Clips: clips}
	labels := make([]string, len(clips))
	for i, clip := range clips {
		c.Inputs = append(c.Inputs, Input{Args: []string{
			"-loop", "1",
			"-t", Seconds(clip.DurationMs),
			"-i", clip.Span.Image,
		}})
		labels[i] = "v" + strconv.Itoa(i)
		c.Graph.Add(Stage{
			Inputs:  []string{strconv.Itoa(i) + ":v"},
			Filters: clipFilters(clip.DurationMs, opts),
			Output:  labels[i],
		})
	}

	if len(clips) == 1 {
		c.Graph.Add(Stage{Inputs: []string{labels[0]}, Filters: []Filter{{Name: "copy"}}, Output: OutputLabel})
		c.Output = OutputLabel
		c.DurationMs = clips[0].DurationMs
		return c, true
	}

	kind := opts.Transition.Type
	if kind == "" {
		kind = "fade"
	}
	prev := labels[0]
	virtual := clips[0].DurationMs
	for i := 1; i < len(clips); i++ {
		cur := clips[i].DurationMs
		overlap := Overlap(opts.Transition.DurationMs, clips[i-1].DurationMs, cur)
		offset := virtual - overlap
		if opts.Transition.Centered {
			offset = virtual - overlap/2
		}
		offset = max(offset, 0)

		out := "x" + strconv.Itoa(i)
		if i == len(clips)-1 {
			out = OutputLabel
		}
		join := NewFilter("concat", "n", "2", "v", "1", "a", "0")
		if overlap > 0 {
			join = NewFilter("xfade",
				"transition", kind,
				"duration", Seconds(overlap),
				"offset", Seconds(offset),
			)
		}
		c.Graph.Add(Stage{Inputs: []string{prev, labels[i]}, Filters: []Filter{join}, Output: out})
		prev = out
		virtual += cur - overlap
	}
	c.Output = OutputLabel
	c.DurationMs = virtual
	return c, true
}

func clipFilters(durationMs int64, opts Options) []Filter {
	w, h, fps := strconv.Itoa(opts.Width), strconv.Itoa(opts.Height), strconv.Itoa(opts.FPS)
	minSpan := max(opts.Motion.MinSpanMs, motionMinSpanMs)
	if opts.Motion.Enabled && durationMs >= minSpan {
		zoom := min(max(min(opts.Motion.MaxZoom, motionZoomCeiling), 1.0), 1.1)
		frames := max(int64(1), durationMs*int64(opts.FPS)/1000)
		ease := fmt.Sprintf("0.5*(1-cos(PI*on/%d))", frames)
		return []Filter{
			NewFilter("scale",
				"w", strconv.Itoa(even(int(math.Ceil(float64(opts.Width)*overscanFactor)))),
				"h", strconv.Itoa(even(int(math.Ceil(float64(opts.Height)*overscanFactor)))),
				"force_original_aspect_ratio", "decrease"),
			NewFilter("zoompan",
				"z", fmt.Sprintf("'1+(%.3f)*(%s)'", zoom-1, ease),
				"x", "'(iw-ow)/2'",
				"y", "'(ih-oh)/2'",
				"d", "1",
				"s", w+"x"+h,
				"fps", fps),
			NewFilter("format", "", "yuv420p"),
			NewFilter("setsar", "", "1"),
		}
	}
	return []Filter{
		NewFilter("scale", "w", w, "h", h, "force_original_aspect_ratio", "decrease"),
		NewFilter("pad", "", w, "", h, "", "(ow-iw)/2", "", "(oh-ih)/2", "color", "black"),
		NewFilter("fps", "", fps),
		NewFilter("format", "", "yuv420p"),
		NewFilter("setsar", "", "1"),
	}
}

func even(v int) int {
	if v%2 == 0 {
		return v
	}
	return v + 1
}

// Seconds formats milliseconds with three decimals.
func Seconds(ms int64) string {
	return fmt.Sprintf("%.3f", float64(ms)/1000)
}
