// Package timeline holds the cue/line model shared by every layout and the
// background compositor.
package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTimeline reports a timeline without cues.
	ErrEmptyTimeline = errors.New("timeline has no cues")
	// ErrLineCountMismatch reports that lines and cues are not paired 1:1.
	ErrLineCountMismatch = errors.New("lines count must match cues")
	// ErrInvalidCue reports a cue whose bounds are negative, inverted, or out of order.
	ErrInvalidCue = errors.New("invalid cue")
)

// Cue is one timed interval, in absolute milliseconds.
type Cue struct {
	Index   int   `json:"idx"`
	StartMs int64 `json:"startMs"`
	EndMs   int64 `json:"endMs"`
}

// DurationMs returns the cue length.
func (c Cue) DurationMs() int64 {
	return c.EndMs - c.StartMs
}

// Timeline pairs cues with narration lines. It is treated as immutable once
// constructed; ExtendTo returns a modified copy.
type Timeline struct {
	Cues    []Cue
	Lines   []string
	TotalMs int64
}

// New validates cues and lines and returns a timeline whose total covers every cue.
func New(cues []Cue, lines []string, totalMs int64) (Timeline, error) {
	if len(cues) == 0 {
		return Timeline{}, ErrEmptyTimeline
	}
	if len(lines) != len(cues) {
		return Timeline{}, fmt.Errorf("%w: lines count (%d) must match cues (%d)", ErrLineCountMismatch, len(lines), len(cues))
	}
	var prevStart int64
	var maxEnd int64
	for i, cue := range cues {
		if cue.StartMs < 0 {
			return Timeline{}, fmt.Errorf("%w: cue %d starts before zero (%d)", ErrInvalidCue, i, cue.StartMs)
		}
		if cue.EndMs < cue.StartMs {
			return Timeline{}, fmt.Errorf("%w: cue %d ends (%d) before it starts (%d)", ErrInvalidCue, i, cue.EndMs, cue.StartMs)
		}
		if i > 0 && cue.StartMs < prevStart {
			return Timeline{}, fmt.Errorf("%w: cue %d starts (%d) before cue %d (%d)", ErrInvalidCue, i, cue.StartMs, i-1, prevStart)
		}
		prevStart = cue.StartMs
		if cue.EndMs > maxEnd {
			maxEnd = cue.EndMs
		}
	}
	if totalMs < maxEnd {
		totalMs = maxEnd
	}

	tl := Timeline{
		Cues:    make([]Cue, len(cues)),
		Lines:   make([]string, len(lines)),
		TotalMs: totalMs,
	}
	copy(tl.Cues, cues)
	copy(tl.Lines, lines)
	return tl, nil
}

// Len returns the number of cues.
func (t Timeline) Len() int {
	return len(t.Cues)
}

// SlotEnd returns the start of the cue after i, or the timeline total for the last cue.
func (t Timeline) SlotEnd(i int) int64 {
	if i+1 < len(t.Cues) {
		return t.Cues[i+1].StartMs
	}
	return t.TotalMs
}

// ExtendTo returns a copy whose total and final cue end reach totalMs.
// Totals shorter than the current one are ignored.
func (t Timeline) ExtendTo(totalMs int64) Timeline {
	if totalMs <= t.TotalMs && (len(t.Cues) == 0 || totalMs <= t.Cues[len(t.Cues)-1].EndMs) {
		return t
	}
	out := Timeline{
		Cues:    make([]Cue, len(t.Cues)),
		Lines:   t.Lines,
		TotalMs: max(t.TotalMs, totalMs),
	}
	copy(out.Cues, t.Cues)
	if n := len(out.Cues); n > 0 && out.Cues[n-1].EndMs < totalMs {
		out.Cues[n-1].EndMs = totalMs
	}
	return out
}
