// Package layout holds the choreographers that decide where and when text
// appears, holds, and leaves the frame. Every strategy produces the same
// Plan of timed, positioned events.
package layout

import (
	"errors"

	"cuecast/internal/textwrap"
	"cuecast/internal/timeline"
)

// ErrVisibleLines reports a non-positive panel capacity.
var ErrVisibleLines = errors.New("visible lines must be positive")

// Level is a prominence level a style is drawn from.
type Level int

const (
	LevelPrevious Level = iota
	LevelCurrent
	LevelNext
	LevelDimmed
)

func (l Level) String() string {
	switch l {
	case LevelPrevious:
		return "previous"
	case LevelCurrent:
		return "current"
	case LevelNext:
		return "next"
	case LevelDimmed:
		return "dimmed"
	default:
		return "unknown"
	}
}

// Point is a canvas coordinate in pixels.
type Point struct {
	X int
	Y int
}

// PlacementKind tells the emitter which positioning tag to write.
type PlacementKind int

const (
	PlaceNone PlacementKind = iota
	PlacePosition
	PlaceMove
)

// Placement is either no tag, a fixed coordinate, or a move between two
// coordinates starting at the event start.
type Placement struct {
	Kind      PlacementKind
	From      Point
	To        Point
	MoveMs    int64
	FadeInMs  int64
	FadeOutMs int64
}

// Position places text at p for the whole event.
func Position(p Point) Placement {
	return Placement{Kind: PlacePosition, From: p, To: p}
}

// Move animates text from one point to another over durationMs.
func Move(from, to Point, durationMs int64) Placement {
	return Placement{Kind: PlaceMove, From: from, To: to, MoveMs: durationMs}
}

// WithFade returns p with fade in/out durations.
func (p Placement) WithFade(inMs, outMs int64) Placement {
	p.FadeInMs = inMs
	p.FadeOutMs = outMs
	return p
}

// Event is one timed, positioned piece of text.
type Event struct {
	Layer     int
	StartMs   int64
	EndMs     int64
	Style     string
	Placement Placement
	Text      string
}

// StyleRef names a style used by a plan and the level it is drawn from.
type StyleRef struct {
	Name      string
	Level     Level
	Alignment int
	MarginV   int
}

// Plan is a choreographer's complete output.
type Plan struct {
	Kind   Kind
	Styles []StyleRef
	Events []Event
}

// Align is the horizontal text alignment.
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
)

// Padding holds canvas margins in pixels.
type Padding struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// Options carries the geometry every choreographer needs.
type Options struct {
	Width        int
	Height       int
	FontSize     int
	LineSpacing  int
	Padding      Padding
	Align        Align
	Metrics      textwrap.Metrics
	VisibleLines int
	Panel        PanelOptions
}

// PanelOptions sizes the side panel.
type PanelOptions struct {
	WidthPct     float64
	InnerPadding int
}

// Choreograph runs the strategy selected by kind.
func Choreograph(kind Kind, tl timeline.Timeline, opts Options) (Plan, error) {
	switch kind {
	case KindScrollingTriptych:
		return ScrollingTriptych(tl, opts), nil
	case KindInstantSingleLine:
		return InstantSingleLine(tl, opts), nil
	case KindPaginatedPanel:
		return PaginatedPanel(tl, opts)
	default:
		return Plan{}, errors.New("layout: unknown kind " + kind.String())
	}
}
