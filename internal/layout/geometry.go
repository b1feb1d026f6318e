package layout

import (
	"math"
	"strings"

	"cuecast/internal/textwrap"
	"cuecast/internal/timeline"
)

// Rect is a canvas rectangle in pixels.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Slots holds the four vertical anchor points of the triptych.
type Slots struct {
	Below   Point
	Current Point
	Prev    Point
	Above   Point
}

func (o Options) textX() int {
	if o.Align == AlignLeft {
		return o.Padding.Left
	}
	return o.Padding.Left + o.textWidth()/2
}

func (o Options) textWidth() int {
	return max(o.Width-o.Padding.Left-o.Padding.Right, 0)
}

// minSlotRows is the height every triptych slot reserves even when all of its
// text fits on one row.
const minSlotRows = 2

func (o Options) slotPitch(rows int) int {
	return (o.FontSize + o.LineSpacing) * max(rows, minSlotRows)
}

func (o Options) triptychBudget() int {
	return o.Metrics.Budget(o.textWidth(), o.FontSize, textwrap.Bold)
}

// TriptychRows is the row count of the tallest slot tl expands to, never less
// than two. Slots are spaced by this many rows so a long second chunk cannot
// reach into the slot above it.
func TriptychRows(tl timeline.Timeline, o Options) int {
	return slotRows(textwrap.Expand(tl, o.triptychBudget()))
}

func slotRows(slots []textwrap.Slot) int {
	rows := minSlotRows
	for _, s := range slots {
		rows = max(rows, strings.Count(s.Text, textwrap.LineBreak)+1)
	}
	return rows
}

// TriptychSlots returns the slot anchors for slots rows tall. The current slot
// sits directly above the bottom padding.
func TriptychSlots(o Options, rows int) Slots {
	pitch := o.slotPitch(rows)
	x := o.textX()
	cur := o.Height - o.Padding.Bottom - pitch
	return Slots{
		Below:   Point{X: x, Y: cur + pitch},
		Current: Point{X: x, Y: cur},
		Prev:    Point{X: x, Y: cur - pitch},
		Above:   Point{X: x, Y: cur - 2*pitch},
	}
}

// TriptychBand is the translucent strip behind the previous and current slots.
func TriptychBand(o Options, rows int) Rect {
	slots := TriptychSlots(o, rows)
	top := max(slots.Prev.Y-o.LineSpacing, 0)
	bottom := min(slots.Current.Y+o.slotPitch(rows)+o.LineSpacing, o.Height)
	return Rect{X: 0, Y: top, W: o.Width, H: max(bottom-top, 0)}
}

// PanelRect is the side panel occupying the left part of the canvas.
func PanelRect(o Options) Rect {
	w := int(math.Round(float64(o.Width) * o.Panel.WidthPct))
	w = min(max(w, 0), o.Width)
	return Rect{X: 0, Y: 0, W: w, H: o.Height}
}

func (o Options) panelTextWidth() int {
	return max(PanelRect(o).W-2*o.Panel.InnerPadding, 0)
}
