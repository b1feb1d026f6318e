package layout

import (
	"cuecast/internal/textwrap"
	"cuecast/internal/timeline"
)

const (
	styleCurrent  = "cur"
	stylePrevious = "prev"
	styleNext     = "next"
	styleDimmed   = "dim"
)

// ScrollingTriptych climbs each slot through enter, settle, promote, hold,
// and exit. The next slot enters while the current one is promoted.
func ScrollingTriptych(tl timeline.Timeline, o Options) Plan {
	alignment := 8
	if o.Align == AlignLeft {
		alignment = 7
	}
	plan := Plan{
		Kind: KindScrollingTriptych,
		Styles: []StyleRef{
			{Name: stylePrevious, Level: LevelPrevious, Alignment: alignment, MarginV: o.Padding.Bottom},
			{Name: styleCurrent, Level: LevelCurrent, Alignment: alignment, MarginV: o.Padding.Bottom},
			{Name: styleNext, Level: LevelNext, Alignment: alignment, MarginV: o.Padding.Bottom},
		},
	}

	slots := textwrap.Expand(tl, o.triptychBudget())
	pos := TriptychSlots(o, slotRows(slots))

	starts := make([]int64, len(slots))
	for i, s := range slots {
		starts[i] = s.StartMs
	}
	windowEnd := func(i int) int64 {
		if i+1 < len(starts) {
			return starts[i+1]
		}
		return tl.TotalMs
	}
	shiftIn := func(i int) int64 {
		return min(textwrap.ShiftMs, max(windowEnd(i)-starts[i], 0))
	}

	var events []Event
	add := func(layer int, start, end int64, style string, placement Placement, text string) {
		if end <= start {
			return
		}
		events = append(events, Event{Layer: layer, StartMs: start, EndMs: end, Style: style, Placement: placement, Text: text})
	}

	for i, slot := range slots {
		start, end := starts[i], windowEnd(i)
		shift := shiftIn(i)

		add(1, start, start+shift, styleNext, Move(pos.Below, pos.Current, shift), slot.Text)
		add(1, start+shift, end, styleCurrent, Position(pos.Current), slot.Text)

		if i+1 >= len(slots) {
			continue
		}
		promoteAt, holdEnd := starts[i+1], windowEnd(i+1)
		promote := shiftIn(i + 1)
		add(0, promoteAt, promoteAt+promote, stylePrevious, Move(pos.Current, pos.Prev, promote), slot.Text)
		add(0, promoteAt+promote, holdEnd, stylePrevious, Position(pos.Prev), slot.Text)

		if i+2 >= len(slots) {
			continue
		}
		exitAt := starts[i+2]
		exit := shiftIn(i + 2)
		add(0, exitAt, exitAt+exit, stylePrevious, Move(pos.Prev, pos.Above, exit).WithFade(0, exit), slot.Text)
	}

	plan.Events = events
	return plan
}
