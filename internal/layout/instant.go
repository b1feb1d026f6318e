package layout

import (
	"cuecast/internal/textwrap"
	"cuecast/internal/timeline"
)

// InstantSingleLine shows each cue from its start until the next cue starts.
// There is no animation; content is replaced in place.
func InstantSingleLine(tl timeline.Timeline, o Options) Plan {
	alignment := 2
	if o.Align == AlignLeft {
		alignment = 1
	}
	budget := o.Metrics.Budget(o.textWidth(), o.FontSize, textwrap.Bold)

	events := make([]Event, 0, tl.Len())
	for i, cue := range tl.Cues {
		events = append(events, Event{
			Layer:   0,
			StartMs: cue.StartMs,
			EndMs:   tl.SlotEnd(i),
			Style:   styleCurrent,
			Text:    textwrap.WrapString(tl.Lines[i], budget),
		})
	}
	return Plan{
		Kind:   KindInstantSingleLine,
		Styles: []StyleRef{{Name: styleCurrent, Level: LevelCurrent, Alignment: alignment, MarginV: o.Padding.Bottom}},
		Events: events,
	}
}
