package textwrap

import (
	"strings"

	"cuecast/internal/timeline"
)

// ShiftMs is the fixed entry/exit animation window.
const ShiftMs int64 = 240

const (
	minShareB = 0.35
	minRatio  = 0.35
	maxRatio  = 0.65
)

// Part is one temporally offset chunk of a cue's text.
type Part struct {
	Text    string
	StartMs int64
	EndMs   int64
}

// SplitTwo decides whether text is shown as one chunk or as two consecutive
// chunks within [startMs, endMs). Chunk text is already wrapped at budget.
func SplitTwo(text string, budget int, startMs, endMs int64) []Part {
	whole := []Part{{Text: WrapString(text, budget), StartMs: startMs, EndMs: endMs}}

	lines := Wrap(text, budget)
	if len(lines) <= 1 {
		return whole
	}
	dur := endMs - startMs
	if dur < 2*ShiftMs {
		return whole
	}

	wordsA := strings.Fields(lines[0])
	wordsB := strings.Fields(strings.Join(lines[1:], " "))
	for (len(wordsB) < 2 || shareOf(wordsA, wordsB) < minShareB) && len(wordsA) > 2 {
		last := wordsA[len(wordsA)-1]
		wordsA = wordsA[:len(wordsA)-1]
		wordsB = append([]string{last}, wordsB...)
	}

	a := strings.Join(wordsA, " ")
	b := strings.Join(wordsB, " ")
	lenA := float64(runeCount(a))
	lenB := float64(runeCount(b))
	ratio := 0.5
	if lenA+lenB > 0 {
		ratio = lenA / (lenA + lenB)
	}
	ratio = min(max(ratio, minRatio), maxRatio)
	offset := min(max(int64(float64(dur)*ratio), ShiftMs), dur-ShiftMs)
	mid := startMs + offset

	return []Part{
		{Text: WrapString(a, budget), StartMs: startMs, EndMs: mid},
		{Text: WrapString(b, budget), StartMs: mid, EndMs: endMs},
	}
}

func shareOf(wordsA, wordsB []string) float64 {
	lenA := runeCount(strings.Join(wordsA, " "))
	lenB := runeCount(strings.Join(wordsB, " "))
	if lenA+lenB == 0 {
		return 0
	}
	return float64(lenB) / float64(lenA+lenB)
}

// Slot is one entry of the expanded sequence: a cue contributes one slot, or
// two when SplitTwo divides it.
type Slot struct {
	Cue     int
	Part    int
	Text    string
	StartMs int64
	EndMs   int64
}

// Expand splits every cue of tl and returns the resulting slot sequence.
// Cues with blank text contribute no slot.
func Expand(tl timeline.Timeline, budget int) []Slot {
	slots := make([]Slot, 0, tl.Len())
	for i, cue := range tl.Cues {
		if strings.TrimSpace(tl.Lines[i]) == "" {
			continue
		}
		for p, part := range SplitTwo(tl.Lines[i], budget, cue.StartMs, cue.EndMs) {
			slots = append(slots, Slot{Cue: i, Part: p, Text: part.Text, StartMs: part.StartMs, EndMs: part.EndMs})
		}
	}
	return slots
}
