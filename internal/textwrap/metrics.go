// Package textwrap turns pixel widths into character budgets and wraps
// narration text against them. It also decides when a cue is shown as two
// consecutive chunks.
package textwrap

import (
	"math"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Weight selects the glyph width estimate.
type Weight int

const (
	Normal Weight = iota
	Bold
)

// minimumChars is the lowest budget any layout is allowed to use.
const minimumChars = 10

// Metrics holds average glyph widths as a fraction of the font size.
type Metrics struct {
	NormalEm  float64
	BoldEm    float64
	OutlinePx int
	MinChars  int
}

// DefaultMetrics returns the ratios used when no font is calibrated.
func DefaultMetrics() Metrics {
	return Metrics{NormalEm: 0.52, BoldEm: 0.56, OutlinePx: 4, MinChars: 12}
}

// Budget returns how many columns fit in widthPx at fontPx for the weight.
// Degenerate geometry clamps to the minimum instead of failing.
func (m Metrics) Budget(widthPx, fontPx int, weight Weight) int {
	floor := max(m.MinChars, minimumChars)
	em := m.NormalEm
	if weight == Bold {
		em = m.BoldEm
	}
	if fontPx <= 0 || em <= 0 {
		return floor
	}
	avail := float64(widthPx - 2*m.OutlinePx)
	budget := int(math.Floor(avail / (float64(fontPx) * em)))
	if budget < floor {
		return floor
	}
	return budget
}

// Columns returns the display width of s. East Asian wide and fullwidth runes
// take two columns, everything else one.
func Columns(s string) int {
	cols := 0
	for _, r := range s {
		cols += runeColumns(r)
	}
	return cols
}

func runeColumns(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}
