package textwrap

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/math/fixed"
)

const (
	calibrationSizePx = 100
	calibrationSample = "The quick brown fox jumps over the lazy dog 0123456789"
)

// MeasureEm returns the average advance of a sample sentence as a fraction of
// the font size.
func MeasureEm(ttf []byte) (float64, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return 0, fmt.Errorf("parse font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{Size: calibrationSizePx, DPI: 72})
	defer face.Close()

	var total fixed.Int26_6
	count := 0
	for _, r := range calibrationSample {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		total += adv
		count++
	}
	if count == 0 {
		return 0, fmt.Errorf("font has no glyphs for the calibration sample")
	}
	avgPx := float64(total) / 64 / float64(count)
	return avgPx / calibrationSizePx, nil
}

// Calibrate returns m with NormalEm measured from ttf. BoldEm keeps the
// configured bold/normal proportion.
func Calibrate(m Metrics, ttf []byte) (Metrics, error) {
	em, err := MeasureEm(ttf)
	if err != nil {
		return m, err
	}
	ratio := 1.0
	if m.NormalEm > 0 && m.BoldEm > 0 {
		ratio = m.BoldEm / m.NormalEm
	}
	m.NormalEm = em
	m.BoldEm = em * ratio
	return m, nil
}
