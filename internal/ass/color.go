package ass

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque RGB triple.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// ParseColor reads "#RRGGBB" or "RRGGBB".
func ParseColor(hex string) (Color, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(trimmed) != 6 {
		return Color{}, fmt.Errorf("color %q: expected 6 hex digits", hex)
	}
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", hex, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustColor is ParseColor for constants.
func MustColor(hex string) Color {
	c, err := ParseColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex renders the color as "#RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Pack returns the document color &HAABBGGRR. Alpha is transparency, so an
// opacity of 1 packs to 00.
func Pack(c Color, opacity float64) string {
	alpha := 255 - opacity*255
	alpha = min(max(alpha, 0), 255)
	return fmt.Sprintf("&H%02X%02X%02X%02X", uint8(alpha), c.B, c.G, c.R)
}
