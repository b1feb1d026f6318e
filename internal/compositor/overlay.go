package compositor

import (
	"fmt"
	"strconv"
)

// Solid builds a single lavfi color source covering totalMs.
func Solid(colorHex string, totalMs int64, opts Options) *Composition {
	if colorHex == "" {
		colorHex = "#000000"
	}
	source := fmt.Sprintf("color=c=%s:s=%dx%d:r=%d", colorHex, opts.Width, opts.Height, opts.FPS)
	c := &Composition{
		Inputs: []Input{{Args: []string{"-f", "lavfi", "-t", Seconds(totalMs), "-i", source}}},
		Output: OutputLabel,
	}
	c.Graph.Add(Stage{
		Inputs:  []string{"0:v"},
		Filters: []Filter{NewFilter("format", "", "yuv420p"), NewFilter("setsar", "", "1")},
		Output:  OutputLabel,
	})
	c.DurationMs = totalMs
	return c
}

// Append chains filters onto the current output under a fresh label.
func (c *Composition) Append(filters ...Filter) {
	if len(filters) == 0 {
		return
	}
	c.next++
	out := "ov" + strconv.Itoa(c.next)
	c.Graph.Add(Stage{Inputs: []string{c.Output}, Filters: filters, Output: out})
	c.Output = out
}

// Box is a filled rectangle with an RGB hex color and opacity.
type Box struct {
	X, Y, W, H int
	Color      string
	Opacity    float64
}

// DrawBox fills a rectangle.
func DrawBox(b Box) Filter {
	return NewFilter("drawbox",
		"x", strconv.Itoa(b.X),
		"y", strconv.Itoa(b.Y),
		"w", strconv.Itoa(b.W),
		"h", strconv.Itoa(b.H),
		"color", ffColor(b.Color, b.Opacity),
		"t", "fill",
	)
}

// Subtitles burns a subtitle document into the stream.
func Subtitles(path string) Filter {
	return NewFilter("subtitles", "filename", EscapeValue(path))
}

func ffColor(hex string, opacity float64) string {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	opacity = min(max(opacity, 0), 1)
	return fmt.Sprintf("0x%s@%.2f", hex, opacity)
}
