// Package ass serializes layout plans into Advanced SubStation Alpha
// documents. Output is byte-for-byte reproducible for identical input.
package ass

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"cuecast/internal/layout"
)

// Style is one row of the style table.
type Style struct {
	Name       string
	FontName   string
	FontSize   int
	Color      Color
	Opacity    float64
	Bold       bool
	Box        bool
	BoxColor   Color
	BoxOpacity float64
	Outline    int
	Shadow     int
	Alignment  int
	MarginL    int
	MarginR    int
	MarginV    int
}

// Document is everything needed to write one overlay file.
type Document struct {
	Width   int
	Height  int
	TotalMs int64
	Styles  []Style
	Events  []layout.Event
}

const (
	styleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, " +
		"Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, " +
		"Alignment, MarginL, MarginR, MarginV, Encoding"
	eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

// Write serializes doc. Events are stably ordered by start time; events whose
// clamped timestamps collapse or whose text is blank are dropped.
func Write(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "[Script Info]")
	fmt.Fprintln(bw, "ScriptType: v4.00+")
	fmt.Fprintf(bw, "PlayResX: %d\n", doc.Width)
	fmt.Fprintf(bw, "PlayResY: %d\n", doc.Height)
	fmt.Fprintln(bw, "WrapStyle: 2")
	fmt.Fprintln(bw, "ScaledBorderAndShadow: yes")
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "[V4+ Styles]")
	fmt.Fprintln(bw, styleFormat)
	for _, s := range doc.Styles {
		fmt.Fprintln(bw, styleLine(s))
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "[Events]")
	fmt.Fprintln(bw, eventFormat)
	events := slices.Clone(doc.Events)
	slices.SortStableFunc(events, func(a, b layout.Event) int {
		switch {
		case a.StartMs < b.StartMs:
			return -1
		case a.StartMs > b.StartMs:
			return 1
		default:
			return 0
		}
	})
	for _, ev := range events {
		line, ok := eventLine(ev, doc.TotalMs)
		if !ok {
			continue
		}
		fmt.Fprintln(bw, line)
	}
	return bw.Flush()
}

// Render returns the serialized document.
func Render(doc Document) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, doc)
	return buf.Bytes()
}

func styleLine(s Style) string {
	bold := 0
	if s.Bold {
		bold = -1
	}
	border := 1
	back := "&H00000000"
	if s.Box {
		border = 3
		back = Pack(s.BoxColor, s.BoxOpacity)
	}
	return fmt.Sprintf("Style: %s,%s,%d,%s,&H000000FF,&H00000000,%s,%d,0,0,0,100,100,0,0,%d,%d,%d,%d,%d,%d,%d,1",
		s.Name, s.FontName, s.FontSize, Pack(s.Color, s.Opacity), back, bold,
		border, s.Outline, s.Shadow, s.Alignment, s.MarginL, s.MarginR, s.MarginV)
}

func eventLine(ev layout.Event, totalMs int64) (string, bool) {
	if strings.TrimSpace(ev.Text) == "" {
		return "", false
	}
	start := clampMs(ev.StartMs, totalMs)
	end := clampMs(ev.EndMs, totalMs)
	if start/10 >= end/10 {
		return "", false
	}
	return fmt.Sprintf("Dialogue: %d,%s,%s,%s,,0,0,0,,%s%s",
		ev.Layer, Timestamp(start), Timestamp(end), ev.Style, tags(ev.Placement), Escape(ev.Text)), true
}

func clampMs(ms, totalMs int64) int64 {
	if totalMs > 0 {
		ms = min(ms, totalMs)
	}
	return max(ms, 0)
}

func tags(p layout.Placement) string {
	var b strings.Builder
	switch p.Kind {
	case layout.PlacePosition:
		fmt.Fprintf(&b, `\pos(%d,%d)`, p.From.X, p.From.Y)
	case layout.PlaceMove:
		fmt.Fprintf(&b, `\move(%d,%d,%d,%d,0,%d)`, p.From.X, p.From.Y, p.To.X, p.To.Y, p.MoveMs)
	}
	if p.FadeInMs > 0 || p.FadeOutMs > 0 {
		fmt.Fprintf(&b, `\fad(%d,%d)`, p.FadeInMs, p.FadeOutMs)
	}
	if b.Len() == 0 {
		return ""
	}
	return "{" + b.String() + "}"
}

// Timestamp formats ms as H:MM:SS.CC, truncating to centiseconds.
func Timestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	cs := (ms % 1000) / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// wordJoiner follows every literal backslash so libass never reads it as the
// start of an escape such as \n, \N or \h.
const wordJoiner = "\u2060"

var escaper = strings.NewReplacer(
	"\r\n", `\N`,
	"\n", `\N`,
	`\`, `\`+wordJoiner,
	"{", `\{`,
	"}", `\}`,
)

// Escape converts newlines to hard breaks, neutralizes literal backslashes and
// escapes override braces.
func Escape(text string) string {
	return escaper.Replace(text)
}
