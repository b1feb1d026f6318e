package pipeline

import (
	"cuecast/internal/ass"
	"cuecast/internal/compositor"
	"cuecast/internal/config"
	"cuecast/internal/encoder"
	"cuecast/internal/layout"
	"cuecast/internal/services"
	"cuecast/internal/timeline"
)

// Overlay is a rendered subtitle document and the plan it came from.
type Overlay struct {
	Plan     layout.Plan
	Document []byte
}

// BuildOverlay choreographs tl with the configured layout and renders the
// subtitle document. It performs no I/O.
func BuildOverlay(s Settings, tl timeline.Timeline) (Overlay, error) {
	plan, err := layout.Choreograph(s.Layout, tl, s.Geometry)
	if err != nil {
		return Overlay{}, services.Wrap(services.ErrValidation, "overlay", s.Layout.String(), "choreograph", err)
	}
	doc := ass.Document{
		Width:   s.Geometry.Width,
		Height:  s.Geometry.Height,
		TotalMs: tl.TotalMs,
		Styles:  s.Theme.Styles(plan.Styles),
		Events:  plan.Events,
	}
	return Overlay{Plan: plan, Document: ass.Render(doc)}, nil
}

// BuildGraph composes the background for tl and appends the layout decorations
// and the burn-in of the document at overlayPath. Span and background image
// references are used as given, so callers localize them first.
func BuildGraph(s Settings, tl timeline.Timeline, overlayPath string) *compositor.Composition {
	spans := s.Spans
	if len(spans) == 0 && s.Background.Image != "" {
		spans = []compositor.Span{{Anchor: 0, Image: s.Background.Image}}
	}
	comp, ok := compositor.Compose(spans, tl.Cues, tl.TotalMs, s.Effects)
	if !ok {
		comp = compositor.Solid(s.Background.ColorHex, tl.TotalMs, s.Effects)
	}

	filters := decorations(s, tl)
	if overlayPath != "" {
		filters = append(filters, compositor.Subtitles(overlayPath))
	}
	comp.Append(filters...)
	return comp
}

func decorations(s Settings, tl timeline.Timeline) []compositor.Filter {
	switch s.Layout {
	case layout.KindScrollingTriptych:
		if s.Box.Opacity <= 0 {
			return nil
		}
		band := layout.TriptychBand(s.Geometry, layout.TriptychRows(tl, s.Geometry))
		return []compositor.Filter{compositor.DrawBox(compositor.Box{
			X: band.X, Y: band.Y, W: band.W, H: band.H,
			Color: s.Box.ColorHex, Opacity: s.Box.Opacity,
		})}
	case layout.KindPaginatedPanel:
		rect := layout.PanelRect(s.Geometry)
		filters := []compositor.Filter{compositor.DrawBox(compositor.Box{
			X: rect.X, Y: rect.Y, W: rect.W, H: rect.H,
			Color: s.Panel.Fill.ColorHex, Opacity: s.Panel.Fill.Opacity,
		})}
		if s.Panel.Divider && rect.W > dividerWidthPx {
			filters = append(filters, compositor.DrawBox(compositor.Box{
				X: rect.X + rect.W - dividerWidthPx, Y: rect.Y, W: dividerWidthPx, H: rect.H,
				Color: s.Panel.Line.ColorHex, Opacity: s.Panel.Line.Opacity,
			}))
		}
		return filters
	case layout.KindInstantSingleLine:
		return nil
	default:
		return nil
	}
}

// EncodePlan assembles the encoder plan for a composition.
func EncodePlan(s Settings, enc config.Encoder, comp *compositor.Composition, audioPath, output string, totalMs int64) encoder.Plan {
	return encoder.Plan{
		Inputs:      comp.Inputs,
		Audio:       audioPath,
		FilterGraph: comp.Graph.String(),
		VideoLabel:  comp.Output,
		DurationMs:  totalMs,
		Output:      output,
		Settings: encoder.Settings{
			VideoCodec:       enc.VideoCodec,
			Preset:           enc.Preset,
			CRF:              enc.CRF,
			AudioCodec:       enc.AudioCodec,
			AudioBitrateKbps: s.AudioBitrateKbps,
			VideoBitrateKbps: s.VideoBitrateKbps,
		},
	}
}
