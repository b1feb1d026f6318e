package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"cuecast/internal/ass"
	"cuecast/internal/compositor"
	"cuecast/internal/layout"
	"cuecast/internal/services"
	"cuecast/internal/textwrap"
	"cuecast/internal/timeline"
)

// Request defaults.
const (
	DefaultWidth            = 1080
	DefaultHeight           = 1920
	DefaultFPS              = 30
	DefaultAudioBitrateKbps = 192
	DefaultVideoBitrateKbps = 6000
	DefaultFontFamily       = "Inter"
	DefaultFontSizePx       = 54
	DefaultLineSpacingPx    = 10
	DefaultPaddingTop       = 64
	DefaultPaddingRight     = 64
	DefaultPaddingBottom    = 220
	DefaultPaddingLeft      = 64
	DefaultBoxColor         = "#000000"
	DefaultBoxOpacity       = 0.35
	DefaultBackgroundColor  = "#000000"
	DefaultTransitionType   = "fade"
	DefaultTransitionSec    = 0.40
	DefaultMotionMaxZoom    = 1.015
	DefaultMotionMinSpanSec = 4.0
	DefaultPanelWidthPct    = 0.36
	DefaultPanelPaddingPx   = 48
	DefaultPanelColor       = "#141416"
	DefaultPanelOpacity     = 0.96
	DefaultDividerColor     = "#FFFFFF"
	DefaultDividerOpacity   = 0.12
	DefaultVisibleLines     = 6

	dividerWidthPx = 2
)

var transitionName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Settings is a fully defaulted, validated request. It is resolved once per
// job and passed by value afterwards.
type Settings struct {
	AudioSource      string
	CuesSource       string
	InlineCues       *timeline.Payload
	Lines            []string
	FPS              int
	VideoBitrateKbps int
	AudioBitrateKbps int
	Layout           layout.Kind
	Geometry         layout.Options
	Theme            ass.Theme
	Box              PaintSettings
	Background       BackgroundSettings
	Spans            []compositor.Span
	Effects          compositor.Options
	Panel            PanelSettings
}

// PaintSettings is a color with opacity.
type PaintSettings struct {
	ColorHex string
	Opacity  float64
}

// BackgroundSettings is the static background.
type BackgroundSettings struct {
	ColorHex string
	Image    string
}

// PanelSettings paints the paginated panel.
type PanelSettings struct {
	Fill    PaintSettings
	Divider bool
	Line    PaintSettings
}

// Resolve applies defaults to req and validates the result.
func Resolve(req Request, metrics textwrap.Metrics) (Settings, error) {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	s := Settings{
		AudioSource:      strings.TrimSpace(req.AudioURL),
		CuesSource:       strings.TrimSpace(req.CuesURL),
		InlineCues:       req.Cues,
		Lines:            req.Lines,
		FPS:              orInt(req.FPS, DefaultFPS),
		VideoBitrateKbps: orInt(req.VideoBitrateKbps, DefaultVideoBitrateKbps),
		AudioBitrateKbps: orInt(req.AudioBitrateKbps, DefaultAudioBitrateKbps),
	}

	if s.AudioSource == "" {
		fail("audioUrl is required")
	}
	if s.InlineCues == nil && s.CuesSource == "" {
		fail("cuesUrl is required when cues is absent")
	}
	if len(s.Lines) == 0 {
		fail("lines must not be empty")
	}
	if s.InlineCues != nil && len(s.InlineCues.Items) != len(s.Lines) {
		fail("lines count (%d) must match cues (%d)", len(s.Lines), len(s.InlineCues.Items))
	}

	width, height := DefaultWidth, DefaultHeight
	if req.Resolution != nil {
		width, height = req.Resolution.Width, req.Resolution.Height
		if width <= 0 || height <= 0 {
			fail("resolution must be positive: %dx%d", width, height)
		}
	}
	if s.FPS < 0 || s.FPS > 120 {
		fail("fps must be between 1 and 120")
	}
	if s.VideoBitrateKbps < 0 || s.AudioBitrateKbps < 0 {
		fail("bitrates must not be negative")
	}

	style := req.OverlayStyle
	if style == nil {
		style = &OverlayStyle{}
	}
	fontSize := orInt(style.FontSizePx, DefaultFontSizePx)
	if fontSize < 0 {
		fail("fontSizePx must be positive")
	}
	align := layout.AlignCenter
	switch strings.ToUpper(strings.TrimSpace(style.Align)) {
	case "", "CENTER":
	case "LEFT":
		align = layout.AlignLeft
	default:
		fail("align must be LEFT or CENTER, got %q", style.Align)
	}

	kind := layout.DefaultKind(width, height, req.Vertical)
	if strings.TrimSpace(req.Layout) != "" {
		parsed, err := layout.ParseKind(req.Layout)
		if err != nil {
			fail("%v", err)
		} else {
			kind = parsed
		}
	}
	s.Layout = kind

	visible := DefaultVisibleLines
	if req.VisibleLines != nil {
		visible = *req.VisibleLines
		if visible <= 0 {
			fail("visibleLines must be positive, got %d", visible)
		}
	}

	panel := req.Panel
	if panel == nil {
		panel = &Panel{}
	}
	panelPct := orFloat(panel.WidthPct, DefaultPanelWidthPct)
	if panelPct <= 0 || panelPct >= 1 {
		fail("panel.widthPct must be within (0,1), got %.2f", panelPct)
	}

	s.Geometry = layout.Options{
		Width:       width,
		Height:      height,
		FontSize:    fontSize,
		LineSpacing: orPtr(style.LineSpacingPx, DefaultLineSpacingPx),
		Padding: layout.Padding{
			Top:    orPtr(style.PaddingTop, DefaultPaddingTop),
			Right:  orPtr(style.PaddingRight, DefaultPaddingRight),
			Bottom: orPtr(style.PaddingBottom, DefaultPaddingBottom),
			Left:   orPtr(style.PaddingLeft, DefaultPaddingLeft),
		},
		Align:        align,
		Metrics:      metrics,
		VisibleLines: visible,
		Panel: layout.PanelOptions{
			WidthPct:     panelPct,
			InnerPadding: orPtr(panel.InnerPaddingPx, DefaultPanelPaddingPx),
		},
	}

	levels := map[layout.Level]ass.LevelStyle{}
	for _, lv := range []struct {
		level    layout.Level
		in       *LineStyle
		fallback ass.LevelStyle
	}{
		{layout.LevelPrevious, style.Previous, ass.LevelStyle{Color: ass.MustColor("#FFFFFF"), Opacity: 0.55}},
		{layout.LevelCurrent, style.Current, ass.LevelStyle{Color: ass.MustColor("#FFFFFF"), Opacity: 1, Bold: true}},
		{layout.LevelNext, style.Next, ass.LevelStyle{Color: ass.MustColor("#FFFFFF"), Opacity: 0.7}},
		{layout.LevelDimmed, style.Dimmed, ass.LevelStyle{Color: ass.MustColor("#FFFFFF"), Opacity: 0.45}},
	} {
		resolved, err := resolveLine(lv.in, lv.fallback)
		if err != nil {
			fail("%s style: %v", lv.level, err)
		}
		levels[lv.level] = resolved
	}

	s.Box = PaintSettings{
		ColorHex: normalizeColor(fail, "boxColor", orString(style.BoxColor, DefaultBoxColor)),
		Opacity:  clampUnit(orFloat(style.BoxOpacity, DefaultBoxOpacity)),
	}
	boxColor, _ := ass.ParseColor(s.Box.ColorHex)
	s.Theme = ass.Theme{
		FontName:   orString(style.FontFamily, DefaultFontFamily),
		FontSize:   fontSize,
		Shadow:     orBool(style.Shadow, true),
		Box:        kind == layout.KindInstantSingleLine && s.Box.Opacity > 0,
		BoxColor:   boxColor,
		BoxOpacity: s.Box.Opacity,
		MarginL:    s.Geometry.Padding.Left,
		MarginR:    s.Geometry.Padding.Right,
		Levels:     levels,
	}

	bg := req.Background
	if bg == nil {
		bg = &Background{}
	}
	s.Background = BackgroundSettings{
		ColorHex: normalizeColor(fail, "background.colorHex", orString(bg.ColorHex, DefaultBackgroundColor)),
		Image:    strings.TrimSpace(bg.ImageURL),
	}

	for i, span := range req.BackgroundSpans {
		if strings.TrimSpace(span.ImageURL) == "" {
			fail("backgroundSpans[%d].imageUrl is required", i)
			continue
		}
		s.Spans = append(s.Spans, compositor.Span{Anchor: span.AnchorIdx, Image: strings.TrimSpace(span.ImageURL)})
	}

	effects := req.Effects
	if effects == nil {
		effects = &Effects{}
	}
	transition := effects.Transition
	if transition == nil {
		transition = &TransitionSpec{}
	}
	transitionType := strings.ToLower(orString(transition.Type, DefaultTransitionType))
	if !transitionName.MatchString(transitionType) {
		fail("transition.type %q is not a valid name", transition.Type)
	}
	transitionSec := orFloat(transition.DurationSec, DefaultTransitionSec)
	if transitionSec < 0 {
		fail("transition.durationSec must not be negative")
	}
	motion := effects.Motion
	if motion == nil {
		motion = &MotionSpec{}
	}
	maxZoom := orFloat(motion.MaxZoom, DefaultMotionMaxZoom)
	if maxZoom < 1 {
		fail("motion.maxZoom must be at least 1")
	}
	s.Effects = compositor.Options{
		Width:  width,
		Height: height,
		FPS:    s.FPS,
		Transition: compositor.Transition{
			Type:       transitionType,
			DurationMs: secondsToMs(transitionSec),
			Centered:   orBool(transition.CenterOnBoundary, true),
		},
		Motion: compositor.Motion{
			Enabled:   motion.Enabled,
			MaxZoom:   maxZoom,
			MinSpanMs: secondsToMs(orFloat(motion.MinSpanSec, DefaultMotionMinSpanSec)),
		},
	}

	pb := panel.Background
	if pb == nil {
		pb = &PanelBackground{}
	}
	s.Panel = PanelSettings{
		Fill: PaintSettings{
			ColorHex: normalizeColor(fail, "panel.background.colorHex", orString(pb.ColorHex, DefaultPanelColor)),
			Opacity:  clampUnit(orFloat(pb.Opacity, DefaultPanelOpacity)),
		},
		Divider: orBool(pb.DividerRight, true),
		Line: PaintSettings{
			ColorHex: normalizeColor(fail, "panel.background.dividerColorHex", orString(pb.DividerColorHex, DefaultDividerColor)),
			Opacity:  clampUnit(orFloat(pb.DividerOpacity, DefaultDividerOpacity)),
		},
	}

	if len(problems) > 0 {
		return Settings{}, services.Wrap(services.ErrValidation, "request", "resolve", strings.Join(problems, "; "), nil)
	}
	return s, nil
}

func resolveLine(in *LineStyle, fallback ass.LevelStyle) (ass.LevelStyle, error) {
	if in == nil {
		return fallback, nil
	}
	out := fallback
	if in.ColorHex != "" {
		c, err := ass.ParseColor(in.ColorHex)
		if err != nil {
			return fallback, err
		}
		out.Color = c
	}
	out.Opacity = clampUnit(orFloat(in.Opacity, fallback.Opacity))
	out.Bold = orBool(in.Bold, fallback.Bold)
	return out, nil
}

// normalizeColor returns value as "#RRGGBB", recording a problem when it does not parse.
func normalizeColor(fail func(string, ...any), field, value string) string {
	c, err := ass.ParseColor(value)
	if err != nil {
		fail("%s: %v", field, err)
		return value
	}
	return c.Hex()
}

func secondsToMs(sec float64) int64 {
	return int64(math.Round(sec * 1000))
}

func clampUnit(v float64) float64 {
	return min(max(v, 0), 1)
}

func orInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func orPtr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func orFloat(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func orBool(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func orString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}
