package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"cuecast/internal/services"
	"cuecast/internal/timeline"
)

// JobRequest is the submission envelope.
type JobRequest struct {
	Render *Request `json:"render"`
}

// Request describes one render. Zero and nil fields take the documented defaults.
type Request struct {
	AudioURL         string            `json:"audioUrl"`
	CuesURL          string            `json:"cuesUrl,omitempty"`
	Cues             *timeline.Payload `json:"cues,omitempty"`
	Lines            []string          `json:"lines"`
	Resolution       *Resolution       `json:"resolution,omitempty"`
	FPS              int               `json:"fps,omitempty"`
	VideoBitrateKbps int               `json:"videoBitrateKbps,omitempty"`
	AudioBitrateKbps int               `json:"audioBitrateKbps,omitempty"`
	OverlayStyle     *OverlayStyle     `json:"overlayStyle,omitempty"`
	Background       *Background       `json:"background,omitempty"`
	Vertical         bool              `json:"vertical,omitempty"`
	BackgroundSpans  []BackgroundSpan  `json:"backgroundSpans,omitempty"`
	Effects          *Effects          `json:"effects,omitempty"`
	Layout           string            `json:"layout,omitempty"`
	VisibleLines     *int              `json:"visibleLines,omitempty"`
	Panel            *Panel            `json:"panel,omitempty"`
}

// Resolution is the output canvas size.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LineStyle is the look of one prominence level.
type LineStyle struct {
	ColorHex string   `json:"colorHex,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Bold     *bool    `json:"bold,omitempty"`
}

// OverlayStyle controls fonts, spacing and colors of the text overlay.
type OverlayStyle struct {
	FontFamily    string     `json:"fontFamily,omitempty"`
	FontSizePx    int        `json:"fontSizePx,omitempty"`
	LineSpacingPx *int       `json:"lineSpacingPx,omitempty"`
	PaddingTop    *int       `json:"paddingTop,omitempty"`
	PaddingRight  *int       `json:"paddingRight,omitempty"`
	PaddingBottom *int       `json:"paddingBottom,omitempty"`
	PaddingLeft   *int       `json:"paddingLeft,omitempty"`
	Shadow        *bool      `json:"shadow,omitempty"`
	BoxColor      string     `json:"boxColor,omitempty"`
	BoxOpacity    *float64   `json:"boxOpacity,omitempty"`
	Align         string     `json:"align,omitempty"`
	Previous      *LineStyle `json:"previous,omitempty"`
	Current       *LineStyle `json:"current,omitempty"`
	Next          *LineStyle `json:"next,omitempty"`
	Dimmed        *LineStyle `json:"dimmed,omitempty"`
}

// Background is the static background used when no spans are given.
type Background struct {
	ColorHex string `json:"colorHex,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// BackgroundSpan shows an image starting at the cue with index AnchorIdx.
type BackgroundSpan struct {
	AnchorIdx int    `json:"anchorIdx"`
	ImageURL  string `json:"imageUrl"`
}

// Effects groups the background effects.
type Effects struct {
	Transition *TransitionSpec `json:"transition,omitempty"`
	Motion     *MotionSpec     `json:"motion,omitempty"`
}

// TransitionSpec configures cross-fades between background clips.
type TransitionSpec struct {
	Type             string   `json:"type,omitempty"`
	DurationSec      *float64 `json:"durationSec,omitempty"`
	CenterOnBoundary *bool    `json:"centerOnBoundary,omitempty"`
}

// MotionSpec configures the slow zoom on long clips.
type MotionSpec struct {
	Enabled    bool     `json:"enabled,omitempty"`
	MaxZoom    *float64 `json:"maxZoom,omitempty"`
	MinSpanSec *float64 `json:"minSpanSec,omitempty"`
}

// Panel sizes and paints the side panel of the paginated layout.
type Panel struct {
	WidthPct       *float64         `json:"widthPct,omitempty"`
	InnerPaddingPx *int             `json:"innerPaddingPx,omitempty"`
	Background     *PanelBackground `json:"background,omitempty"`
}

// PanelBackground is the solid fill behind the panel text.
type PanelBackground struct {
	ColorHex        string   `json:"colorHex,omitempty"`
	Opacity         *float64 `json:"opacity,omitempty"`
	DividerRight    *bool    `json:"dividerRight,omitempty"`
	DividerColorHex string   `json:"dividerColorHex,omitempty"`
	DividerOpacity  *float64 `json:"dividerOpacity,omitempty"`
}

// DecodeRequest reads a job document. JSON and YAML are both accepted; YAML
// documents use the same field names as JSON.
func DecodeRequest(data []byte) (Request, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Request{}, services.Wrap(services.ErrValidation, "request", "decode", "empty document", nil)
	}
	if trimmed[0] != '{' {
		converted, err := yamlToJSON(trimmed)
		if err != nil {
			return Request{}, services.Wrap(services.ErrValidation, "request", "decode", "invalid yaml", err)
		}
		trimmed = converted
	}

	var envelope JobRequest
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return Request{}, services.Wrap(services.ErrValidation, "request", "decode", "invalid json", err)
	}
	if envelope.Render == nil {
		return Request{}, services.Wrap(services.ErrValidation, "request", "decode", "missing render object", nil)
	}
	return *envelope.Render, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, errors.New("document must be a mapping")
	}
	normalized, err := stringKeys(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// stringKeys converts nested yaml mappings with non-string keys into JSON
// compatible maps.
func stringKeys(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			conv, err := stringKeys(child)
			if err != nil {
				return nil, err
			}
			t[k] = conv
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			conv, err := stringKeys(child)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = conv
		}
		return out, nil
	case []any:
		for i, child := range t {
			conv, err := stringKeys(child)
			if err != nil {
				return nil, err
			}
			t[i] = conv
		}
		return t, nil
	default:
		return v, nil
	}
}
