package layout

import (
	"fmt"
	"strings"
)

// Kind is the closed set of layout strategies.
type Kind int

const (
	KindScrollingTriptych Kind = iota + 1
	KindInstantSingleLine
	KindPaginatedPanel
)

func (k Kind) String() string {
	switch k {
	case KindScrollingTriptych:
		return "scrolling_triptych"
	case KindInstantSingleLine:
		return "instant_single_line"
	case KindPaginatedPanel:
		return "paginated_panel"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the canonical names and the legacy request aliases.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "scrolling_triptych", "blur_underlay":
		return KindScrollingTriptych, nil
	case "instant_single_line", "vertical_one":
		return KindInstantSingleLine, nil
	case "paginated_panel", "panel_left":
		return KindPaginatedPanel, nil
	default:
		return 0, fmt.Errorf("unknown layout %q", value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindScrollingTriptych, KindInstantSingleLine, KindPaginatedPanel:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown layout %d", int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DefaultKind picks a layout when the request names none: portrait or
// explicitly vertical canvases get a single line, everything else the triptych.
func DefaultKind(width, height int, vertical bool) Kind {
	if vertical || width < height {
		return KindInstantSingleLine
	}
	return KindScrollingTriptych
}
