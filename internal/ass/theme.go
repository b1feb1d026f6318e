package ass

import "cuecast/internal/layout"

// LevelStyle is the look of one prominence level.
type LevelStyle struct {
	Color   Color
	Opacity float64
	Bold    bool
}

// Theme is the shared look of every style in a document.
type Theme struct {
	FontName   string
	FontSize   int
	Shadow     bool
	Box        bool
	BoxColor   Color
	BoxOpacity float64
	MarginL    int
	MarginR    int
	Levels     map[layout.Level]LevelStyle
}

// Styles resolves the style references of a plan against the theme.
func (t Theme) Styles(refs []layout.StyleRef) []Style {
	styles := make([]Style, 0, len(refs))
	for _, ref := range refs {
		level := t.Levels[ref.Level]
		shadow := 0
		if t.Shadow {
			shadow = 2
		}
		styles = append(styles, Style{
			Name:       ref.Name,
			FontName:   t.FontName,
			FontSize:   t.FontSize,
			Color:      level.Color,
			Opacity:    level.Opacity,
			Bold:       level.Bold,
			Box:        t.Box,
			BoxColor:   t.BoxColor,
			BoxOpacity: t.BoxOpacity,
			Outline:    2,
			Shadow:     shadow,
			Alignment:  ref.Alignment,
			MarginL:    t.MarginL,
			MarginR:    t.MarginR,
			MarginV:    ref.MarginV,
		})
	}
	return styles
}
