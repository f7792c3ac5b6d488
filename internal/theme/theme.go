package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastui/internal/config"
	"github.com/jmylchreest/toastui/internal/model"
)

// Style is the set of lipgloss styles for one toast kind.
type Style struct {
	Box      lipgloss.Style
	Icon     lipgloss.Style
	Title    lipgloss.Style
	Message  lipgloss.Style
	Meta     lipgloss.Style
	Close    lipgloss.Style
	IconText string
	Bar      lipgloss.Color // progress bar fill
}

// Theme maps each kind to its Style.
type Theme struct {
	styles map[model.Kind]Style
	width  int
}

// New builds a Theme from the [theme] and [display] config sections.
func New(cfg *config.Config) *Theme {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	t := &Theme{
		styles: make(map[model.Kind]Style, len(model.Kinds())),
		width:  cfg.Display.Width,
	}
	for _, kind := range model.Kinds() {
		t.styles[kind] = newStyle(cfg.StyleFor(kind), cfg.Display.Width)
	}
	return t
}

func newStyle(ks config.KindStyle, width int) Style {
	fg := lipgloss.Color(ks.Foreground)
	bg := lipgloss.Color(ks.Background)
	border := lipgloss.Color(ks.Border)

	icon := ks.Icon
	if icon == "" {
		icon = "•"
	}

	return Style{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Background(bg).
			Padding(0, 1).
			Width(width),
		Icon: lipgloss.NewStyle().
			Foreground(fg).
			Bold(true).
			Padding(0, 1).
			MarginRight(1),
		Title: lipgloss.NewStyle().
			Foreground(fg).
			Bold(true),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8FA8C0")),
		Meta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#556070")).
			Italic(true),
		Close: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#556070")),
		IconText: icon,
		Bar:      fg,
	}
}

// For returns the Style for kind. Unknown kinds use the info style.
func (t *Theme) For(kind model.Kind) Style {
	if s, ok := t.styles[kind]; ok {
		return s
	}
	return t.styles[model.KindInfo]
}

// Width returns the configured toast width in cells.
func (t *Theme) Width() int {
	return t.width
}
