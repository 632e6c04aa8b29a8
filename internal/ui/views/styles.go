package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Trigger     lipgloss.Style
	TriggerOpen lipgloss.Style
	Placeholder lipgloss.Style
	Tag         lipgloss.Style
	Clear       lipgloss.Style
	Dropdown    lipgloss.Style
	Dim         lipgloss.Style
	Help        lipgloss.Style
	Scroll      lipgloss.Style
	Highlight   lipgloss.Style
	SelectionBg lipgloss.Style
	Checked     lipgloss.Style
	StatusError lipgloss.Style
	Loading     lipgloss.Style
	Notice      lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Trigger: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		TriggerOpen: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Tag: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238")).
			Padding(0, 1),
		Clear: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Dropdown: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		Dim:         lipgloss.NewStyle().Faint(true),
		Help:        lipgloss.NewStyle().Faint(true),
		Scroll:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		SelectionBg: lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Checked:     lipgloss.NewStyle().Foreground(lipgloss.Color("78")), // green
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Loading:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		Notice:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
	}
}
