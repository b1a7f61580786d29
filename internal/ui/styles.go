package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - single violet accent, everything else neutral.
const (
	ColorViolet   = "135" // Primary accent - tags, highlights
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, counts, paths
	ColorDarkGray = "238" // Separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds the render styles for terminal output.
type Styles struct {
	Header    lipgloss.Style
	Tag       lipgloss.Style
	Highlight lipgloss.Style
	Count     lipgloss.Style
	Path      lipgloss.Style
	Dim       lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles returns styled components for interactive terminals.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Tag:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorViolet)),
		Highlight: lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color(ColorViolet)),
		Count:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Path:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// NoColorStyles returns unstyled components for plain output.
func NoColorStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Tag:       lipgloss.NewStyle(),
		Highlight: lipgloss.NewStyle(),
		Count:     lipgloss.NewStyle(),
		Path:      lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
