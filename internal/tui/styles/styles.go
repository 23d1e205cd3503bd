package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// --- Typography ---

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(White)

	Label = lipgloss.NewStyle().
		Foreground(Gray).
		Bold(true)

	Value = lipgloss.NewStyle().
		Foreground(White)

	// MutedText is for hints and secondary details.
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	AccentText = lipgloss.NewStyle().
			Foreground(Blue)

	ErrorText = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	SuccessText = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	WarningText = lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true)
)

// Card frames a summary block.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(DimGray).
	Padding(0, 1)

// StatusStyle colors a resource status. Settled states are green,
// transitional ones yellow and failures red.
func StatusStyle(status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case "active", "available", "in-use":
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	case "build", "pending_update", "creating":
		return lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	case "error":
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	case "deleted":
		return lipgloss.NewStyle().Foreground(Red)
	default:
		return lipgloss.NewStyle().Foreground(Gray)
	}
}

// StatusIndicator renders a colored dot followed by the status.
func StatusIndicator(status string) string {
	style := StatusStyle(status)
	return style.Render("●") + " " + style.Render(status)
}

// ActionStyle colors a cleanup action label.
func ActionStyle(action string) lipgloss.Style {
	switch action {
	case "deleted":
		return SuccessText
	case "would delete":
		return AccentText
	case "failed":
		return ErrorText
	default:
		return MutedText
	}
}

// KeyValues renders aligned "label  value" lines.
func KeyValues(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		label := Label.Width(width + 2).Render(p[0])
		lines = append(lines, label+Value.Render(p[1]))
	}
	return strings.Join(lines, "\n")
}
