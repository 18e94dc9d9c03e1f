package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ielts-coach/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for all sections of a
// screen so that stacked boxes line up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Centered places content in the middle of a width x height area.
func Centered(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// Card wraps content in a rounded-border card at the given content width,
// with an optional title line.
func Card(title, content string, cw int) string {
	if title != "" {
		content = theme.Label.Render(title) + "\n\n" + content
	}
	return theme.Card.
		Width(cw).
		Render(content)
}
