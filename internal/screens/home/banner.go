package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ielts-coach/internal/ui/theme"
)

const bannerArt = `██╗███████╗██╗  ████████╗███████╗
██║██╔════╝██║  ╚══██╔══╝██╔════╝
██║█████╗  ██║     ██║   ███████╗
██║██╔══╝  ██║     ██║   ╚════██║
██║███████╗███████╗██║   ███████║
╚═╝╚══════╝╚══════╝╚═╝   ╚══════╝`

const bannerCompact = "I · E · L · T · S"

// renderBanner returns the title block, falling back to a single line when
// the terminal is short or narrow.
func renderBanner(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	art := bannerArt
	if compact || cw < 36 {
		art = bannerCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(art))
}
