package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/ielts-coach/internal/practice"
	"github.com/abhisek/ielts-coach/internal/ui/theme"
)

// Countdown renders the remaining answer time as MM:SS next to a draining
// bar. The last twenty seconds are shown in red.
type Countdown struct {
	Remaining int
	Total     int
	Width     int
}

func (c Countdown) Urgent() bool {
	return c.Remaining < 20
}

func (c Countdown) View() string {
	clockStyle, fill := theme.Clock, theme.ProgressFilled
	if c.Urgent() {
		clockStyle, fill = theme.ClockUrgent, theme.ProgressUrgent
	}
	clock := clockStyle.Render("⏱ " + practice.FormatClock(c.Remaining))

	barWidth := c.Width - lipgloss.Width(clock) - 2
	if barWidth < 4 {
		barWidth = 4
	}
	percent := 0.0
	if c.Total > 0 {
		percent = float64(c.Remaining) / float64(c.Total)
	}
	filled := int(float64(barWidth) * percent)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	return clock + "  " +
		fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))
}
