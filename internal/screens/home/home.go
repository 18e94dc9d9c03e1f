package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ielts-coach/internal/router"
	"github.com/abhisek/ielts-coach/internal/screen"
	"github.com/abhisek/ielts-coach/internal/ui/components"
	"github.com/abhisek/ielts-coach/internal/ui/layout"
	"github.com/abhisek/ielts-coach/internal/ui/theme"
)

// Info describes the practice setup shown on the home screen.
type Info struct {
	Questions int
	Parts     string
	Duration  string
	Model     string
}

// HomeScreen is the idle screen: what will be practised and a menu to start.
type HomeScreen struct {
	menu components.Menu
	info Info
}

var (
	_ screen.Screen          = (*HomeScreen)(nil)
	_ screen.KeyHintProvider = (*HomeScreen)(nil)
)

// New creates a HomeScreen. startPractice builds the screen pushed when the
// user starts practising.
func New(startPractice func() screen.Screen, info Info) *HomeScreen {
	items := []components.MenuItem{
		{Label: "Start practice", Shortcut: "s", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: startPractice()}
			}
		}},
		{Label: "Quit", Shortcut: "q", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	return &HomeScreen{menu: components.NewMenu(items), info: info}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := layout.IsCompactHeight(height+layout.HeaderHeight+layout.FooterHeight) ||
		layout.IsCompactWidth(width)
	cw := components.ContentWidth(width)

	sections := []string{
		renderBanner(cw, compact),
		theme.Subtitle.Width(cw).Render("Speaking practice with instant band feedback"),
		h.renderInfo(cw),
		lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(h.menu.View()),
	}
	return components.Centered(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) renderInfo(cw int) string {
	lines := []string{
		fmt.Sprintf("%s  %d questions (%s)", theme.Label.Render("Bank"), h.info.Questions, h.info.Parts),
		fmt.Sprintf("%s  %s to answer each question", theme.Label.Render("Time"), h.info.Duration),
	}
	if h.info.Model != "" {
		lines = append(lines, fmt.Sprintf("%s %s", theme.Label.Render("Model"), h.info.Model))
	}
	return components.Card("", strings.Join(lines, "\n"), cw)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
