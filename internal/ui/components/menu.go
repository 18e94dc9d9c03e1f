package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ielts-coach/internal/ui/theme"
)

// MenuItem is one entry of a Menu. Shortcut, when set, activates the item
// directly.
type MenuItem struct {
	Label    string
	Shortcut string
	Action   func() tea.Cmd
}

// Menu is a vertical list of actions. Selection wraps around at both ends.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	return Menu{Items: items}
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}

	switch k := key.String(); k {
	case "up", "k":
		m.Selected = (m.Selected - 1 + len(m.Items)) % len(m.Items)
	case "down", "j", "tab":
		m.Selected = (m.Selected + 1) % len(m.Items)
	case "enter", "space":
		return m, m.activate(m.Selected)
	default:
		for i, item := range m.Items {
			if item.Shortcut != "" && item.Shortcut == k {
				m.Selected = i
				return m, m.activate(i)
			}
		}
	}
	return m, nil
}

func (m Menu) activate(i int) tea.Cmd {
	if i < 0 || i >= len(m.Items) || m.Items[i].Action == nil {
		return nil
	}
	return m.Items[i].Action()
}

func (m Menu) View() string {
	var b strings.Builder
	for i, item := range m.Items {
		var hint string
		if item.Shortcut != "" {
			hint = theme.Hint.Render(" (" + item.Shortcut + ")")
		}
		if i == m.Selected {
			b.WriteString(theme.MenuSelected.Render("▸ " + item.Label))
		} else {
			b.WriteString(theme.MenuItem.Render("  " + item.Label))
		}
		b.WriteString(hint)
		if i < len(m.Items)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
