package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ielts-coach/internal/ui/theme"
)

// AnswerInput wraps bubbles/textinput. A locked input keeps its text but
// ignores key presses.
type AnswerInput struct {
	Model  textinput.Model
	locked bool
}

func NewAnswerInput(placeholder string) AnswerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	ti.Focus()
	return AnswerInput{Model: ti}
}

func (a AnswerInput) Init() tea.Cmd {
	return a.Model.Focus()
}

// Update forwards msg to the text input unless the input is locked.
func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	if a.locked {
		if _, ok := msg.(tea.KeyMsg); ok {
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

func (a AnswerInput) View() string {
	if a.locked {
		text := a.Model.Value()
		if text == "" {
			text = "(no answer)"
		}
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render("› " + text)
	}
	return a.Model.View()
}

func (a AnswerInput) Value() string {
	return a.Model.Value()
}

func (a *AnswerInput) SetValue(s string) {
	a.Model.SetValue(s)
}

// Lock freezes the input.
func (a *AnswerInput) Lock() {
	a.locked = true
	a.Model.Blur()
}

func (a AnswerInput) Locked() bool {
	return a.locked
}
