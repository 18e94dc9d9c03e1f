package home

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ielts-coach/internal/router"
	"github.com/abhisek/ielts-coach/internal/screen"
)

type stubScreen struct{}

func (stubScreen) Init() tea.Cmd                             { return nil }
func (s stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (stubScreen) View(int, int) string                      { return "practice" }
func (stubScreen) Title() string                             { return "Practice" }

func testHome() *HomeScreen {
	return New(func() screen.Screen { return stubScreen{} }, Info{
		Questions: 12,
		Parts:     "Part 1, Part 3",
		Duration:  "03:00",
		Model:     "gemini-2.5-flash",
	})
}

func TestHome_View(t *testing.T) {
	view := testHome().View(100, 34)
	for _, want := range []string{"12 questions", "Part 1, Part 3", "Start practice", "gemini-2.5-flash"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in home view", want)
		}
	}
}

func TestHome_StartPushesPractice(t *testing.T) {
	h := testHome()
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}
	if msg.Screen.Title() != "Practice" {
		t.Errorf("pushed %q", msg.Screen.Title())
	}
}

func TestHome_QuitItem(t *testing.T) {
	h := testHome()
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestHome_Shortcuts(t *testing.T) {
	h := testHome()
	_, cmd := h.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected QuitMsg, got %T", cmd())
	}

	_, cmd = h.Update(tea.KeyPressMsg{Code: 's', Text: "s"})
	if cmd == nil {
		t.Fatal("expected start command")
	}
	if _, ok := cmd().(router.PushScreenMsg); !ok {
		t.Errorf("expected PushScreenMsg, got %T", cmd())
	}
}

func TestHome_MenuWraps(t *testing.T) {
	h := testHome()
	h.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if h.menu.Selected != 1 {
		t.Errorf("selected = %d after up from first item, want 1", h.menu.Selected)
	}
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if h.menu.Selected != 0 {
		t.Errorf("selected = %d after wrapping down, want 0", h.menu.Selected)
	}
}
