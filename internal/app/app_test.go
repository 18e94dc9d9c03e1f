package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ielts-coach/internal/evaluation"
	"github.com/abhisek/ielts-coach/internal/llm"
	"github.com/abhisek/ielts-coach/internal/practice"
	"github.com/abhisek/ielts-coach/internal/questions"
	"github.com/abhisek/ielts-coach/internal/screens/home"
)

func testModel(t *testing.T) (AppModel, *practice.Machine) {
	t.Helper()
	eval, err := evaluation.New(llm.NewMockProvider(), evaluation.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, err := practice.New(questions.Default(), eval, practice.DefaultConfig(),
		practice.WithClock(practice.NewManualClock()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Close)
	return newAppModel(Options{Machine: m, Info: home.Info{Questions: 3}, SaveDir: t.TempDir()}), m
}

// feed runs msg through the model and then every message its command
// produces, one level deep.
func feed(t *testing.T, model AppModel, msg tea.Msg) AppModel {
	t.Helper()
	updated, cmd := model.Update(msg)
	model = updated.(AppModel)
	if cmd != nil {
		if next := cmd(); next != nil {
			if _, isBatch := next.(tea.BatchMsg); !isBatch {
				updated, _ = model.Update(next)
				model = updated.(AppModel)
			}
		}
	}
	return model
}

func TestApp_StartAndLeavePractice(t *testing.T) {
	model, machine := testModel(t)
	model = feed(t, model, tea.WindowSizeMsg{Width: 100, Height: 40})

	model = feed(t, model, tea.KeyPressMsg{Code: tea.KeyEnter})
	if model.router.Depth() != 2 {
		t.Fatalf("depth = %d, want 2", model.router.Depth())
	}
	if got := machine.Snapshot().State; got != practice.StateAnswering {
		t.Fatalf("state = %s, want answering", got)
	}

	model = feed(t, model, tea.KeyPressMsg{Code: tea.KeyEscape})
	if model.router.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", model.router.Depth())
	}
	if got := machine.Snapshot().State; got != practice.StateIdle {
		t.Errorf("state = %s, want idle after leaving", got)
	}
}

func TestApp_CtrlCQuits(t *testing.T) {
	model, _ := testModel(t)
	_, cmd := model.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

// View must render at any size, including below the minimum.
func TestApp_TooSmall(t *testing.T) {
	model, _ := testModel(t)
	model.View()
	model = feed(t, model, tea.WindowSizeMsg{Width: 30, Height: 10})
	model.View()
	model = feed(t, model, tea.WindowSizeMsg{Width: 100, Height: 40})
	model.View()
}

func TestRun_RequiresMachine(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Error("expected error without a machine")
	}
}
