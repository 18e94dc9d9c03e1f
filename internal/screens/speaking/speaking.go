// Package speaking is the practice screen: question, timed answer,
// evaluation and the recording controls shown with a result.
package speaking

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ielts-coach/internal/practice"
	"github.com/abhisek/ielts-coach/internal/recorder"
	"github.com/abhisek/ielts-coach/internal/screen"
	"github.com/abhisek/ielts-coach/internal/ui/components"
	"github.com/abhisek/ielts-coach/internal/ui/layout"
)

const spinnerInterval = 120 * time.Millisecond

// Screen drives a practice.Machine from the keyboard.
type Screen struct {
	machine *practice.Machine
	saveDir string

	snap    practice.Snapshot
	input   components.AnswerInput
	sub     <-chan practice.Snapshot
	cancel  func()
	spinner int
	notice  string
	errMsg  string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
	_ screen.Disposer        = (*Screen)(nil)
)

// New creates the screen. Saved recordings go to saveDir, or the working
// directory when it is empty.
func New(machine *practice.Machine, saveDir string) *Screen {
	if saveDir == "" {
		saveDir = "."
	}
	return &Screen{
		machine: machine,
		saveDir: saveDir,
		input:   components.NewAnswerInput("Type your answer..."),
	}
}

func (s *Screen) Init() tea.Cmd {
	s.sub, s.cancel = s.machine.Subscribe()
	if _, err := s.machine.Start(); err != nil {
		s.errMsg = err.Error()
		return nil
	}
	return tea.Batch(s.waitForSnapshot(), s.input.Init())
}

func (s *Screen) Title() string {
	return "Speaking Practice"
}

func (s *Screen) Status() string {
	if s.snap.Question == nil {
		return ""
	}
	part := string(s.snap.Question.Part)
	if s.snap.State == practice.StateAnswering {
		return part + " · " + s.snap.Clock()
	}
	return part
}

// Dispose abandons the session and ends the subscription.
func (s *Screen) Dispose() {
	if s.cancel != nil {
		s.cancel()
	}
	s.machine.Reset()
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.snap.State {
	case practice.StateAnswering:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Ctrl+N", Description: "Skip question"},
			{Key: "Esc", Description: "Home"},
		}
	case practice.StateEvaluating:
		return []layout.KeyHint{
			{Key: "Esc", Description: "Home"},
		}
	case practice.StateResult:
		hints := []layout.KeyHint{{Key: "N", Description: "Try another question"}}
		if s.snap.Recording != nil {
			hints = append(hints,
				layout.KeyHint{Key: "R", Description: "Record"},
				layout.KeyHint{Key: "S", Description: "Stop"},
				layout.KeyHint{Key: "D", Description: "Save audio"},
			)
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Home"})
	default:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Home"},
		}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		prev := s.snap.State
		s.apply(practice.Snapshot(msg))
		if s.snap.State == practice.StateEvaluating && prev != practice.StateEvaluating {
			s.spinner = 0
			return s, tea.Batch(s.waitForSnapshot(), spinnerTick())
		}
		return s, s.waitForSnapshot()

	case subscriptionClosedMsg:
		return s, nil

	case spinnerTickMsg:
		if s.snap.State != practice.StateEvaluating {
			return s, nil
		}
		s.spinner++
		return s, spinnerTick()

	case evaluatedMsg, recordingMsg:
		// Outcomes are reflected by the next snapshot.
		return s, nil

	case savedMsg:
		if msg.Err != nil {
			s.notice = "Could not save the recording: " + practice.Message(msg.Err)
		} else {
			s.notice = "Saved to " + msg.Path
		}
		return s, nil

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.snap.State == practice.StateAnswering {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) apply(snap practice.Snapshot) {
	if snap.SessionID != s.snap.SessionID {
		s.input = components.NewAnswerInput("Type your answer...")
		s.input.SetValue(snap.Answer)
		s.notice = ""
	}
	if snap.State == practice.StateAnswering && !snap.CanEdit && !s.input.Locked() {
		s.input.Lock()
	}
	s.snap = snap
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if s.errMsg != "" {
		return s, nil
	}

	key := msg.String()
	switch s.snap.State {
	case practice.StateIdle:
		if key == "enter" {
			return s, s.start()
		}

	case practice.StateAnswering:
		switch key {
		case "enter":
			return s, s.submit()
		case "ctrl+n":
			return s, s.start()
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		s.syncAnswer()
		return s, cmd

	case practice.StateResult:
		switch key {
		case "n", "N", "enter":
			return s, s.start()
		case "r", "R":
			return s, s.toggleRecording()
		case "s", "S":
			return s, s.stopRecording()
		case "d", "D":
			return s, s.save()
		}
	}
	return s, nil
}

func (s *Screen) syncAnswer() {
	if s.input.Locked() || s.input.Value() == s.snap.Answer {
		return
	}
	// ErrInputClosed is shown through the next snapshot.
	_ = s.machine.SetAnswer(s.input.Value())
}

func (s *Screen) start() tea.Cmd {
	if _, err := s.machine.Start(); err != nil {
		s.errMsg = err.Error()
	}
	return s.input.Init()
}

func (s *Screen) submit() tea.Cmd {
	s.syncAnswer()
	sub, err := s.machine.Submit()
	if err != nil {
		return nil
	}
	m := s.machine
	return func() tea.Msg {
		_, err := m.Evaluate(context.Background(), sub)
		return evaluatedMsg{Err: err}
	}
}

func (s *Screen) toggleRecording() tea.Cmd {
	if s.snap.Recording == nil {
		return nil
	}
	if s.snap.Recording.Status == recorder.StatusRecording.String() {
		return s.stopRecording()
	}
	m := s.machine
	s.notice = ""
	return func() tea.Msg {
		return recordingMsg{Err: m.StartRecording(context.Background())}
	}
}

func (s *Screen) stopRecording() tea.Cmd {
	m := s.machine
	return func() tea.Msg {
		return recordingMsg{Err: m.StopRecording(context.Background())}
	}
}

func (s *Screen) save() tea.Cmd {
	rec := s.machine.Recorder()
	if rec == nil {
		return nil
	}
	dir := s.saveDir
	return func() tea.Msg {
		path, err := rec.SaveTo(dir)
		if errors.Is(err, recorder.ErrNoRecording) {
			err = fmt.Errorf("record an answer first: %w", err)
		}
		return savedMsg{Path: path, Err: err}
	}
}

func (s *Screen) waitForSnapshot() tea.Cmd {
	ch := s.sub
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
