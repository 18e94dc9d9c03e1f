package speaking

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/ielts-coach/internal/practice"
	"github.com/abhisek/ielts-coach/internal/ui/components"
	"github.com/abhisek/ielts-coach/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return components.Centered(theme.ErrorText.Render(s.errMsg), width, height)
	}

	cw := components.ContentWidth(width)
	var sections []string

	switch s.snap.State {
	case practice.StateIdle:
		return components.Centered(theme.Hint.Render("Press Enter to get a question."), width, height)
	case practice.StateAnswering:
		sections = append(sections, s.renderQuestion(cw), s.renderAnswering(cw))
	case practice.StateEvaluating:
		sections = append(sections, s.renderQuestion(cw), s.renderEvaluating(cw))
	case practice.StateResult:
		sections = append(sections, s.renderQuestion(cw), s.renderResult(cw))
	}

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(strings.Join(sections, "\n\n"))
}

func (s *Screen) renderQuestion(cw int) string {
	q := s.snap.Question
	if q == nil {
		return ""
	}
	text := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(q.Text)
	return components.Card(string(q.Part), text, cw)
}

func (s *Screen) renderAnswering(cw int) string {
	var b strings.Builder

	b.WriteString(components.Countdown{
		Remaining: s.snap.Remaining,
		Total:     s.snap.Duration,
		Width:     cw,
	}.View())
	b.WriteString("\n\n")

	b.WriteString(s.input.View())
	b.WriteString("\n")

	if s.snap.TimedOut {
		b.WriteString("\n")
		b.WriteString(theme.TimeUp.Render("Time's up!"))
		b.WriteString(" ")
		b.WriteString(theme.Hint.Render("Press Enter to submit your answer."))
	} else if !s.snap.CanSubmit {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Keep talking it through. You can submit when the timer ends."))
	}

	if s.snap.Error != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.ErrorText.Render(s.snap.Error))
	}

	return lipgloss.NewStyle().Width(cw).Render(b.String())
}

func (s *Screen) renderEvaluating(cw int) string {
	frame := spinnerFrames[s.spinner%len(spinnerFrames)]
	line := lipgloss.NewStyle().Foreground(theme.Secondary).Render(frame) + " " +
		theme.Body.Render("Evaluating your answer...")
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(line)
}

func (s *Screen) renderResult(cw int) string {
	r := s.snap.Result
	if r == nil {
		return ""
	}

	band := theme.Band.Render("Band " + strconv.FormatFloat(r.Band, 'f', -1, 64))

	sections := []string{
		lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(band),
		components.Card("Your answer", theme.Body.Render(s.snap.Answer), cw),
		components.Card("Feedback", theme.Body.Render(r.Justification), cw),
		components.Card("Sample answer", theme.Body.Render(r.SampleAnswer), cw),
	}
	if rec := s.renderRecording(cw); rec != "" {
		sections = append(sections, rec)
	}
	return strings.Join(sections, "\n")
}

func (s *Screen) renderRecording(cw int) string {
	v := s.snap.Recording
	if v == nil {
		return ""
	}

	var line string
	switch v.Status {
	case "recording":
		line = theme.Recording.Render("● Recording...") + " " + theme.Hint.Render("press S to stop")
	case "stopped":
		line = theme.Body.Render(fmt.Sprintf("Recorded %s.", humanSize(v.Size))) + " " +
			theme.Hint.Render("R to record again, D to save")
	default:
		line = theme.Hint.Render("Press R to record yourself reading the sample answer.")
	}
	if v.Error != "" {
		line += "\n" + theme.ErrorText.Render(v.Error)
	}
	if s.notice != "" {
		line += "\n" + theme.Hint.Render(s.notice)
	}
	return components.Card("Practice speaking", line, cw)
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
