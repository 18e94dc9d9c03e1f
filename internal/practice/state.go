package practice

import (
	"fmt"
	"time"

	"github.com/abhisek/ielts-coach/internal/evaluation"
	"github.com/abhisek/ielts-coach/internal/questions"
	"github.com/abhisek/ielts-coach/internal/recorder"
)

type State int

const (
	StateIdle State = iota
	StateAnswering
	StateEvaluating
	StateResult
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateAnswering:  "answering",
	StateEvaluating: "evaluating",
	StateResult:     "result",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	if int(s) >= len(stateNames) {
		return nil, fmt.Errorf("invalid state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Session is one question with its answer and countdown.
type Session struct {
	ID        string
	Question  questions.Question
	Answer    string
	Remaining int // seconds
	TimedOut  bool
}

// Snapshot is the view model shared by every user interface.
type Snapshot struct {
	Version uint64 `json:"version"`
	State   State  `json:"state"`

	SessionID string              `json:"sessionId,omitempty"`
	Question  *questions.Question `json:"question,omitempty"`
	Answer    string              `json:"answer"`
	Duration  int                 `json:"duration"`
	Remaining int                 `json:"remaining"`
	TimedOut  bool                `json:"timedOut"`

	// CanEdit and CanSubmit mirror the Submit/SetAnswer guards.
	CanEdit   bool `json:"canEdit"`
	CanSubmit bool `json:"canSubmit"`

	Error     string             `json:"error,omitempty"`
	Result    *evaluation.Result `json:"result,omitempty"`
	Recording *RecordingView     `json:"recording,omitempty"`
}

// RecordingView is the recorder part of a Snapshot, present in StateResult.
type RecordingView struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	URL    string `json:"url,omitempty"`
	Size   int64  `json:"size,omitempty"`
}

// Clock formats Remaining as MM:SS.
func (s Snapshot) Clock() string {
	return FormatClock(s.Remaining)
}

// Urgent reports whether the countdown should be highlighted.
func (s Snapshot) Urgent() bool {
	return s.State == StateAnswering && s.Remaining < urgentBelow
}

const urgentBelow = 20

// FormatClock renders seconds as zero-padded MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func recordingView(st recorder.State) *RecordingView {
	v := &RecordingView{Status: st.Status.String()}
	if st.Err != nil {
		v.Error = Message(st.Err)
	}
	if st.Artifact != nil {
		v.URL = st.Artifact.URL
		v.Size = st.Artifact.Size
	}
	return v
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
