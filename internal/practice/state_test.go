package practice

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/ielts-coach/internal/evaluation"
	"github.com/abhisek/ielts-coach/internal/recorder"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{180, "03:00"},
		{179, "02:59"},
		{61, "01:01"},
		{19, "00:19"},
		{0, "00:00"},
		{-4, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrEmptyAnswer, "Please provide an answer before submitting."},
		{fmt.Errorf("%w: x", evaluation.ErrFailed), evaluation.FailureMessage},
		{fmt.Errorf("open: %w", recorder.ErrUnsupported), "Audio recording is not supported on this system."},
		{errors.New("something else"), "something else"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Message(tt.err))
	}
}

func TestState_Text(t *testing.T) {
	for _, s := range []State{StateIdle, StateAnswering, StateEvaluating, StateResult} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got State
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}
	assert.Equal(t, "State(9)", State(9).String())
	var s State
	assert.Error(t, s.UnmarshalText([]byte("paused")))
}

func TestSnapshot_JSON(t *testing.T) {
	snap := Snapshot{
		State:     StateResult,
		Remaining: 0,
		Duration:  180,
		TimedOut:  true,
		Result:    &evaluation.Result{Band: 6.5, Justification: "j", SampleAnswer: "s"},
	}
	b, err := json.Marshal(snap)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "result", got["state"])
	assert.Equal(t, true, got["timedOut"])
	assert.Equal(t, map[string]any{"band": 6.5, "justification": "j", "sampleAnswer": "s"}, got["result"])
	assert.NotContains(t, got, "recording")
}
