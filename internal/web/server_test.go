package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/ielts-coach/internal/evaluation"
	"github.com/abhisek/ielts-coach/internal/llm"
	"github.com/abhisek/ielts-coach/internal/practice"
	"github.com/abhisek/ielts-coach/internal/questions"
	"github.com/abhisek/ielts-coach/internal/recorder"
)

const movieQuestion = "Do you like to watch movies?"

type harness struct {
	server  *Server
	http    *httptest.Server
	machine *practice.Machine
	clock   *practice.ManualClock
	mic     *recorder.PushMicrophone
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	bank, err := questions.New([]questions.Question{{Part: questions.Part1, Text: movieQuestion}})
	require.NoError(t, err)

	provider := llm.NewMockProvider()
	provider.Respond = func(llm.Request) llm.MockResponse {
		return llm.MockResponse{Content: json.RawMessage(`{"band":6.5,"justification":"Good.","sampleAnswer":"Sample."}`)}
	}
	eval, err := evaluation.New(provider, evaluation.Config{}, nil)
	require.NoError(t, err)

	mic := recorder.NewPushMicrophone()
	store := recorder.NewMemoryStore(RecordingsPrefix)
	clock := practice.NewManualClock()
	machine, err := practice.New(bank, eval, practice.Config{Duration: 10 * time.Second},
		practice.WithClock(clock),
		practice.WithRecorderFactory(func() *recorder.Recorder { return recorder.New(mic, store, nil) }),
	)
	require.NoError(t, err)

	srv := New(machine, mic, store, cfg, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return &harness{server: srv, http: ts, machine: machine, clock: clock, mic: mic}
}

func (h *harness) do(t *testing.T, method, path string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, h.http.URL+path, body)
	require.NoError(t, err)
	resp, err := h.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (h *harness) snapshot(t *testing.T, method, path string, body any, wantStatus int) practice.Snapshot {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	resp, data := h.do(t, method, path, r)
	require.Equal(t, wantStatus, resp.StatusCode, string(data))
	var snap practice.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

func (h *harness) errorMessage(t *testing.T, method, path string, body any, wantStatus int) string {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	resp, data := h.do(t, method, path, r)
	require.Equal(t, wantStatus, resp.StatusCode, string(data))
	var e errorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e.Error
}

// toResult answers the question, lets time run out and waits for the
// background evaluation.
func (h *harness) toResult(t *testing.T) {
	t.Helper()
	h.snapshot(t, http.MethodPost, "/api/session/start", nil, http.StatusOK)
	h.snapshot(t, http.MethodPut, "/api/session/answer", answerRequest{Answer: "Yes, I do."}, http.StatusOK)
	h.clock.Advance(10 * time.Second)
	h.snapshot(t, http.MethodPost, "/api/session/submit", nil, http.StatusAccepted)
	require.Eventually(t, func() bool {
		return h.machine.Snapshot().State == practice.StateResult
	}, 2*time.Second, 5*time.Millisecond)
}

func TestIndex(t *testing.T) {
	h := newHarness(t, Config{})
	resp, body := h.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "IELTS Speaking Practice")
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t, Config{})

	snap := h.snapshot(t, http.MethodGet, "/api/session", nil, http.StatusOK)
	assert.Equal(t, practice.StateIdle, snap.State)

	snap = h.snapshot(t, http.MethodPost, "/api/session/start", nil, http.StatusOK)
	assert.Equal(t, practice.StateAnswering, snap.State)
	require.NotNil(t, snap.Question)
	assert.Equal(t, movieQuestion, snap.Question.Text)
	assert.Equal(t, 10, snap.Remaining)

	snap = h.snapshot(t, http.MethodPut, "/api/session/answer", answerRequest{Answer: "I love films."}, http.StatusOK)
	assert.Equal(t, "I love films.", snap.Answer)

	msg := h.errorMessage(t, http.MethodPost, "/api/session/submit", nil, http.StatusUnprocessableEntity)
	assert.Equal(t, practice.Message(practice.ErrTooEarly), msg)

	h.clock.Advance(10 * time.Second)
	msg = h.errorMessage(t, http.MethodPut, "/api/session/answer", answerRequest{Answer: "late"}, http.StatusConflict)
	assert.Equal(t, practice.Message(practice.ErrInputClosed), msg)

	h.snapshot(t, http.MethodPost, "/api/session/submit", nil, http.StatusAccepted)
	require.Eventually(t, func() bool {
		return h.machine.Snapshot().State == practice.StateResult
	}, 2*time.Second, 5*time.Millisecond)

	snap = h.snapshot(t, http.MethodGet, "/api/session", nil, http.StatusOK)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 6.5, snap.Result.Band)
	assert.Equal(t, "Good.", snap.Result.Justification)
	assert.Equal(t, "Sample.", snap.Result.SampleAnswer)

	snap = h.snapshot(t, http.MethodPost, "/api/session/reset", nil, http.StatusOK)
	assert.Equal(t, practice.StateIdle, snap.State)
}

func TestSubmitEmptyAnswer(t *testing.T) {
	h := newHarness(t, Config{})
	h.snapshot(t, http.MethodPost, "/api/session/start", nil, http.StatusOK)
	h.clock.Advance(10 * time.Second)

	msg := h.errorMessage(t, http.MethodPost, "/api/session/submit", nil, http.StatusUnprocessableEntity)
	assert.Equal(t, "Please provide an answer before submitting.", msg)
}

func TestAnswerBadBody(t *testing.T) {
	h := newHarness(t, Config{})
	resp, _ := h.do(t, http.MethodPut, "/api/session/answer", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWrongStateIsConflict(t *testing.T) {
	h := newHarness(t, Config{})
	h.errorMessage(t, http.MethodPost, "/api/session/submit", nil, http.StatusConflict)
	h.errorMessage(t, http.MethodPost, "/api/recording/start", nil, http.StatusConflict)
}

func TestRecordingFlow(t *testing.T) {
	h := newHarness(t, Config{})
	h.toResult(t)

	snap := h.snapshot(t, http.MethodPost, "/api/recording/start", nil, http.StatusOK)
	require.NotNil(t, snap.Recording)
	assert.Equal(t, "recording", snap.Recording.Status)

	for _, chunk := range []string{"webm-", "audio"} {
		resp, _ := h.do(t, http.MethodPost, "/api/recording/chunk", strings.NewReader(chunk))
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	snap = h.snapshot(t, http.MethodPost, "/api/recording/stop", nil, http.StatusOK)
	assert.Equal(t, "stopped", snap.Recording.Status)
	require.True(t, strings.HasPrefix(snap.Recording.URL, RecordingsPrefix))
	assert.EqualValues(t, 10, snap.Recording.Size)

	resp, body := h.do(t, http.MethodGet, snap.Recording.URL, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, recorder.MIMEType, resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "webm-audio", string(body))

	resp, _ = h.do(t, http.MethodGet, snap.Recording.URL+"?download=1", nil)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), recorder.DownloadName)

	// A new question revokes the recording.
	h.snapshot(t, http.MethodPost, "/api/session/start", nil, http.StatusOK)
	resp, _ = h.do(t, http.MethodGet, snap.Recording.URL, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordingChunkWithoutCapture(t *testing.T) {
	h := newHarness(t, Config{})
	h.errorMessage(t, http.MethodPost, "/api/recording/chunk", strings.NewReader("x"), http.StatusConflict)
}

func TestRecordingPermissionDenied(t *testing.T) {
	h := newHarness(t, Config{})
	h.toResult(t)

	msg := h.errorMessage(t, http.MethodPost, "/api/recording/start", recordingStartRequest{Error: "permission-denied"}, http.StatusUnprocessableEntity)
	assert.Equal(t, practice.Message(recorder.ErrPermissionDenied), msg)

	snap := h.machine.Snapshot()
	assert.Equal(t, practice.StateResult, snap.State)
	assert.Equal(t, "idle", snap.Recording.Status)
	assert.Equal(t, msg, snap.Recording.Error)

	h.errorMessage(t, http.MethodPost, "/api/recording/start", recordingStartRequest{Error: "bogus"}, http.StatusBadRequest)
}

func TestUnknownRecording(t *testing.T) {
	h := newHarness(t, Config{})
	resp, body := h.do(t, http.MethodGet, RecordingsPrefix+"missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"error"`)
}

// readUntil reads snapshots until one satisfies ok. Intermediate
// snapshots may be skipped by the stream.
func readUntil(t *testing.T, conn *websocket.Conn, ok func(practice.Snapshot) bool) practice.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var snap practice.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		if ok(snap) {
			return snap
		}
	}
}

func TestEventsStream(t *testing.T) {
	h := newHarness(t, Config{})

	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/api/session/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readUntil(t, conn, func(practice.Snapshot) bool { return true })
	assert.Equal(t, practice.StateIdle, first.State)

	h.snapshot(t, http.MethodPost, "/api/session/start", nil, http.StatusOK)
	snap := readUntil(t, conn, func(s practice.Snapshot) bool { return s.State == practice.StateAnswering })
	assert.Greater(t, snap.Version, first.Version)

	h.clock.Advance(time.Second)
	readUntil(t, conn, func(s practice.Snapshot) bool { return s.Remaining == 9 })

	h.server.Close()
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestEventsRejectsForeignOrigin(t *testing.T) {
	h := newHarness(t, Config{})
	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/api/session/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, Config{RateLimit: 2})
	for i := 0; i < 2; i++ {
		resp, _ := h.do(t, http.MethodGet, "/api/session", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := h.do(t, http.MethodGet, "/api/session", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// The page itself is not limited.
	resp, _ = h.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	h := newHarness(t, Config{AllowedOrigins: []string{"https://app.example"}})
	req, err := http.NewRequestWithContext(t.Context(), http.MethodOptions, h.http.URL+"/api/session/start", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := h.http.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{practice.ErrEmptyAnswer, http.StatusUnprocessableEntity},
		{practice.ErrWrongState, http.StatusConflict},
		{recorder.ErrArtifactNotFound, http.StatusNotFound},
		{practice.ErrClosed, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	h := newHarness(t, Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- h.server.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/session")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	_, err = h.machine.Start()
	assert.ErrorIs(t, err, practice.ErrClosed)
}
