package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/ielts-coach/internal/evaluation"
	"github.com/abhisek/ielts-coach/internal/store"
)

// execute runs the root command with args in an isolated environment.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("IELTS_LLM_PROVIDER", "mock")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{3 * time.Minute, "3 minutes"},
		{time.Minute, "1 minute"},
		{45 * time.Second, "45 seconds"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		if got := humanDuration(tt.d); got != tt.want {
			t.Errorf("humanDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestQuestionsList(t *testing.T) {
	out, err := execute(t, "", "questions", "list", "--part", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Do you like to watch movies?") {
		t.Errorf("expected the movies question in:\n%s", out)
	}
	if strings.Contains(out, "Part 3") {
		t.Error("part filter not applied")
	}
}

func TestQuestionsListBadPart(t *testing.T) {
	if _, err := execute(t, "", "questions", "list", "--part", "2"); err == nil {
		t.Fatal("expected an error for part 2")
	}
}

func TestEvaluateOffline(t *testing.T) {
	out, err := execute(t, "Yes, I watch films most weekends with my friends.",
		"evaluate", "--question", "Do you like to watch movies?", "--json")
	if err != nil {
		t.Fatal(err)
	}

	var res evaluation.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Band != 4 {
		t.Errorf("band = %v, want 4 for a short offline answer", res.Band)
	}
	if res.Justification == "" || res.SampleAnswer == "" {
		t.Errorf("incomplete result: %+v", res)
	}
}

func TestEvaluateRejectsEmptyAnswer(t *testing.T) {
	_, err := execute(t, "   \n", "evaluate", "--question", "Do you like to watch movies?", "--json=false")
	if err == nil {
		t.Fatal("expected an error for an empty answer")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "ielts-coach ") {
		t.Errorf("version output = %q", out)
	}
}

func TestVersionStamped(t *testing.T) {
	old := version
	version = "v1.4.0"
	t.Cleanup(func() { version = old })

	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "ielts-coach v1.4.0\n" {
		t.Errorf("version output = %q", out)
	}
}

func seedEvents(t *testing.T, data ...store.LLMRequestEventData) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diag.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	for _, d := range data {
		if err := st.EventRepo().AppendLLMRequest(t.Context(), d); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestLLMCommands(t *testing.T) {
	db := seedEvents(t,
		store.LLMRequestEventData{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "evaluation",
			InputTokens: 420, OutputTokens: 310, LatencyMs: 1800, Success: true},
		store.LLMRequestEventData{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "evaluation",
			LatencyMs: 60000, ErrorMessage: "context deadline exceeded"},
	)

	out, err := execute(t, "", "llm", "list", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "gemini-2.5-flash") != 2 {
		t.Errorf("expected both events in:\n%s", out)
	}

	out, err = execute(t, "", "llm", "view", "2", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "context deadline exceeded") {
		t.Errorf("expected the error message in:\n%s", out)
	}

	out, err = execute(t, "", "llm", "stats", "--db", db)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "evaluation") || !strings.Contains(out, "TOTAL") {
		t.Errorf("unexpected stats output:\n%s", out)
	}
}

func TestLLMStatsEmpty(t *testing.T) {
	out, err := execute(t, "", "llm", "stats", "--db", seedEvents(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No LLM usage recorded yet.") {
		t.Errorf("output = %q", out)
	}
}

func TestLLMViewMissing(t *testing.T) {
	if _, err := execute(t, "", "llm", "view", "7", "--db", seedEvents(t)); err == nil {
		t.Fatal("expected an error for a missing event")
	}
}
