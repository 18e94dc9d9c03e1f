package evaluation

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/abhisek/ielts-coach/internal/llm"
)

// OfflineResponder produces canned evaluations for llm.MockProvider, so the
// whole flow can be exercised without network access. The band grows with
// answer length and is capped at 6.
func OfflineResponder(req llm.Request) llm.MockResponse {
	words := 0
	if len(req.Messages) > 0 {
		words = len(strings.Fields(answerFromPrompt(req.Messages[len(req.Messages)-1].Content)))
	}
	band := 4.0
	switch {
	case words > 150:
		band = 6
	case words > 90:
		band = 5.5
	case words > 60:
		band = 5
	}

	body, _ := json.Marshal(Result{
		Band:          band,
		Justification: "Offline mode: this band is estimated from answer length only. Configure an LLM provider for a real assessment.",
		SampleAnswer:  "Offline mode does not generate model answers.",
	})
	return llm.MockResponse{Content: body}
}

// answerFromPrompt recovers the quoted answer embedded by userPrompt.
func answerFromPrompt(prompt string) string {
	_, rest, ok := strings.Cut(prompt, answerLabel)
	if !ok {
		return ""
	}
	quoted, _, _ := strings.Cut(rest, "\n")
	answer, err := strconv.Unquote(quoted)
	if err != nil {
		return ""
	}
	return answer
}
