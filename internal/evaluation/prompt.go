package evaluation

import (
	"fmt"
	"strconv"

	"github.com/abhisek/ielts-coach/internal/llm"
)

const systemPrompt = `You are an experienced IELTS speaking examiner. You assess transcripts of candidate answers using the public IELTS speaking band descriptors. Reply only with JSON matching the provided schema.`

const answerLabel = "Student's Answer: "

func userPrompt(question, answer string, sampleBand float64) string {
	return fmt.Sprintf(`IELTS Speaking Question: %q

`+answerLabel+`%q

Based on the student's answer, please provide:
1. An estimated IELTS band score (a single number between 1 and 9, in steps of 0.5).
2. A detailed justification for the score, considering Fluency and Coherence, Lexical Resource, and Grammatical Range and Accuracy. Note that pronunciation cannot be assessed from text.
3. A band %s model answer for the original question.`,
		question, answer, strconv.FormatFloat(sampleBand, 'f', -1, 64))
}

// ResultSchema constrains the model's reply to exactly the fields of Result.
var ResultSchema = &llm.Schema{
	Name:        "ielts-band-evaluation",
	Description: "IELTS speaking band evaluation of a written answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"band": map[string]any{
				"type":        "number",
				"description": "The estimated IELTS band score as a single number from 1 to 9.",
			},
			"justification": map[string]any{
				"type":        "string",
				"description": "A detailed justification for the score, covering the IELTS criteria.",
			},
			"sampleAnswer": map[string]any{
				"type":        "string",
				"description": "A model answer for the question at the requested band.",
			},
		},
		"required":             []string{"band", "justification", "sampleAnswer"},
		"additionalProperties": false,
	},
}
