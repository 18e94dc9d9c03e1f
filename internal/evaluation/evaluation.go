// Package evaluation scores a written IELTS speaking answer with a hosted
// model and returns a band, a justification and a model answer.
package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/ielts-coach/internal/llm"
)

// ErrFailed is the only error Evaluate returns. The underlying cause is
// logged, never shown.
var ErrFailed = errors.New("evaluation failed")

// FailureMessage is the user-facing text for ErrFailed.
const FailureMessage = "Sorry, I couldn't evaluate your answer. Please try again."

// Result is a successful evaluation. Band is reported exactly as the model
// returned it.
type Result struct {
	Band          float64 `json:"band"`
	Justification string  `json:"justification"`
	SampleAnswer  string  `json:"sampleAnswer"`
}

type Config struct {
	// SampleBand is the target band of the model answer.
	SampleBand  float64
	MaxTokens   int
	Temperature float64
	// Timeout bounds a single Evaluate call.
	Timeout time.Duration
}

// DefaultConfig returns a band 7 sample answer and a one-minute timeout.
func DefaultConfig() Config {
	return Config{
		SampleBand: 7,
		MaxTokens:  2048,
		Timeout:    60 * time.Second,
	}
}

// Client evaluates answers. It is stateless and safe for concurrent use.
type Client struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
}

// New creates a Client. Zero fields in cfg take their defaults.
func New(provider llm.Provider, cfg Config, log *zap.Logger) (*Client, error) {
	if provider == nil {
		return nil, errors.New("evaluation: provider is required")
	}
	def := DefaultConfig()
	if cfg.SampleBand == 0 {
		cfg.SampleBand = def.SampleBand
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{provider: provider, cfg: cfg, log: log.Named("evaluation")}, nil
}

// Evaluate sends one request scoring answer against question. Every
// failure, whatever its cause, is reported as ErrFailed.
func (c *Client) Evaluate(ctx context.Context, question, answer string) (*Result, error) {
	res, err := c.evaluate(ctx, question, answer)
	if err != nil {
		c.log.Warn("evaluation failed",
			zap.Error(err),
			zap.Int("question_len", len(question)),
			zap.Int("answer_len", len(answer)),
		)
		return nil, ErrFailed
	}
	return res, nil
}

func (c *Client) evaluate(ctx context.Context, question, answer string) (*Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("empty question")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluation)

	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserPrompt(userPrompt(question, answer, c.cfg.SampleBand)),
		Schema:      ResultSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	var res Result
	if err := json.Unmarshal(resp.Content, &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	if res.Band < 0 || res.Band > 9 {
		c.log.Warn("band outside the IELTS scale", zap.Float64("band", res.Band))
	}
	c.log.Debug("evaluation complete", zap.Float64("band", res.Band), zap.String("model", resp.Model))
	return &res, nil
}
