package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_ServesQueueInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"band":6.5}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"band":7}`)},
	)

	first, err := mock.Generate(context.Background(), Request{Messages: UserPrompt("first")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first.Content) != `{"band":6.5}` {
		t.Fatalf("unexpected content: %s", first.Content)
	}
	if first.Usage.InputTokens != 10 || first.StopReason != "end" {
		t.Fatalf("unexpected response metadata: %+v", first)
	}

	second, err := mock.Generate(context.Background(), Request{Messages: UserPrompt("second")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(second.Content) != `{"band":7}` {
		t.Fatalf("unexpected content: %s", second.Content)
	}
}

func TestMockProvider_EmptyQueueIsUnavailable(t *testing.T) {
	_, err := NewMockProvider().Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RespondFallback(t *testing.T) {
	mock := NewMockProvider()
	mock.Respond = func(req Request) MockResponse {
		return MockResponse{Content: json.RawMessage(`{"echo":"` + req.Messages[0].Content + `"}`)}
	}

	resp, err := mock.Generate(context.Background(), Request{Messages: UserPrompt("hi")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"echo":"hi"}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	req := Request{System: "sys", Messages: UserPrompt("hello")}
	_, _ = mock.Generate(context.Background(), req)

	calls := mock.Calls()
	if mock.CallCount() != 1 || len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if calls[0].System != "sys" || calls[0].Messages[0].Content != "hello" {
		t.Fatalf("request not recorded: %+v", calls[0])
	}
}

func TestMockProvider_ValidatesAgainstSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"name":"x"}`)})
	_, err := mock.Generate(context.Background(), Request{Schema: testSchema()})
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidResponse, got: %v", err)
	}
}

func TestMockProvider_DelayHonorsContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.Generate(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got: %v", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != PurposeUnknown {
		t.Fatalf("expected %q, got %q", PurposeUnknown, p)
	}

	ctx = WithPurpose(ctx, PurposeEvaluation)
	if p := PurposeFrom(ctx); p != "evaluation" {
		t.Fatalf("expected 'evaluation', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	withProvider := func(name string, mutate func(*Config)) Config {
		cfg := DefaultConfig()
		cfg.Provider = name
		if mutate != nil {
			mutate(&cfg)
		}
		return cfg
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"gemini without key", withProvider(ProviderGemini, nil), true},
		{"gemini with key", withProvider(ProviderGemini, func(c *Config) { c.Gemini.APIKey = "g-test" }), false},
		{"openai without key", withProvider(ProviderOpenAI, nil), true},
		{"openai with key", withProvider(ProviderOpenAI, func(c *Config) { c.OpenAI.APIKey = "sk-test" }), false},
		{"anthropic with key", withProvider(ProviderAnthropic, func(c *Config) { c.Anthropic.APIKey = "sk-ant" }), false},
		{"openrouter without key", withProvider(ProviderOpenRouter, nil), true},
		{"mock needs no key", withProvider(ProviderMock, nil), false},
		{"unknown provider", withProvider("watson", nil), true},
		{"zero attempts", withProvider(ProviderMock, func(c *Config) { c.Retry.MaxAttempts = 0 }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderGemini || cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected default provider: %s %s", cfg.Provider, cfg.Gemini.Model)
	}
	if cfg.Retry.MaxAttempts != 1 {
		t.Fatalf("expected retries off by default, got %d attempts", cfg.Retry.MaxAttempts)
	}
	if cfg.Timeout != time.Minute {
		t.Fatalf("expected 1m timeout, got %s", cfg.Timeout)
	}
}

func TestLookupCost(t *testing.T) {
	if c := LookupCost("gemini-2.5-flash"); c == nil {
		t.Fatal("expected pricing for gemini-2.5-flash")
	}
	if c := LookupCost("google/gemini-2.5-flash"); c == nil {
		t.Fatal("expected pricing for OpenRouter-style ID")
	}
	if c := LookupCost("mock"); c != nil {
		t.Fatalf("expected no pricing for mock, got %+v", c)
	}

	got := ModelCost{InputPerMTok: 1, OutputPerMTok: 5}.Cost(1_000_000, 200_000)
	if got != 2 {
		t.Fatalf("Cost = %v, want 2", got)
	}
}
