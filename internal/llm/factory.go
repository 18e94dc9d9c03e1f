package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewProvider builds the configured provider wrapped as
// caller → retry → logging → vendor. recorder and log may be nil.
func NewProvider(ctx context.Context, cfg Config, recorder EventRecorder, log *zap.Logger) (Provider, error) {
	vendor, err := cfg.Vendor()
	if err != nil {
		return nil, err
	}

	var base Provider
	switch cfg.Provider {
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, vendor)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(vendor)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(vendor)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(vendor)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return Wrap(base, cfg, recorder, log), nil
}

// Wrap applies the logging and retry decorators to an already built
// provider.
func Wrap(base Provider, cfg Config, recorder EventRecorder, log *zap.Logger) Provider {
	logged := WithLogging(base, cfg.Provider, recorder, log)
	return WithRetry(logged, cfg.Retry)
}
