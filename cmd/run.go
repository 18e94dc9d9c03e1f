package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/ielts-coach/internal/config"
	"github.com/abhisek/ielts-coach/internal/evaluation"
	"github.com/abhisek/ielts-coach/internal/llm"
	"github.com/abhisek/ielts-coach/internal/logging"
	"github.com/abhisek/ielts-coach/internal/practice"
	"github.com/abhisek/ielts-coach/internal/questions"
	"github.com/abhisek/ielts-coach/internal/recorder"
	"github.com/abhisek/ielts-coach/internal/screens/home"
	"github.com/abhisek/ielts-coach/internal/store"
)

// addPracticeFlags registers the flags that override the practice section
// of the config.
func addPracticeFlags(c *cobra.Command) {
	c.Flags().String("part", "", `Only practise one part: "1" or "3"`)
	c.Flags().Duration("duration", 0, "Answer time per question (default 3m)")
	c.Flags().Bool("early", false, "Allow submitting before the time is up")
}

// loadConfig reads the configuration, applies command-line overrides and
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// readConfig is loadConfig without validation, for commands that never
// call a model.
func readConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}
	flags := cmd.Flags()
	if f := flags.Lookup("part"); f != nil && f.Changed {
		cfg.Practice.Part = f.Value.String()
	}
	if f := flags.Lookup("duration"); f != nil && f.Changed {
		cfg.Practice.Duration, _ = flags.GetDuration("duration")
	}
	if f := flags.Lookup("early"); f != nil && f.Changed {
		cfg.Practice.AllowEarlySubmit, _ = flags.GetBool("early")
	}
	return cfg, nil
}

// openStore opens the diagnostics database, or returns nil when it is
// disabled.
func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.Store.Disabled {
		return nil, nil
	}
	path := cfg.Store.Path
	if path == "" {
		p, err := store.DefaultDBPath("")
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		path = p
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create DB dir: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// defaultLogFile is where the terminal UI logs when no file is configured.
func defaultLogFile() (string, error) {
	p, err := store.DefaultDBPath("")
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), "ielts-coach.log"), nil
}

// newProvider builds the configured model provider. The mock provider
// answers with offline estimates so the app runs without a key.
func newProvider(ctx context.Context, cfg *config.Config, st *store.Store, log *zap.Logger) (llm.Provider, error) {
	var events llm.EventRecorder
	if st != nil {
		events = st.EventRepo()
	}

	if cfg.LLM.Provider == llm.ProviderMock {
		mock := llm.NewMockProvider()
		mock.Respond = evaluation.OfflineResponder
		return llm.Wrap(mock, cfg.LLM, events, log), nil
	}
	return llm.NewProvider(ctx, cfg.LLM, events, log)
}

func newEvaluator(cfg *config.Config, provider llm.Provider, log *zap.Logger) (*evaluation.Client, error) {
	return evaluation.New(provider, evaluation.Config{
		SampleBand:  cfg.Evaluation.SampleBand,
		MaxTokens:   cfg.Evaluation.MaxTokens,
		Temperature: cfg.Evaluation.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, log)
}

// questionBank returns the built-in bank, filtered to the configured part.
func questionBank(cfg *config.Config) (*questions.Bank, error) {
	bank := questions.Default()
	if p := cfg.PracticePart(); p != "" {
		return bank.Filter(p)
	}
	return bank, nil
}

// newMachine wires the bank, the evaluator and a recorder factory into a
// practice machine.
func newMachine(cfg *config.Config, bank *questions.Bank, eval practice.Evaluator, newRecorder func() *recorder.Recorder, log *zap.Logger) (*practice.Machine, error) {
	return practice.New(bank, eval, practice.Config{
		Duration:         cfg.Practice.Duration,
		AllowEarlySubmit: cfg.Practice.AllowEarlySubmit,
	},
		practice.WithRecorderFactory(newRecorder),
		practice.WithLogger(log),
	)
}

func homeInfo(bank *questions.Bank, cfg *config.Config, provider llm.Provider) home.Info {
	var parts []string
	for _, p := range questions.AllParts() {
		if len(bank.ByPart(p)) > 0 {
			parts = append(parts, string(p))
		}
	}
	return home.Info{
		Questions: bank.Len(),
		Parts:     strings.Join(parts, ", "),
		Duration:  humanDuration(cfg.Practice.Duration),
		Model:     provider.ModelID(),
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	case d < time.Minute:
		return fmt.Sprintf("%d seconds", d/time.Second)
	default:
		return d.String()
	}
}

// newLogger builds the process logger; fallbackFormat applies when log.format is unset.
func newLogger(cfg *config.Config, fallbackFormat string) (*zap.Logger, error) {
	log, err := logging.New(cfg.Log, fallbackFormat)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}
