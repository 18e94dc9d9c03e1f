// Package config loads the single explicit configuration object shared by
// every command. Values come from defaults, an optional YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/ielts-coach/internal/llm"
	"github.com/abhisek/ielts-coach/internal/questions"
)

// EnvPrefix prefixes every environment variable, e.g. IELTS_LLM_PROVIDER.
const EnvPrefix = "IELTS"

type Config struct {
	LLM        llm.Config       `mapstructure:"llm"`
	Practice   PracticeConfig   `mapstructure:"practice"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Store      StoreConfig      `mapstructure:"store"`
	Recording  RecordingConfig  `mapstructure:"recording"`
}

type PracticeConfig struct {
	// Duration is the answer time per question.
	Duration time.Duration `mapstructure:"duration"`
	// AllowEarlySubmit lets the user submit before the countdown ends.
	AllowEarlySubmit bool `mapstructure:"allow_early_submit"`
	// Part restricts questions to one test part; empty means all.
	Part string `mapstructure:"part"`
}

type EvaluationConfig struct {
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	SampleBand  float64 `mapstructure:"sample_band"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	RateLimit      int      `mapstructure:"rate_limit"` // requests per minute per IP on /api
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"; empty picks per command
	File   string `mapstructure:"file"`
}

type StoreConfig struct {
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

type RecordingConfig struct {
	Dir         string `mapstructure:"dir"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	InputFormat string `mapstructure:"input_format"` // pulse, avfoundation, dshow; empty = platform default
	Device      string `mapstructure:"device"`
}

// fallbackEnv lists the conventional vendor variables consulted after the
// prefixed ones.
var fallbackEnv = map[string]string{
	"llm.gemini.api_key":     "GEMINI_API_KEY",
	"llm.openai.api_key":     "OPENAI_API_KEY",
	"llm.anthropic.api_key":  "ANTHROPIC_API_KEY",
	"llm.openrouter.api_key": "OPENROUTER_API_KEY",
}

// Load builds the configuration. file may be empty, in which case
// ielts-coach.yaml is looked up in the working directory and
// $HOME/.config/ielts-coach and silently skipped when absent. A .env file in
// the working directory is loaded first; it never overrides variables that
// are already set.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("ielts-coach")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ielts-coach")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range fallbackEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with no file and an
// empty environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: decoding defaults: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	d := llm.DefaultConfig()
	v.SetDefault("llm.provider", d.Provider)
	for name, vc := range map[string]llm.VendorConfig{
		"gemini":     d.Gemini,
		"openai":     d.OpenAI,
		"anthropic":  d.Anthropic,
		"openrouter": d.OpenRouter,
	} {
		v.SetDefault("llm."+name+".api_key", "")
		v.SetDefault("llm."+name+".model", vc.Model)
		v.SetDefault("llm."+name+".base_url", vc.BaseURL)
	}
	v.SetDefault("llm.retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", d.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", d.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", d.Retry.Multiplier)
	v.SetDefault("llm.timeout", d.Timeout)

	v.SetDefault("practice.duration", 180*time.Second)
	v.SetDefault("practice.allow_early_submit", false)
	v.SetDefault("practice.part", "")

	v.SetDefault("evaluation.max_tokens", 2048)
	v.SetDefault("evaluation.temperature", 0.0)
	v.SetDefault("evaluation.sample_band", 7.0)

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("log.file", "")

	v.SetDefault("store.path", "")
	v.SetDefault("store.disabled", false)

	v.SetDefault("recording.dir", "")
	v.SetDefault("recording.ffmpeg_path", "ffmpeg")
	v.SetDefault("recording.input_format", "")
	v.SetDefault("recording.device", "")
}

// Validate reports configuration that makes startup impossible, most
// notably a missing API credential.
func (c *Config) Validate() error {
	var errs []error
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be positive"))
	}
	if c.Practice.Duration < time.Second {
		errs = append(errs, fmt.Errorf("practice.duration must be at least 1s, got %s", c.Practice.Duration))
	}
	if c.Practice.Part != "" {
		if _, err := questions.ParsePart(c.Practice.Part); err != nil {
			errs = append(errs, fmt.Errorf("practice.part: %w", err))
		}
	}
	if b := c.Evaluation.SampleBand; b < 1 || b > 9 {
		errs = append(errs, fmt.Errorf("evaluation.sample_band must be between 1 and 9, got %g", b))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

// PracticePart returns the configured part filter, or "" for all parts.
func (c *Config) PracticePart() questions.Part {
	p, err := questions.ParsePart(c.Practice.Part)
	if err != nil {
		return ""
	}
	return p
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
