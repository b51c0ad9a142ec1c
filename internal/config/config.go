// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Yates-Labs/talecraft/internal/narrative"
	"github.com/Yates-Labs/talecraft/internal/notify"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting the pipeline and its collaborators read.
type Config struct {
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`
	Model          string        `env:"TALECRAFT_MODEL" envDefault:"gpt-4o"`
	EvaluatorModel string        `env:"TALECRAFT_EVALUATOR_MODEL"`
	SummaryModel   string        `env:"TALECRAFT_SUMMARY_MODEL" envDefault:"gpt-4o-mini"`
	Temperature    float32       `env:"TALECRAFT_TEMPERATURE" envDefault:"0.7"`
	MaxTokens      int           `env:"TALECRAFT_MAX_TOKENS" envDefault:"4000"`
	RequestTimeout time.Duration `env:"TALECRAFT_REQUEST_TIMEOUT"`

	Language         string `env:"TALECRAFT_LANGUAGE" envDefault:"Japanese"`
	SummaryThreshold int    `env:"SUMMARY_THRESHOLD" envDefault:"2000"`

	LineChannelToken string `env:"LINE_CHANNEL_ACCESS_TOKEN"`
	LineEndpoint     string `env:"TALECRAFT_LINE_ENDPOINT"`
	DeepLinkURL      string `env:"TALECRAFT_DEEP_LINK_URL"`

	EmailAPIKey   string `env:"RESEND_API_KEY"`
	EmailFrom     string `env:"TALECRAFT_EMAIL_FROM"`
	EmailEndpoint string `env:"TALECRAFT_EMAIL_ENDPOINT"`

	NotificationTitle string `env:"TALECRAFT_NOTIFICATION_TITLE" envDefault:"A new episode has arrived"`
	DirectoryPath     string `env:"TALECRAFT_DIRECTORY_PATH" envDefault:"talecraft.db"`

	OTelEndpoint string `env:"TALECRAFT_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"TALECRAFT_OTEL_ENABLED" envDefault:"true"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges. Missing credentials are not errors here: the
// LLM client reports a missing API key and absent notification credentials
// simply disable their channel.
func (c Config) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive", ErrInvalidConfig)
	}
	if c.SummaryThreshold < 0 {
		return fmt.Errorf("%w: summary threshold must not be negative", ErrInvalidConfig)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LLM returns the generation settings for episode writing.
func (c Config) LLM() narrative.LLMConfig {
	return narrative.LLMConfig{
		Model:          c.Model,
		Temperature:    c.Temperature,
		MaxTokens:      c.MaxTokens,
		APIKey:         c.OpenAIAPIKey,
		RequestTimeout: c.RequestTimeout,
	}
}

// EvaluatorLLM returns the settings for character evaluations. It falls back
// to the episode model.
func (c Config) EvaluatorLLM() narrative.LLMConfig {
	llm := c.LLM()
	if c.EvaluatorModel != "" {
		llm.Model = c.EvaluatorModel
	}
	return llm
}

// SummaryLLM returns the settings for previous episode summaries.
func (c Config) SummaryLLM() narrative.LLMConfig {
	llm := c.LLM()
	if c.SummaryModel != "" {
		llm.Model = c.SummaryModel
	}
	return llm
}

// PushEnabled reports whether a push credential is configured.
func (c Config) PushEnabled() bool {
	return c.LineChannelToken != ""
}

// EmailEnabled reports whether an email credential and sender are configured.
func (c Config) EmailEnabled() bool {
	return c.EmailAPIKey != "" && c.EmailFrom != ""
}

// Line returns the push transport settings.
func (c Config) Line() notify.LineConfig {
	return notify.LineConfig{
		ChannelToken: c.LineChannelToken,
		Endpoint:     c.LineEndpoint,
		DeepLinkURL:  c.DeepLinkURL,
	}
}

// Email returns the email transport settings.
func (c Config) Email() notify.EmailConfig {
	return notify.EmailConfig{
		APIKey:   c.EmailAPIKey,
		From:     c.EmailFrom,
		Endpoint: c.EmailEndpoint,
	}
}
