package llm

import (
	"context"
	"time"

	"github.com/dhabedank/longform/internal/core"
)

// Request is one rendered prompt plus the model settings to send it with.
// Empty Model and zero Temperature/MaxTokens mean "adapter default".
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Adapter is the interface all LLM adapters must implement.
type Adapter interface {
	// Name returns the adapter identifier for logging.
	Name() string

	// IsAvailable checks if this adapter can be used (CLI installed, API key set, etc.)
	IsAvailable() bool

	// Complete sends the prompt pair and returns the raw completion text.
	Complete(ctx context.Context, req Request) (string, error)
}

// Provider names accepted by NewAdapter and the --llm flag.
const (
	ProviderAuto      = "auto"
	ProviderAnthropic = "anthropic-api"
	ProviderOpenAI    = "openai-api"
	ProviderClaudeCLI = "claude-cli"
	ProviderCodexCLI  = "codex-cli"
)

// Config holds configuration for LLM adapters.
type Config struct {
	// Provider selects an adapter; "auto" or empty runs detection.
	Provider string `yaml:"provider" mapstructure:"provider"`

	// PreferCLI prefers CLI tools (claude, codex) over API when detecting.
	PreferCLI bool `yaml:"prefer_cli" mapstructure:"prefer_cli"`

	// Model is the default model (optional, adapter chooses default).
	Model string `yaml:"model" mapstructure:"model"`

	// Per-class models. These override Model when set.
	OutlineModel   string `yaml:"outline_model" mapstructure:"outline_model"`
	ContentModel   string `yaml:"content_model" mapstructure:"content_model"`
	ExpansionModel string `yaml:"expansion_model" mapstructure:"expansion_model"`

	// APIKey for direct API access (optional if CLI is used or the env var is set).
	APIKey string `yaml:"-" mapstructure:"api_key"`

	// BaseURL points the OpenAI adapter at a compatible endpoint.
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`

	Temperature          float64 `yaml:"temperature" mapstructure:"temperature"`
	ExpansionTemperature float64 `yaml:"expansion_temperature" mapstructure:"expansion_temperature"`
	MaxTokens            int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	ExpansionMaxTokens   int     `yaml:"expansion_max_tokens" mapstructure:"expansion_max_tokens"`

	// Caller-side resilience; see WithRetry and WithRateLimit. Retries counts
	// extra attempts after the first; 0 disables retry.
	Retries           int           `yaml:"retries" mapstructure:"retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// Attempts returns the total number of tries per completion.
func (c Config) Attempts() int {
	return max(c.Retries, 0) + 1
}

// Settings are the model parameters for one template class.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// SettingsFor returns the model settings for a template class.
// Expansion specialists may run hotter and shorter than the outline stages.
func (c Config) SettingsFor(class core.TemplateClass) Settings {
	s := Settings{Model: c.Model, Temperature: c.Temperature, MaxTokens: c.MaxTokens}
	switch class {
	case core.ClassOutline:
		if c.OutlineModel != "" {
			s.Model = c.OutlineModel
		}
	case core.ClassContent:
		if c.ContentModel != "" {
			s.Model = c.ContentModel
		}
	case core.ClassExpansion:
		if c.ExpansionModel != "" {
			s.Model = c.ExpansionModel
		}
		if c.ExpansionTemperature > 0 {
			s.Temperature = c.ExpansionTemperature
		}
		if c.ExpansionMaxTokens > 0 {
			s.MaxTokens = c.ExpansionMaxTokens
		}
	}
	return s
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:             ProviderAuto,
		PreferCLI:            false,
		Temperature:          0.75,
		ExpansionTemperature: 0.8,
		MaxTokens:            8192,
		ExpansionMaxTokens:   4096,
		Retries:              2,
		RetryDelay:           2 * time.Second,
	}
}
