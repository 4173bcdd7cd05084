package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dhabedank/longform/internal/core"
	"github.com/dhabedank/longform/internal/llm"
)

// FileName is the config file looked up in the current directory, then $HOME.
const FileName = ".longform.yaml"

// EnvPrefix prefixes environment overrides, e.g. LONGFORM_LLM_PROVIDER.
const EnvPrefix = "LONGFORM"

// Config is the full configuration surface of the CLI.
type Config struct {
	LLM        llm.Config       `yaml:"llm" mapstructure:"llm"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Prompts    PromptsConfig    `yaml:"prompts" mapstructure:"prompts"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`

	source string // file the config was read from, empty for defaults
}

// GenerationConfig mirrors core.GenerateConfig.
type GenerationConfig struct {
	TargetWords   int  `yaml:"target_words" mapstructure:"target_words"`
	ChapterLimit  int  `yaml:"chapter_limit" mapstructure:"chapter_limit"`
	MaxIterations int  `yaml:"max_iterations" mapstructure:"max_iterations"`
	Enhance       bool `yaml:"enhance" mapstructure:"enhance"`
}

// OutputConfig controls where runs are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file,omitempty" mapstructure:"file"`
}

// PromptsConfig points at a directory of template overrides.
type PromptsConfig struct {
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty" mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM: llm.DefaultConfig(),
		Generation: GenerationConfig{
			TargetWords:   core.DefaultTargetWords,
			MaxIterations: core.DefaultMaxIterations,
		},
		Output: OutputConfig{Dir: "output"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Generate converts the generation section into pipeline parameters.
func (c *Config) Generate() core.GenerateConfig {
	return core.GenerateConfig{
		TargetWords:   c.Generation.TargetWords,
		ChapterLimit:  c.Generation.ChapterLimit,
		MaxIterations: c.Generation.MaxIterations,
		Enhance:       c.Generation.Enhance,
	}
}

// Source returns the file the config came from, or "" when only defaults
// and environment were used.
func (c *Config) Source() string { return c.source }

// Load reads configuration. With an explicit path the file must exist;
// otherwise .longform.yaml is searched in the current directory and $HOME
// and a missing file is not an error. Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.source = v.ConfigFileUsed()
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.prefer_cli", d.LLM.PreferCLI)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.outline_model", d.LLM.OutlineModel)
	v.SetDefault("llm.content_model", d.LLM.ContentModel)
	v.SetDefault("llm.expansion_model", d.LLM.ExpansionModel)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.expansion_temperature", d.LLM.ExpansionTemperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.expansion_max_tokens", d.LLM.ExpansionMaxTokens)
	v.SetDefault("llm.retries", d.LLM.Retries)
	v.SetDefault("llm.retry_delay", d.LLM.RetryDelay)
	v.SetDefault("llm.requests_per_second", d.LLM.RequestsPerSecond)

	v.SetDefault("generation.target_words", d.Generation.TargetWords)
	v.SetDefault("generation.chapter_limit", d.Generation.ChapterLimit)
	v.SetDefault("generation.max_iterations", d.Generation.MaxIterations)
	v.SetDefault("generation.enhance", d.Generation.Enhance)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("prompts.dir", d.Prompts.Dir)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// DefaultPath returns ~/.longform.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// Save writes cfg as YAML. API keys are never written.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
