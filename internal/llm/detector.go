package llm

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// ModelInfo describes a selectable model.
type ModelInfo struct {
	ID          string // Model identifier (e.g., "claude-sonnet-4-5-20250929")
	Name        string // Human-readable name
	Description string // Brief description
	Provider    string // "anthropic" or "openai"
}

var claudeModels = []ModelInfo{
	{ID: "claude-opus-4-5-20251101", Name: "Claude Opus 4.5", Description: "Strongest prose and planning, slowest", Provider: "anthropic"},
	{ID: "claude-sonnet-4-5-20250929", Name: "Claude Sonnet 4.5", Description: "Good default for outlines and chapters", Provider: "anthropic"},
	{ID: "claude-haiku-4-5-20251001", Name: "Claude Haiku 4.5", Description: "Cheap and fast, fine for expansion passes", Provider: "anthropic"},
	{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", Description: "Previous balanced model", Provider: "anthropic"},
}

var openaiModels = []ModelInfo{
	{ID: "gpt-4o", Name: "GPT-4o", Description: "Fast general model", Provider: "openai"},
	{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Most cost-effective", Provider: "openai"},
	{ID: "o3", Name: "O3", Description: "Reasoning model, good for outlines", Provider: "openai"},
}

// AvailableModels returns models grouped by provider based on what is
// reachable: an installed CLI or an API key in the environment.
func AvailableModels() map[string][]ModelInfo {
	result := make(map[string][]ModelInfo)

	if _, err := exec.LookPath("claude"); err == nil || os.Getenv("ANTHROPIC_API_KEY") != "" {
		result["anthropic"] = claudeModels
	}
	if _, err := exec.LookPath("codex"); err == nil || os.Getenv("OPENAI_API_KEY") != "" {
		result["openai"] = openaiModels
	}
	return result
}

// AllModels returns a flat list of all available models, Claude first.
func AllModels() []ModelInfo {
	available := AvailableModels()
	var result []ModelInfo
	if models, ok := available["anthropic"]; ok {
		result = append(result, models...)
	}
	if models, ok := available["openai"]; ok {
		result = append(result, models...)
	}
	return result
}

// NewAdapter builds the adapter for an explicit provider name.
func NewAdapter(provider string, config Config) (Adapter, error) {
	switch provider {
	case "", ProviderAuto:
		return DetectBestAdapter(config)
	case ProviderAnthropic:
		return NewAnthropicAPIAdapter(config)
	case ProviderOpenAI:
		return NewOpenAIAdapter(config)
	case ProviderClaudeCLI:
		return NewClaudeCLIAdapter(config), nil
	case ProviderCodexCLI:
		return NewCodexCLIAdapter(config), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", provider)
	}
}

// Build creates the configured adapter and applies the retry and rate-limit
// wrappers the config asks for.
func Build(config Config, logger *slog.Logger) (Adapter, error) {
	a, err := NewAdapter(config.Provider, config)
	if err != nil {
		return nil, err
	}
	a = WithRateLimit(a, config.RequestsPerSecond)
	return WithRetry(a, config.Attempts(), config.RetryDelay, logger), nil
}

// DetectBestAdapter finds the best available LLM adapter.
// Priority: Anthropic API > OpenAI API > Claude CLI > Codex CLI,
// with the CLIs first when PreferCLI is set.
func DetectBestAdapter(config Config) (Adapter, error) {
	if config.PreferCLI {
		if a := detectCLI(config); a != nil {
			return a, nil
		}
	}

	if a, err := NewAnthropicAPIAdapter(config); err == nil && a.IsAvailable() {
		return a, nil
	}
	if a, err := NewOpenAIAdapter(config); err == nil && a.IsAvailable() {
		return a, nil
	}

	if !config.PreferCLI {
		if a := detectCLI(config); a != nil {
			return a, nil
		}
	}

	return nil, fmt.Errorf("no LLM adapter available - set ANTHROPIC_API_KEY or OPENAI_API_KEY, or install Claude Code or Codex")
}

func detectCLI(config Config) Adapter {
	if claude := NewClaudeCLIAdapter(config); claude.IsAvailable() {
		return claude
	}
	if codex := NewCodexCLIAdapter(config); codex.IsAvailable() {
		return codex
	}
	return nil
}

// ListAvailableAdapters returns the names of all adapters that could be used.
func ListAvailableAdapters(config Config) []string {
	var available []string
	if a, _ := NewAnthropicAPIAdapter(config); a != nil && a.IsAvailable() {
		available = append(available, ProviderAnthropic)
	}
	if a, _ := NewOpenAIAdapter(config); a != nil && a.IsAvailable() {
		available = append(available, ProviderOpenAI)
	}
	if NewClaudeCLIAdapter(config).IsAvailable() {
		available = append(available, ProviderClaudeCLI)
	}
	if NewCodexCLIAdapter(config).IsAvailable() {
		available = append(available, ProviderCodexCLI)
	}
	return available
}
