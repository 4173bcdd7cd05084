package llm

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CodexCLIAdapter uses the Codex CLI for generation.
type CodexCLIAdapter struct {
	model string
}

// NewCodexCLIAdapter creates a Codex CLI adapter.
func NewCodexCLIAdapter(config Config) *CodexCLIAdapter {
	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &CodexCLIAdapter{model: model}
}

func (a *CodexCLIAdapter) Name() string {
	return ProviderCodexCLI
}

// IsAvailable checks if the codex CLI is installed.
func (a *CodexCLIAdapter) IsAvailable() bool {
	_, err := exec.LookPath("codex")
	return err == nil
}

// Complete sends both prompts on stdin; codex has no separate system prompt.
func (a *CodexCLIAdapter) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	combined := req.User
	if req.System != "" {
		combined = fmt.Sprintf("SYSTEM INSTRUCTIONS:\n%s\n\nUSER REQUEST:\n%s", req.System, req.User)
	}

	cmd := exec.CommandContext(ctx, "codex", "--model", model, "--quiet")
	cmd.Stdin = strings.NewReader(combined)
	return runCLI(cmd, "codex")
}
