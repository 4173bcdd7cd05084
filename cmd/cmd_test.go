package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dhabedank/longform/internal/config"
	"github.com/dhabedank/longform/internal/core"
	"github.com/dhabedank/longform/internal/llm"
	"github.com/dhabedank/longform/internal/output"
)

func TestLoadConfigFlagsOverrideOnlyWhenSet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("LONGFORM_LLM_OUTLINE_MODEL", "planner")

	var f commonFlags
	cmd := &cobra.Command{Use: "x"}
	addCommonFlags(cmd, &f)

	cfg, err := loadConfig(cmd, &f)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LLM.Provider != llm.ProviderAuto || cfg.LLM.OutlineModel != "planner" {
		t.Errorf("unset flags changed config: %+v", cfg.LLM)
	}

	if err := cmd.Flags().Parse([]string{"--llm", "claude-cli", "--model", "one-model", "--log-level", "debug"}); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(cmd, &f)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LLM.Provider != "claude-cli" || cfg.Log.Level != "debug" {
		t.Errorf("flags not applied: %+v %+v", cfg.LLM, cfg.Log)
	}
	// --model applies to every class.
	if cfg.LLM.OutlineModel != "" || cfg.LLM.Model != "one-model" {
		t.Errorf("--model did not replace per-class models: %+v", cfg.LLM)
	}
}

func TestApplyGenerationFlags(t *testing.T) {
	var f generationFlags
	cmd := &cobra.Command{Use: "x"}
	addGenerationFlags(cmd, &f)
	if err := cmd.Flags().Parse([]string{"--words", "1200", "--enhance"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	applyGenerationFlags(cmd, &cfg, &f)
	g := cfg.Generate()
	if g.TargetWords != 1200 || !g.Enhance || g.MaxIterations != 10 {
		t.Errorf("Generate() = %+v", g)
	}
}

func TestSetupModelWalksSteps(t *testing.T) {
	models := []llm.ModelInfo{
		{ID: "big", Name: "Big", Provider: "anthropic"},
		{ID: "small", Name: "Small", Provider: "anthropic"},
	}
	var m tea.Model = newSetupModel(models)

	enter := tea.KeyMsg{Type: tea.KeyEnter}
	down := tea.KeyMsg{Type: tea.KeyDown}

	m, _ = m.Update(enter)
	m, _ = m.Update(down)
	m, _ = m.Update(enter)
	m, _ = m.Update(down)
	m, cmd := m.Update(enter)
	if cmd == nil {
		t.Fatal("last step should quit")
	}

	got := m.(setupModel).selectedModels
	want := []string{"big", "small", "small"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("selectedModels = %v, want %v", got, want)
			break
		}
	}

	cfg := config.Default()
	applySelection(&cfg, got)
	if cfg.LLM.OutlineModel != "big" || cfg.LLM.ExpansionModel != "small" {
		t.Errorf("applySelection() = %+v", cfg.LLM)
	}
}

func TestSetupModelCancel(t *testing.T) {
	var m tea.Model = newSetupModel([]llm.ModelInfo{{ID: "a", Name: "A"}})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !m.(setupModel).cancelled || m.View() != "" {
		t.Error("q should cancel the wizard")
	}
}

func TestSceneCommandValidatesFlags(t *testing.T) {
	var out bytes.Buffer
	SceneCmd.SetOut(&out)
	SceneCmd.SetErr(&out)
	SceneCmd.SetArgs([]string{})
	if err := SceneCmd.Execute(); err == nil {
		t.Error("scene without --bible should fail")
	}
}

func TestReportFailureShowsAndSavesRawOutput(t *testing.T) {
	raw := "Here are the chapters: RAWMARKER one, two."
	failure := &core.StructuredOutputError{Stage: core.StageVolumeOutline, RawText: raw, Err: errors.New("json parse error")}
	err := fmt.Errorf("volume 1 outline: %w", failure)

	store := output.NewStore(output.Config{Dir: t.TempDir()}, time.Now(), nil)
	var out bytes.Buffer
	reportFailure(&out, store, err)

	if !strings.Contains(out.String(), "RAWMARKER") {
		t.Errorf("output missing raw text:\n%s", out.String())
	}
	saved, readErr := os.ReadFile(store.FailedOutputPath(core.StageVolumeOutline))
	if readErr != nil {
		t.Fatalf("raw output not saved: %v", readErr)
	}
	if string(saved) != raw {
		t.Errorf("saved = %q, want %q", saved, raw)
	}
}

func TestReportFailureIgnoresOtherErrors(t *testing.T) {
	store := output.NewStore(output.Config{Dir: t.TempDir()}, time.Now(), nil)
	var out bytes.Buffer
	reportFailure(&out, store, errors.New("connection refused"))
	if out.Len() != 0 {
		t.Errorf("reportFailure() wrote %q for a non-structured error", out.String())
	}
	if _, err := os.Stat(store.Dir()); !os.IsNotExist(err) {
		t.Error("reportFailure() created the run directory")
	}
}
