package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dhabedank/longform/internal/config"
	"github.com/dhabedank/longform/internal/llm"
	"github.com/dhabedank/longform/internal/tui"
)

var resetConfig bool

// SetupCmd represents the setup command.
var SetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	Long: `Configure longform with an interactive wizard.

This wizard helps you select a model for each kind of call:
- Outline model: book, volume and chapter outlines (JSON planning)
- Content model: chapter first drafts and the enhancement pass
- Expansion model: the many short segment expansions per chapter

Configuration is saved to ~/.longform.yaml`,
	RunE: runSetup,
}

func init() {
	SetupCmd.Flags().BoolVar(&resetConfig, "reset", false, "Reset configuration to defaults")
}

// setupSteps are the wizard steps in order.
var setupSteps = []struct {
	name  string
	title string
}{
	{"Outline", "Select Outline Model (book, volume, chapter plans)"},
	{"Content", "Select Content Model (chapter drafts)"},
	{"Expansion", "Select Expansion Model (segment rewrites)"},
}

func runSetup(cmd *cobra.Command, args []string) error {
	configPath, err := config.DefaultPath()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if resetConfig {
		if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove config: %w", err)
		}
		fmt.Fprintln(out, tui.SuccessStyle.Render("✓")+" Configuration reset to defaults")
		fmt.Fprintf(out, "  Removed: %s\n", configPath)
		return nil
	}

	models := llm.AllModels()
	if len(models) == 0 {
		return fmt.Errorf("no LLM providers detected: set ANTHROPIC_API_KEY or OPENAI_API_KEY, or install Claude Code or Codex")
	}

	p := tea.NewProgram(newSetupModel(models))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	finalModel := m.(setupModel)
	if finalModel.cancelled {
		fmt.Fprintln(out, "Setup cancelled")
		return nil
	}

	// Keep whatever else the existing file holds.
	cfg := config.Default()
	if _, err := os.Stat(configPath); err == nil {
		existing, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = *existing
	}
	applySelection(&cfg, finalModel.selectedModels)

	if err := config.Save(configPath, &cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, tui.SuccessStyle.Render("✓")+" Configuration saved to "+configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Selected models:")
	fmt.Fprintf(out, "  Outline:   %s\n", tui.ModelStyle.Render(cfg.LLM.OutlineModel))
	fmt.Fprintf(out, "  Content:   %s\n", tui.ModelStyle.Render(cfg.LLM.ContentModel))
	fmt.Fprintf(out, "  Expansion: %s\n", tui.ModelStyle.Render(cfg.LLM.ExpansionModel))
	return nil
}

// applySelection stores the chosen model IDs and points the provider at the
// API matching the content model.
func applySelection(cfg *config.Config, selected []string) {
	cfg.LLM.OutlineModel = selected[0]
	cfg.LLM.ContentModel = selected[1]
	cfg.LLM.ExpansionModel = selected[2]
	if cfg.LLM.Provider == "" || cfg.LLM.Provider == llm.ProviderAuto {
		for _, m := range llm.AllModels() {
			if m.ID != selected[1] {
				continue
			}
			if m.Provider == "openai" && os.Getenv("OPENAI_API_KEY") != "" {
				cfg.LLM.Provider = llm.ProviderOpenAI
			}
		}
	}
}

// Bubble Tea model for the setup wizard

type setupModel struct {
	step           int
	lists          []list.Model
	selectedModels []string
	cancelled      bool
	width          int
	height         int
}

type modelItem struct {
	info llm.ModelInfo
}

func (m modelItem) Title() string       { return m.info.Name }
func (m modelItem) Description() string { return m.info.Description }
func (m modelItem) FilterValue() string { return m.info.Name }

func newSetupModel(models []llm.ModelInfo) setupModel {
	items := make([]list.Item, len(models))
	for i, m := range models {
		items[i] = modelItem{info: m}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(tui.ColorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(tui.ColorMuted)

	lists := make([]list.Model, len(setupSteps))
	for i, step := range setupSteps {
		l := list.New(items, delegate, 60, 14)
		l.Title = step.title
		l.SetShowStatusBar(false)
		l.SetFilteringEnabled(false)
		l.Styles.Title = tui.TitleStyle
		lists[i] = l
	}

	return setupModel{
		lists:          lists,
		selectedModels: make([]string, len(setupSteps)),
	}
}

func (m setupModel) Init() tea.Cmd {
	return nil
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetWidth(msg.Width)
			m.lists[i].SetHeight(msg.Height - 4)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			if item, ok := m.lists[m.step].SelectedItem().(modelItem); ok {
				m.selectedModels[m.step] = item.info.ID
			}
			if m.step == len(m.lists)-1 {
				return m, tea.Quit
			}
			m.step++
			return m, nil

		case "left", "h":
			if m.step > 0 {
				m.step--
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.lists[m.step], cmd = m.lists[m.step].Update(msg)
	return m, cmd
}

func (m setupModel) View() string {
	if m.cancelled {
		return ""
	}

	var progress strings.Builder
	progress.WriteString("\n  ")
	for i, s := range setupSteps {
		switch {
		case i == m.step:
			progress.WriteString(tui.SelectedStyle.Render(fmt.Sprintf("[%s]", s.name)))
		case i < m.step:
			progress.WriteString(tui.SuccessStyle.Render(fmt.Sprintf("✓ %s", s.name)))
		default:
			progress.WriteString(tui.UnselectedStyle.Render(fmt.Sprintf("○ %s", s.name)))
		}
		if i < len(setupSteps)-1 {
			progress.WriteString(" → ")
		}
	}
	progress.WriteString("\n\n")

	help := tui.HelpStyle.Render("\n  ↑/↓: navigate • enter: select • ←: back • q: quit")
	return progress.String() + m.lists[m.step].View() + help
}
