package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dhabedank/longform/internal/config"
	"github.com/dhabedank/longform/internal/core"
	"github.com/dhabedank/longform/internal/llm"
	"github.com/dhabedank/longform/internal/logging"
	"github.com/dhabedank/longform/internal/metrics"
	"github.com/dhabedank/longform/internal/output"
	"github.com/dhabedank/longform/internal/tui"
)

// commonFlags are shared by every command that talks to a model.
type commonFlags struct {
	configFile  string
	llmProvider string
	llmModel    string
	promptsDir  string
	metricsAddr string
	logLevel    string
	plain       bool
}

func addCommonFlags(cmd *cobra.Command, f *commonFlags) {
	cmd.Flags().StringVar(&f.configFile, "config", "", "Config file (default: .longform.yaml in . or $HOME)")
	cmd.Flags().StringVarP(&f.llmProvider, "llm", "l", llm.ProviderAuto, "LLM provider (auto/anthropic-api/openai-api/claude-cli/codex-cli)")
	cmd.Flags().StringVarP(&f.llmModel, "model", "m", "", "Model for every stage (overrides per-stage models)")
	cmd.Flags().StringVar(&f.promptsDir, "prompts", "", "Directory of prompt template overrides")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug/info/warn/error)")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "Print progress lines instead of the live display")
}

// loadConfig reads the config file and applies flags the user set
// explicitly. Unset flags never override file or environment values.
func loadConfig(cmd *cobra.Command, f *commonFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("llm") {
		cfg.LLM.Provider = f.llmProvider
	}
	if flags.Changed("model") {
		cfg.LLM.Model = f.llmModel
		cfg.LLM.OutlineModel = ""
		cfg.LLM.ContentModel = ""
		cfg.LLM.ExpansionModel = ""
	}
	if flags.Changed("prompts") {
		cfg.Prompts.Dir = f.promptsDir
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	return cfg, nil
}

// runtime is everything a command needs to call models.
type runtime struct {
	cfg         *config.Config
	logger      *slog.Logger
	logCloser   io.Closer
	invoker     *llm.TemplateInvoker
	metrics     *metrics.Metrics
	usage       *tui.Usage
	interactive bool
}

// newRuntime builds the logger, templates, adapter and invoker. When the
// live display owns the terminal, console logging is suppressed and only
// the log file (if any) receives records.
func newRuntime(cmd *cobra.Command, cfg *config.Config, plain bool) (*runtime, error) {
	interactive := !plain && isTerminal(cmd.OutOrStdout())

	var console io.Writer = cmd.ErrOrStderr()
	if interactive {
		console = io.Discard
	}
	logger, closer, err := logging.New(console, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	templates, err := core.DefaultTemplates()
	if err != nil {
		closer.Close()
		return nil, err
	}
	if cfg.Prompts.Dir != "" {
		templates, err = templates.Reload(cfg.Prompts.Dir)
		if err != nil {
			closer.Close()
			return nil, fmt.Errorf("failed to load prompts from %s: %w", cfg.Prompts.Dir, err)
		}
		logger.Info("loaded prompt overrides", "dir", cfg.Prompts.Dir)
	}

	adapter, err := llm.Build(cfg.LLM, logger)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to create LLM adapter: %w", err)
	}

	m := metrics.New()
	usage := tui.NewUsage(map[core.TemplateClass]string{
		core.ClassOutline:   cfg.LLM.SettingsFor(core.ClassOutline).Model,
		core.ClassContent:   cfg.LLM.SettingsFor(core.ClassContent).Model,
		core.ClassExpansion: cfg.LLM.SettingsFor(core.ClassExpansion).Model,
	})
	invoker := llm.NewTemplateInvoker(adapter, templates, cfg.LLM, llm.Recorders(m, usage), logger)

	logger.Info("using LLM", "adapter", adapter.Name(), "config", cfg.Source())
	return &runtime{
		cfg:         cfg,
		logger:      logger,
		logCloser:   closer,
		invoker:     invoker,
		metrics:     m,
		usage:       usage,
		interactive: interactive,
	}, nil
}

func (r *runtime) Close() {
	_ = r.logCloser.Close()
}

// serveMetrics starts the metrics endpoint when configured. It stops with ctx.
func (r *runtime) serveMetrics(ctx context.Context) {
	addr := r.cfg.Metrics.Addr
	if addr == "" {
		return
	}
	go func() {
		if err := r.metrics.Serve(ctx, addr); err != nil {
			r.logger.Warn("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	r.logger.Info("serving metrics", "addr", addr)
}

// withProgress runs fn with a progress observer: the live display on a
// terminal, plain lines otherwise. Quitting the display cancels fn's context.
func (r *runtime) withProgress(ctx context.Context, out io.Writer, title string, fn func(context.Context, core.Observer) error) error {
	if !r.interactive {
		return fn(ctx, tui.NewLineObserver(out))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	display := tui.NewProgressDisplay(title)
	p := tea.NewProgram(display, tea.WithOutput(out))

	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx, tui.NewProgramObserver(p))
		p.Send(tui.DoneMsg{Err: err})
		errCh <- err
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("progress display failed: %w", err)
	}
	cancel()
	return <-errCh
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reportFailure shows the raw model output behind a structured-output failure
// and keeps a copy in the run directory. Other errors are left to the caller.
func reportFailure(w io.Writer, store *output.Store, err error) {
	var soe *core.StructuredOutputError
	if !errors.As(err, &soe) {
		return
	}
	path, werr := store.SaveFailedOutput(soe)
	if werr != nil {
		path = ""
	} else if _, statErr := os.Stat(path); statErr != nil {
		// dry run
		path = ""
	}
	fmt.Fprint(w, tui.RenderFailure(soe.Stage, soe.RawText, path))
}
