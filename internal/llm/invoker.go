package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/dhabedank/longform/internal/core"
)

// Recorder observes every completion. internal/metrics implements it.
type Recorder interface {
	ObserveCompletion(template core.TemplateID, adapter string, elapsed time.Duration, promptChars, outputChars int, err error)
}

// recorders fans a completion out to several recorders.
type recorders []Recorder

// Recorders combines several recorders into one. Nil entries are skipped.
func Recorders(rs ...Recorder) Recorder {
	var out recorders
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (rs recorders) ObserveCompletion(template core.TemplateID, adapter string, elapsed time.Duration, promptChars, outputChars int, err error) {
	for _, r := range rs {
		r.ObserveCompletion(template, adapter, elapsed, promptChars, outputChars, err)
	}
}

// TemplateInvoker implements core.Invoker: it renders a named template,
// picks the model settings for the template's class and calls the adapter.
type TemplateInvoker struct {
	adapter   Adapter
	templates *core.TemplateSet
	config    Config
	recorder  Recorder
	logger    *slog.Logger
}

// NewTemplateInvoker creates an invoker. recorder and logger may be nil.
func NewTemplateInvoker(adapter Adapter, templates *core.TemplateSet, config Config, recorder Recorder, logger *slog.Logger) *TemplateInvoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateInvoker{
		adapter:   adapter,
		templates: templates,
		config:    config,
		recorder:  recorder,
		logger:    logger,
	}
}

// Adapter returns the underlying adapter.
func (t *TemplateInvoker) Adapter() Adapter { return t.adapter }

// Invoke renders the template and sends it. Adapter failures come back as
// *core.ProviderError; rendering failures are returned as-is.
func (t *TemplateInvoker) Invoke(ctx context.Context, id core.TemplateID, vars map[string]string) (string, error) {
	system, user, err := t.templates.Render(id, vars)
	if err != nil {
		return "", err
	}

	settings := t.config.SettingsFor(id.Class())
	req := Request{
		System:      system,
		User:        user,
		Model:       settings.Model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	}

	t.logger.Debug("invoking model",
		"template", id,
		"adapter", t.adapter.Name(),
		"model", req.Model,
		"prompt_chars", len(system)+len(user))

	start := time.Now()
	out, err := t.adapter.Complete(ctx, req)
	elapsed := time.Since(start)

	if t.recorder != nil {
		t.recorder.ObserveCompletion(id, t.adapter.Name(), elapsed, len(system)+len(user), len(out), err)
	}
	if err != nil {
		return "", &core.ProviderError{Adapter: t.adapter.Name(), Template: id, Err: err}
	}
	return out, nil
}
