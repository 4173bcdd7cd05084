package core

import (
	"context"
	"time"
)

// Invoker sends a named prompt template with its slot values to an LLM and
// returns the raw completion text. Implementations own model selection and
// provider configuration; the pipeline only names templates.
type Invoker interface {
	Invoke(ctx context.Context, template TemplateID, vars map[string]string) (string, error)
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, template TemplateID, vars map[string]string) (string, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, template TemplateID, vars map[string]string) (string, error) {
	return f(ctx, template, vars)
}

// Observer receives progress events from a generation run.
type Observer interface {
	StageStarted(stage Stage, label string)
	StageFinished(stage Stage, label string, elapsed time.Duration, err error)
	ChapterWritten(volume VolumeSummary, chapter ChapterDraft)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StageStarted(Stage, string)                        {}
func (NopObserver) StageFinished(Stage, string, time.Duration, error) {}
func (NopObserver) ChapterWritten(VolumeSummary, ChapterDraft)        {}

// multiObserver fans events out in order.
type multiObserver []Observer

// Observers combines several observers into one.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) StageStarted(s Stage, label string) {
	for _, o := range m {
		o.StageStarted(s, label)
	}
}

func (m multiObserver) StageFinished(s Stage, label string, elapsed time.Duration, err error) {
	for _, o := range m {
		o.StageFinished(s, label, elapsed, err)
	}
}

func (m multiObserver) ChapterWritten(v VolumeSummary, c ChapterDraft) {
	for _, o := range m {
		o.ChapterWritten(v, c)
	}
}
