// Package metrics exposes Prometheus metrics for generation runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dhabedank/longform/internal/core"
)

const namespace = "longform"

// Metrics holds the collectors for one process. It implements llm.Recorder
// and core.Observer.
type Metrics struct {
	registry *prometheus.Registry

	CompletionsTotal   *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	CompletionChars    *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	StageFailures      *prometheus.CounterVec
	ChaptersWritten    prometheus.Counter
	ChapterWords       prometheus.Histogram
	ExpansionRounds    *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CompletionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "completions_total",
				Help:      "Total number of LLM completions by template and status",
			},
			[]string{"template", "adapter", "status"},
		),
		CompletionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "completion_duration_seconds",
				Help:      "LLM completion latency in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"template"},
		),
		CompletionChars: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "chars_total",
				Help:      "Characters sent and received",
			},
			[]string{"direction"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		StageFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_failures_total",
				Help:      "Pipeline stages that returned an error",
			},
			[]string{"stage"},
		),
		ChaptersWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "chapters_written_total",
			Help:      "Chapters completed",
		}),
		ChapterWords: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "chapter_words",
			Help:      "Word count of finished chapters",
			Buckets:   prometheus.ExponentialBuckets(250, 2, 8),
		}),
		ExpansionRounds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "expansion_iterations",
				Help:      "Expansion iterations per chapter by outcome",
				Buckets:   prometheus.LinearBuckets(0, 1, 11),
			},
			[]string{"outcome"},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveCompletion implements llm.Recorder.
func (m *Metrics) ObserveCompletion(template core.TemplateID, adapter string, elapsed time.Duration, promptChars, outputChars int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CompletionsTotal.WithLabelValues(string(template), adapter, status).Inc()
	m.CompletionDuration.WithLabelValues(string(template)).Observe(elapsed.Seconds())
	m.CompletionChars.WithLabelValues("prompt").Add(float64(promptChars))
	m.CompletionChars.WithLabelValues("output").Add(float64(outputChars))
}

func (m *Metrics) StageStarted(core.Stage, string) {}

func (m *Metrics) StageFinished(stage core.Stage, _ string, elapsed time.Duration, err error) {
	m.StageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	if err != nil {
		m.StageFailures.WithLabelValues(string(stage)).Inc()
	}
}

func (m *Metrics) ChapterWritten(_ core.VolumeSummary, c core.ChapterDraft) {
	m.ChaptersWritten.Inc()
	m.ChapterWords.Observe(float64(c.Words()))
	m.ExpansionRounds.WithLabelValues(string(c.Expansion.Outcome)).Observe(float64(c.Expansion.Iterations))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
