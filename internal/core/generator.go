package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/dhabedank/longform/internal/core")

// Generator runs the hierarchical pipeline:
// Stage 1: topic → book outline
// Stage 2: each volume → chapter list
// Stage 3: each chapter → scene outline → prose → expansion (→ enhancement)
// Everything runs sequentially in document order.
type Generator struct {
	invoker  Invoker
	config   GenerateConfig
	expander *Expander
	observer Observer
	logger   *slog.Logger
	runID    string
}

// Option configures a Generator.
type Option func(*Generator)

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRunID tags every log record and span with the given run ID.
func WithRunID(id string) Option {
	return func(g *Generator) { g.runID = id }
}

// NewGenerator creates a generator over the given invoker.
func NewGenerator(invoker Invoker, config GenerateConfig, opts ...Option) *Generator {
	g := &Generator{
		invoker:  invoker,
		config:   config,
		observer: NopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.runID == "" {
		g.runID = uuid.NewString()
	}
	g.logger = g.logger.With("run_id", g.runID)
	g.expander = NewExpander(invoker, config.MaxIterations, g.logger)
	return g
}

// Config returns the run parameters.
func (g *Generator) Config() GenerateConfig { return g.config }

// RunID returns the ID attached to this generator's logs and spans.
func (g *Generator) RunID() string { return g.runID }

// stage wraps one unit of work with a span, timing, logging and observer events.
func (g *Generator) stage(ctx context.Context, stage Stage, label string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, string(stage), trace.WithAttributes(
		attribute.String("label", label),
		attribute.String("run_id", g.runID),
	))
	defer span.End()

	g.observer.StageStarted(stage, label)
	g.logger.Info("stage started", "stage", stage, "label", label)
	start := time.Now()

	err := fn(ctx)

	elapsed := time.Since(start)
	g.observer.StageFinished(stage, label, elapsed, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var soe *StructuredOutputError
		if errors.As(err, &soe) {
			g.logger.Error("stage failed", "stage", stage, "label", label, "error", err, "raw_output", soe.RawText)
		} else {
			g.logger.Error("stage failed", "stage", stage, "label", label, "error", err)
		}
		return err
	}
	g.logger.Info("stage finished", "stage", stage, "label", label, "elapsed", elapsed.Round(time.Millisecond))
	return nil
}

// BookOutline runs the book-level outline stage.
func (g *Generator) BookOutline(ctx context.Context, topic, description string) (BookOutline, error) {
	var out BookOutline
	err := g.stage(ctx, StageBookOutline, topic, func(ctx context.Context) error {
		raw, err := g.invoker.Invoke(ctx, TemplateBookOutline, map[string]string{
			"topic":       topic,
			"description": description,
		})
		if err != nil {
			return err
		}
		out, err = DecodeBookOutline(raw)
		return err
	})
	return out, err
}

// VolumeOutline runs the volume-level outline stage and merges the chapter
// list with the summary into a new snapshot.
func (g *Generator) VolumeOutline(ctx context.Context, summary VolumeSummary) (PlannedVolume, error) {
	var out PlannedVolume
	label := fmt.Sprintf("volume %d %s", summary.VolumeNumber, summary.VolumeTitle)
	err := g.stage(ctx, StageVolumeOutline, label, func(ctx context.Context) error {
		raw, err := g.invoker.Invoke(ctx, TemplateVolumeOutline, map[string]string{
			"volume_number":      strconv.Itoa(int(summary.VolumeNumber)),
			"volume_title":       summary.VolumeTitle,
			"volume_description": summary.VolumeDescription,
			"key_plots":          toJSON(summary.KeyPlots, false),
		})
		if err != nil {
			return err
		}
		vo, err := DecodeVolumeOutline(raw)
		if err != nil {
			return err
		}
		out = NewPlannedVolume(summary, vo)
		return nil
	})
	return out, err
}

// ChapterOutline runs the chapter-level outline stage.
func (g *Generator) ChapterOutline(ctx context.Context, plan ChapterPlan) (ChapterOutline, error) {
	var out ChapterOutline
	label := fmt.Sprintf("chapter %d %s", plan.ChapterNumber, plan.ChapterTitle)
	err := g.stage(ctx, StageChapterOutline, label, func(ctx context.Context) error {
		raw, err := g.invoker.Invoke(ctx, TemplateChapterOutline, map[string]string{
			"chapter_title": plan.ChapterTitle,
			"plot_points":   toJSON(plan.PlotPoints, false),
			"word_count":    strconv.Itoa(g.config.targetFor(plan)),
		})
		if err != nil {
			return err
		}
		out, err = DecodeChapterOutline(raw)
		return err
	})
	return out, err
}

// WriteChapter turns a chapter outline into finished prose: initial draft,
// expansion toward the word target, then the optional enhancement pass.
func (g *Generator) WriteChapter(ctx context.Context, volume int, plan ChapterPlan, outline ChapterOutline) (ChapterDraft, error) {
	target := g.config.targetFor(plan)
	draft := ChapterDraft{Volume: volume, Plan: plan, Outline: outline}
	label := fmt.Sprintf("chapter %d.%d %s", volume, plan.ChapterNumber, plan.ChapterTitle)

	title := outline.ChapterTitle
	if title == "" {
		title = plan.ChapterTitle
	}

	var text string
	err := g.stage(ctx, StageContent, label, func(ctx context.Context) error {
		var err error
		text, err = g.invoker.Invoke(ctx, TemplateChapterContent, map[string]string{
			"chapter_title":   title,
			"chapter_outline": toJSON(outline, true),
			"target_words":    strconv.Itoa(target),
		})
		return err
	})
	if err != nil {
		return ChapterDraft{}, err
	}
	text = strings.TrimSpace(text)

	err = g.stage(ctx, StageExpansion, label, func(ctx context.Context) error {
		var err error
		text, draft.Expansion, err = g.expander.Expand(ctx, text, target)
		return err
	})
	if err != nil {
		return ChapterDraft{}, err
	}
	if draft.Expansion.Outcome != OutcomeTargetMet {
		g.logger.Warn("chapter below target",
			"volume", volume,
			"chapter", int(plan.ChapterNumber),
			"words", draft.Expansion.FinalWords,
			"target", target,
			"outcome", draft.Expansion.Outcome)
	}

	if g.config.Enhance {
		err = g.stage(ctx, StageEnhance, label, func(ctx context.Context) error {
			out, err := g.invoker.Invoke(ctx, TemplateEnhanceChapter, map[string]string{"content": text})
			if err != nil {
				return err
			}
			if polished := strings.TrimSpace(out); polished != "" {
				text = polished
				draft.Enhanced = true
			}
			return nil
		})
		if err != nil {
			return ChapterDraft{}, err
		}
	}

	draft.Text = text
	return draft, nil
}

// GenerateBook runs the whole pipeline. Outline failures abort the run and
// no partial book is returned. The chapter limit is checked before every
// chapter and after each one completes.
func (g *Generator) GenerateBook(ctx context.Context, topic, description string) (*Book, error) {
	outline, err := g.BookOutline(ctx, topic, description)
	if err != nil {
		return nil, fmt.Errorf("book outline: %w", err)
	}
	g.logger.Info("book outline ready", "theme", outline.MainTheme, "volumes", len(outline.Volumes))

	book := &Book{Topic: topic, Description: description, Outline: outline}
	gate := NewChapterGate(g.config.ChapterLimit)

	for _, summary := range outline.Volumes {
		if gate.Reached() {
			break
		}
		planned, err := g.VolumeOutline(ctx, summary)
		if err != nil {
			return nil, fmt.Errorf("volume %d outline: %w", summary.VolumeNumber, err)
		}

		vol := VolumeDraft{Summary: planned.Summary, Planned: planned.Chapters}
		for _, plan := range planned.Chapters {
			if gate.Reached() {
				break
			}
			co, err := g.ChapterOutline(ctx, plan)
			if err != nil {
				return nil, fmt.Errorf("volume %d chapter %d outline: %w", summary.VolumeNumber, plan.ChapterNumber, err)
			}
			ch, err := g.WriteChapter(ctx, int(summary.VolumeNumber), plan, co)
			if err != nil {
				return nil, fmt.Errorf("volume %d chapter %d content: %w", summary.VolumeNumber, plan.ChapterNumber, err)
			}
			vol.Chapters = append(vol.Chapters, ch)
			gate.Record()
			g.observer.ChapterWritten(planned.Summary, ch)
			if gate.Reached() {
				g.logger.Info("chapter limit reached", "limit", gate.Limit())
				break
			}
		}
		book.Volumes = append(book.Volumes, vol)
	}

	text := BookText(book)
	g.logger.Info("book assembled",
		"chapters", book.ChapterCount(),
		"chars", len([]rune(text)),
		"words", CountWords(text))
	return book, nil
}

// GenerateOutline builds the complete outline tree without writing prose.
// The chapter limit applies to chapter outlines.
func (g *Generator) GenerateOutline(ctx context.Context, topic, description string) (*FullOutline, error) {
	book, err := g.BookOutline(ctx, topic, description)
	if err != nil {
		return nil, fmt.Errorf("book outline: %w", err)
	}

	full := &FullOutline{Topic: topic, Description: description, Book: book}
	gate := NewChapterGate(g.config.ChapterLimit)
	for _, summary := range book.Volumes {
		if gate.Reached() {
			break
		}
		planned, err := g.VolumeOutline(ctx, summary)
		if err != nil {
			return nil, fmt.Errorf("volume %d outline: %w", summary.VolumeNumber, err)
		}
		ov := OutlinedVolume{Summary: planned.Summary}
		for _, plan := range planned.Chapters {
			if gate.Reached() {
				break
			}
			co, err := g.ChapterOutline(ctx, plan)
			if err != nil {
				return nil, fmt.Errorf("volume %d chapter %d outline: %w", summary.VolumeNumber, plan.ChapterNumber, err)
			}
			ov.Chapters = append(ov.Chapters, OutlinedChapter{Plan: plan, Outline: co})
			gate.Record()
		}
		full.Volumes = append(full.Volumes, ov)
	}
	return full, nil
}

// GenerateChapterFromOutline writes a single chapter of a saved outline.
func (g *Generator) GenerateChapterFromOutline(ctx context.Context, outline *FullOutline, volume, chapter int) (ChapterDraft, error) {
	summary, oc, err := outline.Chapter(volume, chapter)
	if err != nil {
		return ChapterDraft{}, err
	}
	draft, err := g.WriteChapter(ctx, volume, oc.Plan, oc.Outline)
	if err != nil {
		return ChapterDraft{}, err
	}
	g.observer.ChapterWritten(summary, draft)
	return draft, nil
}

// toJSON serialises prompt slot values without HTML escaping.
func toJSON(v any, indent bool) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(buf.String())
}
