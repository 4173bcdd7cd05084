package core

import (
	"context"
	"log/slog"
	"strings"
)

// ExpansionOutcome records why the expansion loop stopped.
type ExpansionOutcome string

const (
	OutcomeTargetMet       ExpansionOutcome = "target_met"
	OutcomeBudgetExhausted ExpansionOutcome = "budget_exhausted"
	OutcomeNoValidSegment  ExpansionOutcome = "no_valid_segment"
)

// Err returns the sentinel for soft outcomes and nil when the target was met.
func (o ExpansionOutcome) Err() error {
	switch o {
	case OutcomeBudgetExhausted:
		return ErrBudgetExhausted
	case OutcomeNoValidSegment:
		return ErrNoValidSegment
	default:
		return nil
	}
}

// ExpansionSummary describes one chapter's expansion run.
type ExpansionSummary struct {
	TargetWords    int                `json:"target_words"`
	InitialWords   int                `json:"initial_words"`
	FinalWords     int                `json:"final_words"`
	Iterations     int                `json:"iterations"`
	Expansions     int                `json:"expansions"`      // Attempts whose output was applied
	FailedAttempts int                `json:"failed_attempts"` // Attempts that did not add words
	Outcome        ExpansionOutcome   `json:"outcome"`
	Specialists    map[Specialist]int `json:"specialists,omitempty"`
}

// expansionState is owned by a single Expand call.
type expansionState struct {
	currentText      string
	currentWordCount int
	iteration        int
	lastWordCount    int
}

// Expander grows chapter text toward a word target by repeatedly sending the
// shortest paragraph to a specialist template.
type Expander struct {
	invoker       Invoker
	maxIterations int
	logger        *slog.Logger
}

// NewExpander creates an expander. maxIterations <= 0 uses DefaultMaxIterations.
func NewExpander(invoker Invoker, maxIterations int, logger *slog.Logger) *Expander {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{invoker: invoker, maxIterations: maxIterations, logger: logger}
}

// MaxIterations returns the per-chapter budget.
func (e *Expander) MaxIterations() int { return e.maxIterations }

// Expand runs the expansion loop. Falling short of the target is not an
// error; the summary's Outcome says why the loop stopped. Only invoker
// failures are returned as errors.
func (e *Expander) Expand(ctx context.Context, text string, targetWords int) (string, ExpansionSummary, error) {
	words := CountWords(text)
	st := expansionState{currentText: text, currentWordCount: words, lastWordCount: words}
	sum := ExpansionSummary{
		TargetWords:  targetWords,
		InitialWords: words,
		Specialists:  make(map[Specialist]int),
	}

	for {
		if st.currentWordCount >= targetWords {
			sum.Outcome = OutcomeTargetMet
			break
		}
		if st.iteration >= e.maxIterations {
			sum.Outcome = OutcomeBudgetExhausted
			e.logger.Warn("expansion budget exhausted",
				"iterations", st.iteration,
				"words", st.currentWordCount,
				"target", targetWords)
			break
		}

		segment, ok := SelectShortest(ExpandableSegments(st.currentText))
		if !ok {
			sum.Outcome = OutcomeNoValidSegment
			e.logger.Warn("no expandable segment",
				"iteration", st.iteration,
				"words", st.currentWordCount)
			break
		}

		specialist := Classify(segment)
		sum.Specialists[specialist]++
		out, err := e.invoker.Invoke(ctx, specialist.Template(), map[string]string{"segment": segment})
		if err != nil {
			sum.Iterations = st.iteration
			sum.FinalWords = st.currentWordCount
			return st.currentText, sum, err
		}

		expanded := strings.TrimSpace(out)
		if CountWords(expanded) <= CountWords(segment) {
			sum.FailedAttempts++
			e.logger.Debug("expansion added no words",
				"iteration", st.iteration,
				"specialist", specialist)
		} else {
			// First occurrence only: a paragraph repeated verbatim elsewhere
			// keeps its later copies.
			st.currentText = strings.Replace(st.currentText, segment, expanded, 1)
			sum.Expansions++
		}

		st.iteration++
		st.lastWordCount = st.currentWordCount
		st.currentWordCount = CountWords(st.currentText)
		if st.currentWordCount <= st.lastWordCount {
			e.logger.Warn("expansion made no progress",
				"iteration", st.iteration,
				"words", st.currentWordCount)
		}
	}

	sum.Iterations = st.iteration
	sum.FinalWords = st.currentWordCount
	return st.currentText, sum, nil
}
