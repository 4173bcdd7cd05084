package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/dhabedank/longform/internal/core"
)

// ModelPricing contains pricing per 1M tokens for various models, in USD.
// Run summaries use it for a rough cost estimate only.
var ModelPricing = map[string]struct {
	InputPer1M  float64
	OutputPer1M float64
}{
	// Claude 4.5 models (latest)
	"claude-opus-4-5-20251101":   {InputPer1M: 5.0, OutputPer1M: 25.0},
	"claude-sonnet-4-5-20250929": {InputPer1M: 3.0, OutputPer1M: 15.0},
	"claude-haiku-4-5-20251001":  {InputPer1M: 1.0, OutputPer1M: 5.0},

	// Claude 4.x legacy models
	"claude-opus-4-1-20250805": {InputPer1M: 15.0, OutputPer1M: 75.0},
	"claude-sonnet-4-20250514": {InputPer1M: 3.0, OutputPer1M: 15.0},
	"claude-opus-4-20250514":   {InputPer1M: 15.0, OutputPer1M: 75.0},

	// OpenAI models
	"gpt-4o":      {InputPer1M: 2.5, OutputPer1M: 10.0},
	"gpt-4o-mini": {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4-turbo": {InputPer1M: 10.0, OutputPer1M: 30.0},
	"o3":          {InputPer1M: 10.0, OutputPer1M: 40.0},

	// Fallback for unknown models (use conservative estimate)
	"default": {InputPer1M: 5.0, OutputPer1M: 15.0},
}

// EstimateTokens estimates token count from character count.
// Uses the approximation that 1 token ≈ 4 characters.
func EstimateTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	return chars / 4
}

// EstimateCost calculates the estimated cost for a model given token counts.
// Returns cost in USD.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := ModelPricing[model]
	if !ok {
		pricing = ModelPricing["default"]
	}

	inputCost := float64(inputTokens) * pricing.InputPer1M / 1_000_000
	outputCost := float64(outputTokens) * pricing.OutputPer1M / 1_000_000

	return inputCost + outputCost
}

// FormatCost formats a cost in USD for display.
// Uses appropriate precision based on the magnitude.
func FormatCost(cost float64) string {
	if cost < 0.001 {
		return fmt.Sprintf("$%.4f", cost)
	}
	if cost < 0.01 {
		return fmt.Sprintf("$%.3f", cost)
	}
	return fmt.Sprintf("$%.2f", cost)
}

// FormatTokens formats a token count for display.
// Uses k suffix for thousands.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	if tokens < 10000 {
		return fmt.Sprintf("%.1fk", float64(tokens)/1000)
	}
	return fmt.Sprintf("%dk", tokens/1000)
}

// ClassUsage tallies the completions of one template class.
type ClassUsage struct {
	Class       core.TemplateClass
	Model       string
	Calls       int
	Failures    int
	InputChars  int
	OutputChars int
	Elapsed     time.Duration
}

// Cost estimates the spend for this class.
func (c ClassUsage) Cost() float64 {
	return EstimateCost(c.Model, EstimateTokens(c.InputChars), EstimateTokens(c.OutputChars))
}

var classOrder = []core.TemplateClass{core.ClassOutline, core.ClassContent, core.ClassExpansion}

// Usage accumulates completion sizes per template class. It implements
// llm.Recorder and is safe for concurrent use.
type Usage struct {
	mu      sync.Mutex
	models  map[core.TemplateClass]string
	classes map[core.TemplateClass]*ClassUsage
}

// NewUsage creates a tally. models names the model used for each class;
// missing entries are priced with the default rate.
func NewUsage(models map[core.TemplateClass]string) *Usage {
	return &Usage{models: models, classes: make(map[core.TemplateClass]*ClassUsage)}
}

func (u *Usage) ObserveCompletion(template core.TemplateID, _ string, elapsed time.Duration, promptChars, outputChars int, err error) {
	class := template.Class()
	u.mu.Lock()
	defer u.mu.Unlock()
	c, ok := u.classes[class]
	if !ok {
		c = &ClassUsage{Class: class, Model: u.models[class]}
		u.classes[class] = c
	}
	c.Calls++
	c.InputChars += promptChars
	c.OutputChars += outputChars
	c.Elapsed += elapsed
	if err != nil {
		c.Failures++
	}
}

// Classes returns the per-class tallies in pipeline order.
func (u *Usage) Classes() []ClassUsage {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []ClassUsage
	for _, class := range classOrder {
		if c, ok := u.classes[class]; ok {
			out = append(out, *c)
		}
	}
	return out
}

// Total sums every class.
func (u *Usage) Total() (calls, inputTokens, outputTokens int, cost float64) {
	for _, c := range u.Classes() {
		calls += c.Calls
		inputTokens += EstimateTokens(c.InputChars)
		outputTokens += EstimateTokens(c.OutputChars)
		cost += c.Cost()
	}
	return calls, inputTokens, outputTokens, cost
}
