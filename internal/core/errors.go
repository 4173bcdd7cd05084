package core

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names one LLM-backed step of the pipeline.
type Stage string

const (
	StageBookOutline    Stage = "book_outline"
	StageVolumeOutline  Stage = "volume_outline"
	StageChapterOutline Stage = "chapter_outline"
	StageContent        Stage = "chapter_content"
	StageExpansion      Stage = "expansion"
	StageEnhance        Stage = "enhance"
)

// JSONParseError means the model output was not valid JSON after fence stripping.
type JSONParseError struct {
	RawText string
	Err     error
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("json parse error: %v", e.Err)
}

func (e *JSONParseError) Unwrap() error { return e.Err }

// SchemaValidationError means the parsed JSON did not satisfy the stage contract.
// MissingFields lists absent required keys; Violations lists type or shape problems.
type SchemaValidationError struct {
	MissingFields []string
	Violations    []string
	RawObject     map[string]any
}

func (e *SchemaValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.Violations) > 0 {
		parts = append(parts, strings.Join(e.Violations, "; "))
	}
	return "schema validation error: " + strings.Join(parts, "; ")
}

// StructuredOutputError is a hard failure of an outline stage. It carries the
// stage name and the raw model output for diagnosis.
type StructuredOutputError struct {
	Stage   Stage
	RawText string
	Err     error
}

func (e *StructuredOutputError) Error() string {
	return fmt.Sprintf("%s stage produced unusable output: %v", e.Stage, e.Err)
}

func (e *StructuredOutputError) Unwrap() error { return e.Err }

// ProviderError wraps a failure of the LLM adapter itself.
type ProviderError struct {
	Adapter  string
	Template TemplateID
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed on %s: %v", e.Adapter, e.Template, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Soft expansion outcomes. They are never returned by the pipeline; see ExpansionOutcome.Err.
var (
	ErrNoValidSegment  = errors.New("no expandable segment")
	ErrBudgetExhausted = errors.New("expansion budget exhausted before target")
)
