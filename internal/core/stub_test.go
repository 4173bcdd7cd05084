package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// stubInvoker answers each template from a table of canned responses and
// counts calls per template.
type stubInvoker struct {
	responses map[TemplateID]func(vars map[string]string) (string, error)
	calls     map[TemplateID]int
	order     []TemplateID
}

func newStubInvoker() *stubInvoker {
	return &stubInvoker{
		responses: make(map[TemplateID]func(map[string]string) (string, error)),
		calls:     make(map[TemplateID]int),
	}
}

func (s *stubInvoker) on(id TemplateID, fn func(vars map[string]string) (string, error)) *stubInvoker {
	s.responses[id] = fn
	return s
}

func (s *stubInvoker) fixed(id TemplateID, text string) *stubInvoker {
	return s.on(id, func(map[string]string) (string, error) { return text, nil })
}

// allSpecialists answers every expansion template with fn.
func (s *stubInvoker) allSpecialists(fn func(segment string) string) *stubInvoker {
	for _, id := range []TemplateID{TemplateExpandDescription, TemplateExpandDialogue, TemplateExpandCharacter} {
		s.on(id, func(vars map[string]string) (string, error) { return fn(vars["segment"]), nil })
	}
	return s
}

func (s *stubInvoker) Invoke(_ context.Context, id TemplateID, vars map[string]string) (string, error) {
	s.calls[id]++
	s.order = append(s.order, id)
	fn, ok := s.responses[id]
	if !ok {
		return "", fmt.Errorf("no stub for %s", id)
	}
	return fn(vars)
}

func (s *stubInvoker) specialistCalls() int {
	return s.calls[TemplateExpandDescription] + s.calls[TemplateExpandDialogue] + s.calls[TemplateExpandCharacter]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func words(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

const twoVolumeBook = `{
  "main_theme": "T",
  "description": "D",
  "volumes": [
    {"volume_number": 1, "volume_title": "One", "volume_description": "first", "key_plots": ["p1"]},
    {"volume_number": 2, "volume_title": "Two", "volume_description": "second", "key_plots": ["p2"]}
  ]
}`

func volumeWithChapters(vars map[string]string) (string, error) {
	return fmt.Sprintf("```json\n"+`{
  "volume_number": %s,
  "volume_title": %q,
  "chapters": [
    {"chapter_number": 1, "chapter_title": "First", "plot_points": ["a"], "word_count": 3000},
    {"chapter_number": 2, "chapter_title": "Second", "plot_points": ["b"], "word_count": 3000}
  ]
}`+"\n```", vars["volume_number"], vars["volume_title"]), nil
}

func chapterOutlineFor(vars map[string]string) (string, error) {
	return fmt.Sprintf(`{"chapter_title": %q, "scenes": [
  {"scene_title": "s", "scene_description": "d", "key_elements": ["k"], "dialogues": [], "emotions": "calm", "expected_words": 500}
]}`, vars["chapter_title"]), nil
}
