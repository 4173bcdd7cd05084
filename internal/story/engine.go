package story

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/dhabedank/longform/internal/core"
)

// Scene is a standalone scene request.
type Scene struct {
	Name       string   `yaml:"name"`
	Setting    string   `yaml:"setting"`
	Characters []string `yaml:"characters"`
	Goals      []string `yaml:"goals,omitempty"`
	Conflicts  []string `yaml:"conflicts,omitempty"`
	Outcomes   []string `yaml:"outcomes,omitempty"`
	POV        string   `yaml:"pov,omitempty"`
	Mood       string   `yaml:"mood,omitempty"`
}

// Engine renders bible-aware scene and dialogue prompts and sends them
// through an invoker.
type Engine struct {
	bible   *Bible
	invoker core.Invoker
	logger  *slog.Logger
}

// NewEngine creates an engine over bible.
func NewEngine(bible *Bible, invoker core.Invoker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{bible: bible, invoker: invoker, logger: logger}
}

// SceneVars builds the slot values for the scene template. Unknown
// characters are listed by name only.
func (e *Engine) SceneVars(scene Scene, style string) map[string]string {
	if style == "" {
		style = e.bible.Style
	}
	if style == "" {
		style = "descriptive"
	}
	var cast []string
	for _, name := range scene.Characters {
		if c, ok := e.bible.Character(name); ok {
			cast = append(cast, c.Summary())
		} else {
			cast = append(cast, name)
		}
	}
	var rules []string
	for _, r := range e.bible.World.ActiveRules(scene.Setting) {
		rules = append(rules, fmt.Sprintf("- %s: %s", r.Name, r.Description))
	}
	return map[string]string{
		"setting":     scene.Setting,
		"characters":  strings.Join(cast, "\n\n"),
		"goals":       bullets(scene.Goals),
		"conflicts":   bullets(scene.Conflicts),
		"mood":        orDefault(scene.Mood, "Neutral"),
		"pov":         orDefault(scene.POV, "Third Person"),
		"style":       style,
		"world_rules": orDefault(strings.Join(rules, "\n"), "None"),
	}
}

// GenerateScene writes prose for scene.
func (e *Engine) GenerateScene(ctx context.Context, scene Scene, style string) (string, error) {
	e.logger.Info("generating scene", "scene", scene.Name, "setting", scene.Setting, "characters", len(scene.Characters))
	text, err := e.invoker.Invoke(ctx, core.TemplateScene, e.SceneVars(scene, style))
	if err != nil {
		return "", fmt.Errorf("scene %q: %w", scene.Name, err)
	}
	return strings.TrimSpace(text), nil
}

// DialogueVars builds the slot values for the dialogue template.
// Relationships are only listed between the characters taking part.
func (e *Engine) DialogueVars(characters []string, situation, tone string) (map[string]string, error) {
	type traitInfo struct {
		Intensity   float64 `json:"intensity"`
		Description string  `json:"description"`
	}
	traits := make(map[string]map[string]traitInfo)
	var rels []string
	for _, name := range characters {
		c, ok := e.bible.Character(name)
		if !ok {
			continue
		}
		t := make(map[string]traitInfo, len(c.Traits))
		for _, tr := range c.Traits {
			t[tr.Name] = traitInfo{Intensity: tr.Intensity, Description: tr.Description}
		}
		traits[name] = t
		for _, other := range characters {
			if other == name {
				continue
			}
			if r, ok := c.RelationshipWith(other); ok {
				rels = append(rels, fmt.Sprintf("%s -> %s: %s (intensity %.1f)", name, other, r.Type, r.Intensity))
			}
		}
	}
	traitJSON, err := json.MarshalIndent(traits, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal traits: %w", err)
	}
	return map[string]string{
		"characters":       strings.Join(characters, ", "),
		"character_traits": string(traitJSON),
		"relationship":     orDefault(strings.Join(rels, "\n"), "None"),
		"context":          situation,
		"tone":             orDefault(tone, "natural"),
	}, nil
}

// GenerateDialogue writes a dialogue between characters.
func (e *Engine) GenerateDialogue(ctx context.Context, characters []string, situation, tone string) (string, error) {
	if len(characters) < 2 {
		return "", fmt.Errorf("dialogue needs at least two characters, got %d", len(characters))
	}
	vars, err := e.DialogueVars(characters, situation, tone)
	if err != nil {
		return "", err
	}
	e.logger.Info("generating dialogue", "characters", characters, "tone", vars["tone"])
	text, err := e.invoker.Invoke(ctx, core.TemplateDialogue, vars)
	if err != nil {
		return "", fmt.Errorf("dialogue: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(it)
	}
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
