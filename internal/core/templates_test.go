package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultTemplatesRenderEveryTemplate(t *testing.T) {
	set := MustDefaultTemplates()

	slots := map[TemplateID]map[string]string{
		TemplateBookOutline:       {"topic": "T", "description": "D"},
		TemplateVolumeOutline:     {"volume_number": "1", "volume_title": "V", "volume_description": "d", "key_plots": `["a"]`},
		TemplateChapterOutline:    {"chapter_title": "C", "plot_points": `["p"]`, "word_count": "3000"},
		TemplateChapterContent:    {"chapter_title": "C", "chapter_outline": "{}", "target_words": "3000"},
		TemplateExpandDescription: {"segment": "S"},
		TemplateExpandDialogue:    {"segment": "S"},
		TemplateExpandCharacter:   {"segment": "S"},
		TemplateEnhanceChapter:    {"content": "X"},
		TemplateScene: {
			"setting": "s", "characters": "c", "goals": "g", "conflicts": "x",
			"mood": "m", "pov": "p", "style": "st", "world_rules": "r",
		},
		TemplateDialogue: {"characters": "c", "character_traits": "t", "relationship": "r", "context": "x", "tone": "n"},
	}

	for _, id := range AllTemplates {
		vars, ok := slots[id]
		if !ok {
			t.Errorf("no slots for %s", id)
			continue
		}
		system, user, err := set.Render(id, vars)
		if err != nil {
			t.Errorf("Render(%s) error = %v", id, err)
			continue
		}
		if strings.TrimSpace(system) == "" || strings.TrimSpace(user) == "" {
			t.Errorf("Render(%s) produced an empty prompt", id)
		}
		if set.Source(id) != "builtin" {
			t.Errorf("Source(%s) = %q, want builtin", id, set.Source(id))
		}
	}
}

func TestRenderMissingSlot(t *testing.T) {
	set := MustDefaultTemplates()
	if _, _, err := set.Render(TemplateBookOutline, map[string]string{"topic": "T"}); err == nil {
		t.Error("Render() with a missing slot succeeded")
	}
	if _, _, err := set.Render("nope", nil); err == nil {
		t.Error("Render() of an unknown template succeeded")
	}
}

func TestReloadReturnsNewSet(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "expand_dialogue.user.tmpl"), []byte("OVERRIDE {{.segment}}"), 0644); err != nil {
		t.Fatal(err)
	}

	base := MustDefaultTemplates()
	next, err := base.Reload(dir)
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	_, user, err := next.Render(TemplateExpandDialogue, map[string]string{"segment": "S"})
	if err != nil {
		t.Fatal(err)
	}
	if user != "OVERRIDE S" {
		t.Errorf("reloaded user prompt = %q, want OVERRIDE S", user)
	}
	if next.Source(TemplateExpandDialogue) != filepath.Clean(dir) {
		t.Errorf("Source() = %q, want %q", next.Source(TemplateExpandDialogue), dir)
	}

	// The original set and untouched templates are unchanged.
	_, user, _ = base.Render(TemplateExpandDialogue, map[string]string{"segment": "S"})
	if strings.HasPrefix(user, "OVERRIDE") {
		t.Error("Reload() modified the receiver")
	}
	sysBase, _, _ := base.Render(TemplateExpandDialogue, map[string]string{"segment": "S"})
	sysNext, _, _ := next.Render(TemplateExpandDialogue, map[string]string{"segment": "S"})
	if sysBase != sysNext {
		t.Error("Reload() replaced the system half that was not overridden")
	}
}

func TestReloadErrors(t *testing.T) {
	base := MustDefaultTemplates()
	if _, err := base.Reload(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Reload() of a missing directory succeeded")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scene.system.tmpl"), []byte("{{.broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := base.Reload(dir); err == nil {
		t.Error("Reload() of a malformed template succeeded")
	}
}

func TestTemplateClass(t *testing.T) {
	tests := map[TemplateID]TemplateClass{
		TemplateBookOutline:     ClassOutline,
		TemplateVolumeOutline:   ClassOutline,
		TemplateChapterOutline:  ClassOutline,
		TemplateChapterContent:  ClassContent,
		TemplateEnhanceChapter:  ClassContent,
		TemplateScene:           ClassContent,
		TemplateExpandCharacter: ClassExpansion,
	}
	for id, want := range tests {
		if got := id.Class(); got != want {
			t.Errorf("%s.Class() = %s, want %s", id, got, want)
		}
	}
}
