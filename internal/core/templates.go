package core

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"
)

// TemplateID names a system/user prompt pair.
type TemplateID string

const (
	TemplateBookOutline       TemplateID = "book_outline"
	TemplateVolumeOutline     TemplateID = "volume_outline"
	TemplateChapterOutline    TemplateID = "chapter_outline"
	TemplateChapterContent    TemplateID = "chapter_content"
	TemplateExpandDescription TemplateID = "expand_description"
	TemplateExpandDialogue    TemplateID = "expand_dialogue"
	TemplateExpandCharacter   TemplateID = "expand_character"
	TemplateEnhanceChapter    TemplateID = "enhance_chapter"
	TemplateScene             TemplateID = "scene"
	TemplateDialogue          TemplateID = "dialogue"
)

// AllTemplates lists every built-in template in a stable order.
var AllTemplates = []TemplateID{
	TemplateBookOutline,
	TemplateVolumeOutline,
	TemplateChapterOutline,
	TemplateChapterContent,
	TemplateExpandDescription,
	TemplateExpandDialogue,
	TemplateExpandCharacter,
	TemplateEnhanceChapter,
	TemplateScene,
	TemplateDialogue,
}

// TemplateClass groups templates that share model settings.
type TemplateClass string

const (
	ClassOutline   TemplateClass = "outline"
	ClassContent   TemplateClass = "content"
	ClassExpansion TemplateClass = "expansion"
)

// Class reports which settings group a template belongs to.
func (id TemplateID) Class() TemplateClass {
	switch id {
	case TemplateBookOutline, TemplateVolumeOutline, TemplateChapterOutline:
		return ClassOutline
	case TemplateExpandDescription, TemplateExpandDialogue, TemplateExpandCharacter:
		return ClassExpansion
	default:
		return ClassContent
	}
}

//go:embed templates/*.tmpl
var templateFS embed.FS

type promptPair struct {
	system *template.Template
	user   *template.Template
}

// TemplateSet is an immutable collection of parsed prompt templates.
// Reload never changes the receiver; it returns a new set.
type TemplateSet struct {
	pairs  map[TemplateID]promptPair
	source map[TemplateID]string // "builtin" or the override directory
}

// DefaultTemplates parses the built-in templates.
func DefaultTemplates() (*TemplateSet, error) {
	set := &TemplateSet{
		pairs:  make(map[TemplateID]promptPair, len(AllTemplates)),
		source: make(map[TemplateID]string, len(AllTemplates)),
	}
	for _, id := range AllTemplates {
		pair, err := parsePair(templateFS, "templates", id)
		if err != nil {
			return nil, err
		}
		set.pairs[id] = pair
		set.source[id] = "builtin"
	}
	return set, nil
}

// MustDefaultTemplates is DefaultTemplates for package-level initialisation and tests.
func MustDefaultTemplates() *TemplateSet {
	set, err := DefaultTemplates()
	if err != nil {
		panic(err)
	}
	return set
}

// Reload returns a new set in which every template pair found in dir
// (<id>.system.tmpl and <id>.user.tmpl) replaces the receiver's version.
// Pairs absent from dir are carried over unchanged.
func (s *TemplateSet) Reload(dir string) (*TemplateSet, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("prompt directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("prompt directory %s is not a directory", dir)
	}

	next := &TemplateSet{
		pairs:  make(map[TemplateID]promptPair, len(s.pairs)),
		source: make(map[TemplateID]string, len(s.source)),
	}
	for id, p := range s.pairs {
		next.pairs[id] = p
		next.source[id] = s.source[id]
	}

	fsys := os.DirFS(dir)
	for _, id := range AllTemplates {
		_, errSys := fs.Stat(fsys, string(id)+".system.tmpl")
		_, errUser := fs.Stat(fsys, string(id)+".user.tmpl")
		if errors.Is(errSys, fs.ErrNotExist) && errors.Is(errUser, fs.ErrNotExist) {
			continue
		}
		pair, err := parsePairWithFallback(fsys, id, s.pairs[id])
		if err != nil {
			return nil, err
		}
		next.pairs[id] = pair
		next.source[id] = filepath.Clean(dir)
	}
	return next, nil
}

// Source reports where a template was loaded from.
func (s *TemplateSet) Source(id TemplateID) string {
	return s.source[id]
}

// Render fills a template's slots. A slot referenced by the template but
// absent from vars is an error.
func (s *TemplateSet) Render(id TemplateID, vars map[string]string) (system, user string, err error) {
	pair, ok := s.pairs[id]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", id)
	}
	var sys, usr bytes.Buffer
	if err := pair.system.Execute(&sys, vars); err != nil {
		return "", "", fmt.Errorf("render %s system prompt: %w", id, err)
	}
	if err := pair.user.Execute(&usr, vars); err != nil {
		return "", "", fmt.Errorf("render %s user prompt: %w", id, err)
	}
	return sys.String(), usr.String(), nil
}

func parsePair(fsys fs.FS, dir string, id TemplateID) (promptPair, error) {
	sys, err := parseOne(fsys, filepath.ToSlash(filepath.Join(dir, string(id)+".system.tmpl")))
	if err != nil {
		return promptPair{}, err
	}
	usr, err := parseOne(fsys, filepath.ToSlash(filepath.Join(dir, string(id)+".user.tmpl")))
	if err != nil {
		return promptPair{}, err
	}
	return promptPair{system: sys, user: usr}, nil
}

// parsePairWithFallback loads whichever half of the pair exists in fsys and
// keeps the current template for the other half.
func parsePairWithFallback(fsys fs.FS, id TemplateID, current promptPair) (promptPair, error) {
	pair := current
	if _, err := fs.Stat(fsys, string(id)+".system.tmpl"); err == nil {
		t, err := parseOne(fsys, string(id)+".system.tmpl")
		if err != nil {
			return promptPair{}, err
		}
		pair.system = t
	}
	if _, err := fs.Stat(fsys, string(id)+".user.tmpl"); err == nil {
		t, err := parseOne(fsys, string(id)+".user.tmpl")
		if err != nil {
			return promptPair{}, err
		}
		pair.user = t
	}
	return pair, nil
}

func parseOne(fsys fs.FS, name string) (*template.Template, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	t, err := template.New(filepath.Base(name)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return t, nil
}
