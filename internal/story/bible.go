// Package story holds the story bible (characters, world rules, arcs) and
// generates standalone scenes and dialogues grounded in it.
package story

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Trait is a named character trait. Intensity is in [0, 1].
type Trait struct {
	Name        string  `yaml:"name"`
	Intensity   float64 `yaml:"intensity"`
	Description string  `yaml:"description"`
}

// Relationship points from one character to another. Intensity runs from
// -1 (antagonistic) to 1 (close).
type Relationship struct {
	Target      string  `yaml:"target"`
	Type        string  `yaml:"type"`
	Intensity   float64 `yaml:"intensity"`
	Description string  `yaml:"description,omitempty"`
}

// Character is one entry of the cast.
type Character struct {
	Name          string            `yaml:"name"`
	Info          map[string]string `yaml:"info,omitempty"`
	Traits        []Trait           `yaml:"traits"`
	Relationships []Relationship    `yaml:"relationships,omitempty"`
	Goals         []string          `yaml:"goals,omitempty"`
}

// Summary renders the character for a prompt.
func (c Character) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Character: %s\n", c.Name)
	for _, k := range sortedKeys(c.Info) {
		if v := c.Info[k]; v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
	}
	if len(c.Traits) > 0 {
		b.WriteString("Traits:\n")
		for _, t := range c.Traits {
			fmt.Fprintf(&b, "- %s: %.2f - %s\n", t.Name, t.Intensity, t.Description)
		}
	}
	if len(c.Relationships) > 0 {
		b.WriteString("Relationships:\n")
		for _, r := range c.Relationships {
			fmt.Fprintf(&b, "- %s (%s): %.2f\n", r.Target, r.Type, r.Intensity)
		}
	}
	if len(c.Goals) > 0 {
		b.WriteString("Goals:\n")
		for _, g := range c.Goals {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RelationshipWith returns c's relationship to name, if any.
func (c Character) RelationshipWith(name string) (Relationship, bool) {
	for _, r := range c.Relationships {
		if r.Target == name {
			return r, true
		}
	}
	return Relationship{}, false
}

// Location is a named place with a type used by rule exceptions.
type Location struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
}

// Rule is a world rule. It does not apply in locations whose type is
// listed in Exceptions.
type Rule struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category,omitempty"`
	Exceptions  []string `yaml:"exceptions,omitempty"`
}

// Event is one timeline entry.
type Event struct {
	When     string   `yaml:"when"`
	Event    string   `yaml:"event"`
	Location string   `yaml:"location,omitempty"`
	Involved []string `yaml:"involved,omitempty"`
}

// World is the setting: places, rules and history.
type World struct {
	Locations []Location `yaml:"locations"`
	Rules     []Rule     `yaml:"rules"`
	Timeline  []Event    `yaml:"timeline,omitempty"`
}

// Location looks up a location by name.
func (w World) Location(name string) (Location, bool) {
	for _, l := range w.Locations {
		if l.Name == name {
			return l, true
		}
	}
	return Location{}, false
}

// ActiveRules returns the rules in force at location. An empty or unknown
// location gets every rule.
func (w World) ActiveRules(location string) []Rule {
	loc, ok := w.Location(location)
	if !ok {
		return append([]Rule(nil), w.Rules...)
	}
	var rules []Rule
	for _, r := range w.Rules {
		if !contains(r.Exceptions, loc.Type) {
			rules = append(rules, r)
		}
	}
	return rules
}

// Arc is a main plot, subplot or character arc.
type Arc struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"` // main, side or character
	Stages     []string `yaml:"stages,omitempty"`
	Characters []string `yaml:"characters,omitempty"`
	Goals      []string `yaml:"goals,omitempty"`
	Conflicts  []string `yaml:"conflicts,omitempty"`
	Progress   float64  `yaml:"progress,omitempty"`
}

// Bible is everything known about a story outside its prose.
type Bible struct {
	Title      string      `yaml:"title"`
	Genre      string      `yaml:"genre,omitempty"`
	Style      string      `yaml:"style,omitempty"`
	Characters []Character `yaml:"characters"`
	World      World       `yaml:"world"`
	Arcs       []Arc       `yaml:"arcs,omitempty"`
	Scenes     []Scene     `yaml:"scenes,omitempty"`
}

// Character looks up a cast member by name.
func (b *Bible) Character(name string) (Character, bool) {
	for _, c := range b.Characters {
		if c.Name == name {
			return c, true
		}
	}
	return Character{}, false
}

// Scene returns the named scene.
func (b *Bible) Scene(name string) (Scene, bool) {
	for _, s := range b.Scenes {
		if s.Name == name {
			return s, true
		}
	}
	return Scene{}, false
}

// ActiveArcs returns arcs that are not complete, main arcs first.
func (b *Bible) ActiveArcs() []Arc {
	var main, rest []Arc
	for _, a := range b.Arcs {
		if a.Progress >= 1 {
			continue
		}
		if a.Type == "main" {
			main = append(main, a)
		} else {
			rest = append(rest, a)
		}
	}
	return append(main, rest...)
}

// Validate checks intensity ranges and duplicate names.
func (b *Bible) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, c := range b.Characters {
		if c.Name == "" {
			errs = append(errs, errors.New("character with empty name"))
			continue
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("duplicate character %q", c.Name))
		}
		seen[c.Name] = true
		for _, t := range c.Traits {
			if t.Intensity < 0 || t.Intensity > 1 {
				errs = append(errs, fmt.Errorf("%s: trait %q intensity %.2f outside [0, 1]", c.Name, t.Name, t.Intensity))
			}
		}
		for _, r := range c.Relationships {
			if r.Intensity < -1 || r.Intensity > 1 {
				errs = append(errs, fmt.Errorf("%s: relationship with %q intensity %.2f outside [-1, 1]", c.Name, r.Target, r.Intensity))
			}
		}
	}
	return errors.Join(errs...)
}

// LoadBible reads and validates a YAML story bible.
func LoadBible(path string) (*Bible, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story bible: %w", err)
	}
	var b Bible
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse story bible %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid story bible %s: %w", path, err)
	}
	return &b, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
