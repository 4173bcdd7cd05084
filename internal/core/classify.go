package core

import "strings"

// Specialist is one of the expansion templates.
type Specialist string

const (
	SpecialistDescription Specialist = "description"
	SpecialistDialogue    Specialist = "dialogue"
	SpecialistCharacter   Specialist = "character"
)

// Template returns the prompt template the specialist uses.
func (s Specialist) Template() TemplateID {
	switch s {
	case SpecialistDialogue:
		return TemplateExpandDialogue
	case SpecialistCharacter:
		return TemplateExpandCharacter
	default:
		return TemplateExpandDescription
	}
}

// Quotation characters covering ASCII, typographic and CJK conventions.
var dialogueQuotes = []string{`"`, "“", "”", "「", "」", "『", "』"}

var dialogueKeywords = []string{"dialogue", "对话", "对白"}

var interiorityKeywords = []string{
	"inner thoughts", "thought", "feelings", "felt",
	"内心", "心想", "想法", "感受", "感觉",
}

// Classify routes a segment to an expansion specialist. Dialogue markers win
// over interiority markers; anything else is descriptive.
func Classify(segment string) Specialist {
	lower := strings.ToLower(segment)
	if containsAny(segment, dialogueQuotes) || containsAny(lower, dialogueKeywords) {
		return SpecialistDialogue
	}
	if containsAny(lower, interiorityKeywords) {
		return SpecialistCharacter
	}
	return SpecialistDescription
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
