package core

import (
	"reflect"
	"testing"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"a b  c", 3},
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"tab\tseparated\nand newline", 4},
		{"她 走进 房间", 3},
	}

	for _, tt := range tests {
		if got := CountWords(tt.input); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestSplitSegments(t *testing.T) {
	text := "First paragraph.\nStill first.\n\nSecond.\n  \t\nThird.\n\n\n"
	want := []string{"First paragraph.\nStill first.", "Second.", "Third."}
	if got := SplitSegments(text); !reflect.DeepEqual(got, want) {
		t.Errorf("SplitSegments() = %q, want %q", got, want)
	}
}

func TestIsLeakedMarker(t *testing.T) {
	tests := []struct {
		segment string
		want    bool
	}{
		{"System: expand the scene", true},
		{"Human: more please", true},
		{"Assistant: here is the text", true},
		{"You are a novelist", true},
		{"Expert mode engaged", true},
		{"  System: indented", true},
		{"The system failed.", false},
		{"She said you are late.", false},
	}

	for _, tt := range tests {
		if got := IsLeakedMarker(tt.segment); got != tt.want {
			t.Errorf("IsLeakedMarker(%q) = %v, want %v", tt.segment, got, tt.want)
		}
	}
}

func TestExpandableSegmentsDropsMarkers(t *testing.T) {
	text := "System: ignore\n\nReal prose here.\n\nYou are an expert\n\nMore prose."
	want := []string{"Real prose here.", "More prose."}
	if got := ExpandableSegments(text); !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandableSegments() = %q, want %q", got, want)
	}
}

func TestSelectShortest(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     string
		ok       bool
	}{
		{"empty", nil, "", false},
		{"single", []string{"only"}, "only", true},
		{"shortest wins", []string{"a longer one", "short", "medium one"}, "short", true},
		{"tie goes to first", []string{"long segment", "abc", "xyz"}, "abc", true},
		{"runes not bytes", []string{"ab", "雨"}, "雨", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectShortest(tt.segments)
			if got != tt.want || ok != tt.ok {
				t.Errorf("SelectShortest() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		segment string
		want    Specialist
	}{
		{`"Run," she said.`, SpecialistDialogue},
		{"“Run,” she said.", SpecialistDialogue},
		{"「走」他说。", SpecialistDialogue},
		{"Their dialogue went nowhere.", SpecialistDialogue},
		{"He kept his feelings to himself.", SpecialistCharacter},
		{"Her inner thoughts were loud.", SpecialistCharacter},
		{"他的内心很乱。", SpecialistCharacter},
		{`"I know how you felt," she said.`, SpecialistDialogue},
		{"Rain hammered the tin roof.", SpecialistDescription},
	}

	for _, tt := range tests {
		if got := Classify(tt.segment); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.segment, got, tt.want)
		}
	}
}

func TestSpecialistTemplate(t *testing.T) {
	tests := map[Specialist]TemplateID{
		SpecialistDescription: TemplateExpandDescription,
		SpecialistDialogue:    TemplateExpandDialogue,
		SpecialistCharacter:   TemplateExpandCharacter,
	}
	for s, want := range tests {
		if got := s.Template(); got != want {
			t.Errorf("%s.Template() = %s, want %s", s, got, want)
		}
		if want.Class() != ClassExpansion {
			t.Errorf("%s.Class() = %s, want %s", want, want.Class(), ClassExpansion)
		}
	}
}
