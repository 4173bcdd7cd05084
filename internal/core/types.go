package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Count is an integer field the model may emit either as a JSON number
// or as a numeric string ("12").
type Count int

// UnmarshalJSON accepts 12, 12.0 and "12".
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("count %q is not an integer", s)
		}
		*c = Count(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = Count(int(f))
	return nil
}

// BookOutline is the book-level plan produced by the first outline stage.
type BookOutline struct {
	MainTheme   string          `json:"main_theme"`  // Central theme of the book
	Description string          `json:"description"` // One-paragraph synopsis
	Volumes     []VolumeSummary `json:"volumes"`     // Volumes in reading order
}

// VolumeSummary describes one volume as planned by the book outline.
type VolumeSummary struct {
	VolumeNumber      Count    `json:"volume_number"`
	VolumeTitle       string   `json:"volume_title"`
	VolumeDescription string   `json:"volume_description"`
	KeyPlots          []string `json:"key_plots"`
}

// VolumeOutline is the volume-level stage output: the chapter list for one volume.
type VolumeOutline struct {
	VolumeNumber Count         `json:"volume_number,omitempty"`
	VolumeTitle  string        `json:"volume_title,omitempty"`
	Chapters     []ChapterPlan `json:"chapters"`
}

// ChapterPlan is one chapter entry of a volume outline.
type ChapterPlan struct {
	ChapterNumber Count    `json:"chapter_number"`
	ChapterTitle  string   `json:"chapter_title"`
	PlotPoints    []string `json:"plot_points"`
	WordCount     Count    `json:"word_count"` // Requested length, not an observed count
}

// ChapterOutline is the chapter-level stage output consumed by the content pipeline.
type ChapterOutline struct {
	ChapterTitle string      `json:"chapter_title"`
	Scenes       []SceneSpec `json:"scenes"`
}

// SceneSpec is a single scene inside a chapter outline.
type SceneSpec struct {
	SceneTitle       string   `json:"scene_title"`
	SceneDescription string   `json:"scene_description"`
	KeyElements      []string `json:"key_elements"`
	Dialogues        []string `json:"dialogues"`
	Emotions         string   `json:"emotions"`
	ExpectedWords    Count    `json:"expected_words"`
}

// PlannedVolume is a snapshot of a volume after its chapter list is known.
// It is built from a VolumeSummary and a VolumeOutline; neither input is modified.
type PlannedVolume struct {
	Summary  VolumeSummary `json:"summary"`
	Chapters []ChapterPlan `json:"chapters"`
}

// NewPlannedVolume merges a volume-outline result into its summary.
func NewPlannedVolume(summary VolumeSummary, outline VolumeOutline) PlannedVolume {
	chapters := make([]ChapterPlan, len(outline.Chapters))
	copy(chapters, outline.Chapters)
	s := summary
	s.KeyPlots = append([]string(nil), summary.KeyPlots...)
	return PlannedVolume{Summary: s, Chapters: chapters}
}

// OutlinedChapter pairs a chapter plan with its scene-level outline.
type OutlinedChapter struct {
	Plan    ChapterPlan    `json:"plan"`
	Outline ChapterOutline `json:"outline"`
}

// OutlinedVolume is a planned volume whose chapters have scene outlines.
type OutlinedVolume struct {
	Summary  VolumeSummary     `json:"summary"`
	Chapters []OutlinedChapter `json:"chapters"`
}

// FullOutline is the complete outline tree without prose.
type FullOutline struct {
	Topic       string           `json:"topic"`
	Description string           `json:"description"`
	Book        BookOutline      `json:"book"`
	Volumes     []OutlinedVolume `json:"volumes"`
}

// Chapter locates a chapter inside a full outline by volume and chapter number.
func (o *FullOutline) Chapter(volume, chapter int) (VolumeSummary, OutlinedChapter, error) {
	for _, v := range o.Volumes {
		if int(v.Summary.VolumeNumber) != volume {
			continue
		}
		for _, c := range v.Chapters {
			if int(c.Plan.ChapterNumber) == chapter {
				return v.Summary, c, nil
			}
		}
		return VolumeSummary{}, OutlinedChapter{}, fmt.Errorf("volume %d has no chapter %d", volume, chapter)
	}
	return VolumeSummary{}, OutlinedChapter{}, fmt.Errorf("outline has no volume %d", volume)
}

// ChapterDraft is a finished chapter: the outline it came from plus its prose.
type ChapterDraft struct {
	Volume    int              `json:"volume"`
	Plan      ChapterPlan      `json:"plan"`
	Outline   ChapterOutline   `json:"outline"`
	Text      string           `json:"text"`
	Expansion ExpansionSummary `json:"expansion"`
	Enhanced  bool             `json:"enhanced"`
}

// Words returns the whitespace word count of the chapter text.
func (c ChapterDraft) Words() int {
	return CountWords(c.Text)
}

// VolumeDraft is a volume with the chapters written for it so far.
type VolumeDraft struct {
	Summary  VolumeSummary  `json:"summary"`
	Planned  []ChapterPlan  `json:"planned"`
	Chapters []ChapterDraft `json:"chapters"`
}

// Book is the result of a full generation run.
type Book struct {
	Topic       string        `json:"topic"`
	Description string        `json:"description"`
	Outline     BookOutline   `json:"outline"`
	Volumes     []VolumeDraft `json:"volumes"`
}

// ChapterCount returns the number of chapters written across all volumes.
func (b *Book) ChapterCount() int {
	n := 0
	for _, v := range b.Volumes {
		n += len(v.Chapters)
	}
	return n
}

// Chapters returns every written chapter in document order.
func (b *Book) Chapters() []ChapterDraft {
	var out []ChapterDraft
	for _, v := range b.Volumes {
		out = append(out, v.Chapters...)
	}
	return out
}

// GenerateConfig holds the plain parameters of a generation run.
type GenerateConfig struct {
	TargetWords   int  `json:"target_words"`   // Per-chapter word target; 0 uses the plan's word_count
	ChapterLimit  int  `json:"chapter_limit"`  // 0 means unlimited
	MaxIterations int  `json:"max_iterations"` // Expansion budget per chapter
	Enhance       bool `json:"enhance"`        // Run the enhancement pass after expansion
}

// DefaultTargetWords is used when neither the run nor the chapter plan names a target.
const DefaultTargetWords = 3000

// DefaultMaxIterations is the expansion budget per chapter.
const DefaultMaxIterations = 10

// DefaultGenerateConfig returns sensible defaults.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		TargetWords:   0,
		ChapterLimit:  0,
		MaxIterations: DefaultMaxIterations,
	}
}

// targetFor resolves the word target for a chapter.
func (c GenerateConfig) targetFor(plan ChapterPlan) int {
	if c.TargetWords > 0 {
		return c.TargetWords
	}
	if plan.WordCount > 0 {
		return int(plan.WordCount)
	}
	return DefaultTargetWords
}
