package output

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dhabedank/longform/internal/core"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleBook() *core.Book {
	v1 := core.VolumeSummary{VolumeNumber: 1, VolumeTitle: "Ash"}
	v2 := core.VolumeSummary{VolumeNumber: 2, VolumeTitle: "Ember"}
	return &core.Book{
		Topic: "fire",
		Volumes: []core.VolumeDraft{
			{
				Summary: v1,
				Chapters: []core.ChapterDraft{
					{
						Volume:    1,
						Plan:      core.ChapterPlan{ChapterNumber: 1, ChapterTitle: "Spark"},
						Text:      "one two three",
						Expansion: core.ExpansionSummary{Expansions: 2, Outcome: core.OutcomeTargetMet},
					},
					{
						Volume:    1,
						Plan:      core.ChapterPlan{ChapterNumber: 2, ChapterTitle: "Flame"},
						Text:      "four five",
						Expansion: core.ExpansionSummary{FailedAttempts: 1, Outcome: core.OutcomeBudgetExhausted},
					},
				},
			},
			{Summary: v2},
		},
	}
}

func TestDefaultOutputConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Dir != "output" {
		t.Errorf("Dir = %s, want output", config.Dir)
	}
	if config.DryRun {
		t.Error("DryRun should be false by default")
	}
}

func TestStatsFor(t *testing.T) {
	got := StatsFor(sampleBook())
	want := Stats{Volumes: 1, Chapters: 2, Words: 5, Expansions: 2, FailedAttempts: 1, ShortChapters: 1}
	if got != want {
		t.Errorf("StatsFor() = %+v, want %+v", got, want)
	}
}

func TestNewStoreDirName(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	s := NewStore(Config{Dir: base}, now, quiet)

	name := filepath.Base(s.Dir())
	if !regexp.MustCompile(`^20250304-050607-[0-9a-f]{8}$`).MatchString(name) {
		t.Errorf("run dir = %q", name)
	}
	if !strings.HasPrefix(s.ID(), name[len(name)-8:]) {
		t.Errorf("ID() = %q does not match dir suffix", s.ID())
	}
	if _, err := os.Stat(s.Dir()); !os.IsNotExist(err) {
		t.Error("NewStore() created the directory eagerly")
	}
	if s.Name() != "markdown" {
		t.Errorf("Name() = %s, want markdown", s.Name())
	}
}

func TestStoreWriteBook(t *testing.T) {
	s := NewStore(Config{Dir: t.TempDir()}, time.Now(), quiet)
	book := sampleBook()

	result, err := s.WriteBook(book)
	if err != nil {
		t.Fatalf("WriteBook() error = %v", err)
	}
	// two chapters, one volume, the book
	if len(result.Paths) != 4 {
		t.Fatalf("paths = %v", result.Paths)
	}

	chapter, err := os.ReadFile(s.ChapterPath(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if string(chapter) != "## Chapter 2: Flame\n\nfour five\n" {
		t.Errorf("chapter file = %q", chapter)
	}
	if _, err := os.Stat(s.VolumePath(2)); !os.IsNotExist(err) {
		t.Error("empty volume was written")
	}

	bookText, err := os.ReadFile(filepath.Join(s.Dir(), BookFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(bookText) != core.BookText(book) {
		t.Errorf("book.md differs from BookText()")
	}
}

func TestStoreDryRun(t *testing.T) {
	s := NewStore(Config{Dir: t.TempDir(), DryRun: true}, time.Now(), quiet)
	if _, err := s.WriteBook(sampleBook()); err != nil {
		t.Fatalf("WriteBook() error = %v", err)
	}
	if _, err := os.Stat(s.Dir()); !os.IsNotExist(err) {
		t.Error("dry run touched disk")
	}
}

func TestSaveFailedOutput(t *testing.T) {
	s := NewStore(Config{Dir: t.TempDir()}, time.Now(), quiet)
	failure := &core.StructuredOutputError{
		Stage:   core.StageChapterOutline,
		RawText: "Sorry, here is a summary instead.",
	}

	path, err := s.SaveFailedOutput(failure)
	if err != nil {
		t.Fatalf("SaveFailedOutput() error = %v", err)
	}
	if filepath.Base(path) != "failed_chapter_outline.txt" || filepath.Dir(path) != s.Dir() {
		t.Errorf("path = %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != failure.RawText {
		t.Errorf("file = %q, want %q", got, failure.RawText)
	}
}

func TestOutlineRoundTrip(t *testing.T) {
	s := NewStore(Config{Dir: t.TempDir()}, time.Now(), quiet)
	outline := &core.FullOutline{
		Topic: "fire",
		Volumes: []core.OutlinedVolume{{
			Summary: core.VolumeSummary{VolumeNumber: 1, VolumeTitle: "Ash"},
			Chapters: []core.OutlinedChapter{{
				Plan:    core.ChapterPlan{ChapterNumber: 3, ChapterTitle: "Spark", WordCount: 1500},
				Outline: core.ChapterOutline{ChapterTitle: "Spark", Scenes: []core.SceneSpec{{SceneTitle: "Match"}}},
			}},
		}},
	}

	path, err := s.SaveOutline(outline)
	if err != nil {
		t.Fatalf("SaveOutline() error = %v", err)
	}

	// Both the file and its run directory are accepted.
	for _, p := range []string{path, s.Dir()} {
		got, err := LoadOutline(p)
		if err != nil {
			t.Fatalf("LoadOutline(%s) error = %v", p, err)
		}
		_, ch, err := got.Chapter(1, 3)
		if err != nil {
			t.Fatalf("Chapter(1, 3) error = %v", err)
		}
		if ch.Plan.WordCount != 1500 || ch.Outline.Scenes[0].SceneTitle != "Match" {
			t.Errorf("chapter = %+v", ch)
		}
	}
}

func TestLoadOutlineErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadOutline(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := LoadOutline(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}

	empty := filepath.Join(dir, "empty.json")
	os.WriteFile(empty, []byte(`{"topic":"x","volumes":[]}`), 0644)
	if _, err := LoadOutline(empty); err == nil {
		t.Error("expected error for outline without volumes")
	}
}

func TestChapterSinkSavesOnWrite(t *testing.T) {
	s := NewStore(Config{Dir: t.TempDir()}, time.Now(), quiet)
	var obs core.Observer = NewChapterSink(s)

	book := sampleBook()
	obs.ChapterWritten(book.Volumes[0].Summary, book.Volumes[0].Chapters[0])

	data, err := os.ReadFile(s.ChapterPath(1, 1))
	if err != nil {
		t.Fatalf("chapter not persisted: %v", err)
	}
	if !strings.Contains(string(data), "one two three") {
		t.Errorf("chapter file = %q", data)
	}
}

func TestJSONAdapter(t *testing.T) {
	var stdout bytes.Buffer
	adapter := NewJSONAdapter(Config{}, "", &stdout)
	if adapter.Name() != "json" {
		t.Errorf("Name() = %s, want json", adapter.Name())
	}

	result, err := adapter.WriteBook(sampleBook())
	if err != nil {
		t.Fatalf("WriteBook() error = %v", err)
	}
	if result.Stats.Chapters != 2 {
		t.Errorf("Stats.Chapters = %d, want 2", result.Stats.Chapters)
	}

	var decoded core.Book
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		t.Fatalf("stdout is not a book: %v", err)
	}
	if decoded.ChapterCount() != 2 {
		t.Errorf("decoded chapters = %d, want 2", decoded.ChapterCount())
	}
}

func TestJSONAdapterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.json")
	adapter := NewJSONAdapter(Config{}, path, io.Discard)
	result, err := adapter.WriteBook(sampleBook())
	if err != nil {
		t.Fatalf("WriteBook() error = %v", err)
	}
	if len(result.Paths) != 1 || result.Paths[0] != path {
		t.Errorf("Paths = %v", result.Paths)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}
