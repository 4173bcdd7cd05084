package output

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dhabedank/longform/internal/core"
)

// Layout of a run directory.
const (
	OutlineFile = "outline.json"
	BookFile    = "book.md"
	chaptersDir = "chapters"
	volumesDir  = "volumes"
)

// Store writes one run's artifacts under <base>/<timestamp>-<id prefix>/.
type Store struct {
	id     string
	dir    string
	dryRun bool
	logger *slog.Logger
}

// NewStore allocates a run ID and directory name. Nothing is created on
// disk until the first write.
func NewStore(config Config, now time.Time, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	name := fmt.Sprintf("%s-%s", now.Format("20060102-150405"), id[:8])
	return &Store{
		id:     id,
		dir:    filepath.Join(config.Dir, name),
		dryRun: config.DryRun,
		logger: logger,
	}
}

// OpenStore writes into an existing directory, e.g. a previous run's.
func OpenStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{id: filepath.Base(dir), dir: dir, logger: logger}
}

func (s *Store) Name() string { return "markdown" }

// ID returns the run identifier.
func (s *Store) ID() string { return s.id }

// Dir returns the run directory.
func (s *Store) Dir() string { return s.dir }

// ChapterPath returns where a chapter file lives.
func (s *Store) ChapterPath(volume, chapter int) string {
	return filepath.Join(s.dir, chaptersDir, fmt.Sprintf("chapter_%d_%d.md", volume, chapter))
}

// VolumePath returns where a volume file lives.
func (s *Store) VolumePath(volume int) string {
	return filepath.Join(s.dir, volumesDir, fmt.Sprintf("volume_%d.md", volume))
}

func (s *Store) write(path string, data []byte) error {
	if s.dryRun {
		s.logger.Info("dry run, not writing", "path", path, "bytes", len(data))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	s.logger.Debug("wrote file", "path", path, "bytes", len(data))
	return nil
}

// SaveOutline writes the outline tree as JSON and returns its path.
func (s *Store) SaveOutline(outline *core.FullOutline) (string, error) {
	data, err := json.MarshalIndent(outline, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal outline: %w", err)
	}
	path := filepath.Join(s.dir, OutlineFile)
	return path, s.write(path, data)
}

// LoadOutline reads an outline written by SaveOutline. path may be the
// outline file itself or a run directory containing one.
func LoadOutline(path string) (*core.FullOutline, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, OutlineFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}
	var outline core.FullOutline
	if err := json.Unmarshal(data, &outline); err != nil {
		return nil, fmt.Errorf("failed to parse outline %s: %w", path, err)
	}
	if len(outline.Volumes) == 0 {
		return nil, fmt.Errorf("outline %s has no volumes", path)
	}
	return &outline, nil
}

// SaveChapter writes one chapter with its heading.
func (s *Store) SaveChapter(volume int, chapter core.ChapterDraft) (string, error) {
	path := s.ChapterPath(volume, int(chapter.Plan.ChapterNumber))
	return path, s.write(path, []byte(core.ChapterText(chapter)))
}

// SaveVolume writes a volume heading followed by its chapters.
func (s *Store) SaveVolume(volume core.VolumeDraft) (string, error) {
	path := s.VolumePath(int(volume.Summary.VolumeNumber))
	return path, s.write(path, []byte(core.VolumeText(volume)))
}

// SaveBook writes the assembled book.
func (s *Store) SaveBook(book *core.Book) (string, error) {
	path := filepath.Join(s.dir, BookFile)
	return path, s.write(path, []byte(core.BookText(book)))
}

// FailedOutputPath returns where the raw output of a failed stage is kept.
func (s *Store) FailedOutputPath(stage core.Stage) string {
	return filepath.Join(s.dir, fmt.Sprintf("failed_%s.txt", stage))
}

// SaveFailedOutput keeps the raw model output that a stage could not use.
func (s *Store) SaveFailedOutput(failure *core.StructuredOutputError) (string, error) {
	path := s.FailedOutputPath(failure.Stage)
	return path, s.write(path, []byte(failure.RawText))
}

// WriteBook writes every chapter, every non-empty volume and the book.
func (s *Store) WriteBook(book *core.Book) (*Result, error) {
	result := &Result{Stats: StatsFor(book)}
	for _, v := range book.Volumes {
		if len(v.Chapters) == 0 {
			continue
		}
		for _, c := range v.Chapters {
			path, err := s.SaveChapter(int(v.Summary.VolumeNumber), c)
			if err != nil {
				return nil, err
			}
			result.Paths = append(result.Paths, path)
		}
		path, err := s.SaveVolume(v)
		if err != nil {
			return nil, err
		}
		result.Paths = append(result.Paths, path)
	}
	path, err := s.SaveBook(book)
	if err != nil {
		return nil, err
	}
	result.Paths = append(result.Paths, path)
	return result, nil
}

// ChapterSink persists chapters as soon as they are written so a crash
// mid-run keeps finished work.
type ChapterSink struct {
	core.NopObserver
	store *Store
}

// NewChapterSink returns an observer that saves chapters to store.
func NewChapterSink(store *Store) *ChapterSink {
	return &ChapterSink{store: store}
}

func (c *ChapterSink) ChapterWritten(volume core.VolumeSummary, chapter core.ChapterDraft) {
	if _, err := c.store.SaveChapter(int(volume.VolumeNumber), chapter); err != nil {
		c.store.logger.Warn("failed to save chapter",
			"volume", volume.VolumeNumber,
			"chapter", chapter.Plan.ChapterNumber,
			"error", err)
	}
}
