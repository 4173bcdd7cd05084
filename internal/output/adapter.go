package output

import (
	"github.com/dhabedank/longform/internal/core"
)

// Stats provides summary statistics for a written book.
type Stats struct {
	Volumes        int
	Chapters       int
	Words          int
	Expansions     int
	FailedAttempts int
	ShortChapters  int // Chapters whose expansion stopped below target
}

// Result is the result of writing a book.
type Result struct {
	Paths []string // Files written, in write order
	Stats Stats
}

// Adapter is the interface all output adapters must implement.
type Adapter interface {
	// Name returns the adapter identifier for logging.
	Name() string

	// WriteBook persists a generated book.
	WriteBook(book *core.Book) (*Result, error)
}

// Config configures output adapter behavior.
type Config struct {
	// Dir is the base directory runs are created under.
	Dir string

	// DryRun reports what would be written without touching disk.
	DryRun bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Dir:    "output",
		DryRun: false,
	}
}

// StatsFor summarises a book.
func StatsFor(book *core.Book) Stats {
	var s Stats
	for _, v := range book.Volumes {
		if len(v.Chapters) > 0 {
			s.Volumes++
		}
		for _, c := range v.Chapters {
			s.Chapters++
			s.Words += c.Words()
			s.Expansions += c.Expansion.Expansions
			s.FailedAttempts += c.Expansion.FailedAttempts
			if c.Expansion.Outcome != "" && c.Expansion.Outcome != core.OutcomeTargetMet {
				s.ShortChapters++
			}
		}
	}
	return s
}
