package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dhabedank/longform/internal/core"
)

// JSONAdapter outputs the generated book as JSON, including expansion
// summaries for every chapter.
type JSONAdapter struct {
	outputPath string
	stdout     io.Writer
	dryRun     bool
}

// NewJSONAdapter creates a JSON adapter. An empty outputPath writes to stdout.
func NewJSONAdapter(config Config, outputPath string, stdout io.Writer) *JSONAdapter {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &JSONAdapter{
		outputPath: outputPath,
		stdout:     stdout,
		dryRun:     config.DryRun,
	}
}

func (a *JSONAdapter) Name() string {
	return "json"
}

func (a *JSONAdapter) WriteBook(book *core.Book) (*Result, error) {
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	result := &Result{Stats: StatsFor(book)}
	switch {
	case a.dryRun:
		fmt.Fprintf(a.stdout, "[dry-run] Would write %d bytes of JSON\n", len(data))
	case a.outputPath != "":
		if err := os.WriteFile(a.outputPath, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write file: %w", err)
		}
		result.Paths = append(result.Paths, a.outputPath)
	default:
		fmt.Fprintln(a.stdout, string(data))
	}
	return result, nil
}
