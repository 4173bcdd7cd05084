package version

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dhabedank/longform/internal/tui"
)

// IsFirstRun reports whether neither a config file nor the first-run
// marker exists under home.
func IsFirstRun(home, configPath string) bool {
	if home == "" {
		return false
	}
	if _, err := os.Stat(configPath); err == nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(home, stateDirName, ".initialized")); err == nil {
		return false
	}
	return true
}

// MarkInitialized creates the first-run marker.
func MarkInitialized(home string) {
	dir := filepath.Join(home, stateDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(dir, ".initialized"), []byte{}, 0644)
}

// PrintFirstRunNotice writes a welcome message and marks home initialized.
func PrintFirstRunNotice(w io.Writer, home string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s Welcome to longform!\n", tui.TitleStyle.Render("*"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Quick start:")
	fmt.Fprintf(w, "    1. Run %s to pick outline, content and expansion models\n", tui.ModelStyle.Render("longform setup"))
	fmt.Fprintf(w, "    2. Try a short run: %s\n", tui.ModelStyle.Render(`longform generate "a lighthouse keeper's last winter" --chapter-limit 1`))
	fmt.Fprintf(w, "    3. Or plan first: %s\n", tui.ModelStyle.Render(`longform outline "your topic"`))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", tui.HelpStyle.Render("Run 'longform --help' for all options"))
	fmt.Fprintln(w)

	MarkInitialized(home)
}
