package core

import (
	"fmt"
	"strings"
)

// VolumeHeading is the heading line placed before a volume's chapters.
func VolumeHeading(v VolumeSummary) string {
	return fmt.Sprintf("# Volume %d: %s", v.VolumeNumber, v.VolumeTitle)
}

// ChapterHeading is the heading line placed before a chapter's text.
func ChapterHeading(p ChapterPlan) string {
	return fmt.Sprintf("## Chapter %d: %s", p.ChapterNumber, p.ChapterTitle)
}

// ChapterText renders one chapter with its heading.
func ChapterText(c ChapterDraft) string {
	return ChapterHeading(c.Plan) + "\n\n" + strings.TrimSpace(c.Text) + "\n"
}

// VolumeText renders a volume heading followed by its chapters in the order written.
func VolumeText(v VolumeDraft) string {
	var b strings.Builder
	b.WriteString(VolumeHeading(v.Summary))
	b.WriteString("\n\n")
	for i, c := range v.Chapters {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(ChapterText(c))
	}
	return b.String()
}

// BookText renders every volume in document order. Volumes without written
// chapters are skipped.
func BookText(book *Book) string {
	var parts []string
	for _, v := range book.Volumes {
		if len(v.Chapters) == 0 {
			continue
		}
		parts = append(parts, VolumeText(v))
	}
	return strings.Join(parts, "\n")
}
