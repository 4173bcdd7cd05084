package core

// ChapterGate caps the number of chapters generated in one run.
// A limit of zero or less means no cap.
type ChapterGate struct {
	limit int
	total int
}

// NewChapterGate creates a gate with the given limit.
func NewChapterGate(limit int) *ChapterGate {
	return &ChapterGate{limit: limit}
}

// Reached reports whether no further chapter may start.
func (g *ChapterGate) Reached() bool {
	return g.limit > 0 && g.total >= g.limit
}

// Record counts one completed chapter.
func (g *ChapterGate) Record() {
	g.total++
}

// Total returns the number of completed chapters.
func (g *ChapterGate) Total() int { return g.total }

// Limit returns the configured cap, zero when unlimited.
func (g *ChapterGate) Limit() int { return g.limit }
