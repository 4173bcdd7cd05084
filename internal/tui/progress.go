package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dhabedank/longform/internal/core"
)

// StageInfo holds information about one pipeline stage.
type StageInfo struct {
	Stage     core.Stage
	Label     string
	StartTime time.Time
	EndTime   time.Time
	Err       error
}

// Done reports whether the stage has finished.
func (s StageInfo) Done() bool { return !s.EndTime.IsZero() }

// Messages sent to ProgressDisplay by ProgramObserver.
type (
	StageStartedMsg  struct{ Stage StageInfo }
	StageFinishedMsg struct{ Stage StageInfo }
	ChapterMsg       struct {
		Volume  core.VolumeSummary
		Chapter core.ChapterDraft
	}
	// DoneMsg ends the display. Err is the run's final error, if any.
	DoneMsg struct{ Err error }
)

// ProgressDisplay is a Bubble Tea model for showing generation progress.
type ProgressDisplay struct {
	spinner  spinner.Model
	title    string
	current  *StageInfo
	finished int
	failed   int
	chapters int
	words    int
	lastLine string
	err      error
	quitting bool
}

// NewProgressDisplay creates a new progress display.
func NewProgressDisplay(title string) *ProgressDisplay {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &ProgressDisplay{spinner: s, title: title}
}

// Init implements tea.Model.
func (p *ProgressDisplay) Init() tea.Cmd {
	return p.spinner.Tick
}

// Update implements tea.Model.
func (p *ProgressDisplay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			p.quitting = true
			return p, tea.Quit
		}

	case StageStartedMsg:
		st := msg.Stage
		p.current = &st

	case StageFinishedMsg:
		p.finished++
		if msg.Stage.Err != nil {
			p.failed++
		}
		p.current = nil
		return p, tea.Println(RenderStageComplete(msg.Stage))

	case ChapterMsg:
		p.chapters++
		p.words += msg.Chapter.Words()
		p.lastLine = RenderChapter(msg.Volume, msg.Chapter)
		return p, tea.Println(p.lastLine)

	case DoneMsg:
		p.err = msg.Err
		p.quitting = true
		return p, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	}

	return p, nil
}

// View implements tea.Model.
func (p *ProgressDisplay) View() string {
	if p.quitting {
		return ""
	}

	counts := HelpStyle.Render(fmt.Sprintf("%d stages  %d chapters  %d words", p.finished, p.chapters, p.words))
	if p.current == nil {
		return fmt.Sprintf("%s %s  %s", p.spinner.View(), TitleStyle.Render(p.title), counts)
	}

	elapsed := time.Since(p.current.StartTime).Truncate(time.Second)
	return fmt.Sprintf("%s %s  %s  %s  %s",
		p.spinner.View(),
		StageStyle.Render(string(p.current.Stage)),
		p.current.Label,
		HelpStyle.Render(elapsed.String()),
		counts,
	)
}

// Chapters returns how many chapters the display has seen.
func (p *ProgressDisplay) Chapters() int { return p.chapters }

// Err returns the error delivered with DoneMsg.
func (p *ProgressDisplay) Err() error { return p.err }

// Sender is the part of *tea.Program the observer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramObserver forwards pipeline events to a running Bubble Tea program.
type ProgramObserver struct {
	sender Sender
	now    func() time.Time

	mu     sync.Mutex
	starts map[string]time.Time
}

// NewProgramObserver creates an observer sending to p.
func NewProgramObserver(p Sender) *ProgramObserver {
	return &ProgramObserver{sender: p, now: time.Now, starts: make(map[string]time.Time)}
}

func (o *ProgramObserver) StageStarted(stage core.Stage, label string) {
	now := o.now()
	o.mu.Lock()
	o.starts[string(stage)+"/"+label] = now
	o.mu.Unlock()
	o.sender.Send(StageStartedMsg{Stage: StageInfo{Stage: stage, Label: label, StartTime: now}})
}

func (o *ProgramObserver) StageFinished(stage core.Stage, label string, elapsed time.Duration, err error) {
	end := o.now()
	o.mu.Lock()
	start, ok := o.starts[string(stage)+"/"+label]
	delete(o.starts, string(stage)+"/"+label)
	o.mu.Unlock()
	if !ok {
		start = end.Add(-elapsed)
	}
	o.sender.Send(StageFinishedMsg{Stage: StageInfo{Stage: stage, Label: label, StartTime: start, EndTime: end, Err: err}})
}

func (o *ProgramObserver) ChapterWritten(volume core.VolumeSummary, chapter core.ChapterDraft) {
	o.sender.Send(ChapterMsg{Volume: volume, Chapter: chapter})
}

// LineObserver prints one line per event (non-interactive mode).
type LineObserver struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineObserver writes progress lines to w.
func NewLineObserver(w io.Writer) *LineObserver {
	return &LineObserver{w: w}
}

func (o *LineObserver) println(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, s)
}

func (o *LineObserver) StageStarted(stage core.Stage, label string) {
	o.println(RenderStageStart(stage, label))
}

func (o *LineObserver) StageFinished(stage core.Stage, label string, elapsed time.Duration, err error) {
	end := time.Now()
	o.println(RenderStageComplete(StageInfo{Stage: stage, Label: label, StartTime: end.Add(-elapsed), EndTime: end, Err: err}))
}

func (o *LineObserver) ChapterWritten(volume core.VolumeSummary, chapter core.ChapterDraft) {
	o.println(RenderChapter(volume, chapter))
}

// RenderStageStart returns a string for stage start (non-interactive mode).
func RenderStageStart(stage core.Stage, label string) string {
	return fmt.Sprintf("%s %s  %s",
		SpinnerStyle.Render("→"),
		StageStyle.Render(string(stage)),
		label,
	)
}

// RenderStageComplete returns a string for stage completion.
func RenderStageComplete(s StageInfo) string {
	mark := SuccessStyle.Render("✓")
	suffix := ""
	if s.Err != nil {
		mark = ErrorStyle.Render("✗")
		suffix = "  " + ErrorStyle.Render(s.Err.Error())
	}
	return fmt.Sprintf("%s %s  %s  %s%s",
		mark,
		StageStyle.Render(string(s.Stage)),
		s.Label,
		HelpStyle.Render(s.EndTime.Sub(s.StartTime).Truncate(time.Second).String()),
		suffix,
	)
}

// RenderChapter returns a line describing a finished chapter. Chapters
// that stopped short of their target are flagged.
func RenderChapter(volume core.VolumeSummary, c core.ChapterDraft) string {
	mark := SuccessStyle.Render("■")
	note := ""
	if out := c.Expansion.Outcome; out != "" && out != core.OutcomeTargetMet {
		mark = WarningStyle.Render("■")
		note = "  " + WarningStyle.Render(string(out))
	}
	return fmt.Sprintf("%s Volume %d, chapter %d: %s  %s%s",
		mark,
		volume.VolumeNumber,
		c.Plan.ChapterNumber,
		c.Plan.ChapterTitle,
		HelpStyle.Render(fmt.Sprintf("%d/%d words, %d expansions", c.Words(), c.Expansion.TargetWords, c.Expansion.Expansions)),
		note,
	)
}

// RenderSummary returns the end-of-run summary.
func RenderSummary(chapters, words int, elapsed time.Duration, usage *Usage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chapters: %d  Words: %d  Time: %s",
		chapters,
		words,
		elapsed.Truncate(time.Second).String(),
	)
	if usage != nil {
		for _, c := range usage.Classes() {
			fmt.Fprintf(&b, "\n%-9s %s  %d calls  ~%s in / ~%s out  %s",
				c.Class,
				ModelStyle.Render(orDefaultModel(c.Model)),
				c.Calls,
				FormatTokens(EstimateTokens(c.InputChars)),
				FormatTokens(EstimateTokens(c.OutputChars)),
				CostStyle.Render(FormatCost(c.Cost())),
			)
		}
		calls, in, out, cost := usage.Total()
		fmt.Fprintf(&b, "\nTotal: %d calls  ~%s in / ~%s out  Est. cost: %s",
			calls, FormatTokens(in), FormatTokens(out), CostStyle.Render(FormatCost(cost)))
	}
	return "\n" + TitleStyle.Render("Generation Complete") + "\n" + BoxStyle.Render(b.String()) + "\n"
}

// RenderFailure shows the raw output a stage rejected. savedTo is omitted
// when empty.
func RenderFailure(stage core.Stage, raw, savedTo string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s returned output that is not a valid outline:\n",
		ErrorStyle.Render("✗"), StageStyle.Render(string(stage)))
	b.WriteString(FailureBoxStyle.Render(strings.TrimSpace(raw)))
	b.WriteString("\n")
	if savedTo != "" {
		fmt.Fprintf(&b, "  Raw output saved to %s\n", ModelStyle.Render(savedTo))
	}
	return b.String()
}

func orDefaultModel(m string) string {
	if m == "" {
		return "default model"
	}
	return m
}
