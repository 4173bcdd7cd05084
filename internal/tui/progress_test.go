package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dhabedank/longform/internal/core"
)

type captureSender struct {
	msgs []tea.Msg
}

func (c *captureSender) Send(msg tea.Msg) { c.msgs = append(c.msgs, msg) }

func sampleChapter(outcome core.ExpansionOutcome) (core.VolumeSummary, core.ChapterDraft) {
	return core.VolumeSummary{VolumeNumber: 2, VolumeTitle: "Ember"},
		core.ChapterDraft{
			Plan:      core.ChapterPlan{ChapterNumber: 5, ChapterTitle: "Spark"},
			Text:      "a b c d",
			Expansion: core.ExpansionSummary{TargetWords: 10, Expansions: 3, Outcome: outcome},
		}
}

func TestProgramObserverSendsMessages(t *testing.T) {
	sender := &captureSender{}
	obs := NewProgramObserver(sender)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(3 * time.Second)}
	obs.now = func() time.Time {
		now := ticks[0]
		ticks = ticks[1:]
		return now
	}

	var _ core.Observer = obs
	obs.StageStarted(core.StageContent, "chapter 5")
	obs.StageFinished(core.StageContent, "chapter 5", 3*time.Second, nil)
	v, c := sampleChapter(core.OutcomeTargetMet)
	obs.ChapterWritten(v, c)

	if len(sender.msgs) != 3 {
		t.Fatalf("sent %d messages, want 3", len(sender.msgs))
	}
	fin, ok := sender.msgs[1].(StageFinishedMsg)
	if !ok {
		t.Fatalf("second message = %T", sender.msgs[1])
	}
	if !fin.Stage.StartTime.Equal(base) || fin.Stage.EndTime.Sub(fin.Stage.StartTime) != 3*time.Second {
		t.Errorf("finished stage = %+v", fin.Stage)
	}
	if _, ok := sender.msgs[2].(ChapterMsg); !ok {
		t.Errorf("third message = %T", sender.msgs[2])
	}
}

func TestProgressDisplayUpdate(t *testing.T) {
	p := NewProgressDisplay("longform")
	if p.Init() == nil {
		t.Error("Init() should start the spinner")
	}

	p.Update(StageStartedMsg{Stage: StageInfo{Stage: core.StageBookOutline, Label: "dragons", StartTime: time.Now()}})
	if !strings.Contains(p.View(), "dragons") {
		t.Errorf("View() = %q, want current stage label", p.View())
	}

	_, cmd := p.Update(StageFinishedMsg{Stage: StageInfo{Stage: core.StageBookOutline, Label: "dragons"}})
	if cmd == nil {
		t.Error("finished stage should print a line")
	}
	v, c := sampleChapter(core.OutcomeTargetMet)
	p.Update(ChapterMsg{Volume: v, Chapter: c})
	if p.Chapters() != 1 || !strings.Contains(p.View(), "1 chapters  4 words") {
		t.Errorf("View() = %q", p.View())
	}

	boom := errors.New("boom")
	_, cmd = p.Update(DoneMsg{Err: boom})
	if cmd == nil || p.View() != "" || !errors.Is(p.Err(), boom) {
		t.Errorf("DoneMsg not handled: view=%q err=%v", p.View(), p.Err())
	}
}

func TestLineObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLineObserver(&buf)

	obs.StageStarted(core.StageVolumeOutline, "volume 1")
	obs.StageFinished(core.StageVolumeOutline, "volume 1", time.Second, errors.New("bad json"))
	v, c := sampleChapter(core.OutcomeBudgetExhausted)
	obs.ChapterWritten(v, c)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "bad json") {
		t.Errorf("failure line = %q", lines[1])
	}
	for _, want := range []string{"Volume 2, chapter 5: Spark", "4/10 words", "budget_exhausted"} {
		if !strings.Contains(lines[2], want) {
			t.Errorf("chapter line %q missing %q", lines[2], want)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	u := NewUsage(map[core.TemplateClass]string{core.ClassContent: "gpt-4o"})
	u.ObserveCompletion(core.TemplateChapterContent, "fake", time.Second, 4000, 4000, nil)

	s := RenderSummary(3, 9000, 90*time.Second, u)
	for _, want := range []string{"Chapters: 3", "Words: 9000", "1m30s", "gpt-4o", "Total: 1 calls"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(RenderSummary(0, 0, 0, nil), "Total") {
		t.Error("summary without usage should omit totals")
	}
}

func TestRenderFailure(t *testing.T) {
	tests := []struct {
		name    string
		savedTo string
		want    []string
		absent  string
	}{
		{"saved", "out/run/failed_volume_outline.txt", []string{"volume_outline", "RAW one two", "failed_volume_outline.txt"}, ""},
		{"dry run", "", []string{"volume_outline", "RAW one two"}, "saved to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := RenderFailure(core.StageVolumeOutline, "  RAW one two\n", tt.savedTo)
			for _, want := range tt.want {
				if !strings.Contains(s, want) {
					t.Errorf("RenderFailure() missing %q:\n%s", want, s)
				}
			}
			if tt.absent != "" && strings.Contains(s, tt.absent) {
				t.Errorf("RenderFailure() contains %q:\n%s", tt.absent, s)
			}
		})
	}
}
