package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhabedank/longform/internal/core"
	"github.com/dhabedank/longform/internal/output"
	"github.com/dhabedank/longform/internal/tui"
)

var (
	chapterCommon  commonFlags
	chapterGen     generationFlags
	chapterOutline string
	chapterVolume  int
	chapterNumber  int
)

// ChapterCmd represents the chapter command.
var ChapterCmd = &cobra.Command{
	Use:   "chapter",
	Short: "Write one chapter from a saved outline",
	Long: `Write a single chapter from an outline produced by 'longform outline'.

The chapter is saved next to the outline as chapters/chapter_<volume>_<chapter>.md.`,
	Args: cobra.NoArgs,
	RunE: runChapter,
}

func init() {
	addCommonFlags(ChapterCmd, &chapterCommon)
	addGenerationFlags(ChapterCmd, &chapterGen)
	ChapterCmd.Flags().StringVar(&chapterOutline, "outline", "", "outline.json or the run directory containing it")
	ChapterCmd.Flags().IntVar(&chapterVolume, "volume", 1, "Volume number")
	ChapterCmd.Flags().IntVar(&chapterNumber, "chapter", 0, "Chapter number")
	_ = ChapterCmd.MarkFlagRequired("outline")
	_ = ChapterCmd.MarkFlagRequired("chapter")
}

func runChapter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &chapterCommon)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyGenerationFlags(cmd, cfg, &chapterGen)

	outline, err := output.LoadOutline(chapterOutline)
	if err != nil {
		return err
	}
	// Fail on a bad address before any model is built.
	if _, _, err := outline.Chapter(chapterVolume, chapterNumber); err != nil {
		return err
	}

	rt, err := newRuntime(cmd, cfg, chapterCommon.plain)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	rt.serveMetrics(ctx)

	runDir := chapterOutline
	if filepath.Ext(runDir) == ".json" {
		runDir = filepath.Dir(runDir)
	}
	store := output.OpenStore(runDir, rt.logger)

	start := time.Now()
	out := cmd.OutOrStdout()
	var draft core.ChapterDraft
	title := fmt.Sprintf("Volume %d, chapter %d", chapterVolume, chapterNumber)
	err = rt.withProgress(ctx, out, title, func(ctx context.Context, progress core.Observer) error {
		gen := core.NewGenerator(rt.invoker, cfg.Generate(),
			core.WithLogger(rt.logger),
			core.WithRunID(store.ID()),
			core.WithObserver(core.Observers(progress, rt.metrics)),
		)
		var err error
		draft, err = gen.GenerateChapterFromOutline(ctx, outline, chapterVolume, chapterNumber)
		return err
	})
	if err != nil {
		reportFailure(cmd.ErrOrStderr(), store, err)
		return fmt.Errorf("chapter failed: %w", err)
	}

	path, err := store.SaveChapter(chapterVolume, draft)
	if err != nil {
		return err
	}
	fmt.Fprint(out, tui.RenderSummary(1, draft.Words(), time.Since(start), rt.usage))
	fmt.Fprintf(out, "  Chapter: %s\n", tui.SuccessStyle.Render(path))
	return nil
}
