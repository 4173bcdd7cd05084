package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhabedank/longform/internal/core"
	"github.com/dhabedank/longform/internal/output"
	"github.com/dhabedank/longform/internal/tui"
)

var (
	outlineCommon       commonFlags
	outlineChapterLimit int
	outlineOutputDir    string
)

// OutlineCmd represents the outline command.
var OutlineCmd = &cobra.Command{
	Use:   "outline <topic> [description]",
	Short: "Plan a book without writing prose",
	Long: `Run the three outline stages (book, volumes, chapters) and save the
result as outline.json in a new run directory.

Write individual chapters from the saved outline with:
  longform chapter --outline <run-dir> --volume 1 --chapter 1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runOutline,
}

func init() {
	addCommonFlags(OutlineCmd, &outlineCommon)
	OutlineCmd.Flags().IntVarP(&outlineChapterLimit, "chapter-limit", "n", 0, "Outline at most this many chapters (0 = no limit)")
	OutlineCmd.Flags().StringVarP(&outlineOutputDir, "output", "o", "", "Base directory for run output (default: output)")
}

func runOutline(cmd *cobra.Command, args []string) error {
	topic := args[0]
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	cfg, err := loadConfig(cmd, &outlineCommon)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("chapter-limit") {
		cfg.Generation.ChapterLimit = outlineChapterLimit
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = outlineOutputDir
	}

	rt, err := newRuntime(cmd, cfg, outlineCommon.plain)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	rt.serveMetrics(ctx)

	store := output.NewStore(output.Config{Dir: cfg.Output.Dir}, time.Now(), rt.logger)
	start := time.Now()
	out := cmd.OutOrStdout()
	var outline *core.FullOutline
	err = rt.withProgress(ctx, out, "Outlining "+topic, func(ctx context.Context, progress core.Observer) error {
		gen := core.NewGenerator(rt.invoker, cfg.Generate(),
			core.WithLogger(rt.logger),
			core.WithRunID(store.ID()),
			core.WithObserver(core.Observers(progress, rt.metrics)),
		)
		var err error
		outline, err = gen.GenerateOutline(ctx, topic, description)
		return err
	})
	if err != nil {
		reportFailure(cmd.ErrOrStderr(), store, err)
		return fmt.Errorf("outline failed: %w", err)
	}

	path, err := store.SaveOutline(outline)
	if err != nil {
		return err
	}

	chapters := 0
	for _, v := range outline.Volumes {
		chapters += len(v.Chapters)
	}
	fmt.Fprintf(out, "\n%s %d volume(s), %d chapter(s) outlined in %s\n",
		tui.SuccessStyle.Render("✓"), len(outline.Volumes), chapters, time.Since(start).Truncate(time.Second))
	fmt.Fprintf(out, "  Outline: %s\n", tui.ModelStyle.Render(path))
	return nil
}
