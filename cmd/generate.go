package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhabedank/longform/internal/config"
	"github.com/dhabedank/longform/internal/core"
	"github.com/dhabedank/longform/internal/output"
	"github.com/dhabedank/longform/internal/tui"
)

// generationFlags are shared by generate and chapter.
type generationFlags struct {
	words         int
	maxIterations int
	enhance       bool
}

func addGenerationFlags(cmd *cobra.Command, f *generationFlags) {
	cmd.Flags().IntVarP(&f.words, "words", "w", 0, "Target words per chapter (0 uses each chapter's planned word count)")
	cmd.Flags().IntVar(&f.maxIterations, "max-iterations", core.DefaultMaxIterations, "Expansion attempts per chapter")
	cmd.Flags().BoolVar(&f.enhance, "enhance", false, "Run a polishing pass over each chapter after expansion")
}

func applyGenerationFlags(cmd *cobra.Command, cfg *config.Config, f *generationFlags) {
	flags := cmd.Flags()
	if flags.Changed("words") {
		cfg.Generation.TargetWords = f.words
	}
	if flags.Changed("max-iterations") {
		cfg.Generation.MaxIterations = f.maxIterations
	}
	if flags.Changed("enhance") {
		cfg.Generation.Enhance = f.enhance
	}
}

var (
	generateCommon commonFlags
	generateGen    generationFlags
	chapterLimit   int
	outputDir      string
	jsonPath       string
	dryRun         bool
)

// GenerateCmd represents the generate command.
var GenerateCmd = &cobra.Command{
	Use:   "generate <topic> [description]",
	Short: "Generate a full book from a topic",
	Long: `Generate a long-form book in four stages:

- Book outline: volumes with titles, descriptions and key plots
- Volume outlines: the chapter list of each volume
- Chapter outlines: scenes, key elements and dialogue beats
- Chapter content: a first draft, expanded segment by segment until it
  reaches the target word count

Chapters are saved as soon as they are written, so an interrupted run keeps
its finished work. Use --chapter-limit for short trial runs.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGenerate,
}

func init() {
	addCommonFlags(GenerateCmd, &generateCommon)
	addGenerationFlags(GenerateCmd, &generateGen)
	GenerateCmd.Flags().IntVarP(&chapterLimit, "chapter-limit", "n", 0, "Stop after this many chapters (0 = no limit)")
	GenerateCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Base directory for run output (default: output)")
	GenerateCmd.Flags().StringVar(&jsonPath, "json", "", "Also write the book with expansion details as JSON to this file")
	GenerateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate without writing files")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic := args[0]
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	cfg, err := loadConfig(cmd, &generateCommon)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyGenerationFlags(cmd, cfg, &generateGen)
	if cmd.Flags().Changed("chapter-limit") {
		cfg.Generation.ChapterLimit = chapterLimit
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = outputDir
	}

	rt, err := newRuntime(cmd, cfg, generateCommon.plain)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	rt.serveMetrics(ctx)

	outCfg := output.Config{Dir: cfg.Output.Dir, DryRun: dryRun}
	store := output.NewStore(outCfg, time.Now(), rt.logger)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s → %s\n", tui.ModelStyle.Render(store.ID()[:8]), store.Dir())

	start := time.Now()
	var book *core.Book
	err = rt.withProgress(ctx, out, "Writing "+topic, func(ctx context.Context, progress core.Observer) error {
		gen := core.NewGenerator(rt.invoker, cfg.Generate(),
			core.WithLogger(rt.logger),
			core.WithRunID(store.ID()),
			core.WithObserver(core.Observers(progress, output.NewChapterSink(store), rt.metrics)),
		)
		var err error
		book, err = gen.GenerateBook(ctx, topic, description)
		return err
	})
	if err != nil {
		reportFailure(cmd.ErrOrStderr(), store, err)
		return fmt.Errorf("generation failed (finished chapters are in %s): %w", store.Dir(), err)
	}

	result, err := store.WriteBook(book)
	if err != nil {
		return fmt.Errorf("failed to write book: %w", err)
	}
	if jsonPath != "" {
		if _, err := output.NewJSONAdapter(outCfg, jsonPath, out).WriteBook(book); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}
	}

	fmt.Fprint(out, tui.RenderSummary(result.Stats.Chapters, result.Stats.Words, time.Since(start), rt.usage))
	if result.Stats.ShortChapters > 0 {
		fmt.Fprintf(out, "  %s %d chapter(s) stopped below their word target\n",
			tui.WarningStyle.Render("!"), result.Stats.ShortChapters)
	}
	if !dryRun {
		fmt.Fprintf(out, "  Book: %s\n", tui.SuccessStyle.Render(result.Paths[len(result.Paths)-1]))
	}
	return nil
}
