package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhabedank/longform/internal/story"
	"github.com/dhabedank/longform/internal/tui"
)

var (
	sceneCommon   commonFlags
	sceneBible    string
	sceneName     string
	sceneDialogue []string
	sceneContext  string
	sceneTone     string
	sceneStyle    string
	sceneOut      string
)

// SceneCmd represents the scene command.
var SceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "Write a scene or dialogue from a story bible",
	Long: `Write a standalone scene or dialogue grounded in a YAML story bible:
characters with traits and relationships, world locations and rules.

  longform scene --bible bible.yaml --scene stakeout
  longform scene --bible bible.yaml --dialogue John,Sarah --context "a rainy rooftop"`,
	Args: cobra.NoArgs,
	RunE: runScene,
}

func init() {
	addCommonFlags(SceneCmd, &sceneCommon)
	SceneCmd.Flags().StringVarP(&sceneBible, "bible", "b", "", "Story bible YAML file")
	SceneCmd.Flags().StringVar(&sceneName, "scene", "", "Name of a scene defined in the bible")
	SceneCmd.Flags().StringSliceVar(&sceneDialogue, "dialogue", nil, "Characters for a dialogue (comma-separated)")
	SceneCmd.Flags().StringVar(&sceneContext, "context", "", "Situation for the dialogue")
	SceneCmd.Flags().StringVar(&sceneTone, "tone", "", "Tone for the dialogue (default: natural)")
	SceneCmd.Flags().StringVar(&sceneStyle, "style", "", "Writing style for the scene (default: the bible's style)")
	SceneCmd.Flags().StringVar(&sceneOut, "out", "", "Write the text to this file instead of stdout")
	_ = SceneCmd.MarkFlagRequired("bible")
	SceneCmd.MarkFlagsMutuallyExclusive("scene", "dialogue")
	SceneCmd.MarkFlagsOneRequired("scene", "dialogue")
}

func runScene(cmd *cobra.Command, args []string) error {
	bible, err := story.LoadBible(sceneBible)
	if err != nil {
		return err
	}
	var scene story.Scene
	if sceneName != "" {
		var ok bool
		if scene, ok = bible.Scene(sceneName); !ok {
			return fmt.Errorf("scene %q not found in %s", sceneName, sceneBible)
		}
	}

	cfg, err := loadConfig(cmd, &sceneCommon)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Single call; no live display.
	rt, err := newRuntime(cmd, cfg, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine := story.NewEngine(bible, rt.invoker, rt.logger)
	var text string
	switch {
	case sceneName != "":
		text, err = engine.GenerateScene(ctx, scene, sceneStyle)
	case len(sceneDialogue) > 0:
		text, err = engine.GenerateDialogue(ctx, sceneDialogue, sceneContext, sceneTone)
	default:
		err = errors.New("one of --scene or --dialogue is required")
	}
	if err != nil {
		return err
	}

	if sceneOut == "" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(sceneOut, []byte(strings.TrimSpace(text)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", sceneOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", tui.SuccessStyle.Render("✓"), sceneOut)
	return nil
}
