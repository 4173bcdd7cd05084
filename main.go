package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dhabedank/longform/cmd"
	"github.com/dhabedank/longform/internal/config"
	"github.com/dhabedank/longform/internal/version"
)

var buildVersion = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "longform",
		Short:         "Generate long-form fiction with outline-driven LLM pipelines",
		Version:       buildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			// API keys may live in .env; real environment variables win.
			_ = godotenv.Load()

			if c.Name() == "setup" {
				return
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return
			}
			if path, err := config.DefaultPath(); err == nil && version.IsFirstRun(home, path) {
				version.PrintFirstRunNotice(c.ErrOrStderr(), home)
			}
		},
		PersistentPostRun: func(c *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			version.PrintUpdateNotice(c.ErrOrStderr(), version.NewChecker(nil).Check(ctx, buildVersion))
		},
	}

	rootCmd.AddCommand(cmd.GenerateCmd, cmd.OutlineCmd, cmd.ChapterCmd, cmd.SceneCmd, cmd.SetupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
