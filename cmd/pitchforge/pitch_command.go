package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pitchforge/internal/config"
	"pitchforge/internal/extract"
	"pitchforge/internal/llm"
	"pitchforge/internal/pipeline"
	"pitchforge/internal/store"
	"pitchforge/internal/visual"
)

func newPitchCommand(configFlag *string) *cobra.Command {
	var platform string
	var tone string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pitch <file>",
		Short: "Run the full pitch pipeline over a screenplay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.LoadFile(*configFlag)
			if err != nil {
				return err
			}
			if cfg.LLMAPIKey == "" {
				return fmt.Errorf("PITCHFORGE_LLM_API_KEY is required")
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}

			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			packages, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer packages.Close()

			gateway := llm.NewClient(llm.Config{
				APIKey:         cfg.LLMAPIKey,
				BaseURL:        cfg.LLMBaseURL,
				Model:          cfg.LLMModel,
				TimeoutSeconds: cfg.LLMTimeoutSeconds,
			}, llm.WithRetryMaxAttempts(cfg.LLMRetryAttempts))
			defer gateway.Close()

			var source visual.ImageSource
			if cfg.StockImageKey != "" {
				source = visual.NewStockClient(cfg.StockImageURL, cfg.StockImageKey)
			}
			var gen visual.ImageGenerator
			if cfg.AIImageKey != "" {
				gen = visual.NewAIClient(cfg.AIImageURL, cfg.AIImageKey)
			}

			runner := pipeline.NewRunner(gateway, cfg.LLMModel,
				pipeline.WithBudgets(pipeline.Budgets{
					ScriptExcerpt: cfg.ScriptExcerptChars,
					StageInput:    cfg.StageInputChars,
				}),
				pipeline.WithStageTimeout(time.Duration(cfg.LLMTimeoutSeconds)*time.Second),
			)
			jobRunner := pipeline.NewJobRunner(runner, packages, visual.NewBuilder(source, gen, nil),
				extract.Options{OCREnabled: cfg.OCREnabled}, nil)

			ov := pipeline.Overrides{Platform: platform, Tone: tone}
			job := pipeline.NewJob(filepath.Base(path), "", data, ov)

			fmt.Fprintf(cmd.ErrOrStderr(), "processing %s\n", filepath.Base(path))
			jobRunner.Process(cmd.Context(), job)

			snap := job.Snapshot()
			if snap.Status != pipeline.StatusSucceeded {
				return fmt.Errorf("pipeline failed: %s", snap.Error)
			}

			pkg, err := packages.GetPackage(cmd.Context(), snap.PackageID)
			if err != nil {
				return err
			}
			if pkg == nil {
				return fmt.Errorf("package %s missing after save", snap.PackageID)
			}

			if asJSON || !stdoutIsTerminal() {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(pkg)
			}

			printPackageSummary(cmd, pkg)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Target platform override")
	cmd.Flags().StringVar(&tone, "tone", "", "Tone override")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full package as JSON")
	return cmd
}

func printPackageSummary(cmd *cobra.Command, pkg *pipeline.PitchPackage) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Package %s\n", pkg.ID)
	fmt.Fprintf(out, "  Title:     %s\n", pkg.Title)
	fmt.Fprintf(out, "  Quality:   %d/10\n", pkg.Quality)
	if res := pkg.Result; res != nil {
		if res.Pitch.Logline != "" {
			fmt.Fprintf(out, "  Logline:   %s\n", res.Pitch.Logline)
		}
		if res.Pitch.Hook != "" {
			fmt.Fprintf(out, "  Hook:      %s\n", res.Pitch.Hook)
		}
		if len(res.Market.Platforms) > 0 {
			fmt.Fprintf(out, "  Platforms: %s\n", strings.Join(res.Market.Platforms, ", "))
		}
	}
	fmt.Fprintf(out, "  Deck:      %d sections\n", len(pkg.Deck))
	for _, w := range pkg.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
}
