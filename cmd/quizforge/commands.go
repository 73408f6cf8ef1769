package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/extract"
	"github.com/quizforge/quizforge/internal/generate"
	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/render"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a quiz from one or more documents without the server",
	Long: `Generate a quiz from one or more documents without the server.

Examples:
  quizforge generate --file notes.pdf --count 10
  quizforge generate --file ch1.pdf --file ch2.docx --count 20 --out exam.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, _ := cmd.Flags().GetStringSlice("file")
		count, _ := cmd.Flags().GetInt("count")
		out, _ := cmd.Flags().GetString("out")
		title, _ := cmd.Flags().GetString("title")

		if len(files) == 0 {
			return fmt.Errorf("at least one --file is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if count < cfg.Limits.MinQuestions || count > cfg.Limits.MaxQuestions {
			return fmt.Errorf("count must be between %d and %d", cfg.Limits.MinQuestions, cfg.Limits.MaxQuestions)
		}

		fragments := make([]quiz.Fragment, 0, len(files))
		totalWords := 0
		for _, path := range files {
			printStep("extracting %s", path)
			frag, err := loadFragment(path, cfg.Limits.MaxUploadBytes)
			if err != nil {
				return err
			}
			fragments = append(fragments, frag)
			totalWords += frag.WordCount
		}
		if totalWords < cfg.Limits.MinSourceWords {
			return fmt.Errorf("sources total %d words, need at least %d", totalWords, cfg.Limits.MinSourceWords)
		}

		generator := generate.New(
			generate.NewOpenAIClient(cfg.Generator.OpenAIAPIKey, cfg.Generator.Model),
			generate.Options{
				MaxAttempts:    cfg.Generator.MaxAttempts,
				MaxPromptChars: cfg.Generator.MaxPromptChars,
			},
		)

		printStep("generating %d questions", count)
		var questions []quiz.Question
		ctx := cmd.Context()
		if len(fragments) == 1 {
			questions, err = generator.Generate(ctx, fragments[0].Text, count)
		} else {
			questions, err = generator.GenerateFromFragments(ctx, fragments, count)
		}
		if err != nil {
			return err
		}

		names := make([]string, len(fragments))
		for i, f := range fragments {
			names[i] = f.Name
		}
		content, err := render.Render(questions, quiz.Meta{
			Title:       title,
			SourceNames: names,
			GeneratedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		if err := os.WriteFile(out, content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		printSuccess("Wrote %d questions to %s", len(questions), out)
		printStatus("sources", "%d file(s), %d words", len(fragments), totalWords)
		return nil
	},
}

func loadFragment(path string, maxBytes int64) (quiz.Fragment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return quiz.Fragment{}, err
	}
	if info.Size() > maxBytes {
		return quiz.Fragment{}, fmt.Errorf("%s exceeds the %d byte limit", path, maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return quiz.Fragment{}, fmt.Errorf("reading %s: %w", path, err)
	}

	kind, ok := extract.KindForFilename(path)
	if !ok {
		return quiz.Fragment{}, fmt.Errorf("unsupported file type %q", path)
	}
	result, err := extract.Extract(data, kind)
	if err != nil {
		return quiz.Fragment{}, fmt.Errorf("extracting %s: %w", path, err)
	}

	return quiz.Fragment{
		Name:      filepath.Base(path),
		Text:      result.Text,
		WordCount: result.WordCount,
		CharCount: result.CharCount,
	}, nil
}

func init() {
	generateCmd.Flags().StringSlice("file", nil, "source document (repeatable)")
	generateCmd.Flags().Int("count", 10, "number of questions to generate")
	generateCmd.Flags().String("out", "quiz.html", "output HTML file")
	generateCmd.Flags().String("title", "", "quiz title")
}
