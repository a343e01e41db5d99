// Command eval scores the question-answering engine against a résumé and a
// suite of questions with gold answers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"resume-qa/internal/app"
	"resume-qa/internal/config"
	"resume-qa/internal/eval"
	"resume-qa/internal/loader"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "eval",
		Short:        "Evaluate résumé question answering",
		SilenceUsage: true,
	}
	cmd.AddCommand(newRunCmd())
	return cmd
}

type runOptions struct {
	resume      string
	suite       string
	baseline    bool
	jsonOutput  bool
	concurrency int
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run --resume <file>",
		Short: "Run an evaluation suite against a résumé",
		Long: `Build a knowledge base from the résumé, then score every suite case on
retrieval hit, answer similarity, hallucination, BLEU and ROUGE.

The résumé may be a PDF, DOCX or plain text file. Without --suite the
built-in product manager suite is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.resume, "resume", "", "Résumé file (PDF, DOCX or text)")
	cmd.Flags().StringVar(&opts.suite, "suite", "", "YAML suite file (default: built-in suite)")
	cmd.Flags().BoolVar(&opts.baseline, "baseline", false, "Also score TF-IDF retrieval")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the full report as JSON")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", eval.DefaultConcurrency, "Cases evaluated at once")
	_ = cmd.MarkFlagRequired("resume")

	return cmd
}

func runEval(ctx context.Context, out io.Writer, opts runOptions) error {
	cfg, err := config.LoadForEval()
	if err != nil {
		return err
	}

	logger, err := app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	suite, err := loadSuite(opts.suite)
	if err != nil {
		return err
	}
	if opts.suite == "" {
		suite.SimilarityThreshold = cfg.EvalSimilarityThreshold
	}

	text, err := readResume(opts.resume)
	if err != nil {
		return err
	}

	components, err := app.Build(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = components.Close() }()

	runner := eval.NewRunner(components.Engine, components.Embedder)
	logger.InfoContext(ctx, "running evaluation", "suite", suite.Name, "cases", len(suite.Cases), "resume", opts.resume)

	report, err := runner.Run(ctx, suite, text, eval.Options{
		Baseline:    opts.baseline,
		Concurrency: opts.concurrency,
	})
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(out, report, suite.SimilarityThreshold)
	return nil
}

func loadSuite(path string) (*eval.Suite, error) {
	if path == "" {
		return eval.DefaultSuite()
	}
	return eval.LoadSuite(path)
}

// readResume extracts text from PDF and DOCX files and reads anything else as
// plain text.
func readResume(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume: %w", err)
	}

	name := filepath.Base(path)
	if !loader.Supported(name) {
		return loader.Clean(string(data)), nil
	}
	text, err := loader.Load(name, data)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", name, err)
	}
	return text, nil
}

func printReport(out io.Writer, report *eval.Report, threshold float64) {
	bold := color.New(color.Bold).SprintFunc()
	good := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	ratio := func(v float64, higherIsBetter bool) string {
		s := fmt.Sprintf("%.3f", v)
		if (v >= 0.5) == higherIsBetter {
			return good(s)
		}
		return bad(s)
	}

	s := report.Summary
	fmt.Fprintf(out, "%s %s (%d cases, %d chunks)\n\n", bold("Suite:"), report.Suite, s.Cases, s.Chunks)
	fmt.Fprintf(out, "Retrieval Accuracy:      %s\n", ratio(s.RetrievalAccuracy, true))
	if s.BaselineRetrievalAccuracy != nil {
		fmt.Fprintf(out, "TF-IDF Baseline:         %s\n", ratio(*s.BaselineRetrievalAccuracy, true))
	}
	simStr := fmt.Sprintf("%.3f", s.AvgSimilarity)
	if s.AvgSimilarity >= threshold {
		simStr = good(simStr)
	} else {
		simStr = bad(simStr)
	}
	fmt.Fprintf(out, "Avg Semantic Similarity: %s\n", simStr)
	fmt.Fprintf(out, "Hallucination Rate:      %s\n", ratio(s.HallucinationRate, false))
	fmt.Fprintf(out, "Avg BLEU:                %.3f\n", s.AvgBLEU)
	fmt.Fprintf(out, "Avg ROUGE-1 F1:          %.3f\n", s.AvgRouge1)
	fmt.Fprintf(out, "Avg ROUGE-L F1:          %.3f\n", s.AvgRougeL)

	fmt.Fprintf(out, "\n%s\n", bold("Qualitative Errors:"))
	if len(report.Errors) == 0 {
		fmt.Fprintln(out, good("none"))
		return
	}
	for _, e := range report.Errors {
		fmt.Fprintf(out, "%s => %s\n", e.Question, bad(e.Kind))
	}
}
