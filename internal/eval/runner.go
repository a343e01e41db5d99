package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/indexer"
	"resume-qa/internal/rag"
)

// DefaultConcurrency is the number of cases evaluated at once.
const DefaultConcurrency = 4

// CaseResult holds the scores of one case.
type CaseResult struct {
	Question     string   `json:"question"`
	Gold         string   `json:"gold"`
	Answer       string   `json:"answer"`
	Model        string   `json:"model,omitempty"`
	Retrieved    []string `json:"retrieved"`
	RetrievalHit bool     `json:"retrieval_hit"`
	Similarity   float64  `json:"similarity"`
	Hallucinated bool     `json:"hallucinated"`
	BLEU         float64  `json:"bleu"`
	Rouge1       float64  `json:"rouge1_f1"`
	RougeL       float64  `json:"rougeL_f1"`
	// BaselineHit is set when the TF-IDF baseline ran.
	BaselineHit *bool `json:"baseline_hit,omitempty"`
	// Error is the qualitative error kind, if any.
	Error string `json:"error,omitempty"`
	// GenerationFailure is the error text when no answer could be generated.
	GenerationFailure string `json:"generation_failure,omitempty"`
}

// Summary aggregates case results.
type Summary struct {
	Cases             int     `json:"cases"`
	Chunks            int     `json:"chunks"`
	RetrievalAccuracy float64 `json:"retrieval_accuracy"`
	AvgSimilarity     float64 `json:"avg_similarity"`
	HallucinationRate float64 `json:"hallucination_rate"`
	AvgBLEU           float64 `json:"avg_bleu"`
	AvgRouge1         float64 `json:"avg_rouge1"`
	AvgRougeL         float64 `json:"avg_rougeL"`
	// BaselineRetrievalAccuracy is the TF-IDF accuracy when the baseline ran.
	BaselineRetrievalAccuracy *float64 `json:"baseline_retrieval_accuracy,omitempty"`
}

// QualitativeError names a case and what went wrong with it.
type QualitativeError struct {
	Question string `json:"question"`
	Kind     string `json:"kind"`
}

// Report is the outcome of one suite run.
type Report struct {
	Suite   string             `json:"suite"`
	Summary Summary            `json:"summary"`
	Cases   []CaseResult       `json:"cases"`
	Errors  []QualitativeError `json:"qualitative_errors"`
}

// Options control a run.
type Options struct {
	// Baseline also scores TF-IDF retrieval over the same chunks.
	Baseline bool
	// Concurrency bounds the cases evaluated at once. <= 0 uses DefaultConcurrency.
	Concurrency int
}

// Runner evaluates a suite against one document.
type Runner struct {
	engine   rag.Engine
	embedder indexer.Embedder
	logger   *slog.Logger
}

// NewRunner creates a Runner. embedder computes answer/gold similarity and
// should be the embedder the engine indexes with.
func NewRunner(engine rag.Engine, embedder indexer.Embedder) *Runner {
	return &Runner{
		engine:   engine,
		embedder: embedder,
		logger:   slog.Default(),
	}
}

func (r *Runner) getLogger(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != nil && l != slog.Default() {
		return l
	}
	return r.logger
}

// Run builds a knowledge base from document and scores every case against it.
// Cases share the knowledge base read-only. Generation failures are recorded
// on the case; retrieval and embedding failures abort the run.
func (r *Runner) Run(ctx context.Context, suite *Suite, document string, opts Options) (*Report, error) {
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	logger := r.getLogger(ctx)

	kb, err := r.engine.BuildKnowledgeBase(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("failed to build knowledge base: %w", err)
	}
	defer func() {
		if err := kb.Close(context.WithoutCancel(ctx)); err != nil {
			logger.WarnContext(ctx, "failed to close knowledge base", "error", err)
		}
	}()
	logger.InfoContext(ctx, "knowledge base built", "chunks", kb.Len(), "cases", len(suite.Cases))

	var baseline *rag.TFIDFIndex
	if opts.Baseline {
		baseline, err = rag.NewTFIDFIndex(kb.Chunks())
		if err != nil {
			return nil, err
		}
		defer func() { _ = baseline.Close() }()
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]CaseResult, len(suite.Cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, c := range suite.Cases {
		g.Go(func() error {
			res, err := r.runCase(gctx, suite, kb, baseline, c)
			if err != nil {
				return fmt.Errorf("case %d (%q): %w", i+1, c.Question, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Suite:   suite.Name,
		Summary: summarize(results, opts.Baseline),
		Cases:   results,
		Errors:  []QualitativeError{},
	}
	report.Summary.Chunks = kb.Len()
	for _, res := range results {
		if res.Error != "" {
			report.Errors = append(report.Errors, QualitativeError{Question: res.Question, Kind: res.Error})
		}
	}

	logger.InfoContext(ctx, "evaluation complete",
		"retrieval_accuracy", report.Summary.RetrievalAccuracy,
		"avg_similarity", report.Summary.AvgSimilarity,
		"qualitative_errors", len(report.Errors),
	)
	return report, nil
}

func (r *Runner) runCase(ctx context.Context, suite *Suite, kb *indexer.KnowledgeBase, baseline *rag.TFIDFIndex, c Case) (CaseResult, error) {
	logger := r.getLogger(ctx).With("question", c.Question)
	gold := strings.ToLower(c.Gold)
	res := CaseResult{Question: c.Question, Gold: c.Gold}

	chunks, err := r.engine.Retrieve(ctx, c.Question, kb, suite.K)
	if err != nil {
		return res, fmt.Errorf("retrieval failed: %w", err)
	}
	res.Retrieved = chunks
	res.RetrievalHit = RetrievalHit(chunks, gold)

	if baseline != nil {
		lexical, err := baseline.Retrieve(ctx, c.Question, suite.K)
		if err != nil {
			return res, err
		}
		hit := RetrievalHit(lexical, gold)
		res.BaselineHit = &hit
	}

	answer, err := r.engine.Answer(ctx, c.Question, kb)
	if err != nil {
		var genErr *rag.GenerationError
		if !errors.As(err, &genErr) {
			return res, fmt.Errorf("answer failed: %w", err)
		}
		logger.WarnContext(ctx, "generation failed", "error", err)
		res.GenerationFailure = err.Error()
	} else {
		res.Answer = strings.ToLower(answer.Text)
		res.Model = answer.Model
	}

	if strings.TrimSpace(res.Answer) != "" {
		vectors, err := r.embedder.EmbedTexts(ctx, []string{res.Answer, gold})
		if err != nil {
			return res, fmt.Errorf("failed to embed answer: %w", err)
		}
		if len(vectors) != 2 {
			return res, fmt.Errorf("expected 2 embeddings, got %d", len(vectors))
		}
		res.Similarity = CosineSimilarity(vectors[0], vectors[1])
	}

	res.Hallucinated = Hallucinated(res.Answer, gold)
	res.BLEU = SentenceBLEU(strings.Fields(gold), strings.Fields(res.Answer))
	res.Rouge1 = Rouge1F1(gold, res.Answer)
	res.RougeL = RougeLF1(gold, res.Answer)
	res.Error = Classify(res.RetrievalHit, res.Similarity, suite.SimilarityThreshold, res.Answer, suite.MinAnswerLength)

	logger.DebugContext(ctx, "case scored",
		"retrieval_hit", res.RetrievalHit,
		"similarity", res.Similarity,
		"error", res.Error,
	)
	return res, nil
}

func summarize(results []CaseResult, baseline bool) Summary {
	s := Summary{Cases: len(results)}
	if len(results) == 0 {
		return s
	}

	var hits, hallucinations, baselineHits int
	for _, res := range results {
		if res.RetrievalHit {
			hits++
		}
		if res.Hallucinated {
			hallucinations++
		}
		if res.BaselineHit != nil && *res.BaselineHit {
			baselineHits++
		}
		s.AvgSimilarity += res.Similarity
		s.AvgBLEU += res.BLEU
		s.AvgRouge1 += res.Rouge1
		s.AvgRougeL += res.RougeL
	}

	n := float64(len(results))
	s.RetrievalAccuracy = float64(hits) / n
	s.HallucinationRate = float64(hallucinations) / n
	s.AvgSimilarity /= n
	s.AvgBLEU /= n
	s.AvgRouge1 /= n
	s.AvgRougeL /= n
	if baseline {
		acc := float64(baselineHits) / n
		s.BaselineRetrievalAccuracy = &acc
	}
	return s
}
