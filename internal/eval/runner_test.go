package eval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"resume-qa/internal/indexer"
	embedmocks "resume-qa/internal/indexer/mocks"
	"resume-qa/internal/rag"
	ragmocks "resume-qa/internal/rag/mocks"
	"resume-qa/internal/vectorstore"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var testChunks = []string{"Skills: SQL, Tableau", "Education: Bachelor of Science"}

func testKB(t *testing.T) *indexer.KnowledgeBase {
	t.Helper()
	index, err := vectorstore.NewFlatIndex([][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	kb, err := indexer.NewKnowledgeBase(testChunks, index, indexer.Stats{Chunks: len(testChunks)})
	require.NoError(t, err)
	return kb
}

func testSuite() *Suite {
	return &Suite{
		Name:                "test",
		K:                   5,
		SimilarityThreshold: 0.55,
		MinAnswerLength:     5,
		Cases: []Case{
			{Question: "What skills?", Gold: "SQL Tableau"},
			{Question: "What degree?", Gold: "Bachelor of Science"},
		},
	}
}

// sqlEmbedder places texts mentioning sql on one axis and everything else on
// the other.
func sqlEmbedder(ctrl *gomock.Controller) *embedmocks.MockEmbedder {
	embedder := embedmocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i, text := range texts {
				if strings.Contains(text, "sql") {
					out[i] = []float32{1, 0}
				} else {
					out[i] = []float32{0, 1}
				}
			}
			return out, nil
		}).
		AnyTimes()
	return embedder
}

func TestRunner_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	kb := testKB(t)

	engine.EXPECT().BuildKnowledgeBase(gomock.Any(), "resume").Return(kb, nil)
	engine.EXPECT().Retrieve(gomock.Any(), "What skills?", kb, 5).Return([]string{testChunks[0]}, nil)
	engine.EXPECT().Retrieve(gomock.Any(), "What degree?", kb, 5).Return([]string{"Skills: SQL"}, nil)
	engine.EXPECT().Answer(gomock.Any(), "What skills?", kb).
		Return(rag.Answer{Text: "SQL and Tableau", Model: "primary"}, nil)
	engine.EXPECT().Answer(gomock.Any(), "What degree?", kb).
		Return(rag.Answer{}, &rag.GenerationError{PrimaryModel: "primary", Primary: errors.New("boom")})

	runner := NewRunner(engine, sqlEmbedder(ctrl))
	report, err := runner.Run(context.Background(), testSuite(), "resume", Options{Baseline: true, Concurrency: 2})
	require.NoError(t, err)

	require.Len(t, report.Cases, 2)
	skills, degree := report.Cases[0], report.Cases[1]

	assert.Equal(t, "sql and tableau", skills.Answer)
	assert.Equal(t, "primary", skills.Model)
	assert.True(t, skills.RetrievalHit)
	assert.InDelta(t, 1.0, skills.Similarity, 1e-9)
	assert.False(t, skills.Hallucinated)
	assert.Greater(t, skills.Rouge1, 0.0)
	assert.Empty(t, skills.Error)

	assert.Empty(t, degree.Answer)
	assert.NotEmpty(t, degree.GenerationFailure)
	assert.False(t, degree.RetrievalHit)
	assert.True(t, degree.Hallucinated)
	assert.Equal(t, 0.0, degree.Similarity)
	assert.Equal(t, ErrorRetrieval, degree.Error)

	s := report.Summary
	assert.Equal(t, 2, s.Cases)
	assert.Equal(t, 2, s.Chunks)
	assert.InDelta(t, 0.5, s.RetrievalAccuracy, 1e-9)
	assert.InDelta(t, 0.5, s.HallucinationRate, 1e-9)
	assert.InDelta(t, 0.5, s.AvgSimilarity, 1e-9)
	require.NotNil(t, s.BaselineRetrievalAccuracy)
	// k exceeds the chunk count, so the baseline returns every chunk.
	assert.InDelta(t, 1.0, *s.BaselineRetrievalAccuracy, 1e-9)

	assert.Equal(t, []QualitativeError{{Question: "What degree?", Kind: ErrorRetrieval}}, report.Errors)
}

func TestRunner_Run_NoBaseline(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	kb := testKB(t)

	suite := testSuite()
	suite.Cases = suite.Cases[:1]

	engine.EXPECT().BuildKnowledgeBase(gomock.Any(), gomock.Any()).Return(kb, nil)
	engine.EXPECT().Retrieve(gomock.Any(), gomock.Any(), kb, 5).Return(testChunks, nil)
	engine.EXPECT().Answer(gomock.Any(), gomock.Any(), kb).Return(rag.Answer{Text: "sql"}, nil)

	report, err := NewRunner(engine, sqlEmbedder(ctrl)).Run(context.Background(), suite, "resume", Options{})
	require.NoError(t, err)

	assert.Nil(t, report.Summary.BaselineRetrievalAccuracy)
	assert.Nil(t, report.Cases[0].BaselineHit)
	// Three characters is below the minimum answer length.
	assert.Equal(t, []QualitativeError{{Question: "What skills?", Kind: ErrorIncomplete}}, report.Errors)
}

func TestRunner_Run_BuildFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	engine.EXPECT().BuildKnowledgeBase(gomock.Any(), gomock.Any()).Return(nil, errors.New("embedding down"))

	_, err := NewRunner(engine, embedmocks.NewMockEmbedder(ctrl)).Run(context.Background(), testSuite(), "resume", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding down")
}

func TestRunner_Run_RetrievalFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	kb := testKB(t)

	engine.EXPECT().BuildKnowledgeBase(gomock.Any(), gomock.Any()).Return(kb, nil)
	engine.EXPECT().Retrieve(gomock.Any(), gomock.Any(), kb, 5).Return(nil, errors.New("index closed")).MinTimes(1)
	engine.EXPECT().Answer(gomock.Any(), gomock.Any(), kb).Times(0)

	_, err := NewRunner(engine, embedmocks.NewMockEmbedder(ctrl)).Run(context.Background(), testSuite(), "resume", Options{Concurrency: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index closed")
}

func TestRunner_Run_InvalidSuite(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := NewRunner(ragmocks.NewMockEngine(ctrl), embedmocks.NewMockEmbedder(ctrl)).
		Run(context.Background(), &Suite{K: 5}, "resume", Options{})
	assert.Error(t, err)
}
