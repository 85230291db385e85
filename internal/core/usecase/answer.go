package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/ports"
)

// CorpusProvider hands out the built corpus, building it on first use.
type CorpusProvider interface {
	Get(ctx context.Context) (*Corpus, error)
}

type PipelineConfig struct {
	TopK                  int
	MaxChunks             int
	MinScore              float64
	MinSentenceSimilarity float64
	GuardrailTerms        []string
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TopK:                  DefaultTopK,
		MaxChunks:             DefaultMaxChunks,
		MinScore:              DefaultMinScore,
		MinSentenceSimilarity: DefaultMinSentenceSimilarity,
		GuardrailTerms:        DefaultGuardrailTerms,
	}
}

type AnswerQueryUseCase struct {
	corpus    CorpusProvider
	embedder  ports.Embedder
	retriever *GuardedRetriever
	selector  *GroundedSelector
	answerLog ports.AnswerLog

	topK      int
	maxChunks int
}

func NewAnswerQueryUseCase(
	corpus CorpusProvider,
	embedder ports.Embedder,
	cfg PipelineConfig,
	answerLog ports.AnswerLog,
) *AnswerQueryUseCase {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = DefaultMaxChunks
	}
	if cfg.GuardrailTerms == nil {
		cfg.GuardrailTerms = DefaultGuardrailTerms
	}

	return &AnswerQueryUseCase{
		corpus:    corpus,
		embedder:  embedder,
		retriever: NewGuardedRetriever(embedder, cfg.MinScore),
		selector:  NewGroundedSelector(embedder, NewGuardrail(cfg.GuardrailTerms), cfg.MinSentenceSimilarity),
		answerLog: answerLog,
		topK:      cfg.TopK,
		maxChunks: cfg.MaxChunks,
	}
}

// AnswerQuery runs one retrieval, assembly and selection pass. Finding
// nothing is reported through the response status; errors are collaborator
// failures or invalid input.
func (uc *AnswerQueryUseCase) AnswerQuery(
	ctx context.Context,
	query string,
	topK, maxChunks int,
) (*domain.PipelineResponse, error) {
	start := time.Now()
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer query", errors.New("empty query"))
	}
	if topK <= 0 {
		topK = uc.topK
	}
	if maxChunks <= 0 {
		maxChunks = uc.maxChunks
	}

	resp, err := uc.run(ctx, query, topK, maxChunks)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, query, resp, time.Since(start))
	return resp, nil
}

func (uc *AnswerQueryUseCase) run(ctx context.Context, query string, topK, maxChunks int) (*domain.PipelineResponse, error) {
	corpus, err := uc.corpus.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	// The query vector is shared by retrieval and sentence selection.
	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := uc.retriever.RetrieveVector(ctx, corpus, queryVector, topK)
	if err != nil {
		return nil, err
	}
	if results == nil {
		return &domain.PipelineResponse{
			Confidence: 0,
			Status:     domain.StatusLowRetrievalConfidence,
		}, nil
	}

	sentences := AssembleContext(results, maxChunks)
	selection, err := uc.selector.SelectVector(ctx, queryVector, sentences)
	if err != nil {
		return nil, err
	}
	if selection.Citation == nil {
		return &domain.PipelineResponse{
			Answer:     selection.Answer,
			Confidence: 0,
			Status:     domain.StatusNoGroundedAnswer,
		}, nil
	}

	return &domain.PipelineResponse{
		Answer:     selection.Answer,
		Confidence: ScoreConfidence(results),
		Citations:  []domain.Citation{*selection.Citation},
		Status:     domain.StatusOK,
	}, nil
}

func (uc *AnswerQueryUseCase) record(ctx context.Context, query string, resp *domain.PipelineResponse, elapsed time.Duration) {
	if uc.answerLog == nil {
		return
	}

	entry := domain.AnswerLogEntry{
		ID:         uuid.NewString(),
		Query:      query,
		Status:     resp.Status,
		Confidence: resp.Confidence,
		Answer:     resp.AnswerText(),
		DurationMS: float64(elapsed.Microseconds()) / 1000.0,
	}
	if len(resp.Citations) > 0 {
		chunkID := resp.Citations[0].ChunkID
		entry.ChunkID = &chunkID
	}
	if err := uc.answerLog.Record(ctx, entry); err != nil {
		slog.Warn("answer_log_failed", "status", string(resp.Status), "error", err)
	}
}
