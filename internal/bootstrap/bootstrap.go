package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/grounded-qa/internal/config"
	"github.com/kirillkom/grounded-qa/internal/core/ports"
	"github.com/kirillkom/grounded-qa/internal/core/usecase"
	rediscache "github.com/kirillkom/grounded-qa/internal/infrastructure/cache/redis"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/chunking"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/embedding/hashing"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/extractor/spreadsheet"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/llm/openai"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/resilience"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/source"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/vector/memory"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Corpus   *usecase.LazyCorpus
	AnswerUC *usecase.AnswerQueryUseCase
	Executor *resilience.Executor

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{
		Config:   cfg,
		Executor: resilience.NewExecutor(cfg.Resilience),
	}

	embedder, err := app.newEmbedder(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	var answerLog ports.AnswerLog
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		app.closeFns = append(app.closeFns, func() { _ = db.Close() })
		repo := postgres.NewAnswerLogRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		answerLog = repo
	}

	builder := usecase.NewCorpusBuilder(
		app.newLoader(),
		chunking.NewSplitter(cfg.ChunkSize),
		embedder,
		app.newIndex(),
	)
	app.Corpus = usecase.NewLazyCorpus(builder)
	app.AnswerUC = usecase.NewAnswerQueryUseCase(app.Corpus, embedder, usecase.PipelineConfig{
		TopK:                  cfg.RAGTopK,
		MaxChunks:             cfg.RAGMaxChunks,
		MinScore:              cfg.RAGMinScore,
		MinSentenceSimilarity: cfg.RAGMinSentenceSim,
		GuardrailTerms:        cfg.RAGGuardrailTerms,
	}, answerLog)

	return app, nil
}

func (a *App) newEmbedder(ctx context.Context) (ports.Embedder, error) {
	cfg := a.Config

	var embedder ports.Embedder
	var model string
	switch cfg.EmbeddingProvider {
	case "openai":
		model = cfg.OpenAIEmbedModel
		embedder = openai.NewEmbedder(openai.Options{
			APIKey:   cfg.OpenAIAPIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    model,
			Executor: a.Executor,
		})
	case "hashing":
		model = fmt.Sprintf("hashing-%d", cfg.HashingDimensions)
		embedder = hashing.NewEmbedder(cfg.HashingDimensions)
	default:
		model = cfg.OllamaEmbedModel
		embedder = ollama.NewEmbedder(ollama.New(cfg.OllamaURL, model).WithResilience(a.Executor))
	}

	if cfg.RedisAddr == "" {
		return embedder, nil
	}
	client, err := rediscache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	a.closeFns = append(a.closeFns, func() { _ = client.Close() })
	ttl := time.Duration(cfg.EmbedCacheTTLSeconds) * time.Second
	return rediscache.NewEmbeddingCache(embedder, rediscache.NewClientStore(client), model, ttl), nil
}

func (a *App) newIndex() ports.VectorIndex {
	if a.Config.VectorBackend == "qdrant" {
		return qdrant.New(a.Config.QdrantURL, a.Config.QdrantCollection)
	}
	return memory.New()
}

func (a *App) newLoader() ports.DocumentLoader {
	cfg := a.Config
	storage := localfs.New(cfg.DocsPath, cfg.DocsExtensions)
	loaders := source.CompositeLoader{
		source.NewDirectoryLoader(storage, map[string]ports.TextExtractor{
			".txt":  plaintext.NewExtractor(),
			".md":   plaintext.NewExtractor(),
			".pdf":  pdf.NewExtractor(),
			".xlsx": spreadsheet.NewExtractor(),
		}),
	}
	if cfg.WikiEnabled && len(cfg.WikiPages) > 0 {
		loaders = append(loaders, source.NewWikipediaLoader(source.WikipediaOptions{
			APIURL:    cfg.WikiAPIURL,
			Pages:     cfg.WikiPages,
			Sentences: cfg.WikiSentences,
			Executor:  a.Executor,
		}))
	}
	return loaders
}

// WarmUp builds the corpus when eager building is enabled. A failure is
// logged and left for the next query to retry.
func (a *App) WarmUp(ctx context.Context) {
	if !a.Config.CorpusEagerBuild {
		return
	}
	buildCtx, cancel := context.WithTimeout(ctx, time.Duration(a.Config.CorpusBuildTimeoutSec)*time.Second)
	defer cancel()

	if _, err := a.Corpus.Get(buildCtx); err != nil {
		slog.Error("corpus_warmup_failed", "error", err)
	}
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
