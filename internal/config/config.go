package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/grounded-qa/internal/infrastructure/resilience"
)

type Config struct {
	APIPort  string
	LogLevel string

	DocsPath       string
	DocsExtensions []string

	WikiEnabled   bool
	WikiPages     []string
	WikiSentences int
	WikiAPIURL    string

	ChunkSize             int
	RAGTopK               int
	RAGMaxChunks          int
	RAGMinScore           float64
	RAGMinSentenceSim     float64
	RAGGuardrailTerms     []string
	CorpusEagerBuild      bool
	CorpusBuildTimeoutSec int

	EmbeddingProvider string
	OllamaURL         string
	OllamaEmbedModel  string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIEmbedModel  string
	HashingDimensions int

	VectorBackend    string
	QdrantURL        string
	QdrantCollection string

	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	EmbedCacheTTLSeconds int

	PostgresDSN string

	NATSURL        string
	NATSSubject    string
	NATSQueueGroup string

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int

	WorkerMetricsPort string

	Resilience resilience.Config
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE. Its values
// become the defaults that environment variables override.
type fileConfig struct {
	Pipeline struct {
		ChunkSize             *int     `yaml:"chunk_size"`
		TopK                  *int     `yaml:"top_k"`
		MaxChunks             *int     `yaml:"max_chunks"`
		MinScore              *float64 `yaml:"min_score"`
		MinSentenceSimilarity *float64 `yaml:"min_sentence_similarity"`
		GuardrailTerms        []string `yaml:"guardrail_terms"`
	} `yaml:"pipeline"`
	Sources struct {
		DocsPath       string   `yaml:"docs_path"`
		DocsExtensions []string `yaml:"docs_extensions"`
		WikiPages      []string `yaml:"wiki_pages"`
		WikiSentences  *int     `yaml:"wiki_sentences"`
	} `yaml:"sources"`
}

func Load() (Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	p, s := file.Pipeline, file.Sources

	def := resilience.DefaultConfig()
	cfg := Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		DocsPath:       mustEnv("DOCS_PATH", orString(s.DocsPath, "./Documents")),
		DocsExtensions: mustEnvList("DOCS_EXTENSIONS", orList(s.DocsExtensions, []string{".txt"})),

		WikiEnabled:   mustEnvBool("WIKI_ENABLED", true),
		WikiPages:     mustEnvList("WIKI_PAGES", orList(s.WikiPages, []string{"Football", "Association football"})),
		WikiSentences: mustEnvInt("WIKI_SENTENCES", orInt(s.WikiSentences, 8)),
		WikiAPIURL:    mustEnv("WIKI_API_URL", "https://en.wikipedia.org/w/api.php"),

		ChunkSize:             mustEnvInt("CHUNK_SIZE", orInt(p.ChunkSize, 3)),
		RAGTopK:               mustEnvInt("RAG_TOP_K", orInt(p.TopK, 10)),
		RAGMaxChunks:          mustEnvInt("RAG_MAX_CHUNKS", orInt(p.MaxChunks, 3)),
		RAGMinScore:           mustEnvFloat("RAG_MIN_SCORE", orFloat(p.MinScore, 0.45)),
		RAGMinSentenceSim:     mustEnvFloat("RAG_MIN_SENTENCE_SIM", orFloat(p.MinSentenceSimilarity, 0.65)),
		RAGGuardrailTerms:     mustEnvList("RAG_GUARDRAIL_TERMS", orList(p.GuardrailTerms, []string{"usually", "between", "include", "some", "variations"})),
		CorpusEagerBuild:      mustEnvBool("CORPUS_EAGER_BUILD", true),
		CorpusBuildTimeoutSec: mustEnvInt("CORPUS_BUILD_TIMEOUT_SECONDS", 300),

		EmbeddingProvider: strings.ToLower(mustEnv("EMBEDDING_PROVIDER", "ollama")),
		OllamaURL:         mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaEmbedModel:  mustEnv("OLLAMA_EMBED_MODEL", "all-minilm"),
		OpenAIAPIKey:      mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     mustEnv("OPENAI_BASE_URL", ""),
		OpenAIEmbedModel:  mustEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		HashingDimensions: mustEnvInt("HASHING_DIMENSIONS", 384),

		VectorBackend:    strings.ToLower(mustEnv("VECTOR_BACKEND", "memory")),
		QdrantURL:        mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: mustEnv("QDRANT_COLLECTION", "grounded_qa_chunks"),

		RedisAddr:            mustEnv("REDIS_ADDR", ""),
		RedisPassword:        mustEnv("REDIS_PASSWORD", ""),
		RedisDB:              mustEnvInt("REDIS_DB", 0),
		EmbedCacheTTLSeconds: mustEnvInt("EMBED_CACHE_TTL_SECONDS", 86400),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:        mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject:    mustEnv("NATS_SUBJECT", "qa.ask"),
		NATSQueueGroup: mustEnv("NATS_QUEUE_GROUP", "answer-workers"),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 0),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 0),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),

		Resilience: resilience.Config{
			RetryMaxAttempts:        mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", def.RetryMaxAttempts),
			RetryInitialBackoff:     mustEnvDurationMS("RESILIENCE_RETRY_INITIAL_BACKOFF_MS", def.RetryInitialBackoff),
			RetryMaxBackoff:         mustEnvDurationMS("RESILIENCE_RETRY_MAX_BACKOFF_MS", def.RetryMaxBackoff),
			RetryMultiplier:         mustEnvFloat("RESILIENCE_RETRY_MULTIPLIER", def.RetryMultiplier),
			AttemptTimeout:          mustEnvDurationMS("RESILIENCE_ATTEMPT_TIMEOUT_MS", def.AttemptTimeout),
			BreakerEnabled:          mustEnvBool("RESILIENCE_BREAKER_ENABLED", def.BreakerEnabled),
			BreakerMinRequests:      uint32(mustEnvInt("RESILIENCE_BREAKER_MIN_REQUESTS", int(def.BreakerMinRequests))),
			BreakerFailureRatio:     mustEnvFloat("RESILIENCE_BREAKER_FAILURE_RATIO", def.BreakerFailureRatio),
			BreakerOpenTimeout:      mustEnvDurationMS("RESILIENCE_BREAKER_OPEN_TIMEOUT_MS", def.BreakerOpenTimeout),
			BreakerHalfOpenMaxCalls: uint32(mustEnvInt("RESILIENCE_BREAKER_HALF_OPEN_MAX_CALLS", int(def.BreakerHalfOpenMaxCalls))),
		},
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.EmbeddingProvider {
	case "ollama", "hashing":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("config: OPENAI_API_KEY is required for EMBEDDING_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("config: unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	switch c.VectorBackend {
	case "memory", "qdrant":
	default:
		return fmt.Errorf("config: unknown VECTOR_BACKEND %q", c.VectorBackend)
	}
	if c.ChunkSize <= 0 || c.RAGTopK <= 0 || c.RAGMaxChunks <= 0 {
		return fmt.Errorf("config: CHUNK_SIZE, RAG_TOP_K and RAG_MAX_CHUNKS must be positive")
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDurationMS(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// mustEnvList splits a comma separated value, dropping blank items.
func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func orString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func orInt(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func orFloat(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func orList(v []string, fallback []string) []string {
	if len(v) == 0 {
		return fallback
	}
	return v
}
