package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/grounded-qa/internal/core/ports"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "gqa:embed:"

// Store is the key/value surface the cache needs. Get reports a miss with
// found=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type ClientStore struct {
	client *goredis.Client
}

func NewClientStore(client *goredis.Client) *ClientStore {
	return &ClientStore{client: client}
}

// Connect opens a client and pings it so misconfiguration fails at startup.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *ClientStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *ClientStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// EmbeddingCache memoizes an embedder per (model, text). Store failures are
// logged and fall through to the wrapped embedder.
type EmbeddingCache struct {
	next      ports.Embedder
	store     Store
	namespace string
	ttl       time.Duration
}

func NewEmbeddingCache(next ports.Embedder, store Store, model string, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{
		next:      next,
		store:     store,
		namespace: DefaultKeyPrefix + model + ":",
		ttl:       ttl,
	}
}

func (c *EmbeddingCache) key(text string) string {
	hash := sha256.Sum256([]byte(text))
	return c.namespace + hex.EncodeToString(hash[:])
}

func (c *EmbeddingCache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := c.lookup(ctx, text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(fresh), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = fresh[j]
		c.save(ctx, missTexts[j], fresh[j])
	}
	slog.Debug("embedding_cache", "hits", len(texts)-len(missTexts), "misses", len(missTexts))
	return out, nil
}

func (c *EmbeddingCache) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.lookup(ctx, text); ok {
		return vec, nil
	}
	vec, err := c.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.save(ctx, text, vec)
	return vec, nil
}

func (c *EmbeddingCache) lookup(ctx context.Context, text string) ([]float32, bool) {
	key := c.key(text)
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		slog.Warn("embedding_cache_get_failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		slog.Warn("embedding_cache_corrupt", "key", key, "error", err)
		return nil, false
	}
	return vec, true
}

func (c *EmbeddingCache) save(ctx context.Context, text string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	key := c.key(text)
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		slog.Warn("embedding_cache_set_failed", "key", key, "error", err)
	}
}
