package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

// Client is a VectorIndex backed by one Qdrant collection. Point ids are
// the chunk ids, assigned consecutively from zero after each Reset.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	mu                sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
	nextID            int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Reset drops the collection so the index never outlives the process that
// built it.
func (c *Client) Reset(ctx context.Context) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create delete collection request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant delete collection request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return statusError("delete collection", resp)
	}

	c.mu.Lock()
	c.ensuredCollection = false
	c.ensuredVectorSize = 0
	c.nextID = 0
	c.mu.Unlock()
	return nil
}

func (c *Client) Add(ctx context.Context, vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      int            `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	c.mu.Lock()
	firstID := c.nextID
	c.mu.Unlock()

	points := make([]point, 0, len(vectors))
	for i, v := range vectors {
		id := firstID + i
		points = append(points, point{
			ID:      id,
			Vector:  v,
			Payload: map[string]any{"chunk_id": id},
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError("upsert", resp)
	}

	c.mu.Lock()
	c.nextID = firstID + len(vectors)
	c.mu.Unlock()
	return nil
}

func (c *Client) Search(ctx context.Context, queryVector []float32, k int) ([]domain.ScoredID, error) {
	if k <= 0 {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, statusError("search", resp)
	}

	var searchResp struct {
		Result []struct {
			ID    json.Number `json:"id"`
			Score float64     `json:"score"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.ScoredID, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		id, err := r.ID.Int64()
		if err != nil {
			return nil, fmt.Errorf("decode point id %q: %w", r.ID.String(), err)
		}
		out = append(out, domain.ScoredID{ID: int(id), Score: r.Score})
	}
	return out, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.mu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return statusError("ensure collection", resp)
	}

	c.mu.Lock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	c.mu.Unlock()
	return nil
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
	}
	return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
}
