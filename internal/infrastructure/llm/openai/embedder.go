package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/resilience"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultModel = "text-embedding-3-small"

type Options struct {
	APIKey   string
	BaseURL  string
	Model    string
	Executor *resilience.Executor
}

// Embedder calls an OpenAI-compatible /embeddings endpoint. Retries are left
// to the resilience executor so the SDK's own retry loop is disabled.
type Embedder struct {
	client   sdk.Client
	model    string
	executor *resilience.Executor
}

func NewEmbedder(opts Options) *Embedder {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Embedder{
		client:   sdk.NewClient(reqOpts...),
		model:    model,
		executor: opts.Executor,
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := resilience.ExecuteValue(ctx, e.executor, "openai.embed", func(callCtx context.Context) (*sdk.CreateEmbeddingResponse, error) {
		return e.client.Embeddings.New(callCtx, sdk.EmbeddingNewParams{
			Input: sdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model: sdk.EmbeddingModel(e.model),
		})
	}, classifyOpenAIError)
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, item := range data {
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func classifyOpenAIError(err error) resilience.ErrorClassification {
	if class, ok := resilience.ClassifyCommon(err); ok {
		return class
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return resilience.ClassifyHTTPStatus(apiErr.StatusCode)
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

func wrapOpenAIError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		return domain.WrapError(domain.ErrUpstreamAuth, "openai embed", err)
	}
	return resilience.WrapTemporary("openai embed", err, classifyOpenAIError)
}
