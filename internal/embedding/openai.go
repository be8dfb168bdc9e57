package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint:
//
//	POST {baseURL}/embeddings
//	{"model": "...", "input": "..."}
type OpenAIEmbedder struct {
	baseURL    string
	model      string
	apiKey     string
	dimensions int
	client     *http.Client
}

// NewOpenAIEmbedder creates an embedder for the given endpoint and model.
// The returned embedder rejects vectors whose length differs from dimensions.
func NewOpenAIEmbedder(baseURL, model, apiKey string, dimensions int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Embed requests an embedding vector for text.
// Missing configuration returns ErrNotConfigured; request failures return *ProviderError.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set OPENAI_API_KEY)", ErrNotConfigured)
	}
	if e.model == "" {
		return nil, fmt.Errorf("%w: missing embedding model", ErrNotConfigured)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	reqBody := map[string]any{
		"model": e.model,
		"input": text,
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var parsed struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse embeddings response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: "embeddings response missing embedding"}
	}

	emb64 := parsed.Data[0].Embedding
	if len(emb64) != e.dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: provider returned %d, expected %d", len(emb64), e.dimensions)
	}
	out := make([]float32, len(emb64))
	for i, v := range emb64 {
		out[i] = float32(v)
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
