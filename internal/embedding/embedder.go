// Package embedding provides text embedding via an OpenAI-compatible provider, with caching.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}

// ErrNotConfigured indicates missing credentials or model configuration.
// It is returned before any network I/O is attempted.
var ErrNotConfigured = errors.New("embedding provider is not configured")

// ProviderError is a failed embedding request (network or non-2xx response).
// These are transient from the caller's point of view; no retries happen here.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding request failed: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("embedding request failed: %s", e.Message)
}
