package embedding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.25,-0.5,1.0]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "test-model", "sk-test", 3)
	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 || vec[0] != 0.25 || vec[1] != -0.5 || vec[2] != 1.0 {
		t.Errorf("vec = %v", vec)
	}
}

func TestOpenAIEmbedder_NotConfigured(t *testing.T) {
	e := NewOpenAIEmbedder("https://api.openai.com/v1", "test-model", "", 3)
	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "test-model", "sk-test", 3)
	_, err := e.Embed(context.Background(), "hello")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", pe.StatusCode)
	}
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1.0,2.0]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "test-model", "sk-test", 3)
	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestOpenAIEmbedder_EmptyText(t *testing.T) {
	e := NewOpenAIEmbedder("https://api.openai.com/v1", "test-model", "sk-test", 3)
	if _, err := e.Embed(context.Background(), "  "); err == nil {
		t.Error("expected error embedding empty text")
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(8)
	a, err := e.Embed(context.Background(), "fees")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(context.Background(), "fees")
	c, _ := e.Embed(context.Background(), "withdrawals")
	if len(a) != 8 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should embed identically")
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts should embed differently")
	}
}
