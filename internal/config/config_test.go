package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: 127.0.0.1
  port: 9000
storage:
  knowledge_base_dir: ./kb
embedding:
  model: text-embedding-3-small
  dimensions: 256
search:
  default_k: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("server config = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("model = %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 256 {
		t.Errorf("dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Search.DefaultK != 5 {
		t.Errorf("default_k = %d", cfg.Search.DefaultK)
	}

	wantDir := filepath.Join(dir, "kb")
	if cfg.Storage.KnowledgeBaseDir != wantDir {
		t.Errorf("knowledge_base_dir = %s, want %s", cfg.Storage.KnowledgeBaseDir, wantDir)
	}
	if cfg.Storage.IndexPath != filepath.Join(wantDir, "vectors.index") {
		t.Errorf("index_path = %s", cfg.Storage.IndexPath)
	}
	if cfg.Storage.DocumentsPath != filepath.Join(wantDir, "documents.json") {
		t.Errorf("documents_path = %s", cfg.Storage.DocumentsPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("default dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.Model != "text-embedding-ada-002" {
		t.Errorf("default model = %s", cfg.Embedding.Model)
	}
	if cfg.Search.DefaultK != 3 {
		t.Errorf("default k = %d", cfg.Search.DefaultK)
	}
	if cfg.Environment != "development" {
		t.Errorf("default environment = %s", cfg.Environment)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_AGENT_ID", "agent_123")
	t.Setenv("PORT", "8443")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Default()
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.Embedding.APIKey)
	}
	if cfg.Agent.AgentID != "agent_123" {
		t.Errorf("agent id = %q", cfg.Agent.AgentID)
	}
	if cfg.Server.Port != 8443 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[0] != want[0] || cfg.Server.AllowedOrigins[1] != want[1] {
		t.Errorf("allowed origins = %v", cfg.Server.AllowedOrigins)
	}
}
