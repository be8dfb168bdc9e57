// Package config provides configuration loading and structs for the supportbot server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool            `yaml:"debug"`
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Storage     StorageConfig   `yaml:"storage"`
	Embedding   EmbeddingConfig `yaml:"embedding"`
	Agent       AgentConfig     `yaml:"agent"`
	Search      SearchConfig    `yaml:"search"`
	Watch       WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds paths for the knowledge base artifacts and session database.
type StorageConfig struct {
	KnowledgeBaseDir string `yaml:"knowledge_base_dir"`
	IndexPath        string `yaml:"index_path"`
	DocumentsPath    string `yaml:"documents_path"`
	SessionDBPath    string `yaml:"session_db_path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// AgentConfig holds hosted agent settings used by the session endpoints.
type AgentConfig struct {
	AgentID string `yaml:"agent_id"`
}

// SearchConfig holds knowledge-base search and web-search settings.
type SearchConfig struct {
	DefaultK             int    `yaml:"default_k"`
	WebSearchURL         string `yaml:"web_search_url"`
	WebSearchTimeoutSecs int    `yaml:"web_search_timeout_secs"`
}

// WatchConfig holds the drop-directory ingestion settings.
type WatchConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, applies defaults, environment
// overrides, and path expansion. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	finalize(&cfg, filepath.Dir(path))
	return &cfg, nil
}

// Default returns a config built from defaults and environment overrides only,
// for running without a config file. Paths are relative to the working directory.
func Default() *Config {
	cfg := &Config{}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	finalize(cfg, cwd)
	return cfg
}

func finalize(cfg *Config, baseDir string) {
	ApplyDefaults(cfg)
	applyEnvOverrides(cfg)

	cfg.Storage.KnowledgeBaseDir = expandPath(cfg.Storage.KnowledgeBaseDir, baseDir)
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = filepath.Join(cfg.Storage.KnowledgeBaseDir, "vectors.index")
	} else {
		cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, baseDir)
	}
	if cfg.Storage.DocumentsPath == "" {
		cfg.Storage.DocumentsPath = filepath.Join(cfg.Storage.KnowledgeBaseDir, "documents.json")
	} else {
		cfg.Storage.DocumentsPath = expandPath(cfg.Storage.DocumentsPath, baseDir)
	}
	if cfg.Storage.SessionDBPath == "" {
		cfg.Storage.SessionDBPath = filepath.Join(cfg.Storage.KnowledgeBaseDir, "sessions.db")
	} else {
		cfg.Storage.SessionDBPath = expandPath(cfg.Storage.SessionDBPath, baseDir)
	}
	if cfg.Watch.Directory != "" {
		cfg.Watch.Directory = expandPath(cfg.Watch.Directory, baseDir)
	}
}

// applyEnvOverrides applies environment variables on top of file values.
// Secrets are expected to come from the environment, not the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("OPENAI_AGENT_ID"); v != "" {
		cfg.Agent.AgentID = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("SEARCH_API_URL"); v != "" {
		cfg.Search.WebSearchURL = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.Server.AllowedOrigins = origins
	}
}

// expandPath converts a path to absolute. Relative paths are resolved against baseDir.
func expandPath(path string, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
