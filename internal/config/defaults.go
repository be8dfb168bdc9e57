package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:8000"}
	}
	if cfg.Storage.KnowledgeBaseDir == "" {
		cfg.Storage.KnowledgeBaseDir = "knowledge_base"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-ada-002"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1024
	}
	if cfg.Search.DefaultK == 0 {
		cfg.Search.DefaultK = 3
	}
	if cfg.Search.WebSearchURL == "" {
		cfg.Search.WebSearchURL = "https://api.duckduckgo.com/"
	}
	if cfg.Search.WebSearchTimeoutSecs == 0 {
		cfg.Search.WebSearchTimeoutSecs = 10
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md"}
	}
}
