package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Ingest    IngestConfig    `toml:"ingest"`
	Database  DatabaseConfig  `toml:"database"`
	Drive     DriveConfig     `toml:"drive"`
	Observer  ObserverConfig  `toml:"observer"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
	// RequestTimeoutSeconds bounds each external-facing operation
	// (index build, query) end to end.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
}

type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	APIKey     string `toml:"api_key"`
	BatchSize  int    `toml:"batch_size"`
}

type RetrievalConfig struct {
	TopK int `toml:"top_k"`
	// MinAnswerChars is the low-confidence length floor; grounded answers
	// shorter than this fall back to general knowledge.
	MinAnswerChars  int      `toml:"min_answer_chars"`
	FallbackMarkers []string `toml:"fallback_markers"`
}

type IngestConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

type DatabaseConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend     string `toml:"backend"`
	Path        string `toml:"path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

type DriveConfig struct {
	PageSize int `toml:"page_size"`
}

type ObserverConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8080", RequestTimeoutSeconds: 120},
		LLM:       LLMConfig{Provider: "gemini", Model: "gemini-2.5-flash"},
		Embedding: EmbeddingConfig{Provider: "gemini", Model: "gemini-embedding-001", Dimensions: 1536, BatchSize: 64},
		Retrieval: RetrievalConfig{TopK: 4, MinAnswerChars: 50, FallbackMarkers: []string{"I don't know"}},
		Ingest:    IngestConfig{ChunkSize: 1000, Overlap: 0},
		Database:  DatabaseConfig{Backend: "sqlite", Path: "askdocs.db"},
		Drive:     DriveConfig{PageSize: 100},
		Observer:  ObserverConfig{ServiceName: "askdocs"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "askdocs.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("ASKDOCS_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("ASKDOCS_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("ASKDOCS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ASKDOCS_DB_BACKEND"); v != "" {
		cfg.Database.Backend = v
	}
	if v := os.Getenv("ASKDOCS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ASKDOCS_POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("ASKDOCS_OBSERVER_ENABLED"); v == "true" || v == "1" {
		cfg.Observer.Enabled = true
	}

	// Fallbacks
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}

	return cfg
}
