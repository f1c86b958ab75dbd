package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Retrieval.TopK != 4 {
		t.Errorf("TopK = %d, want 4", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.MinAnswerChars != 50 {
		t.Errorf("MinAnswerChars = %d, want 50", cfg.Retrieval.MinAnswerChars)
	}
	if cfg.Ingest.ChunkSize != 1000 || cfg.Ingest.Overlap != 0 {
		t.Errorf("chunking = %d/%d, want 1000/0", cfg.Ingest.ChunkSize, cfg.Ingest.Overlap)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("Dimensions = %d, want 1536", cfg.Embedding.Dimensions)
	}
	if cfg.Database.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Database.Backend)
	}
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askdocs.toml")
	content := `
[retrieval]
top_k = 8
min_answer_chars = 20
fallback_markers = ["I don't know", "cannot answer"]

[ingest]
chunk_size = 500

[database]
backend = "postgres"
postgres_dsn = "postgres://localhost/askdocs"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if cfg.Retrieval.TopK != 8 {
		t.Errorf("TopK = %d, want 8", cfg.Retrieval.TopK)
	}
	if len(cfg.Retrieval.FallbackMarkers) != 2 {
		t.Errorf("FallbackMarkers = %v", cfg.Retrieval.FallbackMarkers)
	}
	if cfg.Ingest.ChunkSize != 500 {
		t.Errorf("ChunkSize = %d, want 500", cfg.Ingest.ChunkSize)
	}
	if cfg.Database.Backend != "postgres" {
		t.Errorf("Backend = %q, want postgres", cfg.Database.Backend)
	}
	// Untouched sections keep defaults.
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestEnvOverridesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askdocs.toml")
	if err := os.WriteFile(path, []byte("[llm]\napi_key = \"from-file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ASKDOCS_LLM_API_KEY", "from-env")

	cfg := Load(path)
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want env value", cfg.LLM.APIKey)
	}
}

func TestEmbeddingKeyFallsBackToLLMKey(t *testing.T) {
	t.Setenv("ASKDOCS_LLM_API_KEY", "shared-key")
	t.Setenv("ASKDOCS_EMBEDDING_API_KEY", "")

	cfg := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if cfg.Embedding.APIKey != "shared-key" {
		t.Errorf("Embedding.APIKey = %q, want shared-key", cfg.Embedding.APIKey)
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if cfg.Retrieval.TopK != 4 {
		t.Errorf("TopK = %d, want default", cfg.Retrieval.TopK)
	}
}
