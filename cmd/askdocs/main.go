package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	askdocs "github.com/askdocs-ai/askdocs"
	"github.com/askdocs-ai/askdocs/drive"
	"github.com/askdocs-ai/askdocs/ingest"
	"github.com/askdocs-ai/askdocs/ingest/pdf"
	"github.com/askdocs-ai/askdocs/internal/app"
	"github.com/askdocs-ai/askdocs/internal/config"
	"github.com/askdocs-ai/askdocs/observe"
	"github.com/askdocs-ai/askdocs/provider/gemini"
	"github.com/askdocs-ai/askdocs/store/postgres"
	"github.com/askdocs-ai/askdocs/store/sqlite"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg := config.Load(os.Getenv("ASKDOCS_CONFIG"))
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	// 2. Observability (optional)
	var inst *observe.Instruments
	if cfg.Observer.Enabled {
		var shutdown func(context.Context) error
		var err error
		inst, shutdown, err = observe.Init(ctx, cfg.Observer.ServiceName)
		if err != nil {
			log.Fatalf("observability init: %v", err)
		}
		defer shutdown(context.Background())
	}

	// 3. Providers. A missing API key is not fatal: the service answers
	// every query with the not-configured message instead.
	var provider askdocs.Provider
	var embedding askdocs.EmbeddingProvider
	if cfg.LLM.APIKey != "" {
		chat := gemini.New(cfg.LLM.APIKey, cfg.LLM.Model)
		embed := gemini.NewEmbedding(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		if inst != nil {
			provider = observe.WrapProvider(chat, cfg.LLM.Model, inst)
			embedding = observe.WrapEmbedding(embed, cfg.Embedding.Model, inst)
		} else {
			provider = chat
			embedding = embed
		}
	} else {
		logger.Warn("no LLM API key configured; queries will not be answered")
	}

	// 4. Corpus store
	var store askdocs.CorpusStore
	switch cfg.Database.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres pool: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	default:
		store = sqlite.New(cfg.Database.Path, sqlite.WithLogger(logger))
	}
	if err := store.Init(ctx); err != nil {
		log.Fatalf("store init: %v", err)
	}
	defer store.Close()

	// 5. Ingest pipeline with full format support
	pipeline := ingest.NewPipeline(
		ingest.WithLogger(logger),
		ingest.WithChunker(ingest.NewWindowChunker(
			ingest.WithChunkSize(cfg.Ingest.ChunkSize),
			ingest.WithOverlap(cfg.Ingest.Overlap),
		)),
	)
	pipeline.Registry().Register(pdf.NewExtractor())

	// 6. Drive client + service
	driveClient := drive.NewClient(drive.WithPageSize(cfg.Drive.PageSize))

	svcOpts := []app.Option{app.WithLogger(logger), app.WithStore(store)}
	if inst != nil {
		svcOpts = append(svcOpts, app.WithIndexBuildHook(inst.RecordIndexBuild))
	}
	svc := app.NewService(driveClient, provider, embedding, pipeline, app.Config{
		TopK:            cfg.Retrieval.TopK,
		MinAnswerChars:  cfg.Retrieval.MinAnswerChars,
		FallbackMarkers: cfg.Retrieval.FallbackMarkers,
		EmbedBatchSize:  cfg.Embedding.BatchSize,
		Timeout:         time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
	}, svcOpts...)

	// 7. HTTP surface
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/docs", func(w http.ResponseWriter, r *http.Request) {
		files, err := driveClient.List(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"files": files})
	})

	mux.HandleFunc("POST /api/select", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DocumentIDs []string `json:"document_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		err := svc.BuildIndexFromSelection(r.Context(), sessionID(r), bearerToken(r), req.DocumentIDs)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"status": "ok"})
	})

	mux.HandleFunc("POST /api/query", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		answer := svc.AnswerQuery(r.Context(), sessionID(r), req.Query)
		writeJSON(w, map[string]any{"response": answer})
	})

	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		svc.Logout(r.Context(), sessionID(r))
		writeJSON(w, map[string]any{"status": "ok"})
	})

	logger.Info("listening", "addr", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, mux))
}

// sessionID reads the client session header, minting a fresh id when the
// client has none yet.
func sessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-ID"); id != "" {
		return id
	}
	return askdocs.NewID()
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps typed failures to HTTP statuses: auth problems ask the
// client to re-authenticate, everything else is a server-side failure.
func writeError(w http.ResponseWriter, err error) {
	var authErr *askdocs.AuthError
	if errors.As(err, &authErr) {
		http.Error(w, app.ReauthenticateMessage, http.StatusUnauthorized)
		return
	}
	if errors.Is(err, askdocs.ErrNotConfigured) {
		http.Error(w, askdocs.NotConfiguredMessage, http.StatusServiceUnavailable)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
