// Package askdocs answers natural-language questions over a user-selected
// set of cloud-store documents.
//
// The pipeline: raw document bytes pass through format extractors
// (package ingest) to produce plain text, which is chunked, embedded, and
// loaded into an in-memory vector Index. A query is embedded, matched
// against the index, and the top chunks are stuffed into a generation
// prompt. When no index exists or the grounded answer looks inadequate,
// the Answerer falls back to an unconditioned general-knowledge answer.
//
// The root package holds the domain types, the Provider and
// EmbeddingProvider boundaries, the Index, and the Answerer. Subpackages:
//
//   - ingest: format extractors, chunker, extraction pipeline
//   - provider/gemini: Gemini chat + embeddings over REST
//   - drive: Google Drive / Docs document store client
//   - store/sqlite, store/postgres: per-session corpus persistence
//   - observe: OpenTelemetry instrumentation wrappers
//   - internal/app: session state and the service boundary
package askdocs
