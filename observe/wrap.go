package observe

import (
	"context"
	"time"

	askdocs "github.com/askdocs-ai/askdocs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the wrappers.
var (
	attrProvider = attribute.Key("llm.provider")
	attrModel    = attribute.Key("llm.model")
	attrStatus   = attribute.Key("status")
)

// ObservedProvider wraps an askdocs.Provider with OTEL instrumentation.
type ObservedProvider struct {
	inner askdocs.Provider
	inst  *Instruments
	model string
}

// WrapProvider returns an instrumented provider that emits traces,
// metrics, and logs.
func WrapProvider(inner askdocs.Provider, model string, inst *Instruments) *ObservedProvider {
	return &ObservedProvider{inner: inner, inst: inst, model: model}
}

func (o *ObservedProvider) Name() string { return o.inner.Name() }

func (o *ObservedProvider) Chat(ctx context.Context, req askdocs.ChatRequest) (askdocs.ChatResponse, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "llm.chat", trace.WithAttributes(
		attrModel.String(o.model),
		attrProvider.String(o.inner.Name()),
	))
	defer span.End()
	start := time.Now()

	resp, err := o.inner.Chat(ctx, req)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.Int("llm.tokens.input", resp.Usage.InputTokens),
		attribute.Int("llm.tokens.output", resp.Usage.OutputTokens),
	)

	common := metric.WithAttributes(
		attrModel.String(o.model),
		attrProvider.String(o.inner.Name()),
	)
	o.inst.TokenUsage.Add(ctx, int64(resp.Usage.InputTokens), metric.WithAttributes(
		attrModel.String(o.model),
		attribute.String("direction", "input"),
	))
	o.inst.TokenUsage.Add(ctx, int64(resp.Usage.OutputTokens), metric.WithAttributes(
		attrModel.String(o.model),
		attribute.String("direction", "output"),
	))
	o.inst.LLMRequests.Add(ctx, 1, metric.WithAttributes(
		attrModel.String(o.model),
		attrProvider.String(o.inner.Name()),
		attrStatus.String(status),
	))
	o.inst.LLMDuration.Record(ctx, durationMs, common)

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("llm call completed"))
	rec.AddAttributes(
		otellog.String("llm.model", o.model),
		otellog.String("llm.provider", o.inner.Name()),
		otellog.Int("llm.tokens.input", resp.Usage.InputTokens),
		otellog.Int("llm.tokens.output", resp.Usage.OutputTokens),
		otellog.Float64("llm.duration_ms", durationMs),
		otellog.String("status", status),
	)
	o.inst.Logger.Emit(ctx, rec)

	return resp, err
}

// ObservedEmbedding wraps an askdocs.EmbeddingProvider with OTEL
// instrumentation.
type ObservedEmbedding struct {
	inner askdocs.EmbeddingProvider
	inst  *Instruments
	model string
}

// WrapEmbedding returns an instrumented embedding provider.
func WrapEmbedding(inner askdocs.EmbeddingProvider, model string, inst *Instruments) *ObservedEmbedding {
	return &ObservedEmbedding{inner: inner, inst: inst, model: model}
}

func (o *ObservedEmbedding) Name() string    { return o.inner.Name() }
func (o *ObservedEmbedding) Dimensions() int { return o.inner.Dimensions() }

func (o *ObservedEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "embedding.embed", trace.WithAttributes(
		attrModel.String(o.model),
		attrProvider.String(o.inner.Name()),
		attribute.Int("embedding.batch_size", len(texts)),
	))
	defer span.End()
	start := time.Now()

	vecs, err := o.inner.Embed(ctx, texts)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.inst.EmbedRequests.Add(ctx, 1, metric.WithAttributes(
		attrModel.String(o.model),
		attrProvider.String(o.inner.Name()),
		attrStatus.String(status),
	))
	o.inst.EmbedDuration.Record(ctx, durationMs, metric.WithAttributes(
		attrModel.String(o.model),
		attrProvider.String(o.inner.Name()),
	))

	return vecs, err
}

// Compile-time interface assertions.
var (
	_ askdocs.Provider          = (*ObservedProvider)(nil)
	_ askdocs.EmbeddingProvider = (*ObservedEmbedding)(nil)
)
