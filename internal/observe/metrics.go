// Package observe provides application-wide observability primitives for
// Lingoxa: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Lingoxa metrics.
const meterName = "github.com/MrWong99/lingoxa"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms per provider kind ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks LLM inference latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// G2PDuration tracks grapheme-to-phoneme latency per word.
	G2PDuration metric.Float64Histogram

	// GrammarDuration tracks grammar check latency.
	GrammarDuration metric.Float64Histogram

	// AnalysisDuration tracks the full per-utterance analysis.
	AnalysisDuration metric.Float64Histogram

	// ToolExecutionDuration tracks MCP tool execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// Utterances counts processed learner utterances. Use with attribute:
	//   attribute.String("intent", ...)
	Utterances metric.Int64Counter

	// Divergences counts pronunciation divergences. Use with attribute:
	//   attribute.String("kind", ...)
	Divergences metric.Int64Counter

	// GrammarIssues counts reported grammar issues.
	GrammarIssues metric.Int64Counter

	// OOVWords counts words skipped because the reference dictionary does
	// not know them.
	OOVWords metric.Int64Counter

	// Summaries counts compiled session summaries. Use with attribute:
	//   attribute.String("status", ...)
	Summaries metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// CachedClips tracks the number of synthesised clips held for download.
	CachedClips metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) spanning a
// dictionary lookup up to a slow cloud transcription.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&met.STTDuration, "lingoxa.stt.duration", "Latency of speech-to-text transcription."},
		{&met.LLMDuration, "lingoxa.llm.duration", "Latency of LLM inference."},
		{&met.TTSDuration, "lingoxa.tts.duration", "Latency of text-to-speech synthesis."},
		{&met.G2PDuration, "lingoxa.g2p.duration", "Latency of grapheme-to-phoneme conversion per word."},
		{&met.GrammarDuration, "lingoxa.grammar.duration", "Latency of grammar checking."},
		{&met.AnalysisDuration, "lingoxa.analysis.duration", "Latency of the full per-utterance analysis."},
		{&met.ToolExecutionDuration, "lingoxa.tool_execution.duration", "Latency of MCP tool execution."},
	}
	for _, h := range histograms {
		if *h.dst, err = m.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		); err != nil {
			return nil, err
		}
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&met.ProviderRequests, "lingoxa.provider.requests", "Total provider API requests by provider, kind, and status."},
		{&met.ToolCalls, "lingoxa.tool.calls", "Total tool invocations by tool name and status."},
		{&met.Utterances, "lingoxa.utterances", "Total processed learner utterances by intent."},
		{&met.Divergences, "lingoxa.pronunciation.divergences", "Total pronunciation divergences by kind."},
		{&met.GrammarIssues, "lingoxa.grammar.issues", "Total reported grammar issues."},
		{&met.OOVWords, "lingoxa.pronunciation.oov_words", "Words skipped because no reference pronunciation exists."},
		{&met.Summaries, "lingoxa.summaries", "Total compiled session summaries by status."},
		{&met.ProviderErrors, "lingoxa.provider.errors", "Total provider errors by provider and kind."},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	if met.CachedClips, err = m.Int64UpDownCounter("lingoxa.cached_clips",
		metric.WithDescription("Number of synthesised clips held for download."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("lingoxa.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest records a provider request counter increment with the
// standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordToolCall records a tool call counter increment.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordUtterance records a processed utterance with its intent label.
func (m *Metrics) RecordUtterance(ctx context.Context, intent string) {
	m.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

// RecordDivergence records one pronunciation divergence of the given kind.
func (m *Metrics) RecordDivergence(ctx context.Context, kind string) {
	m.Divergences.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordSummary records a summary compilation outcome ("ok" or "error").
func (m *Metrics) RecordSummary(ctx context.Context, status string) {
	m.Summaries.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
