// Package mcp exposes the practice tools to Model Context Protocol clients,
// so an external assistant can analyse pronunciation, look up phonemes and
// explain grammar topics.
//
// The server is built on the official MCP Go SDK and served over the
// streamable HTTP transport by [Handler].
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/lingoxa/internal/observe"
	"github.com/MrWong99/lingoxa/internal/pronunciation"
	"github.com/MrWong99/lingoxa/internal/topics"
	"github.com/MrWong99/lingoxa/pkg/phoneme"
)

// Analyzer produces pronunciation feedback and reference lookups.
// [pronunciation.Analyzer] implements it.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*pronunciation.Report, error)
	Phonemes(word string) (phoneme.Sequence, []string, bool)
}

// Config holds the collaborators of the tool server.
type Config struct {
	// Name and Version identify the server to clients. Defaults:
	// "lingoxa" and "dev".
	Name    string
	Version string

	Analyzer Analyzer
	Topics   *topics.Catalog

	// Metrics defaults to [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// NewServer returns an MCP server with every practice tool registered.
func NewServer(cfg Config) (*mcpsdk.Server, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("mcp: analyzer is required")
	}
	if cfg.Name == "" {
		cfg.Name = "lingoxa"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Topics == nil {
		cfg.Topics = topics.Builtin()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}

	s := mcpsdk.NewServer(&mcpsdk.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)
	t := &toolset{analyzer: cfg.Analyzer, topics: cfg.Topics}

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        ToolAnalyzePronunciation,
		Description: "Compare how a learner's utterance was pronounced with the dictionary pronunciation and explain the first wrong sound of each word.",
	}, instrument(cfg.Metrics, ToolAnalyzePronunciation, t.analyzePronunciation))

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        ToolPhonemeExample,
		Description: "Give the IPA symbol and an example word for an ARPAbet phoneme such as DH or AE1.",
	}, instrument(cfg.Metrics, ToolPhonemeExample, t.phonemeExample))

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        ToolWordPhonemes,
		Description: "Look up the dictionary pronunciation of a single English word in ARPAbet and IPA.",
	}, instrument(cfg.Metrics, ToolWordPhonemes, t.wordPhonemes))

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        ToolGrammarTopic,
		Description: "Explain a grammar topic such as nouns, tenses or conjunctions. An empty topic lists the available ones.",
	}, instrument(cfg.Metrics, ToolGrammarTopic, t.grammarTopic))

	return s, nil
}

// Handler serves s over the streamable HTTP transport.
func Handler(s *mcpsdk.Server) http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server { return s }, nil)
}

// instrument records call counts and latency of a tool handler.
func instrument[In, Out any](m *observe.Metrics, name string, h mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, Out, error) {
		ctx, span := observe.StartSpan(ctx, "mcp.tool."+name)
		defer span.End()

		start := time.Now()
		res, out, err := h(ctx, req, in)
		m.ToolExecutionDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(observe.Attr("tool", name)))

		status := "ok"
		if err != nil {
			status = "error"
			observe.Logger(ctx).Debug("mcp tool failed", "tool", name, "err", err)
		}
		m.RecordToolCall(ctx, name, status)
		return res, out, err
	}
}
