package recommendations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"readiness/internal/platform/llm"
	"readiness/internal/platform/metrics"
)

const (
	temperature = 0.2
	maxTokens   = 3500
)

type Generator struct {
	client  llm.Client
	metrics *metrics.Collector
}

// NewGenerator accepts a nil client; every call then returns the fallback.
func NewGenerator(client llm.Client, m *metrics.Collector) *Generator {
	return &Generator{client: client, metrics: m}
}

func (g *Generator) Enabled() bool {
	return g != nil && g.client != nil
}

// Generate makes a single model call. Any failure yields the static fallback.
func (g *Generator) Generate(ctx context.Context, in Input) (Recommendations, Source) {
	recs, err := g.generate(ctx, in)
	if err != nil {
		g.metrics.Inc(metrics.LLMFallback)
		if errors.Is(err, ErrNoClient) {
			slog.Info("llm not configured, using fallback recommendations", "firm", in.FirmName)
		} else {
			slog.Warn("llm recommendations unavailable, using fallback", "firm", in.FirmName, "err", err)
		}
		return Fallback(in), SourceFallback
	}
	g.metrics.Inc(metrics.LLMSuccess)
	return recs, SourceLLM
}

func (g *Generator) generate(ctx context.Context, in Input) (Recommendations, error) {
	if !g.Enabled() {
		return Recommendations{}, ErrNoClient
	}

	system, user := BuildPrompt(in)
	raw, err := g.client.Complete(ctx, llm.Request{
		System:      system,
		User:        user,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		JSON:        true,
	})
	if err != nil {
		return Recommendations{}, fmt.Errorf("%s request: %w", g.client.Name(), err)
	}

	recs, err := Decode(raw, in)
	if err != nil {
		return Recommendations{}, fmt.Errorf("%s response (%d bytes): %w", g.client.Name(), len(raw), err)
	}
	return recs, nil
}
