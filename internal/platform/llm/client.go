package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"readiness/internal/platform/config"
)

type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	JSON        bool
}

type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// New builds the client for the forced or first configured provider. It
// returns nil, nil when no provider has credentials.
func New(ctx context.Context, cfg config.Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if provider == "" {
		switch {
		case cfg.OpenAIAPIKey != "":
			provider = "openai"
		case cfg.AnthropicAPIKey != "":
			provider = "anthropic"
		case cfg.GeminiAPIKey != "":
			provider = "gemini"
		default:
			return nil, nil
		}
	}

	httpClient := &http.Client{Timeout: cfg.LLMTimeout}
	switch provider {
	case "none":
		return nil, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, httpClient), nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, nil
		}
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, nil
		}
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, eris.New("llm: unknown provider " + provider)
	}
}
