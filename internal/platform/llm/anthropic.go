package llm

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

type AnthropicClient struct {
	client sdk.Client
	model  string
}

func NewAnthropic(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

// Complete prefills the assistant turn with "{" in JSON mode so the model
// continues a JSON object; the brace is restored on the returned text.
func (c *AnthropicClient) Complete(ctx context.Context, r Request) (string, error) {
	messages := []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(r.User))}
	if r.JSON {
		messages = append(messages, sdk.NewAssistantMessage(sdk.NewTextBlock("{")))
	}
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   int64(r.MaxTokens),
		Messages:    messages,
		Temperature: sdk.Float(r.Temperature),
	}
	if r.System != "" {
		params.System = []sdk.TextBlockParam{{Text: r.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", eris.New("anthropic: empty response")
	}
	if r.JSON && !strings.HasPrefix(strings.TrimSpace(text), "{") {
		text = "{" + text
	}
	return text, nil
}
