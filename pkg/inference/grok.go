package inference

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GrokInferencer is the OpenAI-compatible client pointed at the x.ai API.
type GrokInferencer struct {
	inner *OpenAIInferencer
}

// NewGrokInferencer creates a new inferencer instance against x.ai.
func NewGrokInferencer(apiKey string, model string) *GrokInferencer {
	if model == "" {
		model = "grok-4-fast-reasoning"
	}
	client := openai.NewClient(
		option.WithBaseURL("https://api.x.ai/v1"),
		option.WithAPIKey(apiKey),
	)
	return &GrokInferencer{
		inner: &OpenAIInferencer{client: &client, apiKey: apiKey, model: model},
	}
}

func (o *GrokInferencer) SetModel(model string) { o.inner.SetModel(model) }

// Infer sends text to the chat completion endpoint and returns the output.
func (o *GrokInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	return o.inner.Infer(ctx, params, system, user)
}
