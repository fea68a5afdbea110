package inference

import (
	"context"

	"github.com/openai/openai-go/v3"
)

// Inferencer runs one chat-completion style inference. The grader and the
// tutor both go through this; params carry per-call overrides such as a
// structured-output response format.
type Inferencer interface {
	Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)
}
