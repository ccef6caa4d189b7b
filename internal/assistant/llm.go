package assistant

import "context"

// TokenUsage reports prompt/completion token counts for one execution.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}
