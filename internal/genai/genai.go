package genai

import (
	"context"
	"fmt"
)

// Client relays composed prompts to an external text-generation service.
type Client interface {
	GenerateContent(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// UpstreamError reports a non-success response from the generation API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("generation api error: %d", e.StatusCode)
}
