package llm

import (
	"context"
)

// LLMClient is the black-box text-in/text-out boundary the extraction step
// runs behind.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
