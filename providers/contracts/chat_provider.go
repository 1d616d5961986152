package contracts

import (
	"context"

	"github.com/meysamhadeli/codebro/providers/models"
)

// IChatAIProvider sends a conversation and returns the assistant's reply.
type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, history []models.Message) (string, error)
	Name() string
	Model() string
}
