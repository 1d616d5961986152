package models

import "github.com/meysamhadeli/codebro/providers/models"

// OllamaChatCompletionRequest is the body of POST /api/chat.
type OllamaChatCompletionRequest struct {
	Model    string           `json:"model"`
	Messages []models.Message `json:"messages"`
	Stream   bool             `json:"stream"`
	Options  *OllamaOptions   `json:"options,omitempty"`
}

type OllamaOptions struct {
	Temperature *float32 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

// OllamaChatCompletionResponse is the non-streaming reply of POST /api/chat.
type OllamaChatCompletionResponse struct {
	Model           string          `json:"model"`
	Message         *models.Message `json:"message"`
	Done            bool            `json:"done"`
	DoneReason      string          `json:"done_reason"`
	PromptEvalCount int             `json:"prompt_eval_count"`
	EvalCount       int             `json:"eval_count"`
}

// OllamaError is the error body returned by Ollama.
type OllamaError struct {
	Error string `json:"error"`
}
