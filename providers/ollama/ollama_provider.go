package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/meysamhadeli/codebro/providers/contracts"
	"github.com/meysamhadeli/codebro/providers/models"
	ollama_models "github.com/meysamhadeli/codebro/providers/ollama/models"
	contracts2 "github.com/meysamhadeli/codebro/token_management/contracts"
	"go.uber.org/zap"
)

// OllamaConfig configures the chat provider for a local Ollama server.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	MaxTokens       int
	TokenManagement contracts2.ITokenManagement
	Logger          *zap.Logger
	HTTPClient      *http.Client
}

type ollamaProvider struct {
	config OllamaConfig
}

const (
	defaultBaseURL = "http://localhost:11434/api"
	defaultModel   = "llama3.1"
)

// NewOllamaChatProvider initializes a new Ollama provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &ollamaProvider{config: cfg}
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) Model() string {
	return p.config.Model
}

// ChatCompletionRequest sends the history to /chat with streaming disabled.
func (p *ollamaProvider) ChatCompletionRequest(ctx context.Context, history []models.Message) (string, error) {
	reqBody := ollama_models.OllamaChatCompletionRequest{
		Model:    p.config.Model,
		Messages: history,
		Stream:   false,
	}
	if p.config.Temperature != nil || p.config.MaxTokens > 0 {
		reqBody.Options = &ollama_models.OllamaOptions{
			Temperature: p.config.Temperature,
			NumPredict:  p.config.MaxTokens,
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat", p.config.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	p.config.Logger.Debug("chat completion request",
		zap.String("provider", "ollama"),
		zap.String("model", p.config.Model),
		zap.Int("messages", len(history)))

	resp, err := p.config.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", fmt.Errorf("request canceled: %w", err)
		}
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiError ollama_models.OllamaError
		message := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiError) == nil && apiError.Error != "" {
			message = apiError.Error
		}
		return "", fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, message)
	}

	var response ollama_models.OllamaChatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("error unmarshalling response: %w", err)
	}

	if response.PromptEvalCount > 0 && p.config.TokenManagement != nil {
		p.config.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
	}

	if response.Message == nil {
		return "", models.ErrMissingContent
	}
	return response.Message.Content, nil
}
