package xai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/meysamhadeli/codebro/providers/contracts"
	"github.com/meysamhadeli/codebro/providers/models"
	tokenContracts "github.com/meysamhadeli/codebro/token_management/contracts"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.x.ai/v1"
	defaultModel   = "grok-3"
	providerName   = "xai"
)

// XAIConfig configures a chat provider for xAI or any OpenAI-compatible Chat Completions API.
type XAIConfig struct {
	Name            string
	BaseURL         string
	Model           string
	ApiKey          string
	Temperature     *float32
	MaxTokens       int
	TokenManagement tokenContracts.ITokenManagement
	Logger          *zap.Logger
}

type xaiProvider struct {
	client *openai.Client
	config XAIConfig
}

// NewXAIChatProvider initializes a provider. Requests are sent once, without automatic retries.
func NewXAIChatProvider(config *XAIConfig) contracts.IChatAIProvider {
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Name == "" {
		cfg.Name = providerName
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.ApiKey),
		option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/"),
		option.WithMaxRetries(0),
	)

	return &xaiProvider{client: &client, config: cfg}
}

func (p *xaiProvider) Name() string {
	return p.config.Name
}

func (p *xaiProvider) Model() string {
	return p.config.Model
}

// ChatCompletionRequest sends the whole history and returns the first choice's content.
func (p *xaiProvider) ChatCompletionRequest(ctx context.Context, history []models.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.config.Model),
		Messages:    convertMessages(history),
		Temperature: openai.Float(0),
	}
	if p.config.Temperature != nil {
		params.Temperature = openai.Float(float64(*p.config.Temperature))
	}
	if p.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.config.MaxTokens))
	}

	p.config.Logger.Debug("chat completion request",
		zap.String("provider", p.config.Name),
		zap.String("model", p.config.Model),
		zap.Int("messages", len(history)))

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if message == "" {
				message = http.StatusText(apiErr.StatusCode)
			}
			return "", fmt.Errorf("API request failed with status code '%d' - %s", apiErr.StatusCode, message)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", fmt.Errorf("request canceled: %w", err)
		}
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if p.config.TokenManagement != nil && completion.Usage.PromptTokens > 0 {
		p.config.TokenManagement.UsedTokens(int(completion.Usage.PromptTokens), int(completion.Usage.CompletionTokens))
	}

	if len(completion.Choices) == 0 {
		return "", models.ErrEmptyChoices
	}

	choice := completion.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", models.ErrContentFilter
	}
	if raw := choice.Message.RawJSON(); raw != "" {
		if content := gjson.Get(raw, "content"); !content.Exists() || content.Type == gjson.Null {
			return "", models.ErrMissingContent
		}
	}

	return choice.Message.Content, nil
}

func convertMessages(history []models.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, message := range history {
		switch message.Role {
		case models.RoleSystem:
			messages = append(messages, openai.SystemMessage(message.Content))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(message.Content))
		default:
			messages = append(messages, openai.UserMessage(message.Content))
		}
	}
	return messages
}
