package providers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meysamhadeli/codebro/providers/contracts"
	"github.com/meysamhadeli/codebro/providers/models"
	"github.com/meysamhadeli/codebro/providers/ollama"
	"github.com/meysamhadeli/codebro/providers/xai"
	contracts2 "github.com/meysamhadeli/codebro/token_management/contracts"
	"go.uber.org/zap"
)

// ErrMissingAPIKey is returned when a hosted provider is selected without credentials.
var ErrMissingAPIKey = errors.New("missing API key: set API_KEY, XAI_API_KEY or VITE_XAI_API_KEY")

// AIProviderConfig selects and configures the remote completion service.
type AIProviderConfig struct {
	Provider    string   `mapstructure:"provider"`
	BaseURL     string   `mapstructure:"base_url"`
	Model       string   `mapstructure:"model"`
	Temperature *float32 `mapstructure:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	ApiKey      string   `mapstructure:"api_key"`
}

// NewChatProvider creates the provider named in config.Provider.
func NewChatProvider(config *AIProviderConfig, tokenManagement contracts2.ITokenManagement, logger *zap.Logger) (contracts.IChatAIProvider, error) {
	switch strings.ToLower(config.Provider) {
	case "xai", "grok", "openai", "":
		if config.ApiKey == "" {
			return nil, ErrMissingAPIKey
		}
		baseURL := config.BaseURL
		if baseURL == "" && strings.EqualFold(config.Provider, "openai") {
			baseURL = "https://api.openai.com/v1"
		}
		return xai.NewXAIChatProvider(&xai.XAIConfig{
			Name:            strings.ToLower(config.Provider),
			BaseURL:         baseURL,
			Model:           config.Model,
			ApiKey:          config.ApiKey,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			TokenManagement: tokenManagement,
			Logger:          logger,
		}), nil
	case "ollama":
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			TokenManagement: tokenManagement,
			Logger:          logger,
		}), nil
	default:
		return nil, fmt.Errorf("provider '%s' not supported", config.Provider)
	}
}

// ContextSystemMessage is the leading system message of every request. The hint names what the
// request is for, such as "Initial Architecture Planning".
func ContextSystemMessage(model string, hint string) models.Message {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are %s, an expert AI developer.", model))
	if hint != "" {
		sb.WriteString(fmt.Sprintf(" Context: %s.", hint))
	}
	sb.WriteString(" Provide expert-level code solutions using markdown.")
	return models.Message{Role: models.RoleSystem, Content: sb.String()}
}

// WithContext returns history prefixed by the context system message.
func WithContext(provider contracts.IChatAIProvider, hint string, history []models.Message) []models.Message {
	request := make([]models.Message, 0, len(history)+1)
	request = append(request, ContextSystemMessage(provider.Model(), hint))
	return append(request, history...)
}
