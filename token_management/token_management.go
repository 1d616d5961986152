package token_management

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/meysamhadeli/codebro/constants/lipgloss"
	"github.com/meysamhadeli/codebro/embed_data"
	"github.com/meysamhadeli/codebro/token_management/contracts"
)

// TokenManager implementation
type tokenManager struct {
	mutex           sync.Mutex
	usedToken       int
	usedInputToken  int
	usedOutputToken int
}

type details struct {
	MaxTokens                  int     `json:"max_tokens"`
	MaxInputTokens             int     `json:"max_input_tokens"`
	MaxOutputTokens            int     `json:"max_output_tokens"`
	InputCostPerMillionTokens  float64 `json:"input_cost_per_million_tokens,omitempty"`
	OutputCostPerMillionTokens float64 `json:"output_cost_per_million_tokens,omitempty"`
	Mode                       string  `json:"mode"`
}

type Models struct {
	ModelDetails map[string]details `json:"models"`
}

var (
	modelsOnce   sync.Once
	loadedModels Models
	modelsErr    error
)

// NewTokenManager creates a new token manager
func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// UsedTokens accumulates the token count for the session.
func (tm *tokenManager) UsedTokens(inputToken int, outputToken int) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenManager) DisplayTokens(chatProviderName string, chatModel string) {
	total, input, output := tm.GetCurrentTokenUsage()
	cost := tm.CalculateCost(chatProviderName, chatModel, input, output)

	tokenInfo := fmt.Sprintf("Token Used: %d - Cost: %.6f $ - Chat Model: %s", total, cost, chatModel)

	fmt.Println(lipgloss.BoxStyle.Render(tokenInfo))
}

func (tm *tokenManager) GetCurrentTokenUsage() (total int, input int, output int) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	return tm.usedToken, tm.usedInputToken, tm.usedOutputToken
}

func (tm *tokenManager) ClearToken() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedOutputToken = 0
}

func (tm *tokenManager) CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64 {
	modelDetails, err := getModelDetails(providerName, modelName)
	if err != nil {
		return 0
	}

	inputCost := float64(inputToken) * modelDetails.InputCostPerMillionTokens / 1000000.0
	outputCost := float64(outputToken) * modelDetails.OutputCostPerMillionTokens / 1000000.0

	return inputCost + outputCost
}

// MaxInputTokens returns the model's context window when it is known.
func (tm *tokenManager) MaxInputTokens(providerName string, modelName string) (int, bool) {
	modelDetails, err := getModelDetails(providerName, modelName)
	if err != nil || modelDetails.MaxInputTokens == 0 {
		return 0, false
	}
	return modelDetails.MaxInputTokens, true
}

func getModelDetails(providerName string, modelName string) (details, error) {
	modelsOnce.Do(func() {
		modelsErr = json.Unmarshal(embed_data.ModelDetails, &loadedModels)
	})
	if modelsErr != nil {
		return details{}, modelsErr
	}

	modelName = strings.ToLower(modelName)

	model, exists := loadedModels.ModelDetails[modelName]
	if !exists {
		return details{}, fmt.Errorf("model details price with name '%s' not found for provider '%s'", modelName, strings.ToLower(providerName))
	}

	return model, nil
}
