package contracts

import "github.com/meysamhadeli/codebro/providers/models"

type IChatHistory interface {
	AddToHistory(role string, content string)
	GetHistory() []models.Message
	ClearHistory()
}
