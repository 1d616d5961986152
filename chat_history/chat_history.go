package chat_history

import (
	"sync"

	"github.com/meysamhadeli/codebro/chat_history/contracts"
	"github.com/meysamhadeli/codebro/providers/models"
)

// ChatHistory is the ordered conversation of one session.
type ChatHistory struct {
	mutex   sync.RWMutex
	history []models.Message
}

func NewChatHistory() contracts.IChatHistory {
	return &ChatHistory{}
}

func (ch *ChatHistory) AddToHistory(role string, content string) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()
	ch.history = append(ch.history, models.Message{Role: role, Content: content})
}

// GetHistory returns a copy, so callers may append to it freely.
func (ch *ChatHistory) GetHistory() []models.Message {
	ch.mutex.RLock()
	defer ch.mutex.RUnlock()
	return append([]models.Message(nil), ch.history...)
}

func (ch *ChatHistory) ClearHistory() {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()
	ch.history = nil
}
