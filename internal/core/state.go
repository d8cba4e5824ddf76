package core

import (
	"sync"

	"github.com/beagleboard/beaglemind/internal/models"
)

// ChatState holds the display transcript. The LLM-side conversation
// history lives in the qa session; this is only what the UI renders.
type ChatState struct {
	mu           sync.RWMutex
	messages     []models.Message
	isProcessing bool
	lastError    error
}

func NewChatState() *ChatState {
	return &ChatState{}
}

func (cs *ChatState) GetMessages() []models.Message {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	result := make([]models.Message, len(cs.messages))
	copy(result, cs.messages)
	return result
}

func (cs *ChatState) IsProcessing() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.isProcessing
}

func (cs *ChatState) GetLastError() error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.lastError
}

func (cs *ChatState) AddProgramMessage(content string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.messages = append(cs.messages, models.Message{Content: content, Type: models.Program})
}

func (cs *ChatState) AddMessage(msg models.Message) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.messages = append(cs.messages, msg)
}

// StartProcessingWithQuestion atomically sets processing and appends
// the user turn so the UI never sees them out of order.
func (cs *ChatState) StartProcessingWithQuestion(question string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.isProcessing = true
	cs.lastError = nil
	cs.messages = append(cs.messages, models.Message{Content: question, Type: models.User})
}

// FinishProcessing stops processing and appends any closing messages
// in one step.
func (cs *ChatState) FinishProcessing(closing []models.Message, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.isProcessing = false
	cs.lastError = err
	cs.messages = append(cs.messages, closing...)
}

// Clear drops the transcript, keeping processing state.
func (cs *ChatState) Clear() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.messages = nil
	cs.lastError = nil
}
