package qa

import (
	"github.com/sashabaranov/go-openai"
)

const defaultHistoryLimit = 20

// Session holds one conversation's history. It is created per
// conversation and passed to the engine explicitly; nothing here is
// process-global.
type Session struct {
	history      []openai.ChatCompletionMessage
	historyLimit int
	active       bool
}

func NewSession() *Session {
	return &Session{historyLimit: defaultHistoryLimit}
}

// StartConversation marks the session active and clears any previous
// history.
func (s *Session) StartConversation() {
	s.active = true
	s.history = nil
}

// Reset clears history but keeps the session active.
func (s *Session) Reset() {
	s.history = nil
}

func (s *Session) Active() bool { return s.active }

// RecordUser appends a user turn, trimming oldest turns past the cap.
func (s *Session) RecordUser(content string) {
	s.append(openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: content})
}

// RecordAssistant appends an assistant turn, trimming oldest turns past
// the cap.
func (s *Session) RecordAssistant(content string) {
	s.append(openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content})
}

func (s *Session) append(msg openai.ChatCompletionMessage) {
	s.history = append(s.history, msg)
	if len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}
}

// HistoryMessages returns a copy of the recorded turns.
func (s *Session) HistoryMessages() []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(s.history))
	copy(out, s.history)
	return out
}

// HistoryText renders history as a plain transcript block for backends
// that take a single prompt string.
func (s *Session) HistoryText() string {
	if len(s.history) == 0 {
		return ""
	}
	text := ""
	for _, msg := range s.history {
		switch msg.Role {
		case openai.ChatMessageRoleUser:
			text += "User: " + msg.Content + "\n"
		case openai.ChatMessageRoleAssistant:
			text += "Assistant: " + msg.Content + "\n"
		}
	}
	return text
}
