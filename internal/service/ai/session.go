package ai

import (
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// Session is an opaque server-side conversation handle tied to one system
// instruction at creation time. Switching personas allocates a fresh handle;
// history is never migrated between handles.
type Session struct {
	ID string

	mu          sync.Mutex
	instruction string
	history     []*schema.Message
	limit       int
}

// NewSession allocates a handle with an empty history. No network call is
// made until the first message is streamed.
func NewSession(instruction string, historyLimit int) *Session {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Session{
		ID:          uuid.NewString(),
		instruction: instruction,
		limit:       historyLimit,
	}
}

// Record commits one completed turn into the handle's memory.
func (s *Session) Record(userParts []schema.ChatMessagePart, reply string) {
	userMsg := schema.UserMessage("")
	userMsg.MultiContent = userParts

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, userMsg, schema.AssistantMessage(reply, nil))
	if excess := len(s.history) - s.limit; excess > 0 {
		s.history = append([]*schema.Message(nil), s.history[excess:]...)
	}
}

// prompt assembles the full message list for one send: system instruction,
// retained history, then the new user parts.
func (s *Session) prompt(parts []schema.ChatMessagePart) []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]*schema.Message, 0, len(s.history)+2)
	messages = append(messages, schema.SystemMessage(s.instruction))
	messages = append(messages, s.history...)

	userMsg := schema.UserMessage("")
	userMsg.MultiContent = parts
	messages = append(messages, userMsg)
	return messages
}

// HistoryLen reports how many messages the handle currently retains.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
