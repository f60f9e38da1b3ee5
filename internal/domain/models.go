package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one role/content pair of a conversation. Turns are
// never mutated once created; order is significant.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RelayRequest is a conversation snapshot submitted to the chat relay.
// Turns carry only user and assistant roles; system text travels in
// SystemPrompt.
type RelayRequest struct {
	Turns        []ConversationTurn `json:"messages"`
	SystemPrompt string             `json:"systemPrompt,omitempty"`
	Model        string             `json:"model"`
}

// UpstreamMessages returns the conversation as sent upstream: an optional
// system turn followed by the caller's turns, each reduced to role and content.
func (r *RelayRequest) UpstreamMessages() []ConversationTurn {
	messages := make([]ConversationTurn, 0, len(r.Turns)+1)
	if r.SystemPrompt != "" {
		messages = append(messages, ConversationTurn{Role: RoleSystem, Content: r.SystemPrompt})
	}
	for _, turn := range r.Turns {
		messages = append(messages, ConversationTurn{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

// StreamChunk is a single assistant-text fragment relayed from upstream.
type StreamChunk struct {
	Delta string `json:"delta"`
	Done  bool   `json:"done"`
	Error error  `json:"error,omitempty"`
}

// Message is a committed chat message as shown to the user.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
