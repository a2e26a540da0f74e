// message.go - Defines the Message type exchanged with the chat backend.
// Messages are immutable once created and are identified by ID only.

package models

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single chat message.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp Timestamp      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewUserMessage builds a provisional user message with a client-issued id.
func NewUserMessage(content string) Message {
	return Message{
		ID:        NewLocalID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: Now(),
	}
}

// CloneMessages returns a copy of msgs that never aliases the input.
// A nil or empty input yields an empty, non-nil slice.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
