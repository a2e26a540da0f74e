package models

// Origin records where a conversation container came from.
type Origin int

const (
	// OriginRemote conversations were issued by the backend.
	OriginRemote Origin = iota
	// OriginPlaceholder conversations are the fixed fallback list.
	OriginPlaceholder
	// OriginLocal conversations were synthesized after a failed create.
	OriginLocal
)

func (o Origin) String() string {
	switch o {
	case OriginPlaceholder:
		return "placeholder"
	case OriginLocal:
		return "local"
	default:
		return "remote"
	}
}

// Conversation represents a chat session and its ordered message history.
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Messages  []Message      `json:"messages"`
	CreatedAt Timestamp      `json:"created_at"`
	UpdatedAt Timestamp      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Origin    Origin         `json:"-"`
}

// DisplayTitle returns the title, or a generic label when the backend has not assigned one yet.
func (c Conversation) DisplayTitle() string {
	if c.Title == "" {
		return "Untitled Chat"
	}
	return c.Title
}

// HasRemoteID reports whether the backend knows this conversation.
func (c Conversation) HasRemoteID() bool {
	return c.ID != "" && !IsLocalID(c.ID)
}

// Clone returns a copy whose message slice does not alias c's.
func (c Conversation) Clone() Conversation {
	c.Messages = CloneMessages(c.Messages)
	return c
}

// CloneConversations deep-copies a conversation list.
func CloneConversations(convs []Conversation) []Conversation {
	out := make([]Conversation, len(convs))
	for i, c := range convs {
		out[i] = c.Clone()
	}
	return out
}

// ConversationPage is one page of the backend conversation list.
type ConversationPage struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}

// SendResult is the backend's authoritative reply to a sent message.
type SendResult struct {
	Message           Message `json:"message"`
	ConversationID    string  `json:"conversation_id"`
	AssistantResponse Message `json:"assistant_response"`
}
