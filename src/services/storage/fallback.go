package storage

import (
	"fmt"

	"llmchat/src/models"
)

// DefaultTitle names a conversation created without a title.
const DefaultTitle = "New Chat"

const placeholderCount = 3

// Placeholders returns the fixed fallback conversation list shown while the
// backend list is unavailable. Each call returns fresh values.
func Placeholders() []models.Conversation {
	now := models.Now()
	out := make([]models.Conversation, 0, placeholderCount)
	for i := 1; i <= placeholderCount; i++ {
		out = append(out, models.Conversation{
			ID:        fmt.Sprintf("%splaceholder-%d", models.LocalIDPrefix, i),
			Title:     fmt.Sprintf("Chat %d", i),
			Messages:  []models.Message{},
			CreatedAt: now,
			UpdatedAt: now,
			Origin:    models.OriginPlaceholder,
		})
	}
	return out
}

// Synthesize builds a locally addressable conversation for when the backend
// refuses to create one.
func Synthesize(title string) models.Conversation {
	if title == "" {
		title = DefaultTitle
	}
	now := models.Now()
	return models.Conversation{
		ID:        models.NewLocalID(),
		Title:     title,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
		Origin:    models.OriginLocal,
	}
}
