// Package storage holds the client-side conversation state and the port
// through which it reaches the backend.
package storage

import (
	"context"

	"llmchat/src/models"
)

// ConversationRepository is the backend port consumed by the Store.
type ConversationRepository interface {
	List(ctx context.Context) ([]models.Conversation, error)
	Get(ctx context.Context, id string) (*models.Conversation, error)
	Create(ctx context.Context, title string) (*models.Conversation, error)
	Delete(ctx context.Context, id string) error
}
