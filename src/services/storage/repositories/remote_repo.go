// Package repositories implements storage.ConversationRepository on top of
// the backend HTTP API.
package repositories

import (
	"context"

	"llmchat/src/models"
	"llmchat/src/services/api"
)

// RemoteRepository serves conversations from the backend.
type RemoteRepository struct {
	client *api.Client
	limit  int
}

// NewRemoteRepository returns a repository that lists at most limit
// conversations per refresh. A non-positive limit uses the backend default.
func NewRemoteRepository(client *api.Client, limit int) *RemoteRepository {
	return &RemoteRepository{client: client, limit: limit}
}

func (r *RemoteRepository) List(ctx context.Context) ([]models.Conversation, error) {
	page, err := r.client.ListConversations(ctx, r.limit, 0)
	if err != nil {
		return nil, err
	}
	return page.Conversations, nil
}

func (r *RemoteRepository) Get(ctx context.Context, id string) (*models.Conversation, error) {
	return r.client.GetConversation(ctx, id)
}

func (r *RemoteRepository) Create(ctx context.Context, title string) (*models.Conversation, error) {
	return r.client.CreateConversation(ctx, title)
}

func (r *RemoteRepository) Delete(ctx context.Context, id string) error {
	return r.client.DeleteConversation(ctx, id)
}
