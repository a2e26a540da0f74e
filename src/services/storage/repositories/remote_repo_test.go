package repositories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"llmchat/src/services/api"
	"llmchat/src/services/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.ConversationRepository = (*RemoteRepository)(nil)

func TestRemoteRepositoryList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"conversations":[{"id":"c1","title":"First","messages":[],"created_at":"2024-05-01T09:00:00","updated_at":"2024-05-01T09:00:00"}],"total":1}`))
	}))
	defer srv.Close()

	repo := NewRemoteRepository(api.NewClient(srv.URL), 25)
	convs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "c1", convs[0].ID)
}

func TestRemoteRepositoryListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	convs, err := NewRemoteRepository(api.NewClient(srv.URL), 0).List(context.Background())
	assert.Error(t, err)
	assert.Nil(t, convs)
}
