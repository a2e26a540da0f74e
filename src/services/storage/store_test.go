package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"llmchat/src/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = &models.APIError{Op: "test", StatusCode: 500, Detail: "boom"}

type fakeRepo struct {
	list   func(ctx context.Context) ([]models.Conversation, error)
	get    func(ctx context.Context, id string) (*models.Conversation, error)
	create func(ctx context.Context, title string) (*models.Conversation, error)
	del    func(ctx context.Context, id string) error

	getCalls atomic.Int32
	delCalls atomic.Int32
}

func (f *fakeRepo) List(ctx context.Context) ([]models.Conversation, error) {
	if f.list == nil {
		return nil, errBackend
	}
	return f.list(ctx)
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*models.Conversation, error) {
	f.getCalls.Add(1)
	if f.get == nil {
		return nil, errBackend
	}
	return f.get(ctx, id)
}

func (f *fakeRepo) Create(ctx context.Context, title string) (*models.Conversation, error) {
	if f.create == nil {
		return nil, errBackend
	}
	return f.create(ctx, title)
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.delCalls.Add(1)
	if f.del == nil {
		return errBackend
	}
	return f.del(ctx, id)
}

func msg(id string, role models.Role, content string) models.Message {
	return models.Message{ID: id, Role: role, Content: content, Timestamp: "2024-05-01T10:00:00"}
}

func conv(id, title string, msgs ...models.Message) models.Conversation {
	if msgs == nil {
		msgs = []models.Message{}
	}
	return models.Conversation{ID: id, Title: title, Messages: msgs, CreatedAt: "2024-05-01T09:00:00", UpdatedAt: "2024-05-01T09:00:00"}
}

func ids(convs []models.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}

func TestNewStoreSeedsPlaceholders(t *testing.T) {
	s := NewStore(&fakeRepo{})

	assert.Equal(t, []string{"local-placeholder-1", "local-placeholder-2", "local-placeholder-3"}, ids(s.Conversations()))
	assert.Equal(t, "", s.CurrentID())
	assert.Equal(t, "Assistant", s.Title())
	assert.Empty(t, s.Messages())
	assert.False(t, s.Sending())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestPlaceholdersAreFresh(t *testing.T) {
	a := Placeholders()
	a[0].Title = "mutated"
	b := Placeholders()
	assert.Equal(t, "Chat 1", b[0].Title)
	assert.Equal(t, "Chat 3", b[2].Title)
	for _, c := range b {
		assert.Equal(t, models.OriginPlaceholder, c.Origin)
		assert.Empty(t, c.Messages)
	}
}

func TestLoadConversationsFailureIsIdempotent(t *testing.T) {
	s := NewStore(&fakeRepo{})
	before := s.Conversations()

	for i := 0; i < 3; i++ {
		_, err := s.LoadConversations(context.Background())
		require.Error(t, err)
	}

	if diff := cmp.Diff(before, s.Conversations()); diff != "" {
		t.Fatalf("placeholder list changed (-want +got):\n%s", diff)
	}
}

func TestLoadConversationsReplacesPlaceholders(t *testing.T) {
	repo := &fakeRepo{list: func(context.Context) ([]models.Conversation, error) {
		return []models.Conversation{conv("c2", "Second"), conv("c1", "First")}, nil
	}}
	s := NewStore(repo)

	convs, err := s.LoadConversations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1"}, ids(convs))
	assert.Equal(t, []string{"c2", "c1"}, ids(s.Conversations()))
	assert.Equal(t, models.OriginRemote, s.Conversations()[0].Origin)
}

func TestLoadConversationsEmptyKeepsPlaceholders(t *testing.T) {
	repo := &fakeRepo{list: func(context.Context) ([]models.Conversation, error) {
		return []models.Conversation{}, nil
	}}
	s := NewStore(repo)

	_, err := s.LoadConversations(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.Conversations(), 3)
}

func TestLoadConversationsKeepsLocalConversations(t *testing.T) {
	repo := &fakeRepo{list: func(context.Context) ([]models.Conversation, error) {
		return []models.Conversation{conv("c1", "First")}, nil
	}}
	s := NewStore(repo)
	local := s.CreateConversation(context.Background(), "")

	_, err := s.LoadConversations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{local.ID, "c1"}, ids(s.Conversations()))
}

func TestLoadConversationsLatestStartedWins(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	repo := &fakeRepo{list: func(context.Context) ([]models.Conversation, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []models.Conversation{conv("old", "Old")}, nil
		}
		return []models.Conversation{conv("new", "New")}, nil
	}}
	s := NewStore(repo)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.LoadConversations(context.Background())
	}()
	<-started

	_, err := s.LoadConversations(context.Background())
	require.NoError(t, err)
	close(release)
	wg.Wait()

	assert.Equal(t, []string{"new"}, ids(s.Conversations()))
}

func TestLoadConversation(t *testing.T) {
	repo := &fakeRepo{get: func(_ context.Context, id string) (*models.Conversation, error) {
		c := conv(id, "Loaded", msg("m1", models.RoleUser, "hi"), msg("m2", models.RoleAssistant, "hello"))
		return &c, nil
	}}
	s := NewStore(repo)

	got, err := s.SelectConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", s.CurrentID())
	assert.Len(t, got.Messages, 2)
	if diff := cmp.Diff([]models.Message{
		msg("m1", models.RoleUser, "hi"),
		msg("m2", models.RoleAssistant, "hello"),
	}, s.Messages()); diff != "" {
		t.Fatalf("messages (-want +got):\n%s", diff)
	}
}

func TestLoadConversationFailureEmptiesThread(t *testing.T) {
	fail := false
	repo := &fakeRepo{get: func(_ context.Context, id string) (*models.Conversation, error) {
		if fail {
			return nil, errBackend
		}
		c := conv(id, "Loaded", msg("m1", models.RoleUser, "hi"))
		return &c, nil
	}}
	s := NewStore(repo)

	_, err := s.SelectConversation(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, s.Messages(), 1)

	fail = true
	_, err = s.LoadConversation(context.Background(), "c1")
	require.Error(t, err)
	assert.NotNil(t, s.Messages())
	assert.Empty(t, s.Messages())
}

func TestLoadConversationLocalIDSkipsBackend(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo)

	got, err := s.SelectConversation(context.Background(), "local-placeholder-2")
	require.NoError(t, err)
	assert.Equal(t, "Chat 2", got.Title)
	assert.Equal(t, "Chat 2", s.Title())
	assert.Zero(t, repo.getCalls.Load())

	_, err = s.LoadConversation(context.Background(), "local-missing")
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCreateConversation(t *testing.T) {
	repo := &fakeRepo{create: func(_ context.Context, title string) (*models.Conversation, error) {
		c := conv("c9", title)
		return &c, nil
	}}
	s := NewStore(repo)

	got := s.CreateConversation(context.Background(), "Ideas")
	assert.Equal(t, "c9", got.ID)
	assert.Equal(t, models.OriginRemote, got.Origin)
	assert.Equal(t, "c9", s.CurrentID())
	assert.Equal(t, "c9", s.Conversations()[0].ID)
	assert.Equal(t, "Ideas", s.Title())
	assert.Empty(t, s.Messages())
}

func TestCreateConversationFallback(t *testing.T) {
	s := NewStore(&fakeRepo{})

	got := s.CreateConversation(context.Background(), "")
	assert.True(t, strings.HasPrefix(got.ID, "local-"))
	assert.Equal(t, "New Chat", got.Title)
	assert.Equal(t, models.OriginLocal, got.Origin)
	assert.NotEmpty(t, got.CreatedAt)

	convs := s.Conversations()
	require.Len(t, convs, 4)
	assert.Equal(t, got.ID, convs[0].ID)
	assert.Equal(t, got.ID, s.CurrentID())
	assert.Empty(t, s.Messages())

	second := s.CreateConversation(context.Background(), "Mine")
	assert.NotEqual(t, got.ID, second.ID)
	assert.Equal(t, "Mine", second.Title)
}

func TestDeleteConversation(t *testing.T) {
	repo := &fakeRepo{
		list: func(context.Context) ([]models.Conversation, error) {
			return []models.Conversation{conv("c1", "First"), conv("c2", "Second")}, nil
		},
		get: func(_ context.Context, id string) (*models.Conversation, error) {
			c := conv(id, "")
			return &c, nil
		},
		del: func(context.Context, string) error { return nil },
	}
	s := NewStore(repo)
	_, err := s.LoadConversations(context.Background())
	require.NoError(t, err)
	_, err = s.SelectConversation(context.Background(), "c1")
	require.NoError(t, err)

	require.NoError(t, s.DeleteConversation(context.Background(), "c1"))
	assert.Equal(t, []string{"c2"}, ids(s.Conversations()))
	assert.Equal(t, "", s.CurrentID())
}

func TestDeleteConversationFailureKeepsState(t *testing.T) {
	repo := &fakeRepo{list: func(context.Context) ([]models.Conversation, error) {
		return []models.Conversation{conv("c1", "First")}, nil
	}}
	s := NewStore(repo)
	_, err := s.LoadConversations(context.Background())
	require.NoError(t, err)
	s.SetCurrent("c1")

	err = s.DeleteConversation(context.Background(), "c1")
	assert.True(t, errors.Is(err, errBackend))
	assert.Equal(t, []string{"c1"}, ids(s.Conversations()))
	assert.Equal(t, "c1", s.CurrentID())
}

func TestDeleteLocalConversationSkipsBackend(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo)
	require.NoError(t, s.DeleteConversation(context.Background(), "local-placeholder-1"))
	assert.Len(t, s.Conversations(), 2)
	assert.Zero(t, repo.delCalls.Load())
}

func TestExchangeInFlightGuard(t *testing.T) {
	s := NewStore(&fakeRepo{})
	p := models.NewUserMessage("one")

	target, err := s.BeginExchange(p)
	require.NoError(t, err)
	assert.Equal(t, "", target)
	assert.True(t, s.Sending())

	_, err = s.BeginExchange(models.NewUserMessage("two"))
	assert.ErrorIs(t, err, models.ErrSendInFlight)
	assert.Len(t, s.Messages(), 1)

	s.RollbackExchange(target, p.ID)
	assert.False(t, s.Sending())
	assert.Empty(t, s.Messages())
}

func TestCommitSplicesByIdentity(t *testing.T) {
	repo := &fakeRepo{get: func(_ context.Context, id string) (*models.Conversation, error) {
		c := conv(id, "Loaded", msg("m0", models.RoleUser, "earlier"))
		return &c, nil
	}}
	s := NewStore(repo)
	_, err := s.SelectConversation(context.Background(), "c1")
	require.NoError(t, err)

	p := models.NewUserMessage("Hello")
	target, err := s.BeginExchange(p)
	require.NoError(t, err)

	key := s.CommitExchange(target, p.ID, &models.SendResult{
		Message:           msg("m1", models.RoleUser, "Hello"),
		ConversationID:    "c1",
		AssistantResponse: msg("m2", models.RoleAssistant, "Hi!"),
	})
	assert.Equal(t, "c1", key)
	if diff := cmp.Diff([]models.Message{
		msg("m0", models.RoleUser, "earlier"),
		msg("m1", models.RoleUser, "Hello"),
		msg("m2", models.RoleAssistant, "Hi!"),
	}, s.Messages()); diff != "" {
		t.Fatalf("messages (-want +got):\n%s", diff)
	}
	assert.False(t, s.Sending())
}

func TestCommitDraftRekeysAndSwitches(t *testing.T) {
	s := NewStore(&fakeRepo{})
	p := models.NewUserMessage("Hello")
	target, err := s.BeginExchange(p)
	require.NoError(t, err)

	key := s.CommitExchange(target, p.ID, &models.SendResult{
		Message:           msg("m1", models.RoleUser, "Hello"),
		ConversationID:    "c1",
		AssistantResponse: msg("m2", models.RoleAssistant, "Hi!"),
	})
	assert.Equal(t, "c1", key)
	assert.Equal(t, "c1", s.CurrentID())
	assert.Equal(t, "c1", s.Conversations()[0].ID)
	assert.Len(t, s.Messages(), 2)
	assert.Empty(t, s.Thread(""))
}

func TestCommitDraftAfterUserMovedOn(t *testing.T) {
	s := NewStore(&fakeRepo{})
	p := models.NewUserMessage("Hello")
	target, err := s.BeginExchange(p)
	require.NoError(t, err)

	s.SetCurrent("local-placeholder-2")
	s.CommitExchange(target, p.ID, &models.SendResult{
		Message:           msg("m1", models.RoleUser, "Hello"),
		ConversationID:    "c1",
		AssistantResponse: msg("m2", models.RoleAssistant, "Hi!"),
	})

	assert.Equal(t, "local-placeholder-2", s.CurrentID())
	assert.Empty(t, s.Messages())
	assert.Len(t, s.Thread("c1"), 2)
}

func TestCommitLocalConversationPromotes(t *testing.T) {
	s := NewStore(&fakeRepo{})
	local := s.CreateConversation(context.Background(), "Offline")
	p := models.NewUserMessage("Hello")
	target, err := s.BeginExchange(p)
	require.NoError(t, err)
	assert.Equal(t, local.ID, target)

	s.CommitExchange(target, p.ID, &models.SendResult{
		Message:           msg("m1", models.RoleUser, "Hello"),
		ConversationID:    "c7",
		AssistantResponse: msg("m2", models.RoleAssistant, "Hi!"),
	})

	convs := s.Conversations()
	assert.Equal(t, "c7", convs[0].ID)
	assert.Equal(t, "Offline", convs[0].Title)
	assert.Equal(t, models.OriginRemote, convs[0].Origin)
	assert.NotContains(t, ids(convs), local.ID)
	assert.Equal(t, "c7", s.CurrentID())
}

func TestReloadDuringExchangeKeepsProvisional(t *testing.T) {
	repo := &fakeRepo{get: func(_ context.Context, id string) (*models.Conversation, error) {
		c := conv(id, "Loaded", msg("m0", models.RoleUser, "earlier"))
		return &c, nil
	}}
	s := NewStore(repo)
	s.SetCurrent("c1")

	p := models.NewUserMessage("Hello")
	target, err := s.BeginExchange(p)
	require.NoError(t, err)

	_, err = s.LoadConversation(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, s.Messages(), 2)
	assert.Equal(t, p.ID, s.Messages()[1].ID)

	s.RollbackExchange(target, p.ID)
	assert.Equal(t, []string{"m0"}, messageIDs(s.Messages()))
}

func TestFailedReloadDuringExchangeKeepsOnlyProvisional(t *testing.T) {
	var fail atomic.Bool
	repo := &fakeRepo{get: func(_ context.Context, id string) (*models.Conversation, error) {
		if fail.Load() {
			return nil, errBackend
		}
		c := conv(id, "Loaded", msg("m0", models.RoleUser, "earlier"))
		return &c, nil
	}}
	s := NewStore(repo)
	_, err := s.SelectConversation(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, []string{"m0"}, messageIDs(s.Messages()))

	p := models.NewUserMessage("Hello")
	target, err := s.BeginExchange(p)
	require.NoError(t, err)

	fail.Store(true)
	_, err = s.LoadConversation(context.Background(), "c1")
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, []string{p.ID}, messageIDs(s.Messages()))
	assert.True(t, s.Sending())

	s.RollbackExchange(target, p.ID)
	assert.Empty(t, s.Messages())
	assert.False(t, s.Sending())
}

func TestCommitWhenConfirmedAlreadyPresent(t *testing.T) {
	thread := []models.Message{msg("m1", models.RoleUser, "Hello"), msg("p", models.RoleUser, "Hello")}
	got := spliceConfirmed(thread, "p", msg("m1", models.RoleUser, "Hello"), msg("m2", models.RoleAssistant, "Hi"))
	assert.Equal(t, []string{"m1", "m2"}, messageIDs(got))

	got = spliceConfirmed([]models.Message{msg("m0", models.RoleUser, "x")}, "gone", msg("m1", models.RoleUser, "Hello"), msg("m2", models.RoleAssistant, "Hi"))
	assert.Equal(t, []string{"m0", "m1", "m2"}, messageIDs(got))
}

func TestRollbackMissingProvisionalIsNoop(t *testing.T) {
	s := NewStore(&fakeRepo{})
	s.RollbackExchange("", "local-nothing")
	assert.Empty(t, s.Messages())
}

func TestSubscribeNotifies(t *testing.T) {
	s := NewStore(&fakeRepo{})
	var n atomic.Int32
	unsubscribe := s.Subscribe(func() { n.Add(1) })

	s.SetCurrent("local-placeholder-1")
	s.CreateConversation(context.Background(), "")
	assert.Equal(t, int32(2), n.Load())

	unsubscribe()
	s.SetCurrent("")
	assert.Equal(t, int32(2), n.Load())
}

func messageIDs(msgs []models.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}
