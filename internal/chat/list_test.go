package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roboberto1403/chatbot/internal/models"
)

func TestChatListLoad(t *testing.T) {
	store := &fakeChatStore{chats: []models.Chat{
		{ID: "c2", Title: "Second"},
		{ID: "c1", Title: "Visit A", LastMessage: "ok"},
	}}
	list := NewChatList(store, "Nova Consulta", zap.NewNop())

	require.NoError(t, list.Load(context.Background()))

	if diff := cmp.Diff(store.chats, list.Chats()); diff != "" {
		t.Errorf("chats mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, list.Loading())
}

func TestChatListLoadFailureKeepsPreviousList(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	store := &fakeChatStore{chats: []models.Chat{{ID: "c1", Title: "Visit A"}}}
	list := NewChatList(store, "Nova Consulta", zap.New(core))
	require.NoError(t, list.Load(context.Background()))

	store.listErr = errors.New("connection refused")
	err := list.Load(context.Background())

	assert.Error(t, err)
	assert.Equal(t, []models.Chat{{ID: "c1", Title: "Visit A"}}, list.Chats())
	assert.False(t, list.Loading())
	assert.Equal(t, 1, logs.FilterMessage("failed to load chats").Len())
}

func TestChatListLoadingTracksOverlappingLoads(t *testing.T) {
	store := &fakeChatStore{release: make(chan struct{})}
	list := NewChatList(store, "Nova Consulta", zap.NewNop())

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { results <- list.Load(context.Background()) }()
	}
	require.Eventually(t, func() bool {
		list.mu.RLock()
		defer list.mu.RUnlock()
		return list.loading == 2
	}, time.Second, time.Millisecond)

	store.release <- struct{}{}
	require.NoError(t, <-results)
	assert.True(t, list.Loading(), "one load is still in flight")

	store.release <- struct{}{}
	require.NoError(t, <-results)
	assert.False(t, list.Loading())
}

func TestChatListCreateReloads(t *testing.T) {
	store := &fakeChatStore{createID: "c9"}
	list := NewChatList(store, "Nova Consulta", zap.NewNop())

	id, err := list.Create(context.Background(), "  ")
	require.NoError(t, err)

	assert.Equal(t, "c9", id)
	assert.Equal(t, []string{"Nova Consulta"}, store.titles)
	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, []models.Chat{{ID: "c9", Title: "Nova Consulta"}}, list.Chats())
}

func TestChatListCreateFailure(t *testing.T) {
	store := &fakeChatStore{createErr: errors.New("500")}
	list := NewChatList(store, "Nova Consulta", zap.NewNop())

	_, err := list.Create(context.Background(), "Dor nas costas")

	assert.Error(t, err)
	assert.Equal(t, 0, store.listCalls)
	assert.Empty(t, list.Chats())
}

func TestChatListSelect(t *testing.T) {
	store := &fakeChatStore{chats: []models.Chat{{ID: "c1", Title: "Visit A"}}}
	list := NewChatList(store, "Nova Consulta", zap.NewNop())
	require.NoError(t, list.Load(context.Background()))
	before := list.Chats()

	got, ok := list.Select("c1")
	assert.True(t, ok)
	assert.Equal(t, "Visit A", got.Title)

	_, ok = list.Select("nope")
	assert.False(t, ok)
	assert.Equal(t, before, list.Chats())
}
