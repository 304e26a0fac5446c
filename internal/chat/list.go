package chat

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/roboberto1403/chatbot/internal/models"
)

// ChatList owns the in-memory list of conversations.
type ChatList struct {
	store        ChatStore
	defaultTitle string
	logger       *zap.Logger

	mu      sync.RWMutex
	chats   []models.Chat
	loading int
}

// NewChatList creates a ChatList. Chats created without a title get defaultTitle.
func NewChatList(store ChatStore, defaultTitle string, logger *zap.Logger) *ChatList {
	return &ChatList{
		store:        store,
		defaultTitle: defaultTitle,
		logger:       logger,
	}
}

// Load replaces the list with the server's, in server order. On failure the
// previous list is kept.
func (l *ChatList) Load(ctx context.Context) error {
	l.addLoading(1)
	defer l.addLoading(-1)

	chats, err := l.store.ListChats(ctx)
	if err != nil {
		l.logger.Error("failed to load chats", zap.String("op", "load_chats"), zap.Error(err))
		return err
	}

	l.mu.Lock()
	l.chats = chats
	l.mu.Unlock()

	l.logger.Debug("chats loaded", zap.Int("count", len(chats)))
	return nil
}

// Create asks the server for a new chat and then reloads the list. The chat is
// never inserted locally. The returned id is empty when the server did not
// report one.
func (l *ChatList) Create(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = l.defaultTitle
	}

	id, err := l.store.CreateChat(ctx, title)
	if err != nil {
		l.logger.Error("failed to create chat",
			zap.String("op", "create_chat"),
			zap.String("title", title),
			zap.Error(err),
		)
		return "", err
	}
	l.logger.Info("chat created", zap.String("chat_id", id), zap.String("title", title))

	// Load logs its own failure; the chat exists either way.
	_ = l.Load(ctx)
	return id, nil
}

// Select looks a chat up for navigation. It never changes the list.
func (l *ChatList) Select(id string) (models.Chat, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, c := range l.chats {
		if c.ID == id {
			return c, true
		}
	}
	return models.Chat{}, false
}

// Chats returns a copy of the current list.
func (l *ChatList) Chats() []models.Chat {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Chat, len(l.chats))
	copy(out, l.chats)
	return out
}

// Loading reports whether any load is still in flight.
func (l *ChatList) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading > 0
}

func (l *ChatList) addLoading(delta int) {
	l.mu.Lock()
	l.loading += delta
	l.mu.Unlock()
}
