// Package chat holds the controllers behind the chat list and the
// conversation screens. The server is the only source of truth: local state
// is replaced wholesale on every successful fetch.
package chat

import (
	"context"

	"github.com/roboberto1403/chatbot/internal/models"
)

// ChatStore reads and creates chats.
type ChatStore interface {
	ListChats(ctx context.Context) ([]models.Chat, error)
	CreateChat(ctx context.Context, title string) (string, error)
}

// MessageStore reads and posts messages of one chat.
type MessageStore interface {
	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)
	SendUserMessage(ctx context.Context, chatID, text string) error
	TriggerModelReply(ctx context.Context, chatID string) error
}
