package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/roboberto1403/chatbot/internal/chat"
	"github.com/roboberto1403/chatbot/internal/observability"
)

// App carries what the screens need to build their controllers.
type App struct {
	Chats        *chat.ChatList
	Messages     chat.MessageStore
	DefaultTitle string
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// resize replays the last known window size into a freshly built screen.
func resize[M tea.Model](m M, width, height int) (M, tea.Cmd) {
	if width <= 0 {
		return m, nil
	}
	updated, cmd := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated.(M), cmd
}
