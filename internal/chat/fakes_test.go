package chat

import (
	"context"
	"sync"

	"github.com/roboberto1403/chatbot/internal/models"
)

// fakeChatStore serves chats from memory. release, when set, is consumed
// by each ListChats call before it answers.
type fakeChatStore struct {
	mu        sync.Mutex
	release   chan struct{}
	chats     []models.Chat
	listErr   error
	createID  string
	createErr error
	titles    []string
	listCalls int
}

func (f *fakeChatStore) ListChats(_ context.Context) ([]models.Chat, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Chat(nil), f.chats...), nil
}

func (f *fakeChatStore) CreateChat(_ context.Context, title string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	if f.createErr != nil {
		return "", f.createErr
	}
	f.chats = append(f.chats, models.Chat{ID: f.createID, Title: title})
	return f.createID, nil
}

// fakeMessageStore records calls in order. onList, when set, replaces the
// ListMessages behaviour.
type fakeMessageStore struct {
	mu       sync.Mutex
	messages []models.Message
	listErr  error
	userErr  error
	modelErr error
	calls    []string
	sent     []string
	onList   func(ctx context.Context) ([]models.Message, error)
}

func (f *fakeMessageStore) ListMessages(ctx context.Context, _ string) ([]models.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "list")
	onList := f.onList
	f.mu.Unlock()

	if onList != nil {
		return onList(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Message(nil), f.messages...), nil
}

func (f *fakeMessageStore) SendUserMessage(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "send_user")
	f.sent = append(f.sent, text)
	return f.userErr
}

func (f *fakeMessageStore) TriggerModelReply(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "send_model")
	return f.modelErr
}

func (f *fakeMessageStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
