package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/roboberto1403/chatbot/internal/models"
	"github.com/roboberto1403/chatbot/internal/observability"
)

// ErrSessionClosed is returned when a response arrives after Close.
var ErrSessionClosed = errors.New("chat session closed")

// SendState is how far a single send got.
type SendState int

const (
	StateIdle SendState = iota
	StateOptimistic
	StateSentUser
	StateTriggeredModel
	StateReconciled
	StateRolledBack
)

func (s SendState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOptimistic:
		return "optimistic"
	case StateSentUser:
		return "sent_user"
	case StateTriggeredModel:
		return "triggered_model"
	case StateReconciled:
		return "reconciled"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Pending is an optimistic message on its way to the server.
type Pending struct {
	TempID string
	Text   string
	State  SendState
}

// Session owns the message list of one conversation for as long as its
// screen is open.
type Session struct {
	chatID  string
	store   MessageStore
	logger  *zap.Logger
	metrics *observability.Metrics

	life   context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	messages []models.Message
	input    string
	loading  bool
	sending  int
	closed   bool
}

// NewSession creates a session for chatID. Call Close when the screen goes away.
func NewSession(chatID string, store MessageStore, logger *zap.Logger, metrics *observability.Metrics) *Session {
	life, cancel := context.WithCancel(context.Background())
	return &Session{
		chatID:  chatID,
		store:   store,
		logger:  logger.With(zap.String("chat_id", chatID)),
		metrics: metrics,
		life:    life,
		cancel:  cancel,
	}
}

// Load replaces the message list with the server's. On failure the previous
// list is kept.
func (s *Session) Load(ctx context.Context) error {
	ctx, done := s.bind(ctx)
	defer done()

	s.setLoading(true)
	defer s.setLoading(false)

	msgs, err := s.store.ListMessages(ctx, s.chatID)
	if err != nil {
		s.logger.Error("failed to load messages", zap.String("op", "load_messages"), zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Debug("discarding messages for closed session")
		return ErrSessionClosed
	}
	s.messages = msgs
	return nil
}

// Send runs the whole send flow for text and blocks until it is reconciled or
// rolled back. Blank text is a no-op.
func (s *Session) Send(ctx context.Context, text string) error {
	p, ok := s.Append(text)
	if !ok {
		return nil
	}
	_, err := s.Deliver(ctx, p)
	return err
}

// SendInput sends the current input buffer.
func (s *Session) SendInput(ctx context.Context) error {
	return s.Send(ctx, s.Input())
}

// Append adds text to the end of the list under a temporary id and clears the
// input buffer, without touching the network. It reports false, changing
// nothing, for blank text or a closed session.
func (s *Session) Append(text string) (Pending, bool) {
	if strings.TrimSpace(text) == "" {
		return Pending{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Pending{}, false
	}

	p := Pending{TempID: models.NewTemporaryID(), Text: text, State: StateOptimistic}
	s.messages = append(s.messages, models.Message{ID: p.TempID, Text: text, Sender: models.SenderUser})
	s.input = ""
	s.sending++

	s.logger.Debug("optimistic message appended", zap.String("temp_id", p.TempID))
	return p, true
}

// Deliver posts an appended message, asks for the model's reply and reloads
// the list. If either post fails the optimistic message is removed and
// nothing else changes.
func (s *Session) Deliver(ctx context.Context, p Pending) (Pending, error) {
	ctx, done := s.bind(ctx)
	defer done()
	defer s.finishSend()

	if err := s.store.SendUserMessage(ctx, s.chatID, p.Text); err != nil {
		return s.rollback(p, "send_user", err), err
	}
	p.State = StateSentUser

	if err := s.store.TriggerModelReply(ctx, s.chatID); err != nil {
		return s.rollback(p, "send_model", err), err
	}
	p.State = StateTriggeredModel

	if err := s.Load(ctx); err != nil {
		return p, err
	}
	p.State = StateReconciled

	s.logger.Debug("send reconciled", zap.String("temp_id", p.TempID))
	return p, nil
}

func (s *Session) rollback(p Pending, step string, err error) Pending {
	s.logger.Error("send failed, removing optimistic message",
		zap.String("op", step),
		zap.String("temp_id", p.TempID),
		zap.Stringer("reached", p.State),
		zap.Error(err),
	)

	s.mu.Lock()
	if !s.closed {
		s.messages = lo.Filter(s.messages, func(m models.Message, _ int) bool {
			return m.ID != p.TempID
		})
	}
	s.mu.Unlock()

	s.metrics.IncrRollback()
	p.State = StateRolledBack
	return p
}

// Close cancels every request the session still has in flight. Responses
// arriving afterwards are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// bind ties ctx to the session's lifetime.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *Session) finishSend() {
	s.mu.Lock()
	s.sending--
	s.mu.Unlock()
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Session) ChatID() string {
	return s.chatID
}

// Messages returns a copy of the current list.
func (s *Session) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Input() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Sending reports whether a send is between Append and its outcome.
func (s *Session) Sending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sending > 0
}
