package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roboberto1403/chatbot/internal/api"
	"github.com/roboberto1403/chatbot/internal/api/apitest"
	"github.com/roboberto1403/chatbot/internal/models"
	"github.com/roboberto1403/chatbot/internal/observability"
)

func newClient(srv *apitest.Server, metrics *observability.Metrics) *api.Client {
	return api.NewClient(api.Options{
		BaseURL:            srv.URL + "/",
		HTTPClient:         srv.Client(),
		SkipBrowserWarning: true,
		Metrics:            metrics,
	})
}

func TestListChats(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddChat("Visit A")
	srv.AddChat("Dor de cabeça", apitest.Message{ID: 1, Text: "Estou com dor", Sender: "user"})

	chats, err := newClient(srv, nil).ListChats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.Chat{
		{ID: "c1", Title: "Visit A", LastMessage: ""},
		{ID: "c2", Title: "Dor de cabeça", LastMessage: "Estou com dor"},
	}, chats)
}

func TestCreateChatFallsBackToObjectID(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	id, err := newClient(srv, nil).CreateChat(context.Background(), "Nova Consulta")
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/criar-chat", reqs[0].Path)
	assert.JSONEq(t, `{"title":"Nova Consulta"}`, reqs[0].Body)
}

func TestCreateChatPrefersChatID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chat_id":"x9","_id":"ignored"}`))
	}))
	defer srv.Close()

	client := api.NewClient(api.Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	id, err := client.CreateChat(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "x9", id)
}

func TestListMessagesDecodesIntegerIDs(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	chatID := srv.AddChat("Visit A",
		apitest.Message{ID: 1, Text: "Hello", Sender: "user"},
		apitest.Message{ID: 2, Text: "Hi there", Sender: "model"},
	)

	msgs, err := newClient(srv, nil).ListMessages(context.Background(), chatID)
	require.NoError(t, err)

	assert.Equal(t, []models.Message{
		{ID: "1", Text: "Hello", Sender: models.SenderUser},
		{ID: "2", Text: "Hi there", Sender: models.SenderModel},
	}, msgs)
}

func TestSendFlowRequests(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	chatID := srv.AddChat("Visit A")
	client := newClient(srv, nil)

	require.NoError(t, client.SendUserMessage(context.Background(), chatID, "Hello"))
	require.NoError(t, client.TriggerModelReply(context.Background(), chatID))

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/send-user/c1", reqs[0].Path)
	assert.JSONEq(t, `{"text":"Hello","sender":"user"}`, reqs[0].Body)
	assert.Equal(t, "/send-model/c1", reqs[1].Path)
	assert.Empty(t, reqs[1].Body)

	stored := srv.Messages(chatID)
	require.Len(t, stored, 2)
	assert.Equal(t, "echo: Hello", stored[1].Text)
}

func TestHeaders(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	chatID := srv.AddChat("Visit A")
	client := newClient(srv, nil)
	ctx := context.Background()

	_, err := client.ListChats(ctx)
	require.NoError(t, err)
	_, err = client.CreateChat(ctx, "t")
	require.NoError(t, err)
	_, err = client.ListMessages(ctx, chatID)
	require.NoError(t, err)
	require.NoError(t, client.SendUserMessage(ctx, chatID, "x"))

	for _, req := range srv.Requests() {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"), req.Path)
		skip := req.Header.Get(api.BrowserWarningHeader)
		switch req.Path {
		case "/chats", "/criar-chat":
			assert.Equal(t, "true", skip, req.Path)
		default:
			assert.Empty(t, skip, req.Path)
		}
	}
}

func TestStatusError(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.FailPath("/send-user/", http.StatusInternalServerError)
	metrics := observability.NewMetrics()

	err := newClient(srv, metrics).SendUserMessage(context.Background(), "c1", "Hello")

	var statusErr *api.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "/send-user/c1", statusErr.Path)
	assert.Equal(t, float64(1), metrics.RequestCount("send_user", "error"))
}

func TestNotFoundChat(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	_, err := newClient(srv, nil).ListMessages(context.Background(), "missing")

	var statusErr *api.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>tunnel warning</html>`))
	}))
	defer srv.Close()

	client := api.NewClient(api.Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := client.ListChats(context.Background())

	var decodeErr *api.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestTransportErrorUnwrapsCancellation(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(srv, nil).ListChats(ctx)

	var transportErr *api.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCircuitBreakerOpens(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.FailPath("/chats", http.StatusBadGateway)

	client := api.NewClient(api.Options{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Breaker:    api.NewCircuitBreaker("chat-api-test"),
	})

	for i := 0; i < 5; i++ {
		_, err := client.ListChats(context.Background())
		require.Error(t, err)
	}
	before := len(srv.Requests())

	_, err := client.ListChats(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, len(srv.Requests()), "open breaker must not reach the server")
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddChat("Visit A")

	client := api.NewClient(api.Options{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Breaker:    api.NewCircuitBreaker("chat-api-test"),
	})

	for i := 0; i < 10; i++ {
		_, err := client.ListMessages(context.Background(), "deleted-chat")
		var statusErr *api.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	}

	chats, err := client.ListChats(context.Background())
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestGetChat(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	chatID := srv.AddChat("Visit A", apitest.Message{ID: 1, Text: "oi", Sender: "user"})

	chat, err := newClient(srv, nil).GetChat(context.Background(), chatID)
	require.NoError(t, err)
	assert.Equal(t, models.Chat{ID: chatID, Title: "Visit A", LastMessage: "oi"}, chat)
}
