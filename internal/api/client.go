// Package api is the HTTP/JSON client for the chat server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sony/gobreaker"

	"github.com/roboberto1403/chatbot/internal/models"
	"github.com/roboberto1403/chatbot/internal/observability"
)

// BrowserWarningHeader bypasses the interstitial page of the development tunnel.
const BrowserWarningHeader = "ngrok-skip-browser-warning"

// maxErrorBody caps how much of a failed response ends up in a StatusError.
const maxErrorBody = 512

type chatResponse struct {
	ChatID      models.ID `json:"chat_id"`
	Title       string    `json:"title"`
	LastMessage *string   `json:"lastMessage"`
}

type createChatRequest struct {
	Title string `json:"title"`
}

type createChatResponse struct {
	ChatID   models.ID `json:"chat_id"`
	ObjectID models.ID `json:"_id"`
}

type messageResponse struct {
	ID     models.ID `json:"id"`
	Text   string    `json:"text"`
	Sender string    `json:"sender"`
}

type sendUserRequest struct {
	Text   string        `json:"text"`
	Sender models.Sender `json:"sender"`
}

// Options configures a Client.
type Options struct {
	BaseURL            string
	HTTPClient         *http.Client
	SkipBrowserWarning bool
	// Breaker wraps every call when non-nil.
	Breaker *gobreaker.CircuitBreaker
	Metrics *observability.Metrics
}

// Client calls the chat server endpoints.
type Client struct {
	httpClient         *http.Client
	baseURL            string
	skipBrowserWarning bool
	cb                 *gobreaker.CircuitBreaker
	metrics            *observability.Metrics
}

// NewClient creates a new Client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:         httpClient,
		baseURL:            strings.TrimRight(opts.BaseURL, "/"),
		skipBrowserWarning: opts.SkipBrowserWarning,
		cb:                 opts.Breaker,
		metrics:            opts.Metrics,
	}
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListChats fetches every chat, in server order.
func (c *Client) ListChats(ctx context.Context) ([]models.Chat, error) {
	var resp []chatResponse
	if err := c.do(ctx, "list_chats", http.MethodGet, "/chats", nil, c.skipBrowserWarning, &resp); err != nil {
		return nil, err
	}
	return lo.Map(resp, func(item chatResponse, _ int) models.Chat {
		return toChat(item)
	}), nil
}

// GetChat fetches a single chat.
func (c *Client) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var resp chatResponse
	if err := c.do(ctx, "get_chat", http.MethodGet, "/chat/"+url.PathEscape(chatID), nil, c.skipBrowserWarning, &resp); err != nil {
		return models.Chat{}, err
	}
	return toChat(resp), nil
}

// CreateChat creates a chat and returns the id the server assigned, which is
// empty if the response did not carry one.
func (c *Client) CreateChat(ctx context.Context, title string) (string, error) {
	var resp createChatResponse
	req := createChatRequest{Title: title}
	if err := c.do(ctx, "create_chat", http.MethodPost, "/criar-chat", req, c.skipBrowserWarning, &resp); err != nil {
		return "", err
	}
	if resp.ChatID != "" {
		return resp.ChatID.String(), nil
	}
	return resp.ObjectID.String(), nil
}

// ListMessages fetches the full, ordered message list of a chat.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var resp []messageResponse
	if err := c.do(ctx, "list_messages", http.MethodGet, "/chat-messages/"+url.PathEscape(chatID), nil, false, &resp); err != nil {
		return nil, err
	}
	return lo.Map(resp, func(item messageResponse, _ int) models.Message {
		return models.Message{
			ID:     item.ID.String(),
			Text:   item.Text,
			Sender: models.Sender(item.Sender),
		}
	}), nil
}

// SendUserMessage posts the user's message. Only the status is checked.
func (c *Client) SendUserMessage(ctx context.Context, chatID, text string) error {
	req := sendUserRequest{Text: text, Sender: models.SenderUser}
	return c.do(ctx, "send_user", http.MethodPost, "/send-user/"+url.PathEscape(chatID), req, false, nil)
}

// TriggerModelReply asks the server to produce the model's next turn.
// Only the status is checked.
func (c *Client) TriggerModelReply(ctx context.Context, chatID string) error {
	return c.do(ctx, "send_model", http.MethodPost, "/send-model/"+url.PathEscape(chatID), nil, false, nil)
}

func toChat(item chatResponse) models.Chat {
	return models.Chat{
		ID:          item.ChatID.String(),
		Title:       item.Title,
		LastMessage: lo.FromPtr(item.LastMessage),
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, browserHeader bool, out any) error {
	start := time.Now()
	var err error
	if c.cb == nil {
		err = c.roundTrip(ctx, method, path, body, browserHeader, out)
	} else {
		_, err = c.cb.Execute(func() (any, error) {
			return nil, c.roundTrip(ctx, method, path, body, browserHeader, out)
		})
	}
	c.metrics.ObserveRequest(op, time.Since(start), err)
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, browserHeader bool, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if browserHeader {
		req.Header.Set(BrowserWarningHeader, "true")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}
