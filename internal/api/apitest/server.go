// Package apitest provides an in-memory chat server for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Message is a stored message. Ids are integers, as on the real server.
type Message struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

type chat struct {
	ID       string
	Title    string
	Messages []Message
}

// Request records one call received by the server.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

// Server mimics the chat API: /chats, /chat/{id}, /criar-chat,
// /chat-messages/{id}, /send-user/{id} and /send-model/{id}.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	chats    []*chat
	nextID   int
	requests []Request
	failures map[string]int

	// Reply builds the model's answer from the conversation so far.
	Reply func(history []Message) string
}

// NewServer starts a server. Call Close when done.
func NewServer() *Server {
	s := &Server{
		failures: map[string]int{},
		Reply: func(history []Message) string {
			if len(history) == 0 {
				return "Olá! Como posso ajudar?"
			}
			return "echo: " + history[len(history)-1].Text
		},
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/chats", s.listChats)
	r.Get("/chat/{chatID}", s.getChat)
	r.Post("/criar-chat", s.createChat)
	r.Get("/chat-messages/{chatID}", s.listMessages)
	r.Post("/send-user/{chatID}", s.sendUser)
	r.Post("/send-model/{chatID}", s.sendModel)

	s.Server = httptest.NewServer(r)
	return s
}

// AddChat seeds a chat and returns its id.
func (s *Server) AddChat(title string, messages ...Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	c := &chat{ID: fmt.Sprintf("c%d", s.nextID), Title: title, Messages: messages}
	s.chats = append(s.chats, c)
	return c.ID
}

// FailPath makes every request whose path starts with prefix answer status.
// A zero status clears the failure.
func (s *Server) FailPath(prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == 0 {
		delete(s.failures, prefix)
		return
	}
	s.failures[prefix] = status
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Messages returns the stored messages of a chat.
func (s *Server) Messages(chatID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(chatID)
	if c == nil {
		return nil
	}
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		status := 0
		for prefix, code := range s.failures {
			if strings.HasPrefix(r.URL.Path, prefix) {
				status = code
			}
		}
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listChats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.chats))
	for _, c := range s.chats {
		out = append(out, summary(c))
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c := s.find(chi.URLParam(r, "chatID"))
	var out map[string]any
	if c != nil {
		out = summary(c)
	}
	s.mu.Unlock()

	if out == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Chat não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	id := s.AddChat(req.Title)
	writeJSON(w, http.StatusOK, map[string]any{
		"status_code": 200,
		"message":     "Chat criado com sucesso!",
		"_id":         id,
	})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c := s.find(chi.URLParam(r, "chatID"))
	var out []Message
	if c != nil {
		out = append([]Message{}, c.Messages...)
	}
	s.mu.Unlock()

	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Chat não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sendUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		Sender string `json:"sender"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	c := s.find(chi.URLParam(r, "chatID"))
	if c != nil {
		c.Messages = append(c.Messages, Message{ID: len(c.Messages) + 1, Text: req.Text, Sender: "user"})
	}
	s.mu.Unlock()

	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Chat não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status_code": 200, "message": "Mensagem enviada com sucesso!"})
}

func (s *Server) sendModel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c := s.find(chi.URLParam(r, "chatID"))
	var reply Message
	if c != nil {
		reply = Message{ID: len(c.Messages) + 1, Text: s.Reply(c.Messages), Sender: "model"}
		c.Messages = append(c.Messages, reply)
	}
	s.mu.Unlock()

	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Chat não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status_code": 200, "agent_message": reply})
}

func (s *Server) find(id string) *chat {
	for _, c := range s.chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func summary(c *chat) map[string]any {
	var last any
	if n := len(c.Messages); n > 0 {
		last = c.Messages[n-1].Text
	}
	return map[string]any{
		"chat_id":     c.ID,
		"title":       c.Title,
		"lastMessage": last,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
