package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/roboberto1403/chatbot/internal/models"
)

func init() {
	color.NoColor = true
}

func TestChats(t *testing.T) {
	var buf bytes.Buffer

	Chats(&buf, []models.Chat{
		{ID: "c1", Title: "Febre", LastMessage: "Desde quando?"},
		{ID: "c2", Title: "Nova Consulta"},
	})

	out := buf.String()
	assert.Contains(t, out, "LAST MESSAGE")
	assert.Contains(t, out, "c1")
	assert.Contains(t, out, "Desde quando?")
	assert.Contains(t, out, "Nova Consulta")
}

func TestChatsEmpty(t *testing.T) {
	var buf bytes.Buffer

	Chats(&buf, nil)

	assert.Equal(t, "No conversations yet.\n", buf.String())
}

func TestConversation(t *testing.T) {
	var buf bytes.Buffer

	Conversation(&buf, "Febre", []models.Message{
		{ID: "1", Text: "Estou com febre", Sender: models.SenderUser},
		{ID: "2", Text: "Desde quando?", Sender: models.SenderModel},
		{ID: "temp-x", Text: "Ontem", Sender: models.SenderUser},
	})

	out := buf.String()
	assert.Contains(t, out, "Febre")
	assert.Contains(t, out, "-> Estou com febre\n")
	assert.Contains(t, out, "Desde quando?\n")
	assert.Contains(t, out, "-> Ontem (not delivered)\n")
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("a", 100)

	assert.Equal(t, "short one", preview("short\none"))
	assert.Len(t, []rune(preview(long)), previewLength)
	assert.True(t, strings.HasSuffix(preview(long), "..."))
}

func TestError(t *testing.T) {
	var buf bytes.Buffer

	Error(&buf, errors.New("status 500"))

	assert.Equal(t, "Error: status 500\n", buf.String())
}
