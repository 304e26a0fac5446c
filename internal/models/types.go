package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TemporaryIDPrefix marks ids assigned locally before the server has seen a message.
const TemporaryIDPrefix = "temp-"

type Sender string

const (
	SenderUser  Sender = "user"
	SenderModel Sender = "model"
)

// ID decodes from a JSON string or a JSON number. The chat API hands out
// string chat ids but integer message ids.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number, got %s", data)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Chat struct {
	ID          string
	Title       string
	LastMessage string
}

type Message struct {
	ID     string
	Text   string
	Sender Sender
}

// IsFromUser reports whether the message was written on this side of the conversation.
func (m Message) IsFromUser() bool {
	return m.Sender == SenderUser
}

// IsTemporary reports whether the message is an optimistic placeholder.
func (m Message) IsTemporary() bool {
	return IsTemporaryID(m.ID)
}

// NewTemporaryID returns a fresh placeholder id for an optimistic message.
func NewTemporaryID() string {
	return TemporaryIDPrefix + uuid.NewString()
}

func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TemporaryIDPrefix)
}
