package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/roboberto1403/chatbot/internal/models"
)

const bubbleRatio = 0.8

// bubbleRenderer turns a message list into the viewport's content. Model
// replies are markdown and go through glamour; rendered replies are cached by
// message id since they never change once the server has assigned one.
type bubbleRenderer struct {
	width int
	md    *glamour.TermRenderer
	cache map[string]string
}

func newBubbleRenderer(width int) *bubbleRenderer {
	r := &bubbleRenderer{}
	r.setWidth(width)
	return r
}

func (r *bubbleRenderer) setWidth(width int) {
	if width <= 0 {
		width = 80
	}
	if width == r.width && r.cache != nil {
		return
	}
	r.width = width
	r.cache = make(map[string]string)

	// Without a markdown renderer replies fall back to plain wrapped text.
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(r.bubbleWidth()),
	)
	if err != nil {
		r.md = nil
		return
	}
	r.md = md
}

func (r *bubbleRenderer) bubbleWidth() int {
	w := int(float64(r.width) * bubbleRatio)
	if w < 10 {
		w = 10
	}
	return w
}

func (r *bubbleRenderer) render(msgs []models.Message) string {
	var content strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			content.WriteString("\n")
		}
		if msg.IsFromUser() {
			content.WriteString(r.userBubble(msg))
		} else {
			content.WriteString(r.modelBubble(msg))
		}
		content.WriteString("\n")
	}
	return content.String()
}

func (r *bubbleRenderer) userBubble(msg models.Message) string {
	right := lipgloss.NewStyle().Align(lipgloss.Right).Width(r.width)

	header := messageHeaderStyle.Render("You")
	if msg.IsTemporary() {
		header = pendingStyle.Render("You • sending…")
	}

	wrapped := wordwrap.String(msg.Text, r.bubbleWidth()-2)
	return right.Render(header) + "\n" + right.Render(messageFromMeStyle.Render(wrapped))
}

func (r *bubbleRenderer) modelBubble(msg models.Message) string {
	header := messageHeaderStyle.Render("Assistant")

	if cached, ok := r.cache[msg.ID]; ok && msg.ID != "" {
		return header + "\n" + cached
	}

	body := ""
	if r.md != nil {
		if out, err := r.md.Render(msg.Text); err == nil {
			body = strings.Trim(out, "\n")
		}
	}
	if body == "" {
		body = normalStyle.Render(wordwrap.String(msg.Text, r.bubbleWidth()))
	}

	if msg.ID != "" {
		r.cache[msg.ID] = body
	}
	return header + "\n" + body
}
