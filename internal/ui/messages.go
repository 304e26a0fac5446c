package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roboberto1403/chatbot/internal/chat"
	"github.com/roboberto1403/chatbot/internal/models"
)

type messagesLoadedMsg struct {
	err error
}

type messageDeliveredMsg struct {
	pending chat.Pending
	err     error
}

type MessagesModel struct {
	app          *App
	chat         models.Chat
	session      *chat.Session
	renderer     *bubbleRenderer
	viewport     viewport.Model
	textarea     textarea.Model
	spinner      spinner.Model
	rendered     int
	windowWidth  int
	windowHeight int
}

func NewMessagesModel(app *App, c models.Chat) MessagesModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	vp := viewport.New(80, 20)

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	return MessagesModel{
		app:          app,
		chat:         c,
		session:      chat.NewSession(c.ID, app.Messages, app.Logger, app.Metrics),
		renderer:     newBubbleRenderer(76),
		viewport:     vp,
		textarea:     ta,
		spinner:      s,
		rendered:     -1,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m MessagesModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textarea.Blink, m.loadMessagesCmd())
}

func (m MessagesModel) loadMessagesCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return messagesLoadedMsg{err: session.Load(context.Background())}
	}
}

func (m MessagesModel) deliverCmd(p chat.Pending) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		p, err := session.Deliver(context.Background(), p)
		return messageDeliveredMsg{pending: p, err: err}
	}
}

func (m MessagesModel) busy() bool {
	return m.session.Loading() || m.session.Sending()
}

func (m MessagesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height

		headerHeight := 3
		textareaHeight := 5
		helpHeight := 2

		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - headerHeight - textareaHeight - helpHeight
		m.textarea.SetWidth(msg.Width - 4)
		m.renderer.setWidth(m.viewport.Width)
		m.refreshViewport()
		return m, nil

	case messagesLoadedMsg:
		// Failures are logged by the session; the list stays as it was.
		m.refreshViewport()
		return m, nil

	case messageDeliveredMsg:
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.session.Close()
			return m, tea.Quit

		case "esc":
			m.session.Close()
			convModel, cmd := resize(newConversationsModelSelecting(m.app, m.chat.ID), m.windowWidth, m.windowHeight)
			convModel.loading = true
			return convModel, tea.Batch(cmd, convModel.spinner.Tick, convModel.loadChatsCmd())

		case "enter":
			p, ok := m.session.Append(m.session.Input())
			if !ok {
				return m, nil
			}
			m.textarea.Reset()
			m.refreshViewport()
			return m, tea.Batch(m.spinner.Tick, m.deliverCmd(p))

		case "ctrl+r":
			if m.session.Loading() {
				return m, nil
			}
			return m, tea.Batch(m.spinner.Tick, m.loadMessagesCmd())

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		m.session.SetInput(m.textarea.Value())
		return m, cmd
	}

	return m, nil
}

// refreshViewport re-renders the conversation and follows the bottom when the
// number of messages changed.
func (m *MessagesModel) refreshViewport() {
	msgs := m.session.Messages()
	m.viewport.SetContent(m.renderer.render(msgs))
	if len(msgs) != m.rendered {
		m.viewport.GotoBottom()
		m.rendered = len(msgs)
	}
}

func (m MessagesModel) View() string {
	title := m.chat.Title
	if title == "" {
		title = m.chat.ID
	}
	s := titleStyle.Render(fmt.Sprintf("💬 %s", title)) + "\n"

	msgs := m.session.Messages()
	switch {
	case m.session.Loading() && len(msgs) == 0:
		s += fmt.Sprintf("\n  %s Loading messages...\n", m.spinner.View())
	case len(msgs) == 0:
		s += normalStyle.Render("  No messages yet. Say hello!") + "\n"
	default:
		s += m.viewport.View() + "\n"
	}

	if m.session.Sending() {
		s += fmt.Sprintf("  %s Waiting for reply...\n", m.spinner.View())
	}

	s += "\n" + inputStyle.Render("Message:") + "\n"
	s += m.textarea.View() + "\n"

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	s += helpStyle.Render(fmt.Sprintf("enter: send • alt+enter: newline • pgup/pgdn: scroll • ctrl+r: refresh • esc: back • %d%%", scrollPercent))
	return s
}
