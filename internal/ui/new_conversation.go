package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type chatCreatedMsg struct {
	id  string
	err error
}

type NewConversationModel struct {
	app          *App
	titleInput   textinput.Model
	creating     bool
	spinner      spinner.Model
	windowWidth  int
	windowHeight int
}

func NewNewConversationModel(app *App) NewConversationModel {
	titleInput := textinput.New()
	titleInput.Placeholder = app.DefaultTitle
	titleInput.Focus()
	titleInput.CharLimit = 100
	titleInput.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	return NewConversationModel{
		app:        app,
		titleInput: titleInput,
		spinner:    s,
	}
}

func (m NewConversationModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m NewConversationModel) createChatCmd(title string) tea.Cmd {
	chats := m.app.Chats
	return func() tea.Msg {
		id, err := chats.Create(context.Background(), title)
		return chatCreatedMsg{id: id, err: err}
	}
}

func (m NewConversationModel) back(selectID string) (tea.Model, tea.Cmd) {
	conversationsModel, cmd := resize(newConversationsModelSelecting(m.app, selectID), m.windowWidth, m.windowHeight)
	return conversationsModel, tea.Batch(conversationsModel.Init(), cmd)
}

func (m NewConversationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.titleInput.Width = msg.Width - 20
		return m, nil

	case chatCreatedMsg:
		// The list was reloaded by Create; on failure it is left as it was.
		m.creating = false
		return m.back(msg.id)

	case spinner.TickMsg:
		if m.creating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.creating {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			return m.back("")

		case "enter":
			m.creating = true
			m.titleInput.Blur()
			return m, tea.Batch(m.spinner.Tick, m.createChatCmd(m.titleInput.Value()))
		}
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m NewConversationModel) View() string {
	content := titleStyle.Render("New Conversation") + "\n\n"
	content += formStyle.Render(
		"> Title:\n" +
			m.titleInput.View(),
	)

	if m.creating {
		content += fmt.Sprintf("\n\n  %s Creating chat...", m.spinner.View())
	}

	content += "\n\n" + helpStyle.Render("enter: create • esc: back • ctrl+c: quit")
	return content
}
