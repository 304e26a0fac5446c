package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"github.com/roboberto1403/chatbot/internal/models"
)

const previewWidth = 50

type chatItem struct {
	chat models.Chat
}

type chatsLoadedMsg struct {
	err error
}

func (i chatItem) Title() string {
	if i.chat.Title == "" {
		return i.chat.ID
	}
	return i.chat.Title
}

func (i chatItem) Description() string {
	if i.chat.LastMessage == "" {
		return "no messages yet"
	}
	return truncate.StringWithTail(i.chat.LastMessage, previewWidth, "...")
}

func (i chatItem) FilterValue() string {
	return i.chat.Title
}

type ConversationsModel struct {
	app          *App
	list         list.Model
	loading      bool
	spinner      spinner.Model
	windowWidth  int
	windowHeight int
	selectID     string
}

func NewConversationsModel(app *App) ConversationsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	l := list.New([]list.Item{}, newListDelegate(), 80, 20)
	l.Title = "Conversations"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return ConversationsModel{
		app:          app,
		list:         l,
		loading:      true,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

// newConversationsModelSelecting shows the already loaded list with chatID
// highlighted, without fetching again.
func newConversationsModelSelecting(app *App, chatID string) ConversationsModel {
	m := NewConversationsModel(app)
	m.loading = false
	m.selectID = chatID
	m.refreshItems()
	return m
}

func (m ConversationsModel) Init() tea.Cmd {
	if !m.loading {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.loadChatsCmd())
}

func (m ConversationsModel) loadChatsCmd() tea.Cmd {
	chats := m.app.Chats
	return func() tea.Msg {
		return chatsLoadedMsg{err: chats.Load(context.Background())}
	}
}

func (m *ConversationsModel) refreshItems() {
	chats := m.app.Chats.Chats()
	items := make([]list.Item, len(chats))
	selected := -1
	for i, c := range chats {
		items[i] = chatItem{chat: c}
		if m.selectID != "" && c.ID == m.selectID {
			selected = i
		}
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("Conversations - %d chats", len(chats))
	if selected >= 0 {
		m.list.Select(selected)
		m.selectID = ""
	}
}

func (m ConversationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case chatsLoadedMsg:
		// A failed load keeps the previous list; the controller logged it.
		m.loading = false
		m.refreshItems()
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.list.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "r":
			if !m.loading {
				m.loading = true
				return m, tea.Batch(m.spinner.Tick, m.loadChatsCmd())
			}
			return m, nil

		case "n":
			if m.loading {
				return m, nil
			}
			form, cmd := resize(NewNewConversationModel(m.app), m.windowWidth, m.windowHeight)
			return form, tea.Batch(form.Init(), cmd)

		case "enter":
			if m.loading {
				return m, nil
			}
			if item, ok := m.list.SelectedItem().(chatItem); ok {
				selected, found := m.app.Chats.Select(item.chat.ID)
				if !found {
					selected = item.chat
				}
				messagesModel, cmd := resize(NewMessagesModel(m.app, selected), m.windowWidth, m.windowHeight)
				return messagesModel, tea.Batch(messagesModel.Init(), cmd)
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ConversationsModel) View() string {
	if m.loading && len(m.list.Items()) == 0 {
		return fmt.Sprintf("\n  %s Loading conversations...\n", m.spinner.View())
	}

	if len(m.list.Items()) == 0 {
		s := titleStyle.Render("Conversations") + "\n\n"
		s += normalStyle.Render("  No conversations yet.") + "\n"
		s += "\n" + helpStyle.Render("n: new chat • r: refresh • q: quit")
		return s
	}

	s := m.list.View() + "\n"
	if m.loading {
		s += fmt.Sprintf("%s Refreshing...\n", m.spinner.View())
	}
	s += helpStyle.Render("↑↓/jk: navigate • enter: open • n: new chat • /: search • r: refresh • q: quit")
	return s
}
