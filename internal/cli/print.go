// Package cli prints chats and conversations for the scripting subcommands.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/roboberto1403/chatbot/internal/models"
)

var (
	// Colors.
	userColor    = color.New(color.Bold)
	modelColor   = color.New(color.FgCyan)
	formatColor  = color.New(color.FgGreen)
	pendingColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)

	width = terminalWidth()
)

const previewLength = 60

func terminalWidth() int {
	if w := goterm.Width(); w > 0 {
		return w
	}
	return 80
}

// Separator printed to w.
func Separator(w io.Writer) {
	formatColor.Fprintln(w, strings.Repeat("-", width))
}

// Title printed to w, centered between separators.
func Title(w io.Writer, text string, args ...any) {
	title := "      " + fmt.Sprintf(text, args...) + "      "
	leftWidth := max((width-len(title))/2, 0)
	separator1 := strings.Repeat("-", leftWidth)
	separator2 := strings.Repeat("-", max(width-len(title)-len(separator1), 0))
	formatColor.Fprintf(w, "%s%s%s\n", separator1, title, separator2)
}

// Chats prints the chat list as a table.
func Chats(w io.Writer, chats []models.Chat) {
	if len(chats) == 0 {
		fmt.Fprintln(w, "No conversations yet.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "Last message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, c := range chats {
		table.Append([]string{c.ID, c.Title, preview(c.LastMessage)})
	}
	table.Render()
}

// Conversation prints every message of a chat under its title.
func Conversation(w io.Writer, title string, msgs []models.Message) {
	Title(w, "%s", title)
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages yet.")
	}
	for _, m := range msgs {
		switch {
		case m.IsTemporary():
			pendingColor.Fprintf(w, "-> %s (not delivered)\n", m.Text)
		case m.IsFromUser():
			userColor.Fprintf(w, "-> %s\n", m.Text)
		default:
			modelColor.Fprintf(w, "%s\n", m.Text)
		}
	}
	Separator(w)
}

// Created prints the id of a new chat.
func Created(w io.Writer, id string) {
	formatColor.Fprintf(w, "Created chat %s\n", id)
}

// Error printed to w.
func Error(w io.Writer, err error) {
	errorColor.Fprintf(w, "Error: %v\n", err)
}

// AskTitle prompts for a chat title, prefilled with def.
func AskTitle(def string) (string, error) {
	var title string
	question := &survey.Input{
		Message: "Chat title:",
		Default: def,
	}
	if err := survey.AskOne(question, &title); err != nil {
		return "", err
	}
	return title, nil
}

func preview(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len([]rune(text)) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength-3]) + "..."
}
