package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roboberto1403/chatbot/internal/cli"
)

// newChatsCmd instantiates and returns the chats command.
func newChatsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.app.chats.Load(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load chats: %w", err)
			}
			cli.Chats(cmd.OutOrStdout(), r.app.chats.Chats())
			return nil
		},
	}
}

// newNewCmd instantiates and returns the new command.
func newNewCmd(r *runner) *cobra.Command {
	var opts struct {
		Title string
	}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			title := opts.Title
			if !cmd.Flags().Changed("title") && isatty.IsTerminal(os.Stdin.Fd()) {
				answer, err := cli.AskTitle(r.app.cfg.DefaultChatTitle)
				if err != nil {
					return err
				}
				title = answer
			}

			id, err := r.app.chats.Create(cmd.Context(), title)
			if err != nil {
				return fmt.Errorf("failed to create chat: %w", err)
			}
			cli.Created(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "chat title (defaults to the configured title)")
	return cmd
}

// newMessagesCmd instantiates and returns the messages command.
func newMessagesCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <chat-id>",
		Short: "Print the messages of a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID := args[0]
			session := r.app.newSession(chatID)
			defer session.Close()

			if err := session.Load(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load messages: %w", err)
			}
			cli.Conversation(cmd.OutOrStdout(), r.chatTitle(cmd, chatID), session.Messages())
			return nil
		},
	}
}

// newSendCmd instantiates and returns the send command.
func newSendCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "send <chat-id> <text...>",
		Short: "Send a message and print the conversation with the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID := args[0]
			text := strings.Join(args[1:], " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("nothing to send")
			}

			session := r.app.newSession(chatID)
			defer session.Close()

			if err := session.Load(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load messages: %w", err)
			}
			sendErr := session.Send(cmd.Context(), text)

			cli.Conversation(cmd.OutOrStdout(), r.chatTitle(cmd, chatID), session.Messages())
			if sendErr != nil {
				return fmt.Errorf("failed to send message: %w", sendErr)
			}
			return nil
		},
	}
}

// newVersionCmd instantiates and returns the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatbot v%s\n", version)
		},
	}
}

// chatTitle looks the chat up for display, falling back to its id.
func (r *runner) chatTitle(cmd *cobra.Command, chatID string) string {
	c, err := r.app.client.GetChat(cmd.Context(), chatID)
	if err != nil {
		r.app.logger.Warn("failed to fetch chat title", zap.String("chat_id", chatID), zap.Error(err))
		return chatID
	}
	if c.Title == "" {
		return chatID
	}
	return c.Title
}
