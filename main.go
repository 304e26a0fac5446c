package main

import (
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roboberto1403/chatbot/internal/api"
	"github.com/roboberto1403/chatbot/internal/chat"
	"github.com/roboberto1403/chatbot/internal/cli"
	"github.com/roboberto1403/chatbot/internal/config"
	"github.com/roboberto1403/chatbot/internal/observability"
	"github.com/roboberto1403/chatbot/internal/ui"
)

const version = "1.0.0"

const help = `Chatbot - Terminal client for the triage chat API

Navigation:
  ↑/↓ or j/k        Navigate lists
  Enter             Open chat / send message
  ESC               Go back
  q                 Quit from the chat list
  ctrl+c            Force quit

Conversations:
  n                 New chat
  /                 Search chats
  r                 Refresh chat list

Messages:
  enter             Send message
  alt+enter         Insert a newline
  pgup/pgdn         Scroll messages
  ctrl+r            Refresh messages

Configuration:
  Settings are read from ~/.chatbot/config.yml, then from .env and
  CHATBOT_* environment variables. Logs go to ~/.chatbot/chatbot.log.
`

type options struct {
	configPath string
	apiURL     string
	logLevel   string
}

// application is everything a command needs, built once the flags are parsed.
type application struct {
	cfg         *config.Config
	logger      *zap.Logger
	metrics     *observability.Metrics
	client      *api.Client
	chats       *chat.ChatList
	stopMetrics func()
}

func newApplication(opts options) (*application, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	metrics := observability.NewMetrics()

	clientOpts := api.Options{
		BaseURL:            cfg.APIURL,
		HTTPClient:         &http.Client{Timeout: cfg.HTTPTimeout},
		SkipBrowserWarning: cfg.SkipBrowserWarning,
		Metrics:            metrics,
	}
	if cfg.CircuitBreaker {
		clientOpts.Breaker = api.NewCircuitBreaker("chat-api")
	}
	client := api.NewClient(clientOpts)

	a := &application{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		client:      client,
		chats:       chat.NewChatList(client, cfg.DefaultChatTitle, logger),
		stopMetrics: func() {},
	}
	if cfg.MetricsAddr != "" {
		a.stopMetrics = observability.StartDebugServer(cfg.MetricsAddr, metrics, logger)
	}

	logger.Info("chatbot started",
		zap.String("version", version),
		zap.String("api_url", cfg.APIURL),
	)
	return a, nil
}

func (a *application) Close() {
	if a == nil {
		return
	}
	a.stopMetrics()
	_ = a.logger.Sync()
}

func (a *application) newSession(chatID string) *chat.Session {
	return chat.NewSession(chatID, a.client, a.logger, a.metrics)
}

// runner carries the parsed flags and, once a command starts, the
// application built from them.
type runner struct {
	opts options
	app  *application
}

func (r *runner) Close() {
	r.app.Close()
}

func newRootCmd(r *runner) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chatbot",
		Short:         "Terminal client for the triage chat API",
		Long:          help,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			app, err := newApplication(r.opts)
			if err != nil {
				return err
			}
			r.app = app
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(r.app)
		},
	}

	rootCmd.PersistentFlags().StringVar(&r.opts.configPath, "config", config.DefaultPath, "path to the config file")
	rootCmd.PersistentFlags().StringVar(&r.opts.apiURL, "api-url", "", "chat API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&r.opts.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(
		newChatsCmd(r),
		newNewCmd(r),
		newMessagesCmd(r),
		newSendCmd(r),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	r := &runner{}
	err := newRootCmd(r).Execute()
	r.Close()
	if err != nil {
		cli.Error(os.Stderr, err)
		os.Exit(1)
	}
}

func runTUI(app *application) error {
	model := ui.NewConversationsModel(&ui.App{
		Chats:        app.chats,
		Messages:     app.client,
		DefaultTitle: app.cfg.DefaultChatTitle,
		Logger:       app.logger,
		Metrics:      app.metrics,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run the interface: %w", err)
	}
	return nil
}
