// Package config loads the client configuration.
//
// Values are layered: built-in defaults, then the YAML file in the user's
// chatbot directory, then environment variables (optionally seeded from a
// .env file). Command-line flags are applied by the caller before Validate.
package config

import (
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// DefaultPath is where the config file lives unless --config says otherwise.
	DefaultPath = "~/.chatbot/config.yml"

	// DefaultChatTitle is the title given to chats created without one.
	DefaultChatTitle = "Nova Consulta"
)

var validate = validator.New()

// Config holds configuration for the chatbot client.
type Config struct {
	APIURL             string        `yaml:"api_url" env:"CHATBOT_API_URL" validate:"required,url"`
	HTTPTimeout        time.Duration `yaml:"http_timeout" env:"CHATBOT_HTTP_TIMEOUT" validate:"gte=0"`
	SkipBrowserWarning bool          `yaml:"skip_browser_warning" env:"CHATBOT_SKIP_BROWSER_WARNING"`
	CircuitBreaker     bool          `yaml:"circuit_breaker" env:"CHATBOT_CIRCUIT_BREAKER"`
	DefaultChatTitle   string        `yaml:"default_chat_title" env:"CHATBOT_DEFAULT_CHAT_TITLE" validate:"required"`
	LogLevel           string        `yaml:"log_level" env:"CHATBOT_LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFile            string        `yaml:"log_file" env:"CHATBOT_LOG_FILE"`
	MetricsAddr        string        `yaml:"metrics_addr" env:"CHATBOT_METRICS_ADDR" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:             "http://localhost:8000",
		HTTPTimeout:        60 * time.Second,
		SkipBrowserWarning: true,
		CircuitBreaker:     true,
		DefaultChatTitle:   DefaultChatTitle,
		LogLevel:           "info",
		LogFile:            "~/.chatbot/chatbot.log",
	}
}

// LoadDotEnv seeds the process environment from .env files. Missing files are
// not an error; variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if !fileExists(f) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "loading %s", f)
		}
	}
	return nil
}

// Load reads the config file at path (creating it with defaults when absent)
// and applies environment overrides on top.
func Load(path string) (*Config, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding config path")
	}

	cfg := Default()
	if err := initializeIfNotPresent(path, cfg); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	if err := readFile(path, cfg); err != nil {
		return nil, err
	}

	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, errors.Wrap(err, "reading environment")
	}

	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.LogFile, err = ExpandPath(cfg.LogFile); err != nil {
		return nil, errors.Wrap(err, "expanding log file path")
	}
	return cfg, nil
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}
