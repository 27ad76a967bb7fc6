package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
)

var ErrConfigNotFound = errors.New("config not found")

const (
	EnvToken        = "TRANSCRIBE_TOKEN"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	appDir := filepath.Join(configDir, "transcribebridge")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(appDir, "config.toml"), nil
}

// Load reads the user config file, creating it with defaults on first use.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		l := logger.For("config")
		l.Info().Str("path", configPath).Msg("no config file found, creating with defaults")
		if err := SaveDefaultConfig(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	return LoadFile(configPath)
}

// LoadFile decodes path on top of the defaults and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	l := logger.For("config")
	l.Debug().Str("path", path).Msg("loading configuration")

	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	config.applyEnv()

	l.Debug().Msg("configuration loaded")
	return config, nil
}

func (c *Config) applyEnv() {
	if c.API.Token == "" {
		c.API.Token = os.Getenv(EnvToken)
	}
	if c.Translate.OpenAIAPIKey == "" {
		c.Translate.OpenAIAPIKey = os.Getenv(EnvOpenAIAPIKey)
	}
}

// Save writes c to path in TOML form.
func (c *Config) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(c); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}
	return nil
}

func SaveDefaultConfig(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(defaultConfigContent); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}
	return nil
}

const defaultConfigContent = `# transcribebridge configuration
# Changes are picked up while a stream is running.

[runtime]
  workers = 4                  # concurrent one-shot operations

[api]
  base_url = "https://api.dianyaai.com/v1"
  ws_url = "wss://api.dianyaai.com/v1/transcribe/stream"
  timeout = "60s"              # per-request timeout
  token = ""                   # or set TRANSCRIBE_TOKEN

[stream]
  queue_size = 1024            # frames buffered between the stream and readers
  read_timeout = "200ms"       # how long the CLI waits per read
  chunk_size = 3200            # bytes per audio write when streaming a file
  write_timeout = "10s"        # give up on a websocket write after this long

[translate]
  backend = "service"          # "service" or "openai"
  openai_api_key = ""          # or set OPENAI_API_KEY
  openai_model = "gpt-4o-mini"
  openai_base_url = ""         # empty = api.openai.com

[log]
  level = "info"               # trace, debug, info, warn, error
  json = false

[recording]
  sample_rate = 16000
  channels = 1
  format = "s16"
  buffer_size = 3200           # bytes per captured frame
  device = ""                  # PipeWire device (empty = default microphone)
  channel_buffer_size = 30
`
