package config

import (
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/recording"
	"github.com/leonardotrapani/transcribebridge/internal/transcribe"
	"github.com/leonardotrapani/transcribebridge/internal/translate"
)

type Config struct {
	Runtime   RuntimeConfig   `toml:"runtime"`
	API       APIConfig       `toml:"api"`
	Stream    StreamConfig    `toml:"stream"`
	Translate TranslateConfig `toml:"translate"`
	Log       LogConfig       `toml:"log"`
	Recording RecordingConfig `toml:"recording"`
}

// RuntimeConfig sizes the process-wide execution engine
type RuntimeConfig struct {
	Workers int `toml:"workers"`
}

// APIConfig points at the transcription service
type APIConfig struct {
	BaseURL string        `toml:"base_url"`
	WSURL   string        `toml:"ws_url"`
	Timeout time.Duration `toml:"timeout"`
	Token   string        `toml:"token"` // or TRANSCRIBE_TOKEN
}

type StreamConfig struct {
	QueueSize    int           `toml:"queue_size"`
	ReadTimeout  time.Duration `toml:"read_timeout"`  // poll interval used by the CLI reader
	ChunkSize    int           `toml:"chunk_size"`    // bytes per write_binary call when streaming a file
	WriteTimeout time.Duration `toml:"write_timeout"` // deadline for one websocket write
}

type TranslateConfig struct {
	Backend       string `toml:"backend"` // "service" or "openai"
	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIModel   string `toml:"openai_model"`
	OpenAIBaseURL string `toml:"openai_base_url"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

type RecordingConfig struct {
	SampleRate        int    `toml:"sample_rate"`
	Channels          int    `toml:"channels"`
	Format            string `toml:"format"`
	BufferSize        int    `toml:"buffer_size"`
	Device            string `toml:"device"`
	ChannelBufferSize int    `toml:"channel_buffer_size"`
}

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:        c.Recording.SampleRate,
		Channels:          c.Recording.Channels,
		Format:            c.Recording.Format,
		BufferSize:        c.Recording.BufferSize,
		Device:            c.Recording.Device,
		ChannelBufferSize: c.Recording.ChannelBufferSize,
	}
}

func (c *Config) ToClientConfig() transcribe.Config {
	return transcribe.Config{
		BaseURL: c.API.BaseURL,
		WSURL:   c.API.WSURL,
		Timeout: c.API.Timeout,
	}
}

func (c *Config) ToTranslateConfig() translate.Config {
	return translate.Config{
		Backend: c.Translate.Backend,
		APIKey:  c.Translate.OpenAIAPIKey,
		Model:   c.Translate.OpenAIModel,
		BaseURL: c.Translate.OpenAIBaseURL,
	}
}
