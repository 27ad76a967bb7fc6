package config

import (
	"fmt"
	"net/url"

	"github.com/leonardotrapani/transcribebridge/internal/logger"
)

func (c *Config) Validate() error {
	if c.Runtime.Workers <= 0 {
		return fmt.Errorf("invalid runtime.workers: %d", c.Runtime.Workers)
	}

	if err := validateURL("api.base_url", c.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("api.ws_url", c.API.WSURL, "ws", "wss"); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid api.timeout: %v", c.API.Timeout)
	}

	if c.Stream.QueueSize <= 0 {
		return fmt.Errorf("invalid stream.queue_size: %d", c.Stream.QueueSize)
	}
	if c.Stream.ReadTimeout <= 0 {
		return fmt.Errorf("invalid stream.read_timeout: %v", c.Stream.ReadTimeout)
	}
	if c.Stream.WriteTimeout <= 0 {
		return fmt.Errorf("invalid stream.write_timeout: %v", c.Stream.WriteTimeout)
	}
	if c.Stream.ChunkSize <= 0 {
		return fmt.Errorf("invalid stream.chunk_size: %d", c.Stream.ChunkSize)
	}

	switch c.Translate.Backend {
	case "service":
	case "openai":
		if c.Translate.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAI API key required: not found in config (translate.openai_api_key) or environment variable (OPENAI_API_KEY)")
		}
		if c.Translate.OpenAIModel == "" {
			return fmt.Errorf("translate.openai_model required when translate.backend = \"openai\"")
		}
		if c.Translate.OpenAIBaseURL != "" {
			if err := validateURL("translate.openai_base_url", c.Translate.OpenAIBaseURL, "http", "https"); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("invalid translate.backend: %s (must be service or openai)", c.Translate.Backend)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}

	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.BufferSize <= 0 {
		return fmt.Errorf("invalid recording.buffer_size: %d", c.Recording.BufferSize)
	}
	if c.Recording.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", c.Recording.ChannelBufferSize)
	}
	if c.Recording.Format == "" {
		return fmt.Errorf("invalid recording.format: empty")
	}

	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("invalid %s: empty", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %s (scheme must be one of %v)", field, raw, schemes)
}
