package config

import "time"

const (
	DefaultBaseURL = "https://api.dianyaai.com/v1"
	DefaultWSURL   = "wss://api.dianyaai.com/v1/transcribe/stream"
)

// DefaultConfig returns the configuration written by SaveDefaultConfig.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Workers: 4,
		},
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			WSURL:   DefaultWSURL,
			Timeout: 60 * time.Second,
		},
		Stream: StreamConfig{
			QueueSize:    1024,
			ReadTimeout:  200 * time.Millisecond,
			ChunkSize:    3200,
			WriteTimeout: 10 * time.Second,
		},
		Translate: TranslateConfig{
			Backend:     "service",
			OpenAIModel: "gpt-4o-mini",
		},
		Log: LogConfig{
			Level: "info",
		},
		Recording: RecordingConfig{
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16",
			BufferSize:        3200,
			Device:            "",
			ChannelBufferSize: 30,
		},
	}
}
