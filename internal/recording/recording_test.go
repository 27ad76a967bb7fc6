package recording

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/logger"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.SampleRate != 16000 {
		t.Errorf("default sample rate should be 16000, got %d", config.SampleRate)
	}
	if config.Channels != 1 {
		t.Errorf("default channels should be 1, got %d", config.Channels)
	}
	if config.Format != "s16" {
		t.Errorf("default format should be s16, got %s", config.Format)
	}
	if err := validate(config); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestRecorderValidateConfig(t *testing.T) {
	logger.Discard()

	valid := DefaultConfig()
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"invalid sample rate", func(c *Config) { c.SampleRate = 0 }, true},
		{"negative sample rate", func(c *Config) { c.SampleRate = -1 }, true},
		{"invalid channels", func(c *Config) { c.Channels = 0 }, true},
		{"invalid buffer size", func(c *Config) { c.BufferSize = 0 }, true},
		{"invalid channel buffer size", func(c *Config) { c.ChannelBufferSize = 0 }, true},
		{"empty format", func(c *Config) { c.Format = "" }, true},
		{"unaligned buffer size", func(c *Config) { c.BufferSize = 3201 }, false},
		{"stereo", func(c *Config) { c.Channels = 2; c.SampleRate = 48000 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := NewRecorder(c).validateConfig()
			if (err != nil) != tt.expectError {
				t.Errorf("validateConfig() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestRecorderBuildPwRecordArgs(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected []string
	}{
		{
			name:     "default config",
			config:   DefaultConfig(),
			expected: []string{"--format", "s16", "--rate", "16000", "--channels", "1", "-"},
		},
		{
			name: "with device",
			config: Config{
				SampleRate: 48000,
				Channels:   2,
				Format:     "f32",
				Device:     "alsa_input.usb-mic",
			},
			expected: []string{"--format", "f32", "--rate", "48000", "--channels", "2", "-", "--target", "alsa_input.usb-mic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := NewRecorder(tt.config).buildPwRecordArgs()
			if len(args) != len(tt.expected) {
				t.Fatalf("args = %v, expected %v", args, tt.expected)
			}
			for i, arg := range args {
				if arg != tt.expected[i] {
					t.Errorf("arg[%d] = %q, expected %q", i, arg, tt.expected[i])
				}
			}
		})
	}
}

func TestRecorderLifecycle(t *testing.T) {
	recorder := NewRecorder(DefaultConfig())
	if recorder.IsRecording() {
		t.Error("recorder should not be recording initially")
	}
	// stop before start is a no-op
	recorder.Stop()

	recorder.recording.Store(true)
	defer recorder.recording.Store(false)
	if _, _, err := recorder.Start(context.Background()); err == nil || err.Error() != "already recording" {
		t.Errorf("Start() while recording error = %v", err)
	}
}

func collect(t *testing.T, frames <-chan AudioFrame, errs <-chan error) ([][]byte, error) {
	t.Helper()
	var out [][]byte
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return out, <-errs
			}
			out = append(out, f.Data)
		case <-timeout:
			t.Fatal("source did not finish")
		}
	}
}

func TestReaderSourceChunks(t *testing.T) {
	src := NewReaderSource(bytes.NewReader([]byte("abcdefghij")), 4)
	frames, errs, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	got, err := collect(t, frames, errs)
	if err != nil {
		t.Fatalf("source error: %v", err)
	}
	want := []string{"abcd", "efgh", "ij"}
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestReaderSourceError(t *testing.T) {
	frames, errs, err := NewReaderSource(failingReader{}, 4).Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, err := collect(t, frames, errs); err == nil {
		t.Error("expected read error to surface")
	}
}

func TestReaderSourceInvalidChunk(t *testing.T) {
	if _, _, err := NewReaderSource(bytes.NewReader(nil), 0).Start(context.Background()); err == nil {
		t.Error("Start() with chunk size 0 should fail")
	}
}

func TestReaderSourceCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewReaderSource(bytes.NewReader(make([]byte, 1<<20)), 16).Paced(DefaultConfig())
	frames, errs, err := src.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	<-frames
	cancel()

	if _, err := collect(t, frames, errs); err != nil {
		t.Errorf("cancel should end the source cleanly, got %v", err)
	}
}

func TestPaced(t *testing.T) {
	src := NewReaderSource(nil, 3200).Paced(DefaultConfig())
	// 3200 bytes of 16kHz mono s16 is 100ms
	if src.pace != 100*time.Millisecond {
		t.Errorf("pace = %v, want 100ms", src.pace)
	}
}
