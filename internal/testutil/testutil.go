package testutil

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/config"
	"github.com/leonardotrapani/transcribebridge/internal/language"
	"github.com/leonardotrapani/transcribebridge/internal/recording"
	"github.com/leonardotrapani/transcribebridge/internal/transcribe"
)

// TestConfig returns a valid configuration for testing
func TestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = "http://127.0.0.1:1/v1"
	cfg.API.WSURL = "ws://127.0.0.1:1/v1/transcribe/stream"
	cfg.API.Token = "test-token"
	cfg.API.Timeout = 5 * time.Second
	cfg.Stream.QueueSize = 16
	cfg.Runtime.Workers = 2
	return cfg
}

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// MockAudioFrame creates a test audio frame
func MockAudioFrame(data []byte) recording.AudioFrame {
	if data == nil {
		data = make([]byte, 1024)
		for i := range data {
			data[i] = byte(i % 256)
		}
	}

	return recording.AudioFrame{
		Data:      data,
		Timestamp: time.Now(),
	}
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// CaptureOutput captures stdout for testing
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	out, _ := io.ReadAll(r)
	return string(out)
}

// ErrFakeNotConnected is what FakeConn returns for I/O before Start,
// the same error a real stream gives.
var ErrFakeNotConnected = transcribe.ErrNotConnected

// FakeConn is an in-memory realtime connection. Frames pushed with Push are
// delivered to the current subscriber; writes are recorded.
type FakeConn struct {
	StartError error
	WriteError error

	mu      sync.Mutex
	frames  chan string
	starts  int
	stops   int
	binary  [][]byte
	texts   []string
	started bool
}

func NewFakeConn() *FakeConn {
	return &FakeConn{}
}

func (c *FakeConn) Start(ctx context.Context) error {
	if c.StartError != nil {
		return c.StartError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = make(chan string, 64)
	c.started = true
	c.starts++
	return nil
}

func (c *FakeConn) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	if c.started {
		close(c.frames)
		c.started = false
	}
}

func (c *FakeConn) Subscribe() (<-chan string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil, ErrFakeNotConnected
	}
	return c.frames, nil
}

func (c *FakeConn) WriteBinary(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return ErrFakeNotConnected
	}
	if c.WriteError != nil {
		return c.WriteError
	}
	c.binary = append(c.binary, append([]byte(nil), data...))
	return nil
}

func (c *FakeConn) WriteText(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return ErrFakeNotConnected
	}
	if c.WriteError != nil {
		return c.WriteError
	}
	c.texts = append(c.texts, text)
	return nil
}

// Push delivers frame to the subscriber. It reports false when the connection is not started.
func (c *FakeConn) Push(frame string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return false
	}
	c.frames <- frame
	return true
}

// End closes the incoming side as if the server hung up.
func (c *FakeConn) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		close(c.frames)
		c.started = false
	}
}

func (c *FakeConn) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *FakeConn) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

func (c *FakeConn) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

func (c *FakeConn) BinaryWrites() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.binary))
	copy(out, c.binary)
	return out
}

func (c *FakeConn) TextWrites() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.texts))
	copy(out, c.texts)
	return out
}

// FakeDialer hands out FakeConns and remembers them by session id.
type FakeDialer struct {
	mu    sync.Mutex
	conns map[string]*FakeConn
}

func NewFakeDialer() *FakeDialer {
	return &FakeDialer{conns: make(map[string]*FakeConn)}
}

// Dial has the shape of a session dialer.
func (d *FakeDialer) Dial(sessionID string) *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := NewFakeConn()
	d.conns[sessionID] = c
	return c
}

// Conn returns the last connection dialed for sessionID
func (d *FakeDialer) Conn(sessionID string) *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[sessionID]
}

// FakeAPI implements transcribe.API. Unset funcs return canned successes;
// Err, when set, is returned by every call. Tokens seen are recorded.
type FakeAPI struct {
	Err error

	UploadFunc        func(path string, transcribeOnly, shortASR bool, model transcribe.ModelType) (*transcribe.UploadResponse, error)
	StatusFunc        func(taskID, shareID *string) (*transcribe.StatusResponse, error)
	TranslateTextFunc func(text string, lang language.Language) (*transcribe.TextTranslator, error)

	mu     sync.Mutex
	calls  []string
	tokens []string
}

var _ transcribe.API = (*FakeAPI)(nil)

func (f *FakeAPI) record(op, token string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	return f.Err
}

// Calls returns the operations invoked so far, in order
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeAPI) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

func (f *FakeAPI) Upload(ctx context.Context, path string, transcribeOnly, shortASR bool, model transcribe.ModelType, token string) (*transcribe.UploadResponse, error) {
	if err := f.record("upload", token); err != nil {
		return nil, err
	}
	if f.UploadFunc != nil {
		return f.UploadFunc(path, transcribeOnly, shortASR, model)
	}
	return &transcribe.UploadResponse{TaskID: "task-1", Status: "pending"}, nil
}

func (f *FakeAPI) Status(ctx context.Context, taskID, shareID *string, token string) (*transcribe.StatusResponse, error) {
	if err := f.record("status", token); err != nil {
		return nil, err
	}
	if f.StatusFunc != nil {
		return f.StatusFunc(taskID, shareID)
	}
	return &transcribe.StatusResponse{
		Status:  "done",
		Details: []transcribe.Utterance{{StartTime: 0, EndTime: 1.5, Text: "hello", Speaker: 1}},
	}, nil
}

func (f *FakeAPI) Callback(ctx context.Context, req *transcribe.CallbackRequest, token string) (*transcribe.CallbackResponse, error) {
	if err := f.record("callback", token); err != nil {
		return nil, err
	}
	return &transcribe.CallbackResponse{Status: "ok"}, nil
}

func (f *FakeAPI) ShareLink(ctx context.Context, taskID string, expirationDays *int32, token string) (*transcribe.ShareLinkResponse, error) {
	if err := f.record("share", token); err != nil {
		return nil, err
	}
	exp := 7
	if expirationDays != nil {
		exp = int(*expirationDays)
	}
	return &transcribe.ShareLinkResponse{ShareURL: "https://share.example/" + taskID, ExpirationTime: exp}, nil
}

func (f *FakeAPI) CreateSummary(ctx context.Context, utterances []transcribe.Utterance, token string) (*transcribe.SummaryCreateResponse, error) {
	if err := f.record("summary", token); err != nil {
		return nil, err
	}
	return &transcribe.SummaryCreateResponse{TaskID: "summary-1"}, nil
}

func (f *FakeAPI) Export(ctx context.Context, taskID string, exportType transcribe.ExportType, format transcribe.ExportFormat, token string) ([]byte, error) {
	if err := f.record("export", token); err != nil {
		return nil, err
	}
	return []byte(string(exportType) + "." + string(format) + ":" + taskID), nil
}

func (f *FakeAPI) TranslateText(ctx context.Context, text string, lang language.Language, token string) (*transcribe.TextTranslator, error) {
	if err := f.record("translate_text", token); err != nil {
		return nil, err
	}
	if f.TranslateTextFunc != nil {
		return f.TranslateTextFunc(text, lang)
	}
	return &transcribe.TextTranslator{Status: "ok", Data: "[" + lang.Code + "] " + text}, nil
}

func (f *FakeAPI) TranslateUtterances(ctx context.Context, utterances []transcribe.Utterance, lang language.Language, token string) (*transcribe.UtteranceTranslator, error) {
	if err := f.record("translate_utterances", token); err != nil {
		return nil, err
	}
	details := make([]transcribe.TranslationDetail, 0, len(utterances))
	for _, u := range utterances {
		details = append(details, transcribe.TranslationDetail{
			StartTime:    u.StartTime,
			EndTime:      u.EndTime,
			Text:         u.Text,
			Speaker:      u.Speaker,
			Translations: map[string]string{lang.Code: "[" + lang.Code + "] " + u.Text},
		})
	}
	return &transcribe.UtteranceTranslator{Status: "ok", TargetLanguage: lang.Code, Details: details}, nil
}

func (f *FakeAPI) TranslateTranscribe(ctx context.Context, taskID string, lang language.Language, token string) (*transcribe.TranscribeTranslator, error) {
	if err := f.record("translate_transcribe", token); err != nil {
		return nil, err
	}
	return &transcribe.TranscribeTranslator{TaskID: taskID, Status: "ok", TargetLanguage: lang.Code}, nil
}

func (f *FakeAPI) CreateSession(ctx context.Context, model transcribe.ModelType, token string) (*transcribe.SessionCreateResponse, error) {
	if err := f.record("create_session", token); err != nil {
		return nil, err
	}
	return &transcribe.SessionCreateResponse{TaskID: "task-rt", SessionID: "sess-" + string(model), MaxTime: 3600}, nil
}

func (f *FakeAPI) CloseSession(ctx context.Context, taskID, token string, timeout *time.Duration) (*transcribe.SessionCloseResponse, error) {
	if err := f.record("close_session", token); err != nil {
		return nil, err
	}
	d := 42
	return &transcribe.SessionCloseResponse{Status: "closed", Duration: &d}, nil
}
