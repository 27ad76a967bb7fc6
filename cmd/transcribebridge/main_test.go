package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/boundary"
	"github.com/leonardotrapani/transcribebridge/internal/config"
	"github.com/leonardotrapani/transcribebridge/internal/recording"
)

type fakeStream struct {
	mu       sync.Mutex
	writes   [][]byte
	stopped  bool
	frames   chan string
	writeErr error
}

func newFakeStream(frames ...string) *fakeStream {
	s := &fakeStream{frames: make(chan string, len(frames))}
	for _, f := range frames {
		s.frames <- f
	}
	return s
}

func (s *fakeStream) WriteBinary(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, data)
	return nil
}

func (s *fakeStream) Read(timeout time.Duration) (string, bool, error) {
	select {
	case f := <-s.frames:
		return f, true, nil
	case <-time.After(timeout):
		return "", false, nil
	}
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func TestPumpWritesAndPrints(t *testing.T) {
	s := newFakeStream(`{"text":"hello"}`, `{"text":"world"}`)
	src := recording.NewReaderSource(bytes.NewReader(make([]byte, 10)), 4)

	var out bytes.Buffer
	if err := pump(context.Background(), &out, s, src, 5*time.Millisecond, 50*time.Millisecond); err != nil {
		t.Fatalf("pump() error: %v", err)
	}

	if len(s.writes) != 3 {
		t.Errorf("expected 3 chunks (4+4+2 bytes), got %d", len(s.writes))
	}
	if !s.stopped {
		t.Error("pump() should stop the stream")
	}
	for _, want := range []string{"hello", "world"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %s", want, out.String())
		}
	}
}

func TestPumpWriteError(t *testing.T) {
	s := newFakeStream()
	s.writeErr = &boundary.Exception{Code: boundary.CodeWS, Message: "websocket not connected"}
	src := recording.NewReaderSource(bytes.NewReader(make([]byte, 8)), 4)

	err := pump(context.Background(), &bytes.Buffer{}, s, src, 5*time.Millisecond, time.Second)
	var ex *boundary.Exception
	if !errors.As(err, &ex) || ex.Code != boundary.CodeWS {
		t.Fatalf("pump() error = %v, want WS exception", err)
	}
	if !strings.Contains(describe(err), "websocket not connected") {
		t.Errorf("describe() = %q", describe(err))
	}
}

func TestPumpCancelled(t *testing.T) {
	s := newFakeStream()
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer pw.Close()
	src := recording.NewReaderSource(pr, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pump(ctx, &bytes.Buffer{}, s, src, 5*time.Millisecond, time.Minute) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("pump() error after cancel: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pump() did not return after cancel")
	}
}

// endedStream answers every Read at once with nothing, like a stopped session.
type endedStream struct {
	fakeStream
	reads atomic.Int64
}

func (s *endedStream) Read(time.Duration) (string, bool, error) {
	s.reads.Add(1)
	return "", false, nil
}

func TestPumpBacksOffOnEndedQueue(t *testing.T) {
	s := &endedStream{}
	src := recording.NewReaderSource(bytes.NewReader(make([]byte, 4)), 4)

	if err := pump(context.Background(), &bytes.Buffer{}, s, src, 20*time.Millisecond, 100*time.Millisecond); err != nil {
		t.Fatalf("pump() error: %v", err)
	}
	// about linger/poll reads; a spinning reader makes millions
	if n := s.reads.Load(); n > 20 {
		t.Errorf("pump() read an ended queue %d times in 100ms", n)
	}
	if !s.stopped {
		t.Error("pump() should stop the stream")
	}
}

func TestResolveToken(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.Token = "from-config"

	tokenFlag = ""
	if got := resolveToken(cfg); got != "from-config" {
		t.Errorf("resolveToken() = %q", got)
	}
	tokenFlag = "from-flag"
	defer func() { tokenFlag = "" }()
	if got := resolveToken(cfg); got != "from-flag" {
		t.Errorf("resolveToken() with flag = %q", got)
	}
}

func TestReadArg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utterances.json")
	if err := os.WriteFile(path, []byte(`[{"text":"a"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := readArg(path)
	if err != nil || got != `[{"text":"a"}]` {
		t.Errorf("readArg() = %q, %v", got, err)
	}
	if _, err := readArg(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("readArg() on a missing file should fail")
	}
}

func TestLanguageTable(t *testing.T) {
	out := languageTable()
	for _, want := range []string{"CODE", "ja", "Japanese", "日本語"} {
		if !strings.Contains(out, want) {
			t.Errorf("language table missing %q", want)
		}
	}
}

func TestMetricsServer(t *testing.T) {
	srv := httptest.NewServer(metricsServer(":0").Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/other")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d", resp.StatusCode)
	}
}

func TestCommandTree(t *testing.T) {
	want := []string{"upload", "status", "callback", "share", "summary", "export", "translate", "session", "stream", "configure", "languages", "metrics", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Errorf("version output = %q", out.String())
	}
}
