package host

import (
	"runtime"
	"sync"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/boundary"
	"github.com/leonardotrapani/transcribebridge/internal/bridge"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
)

// Stream owns one bridge handle. Close destroys it; a Stream that is garbage
// collected without Close has its handle destroyed by a cleanup.
type Stream struct {
	mu      sync.Mutex
	handle  int64
	cleanup runtime.Cleanup
}

// OpenStream creates a stream for a realtime session id. It is not started.
func OpenStream(sessionID string) (*Stream, error) {
	h, err := invoke(func(env *boundary.Env) int64 {
		return bridge.StreamCreate(env, sessionID)
	})
	if err != nil {
		return nil, err
	}

	s := &Stream{handle: h}
	s.cleanup = runtime.AddCleanup(s, destroyLeaked, h)
	return s, nil
}

func destroyLeaked(h int64) {
	env := boundary.NewEnv()
	bridge.StreamDestroy(env, h)

	l := logger.For("host")
	if ex := env.TakeException(); ex != nil {
		l.Debug().Int64("handle", h).Str("code", string(ex.Code)).Msg("leaked stream already gone")
		return
	}
	l.Warn().Int64("handle", h).Msg("stream collected without Close, destroyed")
}

// Handle returns the raw bridge handle, 0 after Close
func (s *Stream) Handle() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

func (s *Stream) do(fn func(env *boundary.Env, h int64)) error {
	// s must outlive the call, or its cleanup could destroy h underneath it
	defer runtime.KeepAlive(s)

	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()

	_, err := invoke(func(env *boundary.Env) struct{} {
		fn(env, h)
		return struct{}{}
	})
	return err
}

func (s *Stream) Start() error {
	return s.do(bridge.StreamStart)
}

func (s *Stream) Stop() error {
	return s.do(bridge.StreamStop)
}

func (s *Stream) WriteBinary(data []byte) error {
	return s.do(func(env *boundary.Env, h int64) {
		bridge.StreamWriteBinary(env, h, data)
	})
}

func (s *Stream) WriteText(text string) error {
	return s.do(func(env *boundary.Env, h int64) {
		bridge.StreamWriteText(env, h, text)
	})
}

// Read waits up to timeout for the next frame; a negative timeout waits forever.
// ok is false on timeout and at end-of-stream.
func (s *Stream) Read(timeout time.Duration) (frame string, ok bool, err error) {
	defer runtime.KeepAlive(s)

	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()

	millis := int64(-1)
	if timeout >= 0 {
		millis = timeout.Milliseconds()
	}

	env := boundary.NewEnv()
	frame, ok = bridge.StreamRead(env, h, millis)
	if ex := env.TakeException(); ex != nil {
		return "", false, ex
	}
	return frame, ok, nil
}

// Close destroys the handle. Later calls return nil.
func (s *Stream) Close() error {
	defer runtime.KeepAlive(s)

	s.mu.Lock()
	h := s.handle
	s.handle = 0
	s.mu.Unlock()

	if h == 0 {
		return nil
	}
	s.cleanup.Stop()
	_, err := invoke(func(env *boundary.Env) struct{} {
		bridge.StreamDestroy(env, h)
		return struct{}{}
	})
	return err
}
