package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/engine"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/leonardotrapani/transcribebridge/internal/metrics"
	"github.com/rs/zerolog"
)

// Connection is the external realtime stream a session wraps.
type Connection interface {
	// Start opens the connection
	Start(ctx context.Context) error

	// Stop closes the connection; it is safe to call in any state
	Stop()

	WriteBinary(ctx context.Context, data []byte) error
	WriteText(ctx context.Context, text string) error

	// Subscribe returns the incoming text frames. The channel is closed when the stream ends.
	Subscribe() (<-chan string, error)
}

// Dialer builds the (unopened) connection for a session id
type Dialer func(sessionID string) Connection

var (
	ErrAlreadyStarted = apierr.New(apierr.KindInvalidState, "websocket stream already started")
	ErrNotStarted     = apierr.New(apierr.KindInvalidState, "websocket stream has not been started")
	ErrDestroyed      = apierr.New(apierr.KindInvalidHandle, "stream handle has been destroyed")
	ErrLockPoisoned   = apierr.New(apierr.KindPoisoned, "stream handle lock has been poisoned")
)

// Session is one streaming connection plus its relay task and read queue.
// The relay task and the queue exist together or not at all.
type Session struct {
	id        string
	queueSize int
	log       zerolog.Logger

	mu        sync.Mutex
	conn      Connection
	relay     *engine.Task
	queue     *Queue
	stopped   bool
	destroyed bool
	poisoned  bool
}

func newSession(id string, conn Connection, queueSize int) *Session {
	l := logger.For("session")
	return &Session{
		id:        id,
		conn:      conn,
		queueSize: queueSize,
		log:       l.With().Str("session_id", id).Logger(),
	}
}

// ID returns the session identifier the stream was created for
func (s *Session) ID() string { return s.id }

// locked runs fn under the session lock. A panic inside fn poisons the session.
func (s *Session) locked(fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return ErrLockPoisoned
	}
	if s.destroyed {
		return ErrDestroyed
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			s.log.Error().Interface("panic", r).Msg("session lock poisoned")
			err = fmt.Errorf("%w: %v", ErrLockPoisoned, r)
		}
	}()
	return fn()
}

// Start opens the connection on h and begins relaying frames into a new read queue.
func (s *Session) Start(h *engine.Handle) error {
	return s.locked(func() error {
		if s.relay != nil {
			return ErrAlreadyStarted
		}

		if err := engine.Do(h, s.conn.Start); err != nil {
			return err
		}

		frames, err := s.conn.Subscribe()
		if err != nil {
			s.conn.Stop()
			return err
		}

		q := newQueue(s.queueSize)
		s.relay = h.Spawn(func(ctx context.Context) {
			relay(ctx, frames, q)
		})
		s.queue = q
		s.stopped = false

		s.log.Info().Msg("stream started")
		return nil
	})
}

func relay(ctx context.Context, frames <-chan string, q *Queue) {
	metrics.RelayTasksActive.Inc()
	defer metrics.RelayTasksActive.Dec()
	defer q.close()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if !q.push(ctx, frame) {
				return
			}
			metrics.FramesRelayed.Inc()
		}
	}
}

// Stop closes the connection and aborts the relay task. It never fails and may be repeated.
func (s *Session) Stop() {
	_ = s.locked(func() error {
		s.stopLocked()
		return nil
	})
}

func (s *Session) stopLocked() {
	s.conn.Stop()

	if s.relay != nil {
		// the relay never takes s.mu, and conn.Stop has closed its frames
		s.relay.Abort()
		<-s.relay.Done()
		s.relay = nil
		s.log.Info().Msg("stream stopped")
	}
	if s.queue != nil {
		s.queue = nil
		s.stopped = true
	}
}

// destroy stops the session and marks it unusable. Later calls are no-ops.
func (s *Session) destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.stopLocked()
	s.destroyed = true
}

func (s *Session) WriteBinary(h *engine.Handle, data []byte) error {
	return s.locked(func() error {
		return engine.Do(h, func(ctx context.Context) error {
			return s.conn.WriteBinary(ctx, data)
		})
	})
}

func (s *Session) WriteText(h *engine.Handle, text string) error {
	return s.locked(func() error {
		return engine.Do(h, func(ctx context.Context) error {
			return s.conn.WriteText(ctx, text)
		})
	})
}

// Queue returns the current read queue. After Stop it returns an ended queue.
func (s *Session) Queue() (*Queue, error) {
	var q *Queue
	err := s.locked(func() error {
		switch {
		case s.queue != nil:
			q = s.queue
		case s.stopped:
			q = endedQueue()
		default:
			return ErrNotStarted
		}
		return nil
	})
	return q, err
}

// Read waits up to timeout for the next frame without holding the session lock.
// A negative timeout waits forever. ok is false on timeout or end-of-stream.
func (s *Session) Read(timeout time.Duration) (frame string, ok bool, err error) {
	q, err := s.Queue()
	if err != nil {
		return "", false, err
	}
	frame, ok = q.Recv(timeout)
	return frame, ok, nil
}

// Started reports whether a relay task is running
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relay != nil
}
