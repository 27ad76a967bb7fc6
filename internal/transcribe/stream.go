package transcribe

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned by writes and Subscribe on a stream that is not open.
var ErrNotConnected = apierr.New(apierr.KindWS, "websocket not connected")

// frameBuffer is how many text frames the read loop holds before blocking
const frameBuffer = 64

// DefaultWriteTimeout bounds a single write to a peer that stopped reading
const DefaultWriteTimeout = 10 * time.Second

// Stream is the realtime WebSocket for one transcription session.
// It can be started again after Stop.
type Stream struct {
	url    string
	dialer *websocket.Dialer
	header http.Header
	log    zerolog.Logger

	mu     sync.Mutex // guards conn, frames and done
	conn   *websocket.Conn
	frames chan string
	done   chan struct{}
	wg     sync.WaitGroup

	writeMu      sync.Mutex
	writeTimeout time.Duration
}

// NewStream returns an unopened stream for sessionID on the given WebSocket base URL.
func NewStream(wsURL, sessionID string) *Stream {
	l := logger.For("transcribe")
	return &Stream{
		url:    strings.TrimRight(wsURL, "/") + "/" + url.PathEscape(sessionID),
		dialer: websocket.DefaultDialer,
		header: http.Header{},
		log:    l.With().Str("session_id", sessionID).Logger(),

		writeTimeout: DefaultWriteTimeout,
	}
}

// SetWriteTimeout changes the per-write deadline; zero or less restores the default.
func (s *Stream) SetWriteTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultWriteTimeout
	}
	s.writeMu.Lock()
	s.writeTimeout = d
	s.writeMu.Unlock()
}

// URL returns the endpoint the stream dials
func (s *Stream) URL() string { return s.url }

func (s *Stream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return apierr.New(apierr.KindWS, "websocket already connected")
	}

	s.log.Debug().Str("url", s.url).Msg("connecting")
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		if resp != nil {
			s.log.Warn().Int("status", resp.StatusCode).Msg("dial failed")
		}
		return apierr.Wrap(apierr.KindWS, "websocket dial", err)
	}

	s.conn = conn
	s.frames = make(chan string, frameBuffer)
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.readLoop(conn, s.frames, s.done)

	s.log.Info().Msg("connected")
	return nil
}

// readLoop forwards text frames until the connection fails or Stop is called.
func (s *Stream) readLoop(conn *websocket.Conn, frames chan<- string, done <-chan struct{}) {
	defer s.wg.Done()
	defer close(frames)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.log.Warn().Err(err).Msg("read error")
				}
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		select {
		case frames <- string(data):
		case <-done:
			return
		}
	}
}

// Subscribe returns the incoming text frames of the current connection.
func (s *Stream) Subscribe() (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.frames, nil
}

func (s *Stream) WriteBinary(ctx context.Context, data []byte) error {
	return s.write(ctx, websocket.BinaryMessage, data)
}

func (s *Stream) WriteText(ctx context.Context, text string) error {
	return s.write(ctx, websocket.TextMessage, []byte(text))
}

func (s *Stream) write(ctx context.Context, messageType int, data []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return apierr.Wrap(apierr.KindWS, "websocket write", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Now().Add(s.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)

	if err := conn.WriteMessage(messageType, data); err != nil {
		return apierr.Wrap(apierr.KindWS, "websocket write", err)
	}
	return nil
}

// Stop closes the connection and waits for the read loop. It is safe in any state.
func (s *Stream) Stop() {
	s.mu.Lock()
	conn := s.conn
	done := s.done
	s.conn = nil
	s.done = nil
	s.mu.Unlock()

	if conn == nil {
		return
	}
	close(done)

	s.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	conn.Close()

	s.wg.Wait()
	s.log.Info().Msg("closed")
}
