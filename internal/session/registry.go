package session

import (
	"fmt"
	"sync"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/engine"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/leonardotrapani/transcribebridge/internal/metrics"
)

// Handle is the opaque integer a caller holds for a session. The low 32 bits are
// the slot index plus one, the high bits the slot generation; zero is never valid.
type Handle int64

func makeHandle(index int, gen uint32) Handle {
	return Handle(int64(gen)<<32 | int64(index+1))
}

func (h Handle) split() (index int, gen uint32) {
	return int(uint32(h)) - 1, uint32(uint64(h) >> 32)
}

var ErrNullHandle = apierr.New(apierr.KindInvalidHandle, "stream handle is null")

func invalidHandle(h Handle) error {
	return apierr.Newf(apierr.KindInvalidHandle, "stream handle %#x is not valid", int64(h))
}

type slot struct {
	gen     uint32
	session *Session
}

// Registry owns every live session. A slot's generation changes each time it is
// freed, so a destroyed handle never resolves to a later occupant of the same slot.
type Registry struct {
	mu        sync.Mutex
	slots     []slot
	free      []int
	dial      Dialer
	queueSize int
}

func NewRegistry(dial Dialer, queueSize int) *Registry {
	return &Registry{dial: dial, queueSize: queueSize}
}

// SetDialer changes how connections are built for sessions created afterwards.
func (r *Registry) SetDialer(dial Dialer) {
	r.mu.Lock()
	r.dial = dial
	r.mu.Unlock()
}

// SetQueueSize changes the read queue capacity for sessions created afterwards.
func (r *Registry) SetQueueSize(n int) {
	r.mu.Lock()
	r.queueSize = n
	r.mu.Unlock()
}

// Create registers a new session in the created state. It fails only when the
// engine is not ready.
func (r *Registry) Create(sessionID string) (Handle, error) {
	if err := engine.Ready(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dial == nil {
		return 0, fmt.Errorf("no stream dialer configured")
	}
	s := newSession(sessionID, r.dial(sessionID), r.queueSize)

	var idx int
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{gen: 1})
		idx = len(r.slots) - 1
	}
	r.slots[idx].session = s
	metrics.SessionsLive.Inc()

	h := makeHandle(idx, r.slots[idx].gen)
	s.log.Debug().Int64("handle", int64(h)).Msg("session created")
	return h, nil
}

// Get resolves h to its session.
func (r *Registry) Get(h Handle) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, s, err := r.lookupLocked(h)
	return s, err
}

func (r *Registry) lookupLocked(h Handle) (int, *Session, error) {
	if h == 0 {
		return 0, nil, ErrNullHandle
	}
	idx, gen := h.split()
	if idx < 0 || idx >= len(r.slots) {
		return 0, nil, invalidHandle(h)
	}
	sl := r.slots[idx]
	if sl.gen != gen || sl.session == nil {
		return 0, nil, invalidHandle(h)
	}
	return idx, sl.session, nil
}

// Destroy stops the session behind h and frees its slot exactly once.
func (r *Registry) Destroy(h Handle) error {
	r.mu.Lock()
	idx, s, err := r.lookupLocked(h)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.slots[idx].session = nil
	r.slots[idx].gen++
	if r.slots[idx].gen == 0 {
		r.slots[idx].gen = 1
	}
	r.free = append(r.free, idx)
	r.mu.Unlock()

	s.destroy()
	metrics.SessionsLive.Dec()

	l := logger.For("session")
	l.Debug().Int64("handle", int64(h)).Str("session_id", s.ID()).Msg("session destroyed")
	return nil
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots) - len(r.free)
}
