package bridge

import (
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/boundary"
	"github.com/leonardotrapani/transcribebridge/internal/engine"
	"github.com/leonardotrapani/transcribebridge/internal/session"
)

// StreamCreate registers a session for sessionID and returns its handle, or 0.
func StreamCreate(env *boundary.Env, sessionID string) int64 {
	id, err := env.GetString(sessionID)
	if err != nil {
		boundary.ThrowMarshal(env, err)
		return 0
	}
	h, err := registry.Create(id)
	if err != nil {
		boundary.Throw(env, err)
		return 0
	}
	return int64(h)
}

// StreamDestroy stops the session and invalidates the handle.
func StreamDestroy(env *boundary.Env, handle int64) {
	if err := registry.Destroy(session.Handle(handle)); err != nil {
		boundary.Throw(env, err)
	}
}

func lookup(env *boundary.Env, handle int64) *session.Session {
	s, err := registry.Get(session.Handle(handle))
	if err != nil {
		boundary.Throw(env, err)
		return nil
	}
	return s
}

func StreamStart(env *boundary.Env, handle int64) {
	s := lookup(env, handle)
	if s == nil {
		return
	}
	if err := withEngine(s.Start); err != nil {
		boundary.Throw(env, err)
	}
}

// StreamStop never fails for a valid handle.
func StreamStop(env *boundary.Env, handle int64) {
	if s := lookup(env, handle); s != nil {
		s.Stop()
	}
}

func StreamWriteBinary(env *boundary.Env, handle int64, data []byte) {
	s := lookup(env, handle)
	if s == nil {
		return
	}
	err := withEngine(func(h *engine.Handle) error {
		return s.WriteBinary(h, data)
	})
	if err != nil {
		boundary.Throw(env, err)
	}
}

func StreamWriteText(env *boundary.Env, handle int64, text string) {
	msg, err := env.GetString(text)
	if err != nil {
		boundary.ThrowMarshal(env, err)
		return
	}
	s := lookup(env, handle)
	if s == nil {
		return
	}
	err = withEngine(func(h *engine.Handle) error {
		return s.WriteText(h, msg)
	})
	if err != nil {
		boundary.Throw(env, err)
	}
}

// StreamRead waits up to timeoutMillis for the next frame; a negative timeout waits forever.
// ("", false) without a pending exception means timeout or end-of-stream.
func StreamRead(env *boundary.Env, handle int64, timeoutMillis int64) (string, bool) {
	s := lookup(env, handle)
	if s == nil {
		return "", false
	}

	timeout := time.Duration(-1)
	if timeoutMillis >= 0 {
		timeout = time.Duration(timeoutMillis) * time.Millisecond
	}
	frame, ok, err := s.Read(timeout)
	if err != nil {
		boundary.Throw(env, err)
		return "", false
	}
	if !ok {
		return "", false
	}

	out, err := env.NewString(frame)
	if err != nil {
		boundary.ThrowMarshal(env, err)
		return "", false
	}
	return out, true
}

// LiveStreams returns the number of handles not yet destroyed
func LiveStreams() int { return registry.Len() }
