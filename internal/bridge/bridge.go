// Package bridge is the synchronous call surface handed to the host. Every exported
// function either returns its result or raises exactly one exception on env and
// returns a sentinel.
package bridge

import (
	"context"
	"sync"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/boundary"
	"github.com/leonardotrapani/transcribebridge/internal/config"
	"github.com/leonardotrapani/transcribebridge/internal/engine"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/leonardotrapani/transcribebridge/internal/metrics"
	"github.com/leonardotrapani/transcribebridge/internal/session"
	"github.com/leonardotrapani/transcribebridge/internal/transcribe"
	"github.com/leonardotrapani/transcribebridge/internal/translate"
)

// Deps are the external collaborators the bridge calls into.
type Deps struct {
	API        transcribe.API
	Dialer     session.Dialer
	Translator translate.Translator // nil means the API's own translation
	QueueSize  int
}

var (
	depsMu     sync.RWMutex
	api        transcribe.API
	translator translate.Translator

	registry = session.NewRegistry(nil, session.DefaultQueueSize)
)

var errNotConfigured = apierr.New(apierr.KindOther, "bridge has not been configured")

// Configure installs d for all later calls. Existing sessions keep their connections.
func Configure(d Deps) {
	depsMu.Lock()
	api = d.API
	translator = d.Translator
	if translator == nil && d.API != nil {
		translator = translate.NewServiceTranslator(d.API)
	}
	depsMu.Unlock()

	registry.SetDialer(d.Dialer)
	registry.SetQueueSize(d.QueueSize)
}

// ConfigureFromConfig builds the production collaborators from cfg.
// The worker count takes effect on the next Initialize.
func ConfigureFromConfig(cfg *config.Config) error {
	client := transcribe.NewClient(cfg.ToClientConfig())
	tr, err := translate.New(cfg.ToTranslateConfig(), client)
	if err != nil {
		return err
	}

	wsURL := cfg.API.WSURL
	writeTimeout := cfg.Stream.WriteTimeout
	engine.SetWorkers(cfg.Runtime.Workers)
	Configure(Deps{
		API: client,
		Dialer: func(sessionID string) session.Connection {
			s := transcribe.NewStream(wsURL, sessionID)
			s.SetWriteTimeout(writeTimeout)
			return s
		},
		Translator: tr,
		QueueSize:  cfg.Stream.QueueSize,
	})
	return nil
}

// Watch reconfigures the bridge whenever m reloads a valid config.
func Watch(m *config.Manager) {
	m.OnChange(func(cfg *config.Config) {
		l := logger.For("bridge")
		if err := ConfigureFromConfig(cfg); err != nil {
			l.Warn().Err(err).Msg("config reload not applied")
			return
		}
		l.Info().Msg("reconfigured from config reload")
	})
}

func collaborators() (transcribe.API, translate.Translator, error) {
	depsMu.RLock()
	defer depsMu.RUnlock()
	if api == nil {
		return nil, nil, errNotConfigured
	}
	return api, translator, nil
}

// Initialize creates the process-wide engine; repeated calls are no-ops.
func Initialize(env *boundary.Env) {
	if err := engine.Initialize(); err != nil {
		boundary.Throw(env, err)
	}
}

// Shutdown drops the process-wide engine and reports whether it was running.
func Shutdown(env *boundary.Env) bool {
	return engine.Shutdown()
}

// RunBlocking runs op on the engine and waits for it on the calling goroutine.
// On failure the error is raised on env and ok is false.
func RunBlocking[T any](env *boundary.Env, op func(ctx context.Context) (T, error)) (value T, ok bool) {
	h, err := engine.Acquire()
	if err != nil {
		metrics.BridgeCalls.WithLabelValues("unavailable").Inc()
		boundary.Throw(env, err)
		return value, false
	}
	defer h.Release()

	value, err = engine.BlockOn(h, op)
	if err != nil {
		metrics.BridgeCalls.WithLabelValues("error").Inc()
		boundary.Throw(env, err)
		var zero T
		return zero, false
	}
	metrics.BridgeCalls.WithLabelValues("ok").Inc()
	return value, true
}

// withEngine runs fn with a reference to the engine held for its duration.
func withEngine(fn func(h *engine.Handle) error) error {
	h, err := engine.Acquire()
	if err != nil {
		return err
	}
	defer h.Release()
	return fn(h)
}
