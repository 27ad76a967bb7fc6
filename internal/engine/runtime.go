package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
)

var (
	ErrNotInitialized = errors.New("runtime has not been initialized, please call initialize first")
	ErrPoisoned       = apierr.New(apierr.KindPoisoned, "runtime lock has been poisoned, please restart the process")
)

// process-wide engine state. A panic inside a guarded section poisons it for good.
var global struct {
	mu       sync.Mutex
	handle   *Handle
	poisoned bool
	workers  int
}

// newEngine is swapped in tests.
var newEngine = New

func guarded(fn func() error) (err error) {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.poisoned {
		return ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			global.poisoned = true
			l := logger.For("engine")
			l.Error().Interface("panic", r).Msg("runtime lock poisoned")
			err = fmt.Errorf("%w: %v", ErrPoisoned, r)
		}
	}()
	return fn()
}

// SetWorkers sets the worker count used by the next Initialize. Zero restores the default.
func SetWorkers(n int) {
	global.mu.Lock()
	global.workers = n
	global.mu.Unlock()
}

// Initialize creates the process-wide engine. Calling it again while ready is a no-op.
func Initialize() error {
	return guarded(func() error {
		if global.handle != nil {
			return nil
		}

		workers := global.workers
		if workers == 0 {
			workers = DefaultWorkers
		}

		h, err := newEngine(workers)
		if err != nil {
			return err
		}
		global.handle = h

		l := logger.For("engine")
		l.Info().Int("workers", workers).Msg("runtime initialized")
		return nil
	})
}

// Acquire returns a new reference to the process-wide engine. The caller releases it.
func Acquire() (*Handle, error) {
	var h *Handle
	err := guarded(func() error {
		if global.handle == nil {
			return ErrNotInitialized
		}
		h = global.handle.Clone()
		return nil
	})
	return h, err
}

// Ready reports whether Acquire would succeed, without taking a reference.
func Ready() error {
	return guarded(func() error {
		if global.handle == nil {
			return ErrNotInitialized
		}
		return nil
	})
}

// Shutdown drops the process-wide reference and reports whether one was held.
// Work holding its own Handle keeps running; the engine stops when the last Handle is released.
func Shutdown() bool {
	var cleared bool
	_ = guarded(func() error {
		if global.handle == nil {
			return nil
		}
		global.handle.Release()
		global.handle = nil
		cleared = true
		return nil
	})

	if cleared {
		l := logger.For("engine")
		l.Info().Msg("runtime shut down")
	}
	return cleared
}
