package boundary

import (
	"fmt"

	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/leonardotrapani/transcribebridge/internal/metrics"
)

// Throw raises err on env with its mapped code. It returns a non-nil error only when
// the exception could not be built; that failure is then raised as JNI_ERROR instead.
func Throw(env *Env, err error) error {
	if err == nil {
		return nil
	}
	return raise(env, string(CodeFor(err)), err.Error())
}

// ThrowMessage raises a free-text failure with no structured error behind it.
func ThrowMessage(env *Env, msg string) error {
	return raise(env, string(CodeUnexpected), msg)
}

// ThrowMarshal raises a failure of the boundary mechanism itself.
func ThrowMarshal(env *Env, err error) error {
	return raise(env, string(CodeJNI), fmt.Sprintf("JNI Error: %v", err))
}

func raise(env *Env, code, message string) error {
	err := throwWithCode(env, code, message)
	if err == nil {
		metrics.Exceptions.WithLabelValues(code).Inc()
		l := logger.For("bridge")
		l.Debug().Str("code", code).Str("message", message).Msg("exception raised")
		return nil
	}

	// building the exception failed: surface that failure rather than the original one
	fallback := &Exception{Code: CodeJNI, Message: fmt.Sprintf("JNI Error: %v", err)}
	env.mu.Lock()
	env.pending = fallback
	env.mu.Unlock()
	metrics.Exceptions.WithLabelValues(string(CodeJNI)).Inc()

	l := logger.For("bridge")
	l.Warn().Err(err).Str("code", code).Msg("failed to build exception")
	return err
}

func throwWithCode(env *Env, code, message string) error {
	msg, err := env.NewString(message)
	if err != nil {
		return err
	}
	c, err := ParseCode(code)
	if err != nil {
		return err
	}
	return env.Throw(&Exception{Code: c, Message: msg})
}
