package boundary

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"
)

// DefaultMaxStringLen bounds strings handed to the host.
const DefaultMaxStringLen = 64 << 20

// MarshalError reports a failure of the boundary mechanism itself.
type MarshalError struct {
	Op  string
	Err error
}

func (e *MarshalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MarshalError) Unwrap() error { return e.Err }

var (
	errInvalidUTF8 = errors.New("invalid utf-8")
	errTooLong     = errors.New("string exceeds host limit")
	errNilValue    = errors.New("null value")
)

// Exception is a host-level exception with a stable code.
type Exception struct {
	Code    Code
	Message string
}

func (e *Exception) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Env is the per-call host environment. Throwing records a pending exception
// and returns; it never unwinds the caller, which must return its sentinel next.
type Env struct {
	MaxStringLen int

	mu      sync.Mutex
	pending *Exception
}

func NewEnv() *Env {
	return &Env{MaxStringLen: DefaultMaxStringLen}
}

// GetString converts a host string argument.
func (e *Env) GetString(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", &MarshalError{Op: "read string", Err: errInvalidUTF8}
	}
	return s, nil
}

// GetOptionalString converts a nullable host string argument.
func (e *Env) GetOptionalString(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v, err := e.GetString(*s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// NewString allocates a host string.
func (e *Env) NewString(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", &MarshalError{Op: "new string", Err: errInvalidUTF8}
	}
	if e.MaxStringLen > 0 && len(s) > e.MaxStringLen {
		return "", &MarshalError{Op: "new string", Err: errTooLong}
	}
	return s, nil
}

// NewByteArray allocates a host byte array holding a copy of b.
func (e *Env) NewByteArray(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Throw makes ex the pending exception, replacing any earlier one.
func (e *Env) Throw(ex *Exception) error {
	if ex == nil {
		return &MarshalError{Op: "throw", Err: errNilValue}
	}
	e.mu.Lock()
	e.pending = ex
	e.mu.Unlock()
	return nil
}

// ExceptionCheck reports whether an exception is pending
func (e *Env) ExceptionCheck() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// ExceptionOccurred returns the pending exception without clearing it
func (e *Env) ExceptionOccurred() *Exception {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// TakeException returns and clears the pending exception
func (e *Env) TakeException() *Exception {
	e.mu.Lock()
	defer e.mu.Unlock()
	ex := e.pending
	e.pending = nil
	return ex
}
