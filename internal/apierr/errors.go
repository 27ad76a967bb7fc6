package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error. Every Kind maps to exactly one boundary code.
type Kind int

const (
	KindOther Kind = iota
	KindWS
	KindHTTP
	KindServer
	KindInvalidInput
	KindInvalidResponse
	KindInvalidToken
	KindInvalidAPIKey
	KindJSON
	KindInvalidHandle
	KindInvalidState
	KindPoisoned
)

var kindNames = map[Kind]string{
	KindOther:           "other",
	KindWS:              "websocket",
	KindHTTP:            "http",
	KindServer:          "server",
	KindInvalidInput:    "invalid input",
	KindInvalidResponse: "invalid response",
	KindInvalidToken:    "invalid token",
	KindInvalidAPIKey:   "invalid api key",
	KindJSON:            "json",
	KindInvalidHandle:   "invalid handle",
	KindInvalidState:    "invalid state",
	KindPoisoned:        "poisoned",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a domain failure carrying its Kind across package boundaries.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "unknown error"
	}
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns nil when err is nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the Kind of the outermost *Error in err's chain, or KindOther.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// Is reports whether err carries a domain error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsDomain reports whether err has any *Error in its chain.
func IsDomain(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
