package boundary

import (
	"errors"
	"fmt"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
)

// Code is the machine-readable exception code seen by the host.
type Code string

const (
	CodeWS              Code = "WS_ERROR"
	CodeHTTP            Code = "HTTP_ERROR"
	CodeServer          Code = "SERVER_ERROR"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidResponse Code = "INVALID_RESPONSE"
	CodeInvalidToken    Code = "INVALID_TOKEN"
	CodeInvalidAPIKey   Code = "INVALID_API_KEY"
	CodeJSON            Code = "JSON_ERROR"
	CodeOther           Code = "OTHER_ERROR"
	CodeJNI             Code = "JNI_ERROR"
	CodeUnexpected      Code = "UNEXPECTED_ERROR"
	CodeInvalidHandle   Code = "INVALID_HANDLE"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeRuntimePoisoned Code = "RUNTIME_POISONED"
)

var knownCodes = map[Code]struct{}{
	CodeWS: {}, CodeHTTP: {}, CodeServer: {}, CodeInvalidInput: {}, CodeInvalidResponse: {},
	CodeInvalidToken: {}, CodeInvalidAPIKey: {}, CodeJSON: {}, CodeOther: {}, CodeJNI: {},
	CodeUnexpected: {}, CodeInvalidHandle: {}, CodeInvalidState: {}, CodeRuntimePoisoned: {},
}

var kindCodes = map[apierr.Kind]Code{
	apierr.KindOther:           CodeOther,
	apierr.KindWS:              CodeWS,
	apierr.KindHTTP:            CodeHTTP,
	apierr.KindServer:          CodeServer,
	apierr.KindInvalidInput:    CodeInvalidInput,
	apierr.KindInvalidResponse: CodeInvalidResponse,
	apierr.KindInvalidToken:    CodeInvalidToken,
	apierr.KindInvalidAPIKey:   CodeInvalidAPIKey,
	apierr.KindJSON:            CodeJSON,
	apierr.KindInvalidHandle:   CodeInvalidHandle,
	apierr.KindInvalidState:    CodeInvalidState,
	apierr.KindPoisoned:        CodeRuntimePoisoned,
}

// ParseCode resolves a code name the way the host enum's valueOf does.
func ParseCode(name string) (Code, error) {
	c := Code(name)
	if _, ok := knownCodes[c]; !ok {
		return "", &MarshalError{Op: "resolve code", Err: fmt.Errorf("no enum constant %q", name)}
	}
	return c, nil
}

// CodeFor maps any error to a code. Errors without a domain kind are unexpected.
func CodeFor(err error) Code {
	var me *MarshalError
	if errors.As(err, &me) {
		return CodeJNI
	}
	var de *apierr.Error
	if errors.As(err, &de) {
		if c, ok := kindCodes[de.Kind]; ok {
			return c
		}
		return CodeOther
	}
	return CodeUnexpected
}
