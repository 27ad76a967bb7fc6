// Package host is the caller's side of the bridge: it turns pending exceptions into
// Go errors and decodes JSON results into typed values.
package host

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/boundary"
	"github.com/leonardotrapani/transcribebridge/internal/bridge"
	"github.com/leonardotrapani/transcribebridge/internal/transcribe"
)

// Exception is the error type returned for every raised boundary exception.
type Exception = boundary.Exception

// invoke runs fn with a fresh env and returns the pending exception, if any.
func invoke[T any](fn func(env *boundary.Env) T) (T, error) {
	env := boundary.NewEnv()
	v := fn(env)
	if ex := env.TakeException(); ex != nil {
		var zero T
		return zero, ex
	}
	return v, nil
}

// decoded runs a JSON-returning bridge call and decodes its result.
func decoded[T any](fn func(env *boundary.Env) string) (*T, error) {
	out, err := invoke(fn)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		return nil, fmt.Errorf("failed to decode bridge result: %w", err)
	}
	return &v, nil
}

func Initialize() error {
	_, err := invoke(func(env *boundary.Env) struct{} {
		bridge.Initialize(env)
		return struct{}{}
	})
	return err
}

func Shutdown() bool {
	v, _ := invoke(bridge.Shutdown)
	return v
}

func CreateSession(model, token string) (*transcribe.SessionCreateResponse, error) {
	return decoded[transcribe.SessionCreateResponse](func(env *boundary.Env) string {
		return bridge.CreateSession(env, model, token)
	})
}

// CloseSession ends a realtime task; a zero timeout uses the server default.
func CloseSession(taskID, token string, timeout time.Duration) (*transcribe.SessionCloseResponse, error) {
	seconds := int64(-1)
	if timeout > 0 {
		seconds = int64(timeout / time.Second)
	}
	return decoded[transcribe.SessionCloseResponse](func(env *boundary.Env) string {
		return bridge.CloseSession(env, taskID, token, seconds)
	})
}

type UploadOptions struct {
	TranscribeOnly bool
	ShortASR       bool
	Model          string
}

func Upload(path string, opts UploadOptions, token string) (*transcribe.UploadResponse, error) {
	return decoded[transcribe.UploadResponse](func(env *boundary.Env) string {
		return bridge.Upload(env, path, opts.TranscribeOnly, opts.ShortASR, opts.Model, token)
	})
}

// Status looks a task up by id or share id; empty strings are treated as absent.
func Status(taskID, shareID, token string) (*transcribe.StatusResponse, error) {
	return decoded[transcribe.StatusResponse](func(env *boundary.Env) string {
		return bridge.Status(env, optional(taskID), optional(shareID), token)
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Callback(requestJSON, token string) (*transcribe.CallbackResponse, error) {
	return decoded[transcribe.CallbackResponse](func(env *boundary.Env) string {
		return bridge.Callback(env, requestJSON, token)
	})
}

// ShareLink creates a share URL; days <= 0 uses the server default.
func ShareLink(taskID string, days int, token string) (*transcribe.ShareLinkResponse, error) {
	d := int32(-1)
	if days > 0 {
		d = int32(days)
	}
	return decoded[transcribe.ShareLinkResponse](func(env *boundary.Env) string {
		return bridge.ShareLink(env, taskID, d, token)
	})
}

func CreateSummary(utterancesJSON, token string) (*transcribe.SummaryCreateResponse, error) {
	return decoded[transcribe.SummaryCreateResponse](func(env *boundary.Env) string {
		return bridge.CreateSummary(env, utterancesJSON, token)
	})
}

func Export(taskID, exportType, format, token string) ([]byte, error) {
	return invoke(func(env *boundary.Env) []byte {
		return bridge.Export(env, taskID, exportType, format, token)
	})
}

func TranslateText(text, lang, token string) (*transcribe.TextTranslator, error) {
	return decoded[transcribe.TextTranslator](func(env *boundary.Env) string {
		return bridge.TranslateText(env, text, lang, token)
	})
}

func TranslateUtterances(utterancesJSON, lang, token string) (*transcribe.UtteranceTranslator, error) {
	return decoded[transcribe.UtteranceTranslator](func(env *boundary.Env) string {
		return bridge.TranslateUtterances(env, utterancesJSON, lang, token)
	})
}

func TranslateTranscribe(taskID, lang, token string) (*transcribe.TranscribeTranslator, error) {
	return decoded[transcribe.TranscribeTranslator](func(env *boundary.Env) string {
		return bridge.TranslateTranscribe(env, taskID, lang, token)
	})
}
