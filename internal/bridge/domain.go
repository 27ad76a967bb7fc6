package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/boundary"
	"github.com/leonardotrapani/transcribebridge/internal/language"
	"github.com/leonardotrapani/transcribebridge/internal/transcribe"
)

// args converts host strings; the first failure is raised and reported as false.
func args(env *boundary.Env, in ...*string) bool {
	for _, s := range in {
		v, err := env.GetString(*s)
		if err != nil {
			boundary.ThrowMarshal(env, err)
			return false
		}
		*s = v
	}
	return true
}

// parsed raises err when non-nil and reports whether the call may continue.
func parsed(env *boundary.Env, err error) bool {
	if err != nil {
		boundary.Throw(env, err)
		return false
	}
	return true
}

// respond encodes v as JSON into a host string. "" means an exception was raised.
func respond[T any](env *boundary.Env, v *T, ok bool) string {
	if !ok {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		boundary.Throw(env, apierr.Wrap(apierr.KindJSON, "failed to encode response", err))
		return ""
	}
	out, err := env.NewString(string(data))
	if err != nil {
		boundary.ThrowMarshal(env, err)
		return ""
	}
	return out
}

// call runs fn against the configured API through RunBlocking.
func call[T any](env *boundary.Env, fn func(ctx context.Context, api transcribe.API) (*T, error)) string {
	svc, _, err := collaborators()
	if err != nil {
		boundary.Throw(env, err)
		return ""
	}
	v, ok := RunBlocking(env, func(ctx context.Context) (*T, error) {
		return fn(ctx, svc)
	})
	return respond(env, v, ok)
}

func CreateSession(env *boundary.Env, model, token string) string {
	if !args(env, &model, &token) {
		return ""
	}
	mt, err := transcribe.ParseModelType(model)
	if !parsed(env, err) {
		return ""
	}
	return call(env, func(ctx context.Context, api transcribe.API) (*transcribe.SessionCreateResponse, error) {
		return api.CreateSession(ctx, mt, token)
	})
}

// CloseSession ends a realtime task. A negative timeoutSeconds leaves the server default.
func CloseSession(env *boundary.Env, taskID, token string, timeoutSeconds int64) string {
	if !args(env, &taskID, &token) {
		return ""
	}
	var timeout *time.Duration
	if timeoutSeconds >= 0 {
		d := time.Duration(timeoutSeconds) * time.Second
		timeout = &d
	}
	return call(env, func(ctx context.Context, api transcribe.API) (*transcribe.SessionCloseResponse, error) {
		return api.CloseSession(ctx, taskID, token, timeout)
	})
}

func Upload(env *boundary.Env, path string, transcribeOnly, shortASR bool, model, token string) string {
	if !args(env, &path, &model, &token) {
		return ""
	}
	mt, err := transcribe.ParseModelType(model)
	if !parsed(env, err) {
		return ""
	}
	return call(env, func(ctx context.Context, api transcribe.API) (*transcribe.UploadResponse, error) {
		return api.Upload(ctx, path, transcribeOnly, shortASR, mt, token)
	})
}

func Status(env *boundary.Env, taskID, shareID *string, token string) string {
	task, err := env.GetOptionalString(taskID)
	if err != nil {
		boundary.ThrowMarshal(env, err)
		return ""
	}
	share, err := env.GetOptionalString(shareID)
	if err != nil {
		boundary.ThrowMarshal(env, err)
		return ""
	}
	if !args(env, &token) {
		return ""
	}
	return call(env, func(ctx context.Context, api transcribe.API) (*transcribe.StatusResponse, error) {
		return api.Status(ctx, task, share, token)
	})
}

func Callback(env *boundary.Env, requestJSON, token string) string {
	if !args(env, &requestJSON, &token) {
		return ""
	}
	req, err := transcribe.ParseCallbackRequest(requestJSON)
	if !parsed(env, err) {
		return ""
	}
	return call(env, func(ctx context.Context, api transcribe.API) (*transcribe.CallbackResponse, error) {
		return api.Callback(ctx, req, token)
	})
}

// ShareLink creates a share URL; a negative expirationDays leaves the server default.
func ShareLink(env *boundary.Env, taskID string, expirationDays int32, token string) string {
	if !args(env, &taskID, &token) {
		return ""
	}
	var days *int32
	if expirationDays >= 0 {
		days = &expirationDays
	}
	return call(env, func(ctx context.Context, api transcribe.API) (*transcribe.ShareLinkResponse, error) {
		return api.ShareLink(ctx, taskID, days, token)
	})
}

func CreateSummary(env *boundary.Env, utterancesJSON, token string) string {
	if !args(env, &utterancesJSON, &token) {
		return ""
	}
	utterances, err := transcribe.ParseUtterances(utterancesJSON)
	if !parsed(env, err) {
		return ""
	}
	return call(env, func(ctx context.Context, api transcribe.API) (*transcribe.SummaryCreateResponse, error) {
		return api.CreateSummary(ctx, utterances, token)
	})
}

// Export returns the rendered document, or nil when an exception was raised.
func Export(env *boundary.Env, taskID, exportType, exportFormat, token string) []byte {
	if !args(env, &taskID, &exportType, &exportFormat, &token) {
		return nil
	}
	et, err := transcribe.ParseExportType(exportType)
	if !parsed(env, err) {
		return nil
	}
	ef, err := transcribe.ParseExportFormat(exportFormat)
	if !parsed(env, err) {
		return nil
	}

	svc, _, err := collaborators()
	if !parsed(env, err) {
		return nil
	}
	data, ok := RunBlocking(env, func(ctx context.Context) ([]byte, error) {
		return svc.Export(ctx, taskID, et, ef, token)
	})
	if !ok {
		return nil
	}
	out, err := env.NewByteArray(data)
	if err != nil {
		boundary.ThrowMarshal(env, err)
		return nil
	}
	return out
}

func TranslateText(env *boundary.Env, text, lang, token string) string {
	if !args(env, &text, &lang, &token) {
		return ""
	}
	target, err := language.Parse(lang)
	if !parsed(env, err) {
		return ""
	}
	_, tr, err := collaborators()
	if !parsed(env, err) {
		return ""
	}
	v, ok := RunBlocking(env, func(ctx context.Context) (*transcribe.TextTranslator, error) {
		return tr.TranslateText(ctx, text, target, token)
	})
	return respond(env, v, ok)
}

func TranslateUtterances(env *boundary.Env, utterancesJSON, lang, token string) string {
	if !args(env, &utterancesJSON, &lang, &token) {
		return ""
	}
	utterances, err := transcribe.ParseUtterances(utterancesJSON)
	if !parsed(env, err) {
		return ""
	}
	target, err := language.Parse(lang)
	if !parsed(env, err) {
		return ""
	}
	return call(env, func(ctx context.Context, api transcribe.API) (*transcribe.UtteranceTranslator, error) {
		return api.TranslateUtterances(ctx, utterances, target, token)
	})
}

func TranslateTranscribe(env *boundary.Env, taskID, lang, token string) string {
	if !args(env, &taskID, &lang, &token) {
		return ""
	}
	target, err := language.Parse(lang)
	if !parsed(env, err) {
		return ""
	}
	return call(env, func(ctx context.Context, api transcribe.API) (*transcribe.TranscribeTranslator, error) {
		return api.TranslateTranscribe(ctx, taskID, target, token)
	})
}
