package bridge

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/boundary"
	"github.com/leonardotrapani/transcribebridge/internal/language"
	"github.com/leonardotrapani/transcribebridge/internal/transcribe"
)

func decodeInto(t *testing.T, out string, v any) {
	t.Helper()
	if out == "" {
		t.Fatal("empty response")
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("response %q is not JSON: %v", out, err)
	}
}

func TestDomainCalls(t *testing.T) {
	f := setup(t)

	t.Run("create session", func(t *testing.T) {
		env := boundary.NewEnv()
		var res transcribe.SessionCreateResponse
		decodeInto(t, CreateSession(env, "Quality", "tok"), &res)
		noException(t, env)
		if res.SessionID != "sess-quality" || res.MaxTime != 3600 {
			t.Errorf("CreateSession() = %+v", res)
		}
	})

	t.Run("close session", func(t *testing.T) {
		env := boundary.NewEnv()
		var res transcribe.SessionCloseResponse
		decodeInto(t, CloseSession(env, "task-rt", "tok", 30), &res)
		noException(t, env)
		if res.Status != "closed" || res.Duration == nil || *res.Duration != 42 {
			t.Errorf("CloseSession() = %+v", res)
		}
	})

	t.Run("upload", func(t *testing.T) {
		env := boundary.NewEnv()
		var gotModel transcribe.ModelType
		f.api.UploadFunc = func(path string, transcribeOnly, shortASR bool, model transcribe.ModelType) (*transcribe.UploadResponse, error) {
			gotModel = model
			return &transcribe.UploadResponse{TaskID: "up-1", Status: "queued"}, nil
		}
		defer func() { f.api.UploadFunc = nil }()

		var res transcribe.UploadResponse
		decodeInto(t, Upload(env, "/tmp/a.wav", true, false, "speed", "tok"), &res)
		noException(t, env)
		if res.TaskID != "up-1" || gotModel != transcribe.ModelSpeed {
			t.Errorf("Upload() = %+v, model %q", res, gotModel)
		}
	})

	t.Run("status", func(t *testing.T) {
		env := boundary.NewEnv()
		task := "task-1"
		var gotTask, gotShare *string
		f.api.StatusFunc = func(taskID, shareID *string) (*transcribe.StatusResponse, error) {
			gotTask, gotShare = taskID, shareID
			return &transcribe.StatusResponse{Status: "done"}, nil
		}
		defer func() { f.api.StatusFunc = nil }()

		var res transcribe.StatusResponse
		decodeInto(t, Status(env, &task, nil, "tok"), &res)
		noException(t, env)
		if res.Status != "done" || gotTask == nil || *gotTask != "task-1" || gotShare != nil {
			t.Errorf("Status() = %+v, task %v share %v", res, gotTask, gotShare)
		}
	})

	t.Run("callback", func(t *testing.T) {
		env := boundary.NewEnv()
		var res transcribe.CallbackResponse
		decodeInto(t, Callback(env, `{"task_id":"t1","status":"done","code":0}`, "tok"), &res)
		noException(t, env)
		if res.Status != "ok" {
			t.Errorf("Callback() = %+v", res)
		}
	})

	t.Run("share link default expiration", func(t *testing.T) {
		env := boundary.NewEnv()
		var res transcribe.ShareLinkResponse
		decodeInto(t, ShareLink(env, "task-1", -1, "tok"), &res)
		if res.ExpirationTime != 7 || res.ShareURL != "https://share.example/task-1" {
			t.Errorf("ShareLink() = %+v", res)
		}
		decodeInto(t, ShareLink(env, "task-1", 30, "tok"), &res)
		if res.ExpirationTime != 30 {
			t.Errorf("ShareLink(30) = %+v", res)
		}
		noException(t, env)
	})

	t.Run("summary", func(t *testing.T) {
		env := boundary.NewEnv()
		var res transcribe.SummaryCreateResponse
		decodeInto(t, CreateSummary(env, `[{"start_time":0,"end_time":1,"text":"hi","speaker":0}]`, "tok"), &res)
		noException(t, env)
		if res.TaskID != "summary-1" {
			t.Errorf("CreateSummary() = %+v", res)
		}
	})

	t.Run("export", func(t *testing.T) {
		env := boundary.NewEnv()
		data := Export(env, "task-1", "Summary", "PDF", "tok")
		noException(t, env)
		if string(data) != "summary.pdf:task-1" {
			t.Errorf("Export() = %q", data)
		}
	})

	t.Run("translate text", func(t *testing.T) {
		env := boundary.NewEnv()
		var res transcribe.TextTranslator
		decodeInto(t, TranslateText(env, "hello", "english", "tok"), &res)
		noException(t, env)
		if res.Data != "[en] hello" {
			t.Errorf("TranslateText() = %+v", res)
		}
	})

	t.Run("translate utterances", func(t *testing.T) {
		env := boundary.NewEnv()
		var res transcribe.UtteranceTranslator
		decodeInto(t, TranslateUtterances(env, `{"utterances":[{"text":"hi"}]}`, "ja", "tok"), &res)
		noException(t, env)
		if res.TargetLanguage != "ja" || len(res.Details) != 1 || res.Details[0].Translations["ja"] != "[ja] hi" {
			t.Errorf("TranslateUtterances() = %+v", res)
		}
	})

	t.Run("translate transcribe", func(t *testing.T) {
		env := boundary.NewEnv()
		var res transcribe.TranscribeTranslator
		decodeInto(t, TranslateTranscribe(env, "task-1", "zh-CN", "tok"), &res)
		noException(t, env)
		if res.TaskID != "task-1" || res.TargetLanguage != "zh" {
			t.Errorf("TranslateTranscribe() = %+v", res)
		}
	})

	for _, tok := range f.api.Tokens() {
		if tok != "tok" {
			t.Errorf("token %q forwarded, want tok", tok)
		}
	}
}

func TestDomainInvalidInput(t *testing.T) {
	f := setup(t)
	before := len(f.api.Calls())

	tests := []struct {
		name    string
		call    func(env *boundary.Env) bool
		message string
	}{
		{"model", func(env *boundary.Env) bool { return CreateSession(env, "turbo", "tok") == "" }, "Unknown model type: turbo"},
		{"upload model", func(env *boundary.Env) bool { return Upload(env, "a.wav", false, false, "", "tok") == "" }, "Unknown model type: "},
		{"export type", func(env *boundary.Env) bool { return Export(env, "t", "html", "pdf", "tok") == nil }, "Unknown export type: html"},
		{"export format", func(env *boundary.Env) bool { return Export(env, "t", "summary", "rtf", "tok") == nil }, "Unknown export format: rtf"},
		{"language", func(env *boundary.Env) bool { return TranslateText(env, "hi", "klingon", "tok") == "" }, "Unknown language type: klingon"},
		{"utterances", func(env *boundary.Env) bool { return CreateSummary(env, "not json", "tok") == "" }, "Failed to parse utterances"},
		{"callback", func(env *boundary.Env) bool { return Callback(env, "[1]", "tok") == "" }, "Failed to parse callback request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := boundary.NewEnv()
			if !tt.call(env) {
				t.Error("call returned a value")
			}
			ex := expectException(t, env, boundary.CodeInvalidInput)
			if !strings.HasPrefix(ex.Message, tt.message) {
				t.Errorf("message = %q, want prefix %q", ex.Message, tt.message)
			}
		})
	}

	if got := len(f.api.Calls()); got != before {
		t.Errorf("invalid input reached the API %d times", got-before)
	}
}

func TestDomainErrorsMapped(t *testing.T) {
	f := setup(t)

	tests := []struct {
		err  error
		code boundary.Code
	}{
		{apierr.New(apierr.KindInvalidToken, "token expired"), boundary.CodeInvalidToken},
		{apierr.New(apierr.KindInvalidAPIKey, "forbidden"), boundary.CodeInvalidAPIKey},
		{apierr.New(apierr.KindHTTP, "connection refused"), boundary.CodeHTTP},
		{apierr.New(apierr.KindInvalidResponse, "bad body"), boundary.CodeInvalidResponse},
	}
	for _, tt := range tests {
		f.api.Err = tt.err
		env := boundary.NewEnv()
		if out := TranslateTranscribe(env, "task-1", "fr", "tok"); out != "" {
			t.Errorf("returned %q with an error", out)
		}
		ex := expectException(t, env, tt.code)
		if ex.Message != tt.err.Error() {
			t.Errorf("message = %q, want %q", ex.Message, tt.err.Error())
		}

		if data := Export(env, "task-1", "transcript", "txt", "tok"); data != nil {
			t.Errorf("Export() returned %q with an error", data)
		}
		expectException(t, env, tt.code)
	}
	f.api.Err = nil
}

func TestDomainResponseTooLarge(t *testing.T) {
	f := setup(t)
	f.api.TranslateTextFunc = func(text string, lang language.Language) (*transcribe.TextTranslator, error) {
		return &transcribe.TextTranslator{Status: "ok", Data: strings.Repeat("x", 256)}, nil
	}

	env := boundary.NewEnv()
	env.MaxStringLen = 64
	if out := TranslateText(env, "hi", "de", "tok"); out != "" {
		t.Errorf("TranslateText() = %q", out)
	}
	ex := expectException(t, env, boundary.CodeJNI)
	if !strings.HasPrefix(ex.Message, "JNI Error:") {
		t.Errorf("message = %q", ex.Message)
	}
}

func TestDomainMarshalArguments(t *testing.T) {
	setup(t)
	env := boundary.NewEnv()

	if out := CreateSession(env, "speed", "bad\xfftoken"); out != "" {
		t.Errorf("CreateSession() = %q", out)
	}
	expectException(t, env, boundary.CodeJNI)

	bad := "\xff"
	if out := Status(env, nil, &bad, "tok"); out != "" {
		t.Errorf("Status() = %q", out)
	}
	expectException(t, env, boundary.CodeJNI)
}
