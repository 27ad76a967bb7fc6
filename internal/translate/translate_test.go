package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/language"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/leonardotrapani/transcribebridge/internal/transcribe"
)

// fakeAPI satisfies transcribe.API; only TranslateText does anything.
type fakeAPI struct {
	transcribe.API
	gotText  string
	gotLang  string
	gotToken string
}

func (f *fakeAPI) TranslateText(ctx context.Context, text string, lang language.Language, token string) (*transcribe.TextTranslator, error) {
	f.gotText, f.gotLang, f.gotToken = text, lang.Code, token
	return &transcribe.TextTranslator{Status: "ok", Data: "bonjour"}, nil
}

func mustLang(t *testing.T, code string) language.Language {
	t.Helper()
	l, ok := language.FromCode(code)
	if !ok {
		t.Fatalf("unknown language %q", code)
	}
	return l
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		api     transcribe.API
		wantErr string
	}{
		{name: "service", cfg: Config{Backend: BackendService}, api: &fakeAPI{}},
		{name: "default is service", cfg: Config{}, api: &fakeAPI{}},
		{name: "service without api", cfg: Config{Backend: BackendService}, wantErr: "requires an API client"},
		{name: "openai", cfg: Config{Backend: BackendOpenAI, APIKey: "sk-test"}},
		{name: "openai without key", cfg: Config{Backend: BackendOpenAI}, wantErr: "API key required"},
		{name: "unknown", cfg: Config{Backend: "deepl"}, wantErr: "unsupported translation backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.cfg, tt.api)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("New() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil || tr == nil {
				t.Errorf("New() = %v, %v", tr, err)
			}
		})
	}
}

func TestServiceTranslator(t *testing.T) {
	api := &fakeAPI{}
	tr := NewServiceTranslator(api)

	res, err := tr.TranslateText(context.Background(), "hello", mustLang(t, "fr"), "tok")
	if err != nil {
		t.Fatalf("TranslateText() error: %v", err)
	}
	if res.Data != "bonjour" || api.gotText != "hello" || api.gotLang != "fr" || api.gotToken != "tok" {
		t.Errorf("TranslateText() = %+v, forwarded %q/%q/%q", res, api.gotText, api.gotLang, api.gotToken)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(mustLang(t, "ja"))
	for _, want := range []string{"Japanese", "日本語", "Output ONLY the translated text"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q: %s", want, prompt)
		}
	}
}

// mockChatServer answers /v1/chat/completions with status and body.
func mockChatServer(t *testing.T, status int, body string, got *map[string]any) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if got != nil {
			json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL + "/v1"
}

func TestOpenAITranslator(t *testing.T) {
	logger.Discard()

	t.Run("success", func(t *testing.T) {
		var req map[string]any
		baseURL := mockChatServer(t, http.StatusOK,
			`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hallo Welt"},"finish_reason":"stop"}]}`,
			&req)
		tr := NewOpenAITranslator(Config{APIKey: "sk-test", BaseURL: baseURL})

		res, err := tr.TranslateText(context.Background(), "hello world", mustLang(t, "de"), "")
		if err != nil {
			t.Fatalf("TranslateText() error: %v", err)
		}
		if res.Data != "Hallo Welt" || res.Status != "ok" {
			t.Errorf("TranslateText() = %+v", res)
		}
		if req["model"] != defaultModel {
			t.Errorf("model = %v, want %s", req["model"], defaultModel)
		}
		msgs, _ := req["messages"].([]any)
		if len(msgs) != 2 {
			t.Fatalf("messages = %v", req["messages"])
		}
		if user, _ := msgs[1].(map[string]any); user["content"] != "hello world" {
			t.Errorf("user message = %v", msgs[1])
		}
	})

	t.Run("empty text skips the call", func(t *testing.T) {
		tr := NewOpenAITranslator(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1"})
		res, err := tr.TranslateText(context.Background(), "", mustLang(t, "de"), "")
		if err != nil || res.Data != "" {
			t.Errorf("TranslateText(\"\") = %+v, %v", res, err)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		baseURL := mockChatServer(t, http.StatusOK, `{"id":"c1","choices":[]}`, nil)
		tr := NewOpenAITranslator(Config{APIKey: "sk-test", BaseURL: baseURL})
		_, err := tr.TranslateText(context.Background(), "hi", mustLang(t, "de"), "")
		if !apierr.Is(err, apierr.KindInvalidResponse) {
			t.Errorf("error = %v, want invalid response", err)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		baseURL := mockChatServer(t, http.StatusUnauthorized,
			`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`, nil)
		tr := NewOpenAITranslator(Config{APIKey: "sk-test", BaseURL: baseURL})
		_, err := tr.TranslateText(context.Background(), "hi", mustLang(t, "de"), "")
		if !apierr.Is(err, apierr.KindInvalidAPIKey) {
			t.Errorf("error = %v, want invalid api key", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		baseURL := mockChatServer(t, http.StatusBadRequest,
			`{"error":{"message":"model not found","type":"invalid_request_error"}}`, nil)
		tr := NewOpenAITranslator(Config{APIKey: "sk-test", BaseURL: baseURL, Model: "nope"})
		_, err := tr.TranslateText(context.Background(), "hi", mustLang(t, "de"), "")
		if !apierr.Is(err, apierr.KindServer) {
			t.Errorf("error = %v, want server error", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		baseURL := server.URL + "/v1"
		server.Close()

		tr := NewOpenAITranslator(Config{APIKey: "sk-test", BaseURL: baseURL})
		_, err := tr.TranslateText(context.Background(), "hi", mustLang(t, "de"), "")
		if !apierr.Is(err, apierr.KindHTTP) {
			t.Errorf("error = %v, want http error", err)
		}
	})
}
