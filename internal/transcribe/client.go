package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/language"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/rs/zerolog"
)

// API is the remote transcription service.
type API interface {
	Upload(ctx context.Context, path string, transcribeOnly, shortASR bool, model ModelType, token string) (*UploadResponse, error)
	Status(ctx context.Context, taskID, shareID *string, token string) (*StatusResponse, error)
	Callback(ctx context.Context, req *CallbackRequest, token string) (*CallbackResponse, error)
	ShareLink(ctx context.Context, taskID string, expirationDays *int32, token string) (*ShareLinkResponse, error)
	CreateSummary(ctx context.Context, utterances []Utterance, token string) (*SummaryCreateResponse, error)
	Export(ctx context.Context, taskID string, exportType ExportType, format ExportFormat, token string) ([]byte, error)
	TranslateText(ctx context.Context, text string, lang language.Language, token string) (*TextTranslator, error)
	TranslateUtterances(ctx context.Context, utterances []Utterance, lang language.Language, token string) (*UtteranceTranslator, error)
	TranslateTranscribe(ctx context.Context, taskID string, lang language.Language, token string) (*TranscribeTranslator, error)
	CreateSession(ctx context.Context, model ModelType, token string) (*SessionCreateResponse, error)
	CloseSession(ctx context.Context, taskID, token string, timeout *time.Duration) (*SessionCloseResponse, error)
}

type Config struct {
	BaseURL string
	WSURL   string
	Timeout time.Duration
}

// Client talks to the transcription service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ API = (*Client)(nil)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger.For("transcribe"),
	}
}

// checkToken rejects empty tokens and JWTs that have already expired.
// Opaque tokens are passed through for the server to judge.
func checkToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return apierr.New(apierr.KindInvalidToken, "token is empty")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return apierr.Newf(apierr.KindInvalidToken, "token expired at %s", exp.Format(time.RFC3339))
	}
	return nil
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	token       string
}

func jsonRequest(method, path string, payload any, token string) (request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return request{}, apierr.Wrap(apierr.KindJSON, "encode request", err)
	}
	return request{
		method:      method,
		path:        path,
		body:        bytes.NewReader(data),
		contentType: "application/json",
		token:       token,
	}, nil
}

// do sends r and returns the response body of a 2xx reply.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if err := checkToken(r.token); err != nil {
		return nil, err
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindHTTP, "build request", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindHTTP, fmt.Sprintf("%s %s", r.method, r.path), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindHTTP, "read response", err)
	}

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(resp.StatusCode, body)
}

func statusError(status int, body []byte) error {
	msg := serverMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized:
		return apierr.New(apierr.KindInvalidToken, msg)
	case http.StatusForbidden:
		return apierr.New(apierr.KindInvalidAPIKey, msg)
	default:
		return apierr.Newf(apierr.KindServer, "server returned %d: %s", status, msg)
	}
}

func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, m := range []string{payload.Message, payload.Detail, payload.Error} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(body))
}

func decode[T any](body []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, apierr.Wrap(apierr.KindInvalidResponse, "decode response", err)
	}
	return &v, nil
}

func call[T any](ctx context.Context, c *Client, r request) (*T, error) {
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return decode[T](body)
}

func (c *Client) Upload(ctx context.Context, path string, transcribeOnly, shortASR bool, model ModelType, token string) (*UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInvalidInput, "open audio file", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, f, filepath.Base(path), transcribeOnly, shortASR, model))
	}()
	defer pr.Close()

	return call[UploadResponse](ctx, c, request{
		method:      http.MethodPost,
		path:        "/transcribe/upload",
		body:        pr,
		contentType: mw.FormDataContentType(),
		token:       token,
	})
}

func writeUploadForm(mw *multipart.Writer, f io.Reader, name string, transcribeOnly, shortASR bool, model ModelType) error {
	fields := map[string]string{
		"transcribe_only": strconv.FormatBool(transcribeOnly),
		"short_asr":       strconv.FormatBool(shortASR),
		"model_type":      string(model),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) Status(ctx context.Context, taskID, shareID *string, token string) (*StatusResponse, error) {
	q := url.Values{}
	if taskID != nil {
		q.Set("task_id", *taskID)
	}
	if shareID != nil {
		q.Set("share_id", *shareID)
	}
	if len(q) == 0 {
		return nil, apierr.New(apierr.KindInvalidInput, "either task_id or share_id is required")
	}

	return call[StatusResponse](ctx, c, request{
		method: http.MethodGet,
		path:   "/transcribe/status",
		query:  q,
		token:  token,
	})
}

func (c *Client) Callback(ctx context.Context, req *CallbackRequest, token string) (*CallbackResponse, error) {
	r, err := jsonRequest(http.MethodPost, "/transcribe/callback", req, token)
	if err != nil {
		return nil, err
	}
	return call[CallbackResponse](ctx, c, r)
}

func (c *Client) ShareLink(ctx context.Context, taskID string, expirationDays *int32, token string) (*ShareLinkResponse, error) {
	payload := struct {
		TaskID        string `json:"task_id"`
		ExpirationDay *int32 `json:"expiration_day,omitempty"`
	}{taskID, expirationDays}

	r, err := jsonRequest(http.MethodPost, "/transcribe/share", payload, token)
	if err != nil {
		return nil, err
	}
	return call[ShareLinkResponse](ctx, c, r)
}

func (c *Client) CreateSummary(ctx context.Context, utterances []Utterance, token string) (*SummaryCreateResponse, error) {
	payload := struct {
		Utterances []Utterance `json:"utterances"`
	}{utterances}

	r, err := jsonRequest(http.MethodPost, "/summary", payload, token)
	if err != nil {
		return nil, err
	}
	return call[SummaryCreateResponse](ctx, c, r)
}

func (c *Client) Export(ctx context.Context, taskID string, exportType ExportType, format ExportFormat, token string) ([]byte, error) {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   "/export/" + url.PathEscape(string(exportType)) + "/" + url.PathEscape(string(format)),
		query:  url.Values{"task_id": {taskID}},
		token:  token,
	})
}

func (c *Client) TranslateText(ctx context.Context, text string, lang language.Language, token string) (*TextTranslator, error) {
	payload := struct {
		Text       string `json:"text"`
		TargetLang string `json:"target_lang"`
	}{text, lang.Code}

	r, err := jsonRequest(http.MethodPost, "/translate/text", payload, token)
	if err != nil {
		return nil, err
	}
	return call[TextTranslator](ctx, c, r)
}

func (c *Client) TranslateUtterances(ctx context.Context, utterances []Utterance, lang language.Language, token string) (*UtteranceTranslator, error) {
	payload := struct {
		Utterances []Utterance `json:"utterances"`
		TargetLang string      `json:"target_lang"`
	}{utterances, lang.Code}

	r, err := jsonRequest(http.MethodPost, "/translate/utterances", payload, token)
	if err != nil {
		return nil, err
	}
	return call[UtteranceTranslator](ctx, c, r)
}

func (c *Client) TranslateTranscribe(ctx context.Context, taskID string, lang language.Language, token string) (*TranscribeTranslator, error) {
	payload := struct {
		TaskID     string `json:"task_id"`
		TargetLang string `json:"target_lang"`
	}{taskID, lang.Code}

	r, err := jsonRequest(http.MethodPost, "/translate/transcribe", payload, token)
	if err != nil {
		return nil, err
	}
	return call[TranscribeTranslator](ctx, c, r)
}

func (c *Client) CreateSession(ctx context.Context, model ModelType, token string) (*SessionCreateResponse, error) {
	payload := struct {
		ModelType ModelType `json:"model_type"`
	}{model}

	r, err := jsonRequest(http.MethodPost, "/transcribe/session", payload, token)
	if err != nil {
		return nil, err
	}
	return call[SessionCreateResponse](ctx, c, r)
}

// CloseSession ends a realtime session. A nil timeout lets the server decide how
// long to wait for the final transcript.
func (c *Client) CloseSession(ctx context.Context, taskID, token string, timeout *time.Duration) (*SessionCloseResponse, error) {
	q := url.Values{"task_id": {taskID}}
	if timeout != nil {
		q.Set("timeout", strconv.FormatInt(int64(timeout.Seconds()), 10))
	}

	return call[SessionCloseResponse](ctx, c, request{
		method: http.MethodDelete,
		path:   "/transcribe/session",
		query:  q,
		token:  token,
	})
}

