package translate

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"github.com/leonardotrapani/transcribebridge/internal/language"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/leonardotrapani/transcribebridge/internal/transcribe"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

// OpenAITranslator implements Translator using OpenAI's chat completions API
type OpenAITranslator struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAITranslator creates a translator; an empty BaseURL means api.openai.com
func NewOpenAITranslator(cfg Config) *OpenAITranslator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		log:    logger.For("translate"),
	}
}

// TranslateText ignores token; the OpenAI key authenticates instead.
func (a *OpenAITranslator) TranslateText(ctx context.Context, text string, lang language.Language, token string) (*transcribe.TextTranslator, error) {
	if text == "" {
		return &transcribe.TextTranslator{Status: "ok"}, nil
	}

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(lang)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		a.log.Warn().Err(err).Dur("duration", duration).Msg("chat completion failed")
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, apierr.New(apierr.KindInvalidResponse, "openai chat completion: no response choices")
	}

	result := resp.Choices[0].Message.Content
	a.log.Debug().Dur("duration", duration).Str("lang", lang.Code).Int("chars", len(result)).Msg("translated")
	return &transcribe.TextTranslator{Status: "ok", Data: result}, nil
}

func mapOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return apierr.Wrap(apierr.KindHTTP, "openai chat completion", err)
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return apierr.Wrap(apierr.KindInvalidAPIKey, "openai rejected the API key", err)
	}
	return apierr.Wrap(apierr.KindServer, "openai chat completion", err)
}
