package translate

import (
	"context"
	"fmt"

	"github.com/leonardotrapani/transcribebridge/internal/language"
	"github.com/leonardotrapani/transcribebridge/internal/transcribe"
)

// Translator turns free text into the target language.
type Translator interface {
	TranslateText(ctx context.Context, text string, lang language.Language, token string) (*transcribe.TextTranslator, error)
}

const (
	BackendService = "service"
	BackendOpenAI  = "openai"
)

// Config selects and configures a translation backend
type Config struct {
	Backend string
	APIKey  string
	Model   string
	BaseURL string
}

// New builds the translator for cfg.Backend. The service backend forwards to api.
func New(cfg Config, api transcribe.API) (Translator, error) {
	switch cfg.Backend {
	case BackendService, "":
		if api == nil {
			return nil, fmt.Errorf("service translation requires an API client")
		}
		return NewServiceTranslator(api), nil
	case BackendOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAITranslator(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported translation backend: %s", cfg.Backend)
	}
}

// ServiceTranslator uses the transcription service's own translate endpoint.
type ServiceTranslator struct {
	api transcribe.API
}

func NewServiceTranslator(api transcribe.API) *ServiceTranslator {
	return &ServiceTranslator{api: api}
}

func (s *ServiceTranslator) TranslateText(ctx context.Context, text string, lang language.Language, token string) (*transcribe.TextTranslator, error) {
	return s.api.TranslateText(ctx, text, lang, token)
}
