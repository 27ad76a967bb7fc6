package transcribe

import (
	"encoding/json"
	"strings"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
)

type ModelType string

const (
	ModelSpeed     ModelType = "speed"
	ModelQuality   ModelType = "quality"
	ModelQualityV2 ModelType = "quality_v2"
)

// ParseModelType accepts speed, quality or quality_v2 in any case.
func ParseModelType(input string) (ModelType, error) {
	switch v := strings.ToLower(strings.TrimSpace(input)); v {
	case "speed":
		return ModelSpeed, nil
	case "quality":
		return ModelQuality, nil
	case "quality_v2":
		return ModelQualityV2, nil
	default:
		return "", apierr.Newf(apierr.KindInvalidInput, "Unknown model type: %s", v)
	}
}

type ExportType string

const (
	ExportTranscript ExportType = "transcript"
	ExportOverview   ExportType = "overview"
	ExportSummary    ExportType = "summary"
)

func ParseExportType(input string) (ExportType, error) {
	switch v := strings.ToLower(strings.TrimSpace(input)); v {
	case "transcript":
		return ExportTranscript, nil
	case "overview":
		return ExportOverview, nil
	case "summary":
		return ExportSummary, nil
	default:
		return "", apierr.Newf(apierr.KindInvalidInput, "Unknown export type: %s", v)
	}
}

type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatTXT  ExportFormat = "txt"
	FormatDOCX ExportFormat = "docx"
)

func ParseExportFormat(input string) (ExportFormat, error) {
	switch v := strings.ToLower(strings.TrimSpace(input)); v {
	case "pdf":
		return FormatPDF, nil
	case "txt":
		return FormatTXT, nil
	case "docx":
		return FormatDOCX, nil
	default:
		return "", apierr.Newf(apierr.KindInvalidInput, "Unknown export format: %s", v)
	}
}

type TranscribeTaskType string

const (
	TaskNormalQuality   TranscribeTaskType = "normal_quality"
	TaskNormalSpeed     TranscribeTaskType = "normal_speed"
	TaskShortASRQuality TranscribeTaskType = "short_asr_quality"
	TaskShortASRSpeed   TranscribeTaskType = "short_asr_speed"
)

type TranslateTaskType string

const (
	TranslateTaskTranscribe TranslateTaskType = "transcribe"
	TranslateTaskSummary    TranslateTaskType = "summary"
)

// Utterance is one speaker turn of a transcript. Times are in seconds.
type Utterance struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Speaker   int     `json:"speaker"`
}

// ParseUtterances accepts either {"utterances": [...]} or a bare array.
func ParseUtterances(data string) ([]Utterance, error) {
	var wrapper struct {
		Utterances *[]Utterance `json:"utterances"`
	}
	if err := json.Unmarshal([]byte(data), &wrapper); err == nil && wrapper.Utterances != nil {
		return *wrapper.Utterances, nil
	}

	var utterances []Utterance
	if err := json.Unmarshal([]byte(data), &utterances); err != nil {
		return nil, apierr.Newf(apierr.KindInvalidInput, "Failed to parse utterances: %v", err)
	}
	return utterances, nil
}

type SummaryContent struct {
	ShortSummary string   `json:"shortSummary"`
	LongSummary  string   `json:"longSummary"`
	All          string   `json:"all"`
	Keywords     []string `json:"keywords"`
}

// CallbackRequest is the payload the service posts when a task finishes.
type CallbackRequest struct {
	TaskID     string          `json:"task_id"`
	Status     string          `json:"status"`
	Code       int             `json:"code"`
	Utterances []Utterance     `json:"utterances"`
	Summary    *SummaryContent `json:"summary,omitempty"`
	Duration   *int            `json:"duration,omitempty"`
	Message    string          `json:"message,omitempty"`
}

func ParseCallbackRequest(data string) (*CallbackRequest, error) {
	var req CallbackRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil, apierr.Newf(apierr.KindInvalidInput, "Failed to parse callback request: %v", err)
	}
	return &req, nil
}

type UploadResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    string `json:"data,omitempty"`
}

type CallbackHistory struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	Code      int    `json:"code"`
}

type StatusResponse struct {
	Status          string             `json:"status"`
	OverviewMD      string             `json:"overview_md,omitempty"`
	SummaryMD       string             `json:"summary_md,omitempty"`
	Details         []Utterance        `json:"details"`
	Message         string             `json:"message,omitempty"`
	UsageID         string             `json:"usage_id,omitempty"`
	TaskID          string             `json:"suth_task_id,omitempty"`
	Keywords        []string           `json:"keywords"`
	CallbackHistory []CallbackHistory  `json:"callback_history"`
	TaskType        TranscribeTaskType `json:"task_type,omitempty"`
}

type CallbackResponse struct {
	Status string `json:"status"`
}

type ShareLinkResponse struct {
	ShareURL       string `json:"shareUrl"`
	ExpirationTime int    `json:"expiration_time"`
	ExpiredAt      string `json:"expired_at"`
}

type SummaryCreateResponse struct {
	TaskID string `json:"task_id"`
}

type TextTranslator struct {
	Status string `json:"status"`
	Data   string `json:"data"`
}

type TranslationDetail struct {
	StartTime    float64           `json:"start_time"`
	EndTime      float64           `json:"end_time"`
	Text         string            `json:"text"`
	Speaker      int               `json:"speaker"`
	Translations map[string]string `json:"translations"`
}

type UtteranceTranslator struct {
	Status         string              `json:"status"`
	TargetLanguage string              `json:"target_language"`
	Details        []TranslationDetail `json:"details"`
}

type TranscribeTranslator struct {
	TaskID         string            `json:"task_id"`
	TaskType       TranslateTaskType `json:"task_type,omitempty"`
	Status         string            `json:"status"`
	TargetLanguage string            `json:"target_language"`
	Message        string            `json:"message,omitempty"`
	Details        json.RawMessage   `json:"details,omitempty"`
	OverviewMD     string            `json:"overview_md,omitempty"`
	SummaryMD      string            `json:"summary_md,omitempty"`
	Keywords       []string          `json:"keywords"`
}

type SessionCreateResponse struct {
	TaskID    string `json:"task_id"`
	SessionID string `json:"suth_session_id"`
	UsageID   string `json:"usage_id"`
	MaxTime   int    `json:"max_time"`
}

type SessionCloseResponse struct {
	Status    string `json:"status"`
	Duration  *int   `json:"duration,omitempty"`
	ErrorCode *int   `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}
