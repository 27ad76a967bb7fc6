package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/transcribebridge/internal/config"
	"github.com/muesli/termenv"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

type ConfigSection string

const (
	SectionAPI         ConfigSection = "api"
	SectionTranslate   ConfigSection = "translate"
	SectionStream      ConfigSection = "stream"
	SectionRecording   ConfigSection = "recording"
	SectionLogging     ConfigSection = "logging"
	SectionSaveExit    ConfigSection = "save_exit"
	SectionDiscardExit ConfigSection = "discard_exit"
)

// Run starts the menu-driven configuration editor on a copy of cfg.
func Run(cfg *config.Config) (*ConfigureResult, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	edited := *cfg

	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(&edited)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(&edited)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: &edited}, nil
			}
		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil
		case SectionAPI:
			_ = editAPI(&edited)
		case SectionTranslate:
			_ = editTranslate(&edited)
		case SectionStream:
			_ = editStream(&edited)
		case SectionRecording:
			_ = editRecording(&edited)
		case SectionLogging:
			_ = editLogging(&edited)
		}
	}
}

func menuOptions(cfg *config.Config) []huh.Option[ConfigSection] {
	return []huh.Option[ConfigSection]{
		huh.NewOption(fmt.Sprintf("Service API (%s)", cfg.API.BaseURL), SectionAPI),
		huh.NewOption(fmt.Sprintf("Translation (%s)", cfg.Translate.Backend), SectionTranslate),
		huh.NewOption(fmt.Sprintf("Streaming (queue=%d, chunk=%d)", cfg.Stream.QueueSize, cfg.Stream.ChunkSize), SectionStream),
		huh.NewOption(fmt.Sprintf("Recording (rate=%d, channels=%d)", cfg.Recording.SampleRate, cfg.Recording.Channels), SectionRecording),
		huh.NewOption(fmt.Sprintf("Logging (%s)", cfg.Log.Level), SectionLogging),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(menuOptions(cfg)...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func editAPI(cfg *config.Config) error {
	baseURL := cfg.API.BaseURL
	wsURL := cfg.API.WSURL
	timeout := cfg.API.Timeout.String()
	token := cfg.API.Token

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Base URL").
				Description("REST endpoint of the transcription service").
				Placeholder(config.DefaultBaseURL).
				Value(&baseURL),
			huh.NewInput().
				Title("Streaming URL").
				Description("WebSocket endpoint used by real-time sessions").
				Placeholder(config.DefaultWSURL).
				Value(&wsURL),
			huh.NewInput().
				Title("Request Timeout").
				Placeholder("60s").
				Value(&timeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Token").
				Description("Bearer token. Leave empty to use TRANSCRIBE_TOKEN.").
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.API.BaseURL = strings.TrimSpace(baseURL)
	cfg.API.WSURL = strings.TrimSpace(wsURL)
	cfg.API.Timeout, _ = time.ParseDuration(timeout)
	cfg.API.Token = strings.TrimSpace(token)
	return nil
}

func editTranslate(cfg *config.Config) error {
	backend := cfg.Translate.Backend
	apiKey := cfg.Translate.OpenAIAPIKey
	model := cfg.Translate.OpenAIModel
	baseURL := cfg.Translate.OpenAIBaseURL

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Text Translation Backend").
				Description("Utterance and task translation always use the service").
				Options(
					huh.NewOption("Transcription service", "service"),
					huh.NewOption("OpenAI chat completions", "openai"),
				).
				Value(&backend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API Key").
				Description("Leave empty to use OPENAI_API_KEY").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewInput().
				Title("Model").
				Placeholder("gpt-4o-mini").
				Value(&model),
			huh.NewInput().
				Title("Base URL").
				Description("Optional OpenAI-compatible endpoint").
				Value(&baseURL),
		).WithHideFunc(func() bool { return backend != "openai" }),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Translate.Backend = backend
	cfg.Translate.OpenAIAPIKey = strings.TrimSpace(apiKey)
	cfg.Translate.OpenAIModel = strings.TrimSpace(model)
	cfg.Translate.OpenAIBaseURL = strings.TrimSpace(baseURL)
	return nil
}

func editStream(cfg *config.Config) error {
	queueSize := strconv.Itoa(cfg.Stream.QueueSize)
	readTimeout := cfg.Stream.ReadTimeout.String()
	chunkSize := strconv.Itoa(cfg.Stream.ChunkSize)
	workers := strconv.Itoa(cfg.Runtime.Workers)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Read Queue Size").
				Description("Frames buffered per stream before the relay waits").
				Placeholder("1024").
				Value(&queueSize).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Read Poll Interval").
				Placeholder("200ms").
				Value(&readTimeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Chunk Size (bytes)").
				Description("Audio bytes per write when streaming a file").
				Placeholder("3200").
				Value(&chunkSize).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Engine Workers").
				Placeholder("4").
				Value(&workers).
				Validate(validatePositiveInt),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Stream.QueueSize, _ = strconv.Atoi(queueSize)
	cfg.Stream.ReadTimeout, _ = time.ParseDuration(readTimeout)
	cfg.Stream.ChunkSize, _ = strconv.Atoi(chunkSize)
	cfg.Runtime.Workers, _ = strconv.Atoi(workers)
	return nil
}

func editRecording(cfg *config.Config) error {
	sampleRate := strconv.Itoa(cfg.Recording.SampleRate)
	channels := strconv.Itoa(cfg.Recording.Channels)
	format := cfg.Recording.Format
	bufferSize := strconv.Itoa(cfg.Recording.BufferSize)
	device := cfg.Recording.Device
	channelBufferSize := strconv.Itoa(cfg.Recording.ChannelBufferSize)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Sample Rate (Hz)").
				Description("16000 is what the streaming endpoint expects").
				Placeholder("16000").
				Value(&sampleRate).
				Validate(validatePositiveInt),
			huh.NewSelect[string]().
				Title("Channels").
				Options(
					huh.NewOption("1 (Mono) - Recommended", "1"),
					huh.NewOption("2 (Stereo)", "2"),
				).
				Value(&channels),
			huh.NewSelect[string]().
				Title("Audio Format").
				Options(
					huh.NewOption("s16 (16-bit signed) - Recommended", "s16"),
					huh.NewOption("f32 (32-bit float)", "f32"),
				).
				Value(&format),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Buffer Size (bytes)").
				Placeholder("3200").
				Value(&bufferSize).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Channel Buffer Size").
				Description("Number of audio frames to buffer").
				Placeholder("30").
				Value(&channelBufferSize).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Device").
				Description("PipeWire device name. Empty = default microphone.").
				Placeholder("(default)").
				Value(&device),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Recording.SampleRate, _ = strconv.Atoi(sampleRate)
	cfg.Recording.Channels, _ = strconv.Atoi(channels)
	cfg.Recording.Format = format
	cfg.Recording.BufferSize, _ = strconv.Atoi(bufferSize)
	cfg.Recording.Device = device
	cfg.Recording.ChannelBufferSize, _ = strconv.Atoi(channelBufferSize)
	return nil
}

func editLogging(cfg *config.Config) error {
	level := cfg.Log.Level
	jsonOutput := cfg.Log.JSON

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&level),
			huh.NewConfirm().
				Title("JSON Output").
				Affirmative("JSON").
				Negative("Console").
				Value(&jsonOutput),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Log.Level = level
	cfg.Log.JSON = jsonOutput
	return nil
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	for _, line := range summaryLines(cfg) {
		fmt.Printf("  %s %s\n", StyleLabel.Render(line[0]), line[1])
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func summaryLines(cfg *config.Config) [][2]string {
	lines := [][2]string{
		{"API:", cfg.API.BaseURL},
		{"Streaming:", cfg.API.WSURL},
		{"Token:", maskSecret(cfg.API.Token)},
		{"Translation:", cfg.Translate.Backend},
	}
	if cfg.Translate.Backend == "openai" {
		lines = append(lines,
			[2]string{"OpenAI model:", cfg.Translate.OpenAIModel},
			[2]string{"OpenAI key:", maskSecret(cfg.Translate.OpenAIAPIKey)},
		)
	}
	return append(lines,
		[2]string{"Workers:", strconv.Itoa(cfg.Runtime.Workers)},
		[2]string{"Queue size:", strconv.Itoa(cfg.Stream.QueueSize)},
		[2]string{"Log level:", cfg.Log.Level},
	)
}

// maskSecret keeps the last four characters of a credential
func maskSecret(s string) string {
	if s == "" {
		return StyleMuted.Render("(from environment)")
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration format (use '200ms', '30s', etc.)")
	}
	if d <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
