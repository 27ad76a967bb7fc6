package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/bridge"
	"github.com/leonardotrapani/transcribebridge/internal/config"
	"github.com/leonardotrapani/transcribebridge/internal/host"
	"github.com/leonardotrapani/transcribebridge/internal/language"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/leonardotrapani/transcribebridge/internal/metrics"
	"github.com/leonardotrapani/transcribebridge/internal/tui"
	"github.com/spf13/cobra"
)

const version = "v0.3.0"

var (
	configPath string
	tokenFlag  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "transcribebridge",
	Short:         "Drive the transcription service through the native bridge",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is the user config)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "bearer token (overrides api.token and TRANSCRIBE_TOKEN)")

	rootCmd.AddCommand(
		uploadCmd(),
		statusCmd(),
		callbackCmd(),
		shareCmd(),
		summaryCmd(),
		exportCmd(),
		translateCmd(),
		sessionCmd(),
		streamCmd(),
		configureCmd(),
		languagesCmd(),
		metricsCmd(),
		versionCmd(),
	)
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.JSON, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withBridge loads the config, configures the bridge and keeps the engine up for fn.
func withBridge(fn func(cfg *config.Config, token string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := bridge.ConfigureFromConfig(cfg); err != nil {
		return fmt.Errorf("failed to configure bridge: %w", err)
	}
	if err := host.Initialize(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer host.Shutdown()

	return fn(cfg, resolveToken(cfg))
}

func resolveToken(cfg *config.Config) string {
	if tokenFlag != "" {
		return tokenFlag
	}
	return cfg.API.Token
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// readArg returns the contents of path, or stdin when path is "-".
func readArg(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// describe renders an error for the terminal, showing the exception code when there is one.
func describe(err error) string {
	var ex *host.Exception
	if errors.As(err, &ex) {
		return tui.StyleError.Render(string(ex.Code)) + " " + ex.Message
	}
	return tui.StyleError.Render(err.Error())
}

func uploadCmd() *cobra.Command {
	var opts host.UploadOptions
	cmd := &cobra.Command{
		Use:   "upload <audio-file>",
		Short: "Upload an audio file for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(func(cfg *config.Config, token string) error {
				resp, err := host.Upload(args[0], opts, token)
				if err != nil {
					return errors.New(describe(err))
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.TranscribeOnly, "transcribe-only", false, "skip summary generation")
	cmd.Flags().BoolVar(&opts.ShortASR, "short-asr", false, "use the short audio recognizer")
	cmd.Flags().StringVar(&opts.Model, "model", "quality", "model type: speed, quality or quality_v2")
	return cmd
}

func statusCmd() *cobra.Command {
	var shareID string
	cmd := &cobra.Command{
		Use:   "status [task-id]",
		Short: "Show the status of a transcription task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var taskID string
			if len(args) == 1 {
				taskID = args[0]
			}
			if taskID == "" && shareID == "" {
				return fmt.Errorf("either a task id or --share-id is required")
			}
			return withBridge(func(cfg *config.Config, token string) error {
				resp, err := host.Status(taskID, shareID, token)
				if err != nil {
					return errors.New(describe(err))
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().StringVar(&shareID, "share-id", "", "look the task up by share id")
	return cmd
}

func callbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "callback <request.json|->",
		Short: "Deliver a callback payload to the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readArg(args[0])
			if err != nil {
				return err
			}
			return withBridge(func(cfg *config.Config, token string) error {
				resp, err := host.Callback(body, token)
				if err != nil {
					return errors.New(describe(err))
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func shareCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "share <task-id>",
		Short: "Create a share link for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(func(cfg *config.Config, token string) error {
				resp, err := host.ShareLink(args[0], days, token)
				if err != nil {
					return errors.New(describe(err))
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "link lifetime in days (0 = server default)")
	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <utterances.json|->",
		Short: "Create a summary task from utterances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readArg(args[0])
			if err != nil {
				return err
			}
			return withBridge(func(cfg *config.Config, token string) error {
				resp, err := host.CreateSummary(body, token)
				if err != nil {
					return errors.New(describe(err))
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		exportType string
		format     string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "export <task-id>",
		Short: "Export a transcript, overview or summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = fmt.Sprintf("%s-%s.%s", args[0], exportType, strings.ToLower(format))
			}
			return withBridge(func(cfg *config.Config, token string) error {
				data, err := host.Export(args[0], exportType, format, token)
				if err != nil {
					return errors.New(describe(err))
				}
				if output == "-" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), tui.StyleSuccess.Render(fmt.Sprintf("Wrote %d bytes to %s", len(data), output)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&exportType, "type", "transcript", "transcript, overview or summary")
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf, txt or docx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

func translateCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate text, utterances or a finished task",
	}
	cmd.PersistentFlags().StringVarP(&lang, "lang", "l", "en", "target language (see 'languages')")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "text <text>",
			Short: "Translate a piece of text",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withBridge(func(cfg *config.Config, token string) error {
					resp, err := host.TranslateText(strings.Join(args, " "), lang, token)
					if err != nil {
						return errors.New(describe(err))
					}
					fmt.Fprintln(cmd.OutOrStdout(), resp.Data)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "utterances <utterances.json|->",
			Short: "Translate a list of utterances",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				body, err := readArg(args[0])
				if err != nil {
					return err
				}
				return withBridge(func(cfg *config.Config, token string) error {
					resp, err := host.TranslateUtterances(body, lang, token)
					if err != nil {
						return errors.New(describe(err))
					}
					return printJSON(cmd.OutOrStdout(), resp)
				})
			},
		},
		&cobra.Command{
			Use:   "task <task-id>",
			Short: "Translate the results of a transcription task",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withBridge(func(cfg *config.Config, token string) error {
					resp, err := host.TranslateTranscribe(args[0], lang, token)
					if err != nil {
						return errors.New(describe(err))
					}
					return printJSON(cmd.OutOrStdout(), resp)
				})
			},
		},
	)
	return cmd
}

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create or close realtime sessions",
	}

	var model string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a realtime transcription session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(func(cfg *config.Config, token string) error {
				resp, err := host.CreateSession(model, token)
				if err != nil {
					return errors.New(describe(err))
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	create.Flags().StringVar(&model, "model", "quality", "model type: speed, quality or quality_v2")

	var timeout time.Duration
	closeCmd := &cobra.Command{
		Use:   "close <task-id>",
		Short: "Close a realtime session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(func(cfg *config.Config, token string) error {
				resp, err := host.CloseSession(args[0], token, timeout)
				if err != nil {
					return errors.New(describe(err))
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	closeCmd.Flags().DurationVar(&timeout, "timeout", 0, "server-side close timeout (0 = default)")

	cmd.AddCommand(create, closeCmd)
	return cmd
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := config.LoadFile(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg, err = config.DefaultConfig(), nil
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Println(tui.StyleError.Render(fmt.Sprintf("Configuration validation failed: %v", err)))
		return err
	}
	if err := result.Config.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(tui.StyleSuccess.Render("Configuration saved to " + path))
	fmt.Println()
	fmt.Println("Next Steps:")
	if result.Config.API.Token == "" {
		fmt.Println("1. Export TRANSCRIBE_TOKEN or pass --token")
		fmt.Println("2. Try: transcribebridge stream --file audio.pcm")
	} else {
		fmt.Println("1. Try: transcribebridge stream --file audio.pcm")
	}
	return nil
}

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List translation target languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), languageTable())
			return nil
		},
	}
}

func languageTable() string {
	var rows [][]string
	for _, l := range language.List() {
		rows = append(rows, []string{l.Code, l.Name, l.NativeName})
	}
	return tui.Table([]string{"CODE", "NAME", "NATIVE"}, rows)
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print bridge metrics in the Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return metrics.WriteText(cmd.OutOrStdout())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "transcribebridge %s\n", version)
		},
	}
}
