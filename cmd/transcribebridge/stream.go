package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leonardotrapani/transcribebridge/internal/bridge"
	"github.com/leonardotrapani/transcribebridge/internal/config"
	"github.com/leonardotrapani/transcribebridge/internal/host"
	"github.com/leonardotrapani/transcribebridge/internal/logger"
	"github.com/leonardotrapani/transcribebridge/internal/metrics"
	"github.com/leonardotrapani/transcribebridge/internal/recording"
	"github.com/leonardotrapani/transcribebridge/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type streamOptions struct {
	file        string
	mic         bool
	model       string
	linger      time.Duration
	watch       bool
	metricsAddr string
}

func streamCmd() *cobra.Command {
	var opts streamOptions
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream audio to a realtime session and print what comes back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.file == "" && !opts.mic {
				return fmt.Errorf("one of --file or --mic is required")
			}
			if opts.file != "" && opts.mic {
				return fmt.Errorf("--file and --mic are mutually exclusive")
			}
			return withBridge(func(cfg *config.Config, token string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return runStream(ctx, cmd.OutOrStdout(), cfg, token, opts)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "raw PCM file to stream, - for stdin")
	cmd.Flags().BoolVar(&opts.mic, "mic", false, "capture from the microphone through PipeWire")
	cmd.Flags().StringVar(&opts.model, "model", "quality", "model type: speed, quality or quality_v2")
	cmd.Flags().DurationVar(&opts.linger, "linger", 3*time.Second, "how long to keep reading after the audio ends")
	cmd.Flags().BoolVar(&opts.watch, "watch-config", false, "apply config file changes while streaming")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics on this address while streaming")
	return cmd
}

func runStream(ctx context.Context, out io.Writer, cfg *config.Config, token string, opts streamOptions) error {
	l := logger.For("stream")

	if opts.watch {
		m, err := config.NewManager(configPath)
		if err != nil {
			return err
		}
		bridge.Watch(m)
		if err := m.StartWatching(ctx); err != nil {
			return err
		}
		defer m.Stop()
	}

	if opts.metricsAddr != "" {
		srv := metricsServer(opts.metricsAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error().Err(err).Str("addr", opts.metricsAddr).Msg("metrics server failed")
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	source, closeSource, err := openSource(cfg, opts)
	if err != nil {
		return err
	}
	defer closeSource()

	sess, err := host.CreateSession(opts.model, token)
	if err != nil {
		return errors.New(describe(err))
	}
	l.Info().Str("task_id", sess.TaskID).Str("session_id", sess.SessionID).Int("max_time", sess.MaxTime).Msg("session created")

	s, err := host.OpenStream(sess.SessionID)
	if err != nil {
		return errors.New(describe(err))
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		return errors.New(describe(err))
	}

	if err := pump(ctx, out, s, source, cfg.Stream.ReadTimeout, opts.linger); err != nil {
		return errors.New(describe(err))
	}

	closed, err := host.CloseSession(sess.TaskID, token, 0)
	if err != nil {
		return errors.New(describe(err))
	}
	if closed.Duration != nil {
		fmt.Fprintln(out, tui.StyleSuccess.Render(fmt.Sprintf("Session %s closed after %ds", sess.TaskID, *closed.Duration)))
	} else {
		fmt.Fprintln(out, tui.StyleSuccess.Render(fmt.Sprintf("Session %s %s", sess.TaskID, closed.Status)))
	}
	return nil
}

// pumpStream is what pump needs from a host stream
type pumpStream interface {
	WriteBinary(data []byte) error
	Read(timeout time.Duration) (string, bool, error)
	Stop() error
}

// pump writes source frames into s while printing everything s yields. Once the
// source is exhausted it keeps reading for linger, then stops the stream.
func pump(ctx context.Context, out io.Writer, s pumpStream, source recording.Source, poll, linger time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	written := make(chan struct{})

	g.Go(func() error {
		defer close(written)
		defer s.Stop()

		frames, errs, err := source.Start(gctx)
		if err != nil {
			return err
		}
	loop:
		for {
			select {
			case frame, ok := <-frames:
				if !ok {
					break loop
				}
				if err := s.WriteBinary(frame.Data); err != nil {
					return err
				}
			case <-gctx.Done():
				return nil
			}
		}
		if err := <-errs; err != nil {
			return err
		}

		select {
		case <-time.After(linger):
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-written:
				return nil
			case <-gctx.Done():
				return nil
			default:
			}

			start := time.Now()
			frame, ok, err := s.Read(poll)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(out, tui.StyleHighlight.Render(frame))
				continue
			}

			// an ended queue answers at once; wait out the rest of the poll
			if rest := poll - time.Since(start); rest > 0 {
				select {
				case <-written:
					return nil
				case <-gctx.Done():
					return nil
				case <-time.After(rest):
				}
			}
		}
	})

	return g.Wait()
}

func openSource(cfg *config.Config, opts streamOptions) (recording.Source, func(), error) {
	if opts.mic {
		rec := recording.NewRecorder(cfg.ToRecordingConfig())
		return rec, func() {
			rec.Stop()
			rec.Wait()
		}, nil
	}

	if opts.file == "-" {
		return recording.NewReaderSource(os.Stdin, cfg.Stream.ChunkSize).Paced(cfg.ToRecordingConfig()), func() {}, nil
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", opts.file, err)
	}
	src := recording.NewReaderSource(f, cfg.Stream.ChunkSize).Paced(cfg.ToRecordingConfig())
	return src, func() { f.Close() }, nil
}

func metricsServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Get("/metrics", metrics.Handler().ServeHTTP)
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
