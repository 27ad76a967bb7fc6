package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ReaderSource chunks an io.Reader (a file or stdin) into fixed-size frames.
// When Pace is set, frames are emitted no faster than real time for the given config.
type ReaderSource struct {
	r         io.Reader
	chunkSize int
	buffer    int
	pace      time.Duration
}

// NewReaderSource returns a source that reads chunkSize bytes per frame.
func NewReaderSource(r io.Reader, chunkSize int) *ReaderSource {
	return &ReaderSource{r: r, chunkSize: chunkSize, buffer: 4}
}

// Paced makes the source sleep between frames as if the audio were captured live.
func (s *ReaderSource) Paced(c Config) *ReaderSource {
	bytesPerSecond := c.SampleRate * c.Channels * 2
	if bytesPerSecond > 0 {
		s.pace = time.Duration(s.chunkSize) * time.Second / time.Duration(bytesPerSecond)
	}
	return s
}

func (s *ReaderSource) Start(ctx context.Context) (<-chan AudioFrame, <-chan error, error) {
	if s.chunkSize <= 0 {
		return nil, nil, fmt.Errorf("invalid chunk size: %d", s.chunkSize)
	}

	frameCh := make(chan AudioFrame, s.buffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(frameCh)
		defer close(errCh)

		var ticker *time.Ticker
		if s.pace > 0 {
			ticker = time.NewTicker(s.pace)
			defer ticker.Stop()
		}

		buf := make([]byte, s.chunkSize)
		for {
			n, err := io.ReadFull(s.r, buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])

				select {
				case frameCh <- AudioFrame{Data: data, Timestamp: time.Now()}:
				case <-ctx.Done():
					return
				}
				if ticker != nil {
					select {
					case <-ticker.C:
					case <-ctx.Done():
						return
					}
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
					errCh <- fmt.Errorf("read audio: %w", err)
				}
				return
			}
		}
	}()

	return frameCh, errCh, nil
}
