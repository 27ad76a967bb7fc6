package session

import (
	"context"
	"sync"
	"time"

	"github.com/leonardotrapani/transcribebridge/internal/metrics"
)

// DefaultQueueSize is the number of frames buffered between the relay task and readers.
const DefaultQueueSize = 1024

// Queue carries text frames from one relay task to any number of sequential readers.
// Only the producer closes it; a closed, drained queue reads as end-of-stream.
type Queue struct {
	ch        chan string
	closeOnce sync.Once
	counted   bool
}

func newQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	metrics.QueuesLive.Inc()
	return &Queue{ch: make(chan string, size), counted: true}
}

// endedQueue returns an already-closed queue
func endedQueue() *Queue {
	q := &Queue{ch: make(chan string)}
	q.close()
	return q
}

func (q *Queue) push(ctx context.Context, frame string) bool {
	select {
	case q.ch <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (q *Queue) close() {
	q.closeOnce.Do(func() {
		close(q.ch)
		if q.counted {
			metrics.QueuesLive.Dec()
		}
	})
}

// Recv waits for the next frame. A negative timeout waits forever.
// ok is false on timeout and on end-of-stream alike.
func (q *Queue) Recv(timeout time.Duration) (frame string, ok bool) {
	if timeout < 0 {
		frame, ok = <-q.ch
		return frame, ok
	}

	// a frame that is already buffered wins over an expired timer
	select {
	case frame, ok = <-q.ch:
		return frame, ok
	default:
	}
	if timeout == 0 {
		return "", false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame, ok = <-q.ch:
		return frame, ok
	case <-timer.C:
		return "", false
	}
}

// Len returns the number of buffered frames
func (q *Queue) Len() int { return len(q.ch) }
