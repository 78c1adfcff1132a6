package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
)

// DefaultFlushInterval is the period of the timer trigger
const DefaultFlushInterval = time.Hour

// Flusher periodically flushes a Buffer
type Flusher struct {
	buffer   *Buffer
	interval time.Duration
	logger   domain.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewFlusher creates a timer trigger for buffer
func NewFlusher(buffer *Buffer, interval time.Duration, logger domain.Logger) *Flusher {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Flusher{
		buffer:   buffer,
		interval: interval,
		logger:   logger,
	}
}

// Run flushes every interval until ctx is cancelled, then flushes whatever
// is still staged and returns.
func (f *Flusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Info("flush timer started", "interval", f.interval.String())
	for {
		select {
		case <-ctx.Done():
			n, _ := f.buffer.Flush(context.WithoutCancel(ctx))
			f.logger.Info("flush timer stopped", "finalRecords", n)
			return
		case <-ticker.C:
			f.buffer.Flush(ctx)
		}
	}
}

// Start runs the timer in a background goroutine. Stop ends it.
// Start and Stop are safe to call from any goroutine; only the first Start runs.
func (f *Flusher) Start() {
	f.once.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		f.mu.Lock()
		f.cancel = cancel
		f.done = done
		f.mu.Unlock()

		go func() {
			defer close(done)
			f.Run(ctx)
		}()
	})
}

// Stop cancels the timer and waits for the final flush or for ctx to expire
func (f *Flusher) Stop(ctx context.Context) error {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
