// Package ingest stages accepted notifications in memory and flushes them to
// a BatchWriter when a size watermark is reached or a timer fires.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
)

const (
	// DefaultWatermark is the buffer length that forces an immediate flush
	DefaultWatermark = 100
	// DefaultWriteTimeout bounds a single batch write
	DefaultWriteTimeout = 30 * time.Second
)

var tracer = otel.Tracer("github.com/josejalvarezm/payments-webhook-connector/internal/ingest")

// Stats counts flush outcomes since process start
type Stats struct {
	Buffered       int       `json:"buffered"`
	Flushes        int64     `json:"flushes"`
	FailedFlushes  int64     `json:"failedFlushes"`
	RecordsWritten int64     `json:"recordsWritten"`
	RecordsDropped int64     `json:"recordsDropped"`
	LastFlushAt    time.Time `json:"lastFlushAt,omitempty"`
}

// Buffer is the process-wide staging area for normalized records.
// records is only read or mutated with mu held; writes happen outside it.
type Buffer struct {
	mu        sync.Mutex
	records   []domain.NotificationRecord
	watermark int

	writer       domain.BatchWriter
	logger       domain.Logger
	ids          *snowflake.Node
	writeTimeout time.Duration

	statsMu sync.Mutex
	stats   Stats
}

// NewBuffer creates a buffer flushing to writer once watermark records are staged
func NewBuffer(writer domain.BatchWriter, logger domain.Logger, watermark int, ids *snowflake.Node) *Buffer {
	if watermark <= 0 {
		watermark = DefaultWatermark
	}
	return &Buffer{
		records:      make([]domain.NotificationRecord, 0, watermark),
		watermark:    watermark,
		writer:       writer,
		logger:       logger,
		ids:          ids,
		writeTimeout: DefaultWriteTimeout,
	}
}

// Append adds record at the tail. When the buffer reaches the watermark the
// batch is flushed before Append returns. Write failures are logged only.
func (b *Buffer) Append(ctx context.Context, record domain.NotificationRecord) {
	b.mu.Lock()
	b.records = append(b.records, record)
	reached := len(b.records) >= b.watermark
	b.mu.Unlock()

	if reached {
		// the caller has already been promised acceptance; a cancelled
		// request must not abort the write
		b.Flush(context.WithoutCancel(ctx))
	}
}

// DrainAndClear returns the staged records and leaves the buffer empty
func (b *Buffer) DrainAndClear() []domain.NotificationRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.records) == 0 {
		return nil
	}
	batch := b.records
	b.records = make([]domain.NotificationRecord, 0, b.watermark)
	return batch
}

// Len returns the number of staged records
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Flush drains the buffer and writes the batch once. A failed batch is
// dropped, not re-buffered. It returns the number of records drained.
func (b *Buffer) Flush(ctx context.Context) (int, error) {
	batch := b.DrainAndClear()
	if len(batch) == 0 {
		return 0, nil
	}

	batchID := b.ids.Generate().String()
	ctx, span := tracer.Start(ctx, "ingest.flush")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.size", len(batch)),
	)

	writeCtx, cancel := context.WithTimeout(ctx, b.writeTimeout)
	defer cancel()

	err := b.writer.WriteBatch(writeCtx, batch)
	b.record(len(batch), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch write failed")
		b.logger.Error(fmt.Sprintf("batch %s dropped %d records", batchID, len(batch)), err)
		return len(batch), fmt.Errorf("%w: %v", domain.ErrDatabaseWrite, err)
	}

	b.logger.Info("batch flushed", "batchId", batchID, "records", len(batch))
	return len(batch), nil
}

// Stats returns a snapshot of the flush counters
func (b *Buffer) Stats() Stats {
	buffered := b.Len()

	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	s := b.stats
	s.Buffered = buffered
	return s
}

func (b *Buffer) record(n int, err error) {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()

	b.stats.Flushes++
	b.stats.LastFlushAt = time.Now().UTC()
	if err != nil {
		b.stats.FailedFlushes++
		b.stats.RecordsDropped += int64(n)
		return
	}
	b.stats.RecordsWritten += int64(n)
}
