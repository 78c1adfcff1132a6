package ingest

import (
	"context"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestFlusherFlushesOnInterval(t *testing.T) {
	writer := &MockBatchWriter{}
	buffer := newTestBuffer(t, writer, 100)
	flusher := NewFlusher(buffer, 10*time.Millisecond, &MockLogger{})

	buffer.Append(context.Background(), record("a"))
	buffer.Append(context.Background(), record("b"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go flusher.Run(ctx)

	waitFor(t, func() bool { return writer.Calls() == 1 })
	if buffer.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d", buffer.Len())
	}
	if got := len(writer.Batches[0]); got != 2 {
		t.Errorf("Expected 2 records in timer flush, got %d", got)
	}
}

func TestFlusherIdleTicksDoNotWrite(t *testing.T) {
	writer := &MockBatchWriter{}
	buffer := newTestBuffer(t, writer, 100)
	flusher := NewFlusher(buffer, 5*time.Millisecond, &MockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go flusher.Run(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()

	if writer.Calls() != 0 {
		t.Errorf("Expected no writes for an empty buffer, got %d", writer.Calls())
	}
}

func TestFlusherStopFlushesRemaining(t *testing.T) {
	writer := &MockBatchWriter{}
	buffer := newTestBuffer(t, writer, 100)
	flusher := NewFlusher(buffer, time.Hour, &MockLogger{})
	flusher.Start()

	buffer.Append(context.Background(), record("a"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := flusher.Stop(ctx); err != nil {
		t.Fatalf("Expected clean stop, got %v", err)
	}

	if writer.Calls() != 1 {
		t.Errorf("Expected final flush on stop, got %d writes", writer.Calls())
	}
	if buffer.Len() != 0 {
		t.Errorf("Expected empty buffer after stop, got %d", buffer.Len())
	}
}

func TestFlusherStopWithoutStart(t *testing.T) {
	flusher := NewFlusher(newTestBuffer(t, &MockBatchWriter{}, 10), time.Hour, &MockLogger{})

	if err := flusher.Stop(context.Background()); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestNewFlusherDefaultsInterval(t *testing.T) {
	flusher := NewFlusher(newTestBuffer(t, &MockBatchWriter{}, 10), 0, &MockLogger{})

	if flusher.interval != DefaultFlushInterval {
		t.Errorf("Expected default interval, got %s", flusher.interval)
	}
}

func TestFlusherConcurrentStartStop(t *testing.T) {
	writer := &MockBatchWriter{}
	buffer := newTestBuffer(t, writer, 100)
	flusher := NewFlusher(buffer, time.Hour, &MockLogger{})
	buffer.Append(context.Background(), record("a"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			flusher.Start()
		}()
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := flusher.Stop(ctx); err != nil {
				t.Errorf("Expected clean stop, got %v", err)
			}
		}()
	}
	wg.Wait()

	// a Stop that raced ahead of Start may have seen nothing to cancel
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := flusher.Stop(ctx); err != nil {
		t.Fatalf("Expected clean stop, got %v", err)
	}
	if buffer.Len() != 0 {
		t.Errorf("Expected final flush to drain the buffer, got %d", buffer.Len())
	}
	if writer.Calls() != 1 {
		t.Errorf("Expected exactly one write, got %d", writer.Calls())
	}
}
