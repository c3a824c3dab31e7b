package persistence

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// LazyAOFWriter provides asynchronous, batched writes on top of AOFWriter.
// Instead of flushing on every write, it buffers commands and flushes them
// periodically or when the buffer fills, trading a bounded durability window
// (about one ForceSyncInterval of writes) for much higher write throughput.
//
// On Close(), all pending data is flushed and synced to disk.
type LazyAOFWriter struct {
	underlying *AOFWriter

	// buffer holds pending records before flushing.
	buffer []string

	mu sync.Mutex

	flushTicker *time.Ticker
	syncTicker  *time.Ticker
	stopCh      chan struct{}
	stopped     bool

	flushInterval     time.Duration // how often to flush the buffer to the OS
	forceSyncInterval time.Duration // how often to fsync for durability
	maxBufferSize     int           // buffer entries before a forced flush
}

// Default configuration for LazyAOFWriter, balancing latency and durability.
const (
	DefaultLazyFlushInterval = 100 * time.Millisecond
	DefaultForceSyncInterval = 1 * time.Second
	DefaultMaxBufferSize     = 1000
)

// NewLazyAOFWriter wraps an AOFWriter with lazy batching using the default
// configuration. The underlying writer must not be used directly afterwards.
func NewLazyAOFWriter(underlying *AOFWriter) *LazyAOFWriter {
	return NewLazyAOFWriterWithConfig(
		underlying,
		DefaultLazyFlushInterval,
		DefaultForceSyncInterval,
		DefaultMaxBufferSize,
	)
}

// NewLazyAOFWriterWithConfig wraps an AOFWriter with custom batching
// parameters, for tuning the durability vs performance trade-off.
func NewLazyAOFWriterWithConfig(
	underlying *AOFWriter,
	flushInterval time.Duration,
	forceSyncInterval time.Duration,
	maxBufferSize int,
) *LazyAOFWriter {
	lw := &LazyAOFWriter{
		underlying:        underlying,
		buffer:            make([]string, 0, maxBufferSize),
		flushInterval:     flushInterval,
		forceSyncInterval: forceSyncInterval,
		maxBufferSize:     maxBufferSize,
		stopCh:            make(chan struct{}),
	}

	lw.flushTicker = time.NewTicker(flushInterval)
	go lw.flushRoutine()

	lw.syncTicker = time.NewTicker(forceSyncInterval)
	go lw.syncRoutine()

	slog.Info("LazyAOFWriter initialized",
		"flush_interval", flushInterval,
		"sync_interval", forceSyncInterval,
		"max_buffer_size", maxBufferSize,
	)

	return lw
}

// Write appends a record to the internal buffer and returns immediately.
// The actual disk write happens asynchronously; a full buffer triggers an
// immediate background flush.
func (lw *LazyAOFWriter) Write(data string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if lw.stopped {
		return fmt.Errorf("cannot write to closed LazyAOFWriter")
	}

	lw.buffer = append(lw.buffer, data)

	if len(lw.buffer) >= lw.maxBufferSize {
		go lw.Flush()
	}

	return nil
}

// Flush writes all buffered records to the underlying AOF writer.
// This only flushes to the OS buffer; use Sync for an fsync.
func (lw *LazyAOFWriter) Flush() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	return lw.flushUnlocked()
}

// flushUnlocked performs the actual flush. Caller must hold the mutex.
func (lw *LazyAOFWriter) flushUnlocked() error {
	if len(lw.buffer) == 0 {
		return nil
	}

	for _, data := range lw.buffer {
		if err := lw.underlying.Write(data); err != nil {
			return fmt.Errorf("failed to write to AOF: %w", err)
		}
	}

	if err := lw.underlying.Flush(); err != nil {
		return fmt.Errorf("failed to flush AOF buffer: %w", err)
	}

	lw.buffer = lw.buffer[:0]

	return nil
}

// Sync flushes any pending buffer, then fsyncs the underlying file.
func (lw *LazyAOFWriter) Sync() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if err := lw.flushUnlocked(); err != nil {
		return err
	}

	return lw.underlying.Sync()
}

// Close stops the background routines, flushes any pending data, and syncs
// to disk. After Close(), no more writes are accepted.
func (lw *LazyAOFWriter) Close() error {
	lw.mu.Lock()
	if lw.stopped {
		lw.mu.Unlock()
		return fmt.Errorf("LazyAOFWriter already closed")
	}
	lw.stopped = true
	lw.mu.Unlock()

	close(lw.stopCh)
	lw.flushTicker.Stop()
	lw.syncTicker.Stop()

	lw.mu.Lock()
	defer lw.mu.Unlock()

	if err := lw.flushUnlocked(); err != nil {
		// Still try to close the underlying file.
		slog.Error("Failed to flush during Close", "error", err)
	}

	return lw.underlying.Close()
}

// Path returns the file path of the underlying AOF writer.
func (lw *LazyAOFWriter) Path() string {
	return lw.underlying.Path()
}

// File returns the underlying OS file (read-only access recommended).
func (lw *LazyAOFWriter) File() *os.File {
	return lw.underlying.File()
}

// Truncate flushes any pending buffer, then clears the file content.
func (lw *LazyAOFWriter) Truncate() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if err := lw.flushUnlocked(); err != nil {
		return err
	}

	return lw.underlying.Truncate()
}

// ReplaceWith flushes pending data, then atomically swaps the AOF file.
func (lw *LazyAOFWriter) ReplaceWith(newFilePath string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if err := lw.flushUnlocked(); err != nil {
		return err
	}

	return lw.underlying.ReplaceWith(newFilePath)
}

func (lw *LazyAOFWriter) flushRoutine() {
	for {
		select {
		case <-lw.flushTicker.C:
			if err := lw.Flush(); err != nil {
				slog.Error("Periodic flush failed", "error", err)
			}
		case <-lw.stopCh:
			return
		}
	}
}

// syncRoutine periodically forces an fsync so that buffered data reaches
// disk even when the write rate is too low to fill the buffer.
func (lw *LazyAOFWriter) syncRoutine() {
	for {
		select {
		case <-lw.syncTicker.C:
			if err := lw.Sync(); err != nil {
				slog.Error("Periodic sync failed", "error", err)
			}
		case <-lw.stopCh:
			return
		}
	}
}
