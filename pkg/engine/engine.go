// Package engine provides the embedded TaskNet database.
//
// It orchestrates the in-memory storage core and the on-disk persistence
// layer (AOF + snapshot), exposing task/project/link operations that are
// durable across restarts. The graph query engine in pkg/graph reads
// through the Accessor methods this package implements.
//
// Basic usage:
//
//	opts := engine.DefaultOptions("./data")
//	db, err := engine.Open(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridnoise/tasknet/pkg/core"
	"github.com/gridnoise/tasknet/pkg/persistence"
)

// Key prefixes for the flat KV layout. Adjacency keys hold JSON lists of
// link ids so per-node edge lookups never scan the whole store.
const (
	taskPrefix    = "task:"
	projectPrefix = "project:"
	linkPrefix    = "link:"
	outPrefix     = "out:" // links where the task is the source
	inPrefix      = "in:"  // links where the task is the target
)

// Options configures the engine, including persistence paths and automatic
// maintenance policies.
type Options struct {
	// DataDir is the directory where .aof and .tndb files are stored.
	// It is created automatically if it does not exist.
	DataDir string

	// AofFilename is the name of the append-only file (default "tasknet.aof").
	// The snapshot file is named <AofFilename base>.tndb.
	AofFilename string

	// AutoSaveInterval is the minimum time between automatic snapshots.
	// Zero disables time-based auto-saving.
	AutoSaveInterval time.Duration

	// AutoSaveThreshold is the write count that must accumulate before an
	// automatic snapshot triggers. Zero disables count-based auto-saving.
	AutoSaveThreshold int64

	// AofRewritePercentage triggers AOF compaction when the file grows past
	// its base size by this percentage. Zero disables rewriting.
	AofRewritePercentage int
}

// DefaultOptions returns a configuration suitable for most uses:
// auto-save every 60s after at least 1000 changes, rewrite at 100% growth.
func DefaultOptions(dataDir string) Options {
	return Options{
		DataDir:              dataDir,
		AofFilename:          "tasknet.aof",
		AutoSaveInterval:     60 * time.Second,
		AutoSaveThreshold:    1000,
		AofRewritePercentage: 100,
	}
}

// Engine is the main entry point for TaskNet storage.
// Use Open to initialize it and Close to shut it down gracefully.
type Engine struct {
	// DB is the in-memory core. Use the Engine methods for mutations so
	// every change is persisted to the AOF.
	DB *core.DB

	// AOF is the lazy-batching append-only log.
	AOF *persistence.LazyAOFWriter

	opts        Options
	aofPath     string
	snapPath    string
	aofBaseSize int64

	// dirtyCounter tracks writes since the last save.
	dirtyCounter int64
	lastSaveTime time.Time

	// adminMu serializes engine-level mutations and administrative tasks
	// (multi-key writes, snapshot, rewrite).
	adminMu sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open initializes an Engine: it creates the data directory, loads the
// latest snapshot if present, replays the AOF for recent mutations,
// rebuilds secondary indexes, and starts the maintenance goroutine.
// It blocks until the database is fully loaded.
func Open(opts Options) (*Engine, error) {
	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if opts.AofFilename == "" {
		opts.AofFilename = "tasknet.aof"
	}

	aofPath := filepath.Join(opts.DataDir, opts.AofFilename)
	snapPath := strings.TrimSuffix(aofPath, filepath.Ext(aofPath)) + ".tndb"

	e := &Engine{
		DB:           core.NewDB(),
		opts:         opts,
		aofPath:      aofPath,
		snapPath:     snapPath,
		lastSaveTime: time.Now(),
		closed:       make(chan struct{}),
	}

	// 1. Load snapshot if present
	if _, err := os.Stat(snapPath); err == nil {
		f, err := os.Open(snapPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		if err := e.DB.LoadFromSnapshot(f); err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
	}

	// 2. Open AOF with lazy batching
	aofWriter, err := persistence.NewAOFWriter(aofPath)
	if err != nil {
		return nil, err
	}
	e.AOF = persistence.NewLazyAOFWriter(aofWriter)

	// 3. Replay AOF to recover mutations newer than the snapshot
	if err := e.replayAOF(); err != nil {
		e.AOF.Close()
		return nil, fmt.Errorf("failed to replay AOF: %w", err)
	}

	// 4. Secondary indexes are derived state; rebuild them from KV
	e.rebuildIndexes()

	info, _ := e.AOF.File().Stat()
	e.aofBaseSize = info.Size()

	e.wg.Add(1)
	go e.backgroundTasks()

	return e, nil
}

// Close stops background maintenance and closes the AOF file. All data is
// already persisted in the AOF, so no final snapshot is forced.
func (e *Engine) Close() error {
	var err error

	e.closeOnce.Do(func() {
		close(e.closed)
		e.wg.Wait()

		if e.AOF != nil {
			err = e.AOF.Close()
		}
	})

	return err
}

func (e *Engine) backgroundTasks() {
	defer e.wg.Done()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.closed:
			return
		case <-ticker.C:
			e.checkMaintenance()
		}
	}
}

// checkMaintenance evaluates whether a snapshot or AOF rewrite is due.
func (e *Engine) checkMaintenance() {
	dirty := atomic.LoadInt64(&e.dirtyCounter)

	if e.opts.AutoSaveThreshold > 0 && e.opts.AutoSaveInterval > 0 {
		if dirty >= e.opts.AutoSaveThreshold && time.Since(e.lastSaveTime) >= e.opts.AutoSaveInterval {
			if err := e.SaveSnapshot(); err != nil {
				slog.Error("Background snapshot failed", "error", err)
			}
		}
	}

	if err := e.AOF.Flush(); err != nil {
		slog.Error("Background AOF flush failed", "error", err)
	}

	if e.opts.AofRewritePercentage > 0 {
		info, err := e.AOF.File().Stat()
		if err == nil {
			currentSize := info.Size()
			threshold := e.aofBaseSize + (e.aofBaseSize * int64(e.opts.AofRewritePercentage) / 100)
			// Min threshold 1MB to avoid rewriting tiny files constantly.
			if threshold < 1024*1024 {
				threshold = 1024 * 1024
			}

			if e.aofBaseSize > 0 && currentSize > threshold {
				if err := e.RewriteAOF(); err != nil {
					slog.Error("Background AOF rewrite failed", "error", err)
				}
			}
		}
	}
}

// --- Internal KV helpers ---
// Every mutation goes through these so the AOF record and the in-memory
// state cannot diverge. Callers hold adminMu for multi-key operations.

func (e *Engine) kvSet(key string, value []byte) error {
	cmd := persistence.FormatCommand("SET", []byte(key), value)
	if err := e.AOF.Write(cmd); err != nil {
		return fmt.Errorf("persistence error (AOF write failed): %w", err)
	}
	e.DB.GetKVStore().Set(key, value)
	atomic.AddInt64(&e.dirtyCounter, 1)
	return nil
}

func (e *Engine) kvDelete(key string) error {
	cmd := persistence.FormatCommand("DEL", []byte(key))
	if err := e.AOF.Write(cmd); err != nil {
		return fmt.Errorf("persistence error (AOF write failed): %w", err)
	}
	e.DB.GetKVStore().Delete(key)
	atomic.AddInt64(&e.dirtyCounter, 1)
	return nil
}

// flushDurable forces buffered AOF records to the OS after a completed
// logical operation.
func (e *Engine) flushDurable() error {
	if err := e.AOF.Flush(); err != nil {
		return fmt.Errorf("CRITICAL: persistence flush failed: %w", err)
	}
	return nil
}
