// AOF replay, snapshotting and AOF rewriting.
package engine

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gridnoise/tasknet/pkg/model"
	"github.com/gridnoise/tasknet/pkg/persistence"
)

// replayAOF reads the AOF and reconstructs the state written since the
// last snapshot. Commands are compacted into a map first so a key that was
// set and later deleted costs nothing at load time.
func (e *Engine) replayAOF() error {
	file, err := os.Open(e.aofPath)
	if err != nil {
		return err
	}
	defer file.Close()

	kvData := make(map[string][]byte)
	deleted := make(map[string]struct{})

	reader := bufio.NewReader(file)

	for {
		cmd, err := persistence.ParseCommand(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			// A partial frame at the tail means the process died mid-write.
			// Everything before it is intact; stop replay there.
			slog.Warn("AOF replay stopped at corrupt tail", "error", err)
			break
		}

		switch cmd.Name {
		case "SET":
			if len(cmd.Args) == 2 {
				key := string(cmd.Args[0])
				kvData[key] = cmd.Args[1]
				delete(deleted, key)
			}
		case "DEL":
			if len(cmd.Args) == 1 {
				key := string(cmd.Args[0])
				delete(kvData, key)
				deleted[key] = struct{}{}
			}
		}
	}

	kv := e.DB.GetKVStore()
	for k, v := range kvData {
		kv.Set(k, v)
	}
	// Deletions must also erase keys loaded from the snapshot.
	for k := range deleted {
		kv.Delete(k)
	}

	return nil
}

// rebuildIndexes derives the task secondary indexes from the KV records.
// Called after snapshot load and AOF replay.
func (e *Engine) rebuildIndexes() {
	e.DB.ResetIndexes()
	e.DB.GetKVStore().IteratePrefix(taskPrefix, func(key string, value []byte) {
		var t model.Task
		if err := json.Unmarshal(value, &t); err != nil {
			slog.Warn("skipping corrupt task record during index rebuild", "key", key, "error", err)
			return
		}
		e.DB.IndexTask(t)
	})
}

// SaveSnapshot writes a .tndb snapshot and truncates the AOF.
func (e *Engine) SaveSnapshot() error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()
	return e.saveSnapshotLocked()
}

func (e *Engine) saveSnapshotLocked() error {
	tempSnap := e.snapPath + ".tmp"
	f, err := os.Create(tempSnap)
	if err != nil {
		return err
	}

	if err := e.DB.Snapshot(f); err != nil {
		f.Close()
		return err
	}
	f.Close()

	if err := os.Rename(tempSnap, e.snapPath); err != nil {
		return err
	}

	if err := e.AOF.Truncate(); err != nil {
		return err
	}

	atomic.StoreInt64(&e.dirtyCounter, 0)
	e.lastSaveTime = time.Now()
	return nil
}

// RewriteAOF compacts the AOF by dumping the current KV state as one SET
// per key into a fresh file, then atomically swapping it in.
func (e *Engine) RewriteAOF() error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()

	tempAof := filepath.Join(e.opts.DataDir, "rewrite.tmp")
	f, err := os.Create(tempAof)
	if err != nil {
		return err
	}
	defer os.Remove(tempAof)

	var writeErr error
	e.DB.GetKVStore().Iterate(func(key string, value []byte) {
		if writeErr != nil {
			return
		}
		cmd := persistence.FormatCommand("SET", []byte(key), value)
		_, writeErr = f.WriteString(cmd)
	})
	if writeErr != nil {
		f.Close()
		return writeErr
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := e.AOF.ReplaceWith(tempAof); err != nil {
		return err
	}

	info, _ := e.AOF.File().Stat()
	e.aofBaseSize = info.Size()
	return nil
}
