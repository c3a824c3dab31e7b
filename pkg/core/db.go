// This file defines the DB struct, which owns the KV store plus the B-tree
// secondary indexes used to answer "tasks by status" and "tasks by project"
// without scanning every record. It also implements gob snapshotting of the
// raw KV state.
package core

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/tidwall/btree"

	"github.com/gridnoise/tasknet/pkg/model"
)

// taskKey is the composite key stored in the secondary indexes.
// Entries sort by (Bucket, ID) so all tasks in one bucket are contiguous.
type taskKey struct {
	Bucket string // status value or project id
	ID     string
}

func taskKeyLess(a, b taskKey) bool {
	if a.Bucket != b.Bucket {
		return a.Bucket < b.Bucket
	}
	return a.ID < b.ID
}

// DB orchestrates the key-value store and the task secondary indexes.
// The KV store holds the durable records; the B-trees are derived state,
// rebuilt from the KV data after a snapshot load or AOF replay.
type DB struct {
	kv *KVStore

	statusIdx  *btree.BTreeG[taskKey]
	projectIdx *btree.BTreeG[taskKey]
}

// NewDB creates an empty database core.
func NewDB() *DB {
	return &DB{
		kv:         NewKVStore(),
		statusIdx:  btree.NewBTreeG(taskKeyLess),
		projectIdx: btree.NewBTreeG(taskKeyLess),
	}
}

// GetKVStore exposes the underlying key-value store.
func (db *DB) GetKVStore() *KVStore {
	return db.kv
}

// IndexTask registers a task in the secondary indexes.
func (db *DB) IndexTask(t model.Task) {
	db.statusIdx.Set(taskKey{Bucket: string(t.Status), ID: t.ID})
	if t.ProjectID != "" {
		db.projectIdx.Set(taskKey{Bucket: t.ProjectID, ID: t.ID})
	}
}

// UnindexTask removes a task's entries from the secondary indexes.
func (db *DB) UnindexTask(t model.Task) {
	db.statusIdx.Delete(taskKey{Bucket: string(t.Status), ID: t.ID})
	if t.ProjectID != "" {
		db.projectIdx.Delete(taskKey{Bucket: t.ProjectID, ID: t.ID})
	}
}

// ReindexTask atomically swaps a task's index entries after an update.
func (db *DB) ReindexTask(old, updated model.Task) {
	db.UnindexTask(old)
	db.IndexTask(updated)
}

// TaskIDsByStatus returns the ids of every task currently in the given status.
func (db *DB) TaskIDsByStatus(status model.Status) []string {
	return db.scanBucket(db.statusIdx, string(status))
}

// TaskIDsByProject returns the ids of every task assigned to the given project.
func (db *DB) TaskIDsByProject(projectID string) []string {
	return db.scanBucket(db.projectIdx, projectID)
}

func (db *DB) scanBucket(idx *btree.BTreeG[taskKey], bucket string) []string {
	var ids []string
	idx.Ascend(taskKey{Bucket: bucket}, func(k taskKey) bool {
		if k.Bucket != bucket {
			return false
		}
		ids = append(ids, k.ID)
		return true
	})
	return ids
}

// ResetIndexes clears the secondary indexes. Used before a rebuild.
func (db *DB) ResetIndexes() {
	db.statusIdx = btree.NewBTreeG(taskKeyLess)
	db.projectIdx = btree.NewBTreeG(taskKeyLess)
}

// --- Snapshotting ---

// snapshot is the complete serializable state of the database.
// Secondary indexes are not stored; they are derived from the KV data.
type snapshot struct {
	KVData map[string][]byte
}

// Snapshot serializes the full KV state to the writer using gob encoding.
func (db *DB) Snapshot(w io.Writer) error {
	snap := snapshot{KVData: make(map[string][]byte, db.kv.Len())}
	db.kv.Iterate(func(key string, value []byte) {
		snap.KVData[key] = value
	})

	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// LoadFromSnapshot replaces the KV state with the snapshot read from r.
// The caller is responsible for rebuilding the secondary indexes afterwards
// (the core cannot decode entity records on its own).
func (db *DB) LoadFromSnapshot(r io.Reader) error {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	kv := NewKVStore()
	for k, v := range snap.KVData {
		kv.Set(k, v)
	}
	db.kv = kv
	db.ResetIndexes()
	return nil
}
