// Link operations. Links are first-class records (link:<id>) with two
// adjacency lists per task (out:<taskID>, in:<taskID>) holding JSON link-id
// lists, so per-node edge lookups are O(degree) instead of a store scan.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gridnoise/tasknet/pkg/model"
)

// ErrLinkNotFound is returned when a link id does not resolve.
var ErrLinkNotFound = errors.New("link not found")

// LinkCreate connects two existing tasks with a typed, directed edge.
// Self-loops are rejected; strength, when given, must lie in [0, 1].
// Parallel edges of different types between the same pair are allowed.
func (e *Engine) LinkCreate(sourceID, targetID string, lt model.LinkType, label string, strength *float64) (model.Link, error) {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()

	l := model.Link{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		TargetID:  targetID,
		Type:      lt,
		Label:     label,
		Strength:  strength,
		CreatedAt: time.Now().UnixNano(),
	}
	if err := l.Validate(); err != nil {
		return model.Link{}, err
	}
	if _, err := e.TaskGet(sourceID); err != nil {
		return model.Link{}, fmt.Errorf("link source: %w", err)
	}
	if _, err := e.TaskGet(targetID); err != nil {
		return model.Link{}, fmt.Errorf("link target: %w", err)
	}

	raw, err := json.Marshal(l)
	if err != nil {
		return model.Link{}, err
	}
	if err := e.kvSet(linkPrefix+l.ID, raw); err != nil {
		return model.Link{}, err
	}
	if err := e.adjacencyAdd(outPrefix+sourceID, l.ID); err != nil {
		return model.Link{}, err
	}
	if err := e.adjacencyAdd(inPrefix+targetID, l.ID); err != nil {
		return model.Link{}, err
	}

	return l, e.flushDurable()
}

// LinkGet retrieves a link by id.
func (e *Engine) LinkGet(id string) (model.Link, error) {
	raw, found := e.DB.GetKVStore().Get(linkPrefix + id)
	if !found {
		return model.Link{}, ErrLinkNotFound
	}
	var l model.Link
	if err := json.Unmarshal(raw, &l); err != nil {
		return model.Link{}, fmt.Errorf("corrupt link record %s: %w", id, err)
	}
	return l, nil
}

// LinkDelete removes a link and trims both adjacency lists.
func (e *Engine) LinkDelete(id string) error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()

	if err := e.deleteLinkLocked(id); err != nil {
		return err
	}
	return e.flushDurable()
}

// deleteLinkLocked is the raw delete logic; caller holds adminMu.
func (e *Engine) deleteLinkLocked(id string) error {
	l, err := e.LinkGet(id)
	if err != nil {
		return err
	}
	if err := e.adjacencyRemove(outPrefix+l.SourceID, id); err != nil {
		return err
	}
	if err := e.adjacencyRemove(inPrefix+l.TargetID, id); err != nil {
		return err
	}
	return e.kvDelete(linkPrefix + id)
}

// --- Adjacency list maintenance ---

func (e *Engine) adjacencyAdd(key, linkID string) error {
	ids := e.linkIDList(key)
	if slices.Contains(ids, linkID) {
		return nil
	}
	ids = append(ids, linkID)

	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return e.kvSet(key, raw)
}

func (e *Engine) adjacencyRemove(key, linkID string) error {
	ids := e.linkIDList(key)
	trimmed := slices.DeleteFunc(ids, func(id string) bool { return id == linkID })
	if len(trimmed) == len(ids) {
		return nil
	}
	if len(trimmed) == 0 {
		return e.kvDelete(key)
	}
	raw, err := json.Marshal(trimmed)
	if err != nil {
		return err
	}
	return e.kvSet(key, raw)
}

// linkIDList reads an adjacency key. Corrupt values decode as empty; the
// link records themselves stay authoritative.
func (e *Engine) linkIDList(key string) []string {
	raw, found := e.DB.GetKVStore().Get(key)
	if !found {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		slog.Warn("corrupt adjacency list", "key", key, "error", err)
		return nil
	}
	return ids
}

// resolveLinks maps adjacency entries to link records, dropping ids whose
// record has gone missing.
func (e *Engine) resolveLinks(ids []string) []model.Link {
	links := make([]model.Link, 0, len(ids))
	for _, id := range ids {
		l, err := e.LinkGet(id)
		if err != nil {
			slog.Warn("adjacency entry references missing link", "link_id", id)
			continue
		}
		links = append(links, l)
	}
	return links
}
