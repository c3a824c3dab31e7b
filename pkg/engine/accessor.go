// Accessor methods: the read-only view the graph query engine consumes.
package engine

import (
	"encoding/json"

	"github.com/gridnoise/tasknet/pkg/graph"
	"github.com/gridnoise/tasknet/pkg/model"
)

var _ graph.Accessor = (*Engine)(nil)

// TaskByID reports a task and whether it exists, without an error value,
// so the graph engine can tell "missing" apart from "empty".
func (e *Engine) TaskByID(id string) (model.Task, bool) {
	t, err := e.TaskGet(id)
	return t, err == nil
}

// LinksBySource returns every link whose source is the given task.
func (e *Engine) LinksBySource(id string) []model.Link {
	return e.resolveLinks(e.linkIDList(outPrefix + id))
}

// LinksByTarget returns every link whose target is the given task.
func (e *Engine) LinksByTarget(id string) []model.Link {
	return e.resolveLinks(e.linkIDList(inPrefix + id))
}

// LinksByEitherEnd returns every link touching the given task, outgoing
// first. A link can only appear in one of the two lists (self-loops are
// rejected at creation), so no dedup is needed.
func (e *Engine) LinksByEitherEnd(id string) []model.Link {
	out := e.LinksBySource(id)
	return append(out, e.LinksByTarget(id)...)
}

// AllTasks returns every task; used by the full-scan graph queries.
func (e *Engine) AllTasks() []model.Task {
	return e.TaskList()
}

// AllLinks returns every link record in the store.
func (e *Engine) AllLinks() []model.Link {
	var links []model.Link
	e.DB.GetKVStore().IteratePrefix(linkPrefix, func(key string, value []byte) {
		var l model.Link
		if err := json.Unmarshal(value, &l); err == nil {
			links = append(links, l)
		}
	})
	return links
}
