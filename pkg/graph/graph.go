// Package graph implements the query engine over the task link graph.
//
// Tasks are nodes; typed links are directed edges. The graph may contain
// cycles ("A waits on B, B waits on C, C waits on A" is legitimate data to
// surface, not an error), so every traversal is bounded by a visited set
// and a depth limit. All queries are pure reads: they build their state per
// call and never mutate the store.
//
// The engine reads through the Accessor interface, so it can run against
// the live database engine or any read-only snapshot of it.
package graph

import (
	"log/slog"

	"github.com/gridnoise/tasknet/pkg/model"
)

// Accessor is the read-only view of the entity store the engine consumes.
//
// TaskByID must distinguish "not found" from a zero value so traversal can
// skip dangling links (a link whose endpoint record is gone) instead of
// failing the whole query.
type Accessor interface {
	TaskByID(id string) (model.Task, bool)
	LinksBySource(id string) []model.Link
	LinksByTarget(id string) []model.Link
	LinksByEitherEnd(id string) []model.Link
	AllTasks() []model.Task
	AllLinks() []model.Link
}

// Engine answers graph queries against an Accessor.
// It holds no per-query state; a single Engine is safe for concurrent use
// as long as the underlying store is not mutated mid-query.
type Engine struct {
	acc Accessor
	log *slog.Logger
}

// New creates a query engine over the given accessor.
func New(acc Accessor) *Engine {
	return NewWithLogger(acc, slog.Default())
}

// NewWithLogger creates a query engine with an explicit logger for
// recoverable traversal diagnostics.
func NewWithLogger(acc Accessor, log *slog.Logger) *Engine {
	return &Engine{acc: acc, log: log}
}
