package graph

import (
	"slices"
	"strings"

	"github.com/gridnoise/tasknet/pkg/model"
)

// chainDepthCap is the hard safety bound on blocking/dependency chains.
// Cycles are already handled by the visited set; the cap additionally
// guarantees termination even on pathological inputs, whatever the caller
// asks for.
const chainDepthCap = 10

// BlockingChainResult lists the tasks transitively blocked by the seed.
type BlockingChainResult struct {
	TaskID       string   `json:"task_id"`
	BlockedTasks []Record `json:"blocked_tasks"`
	Count        int      `json:"count"`
}

// BlockingChain returns every task that transitively waits on or is blocked
// by the given task, following incoming `waiting` and `blocks` edges up to
// the safety cap.
//
// Depth here is 0-indexed: a direct blocker reports depth 0, unlike the
// 1-indexed depths of Backlinks/ForwardLinks. Downstream consumers depend
// on this numbering, so it is a contract, not an oversight.
func (e *Engine) BlockingChain(taskID string) BlockingChainResult {
	records := e.chainWalk(taskID, DirectionIn)
	return BlockingChainResult{TaskID: taskID, BlockedTasks: records, Count: len(records)}
}

// DependencyChainResult lists the tasks the seed transitively waits on.
type DependencyChainResult struct {
	TaskID       string   `json:"task_id"`
	Dependencies []Record `json:"dependencies"`
	Count        int      `json:"count"`
}

// DependencyChain is BlockingChain with the direction reversed: it follows
// outgoing `waiting` and `blocks` edges to find what the task depends on.
// Depth is 0-indexed, matching BlockingChain.
func (e *Engine) DependencyChain(taskID string) DependencyChainResult {
	records := e.chainWalk(taskID, DirectionOut)
	return DependencyChainResult{TaskID: taskID, Dependencies: records, Count: len(records)}
}

func (e *Engine) chainWalk(taskID string, dir Direction) []Record {
	records := e.walk(taskID, walkOptions{
		direction:       dir,
		maxDepth:        chainDepthCap,
		includeIndirect: true,
		linkTypes:       typeSet(model.LinkWaiting, model.LinkBlocks),
	})
	// Chain depths are 0-indexed by contract.
	for i := range records {
		records[i].Depth--
	}
	return records
}

// OrphanTasks scans the full dataset and returns every task with no
// incident links (neither source nor target of any link) and no project
// association. Unlike the seeded queries this is exact over the whole
// store, not a bounded traversal.
func (e *Engine) OrphanTasks() []model.Task {
	incident := make(map[string]struct{})
	for _, l := range e.acc.AllLinks() {
		incident[l.SourceID] = struct{}{}
		incident[l.TargetID] = struct{}{}
	}

	orphans := []model.Task{}
	for _, t := range e.acc.AllTasks() {
		if t.ProjectID != "" {
			continue
		}
		if _, linked := incident[t.ID]; linked {
			continue
		}
		orphans = append(orphans, t)
	}
	slices.SortFunc(orphans, func(a, b model.Task) int {
		return strings.Compare(a.ID, b.ID)
	})
	return orphans
}

// CycleSetResult is the full-scan cycle inventory.
type CycleSetResult struct {
	TaskIDs []string `json:"task_ids"`
	Cycles  []Cycle  `json:"cycles"`
}

// TasksInCycles runs single-seed cycle detection from every task and
// returns the union of task ids appearing in any cycle, plus every cycle
// record found. A loop reachable from several seeds is reported once per
// seed; consumers rely on that, so the duplicates are kept.
func (e *Engine) TasksInCycles() CycleSetResult {
	result := CycleSetResult{TaskIDs: []string{}, Cycles: []Cycle{}}

	tasks := e.acc.AllTasks()
	slices.SortFunc(tasks, func(a, b model.Task) int {
		return strings.Compare(a.ID, b.ID)
	})

	inCycle := make(map[string]struct{})
	for _, t := range tasks {
		report := e.DetectCycles(t.ID)
		for _, c := range report.Cycles {
			result.Cycles = append(result.Cycles, c)
			for _, id := range c.Path {
				inCycle[id] = struct{}{}
			}
		}
	}

	for id := range inCycle {
		result.TaskIDs = append(result.TaskIDs, id)
	}
	slices.Sort(result.TaskIDs)
	return result
}
