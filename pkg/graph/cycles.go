package graph

import "slices"

// Cycle is one closed loop discovered in the graph. Path starts and ends at
// the same task id, so a loop of Length edges carries Length+1 ids.
type Cycle struct {
	Path   []string `json:"path"`
	Length int      `json:"length"`
}

// CycleReport is the result of single-seed cycle detection.
type CycleReport struct {
	TaskID    string  `json:"task_id"`
	HasCycles bool    `json:"has_cycles"`
	Cycles    []Cycle `json:"cycles"`
}

// DetectCycles runs a depth-first search strictly along outgoing edges from
// the seed and reports every cycle reachable from it. Cycles are expected,
// valid data (mutual waits are exactly what the user needs surfaced); this
// never returns an error, only a report.
//
// The search keeps two sets: visited (fully explored, no need to re-enter)
// and the current recursion stack. Reaching a node already on the stack
// means the path from that node's stack position to the current node closes
// a loop.
func (e *Engine) DetectCycles(taskID string) CycleReport {
	report := CycleReport{TaskID: taskID, Cycles: []Cycle{}}
	if _, ok := e.acc.TaskByID(taskID); !ok {
		return report
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, link := range e.acc.LinksBySource(id) {
			next := link.TargetID
			if onStack[next] {
				report.Cycles = append(report.Cycles, closeCycle(path, next))
				continue
			}
			if visited[next] {
				continue
			}
			if _, ok := e.acc.TaskByID(next); !ok {
				e.log.Warn("skipping dangling link during cycle detection",
					"link_id", link.ID, "missing_task", next)
				continue
			}
			dfs(next)
		}

		onStack[id] = false
		path = path[:len(path)-1]
	}
	dfs(taskID)

	report.HasCycles = len(report.Cycles) > 0
	return report
}

// detectCyclesInGraph runs the same DFS restricted to an explicit node and
// edge set, seeding from every unvisited node in order. Used by
// RelatedGraph to report cycles inside the collected subgraph.
func detectCyclesInGraph(nodeIDs []string, edges []EdgeSummary) []Cycle {
	inSet := make(map[string]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		inSet[id] = struct{}{}
	}

	// Adjacency restricted to the given sets, built once.
	adj := make(map[string][]string, len(nodeIDs))
	for _, e := range edges {
		if _, ok := inSet[e.SourceID]; !ok {
			continue
		}
		if _, ok := inSet[e.TargetID]; !ok {
			continue
		}
		adj[e.SourceID] = append(adj[e.SourceID], e.TargetID)
	}

	cycles := []Cycle{}
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, next := range adj[id] {
			if onStack[next] {
				cycles = append(cycles, closeCycle(path, next))
				continue
			}
			if !visited[next] {
				dfs(next)
			}
		}

		onStack[id] = false
		path = path[:len(path)-1]
	}

	for _, id := range nodeIDs {
		if !visited[id] {
			dfs(id)
		}
	}
	return cycles
}

// closeCycle slices the current DFS path from the first occurrence of
// repeated through the end and closes the loop by re-appending it.
func closeCycle(path []string, repeated string) Cycle {
	start := slices.Index(path, repeated)
	loop := slices.Clone(path[start:])
	loop = append(loop, repeated)
	return Cycle{Path: loop, Length: len(loop) - 1}
}
