package graph

import (
	"github.com/gridnoise/tasknet/pkg/model"
)

// Direction selects which edges a traversal follows from a node.
type Direction string

const (
	DirectionOut  Direction = "out"  // follow edges where the node is the source
	DirectionIn   Direction = "in"   // follow edges where the node is the target
	DirectionBoth Direction = "both" // follow edges in either orientation
)

// Record is a single traversal hit: the task reached, the link it was
// reached through, and the hop distance from the seed. Depth is 1-indexed
// (the seed's direct neighbors are depth 1). The chain queries re-base this
// to 0; see BlockingChain.
type Record struct {
	Task  model.Task `json:"task"`
	Link  model.Link `json:"link"`
	Depth int        `json:"depth"`
}

// walkOptions bounds a traversal.
type walkOptions struct {
	direction       Direction
	maxDepth        int
	includeIndirect bool
	linkTypes       map[model.LinkType]struct{} // nil = all types
}

// walk performs a breadth-first, cycle-safe traversal from seedID and
// returns every record reachable within the depth bound. Each node is
// visited at most once; the depth it is first discovered at wins. Links
// whose far endpoint no longer resolves to a task are skipped with a
// warning so a single dangling edge cannot fail the query.
func (e *Engine) walk(seedID string, opts walkOptions) []Record {
	maxDepth := opts.maxDepth
	if maxDepth < 1 {
		maxDepth = 1
	}
	// Without the multi-hop flag only direct neighbors are returned,
	// whatever the requested depth.
	if !opts.includeIndirect {
		maxDepth = 1
	}

	var out []Record
	visited := map[string]struct{}{seedID: {}}
	frontier := []string{seedID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, curr := range frontier {
			for _, link := range e.edgesFrom(curr, opts.direction) {
				if opts.linkTypes != nil {
					if _, ok := opts.linkTypes[link.Type]; !ok {
						continue
					}
				}

				neighborID := link.TargetID
				if neighborID == curr {
					neighborID = link.SourceID
				}
				if _, seen := visited[neighborID]; seen {
					continue
				}

				task, ok := e.acc.TaskByID(neighborID)
				if !ok {
					e.log.Warn("skipping dangling link during traversal",
						"link_id", link.ID, "missing_task", neighborID)
					continue
				}

				visited[neighborID] = struct{}{}
				out = append(out, Record{Task: task, Link: link, Depth: depth})
				next = append(next, neighborID)
			}
		}
		frontier = next
	}

	return out
}

// edgesFrom returns the links incident to id in the given direction.
func (e *Engine) edgesFrom(id string, dir Direction) []model.Link {
	switch dir {
	case DirectionOut:
		return e.acc.LinksBySource(id)
	case DirectionIn:
		return e.acc.LinksByTarget(id)
	default:
		return e.acc.LinksByEitherEnd(id)
	}
}

// typeSet builds the inclusion filter used by walkOptions. An empty input
// returns nil, meaning "all types".
func typeSet(types ...model.LinkType) map[model.LinkType]struct{} {
	var set map[model.LinkType]struct{}
	for _, t := range types {
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[model.LinkType]struct{}, len(types))
		}
		set[t] = struct{}{}
	}
	return set
}
