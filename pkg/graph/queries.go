package graph

import (
	"github.com/gridnoise/tasknet/pkg/model"
)

// LinkQueryOptions tunes the backlink and forward-link queries.
// The zero value means: all link types, direct neighbors only.
type LinkQueryOptions struct {
	// LinkType restricts results to one link type; empty matches all.
	LinkType model.LinkType
	// Depth is the maximum hop distance. Values below 1 fall back to 1.
	// Ignored unless IncludeIndirect is set.
	Depth int
	// IncludeIndirect enables multi-hop traversal up to Depth.
	IncludeIndirect bool
}

// BacklinksResult lists the tasks pointing at the seed.
type BacklinksResult struct {
	TaskID    string   `json:"task_id"`
	Backlinks []Record `json:"backlinks"`
	Count     int      `json:"count"`
}

// Backlinks returns every task linking TO the given task, following
// incoming edges. With IncludeIndirect it walks up to opts.Depth hops,
// reporting each task at the depth it was first discovered.
func (e *Engine) Backlinks(taskID string, opts LinkQueryOptions) BacklinksResult {
	records := e.walk(taskID, walkOptions{
		direction:       DirectionIn,
		maxDepth:        opts.Depth,
		includeIndirect: opts.IncludeIndirect,
		linkTypes:       typeSet(opts.LinkType),
	})
	return BacklinksResult{TaskID: taskID, Backlinks: records, Count: len(records)}
}

// ForwardLinksResult lists the tasks the seed points at.
type ForwardLinksResult struct {
	TaskID       string   `json:"task_id"`
	ForwardLinks []Record `json:"forward_links"`
	Count        int      `json:"count"`
}

// ForwardLinks is the mirror of Backlinks: it follows outgoing edges.
func (e *Engine) ForwardLinks(taskID string, opts LinkQueryOptions) ForwardLinksResult {
	records := e.walk(taskID, walkOptions{
		direction:       DirectionOut,
		maxDepth:        opts.Depth,
		includeIndirect: opts.IncludeIndirect,
		linkTypes:       typeSet(opts.LinkType),
	})
	return ForwardLinksResult{TaskID: taskID, ForwardLinks: records, Count: len(records)}
}

// NeighborhoodResult is the depth-1 view in both directions.
type NeighborhoodResult struct {
	TaskID       string   `json:"task_id"`
	Backlinks    []Record `json:"backlinks"`
	ForwardLinks []Record `json:"forward_links"`
	Count        int      `json:"count"`
}

// Neighborhood returns the direct backlinks and forward links of a task.
func (e *Engine) Neighborhood(taskID string) NeighborhoodResult {
	back := e.Backlinks(taskID, LinkQueryOptions{})
	fwd := e.ForwardLinks(taskID, LinkQueryOptions{})
	return NeighborhoodResult{
		TaskID:       taskID,
		Backlinks:    back.Backlinks,
		ForwardLinks: fwd.ForwardLinks,
		Count:        back.Count + fwd.Count,
	}
}

// RelatedGraphOptions tunes the related-subgraph query.
type RelatedGraphOptions struct {
	// Depth is the traversal radius around the seed. Defaults to 2.
	Depth int
	// LinkTypes is an inclusion filter; empty keeps every edge type.
	LinkTypes []model.LinkType
	// IncludeProjects attaches each node's project id to its summary.
	IncludeProjects bool
}

// NodeSummary is the per-task view inside a Subgraph.
type NodeSummary struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	Status    model.Status `json:"status"`
	ProjectID string       `json:"project_id,omitempty"`
	Depth     int          `json:"depth"` // hops from the seed; 0 for the seed itself
}

// EdgeSummary is the per-link view inside a Subgraph.
type EdgeSummary struct {
	ID       string         `json:"id"`
	SourceID string         `json:"source_id"`
	TargetID string         `json:"target_id"`
	Type     model.LinkType `json:"link_type"`
	Label    string         `json:"label,omitempty"`
	Strength *float64       `json:"strength,omitempty"`
}

// Subgraph is the snapshot RelatedGraph computes: deduplicated nodes and
// edges around a seed, plus any cycles found within that edge set. It is
// built fresh per call and never cached.
type Subgraph struct {
	Nodes     []NodeSummary `json:"nodes"`
	Edges     []EdgeSummary `json:"edges"`
	Cycles    []Cycle       `json:"cycles"`
	NodeCount int           `json:"node_count"`
	EdgeCount int           `json:"edge_count"`
}

// RelatedGraph walks outward from the seed in both directions, collecting a
// node set deduplicated by task id and an edge set deduplicated by link id
// (an edge reachable from both of its endpoints is recorded once). After
// the walk it runs cycle detection restricted to the collected subgraph.
func (e *Engine) RelatedGraph(taskID string, opts RelatedGraphOptions) Subgraph {
	depth := opts.Depth
	if depth < 1 {
		depth = 2
	}
	typeFilter := typeSet(opts.LinkTypes...)

	sub := Subgraph{Cycles: []Cycle{}}

	seed, ok := e.acc.TaskByID(taskID)
	if !ok {
		return sub
	}

	seenNodes := map[string]struct{}{taskID: {}}
	seenEdges := map[string]struct{}{}
	sub.Nodes = append(sub.Nodes, e.nodeSummary(seed, 0, opts.IncludeProjects))

	frontier := []string{taskID}
	for d := 1; d <= depth && len(frontier) > 0; d++ {
		var next []string
		for _, curr := range frontier {
			for _, link := range e.acc.LinksByEitherEnd(curr) {
				if typeFilter != nil {
					if _, ok := typeFilter[link.Type]; !ok {
						continue
					}
				}

				neighborID := link.TargetID
				if neighborID == curr {
					neighborID = link.SourceID
				}
				neighbor, ok := e.acc.TaskByID(neighborID)
				if !ok {
					e.log.Warn("skipping dangling link in related graph",
						"link_id", link.ID, "missing_task", neighborID)
					continue
				}

				if _, dup := seenEdges[link.ID]; !dup {
					seenEdges[link.ID] = struct{}{}
					sub.Edges = append(sub.Edges, edgeSummary(link))
				}

				if _, seen := seenNodes[neighborID]; !seen {
					seenNodes[neighborID] = struct{}{}
					sub.Nodes = append(sub.Nodes, e.nodeSummary(neighbor, d, opts.IncludeProjects))
					next = append(next, neighborID)
				}
			}
		}
		frontier = next
	}

	nodeIDs := make([]string, len(sub.Nodes))
	for i, n := range sub.Nodes {
		nodeIDs[i] = n.ID
	}
	sub.Cycles = detectCyclesInGraph(nodeIDs, sub.Edges)
	sub.NodeCount = len(sub.Nodes)
	sub.EdgeCount = len(sub.Edges)
	return sub
}

func (e *Engine) nodeSummary(t model.Task, depth int, includeProject bool) NodeSummary {
	n := NodeSummary{
		ID:      t.ID,
		Content: t.Content,
		Status:  t.Status,
		Depth:   depth,
	}
	if includeProject {
		n.ProjectID = t.ProjectID
	}
	return n
}

func edgeSummary(l model.Link) EdgeSummary {
	return EdgeSummary{
		ID:       l.ID,
		SourceID: l.SourceID,
		TargetID: l.TargetID,
		Type:     l.Type,
		Label:    l.Label,
		Strength: l.Strength,
	}
}
