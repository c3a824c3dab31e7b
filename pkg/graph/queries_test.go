package graph

import (
	"strings"
	"testing"

	"github.com/gridnoise/tasknet/pkg/model"
)

func TestBacklinks(t *testing.T) {
	store := newMemStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		store.addTask(id)
	}
	store.addLink("b", "a", model.LinkReferences)
	store.addLink("c", "a", model.LinkWaiting)
	store.addLink("d", "b", model.LinkReferences) // two hops from a

	g := New(store)

	t.Run("Direct", func(t *testing.T) {
		result := g.Backlinks("a", LinkQueryOptions{})
		if result.Count != 2 {
			t.Fatalf("Expected 2 backlinks, got %d", result.Count)
		}
		for _, r := range result.Backlinks {
			if r.Depth != 1 {
				t.Errorf("Direct backlink %s reported depth %d, want 1", r.Task.ID, r.Depth)
			}
		}
	})

	t.Run("TypeFilter", func(t *testing.T) {
		result := g.Backlinks("a", LinkQueryOptions{LinkType: model.LinkWaiting})
		if result.Count != 1 || result.Backlinks[0].Task.ID != "c" {
			t.Fatalf("Expected only c, got %v", recordIDs(result.Backlinks))
		}
	})

	t.Run("Indirect", func(t *testing.T) {
		result := g.Backlinks("a", LinkQueryOptions{Depth: 3, IncludeIndirect: true})
		if result.Count != 3 {
			t.Fatalf("Expected 3 backlinks, got %v", recordIDs(result.Backlinks))
		}
		for _, r := range result.Backlinks {
			if r.Task.ID == "d" && r.Depth != 2 {
				t.Errorf("d should be at depth 2, got %d", r.Depth)
			}
		}
	})

	t.Run("DepthIgnoredWithoutIndirect", func(t *testing.T) {
		result := g.Backlinks("a", LinkQueryOptions{Depth: 5})
		if result.Count != 2 {
			t.Fatalf("Depth without IncludeIndirect must stay direct, got %v", recordIDs(result.Backlinks))
		}
	})

	t.Run("UnknownSeed", func(t *testing.T) {
		result := g.Backlinks("nope", LinkQueryOptions{})
		if result.Count != 0 {
			t.Fatalf("Expected empty result for unknown seed, got %d", result.Count)
		}
	})
}

func TestBacklinksFirstDiscoveryWins(t *testing.T) {
	// Diamond: d reaches a through both b and c; it must be reported
	// once, at the depth it was first found.
	store := newMemStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		store.addTask(id)
	}
	store.addLink("b", "a", model.LinkReferences)
	store.addLink("c", "a", model.LinkReferences)
	store.addLink("d", "b", model.LinkReferences)
	store.addLink("d", "c", model.LinkReferences)

	g := New(store)
	result := g.Backlinks("a", LinkQueryOptions{Depth: 4, IncludeIndirect: true})

	seen := 0
	for _, r := range result.Backlinks {
		if r.Task.ID == "d" {
			seen++
			if r.Depth != 2 {
				t.Errorf("d should be discovered at depth 2, got %d", r.Depth)
			}
		}
	}
	if seen != 1 {
		t.Fatalf("d reported %d times, want exactly once", seen)
	}
}

func TestForwardLinks(t *testing.T) {
	store := newMemStore()
	for _, id := range []string{"a", "b", "c"} {
		store.addTask(id)
	}
	store.addLink("a", "b", model.LinkWaiting)
	store.addLink("b", "c", model.LinkWaiting)

	g := New(store)

	t.Run("Direct", func(t *testing.T) {
		result := g.ForwardLinks("a", LinkQueryOptions{})
		if result.Count != 1 || result.ForwardLinks[0].Task.ID != "b" {
			t.Fatalf("Expected [b], got %v", recordIDs(result.ForwardLinks))
		}
	})

	t.Run("Indirect", func(t *testing.T) {
		result := g.ForwardLinks("a", LinkQueryOptions{Depth: 2, IncludeIndirect: true})
		if result.Count != 2 {
			t.Fatalf("Expected [b c], got %v", recordIDs(result.ForwardLinks))
		}
	})
}

func TestNeighborhood(t *testing.T) {
	store := newMemStore()
	for _, id := range []string{"a", "b", "c"} {
		store.addTask(id)
	}
	store.addLink("b", "a", model.LinkReferences)
	store.addLink("a", "c", model.LinkWaiting)

	g := New(store)
	result := g.Neighborhood("a")

	if len(result.Backlinks) != 1 || result.Backlinks[0].Task.ID != "b" {
		t.Errorf("Expected backlink from b, got %v", recordIDs(result.Backlinks))
	}
	if len(result.ForwardLinks) != 1 || result.ForwardLinks[0].Task.ID != "c" {
		t.Errorf("Expected forward link to c, got %v", recordIDs(result.ForwardLinks))
	}
	if result.Count != 2 {
		t.Errorf("Expected combined count 2, got %d", result.Count)
	}
}

func TestRelatedGraph(t *testing.T) {
	t.Run("DefaultDepthTwo", func(t *testing.T) {
		// Chain a -> b -> c -> d; with the default radius only a, b, c
		// are reachable.
		store := newMemStore()
		for _, id := range []string{"a", "b", "c", "d"} {
			store.addTask(id)
		}
		store.addLink("a", "b", model.LinkReferences)
		store.addLink("b", "c", model.LinkReferences)
		store.addLink("c", "d", model.LinkReferences)

		sub := New(store).RelatedGraph("a", RelatedGraphOptions{})
		if sub.NodeCount != 3 {
			t.Fatalf("Expected 3 nodes, got %d", sub.NodeCount)
		}
		for _, n := range sub.Nodes {
			if n.ID == "d" {
				t.Error("d is 3 hops out and must not appear at default depth")
			}
			if n.ID == "a" && n.Depth != 0 {
				t.Errorf("Seed must be at depth 0, got %d", n.Depth)
			}
		}
	})

	t.Run("EdgeDedupInTriangle", func(t *testing.T) {
		store := newMemStore()
		for _, id := range []string{"a", "b", "c"} {
			store.addTask(id)
		}
		store.addLink("a", "b", model.LinkWaiting)
		store.addLink("b", "c", model.LinkWaiting)
		store.addLink("c", "a", model.LinkWaiting)

		sub := New(store).RelatedGraph("a", RelatedGraphOptions{})
		if sub.NodeCount != 3 {
			t.Errorf("Expected 3 nodes, got %d", sub.NodeCount)
		}
		if sub.EdgeCount != 3 {
			t.Errorf("Each edge must appear once, got %d edges", sub.EdgeCount)
		}
		if len(sub.Cycles) != 1 {
			t.Fatalf("Expected the triangle to be reported as 1 cycle, got %d", len(sub.Cycles))
		}
		if sub.Cycles[0].Length != 3 {
			t.Errorf("Triangle cycle length should be 3, got %d", sub.Cycles[0].Length)
		}
	})

	t.Run("TypeFilter", func(t *testing.T) {
		store := newMemStore()
		for _, id := range []string{"a", "b", "c"} {
			store.addTask(id)
		}
		store.addLink("a", "b", model.LinkWaiting)
		store.addLink("a", "c", model.LinkReferences)

		sub := New(store).RelatedGraph("a", RelatedGraphOptions{
			LinkTypes: []model.LinkType{model.LinkWaiting},
		})
		if sub.NodeCount != 2 || sub.EdgeCount != 1 {
			t.Fatalf("Expected seed+b with 1 edge, got %d nodes / %d edges", sub.NodeCount, sub.EdgeCount)
		}
	})

	t.Run("IncludeProjects", func(t *testing.T) {
		store := newMemStore()
		store.addProjectTask("a", "proj-1")
		store.addTask("b")
		store.addLink("a", "b", model.LinkRelated)

		g := New(store)

		without := g.RelatedGraph("a", RelatedGraphOptions{})
		if without.Nodes[0].ProjectID != "" {
			t.Error("ProjectID must be omitted by default")
		}
		with := g.RelatedGraph("a", RelatedGraphOptions{IncludeProjects: true})
		if with.Nodes[0].ProjectID != "proj-1" {
			t.Errorf("Expected project id on seed node, got %q", with.Nodes[0].ProjectID)
		}
	})

	t.Run("UnknownSeed", func(t *testing.T) {
		sub := New(newMemStore()).RelatedGraph("missing", RelatedGraphOptions{})
		if sub.NodeCount != 0 || sub.EdgeCount != 0 {
			t.Fatalf("Expected empty subgraph, got %d nodes / %d edges", sub.NodeCount, sub.EdgeCount)
		}
	})
}

// TestWalkTerminatesOnDenseCyclicGraph drives the traversal through a graph
// where every node sits on multiple cycles and checks it still terminates
// with each task reported at most once.
func TestWalkTerminatesOnDenseCyclicGraph(t *testing.T) {
	const n = 20
	store := newMemStore()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('a' + i))
		store.addTask(ids[i])
	}
	for i := range ids {
		store.addLink(ids[i], ids[(i+1)%n], model.LinkRelated)
		store.addLink(ids[i], ids[(i+7)%n], model.LinkRelated)
	}

	g := New(store)
	result := g.Backlinks(ids[0], LinkQueryOptions{Depth: 100, IncludeIndirect: true})

	seen := make(map[string]bool)
	for _, r := range result.Backlinks {
		if seen[r.Task.ID] {
			t.Fatalf("Task %s reported twice", r.Task.ID)
		}
		seen[r.Task.ID] = true
	}
	if result.Count >= n {
		t.Fatalf("Walk must never report more tasks than exist minus the seed, got %d", result.Count)
	}
}

func TestDanglingLinksSkipped(t *testing.T) {
	store := newMemStore()
	store.addTask("a")
	store.addTask("b")
	store.addLink("b", "a", model.LinkReferences)
	// Links whose other end was never created. Can happen when a task is
	// removed out from under a stale adjacency entry.
	store.addLink("ghost", "a", model.LinkReferences)
	store.addLink("a", "phantom", model.LinkBlocks)

	g := New(store)

	t.Run("Backlinks", func(t *testing.T) {
		result := g.Backlinks("a", LinkQueryOptions{})
		if result.Count != 1 || result.Backlinks[0].Task.ID != "b" {
			t.Fatalf("Expected only b, got %v", recordIDs(result.Backlinks))
		}
	})

	t.Run("RelatedGraph", func(t *testing.T) {
		sub := g.RelatedGraph("a", RelatedGraphOptions{})
		if len(sub.Nodes) != 2 {
			t.Fatalf("Expected nodes a and b, got %d nodes", len(sub.Nodes))
		}
		if len(sub.Edges) != 1 {
			t.Fatalf("Dangling edges must not appear in the subgraph, got %d edges", len(sub.Edges))
		}
	})

	t.Run("DetectCycles", func(t *testing.T) {
		report := g.DetectCycles("a")
		if report.HasCycles {
			t.Fatalf("Expected no cycles, got %v", report.Cycles)
		}
	})
}

func TestExportFormats(t *testing.T) {
	store := newMemStore()
	store.addTask("a")
	store.addTask("b")
	store.addLink("a", "b", model.LinkBlocks)

	sub := New(store).RelatedGraph("a", RelatedGraphOptions{})

	t.Run("DOT", func(t *testing.T) {
		out := sub.DOT()
		if !strings.HasPrefix(out, "digraph tasknet {") {
			t.Fatalf("Unexpected DOT preamble: %q", out)
		}
		if !strings.Contains(out, `"a" -> "b" [label="blocks"];`) {
			t.Errorf("Missing edge declaration in DOT output:\n%s", out)
		}
		if !strings.Contains(out, `"a" [label="task a"];`) {
			t.Errorf("Missing node declaration in DOT output:\n%s", out)
		}
	})

	t.Run("Mermaid", func(t *testing.T) {
		out := sub.Mermaid()
		if !strings.HasPrefix(out, "graph TD\n") {
			t.Fatalf("Unexpected Mermaid preamble: %q", out)
		}
		if !strings.Contains(out, "n0 -->|blocks| n1") {
			t.Errorf("Missing aliased edge in Mermaid output:\n%s", out)
		}
	})
}
