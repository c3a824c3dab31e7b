package graph

import (
	"reflect"
	"testing"

	"github.com/gridnoise/tasknet/pkg/model"
)

func TestDetectCycles(t *testing.T) {
	t.Run("AcyclicChain", func(t *testing.T) {
		store := newMemStore()
		for _, id := range []string{"a", "b", "c"} {
			store.addTask(id)
		}
		store.addLink("a", "b", model.LinkWaiting)
		store.addLink("b", "c", model.LinkWaiting)

		report := New(store).DetectCycles("a")
		if report.HasCycles {
			t.Fatalf("Chain must be acyclic, got %v", report.Cycles)
		}
		if report.Cycles == nil {
			t.Error("Cycles must be an empty slice, not nil")
		}
	})

	t.Run("TwoNodeLoop", func(t *testing.T) {
		store := newMemStore()
		store.addTask("a")
		store.addTask("b")
		store.addLink("a", "b", model.LinkWaiting)
		store.addLink("b", "a", model.LinkWaiting)

		report := New(store).DetectCycles("a")
		if !report.HasCycles || len(report.Cycles) != 1 {
			t.Fatalf("Expected exactly 1 cycle, got %v", report.Cycles)
		}
		c := report.Cycles[0]
		if !reflect.DeepEqual(c.Path, []string{"a", "b", "a"}) {
			t.Errorf("Unexpected cycle path: %v", c.Path)
		}
		if c.Length != 2 {
			t.Errorf("Expected length 2, got %d", c.Length)
		}
	})

	t.Run("Triangle", func(t *testing.T) {
		store := newMemStore()
		for _, id := range []string{"a", "b", "c"} {
			store.addTask(id)
		}
		store.addLink("a", "b", model.LinkBlocks)
		store.addLink("b", "c", model.LinkBlocks)
		store.addLink("c", "a", model.LinkBlocks)

		report := New(store).DetectCycles("a")
		if len(report.Cycles) != 1 {
			t.Fatalf("Expected 1 cycle, got %v", report.Cycles)
		}
		c := report.Cycles[0]
		if c.Path[0] != c.Path[len(c.Path)-1] {
			t.Errorf("Cycle path must close on itself: %v", c.Path)
		}
		if c.Length != len(c.Path)-1 {
			t.Errorf("Length %d inconsistent with path %v", c.Length, c.Path)
		}
	})

	t.Run("CycleNotReachableFromSeed", func(t *testing.T) {
		// The b<->c loop exists but nothing connects a to it.
		store := newMemStore()
		for _, id := range []string{"a", "b", "c"} {
			store.addTask(id)
		}
		store.addLink("b", "c", model.LinkWaiting)
		store.addLink("c", "b", model.LinkWaiting)

		report := New(store).DetectCycles("a")
		if report.HasCycles {
			t.Fatalf("Unreachable cycle must not be reported, got %v", report.Cycles)
		}
	})

	t.Run("OnlyOutgoingEdgesFollowed", func(t *testing.T) {
		// a -> b plus b -> a would be a loop, but a lone backlink c -> a
		// must not create one.
		store := newMemStore()
		store.addTask("a")
		store.addTask("c")
		store.addLink("c", "a", model.LinkReferences)

		report := New(store).DetectCycles("a")
		if report.HasCycles {
			t.Fatalf("Backlink alone is not a cycle, got %v", report.Cycles)
		}
	})

	t.Run("UnknownSeed", func(t *testing.T) {
		report := New(newMemStore()).DetectCycles("missing")
		if report.HasCycles || len(report.Cycles) != 0 {
			t.Fatalf("Expected empty report, got %v", report.Cycles)
		}
	})
}

func TestTasksInCycles(t *testing.T) {
	store := newMemStore()
	for _, id := range []string{"a", "b", "c"} {
		store.addTask(id)
	}
	store.addLink("a", "b", model.LinkWaiting)
	store.addLink("b", "a", model.LinkWaiting)

	result := New(store).TasksInCycles()

	if !reflect.DeepEqual(result.TaskIDs, []string{"a", "b"}) {
		t.Errorf("Expected task ids [a b], got %v", result.TaskIDs)
	}
	// The a<->b loop is reachable from both seeds, so it is reported
	// once per seed.
	if len(result.Cycles) != 2 {
		t.Errorf("Expected 2 cycle records (one per seed), got %d", len(result.Cycles))
	}
}

func TestTasksInCyclesEmptyGraph(t *testing.T) {
	result := New(newMemStore()).TasksInCycles()
	if len(result.TaskIDs) != 0 || len(result.Cycles) != 0 {
		t.Fatalf("Expected empty result, got %v", result)
	}
	if result.TaskIDs == nil || result.Cycles == nil {
		t.Error("Result slices must be empty, not nil")
	}
}
