package graph

import (
	"fmt"

	"github.com/gridnoise/tasknet/pkg/model"
)

// memStore is an in-memory Accessor used by the tests in this package.
// It holds tasks and links directly, with no persistence behind it.
type memStore struct {
	tasks  map[string]model.Task
	links  []model.Link
	nextID int
}

func newMemStore() *memStore {
	return &memStore{tasks: make(map[string]model.Task)}
}

func (m *memStore) addTask(id string) {
	m.tasks[id] = model.Task{ID: id, Content: "task " + id, Status: model.StatusOpen}
}

func (m *memStore) addProjectTask(id, projectID string) {
	m.tasks[id] = model.Task{ID: id, Content: "task " + id, Status: model.StatusOpen, ProjectID: projectID}
}

func (m *memStore) addLink(src, dst string, lt model.LinkType) model.Link {
	return m.addWeightedLink(src, dst, lt, nil)
}

func (m *memStore) addWeightedLink(src, dst string, lt model.LinkType, strength *float64) model.Link {
	m.nextID++
	l := model.Link{
		ID:       fmt.Sprintf("l%d", m.nextID),
		SourceID: src,
		TargetID: dst,
		Type:     lt,
		Strength: strength,
	}
	m.links = append(m.links, l)
	return l
}

// --- Accessor implementation ---

func (m *memStore) TaskByID(id string) (model.Task, bool) {
	t, ok := m.tasks[id]
	return t, ok
}

func (m *memStore) LinksBySource(id string) []model.Link {
	var out []model.Link
	for _, l := range m.links {
		if l.SourceID == id {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStore) LinksByTarget(id string) []model.Link {
	var out []model.Link
	for _, l := range m.links {
		if l.TargetID == id {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStore) LinksByEitherEnd(id string) []model.Link {
	var out []model.Link
	for _, l := range m.links {
		if l.SourceID == id || l.TargetID == id {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStore) AllTasks() []model.Task {
	out := make([]model.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out
}

func (m *memStore) AllLinks() []model.Link {
	return m.links
}

func ptr(f float64) *float64 { return &f }

// recordIDs extracts the task ids from a record slice, in order.
func recordIDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.Task.ID
	}
	return ids
}
