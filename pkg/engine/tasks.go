// Task and project operations. Each mutation appends to the AOF and applies
// to memory under adminMu, then flushes once for durability.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gridnoise/tasknet/pkg/model"
)

var (
	// ErrTaskNotFound is returned when a task id does not resolve.
	ErrTaskNotFound = errors.New("task not found")
	// ErrProjectNotFound is returned when a project id does not resolve.
	ErrProjectNotFound = errors.New("project not found")
)

// TaskCreate stores a new task. Status defaults to open when empty; a
// non-empty projectID must reference an existing project.
func (e *Engine) TaskCreate(content string, status model.Status, projectID string) (model.Task, error) {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()

	if status == "" {
		status = model.StatusOpen
	}
	t := model.Task{
		ID:        uuid.NewString(),
		Content:   content,
		Status:    status,
		ProjectID: projectID,
		CreatedAt: time.Now().UnixNano(),
	}
	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}
	if projectID != "" {
		if _, err := e.projectGetLocked(projectID); err != nil {
			return model.Task{}, err
		}
	}

	if err := e.putTaskLocked(t); err != nil {
		return model.Task{}, err
	}
	return t, e.flushDurable()
}

// TaskGet retrieves a task by id.
func (e *Engine) TaskGet(id string) (model.Task, error) {
	raw, found := e.DB.GetKVStore().Get(taskPrefix + id)
	if !found {
		return model.Task{}, ErrTaskNotFound
	}
	var t model.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return model.Task{}, fmt.Errorf("corrupt task record %s: %w", id, err)
	}
	return t, nil
}

// TaskUpdate describes a partial task update. Nil fields are left unchanged.
type TaskUpdate struct {
	Content   *string
	Status    *model.Status
	ProjectID *string // empty string clears the project association
}

// TaskApplyUpdate applies a partial update to a task and returns the new state.
func (e *Engine) TaskApplyUpdate(id string, upd TaskUpdate) (model.Task, error) {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()

	old, err := e.TaskGet(id)
	if err != nil {
		return model.Task{}, err
	}

	t := old
	if upd.Content != nil {
		t.Content = *upd.Content
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.ProjectID != nil {
		if *upd.ProjectID != "" {
			if _, err := e.projectGetLocked(*upd.ProjectID); err != nil {
				return model.Task{}, err
			}
		}
		t.ProjectID = *upd.ProjectID
	}
	t.UpdatedAt = time.Now().UnixNano()

	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}

	raw, err := json.Marshal(t)
	if err != nil {
		return model.Task{}, err
	}
	if err := e.kvSet(taskPrefix+t.ID, raw); err != nil {
		return model.Task{}, err
	}
	e.DB.ReindexTask(old, t)
	return t, e.flushDurable()
}

// TaskDelete removes a task and cascades to every link touching it, so the
// graph never holds edges into deleted tasks (the query engine tolerates
// them, but they would only ever report as warnings).
func (e *Engine) TaskDelete(id string) error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()

	t, err := e.TaskGet(id)
	if err != nil {
		return err
	}

	// Cascade: collect incident link ids from both adjacency lists.
	incident := append(e.linkIDList(outPrefix+id), e.linkIDList(inPrefix+id)...)
	for _, linkID := range incident {
		if err := e.deleteLinkLocked(linkID); err != nil {
			return err
		}
	}

	if err := e.kvDelete(outPrefix + id); err != nil {
		return err
	}
	if err := e.kvDelete(inPrefix + id); err != nil {
		return err
	}
	if err := e.kvDelete(taskPrefix + id); err != nil {
		return err
	}
	e.DB.UnindexTask(t)
	return e.flushDurable()
}

// TaskList returns every task in the store.
func (e *Engine) TaskList() []model.Task {
	var tasks []model.Task
	e.DB.GetKVStore().IteratePrefix(taskPrefix, func(key string, value []byte) {
		var t model.Task
		if err := json.Unmarshal(value, &t); err == nil {
			tasks = append(tasks, t)
		}
	})
	return tasks
}

// TasksByStatus returns every task in the given status, via the B-tree index.
func (e *Engine) TasksByStatus(status model.Status) []model.Task {
	return e.tasksByIDs(e.DB.TaskIDsByStatus(status))
}

// TasksByProject returns every task assigned to a project, via the B-tree index.
func (e *Engine) TasksByProject(projectID string) []model.Task {
	return e.tasksByIDs(e.DB.TaskIDsByProject(projectID))
}

func (e *Engine) tasksByIDs(ids []string) []model.Task {
	tasks := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		if t, err := e.TaskGet(id); err == nil {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// putTaskLocked writes a task record and indexes it. Caller holds adminMu.
func (e *Engine) putTaskLocked(t model.Task) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := e.kvSet(taskPrefix+t.ID, raw); err != nil {
		return err
	}
	e.DB.IndexTask(t)
	return nil
}

// --- Projects ---

// ProjectCreate stores a new project.
func (e *Engine) ProjectCreate(name string) (model.Project, error) {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()

	if name == "" {
		return model.Project{}, errors.New("project name must not be empty")
	}
	p := model.Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UnixNano(),
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return model.Project{}, err
	}
	if err := e.kvSet(projectPrefix+p.ID, raw); err != nil {
		return model.Project{}, err
	}
	return p, e.flushDurable()
}

// ProjectGet retrieves a project by id.
func (e *Engine) ProjectGet(id string) (model.Project, error) {
	return e.projectGetLocked(id)
}

func (e *Engine) projectGetLocked(id string) (model.Project, error) {
	raw, found := e.DB.GetKVStore().Get(projectPrefix + id)
	if !found {
		return model.Project{}, ErrProjectNotFound
	}
	var p model.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Project{}, fmt.Errorf("corrupt project record %s: %w", id, err)
	}
	return p, nil
}

// ProjectList returns every project in the store.
func (e *Engine) ProjectList() []model.Project {
	var projects []model.Project
	e.DB.GetKVStore().IteratePrefix(projectPrefix, func(key string, value []byte) {
		var p model.Project
		if err := json.Unmarshal(value, &p); err == nil {
			projects = append(projects, p)
		}
	})
	return projects
}

// ProjectDelete removes a project and clears the association on its tasks.
// The tasks themselves survive.
func (e *Engine) ProjectDelete(id string) error {
	e.adminMu.Lock()
	defer e.adminMu.Unlock()

	if _, err := e.projectGetLocked(id); err != nil {
		return err
	}

	for _, taskID := range e.DB.TaskIDsByProject(id) {
		old, err := e.TaskGet(taskID)
		if err != nil {
			continue
		}
		t := old
		t.ProjectID = ""
		t.UpdatedAt = time.Now().UnixNano()
		raw, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if err := e.kvSet(taskPrefix+t.ID, raw); err != nil {
			return err
		}
		e.DB.ReindexTask(old, t)
	}

	if err := e.kvDelete(projectPrefix + id); err != nil {
		return err
	}
	return e.flushDurable()
}
