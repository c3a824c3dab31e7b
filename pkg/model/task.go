// Package model defines the entity types stored in TaskNet: tasks, projects
// and the typed links connecting tasks. These are the records the storage
// engine persists and the graph query engine reads.
package model

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusWaiting    Status = "waiting"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
)

// ErrEmptyContent is returned when a task is created or updated with no content.
var ErrEmptyContent = errors.New("task content must not be empty")

// ValidStatus reports whether s is one of the known task states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusWaiting, StatusDone, StatusArchived:
		return true
	}
	return false
}

// Task is a single task or note. ProjectID is empty for unassigned tasks.
type Task struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Status    Status `json:"status"`
	ProjectID string `json:"project_id,omitempty"`
	CreatedAt int64  `json:"created_at"` // Unix nanoseconds
	UpdatedAt int64  `json:"updated_at,omitempty"`
}

// Validate checks the invariants the storage layer guarantees to readers.
func (t Task) Validate() error {
	if t.Content == "" {
		return ErrEmptyContent
	}
	if !ValidStatus(t.Status) {
		return fmt.Errorf("invalid task status %q", t.Status)
	}
	return nil
}

// Project groups tasks. Deleting a project does not delete its tasks,
// it only clears their association.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}
