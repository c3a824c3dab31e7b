package server

import "github.com/gridnoise/tasknet/pkg/model"

// Request payloads for the JSON API.

type createTaskRequest struct {
	Content   string       `json:"content"`
	Status    model.Status `json:"status,omitempty"`
	ProjectID string       `json:"project_id,omitempty"`
}

type updateTaskRequest struct {
	Content   *string       `json:"content,omitempty"`
	Status    *model.Status `json:"status,omitempty"`
	ProjectID *string       `json:"project_id,omitempty"`
}

type createProjectRequest struct {
	Name string `json:"name"`
}

type createLinkRequest struct {
	SourceID string         `json:"source_id"`
	TargetID string         `json:"target_id"`
	LinkType model.LinkType `json:"link_type"`
	Label    string         `json:"label,omitempty"`
	Strength *float64       `json:"strength,omitempty"`
}

// Generic response envelopes.

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type taskListResponse struct {
	Tasks []model.Task `json:"tasks"`
	Count int          `json:"count"`
}

type projectListResponse struct {
	Projects []model.Project `json:"projects"`
	Count    int             `json:"count"`
}

type orphanResponse struct {
	Orphans []model.Task `json:"orphans"`
	Count   int          `json:"count"`
}
