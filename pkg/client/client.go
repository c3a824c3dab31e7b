// Package client provides a Go client for interacting with the TaskNet API.
//
// It offers a type-safe way to perform all major operations, including:
//   - Task and project management (Create, Get, Update, Delete, List).
//   - Link management between tasks.
//   - Graph queries (backlinks, related graph, cycles, chains, importance).
//   - System administration tasks (snapshots, AOF rewrite).
//
// The client handles HTTP communication, JSON serialization/deserialization, and
// standardized error handling.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gridnoise/tasknet/pkg/graph"
	"github.com/gridnoise/tasknet/pkg/model"
)

// --- Custom Errors ---

// APIError represents an error returned by the TaskNet API (status >= 400).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// --- JSON Response Structs ---

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

// --- Client ---

// Client is the Go client for interacting with TaskNet.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New creates a new TaskNet client. Pass an empty token when the server
// runs without authentication.
func New(host string, port int, authToken string) *Client {
	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// jsonRequest is a helper method to execute all requests to the API.
// It handles JSON serialization, HTTP calls, and error management.
func (c *Client) jsonRequest(method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil // For 204 responses (e.g., DELETE).
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		if json.Unmarshal(respBody, &errResp) == nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp["error"]}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return respBody, nil
}

// --- Task Methods ---

// CreateTask creates a new task. Status defaults to "open" when empty.
func (c *Client) CreateTask(content string, status model.Status, projectID string) (model.Task, error) {
	payload := map[string]any{"content": content}
	if status != "" {
		payload["status"] = status
	}
	if projectID != "" {
		payload["project_id"] = projectID
	}

	body, err := c.jsonRequest(http.MethodPost, "/tasks", payload)
	if err != nil {
		return model.Task{}, err
	}
	var t model.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return model.Task{}, fmt.Errorf("failed to parse task response: %w", err)
	}
	return t, nil
}

// GetTask retrieves a task by ID.
func (c *Client) GetTask(id string) (model.Task, error) {
	body, err := c.jsonRequest(http.MethodGet, "/tasks/"+url.PathEscape(id), nil)
	if err != nil {
		return model.Task{}, err
	}
	var t model.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return model.Task{}, fmt.Errorf("failed to parse task response: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update. Nil fields are left unchanged.
func (c *Client) UpdateTask(id string, content *string, status *model.Status, projectID *string) (model.Task, error) {
	payload := map[string]any{}
	if content != nil {
		payload["content"] = *content
	}
	if status != nil {
		payload["status"] = *status
	}
	if projectID != nil {
		payload["project_id"] = *projectID
	}

	body, err := c.jsonRequest(http.MethodPatch, "/tasks/"+url.PathEscape(id), payload)
	if err != nil {
		return model.Task{}, err
	}
	var t model.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return model.Task{}, fmt.Errorf("failed to parse task response: %w", err)
	}
	return t, nil
}

// DeleteTask removes a task and every link attached to it.
func (c *Client) DeleteTask(id string) error {
	_, err := c.jsonRequest(http.MethodDelete, "/tasks/"+url.PathEscape(id), nil)
	return err
}

// ListTasks returns every task in the database.
func (c *Client) ListTasks() ([]model.Task, error) {
	return c.taskList("/tasks")
}

// TasksByStatus returns the tasks currently in the given status.
func (c *Client) TasksByStatus(status model.Status) ([]model.Task, error) {
	return c.taskList("/tasks?status=" + url.QueryEscape(string(status)))
}

// TasksByProject returns the tasks filed under a project.
func (c *Client) TasksByProject(projectID string) ([]model.Task, error) {
	return c.taskList("/projects/" + url.PathEscape(projectID) + "/tasks")
}

func (c *Client) taskList(endpoint string) ([]model.Task, error) {
	body, err := c.jsonRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var resp taskListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse task list response: %w", err)
	}
	return resp.Tasks, nil
}

// --- Project Methods ---

// CreateProject creates a named project.
func (c *Client) CreateProject(name string) (model.Project, error) {
	body, err := c.jsonRequest(http.MethodPost, "/projects", map[string]string{"name": name})
	if err != nil {
		return model.Project{}, err
	}
	var p model.Project
	if err := json.Unmarshal(body, &p); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project response: %w", err)
	}
	return p, nil
}

// ListProjects returns every project.
func (c *Client) ListProjects() ([]model.Project, error) {
	body, err := c.jsonRequest(http.MethodGet, "/projects", nil)
	if err != nil {
		return nil, err
	}
	var resp projectListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse project list response: %w", err)
	}
	return resp.Projects, nil
}

// DeleteProject removes a project. Member tasks survive but lose their
// project assignment.
func (c *Client) DeleteProject(id string) error {
	_, err := c.jsonRequest(http.MethodDelete, "/projects/"+url.PathEscape(id), nil)
	return err
}

// --- Link Methods ---

// CreateLink creates a typed link between two tasks. Strength may be nil.
func (c *Client) CreateLink(sourceID, targetID string, linkType model.LinkType, label string, strength *float64) (model.Link, error) {
	payload := map[string]any{
		"source_id": sourceID,
		"target_id": targetID,
		"link_type": linkType,
	}
	if label != "" {
		payload["label"] = label
	}
	if strength != nil {
		payload["strength"] = *strength
	}

	body, err := c.jsonRequest(http.MethodPost, "/links", payload)
	if err != nil {
		return model.Link{}, err
	}
	var l model.Link
	if err := json.Unmarshal(body, &l); err != nil {
		return model.Link{}, fmt.Errorf("failed to parse link response: %w", err)
	}
	return l, nil
}

// DeleteLink removes a single link.
func (c *Client) DeleteLink(id string) error {
	_, err := c.jsonRequest(http.MethodDelete, "/links/"+url.PathEscape(id), nil)
	return err
}

// --- Graph Methods ---

// Backlinks lists the tasks linking TO the given task.
func (c *Client) Backlinks(taskID string, linkType model.LinkType, depth int, indirect bool) (graph.BacklinksResult, error) {
	q := url.Values{"task": {taskID}}
	if linkType != "" {
		q.Set("type", string(linkType))
	}
	if depth > 0 {
		q.Set("depth", strconv.Itoa(depth))
	}
	if indirect {
		q.Set("indirect", "true")
	}

	var result graph.BacklinksResult
	err := c.graphQuery("/graph/backlinks?"+q.Encode(), &result)
	return result, err
}

// ForwardLinks lists the tasks the given task links to.
func (c *Client) ForwardLinks(taskID string, linkType model.LinkType, depth int, indirect bool) (graph.ForwardLinksResult, error) {
	q := url.Values{"task": {taskID}}
	if linkType != "" {
		q.Set("type", string(linkType))
	}
	if depth > 0 {
		q.Set("depth", strconv.Itoa(depth))
	}
	if indirect {
		q.Set("indirect", "true")
	}

	var result graph.ForwardLinksResult
	err := c.graphQuery("/graph/forward?"+q.Encode(), &result)
	return result, err
}

// Neighborhood returns the direct in- and out-neighbors of a task.
func (c *Client) Neighborhood(taskID string) (graph.NeighborhoodResult, error) {
	var result graph.NeighborhoodResult
	err := c.graphQuery("/graph/neighborhood?task="+url.QueryEscape(taskID), &result)
	return result, err
}

// RelatedGraph returns the subgraph around a task, following links in
// both directions up to depth hops (default 2 on the server).
func (c *Client) RelatedGraph(taskID string, depth int, includeProjects bool) (graph.Subgraph, error) {
	q := url.Values{"task": {taskID}}
	if depth > 0 {
		q.Set("depth", strconv.Itoa(depth))
	}
	if includeProjects {
		q.Set("projects", "true")
	}

	var result graph.Subgraph
	err := c.graphQuery("/graph/related?"+q.Encode(), &result)
	return result, err
}

// BlockingChain lists the tasks waiting on the given task.
func (c *Client) BlockingChain(taskID string) (graph.BlockingChainResult, error) {
	var result graph.BlockingChainResult
	err := c.graphQuery("/graph/blocking?task="+url.QueryEscape(taskID), &result)
	return result, err
}

// DependencyChain lists the tasks the given task is waiting on.
func (c *Client) DependencyChain(taskID string) (graph.DependencyChainResult, error) {
	var result graph.DependencyChainResult
	err := c.graphQuery("/graph/dependencies?task="+url.QueryEscape(taskID), &result)
	return result, err
}

// DetectCycles reports the cycles reachable from a task.
func (c *Client) DetectCycles(taskID string) (graph.CycleReport, error) {
	var result graph.CycleReport
	err := c.graphQuery("/graph/cycles?task="+url.QueryEscape(taskID), &result)
	return result, err
}

// TasksInCycles scans the whole database for tasks stuck in cycles.
func (c *Client) TasksInCycles() (graph.CycleSetResult, error) {
	var result graph.CycleSetResult
	err := c.graphQuery("/graph/cycles", &result)
	return result, err
}

// Orphans lists the tasks with no links and no project.
func (c *Client) Orphans() ([]model.Task, error) {
	var resp orphanResponse
	if err := c.graphQuery("/graph/orphans", &resp); err != nil {
		return nil, err
	}
	return resp.Orphans, nil
}

// TaskImportance scores a task by its backlinks and blocking chain.
func (c *Client) TaskImportance(taskID string) (graph.ImportanceResult, error) {
	var result graph.ImportanceResult
	err := c.graphQuery("/graph/importance?task="+url.QueryEscape(taskID), &result)
	return result, err
}

// Export renders the related graph of a task in the given format
// ("dot" or "mermaid") and returns the raw text.
func (c *Client) Export(taskID, format string, depth int) (string, error) {
	q := url.Values{"task": {taskID}, "format": {format}}
	if depth > 0 {
		q.Set("depth", strconv.Itoa(depth))
	}
	body, err := c.jsonRequest(http.MethodGet, "/graph/export?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) graphQuery(endpoint string, out any) error {
	body, err := c.jsonRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse graph response: %w", err)
	}
	return nil
}

// --- System Methods ---

// Save forces an immediate snapshot to disk.
func (c *Client) Save() error {
	_, err := c.jsonRequest(http.MethodPost, "/system/save", nil)
	return err
}

// RewriteAOF compacts the append-only file.
func (c *Client) RewriteAOF() error {
	_, err := c.jsonRequest(http.MethodPost, "/system/aof-rewrite", nil)
	return err
}
