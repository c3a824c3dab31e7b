package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gridnoise/tasknet/pkg/engine"
	"github.com/gridnoise/tasknet/pkg/metrics"
	"github.com/gridnoise/tasknet/pkg/model"
)

// registerHTTPHandlers sets up the REST API routes.
func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/tasks/", s.handleTaskByID)
	mux.HandleFunc("/projects", s.handleProjects)
	mux.HandleFunc("/projects/", s.handleProjectByID)
	mux.HandleFunc("/links", s.handleLinks)
	mux.HandleFunc("/links/", s.handleLinkByID)
	mux.HandleFunc("/graph/", s.handleGraph)
	mux.HandleFunc("/system/save", s.handleSave)
	mux.HandleFunc("/system/aof-rewrite", s.handleAOFRewrite)
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

// --- Tasks ---

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task, err := s.Engine.TaskCreate(req.Content, req.Status, req.ProjectID)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.updateEntityGauges()
		s.writeJSON(w, http.StatusCreated, task)

	case http.MethodGet:
		var tasks []model.Task
		q := r.URL.Query()
		switch {
		case q.Get("status") != "":
			tasks = s.Engine.TasksByStatus(model.Status(q.Get("status")))
		case q.Get("project") != "":
			tasks = s.Engine.TasksByProject(q.Get("project"))
		default:
			tasks = s.Engine.TaskList()
		}
		s.writeJSON(w, http.StatusOK, taskListResponse{Tasks: tasks, Count: len(tasks)})

	default:
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if id == "" || strings.Contains(id, "/") {
		s.writeHTTPError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := s.Engine.TaskGet(id)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, task)

	case http.MethodPatch, http.MethodPut:
		var req updateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task, err := s.Engine.TaskApplyUpdate(id, engine.TaskUpdate{
			Content:   req.Content,
			Status:    req.Status,
			ProjectID: req.ProjectID,
		})
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, task)

	case http.MethodDelete:
		if err := s.Engine.TaskDelete(id); err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.updateEntityGauges()
		w.WriteHeader(http.StatusNoContent)

	default:
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- Projects ---

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		project, err := s.Engine.ProjectCreate(req.Name)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, project)

	case http.MethodGet:
		projects := s.Engine.ProjectList()
		s.writeJSON(w, http.StatusOK, projectListResponse{Projects: projects, Count: len(projects)})

	default:
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/projects/")

	// /projects/{id}/tasks lists the project's tasks via the index.
	if id, ok := strings.CutSuffix(rest, "/tasks"); ok {
		if r.Method != http.MethodGet {
			s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		tasks := s.Engine.TasksByProject(id)
		s.writeJSON(w, http.StatusOK, taskListResponse{Tasks: tasks, Count: len(tasks)})
		return
	}

	if rest == "" || strings.Contains(rest, "/") {
		s.writeHTTPError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		project, err := s.Engine.ProjectGet(rest)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, project)

	case http.MethodDelete:
		if err := s.Engine.ProjectDelete(rest); err != nil {
			s.writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- Links ---

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	link, err := s.Engine.LinkCreate(req.SourceID, req.TargetID, req.LinkType, req.Label, req.Strength)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.updateEntityGauges()
	s.writeJSON(w, http.StatusCreated, link)
}

func (s *Server) handleLinkByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/links/")
	if id == "" || strings.Contains(id, "/") {
		s.writeHTTPError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		link, err := s.Engine.LinkGet(id)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, link)

	case http.MethodDelete:
		if err := s.Engine.LinkDelete(id); err != nil {
			s.writeEngineError(w, err)
			return
		}
		s.updateEntityGauges()
		w.WriteHeader(http.StatusNoContent)

	default:
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- System ---

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.Engine.SaveSnapshot(); err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "snapshot saved"})
}

func (s *Server) handleAOFRewrite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.Engine.RewriteAOF(); err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{Status: "aof rewritten"})
}

// --- Helpers ---

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps engine errors to HTTP status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrTaskNotFound),
		errors.Is(err, engine.ErrProjectNotFound),
		errors.Is(err, engine.ErrLinkNotFound):
		s.writeHTTPError(w, http.StatusNotFound, err.Error())
	default:
		s.writeHTTPError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) updateEntityGauges() {
	metrics.TasksTotal.Set(float64(len(s.Engine.TaskList())))
	metrics.LinksTotal.Set(float64(len(s.Engine.AllLinks())))
}
