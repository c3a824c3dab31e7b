package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gridnoise/tasknet/pkg/graph"
	"github.com/gridnoise/tasknet/pkg/metrics"
	"github.com/gridnoise/tasknet/pkg/model"
)

// handleGraph dispatches the read-only graph query endpoints.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/graph/") {
	case "backlinks":
		s.handleBacklinks(w, r)
	case "forward":
		s.handleForwardLinks(w, r)
	case "neighborhood":
		s.handleNeighborhood(w, r)
	case "related":
		s.handleRelatedGraph(w, r)
	case "blocking":
		s.handleBlockingChain(w, r)
	case "dependencies":
		s.handleDependencyChain(w, r)
	case "cycles":
		s.handleCycles(w, r)
	case "orphans":
		s.handleOrphans(w, r)
	case "importance":
		s.handleImportance(w, r)
	case "export":
		s.handleExport(w, r)
	default:
		s.writeHTTPError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleBacklinks(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.requireTask(w, r)
	if !ok {
		return
	}
	metrics.GraphQueriesTotal.WithLabelValues("backlinks").Inc()
	result := s.Graph.Backlinks(taskID, linkQueryOptions(r))
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleForwardLinks(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.requireTask(w, r)
	if !ok {
		return
	}
	metrics.GraphQueriesTotal.WithLabelValues("forward").Inc()
	result := s.Graph.ForwardLinks(taskID, linkQueryOptions(r))
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleNeighborhood(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.requireTask(w, r)
	if !ok {
		return
	}
	metrics.GraphQueriesTotal.WithLabelValues("neighborhood").Inc()
	result := s.Graph.Neighborhood(taskID)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRelatedGraph(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.requireTask(w, r)
	if !ok {
		return
	}
	metrics.GraphQueriesTotal.WithLabelValues("related").Inc()
	result := s.Graph.RelatedGraph(taskID, relatedGraphOptions(r))
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBlockingChain(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.requireTask(w, r)
	if !ok {
		return
	}
	metrics.GraphQueriesTotal.WithLabelValues("blocking").Inc()
	result := s.Graph.BlockingChain(taskID)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDependencyChain(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.requireTask(w, r)
	if !ok {
		return
	}
	metrics.GraphQueriesTotal.WithLabelValues("dependencies").Inc()
	result := s.Graph.DependencyChain(taskID)
	s.writeJSON(w, http.StatusOK, result)
}

// handleCycles serves both the seeded and the database-wide variants:
// with ?task= it reports cycles reachable from that task, without it
// every task participating in a cycle.
func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if taskID := r.URL.Query().Get("task"); taskID != "" {
		metrics.GraphQueriesTotal.WithLabelValues("cycles").Inc()
		result := s.Graph.DetectCycles(taskID)
		s.writeJSON(w, http.StatusOK, result)
		return
	}
	metrics.GraphQueriesTotal.WithLabelValues("cycles_all").Inc()
	result := s.Graph.TasksInCycles()
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOrphans(w http.ResponseWriter, r *http.Request) {
	metrics.GraphQueriesTotal.WithLabelValues("orphans").Inc()
	orphans := s.Graph.OrphanTasks()
	s.writeJSON(w, http.StatusOK, orphanResponse{Orphans: orphans, Count: len(orphans)})
}

func (s *Server) handleImportance(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.requireTask(w, r)
	if !ok {
		return
	}
	metrics.GraphQueriesTotal.WithLabelValues("importance").Inc()
	result := s.Graph.TaskImportance(taskID)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.requireTask(w, r)
	if !ok {
		return
	}
	metrics.GraphQueriesTotal.WithLabelValues("export").Inc()
	sub := s.Graph.RelatedGraph(taskID, relatedGraphOptions(r))

	switch format := r.URL.Query().Get("format"); format {
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.Write([]byte(sub.DOT()))
	case "mermaid", "":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(sub.Mermaid()))
	default:
		s.writeHTTPError(w, http.StatusBadRequest, "unknown format: "+format)
	}
}

// requireTask extracts the mandatory ?task= parameter and verifies the
// task exists, writing the error response itself when it does not.
func (s *Server) requireTask(w http.ResponseWriter, r *http.Request) (string, bool) {
	taskID := r.URL.Query().Get("task")
	if taskID == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "missing 'task' parameter")
		return "", false
	}
	if _, err := s.Engine.TaskGet(taskID); err != nil {
		s.writeEngineError(w, err)
		return "", false
	}
	return taskID, true
}

func linkQueryOptions(r *http.Request) graph.LinkQueryOptions {
	q := r.URL.Query()
	opts := graph.LinkQueryOptions{
		LinkType:        model.LinkType(q.Get("type")),
		IncludeIndirect: q.Get("indirect") == "true",
	}
	if d, err := strconv.Atoi(q.Get("depth")); err == nil && d > 0 {
		opts.Depth = d
	}
	return opts
}

func relatedGraphOptions(r *http.Request) graph.RelatedGraphOptions {
	q := r.URL.Query()
	opts := graph.RelatedGraphOptions{
		IncludeProjects: q.Get("projects") == "true",
	}
	if d, err := strconv.Atoi(q.Get("depth")); err == nil && d > 0 {
		opts.Depth = d
	}
	if raw := q.Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				opts.LinkTypes = append(opts.LinkTypes, model.LinkType(t))
			}
		}
	}
	return opts
}
