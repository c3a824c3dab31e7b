package client

import (
	"errors"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gridnoise/tasknet/internal/server"
	"github.com/gridnoise/tasknet/pkg/engine"
	"github.com/gridnoise/tasknet/pkg/model"
)

// newTestClient spins up the full HTTP stack on a loopback listener and
// returns a client pointed at it.
func newTestClient(t *testing.T) *Client {
	t.Helper()

	eng, err := engine.Open(engine.DefaultOptions(t.TempDir()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	srv := server.NewServer(eng, &server.Config{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)
	return New(host, port, "")
}

func TestClientEndToEnd(t *testing.T) {
	c := newTestClient(t)

	var a, b model.Task

	t.Run("TaskLifecycle", func(t *testing.T) {
		var err error
		a, err = c.CreateTask("first task", "", "")
		if err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
		b, err = c.CreateTask("second task", model.StatusInProgress, "")
		if err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}

		got, err := c.GetTask(a.ID)
		if err != nil || got.Content != "first task" {
			t.Fatalf("GetTask: %+v, %v", got, err)
		}

		done := model.StatusDone
		updated, err := c.UpdateTask(a.ID, nil, &done, nil)
		if err != nil || updated.Status != model.StatusDone {
			t.Fatalf("UpdateTask: %+v, %v", updated, err)
		}

		byStatus, err := c.TasksByStatus(model.StatusInProgress)
		if err != nil || len(byStatus) != 1 || byStatus[0].ID != b.ID {
			t.Fatalf("TasksByStatus: %v, %v", byStatus, err)
		}
	})

	t.Run("LinksAndGraph", func(t *testing.T) {
		if _, err := c.CreateLink(b.ID, a.ID, model.LinkWaiting, "", nil); err != nil {
			t.Fatalf("CreateLink failed: %v", err)
		}

		back, err := c.Backlinks(a.ID, "", 0, false)
		if err != nil || back.Count != 1 {
			t.Fatalf("Backlinks: %+v, %v", back, err)
		}

		chain, err := c.BlockingChain(a.ID)
		if err != nil || chain.Count != 1 || chain.BlockedTasks[0].Task.ID != b.ID {
			t.Fatalf("BlockingChain: %+v, %v", chain, err)
		}

		imp, err := c.TaskImportance(a.ID)
		if err != nil {
			t.Fatalf("TaskImportance failed: %v", err)
		}
		if imp.ImportanceScore != 3 {
			t.Errorf("Expected importance 3, got %f", imp.ImportanceScore)
		}

		dot, err := c.Export(a.ID, "dot", 0)
		if err != nil || !strings.HasPrefix(dot, "digraph") {
			t.Fatalf("Export: %q, %v", dot, err)
		}
	})

	t.Run("Projects", func(t *testing.T) {
		proj, err := c.CreateProject("inbox")
		if err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}
		task, err := c.CreateTask("filed task", "", proj.ID)
		if err != nil {
			t.Fatalf("CreateTask in project failed: %v", err)
		}
		members, err := c.TasksByProject(proj.ID)
		if err != nil || len(members) != 1 || members[0].ID != task.ID {
			t.Fatalf("TasksByProject: %v, %v", members, err)
		}
	})

	t.Run("APIErrorMapping", func(t *testing.T) {
		_, err := c.GetTask("ghost")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("Expected *APIError, got %v", err)
		}
		if apiErr.StatusCode != 404 {
			t.Errorf("Expected 404, got %d", apiErr.StatusCode)
		}
	})

	t.Run("SystemOps", func(t *testing.T) {
		if err := c.Save(); err != nil {
			t.Errorf("Save failed: %v", err)
		}
		if err := c.RewriteAOF(); err != nil {
			t.Errorf("RewriteAOF failed: %v", err)
		}
	})
}
