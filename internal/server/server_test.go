package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gridnoise/tasknet/pkg/engine"
	"github.com/gridnoise/tasknet/pkg/model"
)

func newTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()
	eng, err := engine.Open(engine.DefaultOptions(t.TempDir()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return NewServer(eng, cfg)
}

func doJSON(t *testing.T, h http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestTaskEndpoints(t *testing.T) {
	srv := newTestServer(t, &Config{})
	h := srv.Handler()

	t.Run("CreateAndGet", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/tasks", map[string]string{"content": "hello"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		created := decode[model.Task](t, rec)

		rec = doJSON(t, h, http.MethodGet, "/tasks/"+created.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET returned %d", rec.Code)
		}
		got := decode[model.Task](t, rec)
		if got.Content != "hello" || got.Status != model.StatusOpen {
			t.Errorf("Unexpected task: %+v", got)
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/tasks", map[string]string{"content": ""})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400 for empty content, got %d", rec.Code)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/tasks/ghost", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("PatchAndFilter", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/tasks", map[string]string{"content": "patch me"})
		created := decode[model.Task](t, rec)

		rec = doJSON(t, h, http.MethodPatch, "/tasks/"+created.ID, map[string]string{"status": "done"})
		if rec.Code != http.StatusOK {
			t.Fatalf("PATCH returned %d: %s", rec.Code, rec.Body.String())
		}

		rec = doJSON(t, h, http.MethodGet, "/tasks?status=done", nil)
		list := decode[taskListResponse](t, rec)
		if list.Count != 1 || list.Tasks[0].ID != created.ID {
			t.Errorf("Status filter returned %+v", list)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/tasks", map[string]string{"content": "bye"})
		created := decode[model.Task](t, rec)

		rec = doJSON(t, h, http.MethodDelete, "/tasks/"+created.ID, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("DELETE returned %d", rec.Code)
		}
		rec = doJSON(t, h, http.MethodGet, "/tasks/"+created.ID, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Deleted task still served: %d", rec.Code)
		}
	})
}

func TestLinkAndGraphEndpoints(t *testing.T) {
	srv := newTestServer(t, &Config{})
	h := srv.Handler()

	mkTask := func(content string) model.Task {
		rec := doJSON(t, h, http.MethodPost, "/tasks", map[string]string{"content": content})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Task setup failed: %s", rec.Body.String())
		}
		return decode[model.Task](t, rec)
	}
	mkLink := func(src, dst string, lt model.LinkType) {
		rec := doJSON(t, h, http.MethodPost, "/links", map[string]any{
			"source_id": src, "target_id": dst, "link_type": lt,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Link setup failed: %s", rec.Body.String())
		}
	}

	a := mkTask("a")
	b := mkTask("b")
	c := mkTask("c")
	mkLink(b.ID, a.ID, model.LinkWaiting)
	mkLink(c.ID, b.ID, model.LinkWaiting)

	t.Run("Backlinks", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/graph/backlinks?task="+a.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Backlinks returned %d", rec.Code)
		}
		var result struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rec.Body.Bytes(), &result)
		if result.Count != 1 {
			t.Errorf("Expected 1 backlink, got %d", result.Count)
		}
	})

	t.Run("BlockingChain", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/graph/blocking?task="+a.ID, nil)
		var result struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rec.Body.Bytes(), &result)
		if result.Count != 2 {
			t.Errorf("Expected chain of 2, got %d", result.Count)
		}
	})

	t.Run("CyclesFullScan", func(t *testing.T) {
		mkLink(a.ID, b.ID, model.LinkBlocks) // closes a loop a->b->a via waiting edge b->a
		rec := doJSON(t, h, http.MethodGet, "/graph/cycles", nil)
		var result struct {
			TaskIDs []string `json:"task_ids"`
		}
		json.Unmarshal(rec.Body.Bytes(), &result)
		if len(result.TaskIDs) != 2 {
			t.Errorf("Expected 2 tasks in cycles, got %v", result.TaskIDs)
		}
	})

	t.Run("MissingTaskParam", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/graph/backlinks", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400 without task param, got %d", rec.Code)
		}
	})

	t.Run("ExportDOT", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/graph/export?task="+a.ID+"&format=dot", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Export returned %d", rec.Code)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("digraph")) {
			t.Errorf("Unexpected DOT body: %q", rec.Body.String())
		}
	})

	t.Run("UnknownGraphQuery", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/graph/pagerank", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", rec.Code)
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t, &Config{AuthToken: "sekret"})
	h := srv.Handler()

	t.Run("RejectsMissingToken", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/tasks", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", rec.Code)
		}
	})

	t.Run("AcceptsBearerToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("Authorization", "Bearer sekret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 with token, got %d", rec.Code)
		}
	})

	t.Run("MetricsStaysOpen", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Metrics must not require auth, got %d", rec.Code)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("EmptyPath", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil || cfg == nil {
			t.Fatalf("Empty path should yield empty config, got %v / %v", cfg, err)
		}
	})

	t.Run("EnvExpansion", func(t *testing.T) {
		t.Setenv("TASKNET_TEST_TOKEN", "from-env")
		path := writeConfig(t, "http_addr: \":9000\"\nauth_token: \"${TASKNET_TEST_TOKEN}\"\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.AuthToken != "from-env" {
			t.Errorf("Env var not expanded: %q", cfg.AuthToken)
		}
	})

	t.Run("RejectsUnknownFields", func(t *testing.T) {
		path := writeConfig(t, "http_adr: \":9000\"\n") // typo on purpose
		if _, err := LoadConfig(path); err == nil {
			t.Fatal("Strict mode must reject unknown fields")
		}
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := fmt.Sprintf("%s/config.yaml", t.TempDir())
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
