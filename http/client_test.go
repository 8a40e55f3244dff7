package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/testplan"
	testplanhttp "github.com/fwojciec/testplan/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBackend starts a fake backend routed by r.
func newBackend(t *testing.T, r chi.Router) *testplanhttp.Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	c, err := testplanhttp.NewClient(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := testplanhttp.NewClient("not a url")
	require.Error(t, err)
}

func TestClient_Get(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/test-plans/{key}", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "key") {
		case "PLAT-1":
			writeJSON(w, http.StatusOK, map[string]any{
				"test_plan": map[string]any{
					"test_cases": []map[string]any{{
						"title": "Login",
						"steps": []map[string]any{{"step_number": 1, "action": "Open", "expected_result": "Form"}},
					}},
				},
			})
		case "PLAT-2":
			writeJSON(w, http.StatusOK, map[string]any{"unexpected": true})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Test plan not found"})
		}
	})
	c := newBackend(t, r)

	t.Run("returns stored cases", func(t *testing.T) {
		t.Parallel()

		got, err := c.Get(context.Background(), "PLAT-1")

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Login", got[0].Title)
		assert.Equal(t, "Form", got[0].Steps[0].ExpectedResult)
	})

	t.Run("unexpected shape is malformed", func(t *testing.T) {
		t.Parallel()

		_, err := c.Get(context.Background(), "PLAT-2")

		require.ErrorIs(t, err, testplan.ErrMalformedPlan)
	})

	t.Run("missing plan", func(t *testing.T) {
		t.Parallel()

		_, err := c.Get(context.Background(), "PLAT-404")

		require.ErrorIs(t, err, testplan.ErrNoPlan)
	})
}

func TestClient_Update(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Put("/api/test-plans/{key}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TestCases         []testplan.TestCase `json:"test_cases"`
			UploadImmediately bool                `json:"upload_immediately"`
			ProjectKey        string              `json:"project_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		if len(body.TestCases) != 2 || body.ProjectKey != "PLAT" || body.UploadImmediately {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "bad body"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "saved"})
	})
	c := newBackend(t, r)

	res, err := c.Update(context.Background(), "PLAT-1", []testplan.TestCase{
		{ID: "TC-PLAT-1-1", Title: "A", Selected: true},
		{Title: "B"},
	}, false, "PLAT")

	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "saved", res.Message)
}

func TestClient_UpdateDoesNotSendUIFlags(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Put("/api/test-plans/{key}", func(w http.ResponseWriter, r *http.Request) {
		var raw map[string][]map[string]any
		_ = json.NewDecoder(r.Body).Decode(&raw)
		for _, tc := range raw["test_cases"] {
			for _, k := range []string{"isSelected", "Selected", "Expanded", "StepsText"} {
				if _, ok := tc[k]; ok {
					writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "leaked " + k})
					return
				}
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	c := newBackend(t, r)

	_, err := c.Update(context.Background(), "PLAT-1", []testplan.TestCase{{Title: "A", Selected: true, Expanded: true, StepsText: "1. x"}}, false, "PLAT")

	require.NoError(t, err)
}

func TestClient_Delete(t *testing.T) {
	t.Parallel()

	deleted := make(chan string, 2)
	r := chi.NewRouter()
	r.Delete("/api/test-plans/{key}", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if key == "GONE-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		deleted <- key
		w.WriteHeader(http.StatusNoContent)
	})
	c := newBackend(t, r)

	require.NoError(t, c.Delete(context.Background(), "PLAT-1"))
	require.NoError(t, c.Delete(context.Background(), "GONE-1"))
	assert.Equal(t, "PLAT-1", <-deleted)
}

func TestClient_APIError(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/test-plans/{key}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
	})
	c := newBackend(t, r)

	_, err := c.Get(context.Background(), "PLAT-1")

	var apiErr *testplanhttp.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "database unavailable", apiErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/api/jira/search", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	c, err := testplanhttp.NewClient(srv.URL, testplanhttp.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "login")

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Generate(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/api/test-plans/generate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["story_key"] != "PLAT-1" || body["upload_to_zephyr"] != true || body["folder_id"] != "F1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad request"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"test_plan":      map[string]any{"test_cases": []map[string]any{{"title": "A", "steps": []any{}}}},
			"zephyr_results": map[string]any{"test_case_ids": []string{"Z-1"}, "uploaded_count": 1},
		})
	})
	c := newBackend(t, r)

	res, err := c.Generate(context.Background(), testplan.GenerateRequest{
		IssueKey:          "PLAT-1",
		UploadImmediately: true,
		ProjectKey:        "PLAT",
		FolderID:          "F1",
	})

	require.NoError(t, err)
	require.Len(t, res.TestCases, 1)
	require.NotNil(t, res.Upload)
	assert.Equal(t, []string{"Z-1"}, res.Upload.IDs)
	assert.Equal(t, 1, res.Upload.Count)
}
