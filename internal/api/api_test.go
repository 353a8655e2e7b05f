package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sambou/adapters/llm/heuristic"
	"sambou/internal/deadlines"
	"sambou/internal/snippets"
	"sambou/internal/usage"
	"sambou/internal/workflow"
	"sambou/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *gin.Engine
	handler  *Handler
	hub      *SSEHub
	registry *Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewSSEHub(nil)
	t.Cleanup(hub.Close)
	catalog := deadlines.DefaultCatalog()
	registry := NewRegistry(func(id string) *workflow.Controller {
		return workflow.NewController(id, workflow.Dependencies{
			Oracles: heuristic.NewOracles(),
			Catalog: catalog,
			Events:  hub,
		})
	})
	handler := NewHandler(registry, catalog, usage.NewService(usage.NewMemoryRepository(), nil), time.Second, nil)
	router := NewRouter(RouterConfig{Handler: handler, Hub: hub})
	return &testServer{router: router, handler: handler, hub: hub, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) workflow.Snapshot {
	t.Helper()
	var snap workflow.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func (s *testServer) completeProfile(t *testing.T) workflow.Snapshot {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decodeSnapshot(t, w)

	for _, a := range []string{"3.9/4.0", "SAT 1520", "robotics club lead", "Python programming", "machine learning research"} {
		w = s.do(t, http.MethodPost, "/api/sessions/"+snap.SessionID+"/answers", answerRequest{Answer: a})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		snap = decodeSnapshot(t, w)
	}
	return snap
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCreateSessionAsksFirstQuestion(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	snap := decodeSnapshot(t, w)
	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, models.StageProfile, snap.Stage)
	require.Len(t, snap.Transcript, 1)

	w = s.do(t, http.MethodGet, "/api/sessions/"+snap.SessionID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestFullWorkflowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	snap := s.completeProfile(t)
	require.Equal(t, models.StageEvaluation, snap.Stage)
	require.GreaterOrEqual(t, len(snap.Rankings), 2)
	id := snap.SessionID

	w := s.do(t, http.MethodPost, "/api/sessions/"+id+"/answers", answerRequest{Answer: "one more"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STAGE")

	picked := []models.DepartmentKey{snap.Rankings[1].Key(), snap.Rankings[0].Key()}
	w = s.do(t, http.MethodPost, "/api/sessions/"+id+"/selection", selectionRequest{Departments: picked})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap = decodeSnapshot(t, w)
	assert.Equal(t, models.StageDeadlines, snap.Stage)
	assert.Len(t, snap.Selected, 2)

	w = s.do(t, http.MethodGet, "/api/sessions/"+id+"/deadlines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var timeline models.DeadlineTimeline
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &timeline))
	require.Len(t, timeline.Rows, 2)
	assert.Equal(t, picked[0].Label(), timeline.Rows[0].Name)

	w = s.do(t, http.MethodPost, "/api/sessions/"+id+"/snippets?wait=true", snippetRequest{
		UniversityName: picked[0].UniversityName, DepartmentName: picked[0].DepartmentName,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var st snippets.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.NotNil(t, st.Result)
	assert.False(t, st.Loading)

	w = s.do(t, http.MethodGet, "/api/sessions/"+id+"/snippets?format=html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\\u003cli\\u003e")

	w = s.do(t, http.MethodPost, "/api/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeSnapshot(t, w)
	assert.Equal(t, models.StageProfile, snap.Stage)
	assert.Empty(t, snap.Selected)
	assert.Len(t, snap.Transcript, 1)
}

func TestBackgroundSnippetRequest(t *testing.T) {
	s := newTestServer(t)
	snap := s.completeProfile(t)
	id := snap.SessionID
	k := snap.Rankings[0].Key()
	w := s.do(t, http.MethodPost, "/api/sessions/"+id+"/selection", selectionRequest{Departments: []models.DepartmentKey{k}})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/sessions/"+id+"/snippets", snippetRequest{UniversityName: k.UniversityName, DepartmentName: k.DepartmentName})
	require.Equal(t, http.StatusAccepted, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.handler.Wait(ctx))

	w = s.do(t, http.MethodGet, "/api/sessions/"+id+"/snippets", nil)
	var st snippets.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.False(t, st.Loading)
	assert.NotNil(t, st.Result)
}

func TestSnippetRequestValidation(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/sessions", nil)
	id := decodeSnapshot(t, w).SessionID

	w = s.do(t, http.MethodPost, "/api/sessions/"+id+"/snippets", map[string]string{"universityName": "MIT"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/sessions/"+id+"/snippets", snippetRequest{UniversityName: "MIT", DepartmentName: "Physics"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSelectionRejectsUnknownDepartment(t *testing.T) {
	s := newTestServer(t)
	snap := s.completeProfile(t)

	w := s.do(t, http.MethodPost, "/api/sessions/"+snap.SessionID+"/selection", selectionRequest{
		Departments: []models.DepartmentKey{{UniversityName: "Nowhere", DepartmentName: "Alchemy"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INPUT")
}

func TestListDepartments(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/departments", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Departments []departmentView `json:"departments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Departments)
	assert.Equal(t, "Computer Science", body.Departments[0].DepartmentName)
}

func TestUsageSummaryValidatesDates(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/usage?start=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/usage", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/sessions", nil)
	id := decodeSnapshot(t, w).SessionID

	w = s.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrySweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(func(id string) *workflow.Controller {
		return workflow.NewController(id, workflow.Dependencies{Oracles: heuristic.NewOracles()})
	})
	r.now = func() time.Time { return now }
	old := r.Create()
	now = now.Add(2 * time.Hour)
	fresh := r.Create()

	assert.Equal(t, 1, r.Sweep(time.Hour))
	_, ok := r.Get(old.ID())
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID())
	assert.True(t, ok)
}

func TestHubDeliversToSessionSubscribers(t *testing.T) {
	hub := NewSSEHub(nil)
	defer hub.Close()

	ch := make(chan SessionEvent, 1)
	hub.register <- SSEClient{SessionID: "s1", Channel: ch}
	require.Eventually(t, func() bool { return hub.GetClientCount("s1") == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish("s2", workflow.EventState, nil)
	hub.Publish("s1", workflow.EventNotice, models.NewNotice("t", "d", models.NoticeDefault))

	select {
	case ev := <-ch:
		assert.Equal(t, "s1", ev.SessionID)
		assert.Equal(t, workflow.EventNotice, ev.EventType)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	assert.Equal(t, []string{"s1"}, hub.GetActiveSessions())
}

func TestRenderMarkdown(t *testing.T) {
	assert.Empty(t, renderMarkdown("  "))
	out := renderMarkdown("- **Lead** with research")
	assert.True(t, strings.Contains(out, "<strong>Lead</strong>"))
	assert.Contains(t, out, "<li>")
}
