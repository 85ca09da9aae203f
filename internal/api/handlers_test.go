package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/war-games/go-engine/internal/service"
	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/store"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

func setupRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := service.New(st, service.Options{})
	seed := world.World{
		Nodes: map[string]world.Event{
			"sarajevo":  {ID: "sarajevo", Title: "Archduke visits Sarajevo", Date: "1914-06-28"},
			"ultimatum": {ID: "ultimatum", Title: "July Ultimatum", Date: "1914-07-23"},
		},
		Edges: []world.Edge{{Src: "sarajevo", Dst: "ultimatum", Weight: 0.9, Mechanism: world.Military}},
		Goals: []world.Goal{{ID: "peace", Name: "Keep the peace", Metrics: []world.GoalMetric{
			{Key: "war_escalation", Target: json.RawMessage("0"), Weight: 1, Direction: "min"},
		}}},
	}
	id, err := svc.Import(context.Background(), seed)
	require.NoError(t, err)
	return NewRouter(svc, nil), id
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInterveneReturnsWorld(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api/intervene", `{"id":"sarajevo","edited":"Archduke assassinated, war declared"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-World-Version"))
	assert.Equal(t, "commit", w.Header().Get("X-Gate-Decision"))
	assert.Equal(t, "rise", w.Header().Get("X-Intervention-Tag"))

	var got world.World
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Archduke assassinated, war declared (tensions rise)", got.Nodes["sarajevo"].Title)
	assert.True(t, got.Nodes["ultimatum"].State.Has(state.CasualtiesExpected))
}

func TestInterveneVerbose(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api/intervene?verbose=true", `{"id":"sarajevo","edited":"Ceasefire talks"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res service.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "commit", res.Decision.Action)
	assert.Equal(t, 2, res.Metrics.Visited)
}

func TestInterveneErrors(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown-event", `{"id":"verdun","edited":"Verdun falls"}`, http.StatusNotFound},
		{"missing-id", `{"edited":"text"}`, http.StatusBadRequest},
		{"not-json", `not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/intervene", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestPropagate(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api/propagate", `{"id":"sarajevo","delta":{"mobilization_level":0.5,"not_a_dim":3}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got world.World
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.InDelta(t, 0.5, got.Nodes["sarajevo"].State.Value(state.MobilizationLevel), 1e-9)
	assert.Greater(t, got.Nodes["ultimatum"].State.Value(state.MobilizationLevel), 0.0)
	assert.Equal(t, "Archduke visits Sarajevo", got.Nodes["sarajevo"].Title)
}

func TestVersionsAndRollback(t *testing.T) {
	r, seed := setupRouter(t)

	w := do(r, http.MethodPost, "/api/intervene", `{"id":"sarajevo","edited":"Archduke assassinated"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/versions?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Versions []store.Version `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Versions, 2)
	assert.Equal(t, seed, body.Versions[1].VersionID)

	w = do(r, http.MethodPost, "/api/versions/"+seed+"/rollback", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, seed, w.Header().Get("X-World-Version"))

	w = do(r, http.MethodGet, "/api/world", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Archduke visits Sarajevo")

	w = do(r, http.MethodPost, "/api/versions/nope/rollback", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/versions?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoresHealthAndMetrics(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/api/goals/scores", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"goal_id":"peace"`)

	w = do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "wargames_world_imports_total 1"))
}
