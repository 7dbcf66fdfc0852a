package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/triad/internal/config"
	"github.com/scrypster/triad/internal/engine"
	"github.com/scrypster/triad/internal/model"
	"github.com/scrypster/triad/internal/storage/memory"
	"github.com/scrypster/triad/pkg/types"
)

func newTestAPI(t *testing.T) (*APIHandlers, *memory.GraphStore, *engine.JobManager) {
	t.Helper()
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	comps, err := model.ResolvePreset("classic")
	require.NoError(t, err)

	store := memory.New()
	eng := engine.New(store, comps, 1)
	manager := engine.NewJobManager(eng, time.Minute, 0)
	return NewAPIHandlers(store, eng, manager, cfg), store, manager
}

func seedUnbalancedTriangle(t *testing.T, store *memory.GraphStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreatePeople(ctx, []types.Person{
		{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3},
	}))
	require.NoError(t, store.UpsertRelationships(ctx, []types.Relationship{
		{Person1: 0, Person2: 1, Value: 1, Sign: types.SignPositive},
		{Person1: 1, Person2: 2, Value: 1, Sign: types.SignPositive},
		{Person1: 0, Person2: 2, Value: -1, Sign: types.SignNegative},
		{Person1: 2, Person2: 3, Value: 1, Sign: types.SignPositive},
	}))
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestInitializeValidation(t *testing.T) {
	api, _, _ := newTestAPI(t)

	tests := []struct {
		name string
		body string
	}{
		{"too few people", `{"num_people": 2, "positive_probability": 0.5, "negative_probability": 0.2}`},
		{"too many people", `{"num_people": 5000, "positive_probability": 0.5, "negative_probability": 0.2}`},
		{"probabilities exceed one", `{"num_people": 10, "positive_probability": 0.8, "negative_probability": 0.5}`},
		{"negative probability", `{"num_people": 10, "positive_probability": -0.1, "negative_probability": 0.2}`},
		{"malformed body", `{"num_people": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, api.Initialize, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

func TestInitializeCreatesGraph(t *testing.T) {
	api, store, _ := newTestAPI(t)

	rec := postJSON(t, api.Initialize,
		`{"num_people": 10, "positive_probability": 0.5, "negative_probability": 0.3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats types.GraphStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.NumPeople)

	n, err := store.CountPeople(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestIterateReturnsResult(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedUnbalancedTriangle(t, store)

	rec := postJSON(t, api.Iterate, `{"action_probability": 0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result types.IterationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Zero(t, result.ChangesMade)
	assert.Equal(t, 1, result.Stats.UnbalancedTriangles)
}

func TestIterateValidation(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := postJSON(t, api.Iterate, `{"action_probability": 1.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulationLifecycle(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedUnbalancedTriangle(t, store)

	// Action probability zero stabilizes after one iteration.
	rec := postJSON(t, api.StartSimulation, `{"max_iterations": 50, "action_probability": 0}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var snap types.JobSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, strings.HasPrefix(snap.ID, "job:"))

	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/api/simulate/status/"+snap.ID, nil)
		req.SetPathValue("id", snap.ID)
		statusRec := httptest.NewRecorder()
		api.SimulationStatus(statusRec, req)
		require.Equal(t, http.StatusOK, statusRec.Code)

		require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &snap))
		if snap.Status.Terminal() {
			break
		}
		require.True(t, time.Now().Before(deadline), "job did not finish")
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, types.JobCompleted, snap.Status)
	require.NotNil(t, snap.Result)
	assert.Equal(t, types.OutcomeStabilized, snap.Result.Outcome)
}

func TestSimulationStatusUnknownJob(t *testing.T) {
	api, _, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/simulate/status/job:nope", nil)
	req.SetPathValue("id", "job:nope")
	rec := httptest.NewRecorder()
	api.SimulationStatus(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/simulate/stop/job:nope", nil)
	req.SetPathValue("id", "job:nope")
	rec = httptest.NewRecorder()
	api.StopSimulation(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartConflictsWithExclusiveWork(t *testing.T) {
	api, store, manager := newTestAPI(t)
	seedUnbalancedTriangle(t, store)

	err := manager.Exclusive(func() error {
		rec := postJSON(t, api.StartSimulation, `{"max_iterations": 10, "action_probability": 0.5}`)
		assert.Equal(t, http.StatusConflict, rec.Code)

		initRec := postJSON(t, api.Initialize,
			`{"num_people": 5, "positive_probability": 0.5, "negative_probability": 0.2}`)
		assert.Equal(t, http.StatusConflict, initRec.Code)
		return nil
	})
	require.NoError(t, err)
}

func TestResetClearsGraphAndJobs(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedUnbalancedTriangle(t, store)

	rec := postJSON(t, api.Reset, ``)
	require.Equal(t, http.StatusOK, rec.Code)

	n, err := store.CountPeople(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGraphEndpoint(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedUnbalancedTriangle(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	rec := httptest.NewRecorder()
	api.Graph(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp GraphResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Nodes, 4)
	require.Len(t, resp.Links, 4)

	statuses := make(map[int]string)
	for _, n := range resp.Nodes {
		statuses[n.ID] = n.Status
	}
	assert.Equal(t, "unbalanced", statuses[0])
	assert.Equal(t, "none", statuses[3])
}

func TestStatsEndpoint(t *testing.T) {
	api, store, _ := newTestAPI(t)
	seedUnbalancedTriangle(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	api.Stats(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats types.GraphStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalTriangles)
	assert.Equal(t, 1, stats.UnbalancedTriangles)
}

func TestConfigEndpoint(t *testing.T) {
	api, _, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	api.GetConfig(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "classic", resp.Preset)
	assert.Equal(t, "discrete", resp.Components["relationship_model"])
}
