package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/scrypster/triad/internal/config"
	"github.com/scrypster/triad/internal/engine"
	"github.com/scrypster/triad/internal/storage"
	"github.com/scrypster/triad/pkg/types"
)

// maxPeople caps graph size: triangle enumeration is cubic in the worst
// case and initialization is quadratic in the number of pairs.
const maxPeople = 1000

// maxJobIterations caps how long a single background job may be asked to run.
const maxJobIterations = 100000

// APIHandlers holds the dependencies for the REST API endpoints.
type APIHandlers struct {
	store   storage.GraphStore
	engine  *engine.Engine
	manager *engine.JobManager
	cfg     *config.Config
}

// NewAPIHandlers creates the API handler set.
func NewAPIHandlers(store storage.GraphStore, eng *engine.Engine, manager *engine.JobManager, cfg *config.Config) *APIHandlers {
	return &APIHandlers{store: store, engine: eng, manager: manager, cfg: cfg}
}

// Initialize handles POST /api/initialize - discard the current graph and
// build a fresh random one. Rejected with 409 while a simulation job runs.
func (h *APIHandlers) Initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.NumPeople < 3 || req.NumPeople > maxPeople {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("num_people must be between 3 and %d", maxPeople), nil)
		return
	}
	if req.PositiveProbability < 0 || req.NegativeProbability < 0 ||
		req.PositiveProbability+req.NegativeProbability > 1 {
		respondError(w, http.StatusBadRequest,
			"probabilities must be non-negative and sum to at most 1", nil)
		return
	}

	var stats types.GraphStats
	err := h.manager.Exclusive(func() error {
		var err error
		stats, err = h.engine.InitializeRandomGraph(r.Context(),
			req.NumPeople, req.PositiveProbability, req.NegativeProbability)
		return err
	})
	if err != nil {
		if errors.Is(err, engine.ErrJobConflict) {
			respondError(w, http.StatusConflict, "a simulation job is running", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to initialize graph", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Iterate handles POST /api/iterate - run a single iteration of the
// balance process in the foreground.
func (h *APIHandlers) Iterate(w http.ResponseWriter, r *http.Request) {
	var req IterateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ActionProbability < 0 || req.ActionProbability > 1 {
		respondError(w, http.StatusBadRequest, "action_probability must be in [0, 1]", nil)
		return
	}

	var result types.IterationResult
	err := h.manager.Exclusive(func() error {
		var err error
		result, err = h.engine.RunIteration(r.Context(), req.ActionProbability)
		return err
	})
	if err != nil {
		if errors.Is(err, engine.ErrJobConflict) {
			respondError(w, http.StatusConflict, "a simulation job is running", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "iteration failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// StartSimulation handles POST /api/simulate/start - launch a background
// simulation job. Returns 202 with the job snapshot.
func (h *APIHandlers) StartSimulation(w http.ResponseWriter, r *http.Request) {
	var req StartSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.MaxIterations > maxJobIterations {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("max_iterations must not exceed %d", maxJobIterations), nil)
		return
	}

	snap, err := h.manager.Start(req.MaxIterations, req.ActionProbability)
	if err != nil {
		if errors.Is(err, engine.ErrJobConflict) {
			respondError(w, http.StatusConflict, "a simulation job is already running", err)
			return
		}
		respondError(w, http.StatusBadRequest, "invalid simulation parameters", err)
		return
	}
	respondJSON(w, http.StatusAccepted, snap)
}

// SimulationStatus handles GET /api/simulate/status/{id}.
func (h *APIHandlers) SimulationStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := h.manager.Status(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "unknown job", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// StopSimulation handles POST /api/simulate/stop/{id}. Cancellation is
// observed at the next iteration boundary, so the returned snapshot may
// still show the job running.
func (h *APIHandlers) StopSimulation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := h.manager.Stop(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "unknown job", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Reset handles POST /api/reset - clear the graph and drop finished job
// records.
func (h *APIHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	err := h.manager.Exclusive(func() error {
		return h.engine.Reset(r.Context())
	})
	if err != nil {
		if errors.Is(err, engine.ErrJobConflict) {
			respondError(w, http.StatusConflict, "a simulation job is running", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to reset graph", err)
		return
	}
	h.manager.PruneTerminal()
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Stats handles GET /api/stats - a full-scan snapshot of the graph.
func (h *APIHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Statistics(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute statistics", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Graph handles GET /api/graph - the full graph with per-node balance
// status, in a shape directly consumable by force-directed renderers.
func (h *APIHandlers) Graph(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.engine.NodeStatuses(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to classify nodes", err)
		return
	}
	people, err := h.store.People(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list people", err)
		return
	}
	rels, err := h.store.AllRelationships(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list relationships", err)
		return
	}

	resp := GraphResponse{
		Nodes: make([]GraphNode, 0, len(people)),
		Links: make([]GraphLink, 0, len(rels)),
	}
	for _, id := range people {
		resp.Nodes = append(resp.Nodes, GraphNode{ID: id, Status: statuses[id]})
	}
	for _, rel := range rels {
		resp.Links = append(resp.Links, GraphLink{
			Source:       rel.Person1,
			Target:       rel.Person2,
			Value:        rel.Value,
			Sign:         rel.Sign,
			InitialValue: rel.InitialValue,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetConfig handles GET /api/config - the active preset and runtime
// settings.
func (h *APIHandlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	comps := h.engine.Components()
	respondJSON(w, http.StatusOK, ConfigResponse{
		Preset:            comps.Preset,
		Components:        comps.Describe(),
		StorageEngine:     h.cfg.Storage.StorageEngine,
		JobTimeoutSeconds: h.cfg.Simulation.JobTimeout.Seconds(),
		StatsInterval:     h.cfg.Simulation.StatsInterval,
	})
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing more to do than note it.
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}
