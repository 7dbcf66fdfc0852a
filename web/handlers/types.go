package handlers

import "github.com/scrypster/triad/pkg/types"

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// InitializeRequest is the request body for POST /api/initialize.
type InitializeRequest struct {
	NumPeople           int     `json:"num_people"`
	PositiveProbability float64 `json:"positive_probability"`
	NegativeProbability float64 `json:"negative_probability"`
}

// IterateRequest is the request body for POST /api/iterate.
type IterateRequest struct {
	ActionProbability float64 `json:"action_probability"`
}

// StartSimulationRequest is the request body for POST /api/simulate/start.
type StartSimulationRequest struct {
	MaxIterations     int     `json:"max_iterations"`
	ActionProbability float64 `json:"action_probability"`
}

// GraphNode is one person in the GET /api/graph response, annotated with
// its balance status for display.
type GraphNode struct {
	ID     int    `json:"id"`
	Status string `json:"status"` // balanced, unbalanced, none
}

// GraphLink is one relationship in the GET /api/graph response.
type GraphLink struct {
	Source       int        `json:"source"`
	Target       int        `json:"target"`
	Value        float64    `json:"value"`
	Sign         types.Sign `json:"sign"`
	InitialValue float64    `json:"initial_value"`
}

// GraphResponse is the response format for GET /api/graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// ConfigResponse is the response format for GET /api/config.
type ConfigResponse struct {
	Preset            string            `json:"preset"`
	Components        map[string]string `json:"components"`
	StorageEngine     string            `json:"storage_engine"`
	JobTimeoutSeconds float64           `json:"job_timeout_seconds"`
	StatsInterval     int               `json:"stats_interval"`
}

// ProgressMessage is the envelope broadcast to WebSocket clients while a
// simulation job runs.
type ProgressMessage struct {
	Type string            `json:"type"` // always "job_progress"
	Job  types.JobSnapshot `json:"job"`
}
