// Package types defines the core data structures for the Triad social
// balance simulator: signed relationships, derived triangles, graph
// statistics, and simulation job records.
package types

// Sign classifies a relationship value as positive, negative, or neutral.
// Neutral is a classification only: a neutral relationship is represented
// by the absence of a stored record, never by a persisted row.
type Sign string

const (
	// SignPositive indicates friendship/closeness.
	SignPositive Sign = "POSITIVE"

	// SignNegative indicates enmity/distance.
	SignNegative Sign = "NEGATIVE"

	// SignNeutral indicates no relationship. Never stored.
	SignNeutral Sign = "NEUTRAL"
)

// Verdict is the three-way balance classification of a triangle.
type Verdict string

const (
	// VerdictBalanced indicates the triangle satisfies the active balance rule.
	VerdictBalanced Verdict = "balanced"

	// VerdictUnbalanced indicates the triangle violates the active balance rule.
	VerdictUnbalanced Verdict = "unbalanced"

	// VerdictIncomplete indicates fewer than three non-neutral edges;
	// incomplete triangles are excluded from balance accounting.
	VerdictIncomplete Verdict = "incomplete"
)

// Person is a node in the relationship graph. Persons carry no mutable
// state of their own; all simulation state lives on the edges.
type Person struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Relationship is a signed/valued edge between two persons. The pair is
// unordered; stores keep it canonical with Person1 < Person2. InitialValue
// is the value the edge held when it was first created and is preserved
// across updates so the total compromise of a run can be reported.
type Relationship struct {
	Person1      int     `json:"person1"`
	Person2      int     `json:"person2"`
	Value        float64 `json:"value"`
	Sign         Sign    `json:"sign"`
	InitialValue float64 `json:"initial_value"`
}

// Triangle is a derived view of three pairwise relationships. It is
// computed on demand from the store and never persisted. Edge values are
// laid out cyclically: E1 connects N1-N2, E2 connects N2-N3, E3 connects
// N3-N1.
type Triangle struct {
	N1 int     `json:"n1"`
	N2 int     `json:"n2"`
	N3 int     `json:"n3"`
	E1 float64 `json:"e1"`
	E2 float64 `json:"e2"`
	E3 float64 `json:"e3"`
}

// TriangleAround orients the triangle {a, b, c} (a < b < c, with edge
// values vab, vbc, vac) so that person p occupies the N1 slot and the
// remaining two members keep ascending order. The cyclic edge layout of
// Triangle is preserved, which is what lets an action strategy address
// "one of my triangle's three edges" without caring how the store
// enumerated it.
func TriangleAround(p, a, b, c int, vab, vbc, vac float64) Triangle {
	switch p {
	case a:
		return Triangle{N1: a, N2: b, N3: c, E1: vab, E2: vbc, E3: vac}
	case b:
		return Triangle{N1: b, N2: a, N3: c, E1: vab, E2: vac, E3: vbc}
	default:
		return Triangle{N1: c, N2: a, N3: b, E1: vac, E2: vab, E3: vbc}
	}
}

// Edges returns the three edges of the triangle as (person, person, value)
// triples, in the cyclic order N1-N2, N2-N3, N3-N1.
func (t Triangle) Edges() [3]Edge {
	return [3]Edge{
		{t.N1, t.N2, t.E1},
		{t.N2, t.N3, t.E2},
		{t.N3, t.N1, t.E3},
	}
}

// Edge is one side of a triangle.
type Edge struct {
	Person1 int
	Person2 int
	Value   float64
}

// GraphStats is a snapshot of the graph taken by a full scan: person and
// relationship counts plus triangle balance accounting.
type GraphStats struct {
	NumPeople           int          `json:"num_people"`
	Relationships       map[Sign]int `json:"relationships"`
	TotalTriangles      int          `json:"total_triangles"`
	BalancedTriangles   int          `json:"balanced_triangles"`
	UnbalancedTriangles int          `json:"unbalanced_triangles"`
	BalanceRatio        float64      `json:"balance_ratio"`
}

// Change records one mutation a person made during an iteration.
type Change struct {
	Kind     string  `json:"kind"` // "modify_edge", "create_edge", "delete_edge"
	Person1  int     `json:"person1"`
	Person2  int     `json:"person2"`
	OldValue float64 `json:"old_value,omitempty"`
	NewValue float64 `json:"new_value,omitempty"`
}

// IterationResult reports what one iteration of the balance process did.
type IterationResult struct {
	ChangesMade int        `json:"changes_made"`
	Changes     []Change   `json:"changes"`
	Stats       GraphStats `json:"stats"`
}

// JobStatus is the lifecycle state of a simulation job. The terminal
// states (completed, stopped, timed_out, errored) are final and immutable.
type JobStatus string

const (
	// JobPending indicates the job record exists but the run loop has not
	// begun executing yet.
	JobPending JobStatus = "pending"

	// JobRunning indicates the run loop is executing iterations.
	JobRunning JobStatus = "running"

	// JobCompleted indicates the run loop finished on its own; the result's
	// Outcome distinguishes converged, stabilized, and exhausted runs.
	JobCompleted JobStatus = "completed"

	// JobStopped indicates a stop request was observed at an iteration
	// boundary.
	JobStopped JobStatus = "stopped"

	// JobTimedOut indicates the wall-clock bound elapsed before the run
	// reached a terminal state.
	JobTimedOut JobStatus = "timed_out"

	// JobErrored indicates a persistent store or strategy failure aborted
	// the run.
	JobErrored JobStatus = "errored"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobStopped, JobTimedOut, JobErrored:
		return true
	}
	return false
}

// RunOutcome distinguishes how a completed run ended.
type RunOutcome string

const (
	// OutcomeConverged means a global scan found zero unbalanced triangles.
	OutcomeConverged RunOutcome = "converged"

	// OutcomeStabilized means an iteration made zero changes without the
	// graph being provably balanced (e.g. everyone satisfied while
	// incomplete triangles remain irrelevant to balance).
	OutcomeStabilized RunOutcome = "stabilized"

	// OutcomeExhausted means the iteration limit was reached.
	OutcomeExhausted RunOutcome = "exhausted"
)

// RunResult is the terminal result of a finished simulation run.
type RunResult struct {
	Iterations int        `json:"iterations"`
	Outcome    RunOutcome `json:"outcome,omitempty"`
	Converged  bool       `json:"converged"`
	FinalStats GraphStats `json:"final_stats"`
}

// JobSnapshot is the pollable view of a simulation job. CurrentStats is
// refreshed on a fixed cadence (not every iteration) while the job runs;
// Result is set only once the job reaches a terminal state.
type JobSnapshot struct {
	ID                string      `json:"id"`
	Status            JobStatus   `json:"status"`
	CurrentIteration  int         `json:"current_iteration"`
	MaxIterations     int         `json:"max_iterations"`
	ActionProbability float64     `json:"action_probability"`
	CurrentStats      *GraphStats `json:"current_stats,omitempty"`
	Result            *RunResult  `json:"result,omitempty"`
	Error             string      `json:"error,omitempty"`
}
