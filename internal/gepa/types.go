// Package gepa implements the Genetic-Pareto search engine that optimizes
// natural-language tool descriptions for LLM tool-selection accuracy.
package gepa

import "time"

// Tool is a named callable presented to an LLM. Description is the only
// field the search engine ever mutates.
type Tool struct {
	ID          string
	Name        string
	Description string
	InputSchema map[string]any
	ServerID    string
}

// TestCase is a single labelled query. Immutable for the duration of a run.
type TestCase struct {
	ID               string
	Query            string
	ExpectedToolName string
}

// Candidate is one assignment of descriptions to the fixed tool inventory.
// Two candidates differ only in the Description field of their Tools.
// Immutable once constructed.
type Candidate struct {
	ID    string
	Tools []Tool
}

// ToolByName returns the tool with the given name, or false if absent.
func (c Candidate) ToolByName(name string) (Tool, bool) {
	for _, t := range c.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// AvgDescriptionLength is the mean description length across the candidate's
// tools, the whole-candidate conciseness signal used by dominance checks.
func (c Candidate) AvgDescriptionLength() float64 {
	if len(c.Tools) == 0 {
		return 0
	}
	total := 0
	for _, t := range c.Tools {
		total += len(t.Description)
	}
	return float64(total) / float64(len(c.Tools))
}

// EvalResult records the outcome of running one candidate against one
// test case.
type EvalResult struct {
	TestCaseID       string
	SelectedToolName string // empty string means "null" (no selection)
	ExpectedToolName string
	Correct          bool
}

// EvaluatedCandidate is a Candidate plus its scored outcome against some
// set of test cases.
type EvaluatedCandidate struct {
	Candidate           Candidate
	Accuracy            float64
	AvgDescriptionLen   float64
	Evaluations         []EvalResult
	evalByTestCase      map[string]EvalResult
}

// NewEvaluatedCandidate builds an EvaluatedCandidate from raw results,
// computing accuracy and average description length.
func NewEvaluatedCandidate(c Candidate, results []EvalResult) EvaluatedCandidate {
	correct := 0
	byTC := make(map[string]EvalResult, len(results))
	for _, r := range results {
		if r.Correct {
			correct++
		}
		byTC[r.TestCaseID] = r
	}
	accuracy := 0.0
	if len(results) > 0 {
		accuracy = float64(correct) / float64(len(results))
	}
	return EvaluatedCandidate{
		Candidate:         c,
		Accuracy:          accuracy,
		AvgDescriptionLen: c.AvgDescriptionLength(),
		Evaluations:       results,
		evalByTestCase:    byTC,
	}
}

// ResultFor returns the cached EvalResult for a test case, if present.
// Used to read the parent's cached subsample score without re-evaluating.
func (ec EvaluatedCandidate) ResultFor(testCaseID string) (EvalResult, bool) {
	r, ok := ec.evalByTestCase[testCaseID]
	return r, ok
}

// SelectionPolicy chooses how select_parent weighs candidates.
type SelectionPolicy string

const (
	SelectionDominance   SelectionPolicy = "dominance"
	SelectionGlobalScore SelectionPolicy = "global_score"
)

// RunConfig holds the Scheduler's recognized configuration options.
type RunConfig struct {
	MaxEvaluations           int
	SubsampleSize            int
	MaxConcurrentEvaluations int
	EvaluationModel          string
	GenerationModel          string
	MinAccuracy              float64
	AccuracyWeight           float64
	SelectionTemperature     float64
	SelectionPolicy          SelectionPolicy
	Seed                     int64
}

// DefaultRunConfig returns the documented default configuration.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		MaxEvaluations:           500,
		SubsampleSize:            5,
		MaxConcurrentEvaluations: 3,
		MinAccuracy:              0,
		AccuracyWeight:           0.5,
		SelectionTemperature:     1.0,
		SelectionPolicy:          SelectionGlobalScore,
	}
}

// Validate checks the configuration for the invalid ranges that classify
// as a ConfigError.
func (c RunConfig) Validate() error {
	if c.MaxEvaluations < 1 {
		return NewConfigError("max_evaluations must be >= 1")
	}
	if c.SubsampleSize < 1 {
		return NewConfigError("subsample_size must be >= 1")
	}
	if c.MaxConcurrentEvaluations < 1 {
		return NewConfigError("max_concurrent_evaluations must be >= 1")
	}
	if c.MinAccuracy < 0 || c.MinAccuracy > 1 {
		return NewConfigError("min_accuracy must be in [0,1]")
	}
	if c.AccuracyWeight < 0 || c.AccuracyWeight > 1 {
		return NewConfigError("accuracy_weight must be in [0,1]")
	}
	if c.SelectionTemperature <= 0 {
		return NewConfigError("selection_temperature must be > 0")
	}
	switch c.SelectionPolicy {
	case SelectionDominance, SelectionGlobalScore, "":
	default:
		return NewConfigError("unknown selection_policy: " + string(c.SelectionPolicy))
	}
	return nil
}

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is the top-level record of one optimization execution.
type Run struct {
	ID             string
	StartedAt      time.Time
	Status         RunStatus
	Config         RunConfig
	MaxEvaluations int
	SubsampleSize  int
	BudgetConsumed int
}
