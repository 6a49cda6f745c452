package gepa

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Evaluator runs candidates against test cases through an LLMGateway,
// fanning out one goroutine per test case under a shared concurrency
// gate, using errgroup.WithContext for per-test-case parallel
// evaluation with first-error cancellation.
type Evaluator struct {
	gateway LLMGateway
	gate    *Semaphore
	emitter Emitter
}

// NewEvaluator constructs an Evaluator sharing the given gateway,
// concurrency gate, and progress emitter.
func NewEvaluator(gateway LLMGateway, gate *Semaphore, emitter Emitter) *Evaluator {
	if emitter == nil {
		emitter = NoopEmitter
	}
	return &Evaluator{gateway: gateway, gate: gate, emitter: emitter}
}

// Evaluate runs evaluate_candidate over the given test cases. A
// null selection or a gateway error yields correct=false; it never
// raises. Emits an `evaluation` event per test case.
func (e *Evaluator) Evaluate(ctx context.Context, candidate Candidate, model string, testCases []TestCase) (EvaluatedCandidate, error) {
	results := make([]EvalResult, len(testCases))

	g, gctx := errgroup.WithContext(ctx)
	for i, tc := range testCases {
		i, tc := i, tc
		g.Go(func() (err error) {
			// A panic here would otherwise crash the whole process: it
			// runs on its own goroutine, outside the reach of any
			// recover() in the caller's call stack.
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("evaluating test case %s: %v", tc.ID, r)
				}
			}()
			result := e.evalOne(gctx, candidate, model, tc)
			results[i] = result
			e.emitter.Emit(newEvent(EventEvaluation, map[string]any{
				"candidate_id": candidate.ID,
				"test_case":    tc.ID,
				"result": EvalResultPayload{
					Correct:  result.Correct,
					Selected: result.SelectedToolName,
					Expected: result.ExpectedToolName,
				},
			}))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EvaluatedCandidate{}, NewInternalError("evaluation fan-out failed", err)
	}

	return NewEvaluatedCandidate(candidate, results), nil
}

// EvaluateSubsample evaluates a uniformly sampled subset of test cases of
// size min(subsampleSize, |test_cases|), drawn without replacement, and
// returns the EvaluatedCandidate for that subsample (its Accuracy is the
// subsample score) plus the sampled test cases (used by the Scheduler to
// compare against the parent's cached score for the same test cases).
func (e *Evaluator) EvaluateSubsample(ctx context.Context, candidate Candidate, model string, testCases []TestCase, subsampleSize int, rng *Rand) (EvaluatedCandidate, []TestCase, error) {
	n := subsampleSize
	if n > len(testCases) {
		n = len(testCases)
	}
	idx := rng.SampleIndices(len(testCases), n)
	subset := make([]TestCase, len(idx))
	for i, j := range idx {
		subset[i] = testCases[j]
	}
	ec, err := e.Evaluate(ctx, candidate, model, subset)
	return ec, subset, err
}

// evalOne runs tool_selection for a single test case under the
// concurrency gate. Never returns an error: gateway failures degrade to
// a null selection instead of propagating.
func (e *Evaluator) evalOne(ctx context.Context, candidate Candidate, model string, tc TestCase) EvalResult {
	if err := e.gate.Acquire(ctx); err != nil {
		return EvalResult{TestCaseID: tc.ID, ExpectedToolName: tc.ExpectedToolName, Correct: false}
	}
	defer e.gate.Release()

	res, err := e.gateway.ToolSelection(ctx, model, tc.Query, candidate.Tools)
	if err != nil {
		return EvalResult{TestCaseID: tc.ID, ExpectedToolName: tc.ExpectedToolName, Correct: false}
	}
	correct := res.SelectedToolName != "" && res.SelectedToolName == tc.ExpectedToolName
	return EvalResult{
		TestCaseID:       tc.ID,
		SelectedToolName: res.SelectedToolName,
		ExpectedToolName: tc.ExpectedToolName,
		Correct:          correct,
	}
}

// ParentSubsampleScore reads the parent's cached per-test results for the
// given subsample rather than re-evaluating the parent.
func ParentSubsampleScore(parent EvaluatedCandidate, subsample []TestCase) float64 {
	if len(subsample) == 0 {
		return 0
	}
	correct := 0
	for _, tc := range subsample {
		if r, ok := parent.ResultFor(tc.ID); ok && r.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(subsample))
}
