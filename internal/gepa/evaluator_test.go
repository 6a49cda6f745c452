package gepa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTools() []Tool {
	return []Tool{
		{ID: "t1", Name: "search_web", Description: "Searches the public web for a query."},
		{ID: "t2", Name: "get_weather", Description: "Reports current weather for a location."},
	}
}

func TestEvaluator_Evaluate_ComputesAccuracy(t *testing.T) {
	gw := newFakeGateway(map[string]string{
		"what's the weather in Tokyo?": "get_weather",
		"search for golang tutorials":  "search_web",
		"unanswerable query":           "", // no selection
	})
	ev := NewEvaluator(gw, NewSemaphore(4), NoopEmitter)

	cases := []TestCase{
		{ID: "tc1", Query: "what's the weather in Tokyo?", ExpectedToolName: "get_weather"},
		{ID: "tc2", Query: "search for golang tutorials", ExpectedToolName: "search_web"},
		{ID: "tc3", Query: "unanswerable query", ExpectedToolName: "get_weather"},
	}

	candidate := Candidate{ID: "cand_1", Tools: sampleTools()}
	ec, err := ev.Evaluate(context.Background(), candidate, "gpt-test", cases)
	require.NoError(t, err)
	require.InDelta(t, 2.0/3.0, ec.Accuracy, 1e-9)
	require.Len(t, ec.Evaluations, 3)

	r, ok := ec.ResultFor("tc3")
	require.True(t, ok)
	require.False(t, r.Correct)
	require.Empty(t, r.SelectedToolName)
}

func TestEvaluator_Evaluate_GatewayFailureDegradesToIncorrect(t *testing.T) {
	gw := newFakeGateway(nil)
	gw.failToolSelection = true
	ev := NewEvaluator(gw, NewSemaphore(2), NoopEmitter)

	cases := []TestCase{{ID: "tc1", Query: "anything", ExpectedToolName: "search_web"}}
	candidate := Candidate{ID: "cand_1", Tools: sampleTools()}

	ec, err := ev.Evaluate(context.Background(), candidate, "gpt-test", cases)
	require.NoError(t, err, "gateway failures degrade, never propagate as an error")
	require.Equal(t, 0.0, ec.Accuracy)
}

func TestEvaluator_EvaluateSubsample_NeverExceedsTestCaseCount(t *testing.T) {
	gw := newFakeGateway(map[string]string{"q1": "search_web", "q2": "search_web", "q3": "search_web"})
	ev := NewEvaluator(gw, NewSemaphore(4), NoopEmitter)

	cases := []TestCase{
		{ID: "tc1", Query: "q1", ExpectedToolName: "search_web"},
		{ID: "tc2", Query: "q2", ExpectedToolName: "search_web"},
		{ID: "tc3", Query: "q3", ExpectedToolName: "search_web"},
	}
	candidate := Candidate{ID: "cand_1", Tools: sampleTools()}
	rng := NewRand(1)

	_, subset, err := ev.EvaluateSubsample(context.Background(), candidate, "gpt-test", cases, 10, rng)
	require.NoError(t, err)
	require.Len(t, subset, 3, "subsample size clamps to |test_cases| when the requested size is larger")
}

func TestParentSubsampleScore_ReadsCachedResultsWithoutReEvaluating(t *testing.T) {
	parent := NewEvaluatedCandidate(Candidate{ID: "cand_parent"}, []EvalResult{
		{TestCaseID: "tc1", Correct: true},
		{TestCaseID: "tc2", Correct: false},
		{TestCaseID: "tc3", Correct: true},
	})

	subsample := []TestCase{{ID: "tc1"}, {ID: "tc2"}}
	score := ParentSubsampleScore(parent, subsample)
	require.Equal(t, 0.5, score)
}
