package gepa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConciseness_ClampsToUnitRange(t *testing.T) {
	require.Equal(t, 1.0, Conciseness(evaluatedFixture("c", 0), 0), "zero max length defaults to full conciseness")
	require.Equal(t, 0.5, Conciseness(evaluatedFixture("c", 50), 100))
	require.Equal(t, 0.0, Conciseness(evaluatedFixture("c", 150), 100), "longer than max clamps to 0")
}

func TestGlobalScore_MixesAccuracyAndConciseness(t *testing.T) {
	ec := evaluatedFixture("c", 50)
	ec.Accuracy = 0.8
	got := GlobalScore(ec, 0.5, 100)
	require.InDelta(t, 0.8*0.5+0.5*0.5, got, 1e-9)
}

func TestSelectParent_EmptyArchiveReturnsFalse(t *testing.T) {
	archive := NewArchive()
	pareto := NewPerTaskPareto()
	pareto.SetLookup(archive.Get)
	rng := NewRand(1)

	_, ok := SelectParent(archive, pareto, DefaultRunConfig(), rng)
	require.False(t, ok)
}

func TestSelectParent_GlobalScorePrefersMinAccuracyFloor(t *testing.T) {
	archive := NewArchive()
	pareto := NewPerTaskPareto()
	pareto.SetLookup(archive.Get)

	below := evaluatedFixture("cand_below", 10)
	below.Accuracy = 0.1
	above := evaluatedFixture("cand_above", 10)
	above.Accuracy = 0.9
	archive.Add(below, "")
	archive.Add(above, "")

	cfg := DefaultRunConfig()
	cfg.MinAccuracy = 0.5
	cfg.SelectionPolicy = SelectionGlobalScore

	rng := NewRand(42)
	for i := 0; i < 20; i++ {
		ec, ok := SelectParent(archive, pareto, cfg, rng)
		require.True(t, ok)
		require.Equal(t, "cand_above", ec.Candidate.ID, "candidates below the floor must never be selected once any candidate clears it")
	}
}

func TestSelectParent_DominanceWeightedFallsBackToUniformWithNoFronts(t *testing.T) {
	archive := NewArchive()
	pareto := NewPerTaskPareto()
	pareto.SetLookup(archive.Get)

	archive.Add(evaluatedFixture("cand_a", 10), "")
	archive.Add(evaluatedFixture("cand_b", 10), "")

	cfg := DefaultRunConfig()
	cfg.SelectionPolicy = SelectionDominance
	rng := NewRand(7)

	ec, ok := SelectParent(archive, pareto, cfg, rng)
	require.True(t, ok)
	require.Contains(t, []string{"cand_a", "cand_b"}, ec.Candidate.ID)
}

func TestSelectParent_DominanceWeightedOnlyPicksCandidatesOnAFront(t *testing.T) {
	archive := NewArchive()
	pareto := NewPerTaskPareto()
	pareto.SetLookup(archive.Get)

	onFront := evaluatedFixture("cand_front", 10, EvalResult{TestCaseID: "tc1", Correct: true})
	notOnFront := evaluatedFixture("cand_off", 10, EvalResult{TestCaseID: "tc1", Correct: false})
	archive.Add(onFront, "")
	archive.Add(notOnFront, "cand_front")
	pareto.Update(onFront)
	pareto.Update(notOnFront)

	cfg := DefaultRunConfig()
	cfg.SelectionPolicy = SelectionDominance
	rng := NewRand(3)

	for i := 0; i < 10; i++ {
		ec, ok := SelectParent(archive, pareto, cfg, rng)
		require.True(t, ok)
		require.Equal(t, "cand_front", ec.Candidate.ID)
	}
}
