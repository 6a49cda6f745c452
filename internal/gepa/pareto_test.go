package gepa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func evaluatedFixture(id string, avgLen float64, results ...EvalResult) EvaluatedCandidate {
	c := Candidate{ID: id}
	ec := NewEvaluatedCandidate(c, results)
	ec.AvgDescriptionLen = avgLen
	return ec
}

func TestDominates_CorrectnessBeatsIncorrect(t *testing.T) {
	require.True(t, dominates(true, 50, false, 10))
	require.False(t, dominates(false, 10, true, 50))
}

func TestDominates_ShorterWinsAmongEquallyCorrect(t *testing.T) {
	require.True(t, dominates(true, 40, true, 60))
	require.False(t, dominates(true, 60, true, 40))
}

func TestDominates_TiesNeitherDominates(t *testing.T) {
	require.False(t, dominates(true, 50, true, 50))
	require.False(t, dominates(false, 10, false, 90))
}

func TestPerTaskPareto_UpdateInsertsFirstCandidate(t *testing.T) {
	archive := NewArchive()
	p := NewPerTaskPareto()
	p.SetLookup(archive.Get)

	a := evaluatedFixture("cand_a", 20, EvalResult{TestCaseID: "tc1", Correct: true})
	archive.Add(a, "")
	p.Update(a)

	require.True(t, p.IsOnAnyFront("cand_a"))
	require.Equal(t, 1, p.DominanceCount("cand_a"))
	require.ElementsMatch(t, []string{"cand_a"}, p.TaskFront("tc1"))
}

func TestPerTaskPareto_DominatedCandidateNeverJoinsFront(t *testing.T) {
	archive := NewArchive()
	p := NewPerTaskPareto()
	p.SetLookup(archive.Get)

	a := evaluatedFixture("cand_a", 20, EvalResult{TestCaseID: "tc1", Correct: true})
	archive.Add(a, "")
	p.Update(a)

	// Same correctness, longer description: strictly dominated.
	b := evaluatedFixture("cand_b", 50, EvalResult{TestCaseID: "tc1", Correct: true})
	archive.Add(b, "cand_a")
	p.Update(b)

	require.False(t, p.IsOnAnyFront("cand_b"))
	require.ElementsMatch(t, []string{"cand_a"}, p.TaskFront("tc1"))
}

func TestPerTaskPareto_BetterCandidateEvictsDominated(t *testing.T) {
	archive := NewArchive()
	p := NewPerTaskPareto()
	p.SetLookup(archive.Get)

	a := evaluatedFixture("cand_a", 50, EvalResult{TestCaseID: "tc1", Correct: true})
	archive.Add(a, "")
	p.Update(a)

	b := evaluatedFixture("cand_b", 20, EvalResult{TestCaseID: "tc1", Correct: true})
	archive.Add(b, "cand_a")
	p.Update(b)

	require.False(t, p.IsOnAnyFront("cand_a"), "evicted from its only front")
	require.Equal(t, 0, p.DominanceCount("cand_a"))
	require.True(t, p.IsOnAnyFront("cand_b"))
	require.ElementsMatch(t, []string{"cand_b"}, p.TaskFront("tc1"))
}

// TestPerTaskPareto_NonDominatingCandidatesCoexist covers two candidates
// that are each correct on a disjoint test case neither dominates on:
// both must survive on their respective fronts.
func TestPerTaskPareto_NonDominatingCandidatesCoexist(t *testing.T) {
	archive := NewArchive()
	p := NewPerTaskPareto()
	p.SetLookup(archive.Get)

	a := evaluatedFixture("cand_a", 30,
		EvalResult{TestCaseID: "tc1", Correct: true},
		EvalResult{TestCaseID: "tc2", Correct: false},
	)
	archive.Add(a, "")
	p.Update(a)

	b := evaluatedFixture("cand_b", 30,
		EvalResult{TestCaseID: "tc1", Correct: false},
		EvalResult{TestCaseID: "tc2", Correct: true},
	)
	archive.Add(b, "")
	p.Update(b)

	require.True(t, p.IsOnAnyFront("cand_a"))
	require.True(t, p.IsOnAnyFront("cand_b"))
	require.ElementsMatch(t, []string{"cand_a"}, p.TaskFront("tc1"))
	require.ElementsMatch(t, []string{"cand_b"}, p.TaskFront("tc2"))
	require.Equal(t, 1, p.DominanceCount("cand_a"))
	require.Equal(t, 1, p.DominanceCount("cand_b"))
}

func TestPerTaskPareto_DominanceCountSpansMultipleFronts(t *testing.T) {
	archive := NewArchive()
	p := NewPerTaskPareto()
	p.SetLookup(archive.Get)

	a := evaluatedFixture("cand_a", 10,
		EvalResult{TestCaseID: "tc1", Correct: true},
		EvalResult{TestCaseID: "tc2", Correct: true},
		EvalResult{TestCaseID: "tc3", Correct: true},
	)
	archive.Add(a, "")
	p.Update(a)

	require.Equal(t, 3, p.DominanceCount("cand_a"))
}
