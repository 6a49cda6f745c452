package gepa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArchive_AddAndGet(t *testing.T) {
	a := NewArchive()
	require.Equal(t, 0, a.Size())

	c := Candidate{ID: "cand_1", Tools: []Tool{{Name: "search", Description: "finds things"}}}
	ec := NewEvaluatedCandidate(c, []EvalResult{{TestCaseID: "tc1", Correct: true, ExpectedToolName: "search", SelectedToolName: "search"}})
	a.Add(ec, "")

	require.Equal(t, 1, a.Size())
	got, ok := a.Get("cand_1")
	require.True(t, ok)
	require.Equal(t, 1.0, got.Accuracy)

	_, ok = a.Get("missing")
	require.False(t, ok)
}

func TestArchive_ParentOf(t *testing.T) {
	a := NewArchive()
	baseline := NewEvaluatedCandidate(Candidate{ID: "cand_base"}, nil)
	a.Add(baseline, "")

	child := NewEvaluatedCandidate(Candidate{ID: "cand_child"}, nil)
	a.Add(child, "cand_base")

	_, ok := a.ParentOf("cand_base")
	require.False(t, ok, "baseline has no recorded parent")

	parent, ok := a.ParentOf("cand_child")
	require.True(t, ok)
	require.Equal(t, "cand_base", parent)
}

func TestArchive_AllPreservesInsertionOrder(t *testing.T) {
	a := NewArchive()
	for _, id := range []string{"cand_a", "cand_b", "cand_c"} {
		a.Add(NewEvaluatedCandidate(Candidate{ID: id}, nil), "")
	}

	all := a.All()
	require.Len(t, all, 3)
	require.Equal(t, "cand_a", all[0].Candidate.ID)
	require.Equal(t, "cand_b", all[1].Candidate.ID)
	require.Equal(t, "cand_c", all[2].Candidate.ID)
}

func TestArchive_MaxAvgDescriptionLen(t *testing.T) {
	a := NewArchive()
	require.Equal(t, 0.0, a.MaxAvgDescriptionLen(), "empty archive reports 0")

	short := Candidate{ID: "cand_short", Tools: []Tool{{Name: "t", Description: "abc"}}}
	long := Candidate{ID: "cand_long", Tools: []Tool{{Name: "t", Description: "abcdefghij"}}}
	a.Add(NewEvaluatedCandidate(short, nil), "")
	a.Add(NewEvaluatedCandidate(long, nil), "")

	require.Equal(t, 10.0, a.MaxAvgDescriptionLen())
}

func TestArchive_NeverEvicts(t *testing.T) {
	// Archive is append-only per spec; re-adding a worse candidate under
	// a new id must not remove the earlier one.
	a := NewArchive()
	a.Add(NewEvaluatedCandidate(Candidate{ID: "cand_1"}, []EvalResult{{TestCaseID: "tc1", Correct: true}}), "")
	a.Add(NewEvaluatedCandidate(Candidate{ID: "cand_2"}, []EvalResult{{TestCaseID: "tc1", Correct: false}}), "cand_1")

	require.Equal(t, 2, a.Size())
	_, ok := a.Get("cand_1")
	require.True(t, ok)
}
