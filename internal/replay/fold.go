// Package replay reconstructs an archive snapshot from a stored event log
// as a pure function: replay is a fold over the event list, independent
// of how that list was persisted.
package replay

import (
	"github.com/longregen/gepa-optimize/internal/events"
	"github.com/longregen/gepa-optimize/internal/gepa"
)

// CandidateSnapshot is the replay-time view of one candidate reported by a
// candidate_done event, accepted or rejected (see Status), reconstructed
// from those events rather than the live Archive type (which is not
// serializable on its own).
type CandidateSnapshot struct {
	CandidateID      string
	ParentID         string
	Accuracy         float64
	AvgLength        float64
	IsPareto         bool
	Status           string
	ToolDescriptions map[string]string
}

// ArchiveSnapshot is the reconstructed state of a run after folding its
// event log.
type ArchiveSnapshot struct {
	RunID          string
	Status         gepa.RunStatus
	BudgetConsumed int
	Accepted       int
	Rejected       int
	Candidates     []CandidateSnapshot
}

// Fold reconstructs an ArchiveSnapshot from a run's ordered event log.
// Pure: the same event slice always produces the same snapshot.
func Fold(envelopes []events.Envelope) ArchiveSnapshot {
	var snap ArchiveSnapshot
	seen := make(map[string]int) // candidate id -> index into snap.Candidates

	for _, env := range envelopes {
		switch env.Type {
		case gepa.EventOptimizationStart:
			snap.RunID, _ = env.Payload["run_id"].(string)
			snap.Status = gepa.RunRunning

		case gepa.EventCandidateDone:
			cs := CandidateSnapshot{
				CandidateID: stringField(env.Payload, "candidate_id"),
				ParentID:    stringField(env.Payload, "parent_id"),
				Accuracy:    floatField(env.Payload, "accuracy"),
				AvgLength:   floatField(env.Payload, "avg_length"),
				IsPareto:    boolField(env.Payload, "is_pareto"),
				Status:      stringField(env.Payload, "status"),
			}
			cs.ToolDescriptions = descriptionsField(env.Payload, "tool_descriptions")
			if idx, ok := seen[cs.CandidateID]; ok {
				snap.Candidates[idx] = cs
			} else {
				seen[cs.CandidateID] = len(snap.Candidates)
				snap.Candidates = append(snap.Candidates, cs)
			}

		case gepa.EventArchiveUpdate:
			snap.BudgetConsumed = intField(env.Payload, "budget_consumed")
			snap.Accepted = intField(env.Payload, "accepted")
			snap.Rejected = intField(env.Payload, "rejected")

		case gepa.EventOptimizationComplete:
			snap.Status = gepa.RunCompleted
			snap.BudgetConsumed = intField(env.Payload, "budget_consumed")
			snap.Accepted = intField(env.Payload, "accepted")
			snap.Rejected = intField(env.Payload, "rejected")

		case gepa.EventError:
			snap.Status = gepa.RunFailed
		}
	}

	return snap
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	// A msgpack round trip decodes small integers into sized types.
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// descriptionsField reads a map[string]string payload field. A round trip
// through msgpack decodes nested maps as map[string]any rather than
// map[string]string, so both shapes are handled — the former for
// envelopes folded in-process, the latter for ones read off disk.
func descriptionsField(m map[string]any, key string) map[string]string {
	switch v := m[key].(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, val := range v {
			s, _ := val.(string)
			out[k] = s
		}
		return out
	default:
		return nil
	}
}
