package gepa

import "math"

// SelectParent implements the select_parent operation for both
// configured policies. Returns false if the archive is empty.
func SelectParent(archive *Archive, pareto *PerTaskPareto, cfg RunConfig, rng *Rand) (EvaluatedCandidate, bool) {
	switch cfg.SelectionPolicy {
	case SelectionDominance:
		return selectDominanceWeighted(archive, pareto, cfg, rng)
	default:
		return selectGlobalScoreWeighted(archive, cfg, rng)
	}
}

func temperatureFloor(t float64) float64 {
	return math.Max(0.1, t)
}

func selectDominanceWeighted(archive *Archive, pareto *PerTaskPareto, cfg RunConfig, rng *Rand) (EvaluatedCandidate, bool) {
	all := archive.All()
	if len(all) == 0 {
		return EvaluatedCandidate{}, false
	}

	counts := pareto.AllDominanceCounts()
	T := temperatureFloor(cfg.SelectionTemperature)

	var candidates []EvaluatedCandidate
	var weights []float64
	for _, ec := range all {
		if c := counts[ec.Candidate.ID]; c > 0 {
			candidates = append(candidates, ec)
			weights = append(weights, math.Exp(float64(c)/T))
		}
	}
	if len(candidates) == 0 {
		// No candidate has positive dominance count yet: uniform over
		// the archive.
		idx := rng.Intn(len(all))
		return all[idx], true
	}
	idx := rng.WeightedChoice(weights)
	if idx < 0 {
		idx = rng.Intn(len(candidates))
	}
	return candidates[idx], true
}

func selectGlobalScoreWeighted(archive *Archive, cfg RunConfig, rng *Rand) (EvaluatedCandidate, bool) {
	all := archive.All()
	if len(all) == 0 {
		return EvaluatedCandidate{}, false
	}

	maxLen := archive.MaxAvgDescriptionLen()
	T := temperatureFloor(cfg.SelectionTemperature)

	pool := filterByMinAccuracy(all, cfg.MinAccuracy)
	if len(pool) == 0 {
		pool = all
	}

	weights := make([]float64, len(pool))
	for i, ec := range pool {
		weights[i] = math.Exp(GlobalScore(ec, cfg.AccuracyWeight, maxLen) / T)
	}
	idx := rng.WeightedChoice(weights)
	if idx < 0 {
		idx = rng.Intn(len(pool))
	}
	return pool[idx], true
}

func filterByMinAccuracy(all []EvaluatedCandidate, minAccuracy float64) []EvaluatedCandidate {
	if minAccuracy <= 0 {
		return all
	}
	out := make([]EvaluatedCandidate, 0, len(all))
	for _, ec := range all {
		if ec.Accuracy >= minAccuracy {
			out = append(out, ec)
		}
	}
	return out
}

// Conciseness is clamp(1 - avg_len/max_avg_len, 0, 1), the global-score
// mixing term's second component.
func Conciseness(ec EvaluatedCandidate, maxAvgLen float64) float64 {
	if maxAvgLen <= 0 {
		return 1
	}
	c := 1 - ec.AvgDescriptionLen/maxAvgLen
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// GlobalScore computes accuracy*alpha + conciseness*(1-alpha).
func GlobalScore(ec EvaluatedCandidate, alpha, maxAvgLen float64) float64 {
	return ec.Accuracy*alpha + Conciseness(ec, maxAvgLen)*(1-alpha)
}
