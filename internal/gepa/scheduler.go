package gepa

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const acceptanceEpsilon = 1e-3

// Scheduler is the main GEPA loop: select parent, mutate, subsample-
// filter, full-evaluate, archive, emit progress, honor budget and
// cancellation.
type Scheduler struct {
	gateway   LLMGateway
	emitter   Emitter
	cancelled atomic.Bool
}

// NewScheduler constructs a Scheduler over the given gateway, reporting
// progress to emitter (NoopEmitter if nil).
func NewScheduler(gateway LLMGateway, emitter Emitter) *Scheduler {
	if emitter == nil {
		emitter = NoopEmitter
	}
	return &Scheduler{gateway: gateway, emitter: emitter}
}

// Cancel requests cooperative cancellation. Checked at iteration
// boundaries and between subsample/full evaluations; in-flight LLM calls
// finish. The run still completes with status `completed`.
func (s *Scheduler) Cancel() {
	s.cancelled.Store(true)
}

func (s *Scheduler) isCancelled() bool {
	return s.cancelled.Load()
}

// Result is what Run returns: the final Archive, Pareto index, and Run
// record.
type Result struct {
	Archive *Archive
	Pareto  *PerTaskPareto
	Run     Run
}

// Run executes the GEPA loop to completion. tools and testCases must be
// non-empty; an empty test set is a ConfigError raised before any events
// are emitted.
func (s *Scheduler) Run(ctx context.Context, tools []Tool, testCases []TestCase, cfg RunConfig) (result Result, err error) {
	if len(testCases) == 0 {
		return Result{}, NewConfigError("test_cases must be non-empty")
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	archive := NewArchive()
	pareto := NewPerTaskPareto()
	pareto.SetLookup(archive.Get)

	gate := NewSemaphore(cfg.MaxConcurrentEvaluations)
	evaluator := NewEvaluator(s.gateway, gate, s.emitter)
	mutator := NewMutator(s.gateway, gate, s.emitter)
	rng := NewRand(cfg.Seed)

	run := Run{
		ID:             newRunID(),
		StartedAt:      runNow(),
		Status:         RunRunning,
		Config:         cfg,
		MaxEvaluations: cfg.MaxEvaluations,
		SubsampleSize:  cfg.SubsampleSize,
	}

	// A panic from archive/Pareto/scheduler logic is contained here rather
	// than crashing the process: the run is marked failed and an error
	// event is emitted, same as any other InternalError.
	defer func() {
		if r := recover(); r != nil {
			run.Status = RunFailed
			err = NewInternalError(fmt.Sprintf("scheduler panicked: %v", r), nil)
			result = Result{Archive: archive, Pareto: pareto, Run: run}
			s.emitter.Emit(newEvent(EventError, map[string]any{"message": err.Error()}))
		}
	}()

	result, err = s.runLoop(ctx, archive, pareto, evaluator, mutator, rng, tools, testCases, cfg, &run)
	if err != nil {
		run.Status = RunFailed
		s.emitter.Emit(newEvent(EventError, map[string]any{"message": err.Error()}))
		return Result{Archive: archive, Pareto: pareto, Run: run}, err
	}
	return result, nil
}

// runNow is a seam so tests can avoid depending on wall-clock time; real
// runs use the actual current time.
var runNow = func() time.Time { return time.Now() }

func (s *Scheduler) runLoop(ctx context.Context, archive *Archive, pareto *PerTaskPareto, evaluator *Evaluator, mutator *Mutator, rng *Rand, tools []Tool, testCases []TestCase, cfg RunConfig, run *Run) (Result, error) {
	s.emitter.Emit(newEvent(EventOptimizationStart, map[string]any{"run_id": run.ID}))

	baseline := Candidate{ID: newCandidateID(), Tools: tools}
	baselineEC, err := evaluator.Evaluate(ctx, baseline, cfg.EvaluationModel, testCases)
	if err != nil {
		return Result{}, NewInternalError("baseline evaluation failed", err)
	}
	// The baseline is exempt from the min_accuracy insertion floor, which
	// binds offspring only, and always seeds the archive.
	run.BudgetConsumed += len(testCases)
	archive.Add(baselineEC, "")
	pareto.Update(baselineEC)

	accepted := 1
	rejected := 0

	s.emitter.Emit(newEvent(EventCandidateDone, map[string]any{
		"candidate_id":      baseline.ID,
		"tool_descriptions": descriptionsOf(baseline),
		"accuracy":          baselineEC.Accuracy,
		"avg_length":        baselineEC.AvgDescriptionLen,
		"is_pareto":         pareto.IsOnAnyFront(baseline.ID),
		"status":            "accepted",
		"parent_id":         nil,
	}))
	s.emitter.Emit(newEvent(EventArchiveUpdate, map[string]any{
		"archive_size":    archive.Size(),
		"budget_consumed": run.BudgetConsumed,
		"accepted":        accepted,
		"rejected":        rejected,
	}))

	iteration := 0
	for run.BudgetConsumed < cfg.MaxEvaluations && !s.isCancelled() {
		iteration++
		s.emitter.Emit(newEvent(EventIterationStart, map[string]any{
			"iteration":       iteration,
			"budget_consumed": run.BudgetConsumed,
		}))

		parent, ok := SelectParent(archive, pareto, cfg, rng)
		if !ok {
			break
		}
		maxLen := archive.MaxAvgDescriptionLen()
		s.emitter.Emit(newEvent(EventParentSelected, map[string]any{
			"candidate_id": parent.Candidate.ID,
			"iteration":    iteration,
			"global_score": GlobalScore(parent, cfg.AccuracyWeight, maxLen),
		}))

		offspring := mutator.Mutate(ctx, parent, cfg.GenerationModel, testCases, rng)

		if s.isCancelled() {
			break
		}

		subsampleEC, subsample, err := evaluator.EvaluateSubsample(ctx, offspring, cfg.EvaluationModel, testCases, cfg.SubsampleSize, rng)
		if err != nil {
			return Result{}, NewInternalError("subsample evaluation failed", err)
		}
		run.BudgetConsumed += len(subsample)
		parentScore := ParentSubsampleScore(parent, subsample)

		s.emitter.Emit(newEvent(EventSubsampleEval, map[string]any{
			"offspring_id":    offspring.ID,
			"iteration":       iteration,
			"offspring_score": subsampleEC.Accuracy,
			"parent_score":    parentScore,
			"subsample_size":  len(subsample),
		}))

		reason, rejectOffspring := acceptanceReason(subsampleEC.Accuracy, parentScore, cfg.MinAccuracy)
		if rejectOffspring {
			rejected++
			s.emitter.Emit(newEvent(EventCandidateDone, map[string]any{
				"candidate_id":      offspring.ID,
				"iteration":         iteration,
				"tool_descriptions": descriptionsOf(offspring),
				"accuracy":          subsampleEC.Accuracy,
				"avg_length":        subsampleEC.AvgDescriptionLen,
				"is_pareto":         false,
				"status":            "rejected",
				"rejection_reason":  reason,
				"parent_id":         parent.Candidate.ID,
			}))
			s.emitter.Emit(newEvent(EventOffspringRejected, map[string]any{
				"offspring_id": offspring.ID,
				"reason":       reason,
				"iteration":    iteration,
			}))
			s.emitter.Emit(newEvent(EventArchiveUpdate, map[string]any{
				"archive_size":    archive.Size(),
				"budget_consumed": run.BudgetConsumed,
				"accepted":        accepted,
				"rejected":        rejected,
			}))
			s.emitter.Emit(newEvent(EventIterationDone, map[string]any{
				"iteration":       iteration,
				"budget_consumed": run.BudgetConsumed,
				"archive_size":    archive.Size(),
			}))
			continue
		}

		if s.isCancelled() {
			break
		}

		fullEC, err := evaluator.Evaluate(ctx, offspring, cfg.EvaluationModel, testCases)
		if err != nil {
			return Result{}, NewInternalError("full evaluation failed", err)
		}
		run.BudgetConsumed += len(testCases)

		if cfg.MinAccuracy > 0 && fullEC.Accuracy < cfg.MinAccuracy {
			// Never insert a candidate below the floor, even if the
			// cheaper subsample check passed it.
			rejected++
			reason := fmt.Sprintf("full evaluation accuracy %.3f below min_accuracy floor %.3f", fullEC.Accuracy, cfg.MinAccuracy)
			s.emitter.Emit(newEvent(EventCandidateDone, map[string]any{
				"candidate_id":      offspring.ID,
				"iteration":         iteration,
				"tool_descriptions": descriptionsOf(offspring),
				"accuracy":          fullEC.Accuracy,
				"avg_length":        fullEC.AvgDescriptionLen,
				"is_pareto":         false,
				"status":            "rejected",
				"rejection_reason":  reason,
				"parent_id":         parent.Candidate.ID,
			}))
			s.emitter.Emit(newEvent(EventOffspringRejected, map[string]any{
				"offspring_id": offspring.ID,
				"reason":       reason,
				"iteration":    iteration,
			}))
		} else {
			archive.Add(fullEC, parent.Candidate.ID)
			pareto.Update(fullEC)
			accepted++

			s.emitter.Emit(newEvent(EventCandidateDone, map[string]any{
				"candidate_id":      offspring.ID,
				"iteration":         iteration,
				"tool_descriptions": descriptionsOf(offspring),
				"accuracy":          fullEC.Accuracy,
				"avg_length":        fullEC.AvgDescriptionLen,
				"is_pareto":         pareto.IsOnAnyFront(offspring.ID),
				"status":            "accepted",
				"parent_id":         parent.Candidate.ID,
			}))
			s.emitter.Emit(newEvent(EventOffspringAccepted, map[string]any{
				"offspring_id":  offspring.ID,
				"accuracy":      fullEC.Accuracy,
				"avg_length":    fullEC.AvgDescriptionLen,
				"archive_index": archive.Size(),
				"parent_id":     parent.Candidate.ID,
				"iteration":     iteration,
			}))
		}

		s.emitter.Emit(newEvent(EventArchiveUpdate, map[string]any{
			"archive_size":    archive.Size(),
			"budget_consumed": run.BudgetConsumed,
			"accepted":        accepted,
			"rejected":        rejected,
		}))
		s.emitter.Emit(newEvent(EventIterationDone, map[string]any{
			"iteration":       iteration,
			"budget_consumed": run.BudgetConsumed,
			"archive_size":    archive.Size(),
		}))
	}

	run.Status = RunCompleted
	s.emitter.Emit(newEvent(EventOptimizationComplete, map[string]any{
		"run_id":          run.ID,
		"archive_size":    archive.Size(),
		"budget_consumed": run.BudgetConsumed,
		"accepted":        accepted,
		"rejected":        rejected,
	}))

	return Result{Archive: archive, Pareto: pareto, Run: *run}, nil
}

// acceptanceReason implements the acceptance predicate.
func acceptanceReason(offspringScore, parentScore, minAccuracy float64) (string, bool) {
	if offspringScore < parentScore-acceptanceEpsilon {
		return fmt.Sprintf("offspring subsample score %.3f below parent score %.3f", offspringScore, parentScore), true
	}
	if offspringScore < minAccuracy {
		return fmt.Sprintf("offspring subsample score %.3f below min_accuracy floor %.3f", offspringScore, minAccuracy), true
	}
	return "", false
}

func descriptionsOf(c Candidate) map[string]string {
	out := make(map[string]string, len(c.Tools))
	for _, t := range c.Tools {
		out[t.Name] = t.Description
	}
	return out
}
