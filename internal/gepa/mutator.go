package gepa

import (
	"context"
	"fmt"
	"strings"
)

// Mutator produces a new candidate from a parent by rewriting exactly one
// tool description via an LLM reflection prompt: a single
// text_completion-style call with a no-op fallback on provider failure.
type Mutator struct {
	gateway LLMGateway
	gate    *Semaphore
	emitter Emitter
}

// NewMutator constructs a Mutator sharing the gateway, concurrency gate,
// and emitter with the rest of the run.
func NewMutator(gateway LLMGateway, gate *Semaphore, emitter Emitter) *Mutator {
	if emitter == nil {
		emitter = NoopEmitter
	}
	return &Mutator{gateway: gateway, gate: gate, emitter: emitter}
}

const maxDescriptionLength = 200
const minConcisenessTarget = 50

// Mutate produces a candidate identical to parent except for one tool's
// description. testCases must be the run's full test set, used to
// recover the query text for a failure-directed mutation's prompt.
func (m *Mutator) Mutate(ctx context.Context, parent EvaluatedCandidate, model string, testCases []TestCase, rng *Rand) Candidate {
	m.emitter.Emit(newEvent(EventMutationStart, map[string]any{"candidate_id": parent.Candidate.ID}))

	if failing := failingResults(parent); len(failing) > 0 {
		return m.mutateFailureDirected(ctx, parent, model, failing, testCases, rng)
	}
	return m.mutateConcisenessDirected(ctx, parent, model, rng)
}

func queryForTestCase(testCases []TestCase, id string) string {
	for _, tc := range testCases {
		if tc.ID == id {
			return tc.Query
		}
	}
	return ""
}

func failingResults(parent EvaluatedCandidate) []EvalResult {
	var out []EvalResult
	for _, r := range parent.Evaluations {
		if !r.Correct {
			out = append(out, r)
		}
	}
	return out
}

func (m *Mutator) mutateFailureDirected(ctx context.Context, parent EvaluatedCandidate, model string, failing []EvalResult, testCases []TestCase, rng *Rand) Candidate {
	failure := failing[rng.Intn(len(failing))]
	query := queryForTestCase(testCases, failure.TestCaseID)

	tool, ok := parent.Candidate.ToolByName(failure.ExpectedToolName)
	if !ok {
		return cloneWithNewID(parent.Candidate)
	}

	m.emitter.Emit(newEvent(EventReflectionStart, map[string]any{
		"candidate_id": parent.Candidate.ID,
		"tool":         tool.Name,
		"failure": map[string]any{
			"query":    query,
			"expected": failure.ExpectedToolName,
			"selected": failure.SelectedToolName,
		},
	}))

	prompt := buildFailurePrompt(tool, parent.Candidate.Tools, failure, query)

	newDesc, err := m.complete(ctx, model, prompt, maxDescriptionLength)
	if err != nil {
		return cloneWithNewID(parent.Candidate)
	}

	offspring := applyDescription(parent.Candidate, tool.Name, newDesc)
	m.emitter.Emit(newEvent(EventReflectionDone, map[string]any{
		"candidate_id": parent.Candidate.ID,
		"tool":         tool.Name,
		"old_desc":     tool.Description,
		"new_desc":     newDesc,
	}))
	return offspring
}

func (m *Mutator) mutateConcisenessDirected(ctx context.Context, parent EvaluatedCandidate, model string, rng *Rand) Candidate {
	if len(parent.Candidate.Tools) == 0 {
		return cloneWithNewID(parent.Candidate)
	}
	tool := parent.Candidate.Tools[rng.Intn(len(parent.Candidate.Tools))]

	m.emitter.Emit(newEvent(EventReflectionStart, map[string]any{
		"candidate_id": parent.Candidate.ID,
		"tool":         tool.Name,
	}))

	target := concisenessTarget(tool.Description)
	prompt := buildConcisenessPrompt(tool, target)

	newDesc, err := m.complete(ctx, model, prompt, maxDescriptionLength)
	if err != nil {
		return cloneWithNewID(parent.Candidate)
	}

	offspring := applyDescription(parent.Candidate, tool.Name, newDesc)
	m.emitter.Emit(newEvent(EventReflectionDone, map[string]any{
		"candidate_id": parent.Candidate.ID,
		"tool":         tool.Name,
		"old_desc":     tool.Description,
		"new_desc":     newDesc,
	}))
	return offspring
}

func concisenessTarget(current string) int {
	target := int(float64(len(current)) * 0.75)
	if target < minConcisenessTarget {
		target = minConcisenessTarget
	}
	return target
}

// complete acquires the shared gate and issues the reflection prompt. On
// a ProviderError it returns the error unchanged; callers fall back to a
// no-op mutation.
func (m *Mutator) complete(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	if err := m.gate.Acquire(ctx); err != nil {
		return "", err
	}
	defer m.gate.Release()

	text, err := m.gateway.TextCompletion(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func cloneWithNewID(c Candidate) Candidate {
	tools := make([]Tool, len(c.Tools))
	copy(tools, c.Tools)
	return Candidate{ID: newCandidateID(), Tools: tools}
}

func applyDescription(c Candidate, toolName, newDesc string) Candidate {
	tools := make([]Tool, len(c.Tools))
	for i, t := range c.Tools {
		if t.Name == toolName {
			t.Description = newDesc
		}
		tools[i] = t
	}
	return Candidate{ID: newCandidateID(), Tools: tools}
}

func buildFailurePrompt(tool Tool, allTools []Tool, failure EvalResult, query string) string {
	var other strings.Builder
	for _, t := range allTools {
		if t.Name == tool.Name {
			continue
		}
		fmt.Fprintf(&other, "- %s: %s\n", t.Name, t.Description)
	}

	guidance := failureGuidance(failure, query)

	return fmt.Sprintf(
		"You are rewriting the description of one tool so an LLM can tell it apart from similar tools.\n\n"+
			"Tool to rewrite: %s\nCurrent description: %s\n\n"+
			"Other tools:\n%s\n"+
			"%s\n\n"+
			"Rewrite ONLY %s's description so future queries like this one are disambiguated correctly. "+
			"Keep it under %d characters. Respond with the new description text only, nothing else.",
		tool.Name, tool.Description, other.String(),
		guidance,
		tool.Name, maxDescriptionLength,
	)
}

// failureGuidance builds the failure-specific instructional text: a
// query where no tool was selected needs the description to read as
// more clearly actionable, while a query where the wrong tool was
// selected needs the description to read as more clearly distinct from
// the tool that won instead.
func failureGuidance(failure EvalResult, query string) string {
	if failure.SelectedToolName == "" {
		return fmt.Sprintf(
			"A user asked a query this tool should have handled, but the model didn't call any tool at all.\n"+
				"Query: %s\nExpected tool: %s\n"+
				"The description likely reads as optional, vague about when to use it, or doesn't surface the "+
				"capability the query is asking for. Make it read as clearly actionable for queries like this one.",
			query, failure.ExpectedToolName)
	}
	return fmt.Sprintf(
		"A user asked a query that this tool should have handled, but a different tool was chosen instead.\n"+
			"Query: %s\nExpected tool: %s\nTool actually selected instead: %s\n"+
			"The two tools' descriptions likely overlap. Sharpen this tool's description so it reads as "+
			"distinct from %q for queries like this one.",
		query, failure.ExpectedToolName, failure.SelectedToolName, failure.SelectedToolName)
}

func buildConcisenessPrompt(tool Tool, targetLength int) string {
	return fmt.Sprintf(
		"Shorten the following tool description while preserving its meaning.\n\n"+
			"Tool: %s\nCurrent description: %s\n\n"+
			"Target length: about %d characters. Respond with the new description text only, nothing else.",
		tool.Name, tool.Description, targetLength,
	)
}
