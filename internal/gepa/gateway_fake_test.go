package gepa

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// fakeGateway is a deterministic LLMGateway stub for tests. toolSelection
// looks up the query in a fixed table; textCompletion returns the prompt's
// current description with rewriteSuffix appended. Both can be made to fail by setting
// failToolSelection/failTextCompletion.
type fakeGateway struct {
	mu sync.Mutex

	// answers maps a query to the tool name the fake "selects".
	answers map[string]string

	failToolSelection  bool
	failTextCompletion bool

	toolSelectionCalls  atomic.Int64
	textCompletionCalls atomic.Int64

	// rewriteSuffix is appended to a tool's current description to
	// produce the fake's "rewritten" text, so tests can assert a
	// mutation actually changed something.
	rewriteSuffix string
}

func newFakeGateway(answers map[string]string) *fakeGateway {
	return &fakeGateway{answers: answers, rewriteSuffix: " (revised)"}
}

func (f *fakeGateway) ToolSelection(ctx context.Context, model, query string, tools []Tool) (ToolSelectionResult, error) {
	f.toolSelectionCalls.Add(1)
	if f.failToolSelection {
		return ToolSelectionResult{}, NewProviderError("fake tool selection failure", nil)
	}

	f.mu.Lock()
	name := f.answers[query]
	f.mu.Unlock()

	if name == "" {
		return ToolSelectionResult{}, nil
	}
	for _, t := range tools {
		if t.Name == name {
			return ToolSelectionResult{SelectedToolName: name}, nil
		}
	}
	return ToolSelectionResult{}, nil
}

func (f *fakeGateway) TextCompletion(ctx context.Context, model, prompt string, maxOutputTokens int) (string, error) {
	f.textCompletionCalls.Add(1)
	if f.failTextCompletion {
		return "", NewProviderError("fake text completion failure", nil)
	}
	// Echo back a deterministic rewrite derived from the prompt's
	// "Current description:" line, so the caller can see it changed.
	const marker = "Current description: "
	start := strings.Index(prompt, marker)
	if start < 0 {
		return "rewritten description", nil
	}
	rest := prompt[start+len(marker):]
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimSpace(rest[:end]) + f.rewriteSuffix, nil
}
