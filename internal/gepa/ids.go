package gepa

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idLength = 12

const (
	prefixRun       = "run"
	prefixCandidate = "cand"
)

// newID generates a short, URL-safe random ID with the given semantic
// prefix. Panics on generator failure: nanoid failures indicate a broken
// entropy source, not a recoverable condition worth propagating up call
// chains.
func newID(prefix string) string {
	s, err := gonanoid.New(idLength)
	if err != nil {
		panic("gepa: id generation failed: " + err.Error())
	}
	return prefix + "_" + s
}

func newRunID() string       { return newID(prefixRun) }
func newCandidateID() string { return newID(prefixCandidate) }
