// Package events provides a durable, replayable envelope around a
// gepa.Event, encoded with msgpack for on-disk storage. Grounded on
// shared/protocol's Envelope/Encode/DecodeEnvelope pattern.
package events

import (
	"fmt"

	"github.com/longregen/gepa-optimize/internal/gepa"
	"github.com/vmihailenco/msgpack/v5"
)

// Envelope wraps one gepa.Event with the run it belongs to and its
// sequence number within that run, for append-only durable storage.
type Envelope struct {
	RunID    string          `msgpack:"run_id"`
	Sequence int             `msgpack:"sequence"`
	Type     gepa.EventType  `msgpack:"type"`
	Payload  map[string]any  `msgpack:"payload"`
}

// NewEnvelope wraps an event for a given run and sequence position.
func NewEnvelope(runID string, sequence int, e gepa.Event) Envelope {
	return Envelope{RunID: runID, Sequence: sequence, Type: e.Type, Payload: e.Payload}
}

// ToEvent unwraps the envelope back into a gepa.Event.
func (e Envelope) ToEvent() gepa.Event {
	return gepa.Event{Type: e.Type, Payload: e.Payload}
}

// Encode serializes the envelope with msgpack.
func (e Envelope) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event envelope: %w", err)
	}
	return data, nil
}

// Decode deserializes a msgpack-encoded envelope.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode event envelope: %w", err)
	}
	return e, nil
}
