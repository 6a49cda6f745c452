// Package wsstream forwards gepa progress events to subscribed websocket
// clients. Kept intentionally thin: the HTTP/streaming surface itself is
// an external collaborator; this package only implements the named
// interface boundary a caller can wire a real server around.
package wsstream

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/longregen/gepa-optimize/internal/gepa"
)

// Broadcaster fans gepa.Event values out to every subscribed websocket
// connection. Safe for concurrent Subscribe/Unsubscribe/Emit.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]*websocket.Conn
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]*websocket.Conn)}
}

// Subscribe registers a connection under id, replacing any prior
// connection registered under the same id.
func (b *Broadcaster) Subscribe(id string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[id] = conn
}

// Unsubscribe removes a connection and closes it.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	conn, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

// Emit implements gepa.Emitter. Write failures drop that one subscriber
// silently — a disconnected UI client must never affect the run. Writes
// are serialized, since a websocket connection allows one writer at a time.
func (b *Broadcaster) Emit(e gepa.Event) {
	payload, err := json.Marshal(wireEvent{Type: string(e.Type), Payload: e.Payload})
	if err != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, conn := range b.subs {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = conn.Close()
			delete(b.subs, id)
		}
	}
}

// Close unsubscribes and closes every connection.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, conn := range b.subs {
		_ = conn.Close()
		delete(b.subs, id)
	}
}

type wireEvent struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}
