// Package sse streams session notifications to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/game"
	"github.com/robalobadob/jeopardy/internal/session"
)

const (
	channelBuffer = 16
	heartbeat     = 30 * time.Second
)

// Event names sent on the stream.
const (
	EventState = "state"
	EventBoard = "board"
	EventCell  = "cell"
)

// Message is one event on the stream.
type Message struct {
	Event string
	Data  []byte
}

type client struct {
	ch        chan Message
	sessionID string
}

// Broadcaster manages SSE clients grouped by session.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*client]struct{})}
}

func (b *Broadcaster) register(sessionID string) *client {
	c := &client{ch: make(chan Message, channelBuffer), sessionID: sessionID}
	b.mu.Lock()
	if b.closed {
		close(c.ch)
	} else {
		b.clients[c] = struct{}{}
	}
	b.mu.Unlock()
	return c
}

func (b *Broadcaster) unregister(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.ch)
	}
	b.mu.Unlock()
}

// Close ends every open stream and refuses new ones. Used on server shutdown.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for c := range b.clients {
		delete(b.clients, c)
		close(c.ch)
	}
}

// Publish sends an event to every client of a session. Slow clients whose
// buffer is full miss the event rather than blocking the sender.
func (b *Broadcaster) Publish(sessionID, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("sse marshal")
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		if c.sessionID != sessionID {
			continue
		}
		select {
		case c.ch <- Message{Event: event, Data: data}:
		default:
			log.Debug().Str("session", sessionID).Str("event", event).Msg("sse client too slow, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients for a session.
func (b *Broadcaster) ClientCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for c := range b.clients {
		if c.sessionID == sessionID {
			n++
		}
	}
	return n
}

// Serve streams a session's events until the request is cancelled.
// initial, if non-nil, is sent first so a new client sees the current state.
func (b *Broadcaster) Serve(w http.ResponseWriter, r *http.Request, sessionID string, initial *Message) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming_unsupported"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := b.register(sessionID)
	defer b.unregister(c)

	if initial != nil {
		writeMessage(w, *initial)
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-c.ch:
			if !ok {
				return
			}
			writeMessage(w, msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func writeMessage(w http.ResponseWriter, m Message) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Event, m.Data)
}

// Presenter adapts the broadcaster to one session's notifications.
func (b *Broadcaster) Presenter(sessionID string) session.Presenter {
	return presenter{b: b, sessionID: sessionID}
}

type presenter struct {
	b         *Broadcaster
	sessionID string
}

func (p presenter) SessionStateChanged(s session.Snapshot) {
	// The board travels on its own event; keep state events small.
	s.Board = nil
	p.b.Publish(p.sessionID, EventState, s)
}

func (p presenter) Render(v game.BoardView) { p.b.Publish(p.sessionID, EventBoard, v) }

func (p presenter) CellChanged(c session.CellResult) { p.b.Publish(p.sessionID, EventCell, c) }
