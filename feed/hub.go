// Package feed fans out decisions to connected WebSocket observers for
// live operator monitoring. It is purely an observability side
// channel: a slow or disconnected observer never affects the Decision
// returned to an engine.Protect caller.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/types"
)

// Event is the JSON payload broadcast to every connected observer.
type Event struct {
	Time       time.Time         `json:"time"`
	Conclusion string            `json:"conclusion"`
	TTL        int               `json:"ttl,omitempty"`
	Reason     decision.Reason   `json:"reason"`
	Path       string            `json:"path,omitempty"`
	Method     string            `json:"method,omitempty"`
	IP         string            `json:"ip,omitempty"`
}

// Hub tracks connected observer sockets and broadcasts Events to all
// of them. The zero value is not usable; build one with NewHub.
type Hub struct {
	mu        sync.RWMutex
	observers map[string]*observer

	// bufferSize bounds how many undelivered events an observer's
	// outbound channel holds before the hub drops that observer rather
	// than block Broadcast on a stalled connection.
	bufferSize int
}

type observer struct {
	id   string
	send chan Event
}

// NewHub builds a Hub. bufferSize <= 0 defaults to 16.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{observers: make(map[string]*observer), bufferSize: bufferSize}
}

// Broadcast converts a Decision into an Event and fans it out to every
// connected observer. Never blocks on a slow observer: an observer
// whose buffer is full is dropped and must reconnect. Safe to call
// from the engine's asynchronous report goroutine, matching the "best
// effort, never affects the decision" contract observability hooks
// carry throughout this module.
func (h *Hub) Broadcast(d decision.Decision, details *types.RequestDetails) {
	event := Event{
		Time:       time.Now(),
		Conclusion: string(d.Conclusion),
		TTL:        d.TTL,
		Reason:     d.Reason,
	}
	if details != nil {
		event.Path = details.Path
		event.Method = details.Method
		event.IP = details.IP
	}

	h.mu.RLock()
	targets := make([]*observer, 0, len(h.observers))
	for _, o := range h.observers {
		targets = append(targets, o)
	}
	h.mu.RUnlock()

	for _, o := range targets {
		select {
		case o.send <- event:
		default:
			slog.Warn("feed observer buffer full, dropping connection", "observer_id", o.id)
			h.remove(o.id)
			close(o.send)
		}
	}
}

func (h *Hub) add(o *observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers[o.id] = o
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.observers, id)
}

// Count returns the number of currently connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// ServeHTTP upgrades the request to a WebSocket and streams Events to
// it as JSON text frames, one Event per frame, until the client
// disconnects. Grounded on the accept/defer-close shape of the
// teacher's websocket.Handler.ServeHTTP, stripped of session/backend
// proxying since an observer has nothing to proxy to.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		slog.Error("feed: failed to accept observer connection", "error", err)
		return
	}
	defer conn.CloseNow()

	id := r.RemoteAddr + "-" + time.Now().Format(time.RFC3339Nano)
	o := &observer{id: id, send: make(chan Event, h.bufferSize)}
	h.add(o)
	defer h.remove(id)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "context done")
			return
		case event, ok := <-o.send:
			if !ok {
				conn.Close(websocket.StatusPolicyViolation, "buffer overflow")
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.Error("feed: failed to encode event", "error", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					slog.Debug("feed: observer write failed, closing", "observer_id", id, "error", err)
				}
				return
			}
		}
	}
}
