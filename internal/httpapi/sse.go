package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/agentstore"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/otel"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

// sseKeepalive is how often an idle dashboard stream gets a comment line.
const sseKeepalive = 30 * time.Second

// SSEHub fans agent store events out to dashboard streams. A subscriber may restrict itself to
// a set of event types; an empty set receives everything.
type SSEHub struct {
	mu   sync.RWMutex
	subs map[chan []byte]map[agentstore.EventType]bool
}

func NewSSEHub() *SSEHub {
	return &SSEHub{subs: make(map[chan []byte]map[agentstore.EventType]bool)}
}

// Subscribe registers a stream for the given event types (all types when none are given).
func (h *SSEHub) Subscribe(types ...agentstore.EventType) chan []byte {
	var filter map[agentstore.EventType]bool
	if len(types) > 0 {
		filter = make(map[agentstore.EventType]bool, len(types))
		for _, t := range types {
			filter[t] = true
		}
	}
	ch := make(chan []byte, models.DefaultSSEChannelBuffer)
	h.mu.Lock()
	h.subs[ch] = filter
	h.mu.Unlock()
	otel.AddSSEConnection()
	return ch
}

func (h *SSEHub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
		otel.RemoveSSEConnection()
	}
	h.mu.Unlock()
}

// Subscribers returns the current subscriber count.
func (h *SSEHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish sends ev as JSON to every stream interested in its type. A stream whose buffer is
// full misses the event; dashboards recover by refetching /snapshot.
func (h *SSEHub) Publish(ev agentstore.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	otel.RecordSSEEvent(context.Background())
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, filter := range h.subs {
		if filter != nil && !filter[ev.Type] {
			continue
		}
		select {
		case ch <- b:
		default:
		}
	}
}

// parseEventTypes reads ?types=agent_update,task_added. Unknown names are kept; they simply
// never match.
func parseEventTypes(r *http.Request) []agentstore.EventType {
	var out []agentstore.EventType
	for _, part := range strings.Split(r.URL.Query().Get("types"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, agentstore.EventType(part))
		}
	}
	return out
}

// Handler serves /stream. The first frame is {"type":"connected"}.
func (h *SSEHub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ch := h.Subscribe(parseEventTypes(r)...)
		defer h.Unsubscribe(ch)

		_, _ = fmt.Fprint(w, "retry: 3000\n")
		_, _ = fmt.Fprintf(w, "data: %s\n\n", `{"type":"connected"}`)
		flusher.Flush()

		keepalive := time.NewTicker(sseKeepalive)
		defer keepalive.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-keepalive.C:
				_, _ = fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()
			case msg, ok := <-ch:
				if !ok {
					return
				}
				_, _ = fmt.Fprintf(w, "data: %s\n\n", msg)
				flusher.Flush()
			}
		}
	}
}
