package server

import (
	"sync"

	"github.com/matzehuels/pkgcompare/pkg/notify"
	"github.com/matzehuels/pkgcompare/pkg/panel"
	"github.com/matzehuels/pkgcompare/pkg/record"
)

// Event types sent on the websocket stream.
const (
	EventSelection    = "selection"
	EventPanel        = "panel"
	EventNotification = "notification"
)

// Event is one message on the event stream.
type Event struct {
	Type         string                 `json:"type"`
	Revision     uint64                 `json:"revision,omitempty"`
	Selection    []record.PackageRecord `json:"selection,omitempty"`
	Panel        *panel.State           `json:"panel,omitempty"`
	Notification *notify.Notification   `json:"notification,omitempty"`
}

const clientBuffer = 64

// hub fans events out to connected clients. A client that falls behind
// loses events rather than blocking publishers.
type hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
	closed  bool
}

func newHub() *hub {
	return &hub{clients: map[chan Event]struct{}{}}
}

func (h *hub) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, clientBuffer)
	h.mu.Lock()
	if h.closed {
		close(ch)
		h.mu.Unlock()
		return ch, func() {}
	}
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	}
}

func (h *hub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
