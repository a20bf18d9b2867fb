package portal

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lovihome/lovid/internal/device"
	"github.com/lovihome/lovid/internal/logging"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// A subscriber that cannot keep up is dropped rather than buffered;
	// telemetry frames are superseded every tick anyway.
	subscriberBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Telemetry is read-only and carries no secrets; same-origin checks
	// would break captive-portal browsers that open it from the AP address.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventHub fans telemetry snapshots out to websocket subscribers.
type eventHub struct {
	mu     sync.Mutex
	subs   map[chan device.Snapshot]struct{}
	closed bool
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[chan device.Snapshot]struct{})}
}

// subscribe registers a new subscriber channel. Returns nil after closeAll.
func (h *eventHub) subscribe() chan device.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	ch := make(chan device.Snapshot, subscriberBuffer)
	h.subs[ch] = struct{}{}
	return ch
}

func (h *eventHub) unsubscribe(ch chan device.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// publish delivers a snapshot to every subscriber. A full subscriber
// misses the frame; the next tick replaces it.
func (h *eventHub) publish(snap device.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// closeAll shuts every subscriber channel so their write loops exit.
func (h *eventHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// handleEvents upgrades the connection and streams one JSON snapshot per
// provisioner tick until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	ch := s.events.subscribe()
	if ch == nil {
		_ = conn.Close()
		return
	}

	logging.Info("telemetry subscriber connected",
		zap.String("remote_addr", r.RemoteAddr))

	// Reader goroutine consumes control frames and detects disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.events.unsubscribe(ch)
		_ = conn.Close()
		logging.Info("telemetry subscriber disconnected",
			zap.String("remote_addr", r.RemoteAddr))
	}()

	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
