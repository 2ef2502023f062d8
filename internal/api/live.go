package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/cadencio-app/cadencio/internal/app/insights"
	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/logger"
)

// ─── Live Dashboard Feed ────────────────────────────────────────────────────
// GET /api/dashboard/live streams one dashboard snapshot per store commit.
// New clients receive the latest snapshot immediately.

// DashboardHub fans dashboard snapshots out to SSE clients.
type DashboardHub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	last    []byte
	log     *zap.SugaredLogger
}

// NewDashboardHub creates a new dashboard broadcast hub.
func NewDashboardHub() *DashboardHub {
	return &DashboardHub{
		clients: make(map[chan []byte]struct{}),
		log:     logger.GetLogger().Named("api"),
	}
}

// Run recomputes the dashboard on every commit and broadcasts it until the
// returned stop func is called.
func (h *DashboardHub) Run(ctx context.Context, store domain.Store, opt func() insights.Options) (stop func()) {
	return insights.WatchDashboard(ctx, store, opt, func(d insights.Dashboard, err error) {
		if err != nil {
			h.log.Warnw("dashboard refresh failed", "error", err)
			return
		}
		h.Broadcast(d)
	})
}

// Broadcast sends a snapshot to all connected clients.
func (h *DashboardHub) Broadcast(d insights.Dashboard) {
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			// Slow client; it still gets the next snapshot.
		}
	}
}

// Subscribe registers a new client. Returns the channel and an unsubscribe func.
func (h *DashboardHub) Subscribe() (chan []byte, func()) {
	ch := make(chan []byte, 8)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	if h.last != nil {
		ch <- h.last
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
		})
	}
}

// ClientCount returns the number of connected clients.
func (h *DashboardHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleDashboardSSE serves the live dashboard via Server-Sent Events.
func (h *DashboardHub) HandleDashboardSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ch, unsub := h.Subscribe()
	defer unsub()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			w.Write([]byte("event: dashboard\ndata: "))
			w.Write(data)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
