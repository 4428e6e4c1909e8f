package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/notify"
	"go.uber.org/zap"
)

const defaultHeartbeat = 15 * time.Second

// EventsHandler streams slot change notifications to the owner as server-sent events.
type EventsHandler struct {
	broker    notify.Broker
	heartbeat time.Duration
	// done closes every open stream, so server shutdown does not wait on them.
	done <-chan struct{}
}

func NewEventsHandler(broker notify.Broker, heartbeat time.Duration, done <-chan struct{}) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &EventsHandler{broker: broker, heartbeat: heartbeat, done: done}
}

// GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	owner := mustOwner(r)

	events, err := h.broker.Subscribe(ctx, owner.ID)
	if err != nil {
		handleError(w, r, fmt.Errorf("subscribe: %w", err))
		return
	}

	rc := http.NewResponseController(w)
	// the stream outlives the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("cannot clear write deadline", zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.Warn("event stream is not flushable", zap.Error(err))
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error("failed to encode event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
