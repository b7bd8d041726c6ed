package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

const defaultKeepAlive = 15 * time.Second

// ChangeSubscriber hands out change event subscriptions.
type ChangeSubscriber interface {
	Subscribe() (<-chan domain.ChangeEvent, func())
}

// EventsHandler streams change notifications as server-sent events.
type EventsHandler struct {
	subscriber ChangeSubscriber
	keepAlive  time.Duration
}

// NewEventsHandler creates a new EventsHandler. A zero keepAlive uses the
// default interval.
func NewEventsHandler(subscriber ChangeSubscriber, keepAlive time.Duration) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &EventsHandler{subscriber: subscriber, keepAlive: keepAlive}
}

// Stream sends "reload" whenever the pending list changes. Clients refetch
// the state instead of receiving it inline.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	events, cancel := h.subscriber.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, "data: reload\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
