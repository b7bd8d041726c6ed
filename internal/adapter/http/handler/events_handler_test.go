package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

type subscriberStub struct {
	ch        chan domain.ChangeEvent
	cancelled bool
}

func (s *subscriberStub) Subscribe() (<-chan domain.ChangeEvent, func()) {
	return s.ch, func() { s.cancelled = true }
}

func TestEventsHandler_StreamsReload(t *testing.T) {
	sub := &subscriberStub{ch: make(chan domain.ChangeEvent, 2)}
	sub.ch <- domain.ChangeEvent{Type: domain.EventTypeReloaded, Pending: 2}
	sub.ch <- domain.ChangeEvent{Type: domain.EventTypeCommitted, Pending: 1}
	close(sub.ch)

	rec := httptest.NewRecorder()
	NewEventsHandler(sub, time.Hour).Stream(rec, httptest.NewRequest(http.MethodGet, "/api/file-changes", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
	if got := rec.Body.String(); got != "data: reload\n\ndata: reload\n\n" {
		t.Fatalf("unexpected stream body %q", got)
	}
	if !sub.cancelled {
		t.Fatal("expected subscription to be cancelled")
	}
}

func TestEventsHandler_KeepAliveUntilClientLeaves(t *testing.T) {
	sub := &subscriberStub{ch: make(chan domain.ChangeEvent)}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/file-changes", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	NewEventsHandler(sub, 10*time.Millisecond).Stream(rec, req)

	if !strings.Contains(rec.Body.String(), ": keep-alive\n\n") {
		t.Fatalf("expected keep-alive comments, got %q", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "data:") {
		t.Fatalf("expected no events, got %q", rec.Body.String())
	}
	if !sub.cancelled {
		t.Fatal("expected subscription to be cancelled")
	}
}
