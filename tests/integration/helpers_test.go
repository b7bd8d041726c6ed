package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	adaptershttp "github.com/jakobhellermann/beancount-staging/internal/adapter/http"
	"github.com/jakobhellermann/beancount-staging/internal/adapter/http/handler"
	"github.com/jakobhellermann/beancount-staging/internal/adapter/repository/file"
	"github.com/jakobhellermann/beancount-staging/internal/adapter/repository/postgres"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/eventpublisher"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/metrics"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/watcher"
	"github.com/jakobhellermann/beancount-staging/internal/usecase"
	"github.com/jakobhellermann/beancount-staging/tests/testutil"
)

// stackOptions selects the optional backends.
type stackOptions struct {
	audit       usecase.AuditRepository
	idempotency usecase.IdempotencyStore
	drafts      usecase.DraftStore
	watch       bool
}

type stack struct {
	server      *httptest.Server
	review      *usecase.ReviewUseCase
	broadcaster *eventpublisher.Broadcaster
	metrics     *metrics.Metrics
}

// newStack wires the application the way the server binary does, over the
// workspace files.
func newStack(t *testing.T, ws *testutil.Workspace, opts stackOptions) *stack {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	broadcaster := eventpublisher.NewBroadcaster(eventpublisher.Config{Metrics: m, Logger: zerolog.Nop()})
	if opts.audit == nil {
		opts.audit = postgres.NewNullAuditRepository()
	}

	review := usecase.NewReviewUseCase(usecase.ReviewConfig{
		Journal:      file.NewFileSource([]string{ws.Journal}),
		Staging:      file.NewFileSource([]string{ws.Staging}),
		JournalFiles: []string{ws.Journal},
		Writer:       file.NewJournalWriter(),
		Audit:        opts.audit,
		IDGen:        postgres.NewULIDGenerator(),
		Notifier:     broadcaster,
		Drafts:       opts.drafts,
		Metrics:      m,
		Logger:       zerolog.Nop(),
	})
	if err := review.Reload(context.Background()); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}

	if opts.watch {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		w := watcher.New(watcher.Config{Target: review, Notifier: broadcaster, Metrics: m, Logger: zerolog.Nop()})
		go func() { done <- w.Start(ctx) }()
		t.Cleanup(func() {
			cancel()
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("watcher failed: %v", err)
			}
		})
	}

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		ReviewHandler:    handler.NewReviewHandler(review),
		EventsHandler:    handler.NewEventsHandler(broadcaster, 0),
		HealthHandler:    handler.NewHealthHandler(),
		IdempotencyStore: opts.idempotency,
		Metrics:          m,
		Gatherer:         reg,
		Logger:           zerolog.Nop(),
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		broadcaster.Close()
		server.Close()
	})

	return &stack{server: server, review: review, broadcaster: broadcaster, metrics: m}
}

func (s *stack) get(t *testing.T, path string, out any) int {
	t.Helper()

	resp, err := http.Get(s.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func (s *stack) post(t *testing.T, path string, body any, headers map[string]string, out any) *http.Response {
	t.Helper()

	payload, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode %s: %v", path, err)
		}
	}
	return resp
}
