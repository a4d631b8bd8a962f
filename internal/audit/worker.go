package audit

import (
	"context"
	"log/slog"

	"pairhub/pkg/platform/circuit"
)

// Sink is an optional external destination for audit events, fed by the
// worker after local persistence.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from a channel and persists them, forwarding
// to the external sink when one is configured. Store and sink failures are
// logged, not propagated: auditing never takes the service down.
type Worker struct {
	store   Store
	sink    Sink
	breaker *circuit.Breaker
	inbox   <-chan Event
	logger  *slog.Logger
	// skipped counts sink events dropped while the breaker is open. Only
	// the worker goroutine touches it.
	skipped int
}

// probeInterval is how many events pass between recovery probes while the
// sink breaker is open.
const probeInterval = 10

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithSink forwards persisted events to an external sink.
func WithSink(sink Sink) WorkerOption {
	return func(w *Worker) {
		w.sink = sink
	}
}

// WithBreaker replaces the default breaker guarding the sink.
func WithBreaker(breaker *circuit.Breaker) WorkerOption {
	return func(w *Worker) {
		w.breaker = breaker
	}
}

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// NewWorker creates a worker draining inbox into store.
func NewWorker(store Store, inbox <-chan Event, opts ...WorkerOption) *Worker {
	w := &Worker{store: store, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.breaker == nil {
		w.breaker = circuit.New("audit-sink")
	}
	return w
}

// Run drains the inbox until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit append failed", "action", string(event.Action), "error", err)
			}
			w.forward(ctx, event)
		}
	}
}

// forward publishes to the sink behind the circuit breaker. An open breaker
// skips the sink while still recording recovery probes on later events.
func (w *Worker) forward(ctx context.Context, event Event) {
	if w.sink == nil {
		return
	}
	if w.breaker.IsOpen() {
		w.skipped++
		if w.skipped%probeInterval != 0 {
			return
		}
		// Periodic probe; a success closes the breaker again.
		if err := w.sink.Publish(ctx, event); err != nil {
			w.breaker.RecordFailure()
			return
		}
		if _, change := w.breaker.RecordSuccess(); change.Closed {
			w.logger.InfoContext(ctx, "audit sink recovered", "events_skipped", w.skipped)
			w.skipped = 0
		}
		return
	}

	if err := w.sink.Publish(ctx, event); err != nil {
		if _, change := w.breaker.RecordFailure(); change.Opened {
			w.logger.WarnContext(ctx, "audit sink circuit opened", "error", err)
		} else {
			w.logger.WarnContext(ctx, "audit sink publish failed", "action", string(event.Action), "error", err)
		}
		return
	}
	w.breaker.RecordSuccess()
}
