// Package tracking gates telemetry on analytics consent. Events raised
// before consent (or before the sink finished loading) queue FIFO and are
// flushed exactly once when the gate opens.
package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"beacon/internal/consent"
)

var (
	eventsTracked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_tracking_events_tracked_total",
		Help: "Total events handed to the tracking gate",
	})
	eventsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_tracking_events_queued_total",
		Help: "Events buffered while awaiting consent or sink load",
	})
	eventsForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_tracking_events_forwarded_total",
		Help: "Events delivered to the sink",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_tracking_events_dropped_total",
		Help: "Events lost to sink delivery failures",
	})
)

var tracer = otel.Tracer("beacon/internal/tracking")

// ConsentSource is the slice of the consent manager the gate depends on.
type ConsentSource interface {
	HasConsent(category string) bool
	Subscribe(fn consent.Listener)
}

// Gate forwards events to the sink only while analytics consent is granted
// and the sink is loaded. Before that it buffers; on the grant transition
// it loads the sink, flushes the buffer in order, then switches to
// immediate forwarding. Revocation stops forwarding but does not unload
// the sink; fully unloading an injected collector needs a page reload,
// which is out of this layer's hands.
type Gate struct {
	consents ConsentSource
	sink     Sink
	env      Environment
	logger   *slog.Logger
	clock    func() time.Time

	mu         sync.Mutex
	loaded     bool
	forwarding bool
	pending    []Event
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

func WithClock(clock func() time.Time) Option {
	return func(g *Gate) { g.clock = clock }
}

// New builds the gate and subscribes it to consent changes. If consent was
// already decided the subscription fires immediately and may open the gate
// before New returns.
func New(consents ConsentSource, sink Sink, env Environment, opts ...Option) *Gate {
	g := &Gate{
		consents: consents,
		sink:     sink,
		env:      env,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	consents.Subscribe(g.onConsentChange)
	return g
}

// Track queues or forwards a single event. It never fails from the
// caller's perspective; delivery problems degrade to logs and metrics.
func (g *Gate) Track(ctx context.Context, name string, params map[string]any) {
	eventsTracked.Inc()
	event := Event{
		ID:          ksuid.New().String(),
		Name:        name,
		Environment: g.env,
		Params:      params,
		TrackedAt:   g.clock(),
	}

	g.mu.Lock()
	if !g.forwarding || !g.consents.HasConsent(consent.CategoryAnalytics) {
		g.pending = append(g.pending, event)
		g.mu.Unlock()
		eventsQueued.Inc()
		g.logger.Debug("event queued awaiting consent", "event", name)
		return
	}
	g.mu.Unlock()

	g.deliver(ctx, event)
}

func (g *Gate) onConsentChange(prefs map[string]bool) {
	if prefs[consent.CategoryAnalytics] {
		g.open(context.Background())
	} else {
		g.close()
	}
}

// open loads the sink if needed, flushes the pending queue strictly FIFO,
// then enables immediate forwarding. Events tracked during the flush land
// at the tail of the queue and drain before forwarding mode flips on, so
// they are never interleaved ahead of older events.
func (g *Gate) open(ctx context.Context) {
	g.mu.Lock()
	if g.forwarding {
		g.mu.Unlock()
		return
	}
	if !g.loaded {
		g.mu.Unlock()
		if err := g.sink.Load(ctx); err != nil {
			g.logger.Warn("tracking sink failed to load, events stay queued", "error", err)
			return
		}
		g.mu.Lock()
		g.loaded = true
	}

	for len(g.pending) > 0 {
		event := g.pending[0]
		g.pending = g.pending[1:]
		g.mu.Unlock()
		g.deliver(ctx, event)
		g.mu.Lock()
	}
	g.forwarding = true
	g.mu.Unlock()

	g.logger.Info("tracking gate opened", "environment", string(g.env))
}

// close stops forwarding. The already-loaded sink stays loaded.
func (g *Gate) close() {
	g.mu.Lock()
	wasForwarding := g.forwarding
	g.forwarding = false
	g.mu.Unlock()
	if wasForwarding {
		g.logger.Info("tracking gate closed by consent revocation")
	}
}

func (g *Gate) deliver(ctx context.Context, event Event) {
	ctx, span := tracer.Start(ctx, "tracking.forward")
	span.SetAttributes(
		attribute.String("event.name", event.Name),
		attribute.String("event.environment", string(event.Environment)),
	)
	defer span.End()

	if err := g.sink.Forward(ctx, event); err != nil {
		span.RecordError(err)
		eventsDropped.Inc()
		g.logger.Warn("failed to forward event", "event", event.Name, "error", err)
		return
	}
	eventsForwarded.Inc()
}

// PendingCount reports the number of buffered events, for health surfaces.
func (g *Gate) PendingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
