package tracking_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/consent"
	"beacon/internal/storage"
	"beacon/internal/tracking"
)

type fakeSink struct {
	mu       sync.Mutex
	loads    int
	loadErr  error
	forwards []tracking.Event
}

func (s *fakeSink) Load(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.loadErr
}

func (s *fakeSink) Forward(_ context.Context, event tracking.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forwards = append(s.forwards, event)
	return nil
}

func (s *fakeSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.forwards))
	for i, ev := range s.forwards {
		out[i] = ev.Name
	}
	return out
}

func newGate(t *testing.T, sink tracking.Sink) (*tracking.Gate, *consent.Manager) {
	t.Helper()
	consents := consent.NewManager(consent.NewKVStore(storage.NewMemoryStore()))
	consents.Initialize(context.Background())
	gate := tracking.New(consents, sink, tracking.EnvLocal)
	return gate, consents
}

func TestTrack_QueuesBeforeConsent(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	gate, _ := newGate(t, sink)

	gate.Track(ctx, "page_view", nil)
	gate.Track(ctx, "button_click", map[string]any{"button_name": "signup"})

	assert.Empty(t, sink.forwards, "nothing forwarded without consent")
	assert.Equal(t, 0, sink.loads, "sink not loaded without consent")
	assert.Equal(t, 2, gate.PendingCount())
}

// reentrantSink tracks a new event from inside the first delivery, the way
// a listener reacting to a forwarded event would.
type reentrantSink struct {
	fakeSink
	gate *tracking.Gate
	once sync.Once
}

func (s *reentrantSink) Forward(ctx context.Context, event tracking.Event) error {
	s.once.Do(func() {
		s.gate.Track(ctx, "mid_flush", nil)
	})
	return s.fakeSink.Forward(ctx, event)
}

func TestConsentGrant_TrackDuringFlushDrainsLast(t *testing.T) {
	ctx := context.Background()
	sink := &reentrantSink{}
	consents := consent.NewManager(consent.NewKVStore(storage.NewMemoryStore()))
	consents.Initialize(ctx)
	gate := tracking.New(consents, sink, tracking.EnvLocal)
	sink.gate = gate

	gate.Track(ctx, "a", nil)
	gate.Track(ctx, "b", nil)

	consents.AcceptAll(ctx)

	// The event raised during the flush lands at the tail of the queue and
	// drains before forwarding mode flips on, never ahead of older events.
	assert.Equal(t, []string{"a", "b", "mid_flush"}, sink.names())
	assert.Zero(t, gate.PendingCount())
}

func TestConsentGrant_FlushesFIFOThenForwards(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	gate, consents := newGate(t, sink)

	gate.Track(ctx, "a", nil)
	gate.Track(ctx, "b", nil)

	consents.AcceptAll(ctx)

	gate.Track(ctx, "c", nil)

	require.Equal(t, []string{"a", "b", "c"}, sink.names())
	assert.Equal(t, 0, gate.PendingCount())
	assert.Equal(t, 1, sink.loads)
}

func TestConsentGrant_LoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	gate, consents := newGate(t, sink)

	consents.AcceptAll(ctx)
	consents.DeclineAll(ctx)
	consents.AcceptAll(ctx)

	gate.Track(ctx, "after_regrant", nil)

	assert.Equal(t, 1, sink.loads, "sink loaded once across grant/revoke/regrant")
	assert.Equal(t, []string{"after_regrant"}, sink.names())
}

func TestRevocation_StopsForwardingKeepsSink(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	gate, consents := newGate(t, sink)

	consents.AcceptAll(ctx)
	gate.Track(ctx, "while_granted", nil)

	consents.DeclineAll(ctx)
	gate.Track(ctx, "while_revoked", nil)

	assert.Equal(t, []string{"while_granted"}, sink.names())
	assert.Equal(t, 1, gate.PendingCount(), "post-revocation events queue again")
}

func TestSinkLoadFailure_KeepsQueueing(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{loadErr: errors.New("broker unreachable")}
	gate, consents := newGate(t, sink)

	gate.Track(ctx, "queued", nil)
	consents.AcceptAll(ctx)

	assert.Empty(t, sink.forwards)
	assert.Equal(t, 1, gate.PendingCount(), "queue survives a failed sink load")
}

func TestTrack_TagsEnvironment(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	gate, consents := newGate(t, sink)

	consents.AcceptAll(ctx)
	gate.Track(ctx, "page_view", nil)

	require.Len(t, sink.forwards, 1)
	assert.Equal(t, tracking.EnvLocal, sink.forwards[0].Environment)
	assert.NotEmpty(t, sink.forwards[0].ID)
}

// Mirrors the fresh-visitor journey: prompt, decline, queued page view,
// later opt-in via custom save, flush.
func TestFreshVisitorJourney(t *testing.T) {
	ctx := context.Background()
	consents := consent.NewManager(consent.NewKVStore(storage.NewMemoryStore()))
	consents.Initialize(ctx)
	sink := &fakeSink{}
	gate := tracking.New(consents, sink, tracking.EnvProduction)

	consents.DeclineAll(ctx)
	assert.False(t, consents.HasConsent(consent.CategoryAnalytics))
	assert.True(t, consents.HasConsent(consent.CategoryEssential))

	gate.Track(ctx, "page_view", map[string]any{})
	assert.Empty(t, sink.forwards)

	consents.SaveCustom(ctx, map[string]bool{consent.CategoryAnalytics: true})

	require.True(t, consents.Decided())
	require.Equal(t, []string{"page_view"}, sink.names())
	assert.Equal(t, tracking.EnvProduction, sink.forwards[0].Environment)
}
