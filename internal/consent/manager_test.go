package consent_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/consent"
	"beacon/internal/storage"
)

type recordingPrompter struct {
	shows int
	hides int
	last  map[string]bool
}

func (p *recordingPrompter) Show(_ []consent.Category, prefs map[string]bool) {
	p.shows++
	p.last = prefs
}

func (p *recordingPrompter) Hide() { p.hides++ }

func newManager(t *testing.T) (*consent.Manager, *consent.KVStore, *recordingPrompter) {
	t.Helper()
	store := consent.NewKVStore(storage.NewMemoryStore())
	prompter := &recordingPrompter{}
	mgr := consent.NewManager(store, consent.WithPrompter(prompter))
	return mgr, store, prompter
}

func TestInitialize_FreshVisitorShowsPrompt(t *testing.T) {
	ctx := context.Background()
	mgr, _, prompter := newManager(t)

	mgr.Initialize(ctx)

	assert.Equal(t, 1, prompter.shows)
	assert.False(t, mgr.Decided())
	assert.True(t, mgr.HasConsent(consent.CategoryEssential), "required category granted before any decision")
	assert.False(t, mgr.HasConsent(consent.CategoryAnalytics))
}

func TestAcceptAll_GrantsEveryCategory(t *testing.T) {
	ctx := context.Background()
	mgr, _, prompter := newManager(t)
	mgr.Initialize(ctx)

	mgr.AcceptAll(ctx)

	assert.True(t, mgr.Decided())
	for key := range mgr.Preferences() {
		assert.True(t, mgr.HasConsent(key), "category %q", key)
	}
	assert.Equal(t, 1, prompter.hides)
}

func TestDeclineAll_KeepsRequiredOnly(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t)
	mgr.Initialize(ctx)

	mgr.DeclineAll(ctx)

	assert.True(t, mgr.Decided())
	assert.True(t, mgr.HasConsent(consent.CategoryEssential))
	assert.False(t, mgr.HasConsent(consent.CategoryAnalytics))
}

func TestSaveCustom(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t)
	mgr.Initialize(ctx)

	mgr.SaveCustom(ctx, map[string]bool{
		consent.CategoryAnalytics: true,
		"unknown-category":        true, // ignored
	})

	assert.True(t, mgr.Decided())
	assert.True(t, mgr.HasConsent(consent.CategoryAnalytics))
	assert.True(t, mgr.HasConsent(consent.CategoryEssential), "omitted required category stays granted")
	assert.False(t, mgr.HasConsent("unknown-category"))

	// Omitting a previously granted optional category revokes it.
	mgr.SaveCustom(ctx, map[string]bool{})
	assert.False(t, mgr.HasConsent(consent.CategoryAnalytics))
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	store := consent.NewKVStore(kv)

	first := consent.NewManager(store)
	first.Initialize(ctx)
	first.SaveCustom(ctx, map[string]bool{consent.CategoryAnalytics: true})

	// A second manager over the same storage sees the decision and never
	// surfaces the prompt.
	prompter := &recordingPrompter{}
	second := consent.NewManager(store, consent.WithPrompter(prompter))
	second.Initialize(ctx)

	assert.Equal(t, 0, prompter.shows)
	assert.True(t, second.Decided())
	assert.True(t, second.HasConsent(consent.CategoryAnalytics))
}

func TestVersionMismatch_TreatedAsUndecided(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	store := consent.NewKVStore(kv)

	require.NoError(t, store.Save(ctx, consent.Record{
		Version:     "0.9",
		Preferences: map[string]bool{consent.CategoryAnalytics: true},
		Decided:     true,
		Timestamp:   time.Now(),
	}))

	prompter := &recordingPrompter{}
	mgr := consent.NewManager(store, consent.WithPrompter(prompter))
	mgr.Initialize(ctx)

	assert.False(t, mgr.Decided())
	assert.False(t, mgr.HasConsent(consent.CategoryAnalytics))
	assert.Equal(t, 1, prompter.shows, "prompt reappears despite non-empty storage")
}

func TestCorruptRecord_TreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, "cookie_consent", "{not json"))

	prompter := &recordingPrompter{}
	mgr := consent.NewManager(consent.NewKVStore(kv), consent.WithPrompter(prompter))
	mgr.Initialize(ctx)

	assert.False(t, mgr.Decided())
	assert.Equal(t, 1, prompter.shows)
}

func TestSubscribe_ImmediateWhenDecided(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t)
	mgr.Initialize(ctx)

	var calls []map[string]bool
	mgr.Subscribe(func(prefs map[string]bool) { calls = append(calls, prefs) })
	assert.Empty(t, calls, "no immediate call before a decision")

	mgr.AcceptAll(ctx)
	require.Len(t, calls, 1)

	// A listener added after the decision fires immediately, exactly once.
	var lateCalls int
	mgr.Subscribe(func(map[string]bool) { lateCalls++ })
	assert.Equal(t, 1, lateCalls)
}

func TestListeners_OrderAndPanicIsolation(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t)
	mgr.Initialize(ctx)

	var order []string
	mgr.Subscribe(func(map[string]bool) { order = append(order, "first") })
	mgr.Subscribe(func(map[string]bool) { panic("listener boom") })
	mgr.Subscribe(func(map[string]bool) { order = append(order, "third") })

	mgr.AcceptAll(ctx)

	assert.Equal(t, []string{"first", "third"}, order)
	assert.True(t, mgr.Decided(), "state transition survives a panicking listener")
}

func TestAddCategory(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t)
	mgr.Initialize(ctx)

	mgr.AddCategory(consent.Category{
		Key:     "marketing",
		Name:    "Marketing",
		Default: false,
	})
	assert.False(t, mgr.HasConsent("marketing"))

	mgr.SaveCustom(ctx, map[string]bool{"marketing": true})
	assert.True(t, mgr.HasConsent("marketing"))

	// Re-adding the category must not clobber the decided choice.
	mgr.AddCategory(consent.Category{Key: "marketing", Name: "Marketing (updated)"})
	assert.True(t, mgr.HasConsent("marketing"))
}

func TestReset_RestoresDefaultsAndReprompts(t *testing.T) {
	ctx := context.Background()
	mgr, store, prompter := newManager(t)
	mgr.Initialize(ctx)
	mgr.AcceptAll(ctx)
	require.True(t, mgr.Decided())

	mgr.Reset(ctx)

	assert.False(t, mgr.Decided())
	assert.False(t, mgr.HasConsent(consent.CategoryAnalytics))
	assert.Equal(t, 2, prompter.shows)

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found, "persisted record cleared")
}
