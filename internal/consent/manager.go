package consent

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Listener receives a snapshot of the preferences map on every consent
// change. Snapshots are copies; listeners may keep them.
type Listener func(preferences map[string]bool)

// Manager is the consent state machine: one decided flag plus the
// preferences map, write-through persisted on every mutation. After
// Initialize the in-memory state is the single source of truth; storage is
// only re-read by Initialize and Reset.
type Manager struct {
	mu         sync.Mutex
	store      Store
	prompter   Prompter
	logger     *slog.Logger
	clock      func() time.Time
	categories []Category
	prefs      map[string]bool
	decided    bool
	listeners  []Listener
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithPrompter(p Prompter) Option {
	return func(m *Manager) { m.prompter = p }
}

// WithClock sets the clock stamped onto persisted records; tests pin it.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithCategories replaces the default category set before initialization.
func WithCategories(categories []Category) Option {
	return func(m *Manager) { m.categories = categories }
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		prompter:   NopPrompter{},
		logger:     slog.Default(),
		clock:      time.Now,
		categories: DefaultCategories(),
		prefs:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize loads the persisted record. A missing record, a decode
// failure, or a schema-version mismatch all reset preferences to category
// defaults with decided=false. Undecided state surfaces the prompt;
// decided state notifies listeners immediately.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()

	record, found, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("failed to load consent record, falling back to defaults", "error", err)
		found = false
	}

	if found && record.Version == CurrentVersion {
		m.prefs = make(map[string]bool, len(record.Preferences))
		for k, v := range record.Preferences {
			m.prefs[k] = v
		}
		m.decided = record.Decided
	} else {
		if found {
			m.logger.Warn("consent record version mismatch, treating as undecided",
				"stored_version", record.Version, "current_version", CurrentVersion)
		}
		m.applyDefaultsLocked()
	}

	// Seed preferences for categories the stored record predates, and pin
	// required categories regardless of what was stored.
	for _, cat := range m.categories {
		if _, ok := m.prefs[cat.Key]; !ok {
			m.prefs[cat.Key] = cat.Default
		}
		if cat.Required {
			m.prefs[cat.Key] = true
		}
	}

	if !m.decided {
		m.showPromptLocked()
		m.mu.Unlock()
		return
	}
	listeners, snapshot := m.notifyPlanLocked()
	m.mu.Unlock()
	dispatch(m.logger, listeners, snapshot)
}

func (m *Manager) applyDefaultsLocked() {
	m.prefs = make(map[string]bool, len(m.categories))
	for _, cat := range m.categories {
		m.prefs[cat.Key] = cat.Default || cat.Required
	}
	m.decided = false
}

// HasConsent reports whether the category is currently granted. Required
// categories are always granted; everything else requires an explicit
// decision.
func (m *Manager) HasConsent(category string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cat := range m.categories {
		if cat.Key == category && cat.Required {
			return true
		}
	}
	if !m.decided {
		return false
	}
	return m.prefs[category]
}

// AcceptAll grants every category.
func (m *Manager) AcceptAll(ctx context.Context) {
	m.mu.Lock()
	for _, cat := range m.categories {
		m.prefs[cat.Key] = true
	}
	m.decideAndPersistLocked(ctx)
	listeners, snapshot := m.notifyPlanLocked()
	m.mu.Unlock()
	dispatch(m.logger, listeners, snapshot)
}

// DeclineAll denies every category that is not required.
func (m *Manager) DeclineAll(ctx context.Context) {
	m.mu.Lock()
	for _, cat := range m.categories {
		m.prefs[cat.Key] = cat.Required
	}
	m.decideAndPersistLocked(ctx)
	listeners, snapshot := m.notifyPlanLocked()
	m.mu.Unlock()
	dispatch(m.logger, listeners, snapshot)
}

// SaveCustom applies a per-category selection. For every known category the
// effective value is the selection ORed with the required flag; keys in
// selections that name no known category are ignored.
func (m *Manager) SaveCustom(ctx context.Context, selections map[string]bool) {
	m.mu.Lock()
	for _, cat := range m.categories {
		m.prefs[cat.Key] = selections[cat.Key] || cat.Required
	}
	m.decideAndPersistLocked(ctx)
	listeners, snapshot := m.notifyPlanLocked()
	m.mu.Unlock()
	dispatch(m.logger, listeners, snapshot)
}

func (m *Manager) decideAndPersistLocked(ctx context.Context) {
	m.decided = true
	m.persistLocked(ctx)
	m.prompter.Hide()
}

func (m *Manager) persistLocked(ctx context.Context) {
	record := Record{
		Version:     CurrentVersion,
		Preferences: snapshotPrefs(m.prefs),
		Decided:     m.decided,
		Timestamp:   m.clock(),
	}
	if err := m.store.Save(ctx, record); err != nil {
		// Persistence failure degrades to session-only consent.
		m.logger.Warn("failed to persist consent record", "error", err)
	}
}

// Subscribe registers a listener for future consent changes. If a decision
// already exists the listener is invoked immediately, once, with the
// current snapshot.
func (m *Manager) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	decided := m.decided
	snapshot := snapshotPrefs(m.prefs)
	m.mu.Unlock()

	if decided {
		dispatch(m.logger, []Listener{fn}, snapshot)
	}
}

// AddCategory extends the category set. An existing preference for the key
// is never overwritten; a new key is seeded with the category default.
func (m *Manager) AddCategory(cat Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].Key == cat.Key {
			m.categories[i] = cat
			if cat.Required {
				m.prefs[cat.Key] = true
			}
			return
		}
	}
	m.categories = append(m.categories, cat)
	if _, ok := m.prefs[cat.Key]; !ok {
		m.prefs[cat.Key] = cat.Default || cat.Required
	}
}

// Reset clears the persisted record, restores defaults, and re-surfaces the
// prompt.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear consent record", "error", err)
	}
	m.applyDefaultsLocked()
	m.prompter.Hide()
	m.showPromptLocked()
}

// Decided reports whether the user has ever made an explicit choice.
func (m *Manager) Decided() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decided
}

// Preferences returns a snapshot of the current preferences map.
func (m *Manager) Preferences() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshotPrefs(m.prefs)
}

// Categories returns the category set in registration order.
func (m *Manager) Categories() []Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Category{}, m.categories...)
}

func (m *Manager) showPromptLocked() {
	m.prompter.Show(append([]Category{}, m.categories...), snapshotPrefs(m.prefs))
}

// notifyPlanLocked captures the listeners and a snapshot under the lock so
// dispatch can run outside it. Listeners fire in subscription order.
func (m *Manager) notifyPlanLocked() ([]Listener, map[string]bool) {
	return append([]Listener{}, m.listeners...), snapshotPrefs(m.prefs)
}

// dispatch invokes listeners in order, isolating panics so one failing
// listener cannot block the rest or the state transition.
func dispatch(logger *slog.Logger, listeners []Listener, snapshot map[string]bool) {
	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("consent listener panicked", "panic", r)
				}
			}()
			fn(snapshotPrefs(snapshot))
		}()
	}
}

func snapshotPrefs(prefs map[string]bool) map[string]bool {
	out := make(map[string]bool, len(prefs))
	for k, v := range prefs {
		out[k] = v
	}
	return out
}
