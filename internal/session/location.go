package session

import (
	"net/url"
	"sync"
)

// Location abstracts the navigable-location collaborator: the current URL,
// history replacement without navigation, and outbound navigation. The
// fragment consumer and sign-out depend on it instead of any real browser
// surface, which keeps them unit-testable.
type Location interface {
	// Current returns the current URL, fragment included.
	Current() *url.URL
	// Replace swaps the current URL without triggering navigation.
	Replace(u *url.URL)
	// Assign navigates to the given URL.
	Assign(u *url.URL)
}

// MemoryLocation is an in-process Location used by tests and by the server
// when replaying a recorded callback URL. It records navigations instead of
// performing them.
type MemoryLocation struct {
	mu          sync.Mutex
	current     *url.URL
	navigations []*url.URL
}

func NewMemoryLocation(raw string) (*MemoryLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &MemoryLocation{current: u}, nil
}

func (l *MemoryLocation) Current() *url.URL {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := *l.current
	return &copied
}

func (l *MemoryLocation) Replace(u *url.URL) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := *u
	l.current = &copied
}

func (l *MemoryLocation) Assign(u *url.URL) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := *u
	l.current = &copied
	l.navigations = append(l.navigations, &copied)
}

// Navigations returns the URLs navigated to, oldest first.
func (l *MemoryLocation) Navigations() []*url.URL {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*url.URL{}, l.navigations...)
}
