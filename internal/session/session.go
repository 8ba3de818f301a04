// Package session owns the client-facing session lifecycle: building the
// hosted identity-provider URLs, consuming the implicit-flow redirect
// fragment, inspecting the stored identity token, and signing out.
package session

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

const (
	callbackPath   = "/callback.html"
	postLogoutPath = "/index.html"
)

// DefaultScopes is the fixed scope set requested on every authorization
// round trip.
var DefaultScopes = []string{"email", "openid", "profile"}

// Config identifies the hosted identity provider and the site it redirects
// back to.
type Config struct {
	// AuthDomain is the identity provider's hosted UI domain.
	AuthDomain string
	// ClientID is the OAuth client id registered for this site.
	ClientID string
	// SiteOrigin is the site's own origin, e.g. https://example.com.
	SiteOrigin string
	// Scopes overrides DefaultScopes when non-empty.
	Scopes []string
}

// Manager coordinates the token store and the location collaborator. All
// failure modes on the read path collapse to "not authenticated"; nothing
// here surfaces malformed tokens to callers.
type Manager struct {
	cfg    Config
	tokens *TokenStore
	loc    Location
	logger *slog.Logger
	clock  func() time.Time
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock sets the clock used for expiry checks; tests pin it.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

func NewManager(cfg Config, tokens *TokenStore, loc Location, opts ...Option) *Manager {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	m := &Manager{
		cfg:    cfg,
		tokens: tokens,
		loc:    loc,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) redirectURI() string   { return m.cfg.SiteOrigin + callbackPath }
func (m *Manager) signOutTarget() string { return m.cfg.SiteOrigin + postLogoutPath }

func (m *Manager) baseQuery() url.Values {
	q := url.Values{}
	q.Set("client_id", m.cfg.ClientID)
	q.Set("response_type", "token")
	q.Set("scope", strings.Join(m.cfg.Scopes, " "))
	q.Set("redirect_uri", m.redirectURI())
	return q
}

// BuildAuthorizationURL returns the hosted authorization endpoint URL.
// A non-empty provider bypasses the provider-selection login screen.
func (m *Manager) BuildAuthorizationURL(provider string) *url.URL {
	q := m.baseQuery()
	if provider != "" {
		q.Set("identity_provider", provider)
	}
	return &url.URL{Scheme: "https", Host: m.cfg.AuthDomain, Path: "/oauth2/authorize", RawQuery: q.Encode()}
}

// BuildRegistrationURL returns the hosted sign-up URL.
func (m *Manager) BuildRegistrationURL() *url.URL {
	return &url.URL{Scheme: "https", Host: m.cfg.AuthDomain, Path: "/signup", RawQuery: m.baseQuery().Encode()}
}

// BuildSignOutURL returns the hosted logout URL with the post-logout
// redirect pointing back at the site root.
func (m *Manager) BuildSignOutURL() *url.URL {
	q := url.Values{}
	q.Set("client_id", m.cfg.ClientID)
	q.Set("logout_uri", m.signOutTarget())
	return &url.URL{Scheme: "https", Host: m.cfg.AuthDomain, Path: "/logout", RawQuery: q.Encode()}
}

// ConsumeRedirectFragment inspects the current location's fragment for the
// implicit-flow token pair. When both tokens are present it persists them,
// strips the fragment from the visible URL via history replacement, and
// returns true. A second call after a consumed redirect finds no fragment
// and returns false, so the operation is idempotent.
func (m *Manager) ConsumeRedirectFragment(ctx context.Context) (bool, error) {
	current := m.loc.Current()
	params, err := url.ParseQuery(current.Fragment)
	if err != nil {
		return false, nil
	}
	idToken := params.Get("id_token")
	accessToken := params.Get("access_token")
	if idToken == "" || accessToken == "" {
		return false, nil
	}

	if err := m.tokens.Save(ctx, TokenPair{IdentityToken: idToken, AccessToken: accessToken}); err != nil {
		return false, err
	}

	stripped := *current
	stripped.Fragment = ""
	stripped.RawFragment = ""
	m.loc.Replace(&stripped)
	return true, nil
}

// IsAuthenticated reports whether a stored identity token exists and its
// expiry is in the future. Malformed or absent tokens yield false.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	pair, ok := m.tokens.Tokens(ctx)
	if !ok {
		return false
	}
	claims, err := decodeIdentity(pair.IdentityToken)
	if err != nil {
		m.logger.Warn("stored identity token is malformed", "error", err)
		return false
	}
	return claims.expiresAfter(m.clock()) == nil
}

// CurrentIdentity decodes the stored identity token's claims. The boolean
// is false when no valid token is stored.
func (m *Manager) CurrentIdentity(ctx context.Context) (Identity, bool) {
	pair, ok := m.tokens.Tokens(ctx)
	if !ok {
		return Identity{}, false
	}
	claims, err := decodeIdentity(pair.IdentityToken)
	if err != nil {
		m.logger.Warn("stored identity token is malformed", "error", err)
		return Identity{}, false
	}
	if claims.expiresAfter(m.clock()) != nil {
		return Identity{}, false
	}
	return Identity{
		Email:       claims.Email,
		DisplayName: claims.Name,
		SubjectID:   claims.Subject,
	}, true
}

// AccessToken returns the stored bearer credential for backend calls.
func (m *Manager) AccessToken(ctx context.Context) (string, bool) {
	pair, ok := m.tokens.Tokens(ctx)
	if !ok {
		return "", false
	}
	return pair.AccessToken, true
}

// SignOut clears both tokens and navigates to the hosted logout URL. From
// the caller's perspective this is irreversible.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.tokens.Clear(ctx); err != nil {
		return err
	}
	m.loc.Assign(m.BuildSignOutURL())
	return nil
}
