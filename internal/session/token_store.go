package session

import (
	"context"
	"errors"

	"beacon/internal/storage"
)

// Fixed storage keys; the redirect consumer writes them and every
// protected-page load reads them back.
const (
	identityTokenKey = "id_token"
	accessTokenKey   = "access_token"
)

// TokenPair holds the two bearer tokens issued by the identity provider.
// They are set together and cleared together; a pair with only one token
// present is treated as logged out.
type TokenPair struct {
	IdentityToken string
	AccessToken   string
}

// TokenStore persists the token pair in durable storage. Reads always go
// back to storage so there is no cache to invalidate.
type TokenStore struct {
	store storage.Store
}

func NewTokenStore(store storage.Store) *TokenStore {
	return &TokenStore{store: store}
}

// Save writes both tokens. Partial writes are rolled back so the
// both-or-neither invariant holds even when storage fails midway.
func (t *TokenStore) Save(ctx context.Context, pair TokenPair) error {
	if err := t.store.Set(ctx, identityTokenKey, pair.IdentityToken); err != nil {
		return err
	}
	if err := t.store.Set(ctx, accessTokenKey, pair.AccessToken); err != nil {
		_ = t.store.Delete(ctx, identityTokenKey)
		return err
	}
	return nil
}

// Tokens returns the stored pair. A missing or half-written pair yields
// (TokenPair{}, false).
func (t *TokenStore) Tokens(ctx context.Context) (TokenPair, bool) {
	id, err := t.store.Get(ctx, identityTokenKey)
	if err != nil {
		return TokenPair{}, false
	}
	access, err := t.store.Get(ctx, accessTokenKey)
	if err != nil {
		return TokenPair{}, false
	}
	if id == "" || access == "" {
		return TokenPair{}, false
	}
	return TokenPair{IdentityToken: id, AccessToken: access}, true
}

// Clear removes both tokens. Not-found deletes are fine; the result is the
// same logged-out state.
func (t *TokenStore) Clear(ctx context.Context) error {
	errID := t.store.Delete(ctx, identityTokenKey)
	errAccess := t.store.Delete(ctx, accessTokenKey)
	if errID != nil && !errors.Is(errID, storage.ErrNotFound) {
		return errID
	}
	if errAccess != nil && !errors.Is(errAccess, storage.ErrNotFound) {
		return errAccess
	}
	return nil
}
