package auth

import (
	"context"
	"sync"
)

// Session is a snapshot of the reactive auth state.
type Session struct {
	Token     string
	IsLoading bool
	LastError error
}

// Authenticated reports whether a usable token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// TokenStore is the single source of truth for the current bearer token and
// its lifecycle flags. It only stores state; it never calls out. By contract
// the session listener and ForceRefresh are the only writers, everything else
// reads.
type TokenStore struct {
	mu      sync.RWMutex
	token   string
	loading bool
	lastErr error

	nextSub int
	subs    map[int]func(Session)
}

// NewTokenStore creates a store in the loading state, matching app start
// where the restored session has not been resolved yet.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		loading: true,
		subs:    make(map[int]func(Session)),
	}
}

// SetToken replaces the current token. All subsequent requests use the new
// value. An empty string clears it.
func (s *TokenStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	snapshot := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, snapshot)
}

// SetLoading flips the loading flag.
func (s *TokenStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	snapshot := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, snapshot)
}

// SetError records the last auth error; nil clears it.
func (s *TokenStore) SetError(err error) {
	s.mu.Lock()
	s.lastErr = err
	snapshot := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, snapshot)
}

// Token returns the current token and whether one is present.
func (s *TokenStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Authenticated reports whether a token is currently held.
func (s *TokenStore) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// Snapshot returns the full current state.
func (s *TokenStore) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers a callback invoked on every state change with the new
// snapshot. The returned function cancels the subscription.
func (s *TokenStore) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// WaitForToken blocks until a token lands in the store, loading completes
// without one, or the context expires. It backs the sign-up chain, where the
// caller must not assume the token is set synchronously after SignUp returns.
func (s *TokenStore) WaitForToken(ctx context.Context) (string, error) {
	ready := make(chan Session, 1)

	check := func(snap Session) {
		if snap.IsLoading {
			return
		}
		if snap.Token != "" || snap.LastError != nil {
			select {
			case ready <- snap:
			default:
			}
		}
	}

	cancel := s.Subscribe(check)
	defer cancel()

	// The state may already be settled.
	check(s.Snapshot())

	select {
	case snap := <-ready:
		if snap.Token != "" {
			return snap.Token, nil
		}
		return "", snap.LastError
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *TokenStore) snapshotLocked() Session {
	return Session{Token: s.token, IsLoading: s.loading, LastError: s.lastErr}
}

func (s *TokenStore) subscribersLocked() []func(Session) {
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

// notify runs outside the store lock so subscribers may read the store.
func notify(subs []func(Session), snap Session) {
	for _, fn := range subs {
		fn(snap)
	}
}
