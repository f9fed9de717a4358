package auth

import (
	"context"
	"time"
)

// tokenFetchTimeout bounds the background token fetch that follows a session
// change.
const tokenFetchTimeout = 15 * time.Second

// SessionListener is the one place that connects provider session events to
// the token store. It is attached once at process start. It also exposes
// ForceRefresh, the only other permitted store writer, used by the HTTP
// client's 401 retry path.
type SessionListener struct {
	provider IdentityProvider
	store    *TokenStore
	cancel   func()
}

// AttachSessionListener subscribes to the provider's session events and wires
// them into the store. On every change it records the new identity, fetches a
// fresh token (a fetch failure is recorded but still completes loading), and
// clears the token when the session ends.
func AttachSessionListener(provider IdentityProvider, store *TokenStore) *SessionListener {
	l := &SessionListener{provider: provider, store: store}
	l.cancel = provider.SubscribeSession(l.onSessionChange)
	return l
}

// Detach removes the subscription. Only used in tests; in the application the
// listener lives for the whole process.
func (l *SessionListener) Detach() {
	if l.cancel != nil {
		l.cancel()
	}
}

// ForceRefresh obtains a fresh token from the provider and publishes it to
// the store.
func (l *SessionListener) ForceRefresh(ctx context.Context) (string, error) {
	token, err := l.provider.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	l.store.SetToken(token)
	return token, nil
}

// Token reads the current token from the store.
func (l *SessionListener) Token() (string, bool) {
	return l.store.Token()
}

func (l *SessionListener) onSessionChange(ev SessionEvent) {
	if !ev.SignedIn {
		l.store.SetToken("")
		l.store.SetError(nil)
		l.store.SetLoading(false)
		return
	}

	l.store.SetLoading(true)

	ctx, cancel := context.WithTimeout(context.Background(), tokenFetchTimeout)
	defer cancel()

	token, err := l.provider.CurrentToken(ctx)
	if err != nil {
		// Loading still completes; consumers see the error instead of
		// spinning forever.
		l.store.SetError(err)
		l.store.SetLoading(false)
		return
	}

	l.store.SetError(nil)
	l.store.SetToken(token)
	l.store.SetLoading(false)
}
