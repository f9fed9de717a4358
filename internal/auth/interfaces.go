package auth

import "context"

// SessionEvent is delivered to subscribers whenever the provider session
// changes (sign-in, sign-up, restore, sign-out).
type SessionEvent struct {
	SignedIn bool
	UID      string
	Email    string
}

// IdentityProvider wraps the external identity service. Session changes are
// observed through SubscribeSession; SignIn and SignUp resolve before the
// resulting event is delivered, so callers must not assume a token is
// available synchronously afterwards.
type IdentityProvider interface {
	// SignIn authenticates with email and password. Fails with an
	// *AuthError carrying InvalidCredentials, UserNotFound,
	// TooManyRequests or Network.
	SignIn(ctx context.Context, email, password string) error

	// SignUp registers a new account. Fails with EmailInUse, WeakPassword
	// or a generic AuthError.
	SignUp(ctx context.Context, email, password string) error

	// SignOut ends the session; the session-end event clears the token
	// store.
	SignOut(ctx context.Context) error

	// ResetPassword dispatches a password reset mail. Fire-and-forget;
	// UserNotFound is surfaced only when the provider reports it.
	ResetPassword(ctx context.Context, email string) error

	// CurrentToken returns a valid ID token, refreshing transparently
	// when the cached one is near expiry.
	CurrentToken(ctx context.Context) (string, error)

	// RefreshToken always forces a fresh token from the provider. Fails
	// with NotAuthenticated when no session is active.
	RefreshToken(ctx context.Context) (string, error)

	// CurrentUID returns the provider uid of the active session, or "".
	CurrentUID() string

	// SubscribeSession registers a session-change callback and returns a
	// cancel function. Events are delivered asynchronously.
	SubscribeSession(fn func(SessionEvent)) func()

	// Restore re-emits the persisted session at startup, if one exists.
	Restore(ctx context.Context)
}
