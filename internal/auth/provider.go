package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"mokomoko.app/cli/internal/config"
)

// refreshAhead is how long before expiry a cached ID token is considered
// stale and refreshed instead of reused.
const refreshAhead = time.Minute

// HTTPIdentityProvider adapts an identity-toolkit style REST service to the
// IdentityProvider port. The active session is held in memory and mirrored to
// a SessionCache so it survives process restarts.
type HTTPIdentityProvider struct {
	endpoint      string
	tokenEndpoint string
	apiKey        string
	httpClient    *http.Client
	cache         SessionCache

	mu      sync.Mutex
	session *providerSession

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(SessionEvent)

	events chan SessionEvent
}

type providerSession struct {
	uid          string
	email        string
	refreshToken string
	idToken      string
	expiresAt    time.Time
}

// NewHTTPIdentityProvider creates a provider from the identity configuration.
func NewHTTPIdentityProvider(cfg config.IdentityConfig, cache SessionCache) *HTTPIdentityProvider {
	p := &HTTPIdentityProvider{
		endpoint:      strings.TrimSuffix(cfg.Endpoint, "/"),
		tokenEndpoint: strings.TrimSuffix(cfg.TokenEndpoint, "/"),
		apiKey:        cfg.APIKey,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		cache:         cache,
		subs:          make(map[int]func(SessionEvent)),
		events:        make(chan SessionEvent, 16),
	}
	go p.dispatch()
	return p
}

// credentialResponse is the provider's answer to sign-in and sign-up calls.
type credentialResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	ExpiresIn    string `json:"expiresIn"`
}

// SignIn authenticates with email and password.
func (p *HTTPIdentityProvider) SignIn(ctx context.Context, email, password string) error {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp credentialResponse
	if err := p.callIdentity(ctx, "accounts:signInWithPassword", body, &resp); err != nil {
		return err
	}

	p.adoptSession(resp)
	return nil
}

// SignUp registers a new account and starts a session for it.
func (p *HTTPIdentityProvider) SignUp(ctx context.Context, email, password string) error {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp credentialResponse
	if err := p.callIdentity(ctx, "accounts:signUp", body, &resp); err != nil {
		return err
	}

	p.adoptSession(resp)
	return nil
}

// SignOut ends the session locally and clears the persisted copy.
func (p *HTTPIdentityProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()

	if err := p.cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear session cache: %w", err)
	}

	p.emit(SessionEvent{SignedIn: false})
	return nil
}

// ResetPassword asks the provider to send a password reset mail.
func (p *HTTPIdentityProvider) ResetPassword(ctx context.Context, email string) error {
	body := map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}
	return p.callIdentity(ctx, "accounts:sendOobCode", body, nil)
}

// CurrentToken returns the cached ID token while it is comfortably unexpired,
// otherwise exchanges the refresh token for a new one.
func (p *HTTPIdentityProvider) CurrentToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return "", NewAuthError(CodeNotAuthenticated)
	}
	if p.session.idToken != "" && time.Now().Before(p.session.expiresAt.Add(-refreshAhead)) {
		token := p.session.idToken
		p.mu.Unlock()
		return token, nil
	}
	p.mu.Unlock()

	return p.RefreshToken(ctx)
}

// RefreshToken forces a new ID token from the secure-token endpoint.
func (p *HTTPIdentityProvider) RefreshToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.session == nil || p.session.refreshToken == "" {
		p.mu.Unlock()
		return "", NewAuthError(CodeNotAuthenticated)
	}
	refreshToken := p.session.refreshToken
	p.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := fmt.Sprintf("%s/token?key=%s", p.tokenEndpoint, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Code: CodeNetwork}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeProviderError(resp)
	}

	var tokenResp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		UserID       string `json:"user_id"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}

	p.mu.Lock()
	if p.session != nil {
		p.session.idToken = tokenResp.IDToken
		p.session.refreshToken = tokenResp.RefreshToken
		p.session.expiresAt = time.Now().Add(parseExpiresIn(tokenResp.ExpiresIn))
		if tokenResp.UserID != "" {
			p.session.uid = tokenResp.UserID
		} else if claims, cErr := ParseIdentityClaims(tokenResp.IDToken); cErr == nil {
			// The secure-token response does not always carry user_id;
			// the ID token claims do.
			p.session.uid = claims.UID
			if p.session.email == "" {
				p.session.email = claims.Email
			}
		}
	}
	p.mu.Unlock()

	p.persistSession()
	return tokenResp.IDToken, nil
}

// CurrentUID returns the provider uid of the active session, or "".
func (p *HTTPIdentityProvider) CurrentUID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return ""
	}
	return p.session.uid
}

// SubscribeSession registers a session-change callback.
func (p *HTTPIdentityProvider) SubscribeSession(fn func(SessionEvent)) func() {
	p.subMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

// Restore loads the persisted session, if any, and announces it. Called once
// at startup after the session listener is attached.
func (p *HTTPIdentityProvider) Restore(ctx context.Context) {
	persisted, err := p.cache.Load()
	if err != nil || persisted == nil {
		p.emit(SessionEvent{SignedIn: false})
		return
	}

	p.mu.Lock()
	p.session = &providerSession{
		uid:          persisted.UID,
		email:        persisted.Email,
		refreshToken: persisted.RefreshToken,
	}
	p.mu.Unlock()

	p.emit(SessionEvent{SignedIn: true, UID: persisted.UID, Email: persisted.Email})
}

// callIdentity posts a JSON body to an identity-toolkit action and decodes
// the response into out when non-nil.
func (p *HTTPIdentityProvider) callIdentity(ctx context.Context, action string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", p.endpoint, action, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &AuthError{Code: CodeNetwork}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeProviderError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// adoptSession replaces the active session from sign-in/sign-up credentials
// and announces the change. The event is delivered asynchronously, so the
// calling operation resolves before the token store is updated.
func (p *HTTPIdentityProvider) adoptSession(resp credentialResponse) {
	p.mu.Lock()
	p.session = &providerSession{
		uid:          resp.LocalID,
		email:        resp.Email,
		refreshToken: resp.RefreshToken,
		idToken:      resp.IDToken,
		expiresAt:    time.Now().Add(parseExpiresIn(resp.ExpiresIn)),
	}
	p.mu.Unlock()

	p.persistSession()
	p.emit(SessionEvent{SignedIn: true, UID: resp.LocalID, Email: resp.Email})
}

func (p *HTTPIdentityProvider) persistSession() {
	p.mu.Lock()
	session := p.session
	var persisted *PersistedSession
	if session != nil {
		persisted = &PersistedSession{
			UID:          session.uid,
			Email:        session.email,
			RefreshToken: session.refreshToken,
		}
	}
	p.mu.Unlock()

	if persisted != nil {
		// A failed save only costs the user a re-login next run.
		_ = p.cache.Save(persisted)
	}
}

func (p *HTTPIdentityProvider) emit(ev SessionEvent) {
	p.events <- ev
}

// dispatch delivers session events to subscribers one at a time, in emit
// order. A handler may block on a network call; later events wait behind it
// rather than overtake it.
func (p *HTTPIdentityProvider) dispatch() {
	for ev := range p.events {
		p.subMu.Lock()
		subs := make([]func(SessionEvent), 0, len(p.subs))
		for _, fn := range p.subs {
			subs = append(subs, fn)
		}
		p.subMu.Unlock()

		for _, fn := range subs {
			fn(ev)
		}
	}
}

// decodeProviderError maps the provider's error envelope onto the stable
// taxonomy.
func decodeProviderError(resp *http.Response) *AuthError {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Message == "" {
		return &AuthError{Code: CodeUnknown}
	}
	return providerError(body.Error.Message)
}

func parseExpiresIn(s string) time.Duration {
	secs, err := strconv.Atoi(s)
	if err != nil || secs <= 0 {
		return time.Hour
	}
	return time.Duration(secs) * time.Second
}
