package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"mokomoko.app/cli/internal/auth"
	"mokomoko.app/cli/internal/cache"
	"mokomoko.app/cli/internal/httpx"
)

// stubProvider is a minimal IdentityProvider for gateway tests.
type stubProvider struct {
	mu        sync.Mutex
	uid       string
	email     string
	signUpErr error
	subs      []func(auth.SessionEvent)
}

func (p *stubProvider) SignIn(ctx context.Context, email, password string) error { return nil }

func (p *stubProvider) SignUp(ctx context.Context, email, password string) error {
	if p.signUpErr != nil {
		return p.signUpErr
	}
	p.mu.Lock()
	p.uid = "uid-new"
	p.email = email
	subs := append([]func(auth.SessionEvent){}, p.subs...)
	p.mu.Unlock()

	ev := auth.SessionEvent{SignedIn: true, UID: "uid-new", Email: email}
	go func() {
		for _, fn := range subs {
			fn(ev)
		}
	}()
	return nil
}

func (p *stubProvider) SignOut(ctx context.Context) error                 { return nil }
func (p *stubProvider) ResetPassword(ctx context.Context, _ string) error { return nil }

func (p *stubProvider) CurrentToken(ctx context.Context) (string, error) {
	return "stub-token", nil
}

func (p *stubProvider) RefreshToken(ctx context.Context) (string, error) {
	return "stub-token", nil
}

func (p *stubProvider) CurrentUID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uid
}

func (p *stubProvider) SubscribeSession(fn func(auth.SessionEvent)) func() {
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	p.mu.Unlock()
	return func() {}
}

func (p *stubProvider) Restore(ctx context.Context) {}

// testGateway bundles everything a service test needs.
type testGateway struct {
	*Gateway
	store    *auth.TokenStore
	provider *stubProvider
	server   *httptest.Server
}

// newTestGateway wires a gateway against the given handler. When signedIn is
// set, the token store already holds a token and the provider reports uid-1.
func newTestGateway(handler http.Handler, signedIn bool) *testGateway {
	server := httptest.NewServer(handler)

	provider := &stubProvider{}
	store := auth.NewTokenStore()
	if signedIn {
		provider.uid = "uid-1"
		store.SetToken("stub-token")
	}
	store.SetLoading(false)

	listener := auth.AttachSessionListener(provider, store)
	client := httpx.NewClient(server.URL, 5*time.Second, listener)

	gw := NewGateway(client, store, provider, cache.WithRetry(0, 0))
	return &testGateway{Gateway: gw, store: store, provider: provider, server: server}
}

func (g *testGateway) Close() {
	g.server.Close()
}

// callCounter counts requests per method+path.
type callCounter struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCallCounter() *callCounter {
	return &callCounter{calls: make(map[string]int)}
}

func (c *callCounter) record(r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[r.Method+" "+r.URL.Path]++
}

func (c *callCounter) count(method, path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method+" "+path]
}

func (c *callCounter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}
