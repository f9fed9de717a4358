// Package di wires the application together: configuration, the identity
// provider, the token store, the authenticated HTTP client and the gateway.
package di

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"mokomoko.app/cli/internal/api"
	"mokomoko.app/cli/internal/auth"
	"mokomoko.app/cli/internal/config"
	"mokomoko.app/cli/internal/httpx"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config

	// Auth layer
	SessionCache auth.SessionCache
	Provider     auth.IdentityProvider
	TokenStore   *auth.TokenStore
	Listener     *auth.SessionListener

	// Infrastructure
	HTTPClient *httpx.Client
	Gateway    *api.Gateway

	Logger *log.Logger
}

// NewContainer loads configuration and builds the full dependency graph. The
// persisted session, if any, is restored asynchronously; commands that need a
// token wait on the token store.
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewContainerWithConfig(cfg)
}

// NewContainerWithConfig builds the dependency graph around an existing
// configuration, which tests use to point everything at local servers.
func NewContainerWithConfig(cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: log.New(os.Stderr, "[mokomoko] ", log.LstdFlags),
	}
	if !cfg.Debug {
		c.Logger.SetOutput(io.Discard)
	}

	sessionCache, err := auth.NewFileSessionCache(cfg.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session cache: %w", err)
	}
	c.SessionCache = sessionCache

	c.Provider = auth.NewHTTPIdentityProvider(cfg.Identity, c.SessionCache)
	c.TokenStore = auth.NewTokenStore()
	c.Listener = auth.AttachSessionListener(c.Provider, c.TokenStore)

	c.HTTPClient = httpx.NewClient(cfg.API.BaseURL, cfg.API.Timeout, c.Listener)
	c.Gateway = api.NewGateway(c.HTTPClient, c.TokenStore, c.Provider)

	c.Logger.Printf("container initialized (api=%s)", cfg.API.BaseURL)
	return c, nil
}

// Restore replays the persisted session so a previously signed-in user comes
// back authenticated without typing their password again.
func (c *Container) Restore(ctx context.Context) {
	c.Provider.Restore(ctx)
}

// OverrideAPIURL rebuilds the HTTP client and gateway against another API
// endpoint. Used for the --api-url flag; any cached responses are discarded
// with the old gateway.
func (c *Container) OverrideAPIURL(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("API URL must not be empty")
	}
	c.Config.API.BaseURL = baseURL
	c.HTTPClient = httpx.NewClient(baseURL, c.Config.API.Timeout, c.Listener)
	c.Gateway = api.NewGateway(c.HTTPClient, c.TokenStore, c.Provider)
	return nil
}

// Shutdown detaches the session listener and releases resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.Listener.Detach()
	return nil
}
