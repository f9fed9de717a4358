// Package api exposes the MokoMoko REST resources as typed services. Reads go
// through the shared response cache; writes go straight to the authenticated
// client and invalidate the affected cache keys.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mokomoko.app/cli/internal/auth"
	"mokomoko.app/cli/internal/cache"
	"mokomoko.app/cli/internal/httpx"
)

// Cache keys, one per resource path as requested from the API.
const (
	keyPosts             = "/posts"
	keyMyPosts           = "/posts/my"
	keyFavorites         = "/favorites"
	keyCampaigns         = "/seasonal_campaigns"
	keyCurrentCampaign   = "/seasonal_campaigns/current"
	keySecondaryCampaign = "/seasonal_campaigns/current_secondary"
)

func keyPost(id int64) string        { return fmt.Sprintf("/posts/%d", id) }
func keyProfile(userID int64) string { return fmt.Sprintf("/profiles/%d", userID) }
func keyCampaign(id int64) string    { return fmt.Sprintf("/seasonal_campaigns/%d", id) }
func keyPostsBySeason(season string) string {
	return fmt.Sprintf("/posts?season=%s", season)
}

// Gateway bundles the authenticated HTTP client, the response cache and the
// auth layer that every domain service composes.
type Gateway struct {
	http      *httpx.Client
	cache     *cache.Cache
	store     *auth.TokenStore
	provider  auth.IdentityProvider
	favorites *FavoritesService

	mu          sync.Mutex
	resolvedUID string
	resolvedID  int64
}

// NewGateway wires a gateway around the given client and auth layer. The
// cache fetches through the client, so cached reads carry the same auth and
// retry semantics as direct ones.
func NewGateway(client *httpx.Client, store *auth.TokenStore, provider auth.IdentityProvider, opts ...cache.Option) *Gateway {
	g := &Gateway{
		http:     client,
		store:    store,
		provider: provider,
	}

	cacheOpts := append([]cache.Option{cache.WithAuthCheck(store.Authenticated)}, opts...)
	g.cache = cache.New(func(ctx context.Context, key string) ([]byte, error) {
		return client.Get(ctx, key)
	}, cacheOpts...)
	g.favorites = newFavoritesService(g)

	return g
}

// Cache exposes the shared cache, mainly for revalidation triggers and the
// TUI's non-blocking reads.
func (g *Gateway) Cache() *cache.Cache {
	return g.cache
}

func (g *Gateway) Posts() *PostsService         { return &PostsService{gw: g} }
func (g *Gateway) Profiles() *ProfilesService   { return &ProfilesService{gw: g} }
func (g *Gateway) Campaigns() *CampaignsService { return &CampaignsService{gw: g} }
func (g *Gateway) Users() *UsersService         { return &UsersService{gw: g} }

// Favorites returns the one favorites service for this gateway. The optimistic
// set lives on the service, so every caller has to see the same instance.
func (g *Gateway) Favorites() *FavoritesService { return g.favorites }

// CurrentUserID resolves the acting session's backend user id, memoized per
// provider uid.
func (g *Gateway) CurrentUserID(ctx context.Context) (int64, error) {
	uid := g.provider.CurrentUID()
	if uid == "" {
		return 0, auth.NewAuthError(auth.CodeNotAuthenticated)
	}

	g.mu.Lock()
	if g.resolvedUID == uid {
		id := g.resolvedID
		g.mu.Unlock()
		return id, nil
	}
	g.mu.Unlock()

	user, err := g.Users().ByProviderUID(ctx, uid)
	if err != nil {
		return 0, err
	}

	g.mu.Lock()
	g.resolvedUID = uid
	g.resolvedID = user.ID
	g.mu.Unlock()
	return user.ID, nil
}

// getJSON reads a cached key and decodes it into out.
func (g *Gateway) getJSON(ctx context.Context, key string, out any, opts ...cache.ReadOption) error {
	data, err := g.cache.Get(ctx, key, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", key, err)
	}
	return nil
}
