package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"mokomoko.app/cli/internal/cache"
	"mokomoko.app/cli/internal/core/domain"
)

// FavoritesService manages the acting user's favorites with an optimistic
// local set. The set is updated before the server call and rolled back when
// the call fails, so the UI never stays out of sync with the server. There is
// one instance per gateway, shared by every caller.
type FavoritesService struct {
	gw  *Gateway
	set *domain.FavoriteSet

	mu     sync.Mutex
	seeded bool
}

func newFavoritesService(gw *Gateway) *FavoritesService {
	return &FavoritesService{gw: gw, set: domain.NewFavoriteSet()}
}

// Set exposes the optimistic favorite set for rendering.
func (s *FavoritesService) Set() *domain.FavoriteSet {
	return s.set
}

// List returns the user's favorites and refreshes the local set from the
// server's authoritative copy.
func (s *FavoritesService) List(ctx context.Context) ([]domain.Favorite, error) {
	var favorites []domain.Favorite
	if err := s.gw.getJSON(ctx, keyFavorites, &favorites, cache.RequireAuth()); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.PostID)
	}
	s.set.Replace(ids)

	s.mu.Lock()
	s.seeded = true
	s.mu.Unlock()
	return favorites, nil
}

// Toggle flips the favorite state of a post. The local set changes
// immediately; the server call reconciles it, and a failure rolls the local
// change back. Returns the final state (true = favorited).
func (s *FavoritesService) Toggle(ctx context.Context, postID int64) (bool, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return s.set.Has(postID), err
	}

	nowFavorited := s.set.Toggle(postID)

	var err error
	if nowFavorited {
		_, err = s.gw.http.Request(ctx, http.MethodPost, keyFavorites, map[string]int64{"post_id": postID})
	} else {
		_, err = s.gw.http.Request(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", keyFavorites, postID), nil)
	}

	if err != nil {
		s.set.Revert(postID)
		return !nowFavorited, err
	}

	s.gw.cache.Invalidate(keyFavorites)
	return nowFavorited, nil
}

// ensureSeeded loads the server's favorite list once, so the first toggle
// flips from the server state rather than an empty set.
func (s *FavoritesService) ensureSeeded(ctx context.Context) error {
	s.mu.Lock()
	seeded := s.seeded
	s.mu.Unlock()
	if seeded {
		return nil
	}

	_, err := s.List(ctx)
	return err
}
