package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"mokomoko.app/cli/internal/core/domain"
)

// UsersService manages the backend account records linked to identity
// provider accounts.
type UsersService struct {
	gw *Gateway
}

// Get returns a user by backend id.
func (s *UsersService) Get(ctx context.Context, id int64) (domain.User, error) {
	var user domain.User
	if err := s.gw.getJSON(ctx, fmt.Sprintf("/users/%d", id), &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ByProviderUID looks a user up by their identity provider uid.
func (s *UsersService) ByProviderUID(ctx context.Context, uid string) (domain.User, error) {
	var user domain.User
	key := "/users/by_firebase_uid/" + url.PathEscape(uid)
	if err := s.gw.getJSON(ctx, key, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Create registers the backend user record for a provider account.
func (s *UsersService) Create(ctx context.Context, uid, email string) (domain.User, error) {
	body, err := s.gw.http.Request(ctx, http.MethodPost, "/users", map[string]string{
		"firebase_uid": uid,
		"email":        email,
	})
	if err != nil {
		return domain.User{}, err
	}

	var user domain.User
	if err := json.Unmarshal(body, &user); err != nil {
		return domain.User{}, fmt.Errorf("failed to decode user: %w", err)
	}
	return user, nil
}

// Register runs the full sign-up chain: create the provider account, wait for
// its token to land in the store, then create the backend user record. The
// steps are strictly sequential; the token is never assumed to be present
// before the wait completes.
func (s *UsersService) Register(ctx context.Context, email, password string) (domain.User, error) {
	if err := s.gw.provider.SignUp(ctx, email, password); err != nil {
		return domain.User{}, err
	}

	if _, err := s.gw.store.WaitForToken(ctx); err != nil {
		return domain.User{}, err
	}

	return s.Create(ctx, s.gw.provider.CurrentUID(), email)
}
