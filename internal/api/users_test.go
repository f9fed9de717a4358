package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mokomoko.app/cli/internal/auth"
	"mokomoko.app/cli/internal/core/domain"
)

func TestUsersService_RegisterCreatesBackendRecord(t *testing.T) {
	counter := newCallCounter()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		counter.record(r)
		require.NotEmpty(t, r.Header.Get("Authorization"),
			"the user record is created only after the session token is available")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "uid-new", body["firebase_uid"])
		assert.Equal(t, "new@example.com", body["email"])

		writeJSON(t, w, domain.User{ID: 42, FirebaseUID: body["firebase_uid"], Email: body["email"]})
	})

	gw := newTestGateway(mux, false)
	defer gw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := gw.Users().Register(ctx, "new@example.com", "secret-password")

	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, 1, counter.count("POST", "/users"))
}

func TestUsersService_RegisterStopsOnSignUpFailure(t *testing.T) {
	counter := newCallCounter()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		counter.record(r)
	})

	gw := newTestGateway(mux, false)
	defer gw.Close()
	gw.provider.signUpErr = auth.NewAuthError(auth.CodeEmailInUse)

	_, err := gw.Users().Register(context.Background(), "taken@example.com", "secret-password")

	var aerr *auth.AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, auth.CodeEmailInUse, aerr.Code)
	assert.Equal(t, 0, counter.total(), "no backend record without a provider account")
}

func TestUsersService_ByProviderUIDEscapesPath(t *testing.T) {
	counter := newCallCounter()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/by_firebase_uid/{uid}", func(w http.ResponseWriter, r *http.Request) {
		counter.record(r)
		writeJSON(t, w, domain.User{ID: 7, FirebaseUID: r.PathValue("uid")})
	})

	gw := newTestGateway(mux, true)
	defer gw.Close()

	user, err := gw.Users().ByProviderUID(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "uid-1", user.FirebaseUID)
}
