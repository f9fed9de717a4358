package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_StartsLoading(t *testing.T) {
	store := NewTokenStore()

	snap := store.Snapshot()
	assert.True(t, snap.IsLoading)
	assert.False(t, snap.Authenticated())
	assert.False(t, store.Authenticated())
}

func TestTokenStore_SetToken(t *testing.T) {
	store := NewTokenStore()

	store.SetToken("tok-1")
	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)

	store.SetToken("")
	_, ok = store.Token()
	assert.False(t, ok)
}

func TestTokenStore_SubscribeAndCancel(t *testing.T) {
	store := NewTokenStore()

	var got []Session
	cancel := store.Subscribe(func(s Session) {
		got = append(got, s)
	})

	store.SetToken("tok-1")
	store.SetLoading(false)
	require.Len(t, got, 2)
	assert.Equal(t, "tok-1", got[0].Token)
	assert.False(t, got[1].IsLoading)

	cancel()
	store.SetToken("tok-2")
	assert.Len(t, got, 2)
}

func TestTokenStore_WaitForToken(t *testing.T) {
	store := NewTokenStore()

	go func() {
		time.Sleep(10 * time.Millisecond)
		store.SetToken("tok-async")
		store.SetLoading(false)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	token, err := store.WaitForToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-async", token)
}

func TestTokenStore_WaitForToken_AlreadySettled(t *testing.T) {
	store := NewTokenStore()
	store.SetToken("tok-now")
	store.SetLoading(false)

	token, err := store.WaitForToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-now", token)
}

func TestTokenStore_WaitForToken_Error(t *testing.T) {
	store := NewTokenStore()
	authErr := errors.New("provider unavailable")

	go func() {
		store.SetError(authErr)
		store.SetLoading(false)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := store.WaitForToken(ctx)
	assert.ErrorIs(t, err, authErr)
}

func TestTokenStore_WaitForToken_ContextExpires(t *testing.T) {
	store := NewTokenStore()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := store.WaitForToken(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
