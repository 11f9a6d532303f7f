package credentials_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-hms-client/credentials"
	"github.com/jrsteele09/go-hms-client/users"
	"github.com/stretchr/testify/require"
)

func TestExpired(t *testing.T) {
	now := time.Now()
	require.False(t, (*credentials.Credentials)(nil).Expired(now))
	require.False(t, (&credentials.Credentials{AccessToken: "a"}).Expired(now))
	require.False(t, (&credentials.Credentials{ExpiresAt: now.Add(time.Second)}).Expired(now))
	require.True(t, (&credentials.Credentials{ExpiresAt: now.Add(-time.Second)}).Expired(now))
}

func TestValuesOmitUnknownFields(t *testing.T) {
	values, err := (&credentials.Credentials{AccessToken: "a", RefreshToken: "r"}).Values()
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		credentials.KeyAccessToken:  "a",
		credentials.KeyRefreshToken: "r",
	}, values)
}

func TestFromValues(t *testing.T) {
	c, err := credentials.FromValues(map[string]string{
		credentials.KeyAccessToken: "a",
		credentials.KeyExpiresAt:   "1767225600000",
		credentials.KeyCurrentUser: `{"id":"u-1","email":"doc@hms.local","roles":[{"id":"doctor","name":"DOCTOR"}]}`,
	})
	require.NoError(t, err)
	require.Equal(t, time.UnixMilli(1767225600000), c.ExpiresAt)
	require.True(t, c.User.HasRole("DOCTOR"))

	_, err = credentials.FromValues(map[string]string{credentials.KeyExpiresAt: "tomorrow"})
	require.Error(t, err)
	_, err = credentials.FromValues(map[string]string{credentials.KeyCurrentUser: "{"})
	require.Error(t, err)
}

func TestToken(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	token := (&credentials.Credentials{AccessToken: "a", RefreshToken: "r", ExpiresAt: expiry}).Token()
	require.Equal(t, "Bearer", token.TokenType)
	require.Equal(t, "a", token.AccessToken)
	require.True(t, token.Valid())
	require.Nil(t, (*credentials.Credentials)(nil).Token())
}

func TestMemoryStore(t *testing.T) {
	store := credentials.NewMemoryStore()
	ctx := context.Background()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, loaded.Empty())

	saved := &credentials.Credentials{AccessToken: "a", User: &users.Profile{ID: "u-1"}}
	require.NoError(t, store.Save(ctx, saved))
	saved.User.ID = "mutated"

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "u-1", loaded.User.ID)

	require.NoError(t, store.Clear(ctx))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.True(t, loaded.Empty())
}
