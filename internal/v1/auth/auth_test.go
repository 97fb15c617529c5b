package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateRoundTrips(t *testing.T) {
	iss := NewIssuer("a-very-long-test-secret-value-1234", time.Hour)

	token, err := iss.Issue("p1", "alice")
	require.NoError(t, err)

	claims, err := iss.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.PlayerID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	iss := NewIssuer("a-very-long-test-secret-value-1234", -time.Minute)

	token, err := iss.Issue("p1", "alice")
	require.NoError(t, err)

	_, err = iss.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsTokenSignedWithDifferentSecret(t *testing.T) {
	a := NewIssuer("a-very-long-test-secret-value-1234", time.Hour)
	b := NewIssuer("a-different-long-test-secret-56789", time.Hour)

	token, err := a.Issue("p1", "alice")
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.Error(t, err)
}

func TestKeyStoreIsAuthorized(t *testing.T) {
	store := NewKeyStore([]string{"admin-key-1"})

	ok, err := store.IsAuthorized(context.Background(), "admin-key-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.IsAuthorized(context.Background(), "unknown-key")
	require.NoError(t, err)
	assert.False(t, ok)
}
