package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundtrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := knownUser()

	token, expiresAt, err := issuer.Issue(&user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	id, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, id)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)
	user := knownUser()

	token, _, err := issuer.Issue(&user)
	require.NoError(t, err)

	_, err = other.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	user := knownUser()

	token, _, err := issuer.Issue(&user)
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
