package sessions_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func signedAccessToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	raw, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestFromOAuth2Token(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("explicit expiry and id token", func(t *testing.T) {
		tok := (&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "bearer",
			Expiry:       expiry,
		}).WithExtra(map[string]any{"id_token": "id"})

		s := sessions.FromOAuth2Token(tok)
		require.Equal(t, "access", s.AccessToken)
		require.Equal(t, "refresh", s.RefreshToken)
		require.Equal(t, "id", s.IDToken)
		require.True(t, s.ExpiresAt.Equal(expiry))
	})

	t.Run("expiry from jwt exp claim", func(t *testing.T) {
		s := sessions.FromOAuth2Token(&oauth2.Token{AccessToken: signedAccessToken(t, expiry)})
		require.True(t, s.ExpiresAt.Equal(expiry))
	})

	t.Run("opaque token without expiry", func(t *testing.T) {
		s := sessions.FromOAuth2Token(&oauth2.Token{AccessToken: "opaque"})
		require.True(t, s.ExpiresAt.IsZero())
		require.False(t, s.Expired(time.Now()))
	})

	t.Run("nil", func(t *testing.T) {
		require.Nil(t, sessions.FromOAuth2Token(nil))
	})
}

func TestSession_RoundTripOAuth2Token(t *testing.T) {
	s := &sessions.Session{AccessToken: "a", RefreshToken: "r", IDToken: "i", ExpiresAt: time.Now().Add(time.Minute)}
	back := sessions.FromOAuth2Token(s.OAuth2Token())
	require.Equal(t, s.IDToken, back.IDToken)
	require.Equal(t, "Bearer a", back.AuthorizationHeader())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := &sessions.Session{ExpiresAt: now}
	require.True(t, s.Expired(now))
	require.False(t, s.Expired(now.Add(-time.Second)))
}
