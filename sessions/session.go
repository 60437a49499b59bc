package sessions

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Session is the bearer credential pair for one client context.
// The access token is short-lived; the refresh token buys a new pair without user interaction.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// FromOAuth2Token maps a token response onto a Session. When the provider did not send
// expires_in the expiry is taken from the access token's exp claim, if it is a JWT.
func FromOAuth2Token(t *oauth2.Token) *Session {
	if t == nil {
		return nil
	}
	s := &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresAt:    t.Expiry,
	}
	if idToken, ok := t.Extra("id_token").(string); ok {
		s.IDToken = idToken
	}
	if s.ExpiresAt.IsZero() {
		if exp, ok := AccessTokenExpiry(s.AccessToken); ok {
			s.ExpiresAt = exp
		}
	}
	return s
}

// OAuth2Token converts the session back for use with an oauth2.TokenSource.
func (s *Session) OAuth2Token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.ExpiresAt,
	}
	if s.IDToken != "" {
		t = t.WithExtra(map[string]any{"id_token": s.IDToken})
	}
	return t
}

// Expired reports whether the access token is past its expiry. A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthorizationHeader returns the value for the Authorization header.
func (s *Session) AuthorizationHeader() string {
	return "Bearer " + s.AccessToken
}

// AccessTokenExpiry reads the exp claim of a JWT access token without verifying it.
// The backend verifies the token; the portal only needs a hint for display and rehydration.
func AccessTokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
