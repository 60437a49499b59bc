package config

import "strings"

// OAuthConfig describes the auth provider the portal signs users in with.
type OAuthConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectPath() string
	GetScopes() []string
	GetRevocationURL() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetIssuerURL() string {
	return GetEnv("AUTH_ISSUER_URL", "http://localhost:9000")
}

func (OAuth) GetClientID() string {
	return GetEnv("AUTH_CLIENT_ID", "church-portal")
}

func (OAuth) GetClientSecret() string {
	return GetEnv("AUTH_CLIENT_SECRET", "")
}

func (OAuth) GetRedirectPath() string {
	return "/auth/callback"
}

func (OAuth) GetScopes() []string {
	scopes := GetEnv("AUTH_SCOPES", "openid profile email offline_access")
	return strings.Fields(scopes)
}

// GetRevocationURL returns the RFC 7009 endpoint; empty disables revocation on sign out.
func (OAuth) GetRevocationURL() string {
	return GetEnv("AUTH_REVOCATION_URL", "")
}
