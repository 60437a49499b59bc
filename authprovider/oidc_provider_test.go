package authprovider_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-church-portal/authprovider"
	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testIssuer   = "https://issuer.test"
	testClientID = "church-portal"
)

type fakeIssuer struct {
	t   *testing.T
	key *rsa.PrivateKey
	srv *httptest.Server

	mu      sync.Mutex
	revoked []string
	nonce   string
	grants  []string
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	fi := &fakeIssuer{t: t, key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", fi.token)
	mux.HandleFunc("/revoke", fi.revoke)
	fi.srv = httptest.NewServer(mux)
	t.Cleanup(fi.srv.Close)
	return fi
}

func (fi *fakeIssuer) endpoints() authprovider.Endpoints {
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&fi.key.PublicKey}}
	return authprovider.Endpoints{
		OAuth2: oauth2.Config{
			ClientID: testClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:   fi.srv.URL + "/authorize",
				TokenURL:  fi.srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: "http://localhost:8080/auth/callback",
			Scopes:      []string{oidc.ScopeOpenID, "email"},
		},
		Verifier:      oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: testClientID}),
		RevocationURL: fi.srv.URL + "/revoke",
	}
}

func (fi *fakeIssuer) idToken(nonce string) string {
	claims := jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testClientID,
		"sub":   "user-1",
		"email": "anna@church.test",
		"name":  "Anna",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(fi.key)
	require.NoError(fi.t, err)
	return signed
}

func (fi *fakeIssuer) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(fi.t, r.ParseForm())
	grant := r.PostForm.Get("grant_type")

	fi.mu.Lock()
	fi.grants = append(fi.grants, grant)
	nonce := fi.nonce
	fi.mu.Unlock()

	resp := map[string]any{
		"token_type": "Bearer",
		"expires_in": 3600,
	}
	switch grant {
	case "password":
		if r.PostForm.Get("username") != "anna@church.test" || r.PostForm.Get("password") != "secret" {
			writeOAuthError(w, "invalid_grant")
			return
		}
		resp["access_token"] = "access-1"
		resp["refresh_token"] = "refresh-1"
		resp["id_token"] = fi.idToken("")
	case "refresh_token":
		if r.PostForm.Get("refresh_token") != "refresh-1" {
			writeOAuthError(w, "invalid_grant")
			return
		}
		resp["access_token"] = "access-2"
	case "authorization_code":
		if r.PostForm.Get("code") != "code-1" || r.PostForm.Get("code_verifier") == "" {
			writeOAuthError(w, "invalid_grant")
			return
		}
		resp["access_token"] = "access-3"
		resp["refresh_token"] = "refresh-3"
		resp["id_token"] = fi.idToken(nonce)
	default:
		writeOAuthError(w, "unsupported_grant_type")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (fi *fakeIssuer) revoke(w http.ResponseWriter, r *http.Request) {
	require.NoError(fi.t, r.ParseForm())
	fi.mu.Lock()
	fi.revoked = append(fi.revoked, r.PostForm.Get("token"))
	fi.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func writeOAuthError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

type eventLog struct {
	mu     sync.Mutex
	events []authprovider.Event
}

func (l *eventLog) record(ev authprovider.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []authprovider.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]authprovider.EventType, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func TestOIDCProvider_SignInEmitsSignedIn(t *testing.T) {
	fi := newFakeIssuer(t)
	p := authprovider.New(fi.endpoints(), authprovider.WithHTTPClient(fi.srv.Client()))
	log := &eventLog{}
	p.OnAuthStateChange(log.record)

	session, err := p.SignIn(context.Background(), "anna@church.test", "secret")
	require.NoError(t, err)
	require.Equal(t, "access-1", session.AccessToken)
	require.Equal(t, "refresh-1", session.RefreshToken)
	require.NotEmpty(t, session.IDToken)
	require.False(t, session.ExpiresAt.IsZero())

	require.Equal(t, []authprovider.EventType{authprovider.EventSignedIn}, log.types())

	current, err := p.GetSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, session, current)
}

func TestOIDCProvider_SignInRejectsBadCredentials(t *testing.T) {
	fi := newFakeIssuer(t)
	p := authprovider.New(fi.endpoints(), authprovider.WithHTTPClient(fi.srv.Client()))

	_, err := p.SignIn(context.Background(), "anna@church.test", "wrong")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)

	current, err := p.GetSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, current)
}

func TestOIDCProvider_GetUserVerifiesIDToken(t *testing.T) {
	fi := newFakeIssuer(t)
	p := authprovider.New(fi.endpoints(), authprovider.WithHTTPClient(fi.srv.Client()))

	_, err := p.GetUser(context.Background())
	require.ErrorIs(t, err, errors.ErrNoSession)

	_, err = p.SignIn(context.Background(), "anna@church.test", "secret")
	require.NoError(t, err)

	identity, err := p.GetUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.Subject)
	require.Equal(t, "anna@church.test", identity.Email)
	require.Equal(t, "Anna", identity.Name)
}

func TestOIDCProvider_RefreshKeepsRefreshTokenAndIDToken(t *testing.T) {
	fi := newFakeIssuer(t)
	p := authprovider.New(fi.endpoints(), authprovider.WithHTTPClient(fi.srv.Client()))
	signedIn, err := p.SignIn(context.Background(), "anna@church.test", "secret")
	require.NoError(t, err)

	log := &eventLog{}
	p.OnAuthStateChange(log.record)

	refreshed, err := p.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "access-2", refreshed.AccessToken)
	require.Equal(t, "refresh-1", refreshed.RefreshToken)
	require.Equal(t, signedIn.IDToken, refreshed.IDToken)
	require.Equal(t, []authprovider.EventType{authprovider.EventTokenRefreshed}, log.types())
}

func TestOIDCProvider_RefreshRejected(t *testing.T) {
	fi := newFakeIssuer(t)
	p := authprovider.New(fi.endpoints(), authprovider.WithHTTPClient(fi.srv.Client()))
	log := &eventLog{}
	p.OnAuthStateChange(log.record)

	_, err := p.Refresh(context.Background(), "revoked")
	require.ErrorIs(t, err, errors.ErrInvalidRefresh)

	_, err = p.Refresh(context.Background(), "")
	require.ErrorIs(t, err, errors.ErrInvalidRefresh)

	require.Empty(t, log.types())
}

func TestOIDCProvider_ExchangeChecksNonce(t *testing.T) {
	fi := newFakeIssuer(t)
	fi.nonce = "nonce-1"
	p := authprovider.New(fi.endpoints(), authprovider.WithHTTPClient(fi.srv.Client()))

	verifier := oauth2.GenerateVerifier()
	authURL := p.AuthCodeURL("state-1", "nonce-1", verifier)
	require.Contains(t, authURL, "code_challenge=")
	require.Contains(t, authURL, "nonce=nonce-1")

	_, err := p.Exchange(context.Background(), "code-1", verifier, "other-nonce")
	require.ErrorIs(t, err, errors.ErrInvalidIDToken)

	session, err := p.Exchange(context.Background(), "code-1", verifier, "nonce-1")
	require.NoError(t, err)
	require.Equal(t, "access-3", session.AccessToken)
}

func TestOIDCProvider_SignOutRevokesAndEmits(t *testing.T) {
	fi := newFakeIssuer(t)
	p := authprovider.New(fi.endpoints(), authprovider.WithHTTPClient(fi.srv.Client()))
	_, err := p.SignIn(context.Background(), "anna@church.test", "secret")
	require.NoError(t, err)

	log := &eventLog{}
	p.OnAuthStateChange(log.record)

	require.NoError(t, p.SignOut(context.Background()))
	require.Equal(t, []authprovider.EventType{authprovider.EventSignedOut}, log.types())

	fi.mu.Lock()
	require.ElementsMatch(t, []string{"refresh-1", "access-1"}, fi.revoked)
	fi.mu.Unlock()

	current, err := p.GetSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, current)
}

func TestOIDCProvider_SignOutSurvivesRevocationFailure(t *testing.T) {
	fi := newFakeIssuer(t)
	endpoints := fi.endpoints()
	endpoints.RevocationURL = fi.srv.URL + "/missing"
	p := authprovider.New(endpoints, authprovider.WithHTTPClient(fi.srv.Client()))
	_, err := p.SignIn(context.Background(), "anna@church.test", "secret")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(context.Background()))
	current, _ := p.GetSession(context.Background())
	require.Nil(t, current)
}
