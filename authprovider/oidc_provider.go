package authprovider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-church-portal/internal/config"
	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/internal/utils"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Endpoints is everything learned from the issuer. It is shared by every OIDCProvider;
// each client context gets its own provider because a provider holds one session.
type Endpoints struct {
	OAuth2        oauth2.Config
	Verifier      *oidc.IDTokenVerifier
	RevocationURL string
}

// Discover reads the issuer's discovery document.
func Discover(ctx context.Context, cfg config.OAuthConfig, redirectURL string) (Endpoints, error) {
	provider, err := oidc.NewProvider(ctx, cfg.GetIssuerURL())
	if err != nil {
		return Endpoints{}, fmt.Errorf("[authprovider Discover] failed to create OIDC provider: %w", err)
	}

	revocationURL := cfg.GetRevocationURL()
	if revocationURL == "" {
		var claims struct {
			RevocationEndpoint string `json:"revocation_endpoint"`
		}
		if err := provider.Claims(&claims); err == nil {
			revocationURL = claims.RevocationEndpoint
		}
	}

	return Endpoints{
		OAuth2: oauth2.Config{
			ClientID:     cfg.GetClientID(),
			ClientSecret: cfg.GetClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       cfg.GetScopes(),
		},
		Verifier: provider.Verifier(&oidc.Config{
			ClientID: cfg.GetClientID(),
		}),
		RevocationURL: revocationURL,
	}, nil
}

// OIDCProvider implements Provider against an OAuth2 / OpenID Connect issuer.
type OIDCProvider struct {
	endpoints  Endpoints
	httpClient *http.Client
	bus        *Bus
	logger     zerolog.Logger

	mu      sync.RWMutex
	current *sessions.Session
}

var _ CodeFlowProvider = (*OIDCProvider)(nil)

// OIDCProviderOption defines a function type to modify the OIDCProvider instance.
type OIDCProviderOption func(*OIDCProvider)

// WithHTTPClient sets the client used for token, revocation and key requests.
func WithHTTPClient(client *http.Client) OIDCProviderOption {
	return func(p *OIDCProvider) {
		p.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) OIDCProviderOption {
	return func(p *OIDCProvider) {
		p.logger = logger
	}
}

func New(endpoints Endpoints, options ...OIDCProviderOption) *OIDCProvider {
	p := &OIDCProvider{
		endpoints: endpoints,
		bus:       NewBus(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *OIDCProvider) GetSession(_ context.Context) (*sessions.Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return utils.Clone(p.current), nil
}

// SetSession seeds the provider with a session restored from storage. No event is emitted.
func (p *OIDCProvider) SetSession(session *sessions.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = utils.Clone(session)
}

func (p *OIDCProvider) GetUser(ctx context.Context) (*Identity, error) {
	current, _ := p.GetSession(ctx)
	if current == nil {
		return nil, errors.ErrNoSession
	}
	if current.IDToken == "" || p.endpoints.Verifier == nil {
		return nil, errors.ErrNoIdentity
	}

	idToken, err := p.endpoints.Verifier.Verify(p.clientContext(ctx), current.IDToken)
	if err != nil {
		return nil, fmt.Errorf("[OIDCProvider.GetUser] %w: %w", errors.ErrInvalidIDToken, err)
	}

	var identity Identity
	if err := idToken.Claims(&identity); err != nil {
		return nil, fmt.Errorf("[OIDCProvider.GetUser] failed to extract claims: %w", err)
	}
	return &identity, nil
}

func (p *OIDCProvider) SignIn(ctx context.Context, email, password string) (*sessions.Session, error) {
	tok, err := p.endpoints.OAuth2.PasswordCredentialsToken(p.clientContext(ctx), email, password)
	if err != nil {
		return nil, fmt.Errorf("[OIDCProvider.SignIn] %w: %w", errors.ErrInvalidCredentials, err)
	}
	return p.signedIn(sessions.FromOAuth2Token(tok)), nil
}

// AuthCodeURL starts the authorization code flow with PKCE.
func (p *OIDCProvider) AuthCodeURL(state, nonce, codeVerifier string) string {
	return p.endpoints.OAuth2.AuthCodeURL(state,
		oauth2.S256ChallengeOption(codeVerifier),
		oidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange completes the authorization code flow and emits SIGNED_IN.
// When a verifier is configured the ID token's nonce must match.
func (p *OIDCProvider) Exchange(ctx context.Context, code, codeVerifier, nonce string) (*sessions.Session, error) {
	ctx = p.clientContext(ctx)
	tok, err := p.endpoints.OAuth2.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("[OIDCProvider.Exchange] token exchange failed: %w", err)
	}

	session := sessions.FromOAuth2Token(tok)
	if p.endpoints.Verifier != nil {
		idToken, err := p.endpoints.Verifier.Verify(ctx, session.IDToken)
		if err != nil {
			return nil, fmt.Errorf("[OIDCProvider.Exchange] %w: %w", errors.ErrInvalidIDToken, err)
		}
		if idToken.Nonce != nonce {
			return nil, fmt.Errorf("[OIDCProvider.Exchange] %w: nonce mismatch", errors.ErrInvalidIDToken)
		}
	}
	return p.signedIn(session), nil
}

func (p *OIDCProvider) Refresh(ctx context.Context, refreshToken string) (*sessions.Session, error) {
	if refreshToken == "" {
		return nil, errors.ErrInvalidRefresh
	}

	src := p.endpoints.OAuth2.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("[OIDCProvider.Refresh] %w: %w", errors.ErrInvalidRefresh, err)
		}
		return nil, errors.Wrapf(err, "[OIDCProvider.Refresh] refresh endpoint")
	}

	session := sessions.FromOAuth2Token(tok)
	p.mu.Lock()
	if session.IDToken == "" && p.current != nil {
		session.IDToken = p.current.IDToken
	}
	p.current = utils.Clone(session)
	p.mu.Unlock()

	p.bus.Publish(Event{Type: EventTokenRefreshed, Session: utils.Clone(session)})
	return session, nil
}

// SignOut forgets the session, revokes its tokens when the issuer supports it and emits
// SIGNED_OUT. Revocation failures are logged; the client is signed out regardless.
func (p *OIDCProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	current := p.current
	p.current = nil
	p.mu.Unlock()

	if current != nil && p.endpoints.RevocationURL != "" {
		if current.RefreshToken != "" {
			p.revoke(ctx, current.RefreshToken, "refresh_token")
		}
		if current.AccessToken != "" {
			p.revoke(ctx, current.AccessToken, "access_token")
		}
	}

	p.bus.Publish(Event{Type: EventSignedOut})
	return nil
}

func (p *OIDCProvider) OnAuthStateChange(fn func(Event)) Subscription {
	return p.bus.Subscribe(fn)
}

func (p *OIDCProvider) signedIn(session *sessions.Session) *sessions.Session {
	p.mu.Lock()
	p.current = utils.Clone(session)
	p.mu.Unlock()

	p.bus.Publish(Event{Type: EventSignedIn, Session: utils.Clone(session)})
	return session
}

func (p *OIDCProvider) revoke(ctx context.Context, token, tokenTypeHint string) {
	form := url.Values{}
	form.Set("token", token)
	form.Set("token_type_hint", tokenTypeHint)
	form.Set("client_id", p.endpoints.OAuth2.ClientID)
	if p.endpoints.OAuth2.ClientSecret != "" {
		form.Set("client_secret", p.endpoints.OAuth2.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoints.RevocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		p.logger.Err(err).Str("token_type", tokenTypeHint).Msg("Failed to build revocation request")
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client().Do(req)
	if err != nil {
		p.logger.Err(err).Str("token_type", tokenTypeHint).Msg("Failed to revoke token")
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		p.logger.Warn().Int("status", resp.StatusCode).Str("token_type", tokenTypeHint).Msg("Token revocation rejected")
	}
}

func (p *OIDCProvider) client() *http.Client {
	if p.httpClient != nil {
		return p.httpClient
	}
	return http.DefaultClient
}

func (p *OIDCProvider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return oidc.ClientContext(ctx, p.httpClient)
}
