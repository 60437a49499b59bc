package providerfake

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/go-church-portal/authprovider"
	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/internal/utils"
	"github.com/jrsteele09/go-church-portal/sessions"
)

var _ authprovider.CodeFlowProvider = (*FakeProvider)(nil)

// RefreshFunc scripts the outcome of a refresh.
type RefreshFunc func(ctx context.Context, refreshToken string) (*sessions.Session, error)

// FakeProvider is a scripted, in-process Provider. Refresh outcomes are supplied by the test;
// sign in accepts any credentials present in Accounts.
type FakeProvider struct {
	mu       sync.RWMutex
	current  *sessions.Session
	identity *authprovider.Identity
	refresh  RefreshFunc
	accounts map[string]string
	codes    map[string]*sessions.Session

	bus *authprovider.Bus

	refreshCalls atomic.Int32
	signOutCalls atomic.Int32
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		accounts: make(map[string]string),
		codes:    make(map[string]*sessions.Session),
		bus:      authprovider.NewBus(),
	}
}

// AddAccount registers credentials accepted by SignIn.
func (f *FakeProvider) AddAccount(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = password
}

// AddAuthCode registers an authorization code that Exchange redeems for session.
func (f *FakeProvider) AddAuthCode(code string, session *sessions.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = utils.Clone(session)
}

// SetIdentity sets what GetUser returns while a session exists.
func (f *FakeProvider) SetIdentity(identity *authprovider.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = identity
}

// SetSession sets the provider's current session without emitting an event.
func (f *FakeProvider) SetSession(session *sessions.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = utils.Clone(session)
}

// OnRefresh scripts Refresh.
func (f *FakeProvider) OnRefresh(fn RefreshFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = fn
}

// RefreshReturns scripts every Refresh to succeed with session.
func (f *FakeProvider) RefreshReturns(session *sessions.Session) {
	f.OnRefresh(func(context.Context, string) (*sessions.Session, error) {
		return utils.Clone(session), nil
	})
}

// RefreshFails scripts every Refresh to fail with err.
func (f *FakeProvider) RefreshFails(err error) {
	f.OnRefresh(func(context.Context, string) (*sessions.Session, error) {
		return nil, err
	})
}

// Emit publishes ev to subscribers as if the provider had produced it.
func (f *FakeProvider) Emit(ev authprovider.Event) {
	f.mu.Lock()
	switch ev.Type {
	case authprovider.EventSignedOut:
		f.current = nil
	case authprovider.EventSignedIn, authprovider.EventTokenRefreshed:
		if ev.Session != nil {
			f.current = utils.Clone(ev.Session)
		}
	}
	f.mu.Unlock()
	f.bus.Publish(ev)
}

func (f *FakeProvider) RefreshCalls() int {
	return int(f.refreshCalls.Load())
}

func (f *FakeProvider) SignOutCalls() int {
	return int(f.signOutCalls.Load())
}

// Subscribers returns the number of live subscriptions.
func (f *FakeProvider) Subscribers() int {
	return f.bus.Len()
}

func (f *FakeProvider) GetSession(_ context.Context) (*sessions.Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return utils.Clone(f.current), nil
}

func (f *FakeProvider) GetUser(_ context.Context) (*authprovider.Identity, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current == nil {
		return nil, errors.ErrNoSession
	}
	if f.identity == nil {
		return nil, errors.ErrNoIdentity
	}
	return utils.Clone(f.identity), nil
}

func (f *FakeProvider) SignIn(_ context.Context, email, password string) (*sessions.Session, error) {
	f.mu.RLock()
	expected, ok := f.accounts[email]
	f.mu.RUnlock()
	if !ok || expected != password {
		return nil, errors.ErrInvalidCredentials
	}

	session := &sessions.Session{
		AccessToken:  fmt.Sprintf("access-%s", email),
		RefreshToken: fmt.Sprintf("refresh-%s", email),
		TokenType:    "Bearer",
	}
	f.Emit(authprovider.Event{Type: authprovider.EventSignedIn, Session: session})
	return utils.Clone(session), nil
}

func (f *FakeProvider) SignOut(_ context.Context) error {
	f.signOutCalls.Add(1)
	f.Emit(authprovider.Event{Type: authprovider.EventSignedOut})
	return nil
}

func (f *FakeProvider) Refresh(ctx context.Context, refreshToken string) (*sessions.Session, error) {
	f.refreshCalls.Add(1)

	f.mu.RLock()
	fn := f.refresh
	f.mu.RUnlock()
	if fn == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[FakeProvider.Refresh] no refresh scripted")
	}

	session, err := fn(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	f.Emit(authprovider.Event{Type: authprovider.EventTokenRefreshed, Session: session})
	return utils.Clone(session), nil
}

func (f *FakeProvider) OnAuthStateChange(fn func(authprovider.Event)) authprovider.Subscription {
	return f.bus.Subscribe(fn)
}

// AuthCodeURL points at a fictitious issuer and echoes the flow parameters.
func (f *FakeProvider) AuthCodeURL(state, nonce, codeVerifier string) string {
	q := url.Values{}
	q.Set("state", state)
	q.Set("nonce", nonce)
	q.Set("code_verifier", codeVerifier)
	return "https://issuer.test/authorize?" + q.Encode()
}

// Exchange redeems a code registered with AddAuthCode. Codes are single use.
func (f *FakeProvider) Exchange(_ context.Context, code, codeVerifier, nonce string) (*sessions.Session, error) {
	if codeVerifier == "" || nonce == "" {
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "[FakeProvider.Exchange] missing verifier or nonce")
	}

	f.mu.Lock()
	session, ok := f.codes[code]
	delete(f.codes, code)
	f.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidCredentials, "[FakeProvider.Exchange] unknown code %q", code)
	}

	f.Emit(authprovider.Event{Type: authprovider.EventSignedIn, Session: session})
	return utils.Clone(session), nil
}
