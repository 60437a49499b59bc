package profile

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-church-portal/api"
	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/navigation"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/jrsteele09/go-church-portal/users"
	"github.com/rs/zerolog"
)

// Source resolves the identity behind the current access token. api.UsersService implements it.
type Source interface {
	Me(ctx context.Context) (*users.User, error)
}

// Fetcher turns the stored session into a cached profile for role gating.
type Fetcher struct {
	store     *sessions.Store
	source    Source
	navigator navigation.Navigator
	loginPath string
	logger    zerolog.Logger
}

// FetcherOption defines a function type to modify the Fetcher instance.
type FetcherOption func(*Fetcher)

func WithLoginPath(path string) FetcherOption {
	return func(f *Fetcher) {
		f.loginPath = path
	}
}

func WithLogger(logger zerolog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher. source must send its requests through the intercepted client so an
// expired token is refreshed the same way as for every other call.
func New(store *sessions.Store, source Source, navigator navigation.Navigator, options ...FetcherOption) *Fetcher {
	f := &Fetcher{
		store:     store,
		source:    source,
		navigator: navigator,
		loginPath: navigation.LoginPath,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Resolve loads the profile and stores it. An authorization failure sends the client to login;
// a backend fault is returned without touching the session.
func (f *Fetcher) Resolve(ctx context.Context) (*users.User, error) {
	if f.store.Session() == nil {
		f.navigate()
		return nil, errors.ErrNoSession
	}

	user, err := f.source.Me(ctx)
	switch {
	case err == nil:
		f.store.SetUser(user)
		f.logger.Debug().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("Profile resolved")
		return user, nil

	case errors.Is(err, errors.ErrRefreshFailed):
		return nil, err

	case api.IsAuthFailure(err):
		f.logger.Warn().Err(err).Msg("Profile lookup rejected")
		f.navigate()
		return nil, fmt.Errorf("[Fetcher.Resolve] %w: %w", errors.ErrUnauthorized, err)
	}

	f.logger.Err(err).Msg("Profile lookup failed")
	return nil, fmt.Errorf("[Fetcher.Resolve] %w: %w", errors.ErrProfileUnavailable, err)
}

func (f *Fetcher) navigate() {
	if f.navigator != nil {
		f.navigator.Navigate(f.loginPath)
	}
}
