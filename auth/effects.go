package auth

import (
	"context"

	"github.com/jrsteele09/go-church-portal/navigation"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/jrsteele09/go-church-portal/users"
	"github.com/rs/zerolog"
)

// ProfileResolver loads the backend profile for the current session into the store.
type ProfileResolver interface {
	Resolve(ctx context.Context) (*users.User, error)
}

// EffectRunner executes the effects produced by Transition.
type EffectRunner struct {
	store     *sessions.Store
	navigator navigation.Navigator
	profiles  ProfileResolver
	loginPath string
	logger    zerolog.Logger
}

// EffectRunnerOption defines a function type to modify the EffectRunner instance.
type EffectRunnerOption func(*EffectRunner)

// WithLoginPath overrides where EffectNavigateLogin sends the client.
func WithLoginPath(path string) EffectRunnerOption {
	return func(r *EffectRunner) {
		r.loginPath = path
	}
}

func WithRunnerLogger(logger zerolog.Logger) EffectRunnerOption {
	return func(r *EffectRunner) {
		r.logger = logger
	}
}

// NewEffectRunner creates a runner. profiles may be nil, in which case EffectResolveProfile is skipped.
func NewEffectRunner(store *sessions.Store, navigator navigation.Navigator, profiles ProfileResolver, options ...EffectRunnerOption) *EffectRunner {
	r := &EffectRunner{
		store:     store,
		navigator: navigator,
		profiles:  profiles,
		loginPath: navigation.LoginPath,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Run executes effects in order. It never fails: a profile that cannot be resolved is logged
// and the remaining effects still run.
func (r *EffectRunner) Run(ctx context.Context, effects []Effect) {
	for _, effect := range effects {
		r.logger.Debug().Stringer("effect", effect.Kind).Msg("Running auth effect")

		switch effect.Kind {
		case EffectPersistSession:
			r.store.SetSession(effect.Session)
		case EffectClearIdentity:
			r.store.Clear()
		case EffectNavigateLogin:
			if r.navigator != nil {
				r.navigator.Navigate(r.loginPath)
			}
		case EffectResolveProfile:
			if r.profiles == nil {
				continue
			}
			if _, err := r.profiles.Resolve(ctx); err != nil {
				r.logger.Warn().Err(err).Msg("Profile resolution failed")
			}
		}
	}
}
