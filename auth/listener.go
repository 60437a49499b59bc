package auth

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-church-portal/authprovider"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Listener bridges the provider's auth events to the session store. At most one
// subscription is active no matter how often it is mounted.
type Listener struct {
	provider authprovider.Provider
	store    *sessions.Store
	runner   *EffectRunner
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
	sub   authprovider.Subscription
	ctx   context.Context
}

// ListenerOption defines a function type to modify the Listener instance.
type ListenerOption func(*Listener)

func WithListenerLogger(logger zerolog.Logger) ListenerOption {
	return func(l *Listener) {
		l.logger = logger
	}
}

func NewListener(provider authprovider.Provider, store *sessions.Store, runner *EffectRunner, options ...ListenerOption) (*Listener, error) {
	if provider == nil {
		return nil, errors.Wrap(ProviderRequiredErr, "[NewListener]")
	}
	if store == nil {
		return nil, errors.Wrap(StoreRequiredErr, "[NewListener]")
	}
	if runner == nil {
		return nil, errors.Wrap(RunnerRequiredErr, "[NewListener]")
	}

	l := &Listener{
		provider: provider,
		store:    store,
		runner:   runner,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(l)
	}
	return l, nil
}

// Mount subscribes to the provider. Effects triggered by events run with ctx, detached from
// its cancellation. Mounting an already mounted listener does nothing.
func (l *Listener) Mount(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sub != nil {
		return
	}
	l.state = State{Session: l.store.Session()}
	l.ctx = context.WithoutCancel(ctx)
	l.sub = l.provider.OnAuthStateChange(l.onEvent)
	l.logger.Debug().Msg("Auth listener mounted")
}

// Unmount drops the subscription. It is safe to call repeatedly.
func (l *Listener) Unmount() {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
		l.logger.Debug().Msg("Auth listener unmounted")
	}
}

func (l *Listener) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sub != nil
}

// State returns the listener's current view.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Initialize resolves the boot-time session: the provider's live session wins over the one
// rehydrated from storage. With neither, the client is sent to login.
func (l *Listener) Initialize(ctx context.Context) error {
	session, err := l.provider.GetSession(ctx)
	if err != nil {
		return errors.Wrap(err, "[Listener.Initialize] provider.GetSession")
	}
	if session == nil {
		session = l.store.Session()
	}

	if session == nil {
		l.dispatch(ctx, authprovider.Event{Type: authprovider.EventSignedOut})
		return nil
	}
	l.dispatch(ctx, authprovider.Event{Type: authprovider.EventSignedIn, Session: session})
	return nil
}

func (l *Listener) onEvent(ev authprovider.Event) {
	l.mu.Lock()
	ctx := l.ctx
	l.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	l.dispatch(ctx, ev)
}

// dispatch applies the transition under the lock and runs its effects outside it, since
// effects may cause the provider to publish further events.
func (l *Listener) dispatch(ctx context.Context, ev authprovider.Event) {
	l.mu.Lock()
	next, effects := Transition(l.state, ev)
	l.state = next
	l.mu.Unlock()

	l.logger.Debug().Str("event", string(ev.Type)).Int("effects", len(effects)).Msg("Auth event")
	l.runner.Run(ctx, effects)
}
