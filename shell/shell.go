package shell

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/go-church-portal/api"
	"github.com/jrsteele09/go-church-portal/auth"
	"github.com/jrsteele09/go-church-portal/authprovider"
	"github.com/jrsteele09/go-church-portal/interceptor"
	"github.com/jrsteele09/go-church-portal/navigation"
	"github.com/jrsteele09/go-church-portal/profile"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Dependencies are the collaborators of one client context.
type Dependencies struct {
	Provider       authprovider.Provider // required
	Storage        sessions.Storage      // nil keeps the session in memory only
	Navigator      navigation.Navigator  // required
	APIBaseURL     string
	BaseTransport  http.RoundTripper // defaults to http.DefaultTransport
	LoginPath      string
	RetryStatuses  []int
	PersistTimeout time.Duration
	Logger         *zerolog.Logger // nil disables logging
}

// sessionSeeder is implemented by providers that can adopt a session restored from storage.
type sessionSeeder interface {
	SetSession(session *sessions.Session)
}

// Shell is one authenticated client context: everything that needs identity is reached from it.
type Shell struct {
	Provider  authprovider.Provider
	Store     *sessions.Store
	Transport *interceptor.Transport
	Client    *http.Client
	API       *api.Client
	Profiles  *profile.Fetcher
	Listener  *auth.Listener

	logger zerolog.Logger
}

func New(deps Dependencies) (*Shell, error) {
	if deps.Provider == nil {
		return nil, errors.New("[shell.New] Provider is required")
	}
	if deps.Navigator == nil {
		return nil, errors.New("[shell.New] Navigator is required")
	}
	if deps.LoginPath == "" {
		deps.LoginPath = navigation.LoginPath
	}
	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	storeOptions := []sessions.StoreOption{sessions.WithLogger(logger)}
	if deps.PersistTimeout > 0 {
		storeOptions = append(storeOptions, sessions.WithPersistTimeout(deps.PersistTimeout))
	}
	store := sessions.NewStore(deps.Storage, storeOptions...)

	transportOptions := []interceptor.Option{
		interceptor.WithLoginPath(deps.LoginPath),
		interceptor.WithLogger(logger),
	}
	if deps.BaseTransport != nil {
		transportOptions = append(transportOptions, interceptor.WithBase(deps.BaseTransport))
	}
	if len(deps.RetryStatuses) > 0 {
		transportOptions = append(transportOptions, interceptor.WithRetryStatuses(deps.RetryStatuses...))
	}
	transport := interceptor.New(store, deps.Provider, deps.Navigator, transportOptions...)
	client := transport.Client()

	backend := api.New(deps.APIBaseURL, client, api.WithLogger(logger))
	profiles := profile.New(store, backend.Users, deps.Navigator,
		profile.WithLoginPath(deps.LoginPath),
		profile.WithLogger(logger),
	)
	runner := auth.NewEffectRunner(store, deps.Navigator, profiles,
		auth.WithLoginPath(deps.LoginPath),
		auth.WithRunnerLogger(logger),
	)
	listener, err := auth.NewListener(deps.Provider, store, runner, auth.WithListenerLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "[shell.New] auth.NewListener")
	}

	return &Shell{
		Provider:  deps.Provider,
		Store:     store,
		Transport: transport,
		Client:    client,
		API:       backend,
		Profiles:  profiles,
		Listener:  listener,
		logger:    logger,
	}, nil
}

// Mount rehydrates the store, subscribes the listener and resolves the boot-time session.
// The store is loaded first so the listener's first event lands on restored state.
func (s *Shell) Mount(ctx context.Context) error {
	if err := s.Store.Load(ctx); err != nil {
		s.logger.Err(err).Msg("Failed to rehydrate session store")
	}

	if stored := s.Store.Session(); stored != nil {
		if seeder, ok := s.Provider.(sessionSeeder); ok {
			if live, _ := s.Provider.GetSession(ctx); live == nil {
				seeder.SetSession(stored)
			}
		}
	}

	s.Listener.Mount(ctx)
	if err := s.Listener.Initialize(ctx); err != nil {
		return errors.Wrap(err, "[Shell.Mount] Initialize")
	}
	return nil
}

// Teardown unsubscribes the listener. In-flight requests are not aborted.
func (s *Shell) Teardown() {
	s.Listener.Unmount()
}
