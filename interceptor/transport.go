package interceptor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/navigation"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const defaultRefreshTimeout = 10 * time.Second

// State of the interceptor for one request chain.
type State int

const (
	StateNormal State = iota
	StateRefreshing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "Normal"
	case StateRefreshing:
		return "Refreshing"
	case StateFailed:
		return "Failed"
	}
	return "Unknown"
}

// Refresher exchanges a refresh token for a new session.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*sessions.Session, error)
}

// RefreshError is returned to the caller when an authorization failure could not be recovered.
// By then the client identity has been cleared and the client sent to login.
type RefreshError struct {
	StatusCode int   // status of the original authorization failure
	Err        error // why the refresh failed
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s after %d: %v", errors.ErrRefreshFailed, e.StatusCode, e.Err)
}

func (e *RefreshError) Unwrap() []error {
	if e.Err == nil {
		return []error{errors.ErrRefreshFailed}
	}
	return []error{errors.ErrRefreshFailed, e.Err}
}

type retriedKey struct{}

// WithRetried marks requests made with ctx as already retried; their authorization failures
// are returned untouched.
func WithRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func IsRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retriedKey{}).(bool)
	return retried
}

// Transport is an http.RoundTripper that makes access token expiry invisible to callers:
// an authorization failure triggers one refresh and one replay with the new token. When the
// refresh fails the store is cleared and the client navigated to login.
type Transport struct {
	base           http.RoundTripper
	store          *sessions.Store
	refresher      Refresher
	navigator      navigation.Navigator
	statuses       map[int]struct{}
	loginPath      string
	refreshTimeout time.Duration
	observer       func(req *http.Request, state State)
	logger         zerolog.Logger

	refreshGroup singleflight.Group
}

var _ http.RoundTripper = (*Transport)(nil)

// Option defines a function type to modify the Transport instance.
type Option func(*Transport)

// WithBase sets the transport requests are sent on. Defaults to http.DefaultTransport.
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

// WithRetryStatuses sets the response codes treated as authorization failures.
func WithRetryStatuses(codes ...int) Option {
	return func(t *Transport) {
		t.statuses = make(map[int]struct{}, len(codes))
		for _, c := range codes {
			t.statuses[c] = struct{}{}
		}
	}
}

func WithLoginPath(path string) Option {
	return func(t *Transport) {
		t.loginPath = path
	}
}

// WithRefreshTimeout bounds a refresh. The refresh is shared by concurrent requests so it
// does not follow any single caller's cancellation.
func WithRefreshTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.refreshTimeout = d
	}
}

// WithTransitionObserver registers fn to be told about every state change.
func WithTransitionObserver(fn func(req *http.Request, state State)) Option {
	return func(t *Transport) {
		t.observer = fn
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

func New(store *sessions.Store, refresher Refresher, navigator navigation.Navigator, options ...Option) *Transport {
	t := &Transport{
		base:           http.DefaultTransport,
		store:          store,
		refresher:      refresher,
		navigator:      navigator,
		loginPath:      navigation.LoginPath,
		refreshTimeout: defaultRefreshTimeout,
		logger:         zerolog.Nop(),
	}
	WithRetryStatuses(http.StatusUnauthorized, http.StatusForbidden)(t)
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Client returns an *http.Client that sends every request through t.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	getBody, err := rewindableBody(req)
	if err != nil {
		return nil, fmt.Errorf("[Transport.RoundTrip] buffering request body: %w", err)
	}

	out := req.Clone(req.Context())
	if getBody != nil {
		out.GetBody = getBody
		if out.Body, err = getBody(); err != nil {
			return nil, fmt.Errorf("[Transport.RoundTrip] rewinding request body: %w", err)
		}
	}
	if out.Header.Get("Authorization") == "" {
		if session := t.store.Session(); session != nil {
			out.Header.Set("Authorization", session.AuthorizationHeader())
		}
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if !t.isAuthFailure(resp.StatusCode) || IsRetried(req.Context()) {
		return resp, nil
	}

	status := resp.StatusCode
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	t.observe(req, StateRefreshing)
	stale := strings.TrimPrefix(out.Header.Get("Authorization"), "Bearer ")
	session, err := t.refresh(req.Context(), stale)
	if err != nil {
		t.observe(req, StateFailed)
		return nil, &RefreshError{StatusCode: status, Err: err}
	}

	replay := out.Clone(WithRetried(req.Context()))
	replay.Header.Set("Authorization", session.AuthorizationHeader())
	if getBody != nil {
		if replay.Body, err = getBody(); err != nil {
			return nil, fmt.Errorf("[Transport.RoundTrip] rewinding request body: %w", err)
		}
	}
	t.observe(req, StateNormal)
	return t.base.RoundTrip(replay)
}

// refresh returns the session to replay with. A request whose token has already been rotated
// by another request's refresh reuses the current session. Concurrent refreshes of the same
// refresh token share one call.
func (t *Transport) refresh(ctx context.Context, staleToken string) (*sessions.Session, error) {
	current := t.store.Session()
	if current == nil {
		t.logout(errors.ErrNoSession)
		return nil, errors.ErrNoSession
	}
	if staleToken != "" && current.AccessToken != staleToken {
		return current, nil
	}

	v, err, shared := t.refreshGroup.Do(current.RefreshToken, func() (any, error) {
		latest := t.store.Session()
		if latest == nil {
			t.logout(errors.ErrNoSession)
			return nil, errors.ErrNoSession
		}
		if latest.AccessToken != current.AccessToken {
			return latest, nil
		}

		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.refreshTimeout)
		defer cancel()

		session, err := t.refresher.Refresh(refreshCtx, current.RefreshToken)
		if err == nil && session == nil {
			err = errors.ErrInvalidRefresh
		}
		if err != nil {
			t.logout(err)
			return nil, err
		}
		t.store.SetSession(session)
		t.logger.Debug().Msg("Session refreshed")
		return session, nil
	})
	if shared {
		t.logger.Debug().Msg("Joined in-flight session refresh")
	}
	if err != nil {
		return nil, err
	}
	return v.(*sessions.Session), nil
}

// logout clears user and session in one step, then navigates.
func (t *Transport) logout(cause error) {
	t.logger.Warn().Err(cause).Msg("Session refresh failed, signing out")
	t.store.Clear()
	if t.navigator != nil {
		t.navigator.Navigate(t.loginPath)
	}
}

func (t *Transport) isAuthFailure(code int) bool {
	_, ok := t.statuses[code]
	return ok
}

func (t *Transport) observe(req *http.Request, state State) {
	t.logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Stringer("state", state).Msg("Interceptor transition")
	if t.observer != nil {
		t.observer(req, state)
	}
}

// rewindableBody returns a function yielding fresh copies of the request body, or nil when
// there is no body.
func rewindableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		req.Body.Close()
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}
