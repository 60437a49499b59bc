package authflowrepo

import (
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/go-church-portal/internal/utils"
)

// DefaultTTL bounds how long a user may take at the issuer before the flow is forgotten.
const DefaultTTL = 10 * time.Minute

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*AuthFlowState
	ttl    time.Duration
	now    func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryRepoOption func(*InMemoryRepo)

func WithTTL(ttl time.Duration) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.ttl = ttl
	}
}

func WithClock(now func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.now = now
	}
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo(options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		states: make(map[string]*AuthFlowState),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Upsert stores a copy of authState. Stale flows are dropped on the way in.
func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()
	stored := utils.Clone(authState)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	r.states[state] = stored
	return nil
}

// Get returns a copy of the flow for state. Flows older than the TTL are not found.
func (r *InMemoryRepo) Get(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	authState, exists := r.states[state]
	if !exists || r.expired(authState) {
		return nil, errors.New("state not found")
	}
	return utils.Clone(authState), nil
}

// Delete removes an auth flow state
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

func (r *InMemoryRepo) pruneLocked() {
	for state, authState := range r.states {
		if r.expired(authState) {
			delete(r.states, state)
		}
	}
}

func (r *InMemoryRepo) expired(authState *AuthFlowState) bool {
	return r.ttl > 0 && r.now().Sub(authState.CreatedAt) > r.ttl
}
