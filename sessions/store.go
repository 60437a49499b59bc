package sessions

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/internal/utils"
	"github.com/jrsteele09/go-church-portal/users"
	"github.com/rs/zerolog"
)

const defaultPersistTimeout = 2 * time.Second

// Snapshot is a point-in-time copy of the store's state.
type Snapshot struct {
	Session *Session
	User    *users.User
	Version uint64
}

// SignedIn reports whether the snapshot carries a session.
func (s Snapshot) SignedIn() bool {
	return s.Session != nil
}

// Store is the single source of truth for "am I logged in, and with what credential" within one
// client context. Every mutation is mirrored into durable storage. Mutators never fail: storage
// errors are logged and the in-memory state stays authoritative. Last write wins.
type Store struct {
	mu      sync.RWMutex
	session *Session
	user    *users.User
	version uint64

	notifyMu sync.Mutex
	watchers map[string]func(Snapshot)

	storage        Storage
	persistTimeout time.Duration
	logger         zerolog.Logger
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithPersistTimeout bounds every storage call made by a mutator.
func WithPersistTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.persistTimeout = d
	}
}

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty store mirrored into storage. A nil storage keeps state in memory only.
func NewStore(storage Storage, options ...StoreOption) *Store {
	s := &Store{
		watchers:       make(map[string]func(Snapshot)),
		storage:        storage,
		persistTimeout: defaultPersistTimeout,
		logger:         zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// SetSession replaces the current session. Passing nil is equivalent to clearing it.
func (s *Store) SetSession(session *Session) {
	s.mutate(func() {
		s.session = utils.Clone(session)
		s.persist(KeySession, s.session)
	})
}

// SetUser replaces the cached profile without touching the session.
func (s *Store) SetUser(user *users.User) {
	s.mutate(func() {
		s.user = utils.Clone(user)
		s.persist(KeyUser, s.user)
	})
}

// ClearUser drops the cached profile without touching the session.
func (s *Store) ClearUser() {
	s.SetUser(nil)
}

// Clear drops user and session together. Watchers observe a single transition to the
// signed-out state, never a profile without a session.
func (s *Store) Clear() {
	s.mutate(func() {
		s.user = nil
		s.session = nil
		s.persist(KeyUser, s.user)
		s.persist(KeySession, s.session)
	})
}

// Session returns a copy of the current session, or nil.
func (s *Store) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return utils.Clone(s.session)
}

// User returns a copy of the cached profile, or nil.
func (s *Store) User() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return utils.Clone(s.user)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Watch registers fn to be called after every mutation, in mutation order.
// fn must not mutate the store.
func (s *Store) Watch(fn func(Snapshot)) (cancel func()) {
	id := uuid.New().String()
	s.notifyMu.Lock()
	s.watchers[id] = fn
	s.notifyMu.Unlock()

	return func() {
		s.notifyMu.Lock()
		delete(s.watchers, id)
		s.notifyMu.Unlock()
	}
}

// Load rehydrates the store from durable storage. Snapshots that cannot be decoded, or that
// the storage reports as corrupt, are deleted so a corrupt value cannot wedge every future boot.
func (s *Store) Load(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	session, err := load[Session](ctx, s, KeySession)
	if err != nil {
		return err
	}
	user, err := load[users.User](ctx, s, KeyUser)
	if err != nil {
		return err
	}

	s.mutate(func() {
		s.session = session
		s.user = user
	})
	return nil
}

func load[T any](ctx context.Context, s *Store, key string) (*T, error) {
	raw, found, err := s.storage.Get(ctx, key)
	if errors.Is(err, errors.ErrStorageCorrupt) {
		s.discard(ctx, key, err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !found || raw == "" || raw == "null" {
		return nil, nil
	}
	value := new(T)
	if err := json.Unmarshal([]byte(raw), value); err != nil {
		s.discard(ctx, key, err)
		return nil, nil
	}
	return value, nil
}

func (s *Store) discard(ctx context.Context, key string, cause error) {
	s.logger.Warn().Err(cause).Str("key", key).Msg("Discarding corrupt stored snapshot")
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Err(err).Str("key", key).Msg("Failed to delete corrupt snapshot")
	}
}

// mutate applies fn under the write lock and then notifies watchers. The notify lock is taken
// before the write lock is released so watchers see snapshots in mutation order.
func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.version++
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, w := range s.watchers {
		w(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Session: utils.Clone(s.session),
		User:    utils.Clone(s.user),
		Version: s.version,
	}
}

// persist must be called with mu held so storage sees writes in the same order as memory.
func (s *Store) persist(key string, value any) {
	if s.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	if isNil(value) {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Err(err).Str("key", key).Msg("Failed to delete persisted snapshot")
		}
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Err(err).Str("key", key).Msg("Failed to encode snapshot")
		return
	}
	if err := s.storage.Set(ctx, key, string(data)); err != nil {
		s.logger.Err(err).Str("key", key).Msg("Failed to persist snapshot")
	}
}

func isNil(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *Session:
		return t == nil
	case *users.User:
		return t == nil
	}
	return false
}
