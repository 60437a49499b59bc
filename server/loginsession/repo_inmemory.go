package loginsession

import (
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-church-portal/internal/errors"
)

// InMemoryRepo keeps one Entry per browser. Entries hold live shells so they cannot be
// shared between processes; the session data itself lives in the shell's storage.
type InMemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]*Entry // browserID -> Entry
	now     func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryRepoOption func(*InMemoryRepo)

// WithClock replaces time.Now when stamping LastSeen.
func WithClock(now func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.now = now
	}
}

func NewInMemoryRepo(options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Upsert stores entry under browserID, stamping CreatedAt when unset and LastSeen always.
func (r *InMemoryRepo) Upsert(browserID string, entry *Entry) error {
	if browserID == "" {
		return fmt.Errorf("browserID is required")
	}
	if entry == nil {
		return fmt.Errorf("entry is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.BrowserID = browserID
	entry.LastSeen = now
	r.entries[browserID] = entry
	return nil
}

// Get returns the browser's entry and marks it as seen.
func (r *InMemoryRepo) Get(browserID string) (*Entry, error) {
	if browserID == "" {
		return nil, fmt.Errorf("browserID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[browserID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "[InMemoryRepo.Get] browser %s", browserID)
	}
	entry.LastSeen = r.now()
	return entry, nil
}

func (r *InMemoryRepo) Delete(browserID string) error {
	if browserID == "" {
		return fmt.Errorf("browserID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, browserID)
	return nil
}

func (r *InMemoryRepo) Expire(before time.Time) []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Entry
	for id, entry := range r.entries {
		if entry.LastSeen.Before(before) {
			expired = append(expired, entry)
			delete(r.entries, id)
		}
	}
	return expired
}

// Len returns the number of live entries.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
