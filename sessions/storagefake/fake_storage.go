package storagefake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-church-portal/sessions"
)

var _ sessions.Storage = (*FakeStorage)(nil)

// FakeStorage is an in-memory sessions.Storage. It also serves the "memory" storage backend.
type FakeStorage struct {
	values map[string]string
	lock   sync.RWMutex

	// Err, when set, is returned by every call.
	Err error
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		values: make(map[string]string),
	}
}

func (fs *FakeStorage) Get(_ context.Context, key string) (string, bool, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if fs.Err != nil {
		return "", false, fs.Err
	}
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FakeStorage) Set(_ context.Context, key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.Err != nil {
		return fs.Err
	}
	fs.values[key] = value
	return nil
}

func (fs *FakeStorage) Delete(_ context.Context, key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.Err != nil {
		return fs.Err
	}
	delete(fs.values, key)
	return nil
}

// Raw returns the stored value for key, bypassing Err.
func (fs *FakeStorage) Raw(key string) (string, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	v, ok := fs.values[key]
	return v, ok
}
