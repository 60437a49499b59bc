package config

import (
	"net/http"
	"time"
)

type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageFile   StorageBackend = "file"
	StorageRedis  StorageBackend = "redis"
)

type SessionConfig interface {
	GetLoginPath() string
	GetRefreshStatusCodes() []int
	GetStorageBackend() StorageBackend
	GetStorageKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetPersistTimeout() time.Duration
	GetMaxSessionAge() time.Duration
	GetShellIdleTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetLoginPath() string {
	return GetEnv("LOGIN_PATH", "/login")
}

// GetRefreshStatusCodes returns the statuses the backend uses for an expired token.
// Deployments differ: some answer 401, others 403.
func (Session) GetRefreshStatusCodes() []int {
	return GetEnvInts("REFRESH_STATUS_CODES", []int{http.StatusUnauthorized, http.StatusForbidden})
}

func (Session) GetStorageBackend() StorageBackend {
	return StorageBackend(GetEnv("STORAGE_BACKEND", string(StorageMemory)))
}

// GetStorageKey returns a 64 char hex key used to seal session files. Empty stores them in plain text.
func (Session) GetStorageKey() string {
	return GetEnv("STORAGE_KEY_HEX", "")
}

func (Session) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Session) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Session) GetPersistTimeout() time.Duration {
	return GetEnvDuration("PERSIST_TIMEOUT", 2*time.Second)
}

func (Session) GetMaxSessionAge() time.Duration {
	return GetEnvDuration("MAX_SESSION_AGE", 7*24*time.Hour)
}

// GetShellIdleTimeout is how long a browser's shell stays mounted without requests.
// The stored session outlives it and is rehydrated on the next request.
func (Session) GetShellIdleTimeout() time.Duration {
	return GetEnvDuration("SHELL_IDLE_TIMEOUT", 30*time.Minute)
}
