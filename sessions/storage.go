package sessions

import "context"

// Keys under which the store mirrors its state.
const (
	KeySession = "session"
	KeyUser    = "user"
)

// Storage is a durable key/value string store that survives restarts of a client context.
type Storage interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set overwrites the value for key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
