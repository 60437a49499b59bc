package errors

import (
	"errors"
	"fmt"
)

// Common error types for the portal
var (
	// Session errors
	ErrNoSession = errors.New("no active session")

	// Authorization errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRefreshFailed      = errors.New("session refresh failed")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrInvalidIDToken     = errors.New("invalid id token")
	ErrNoIdentity         = errors.New("no identity available")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbiddenRole      = errors.New("role not permitted")

	// Profile errors
	ErrProfileUnavailable = errors.New("profile unavailable")

	// Storage errors
	ErrStorageCorrupt = errors.New("stored value is corrupt")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
