package auth

import "errors"

var (
	ProviderRequiredErr = errors.New("auth provider is required")
	StoreRequiredErr    = errors.New("session store is required")
	RunnerRequiredErr   = errors.New("effect runner is required")
)
