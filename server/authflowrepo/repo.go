package authflowrepo

import "time"

// AuthFlowState is what the callback needs to finish an authorization code flow.
// It is keyed by the OAuth state parameter.
type AuthFlowState struct {
	BrowserID    string
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	Delete(state string) error
}
