package auth

import (
	"github.com/jrsteele09/go-church-portal/authprovider"
	"github.com/jrsteele09/go-church-portal/internal/utils"
	"github.com/jrsteele09/go-church-portal/sessions"
)

// State is what the listener knows about the client's authentication.
type State struct {
	Session *sessions.Session
}

// SignedIn reports whether the state carries a session.
func (s State) SignedIn() bool {
	return s.Session != nil
}

// EffectKind names a side effect requested by Transition.
type EffectKind int

const (
	EffectPersistSession EffectKind = iota + 1
	EffectClearIdentity
	EffectResolveProfile
	EffectNavigateLogin
)

func (k EffectKind) String() string {
	switch k {
	case EffectPersistSession:
		return "PersistSession"
	case EffectClearIdentity:
		return "ClearIdentity"
	case EffectResolveProfile:
		return "ResolveProfile"
	case EffectNavigateLogin:
		return "NavigateLogin"
	}
	return "Unknown"
}

// Effect is a side effect to be executed by an EffectRunner, in order.
type Effect struct {
	Kind    EffectKind
	Session *sessions.Session // set for EffectPersistSession
}

// Transition computes the next state and the effects an auth event requires.
// It performs no I/O.
func Transition(state State, ev authprovider.Event) (State, []Effect) {
	switch ev.Type {
	case authprovider.EventSignedOut:
		return State{}, []Effect{
			{Kind: EffectClearIdentity},
			{Kind: EffectNavigateLogin},
		}

	case authprovider.EventSignedIn:
		if ev.Session == nil {
			return state, nil
		}
		return State{Session: utils.Clone(ev.Session)}, []Effect{
			{Kind: EffectPersistSession, Session: utils.Clone(ev.Session)},
			{Kind: EffectResolveProfile},
		}

	case authprovider.EventTokenRefreshed:
		if ev.Session == nil {
			return state, nil
		}
		return State{Session: utils.Clone(ev.Session)}, []Effect{
			{Kind: EffectPersistSession, Session: utils.Clone(ev.Session)},
		}
	}
	return state, nil
}
