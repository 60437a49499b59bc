package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/server/loginsession"
	"github.com/jrsteele09/go-church-portal/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyBrowser stores the browser's *loginsession.Entry
const ContextKeyBrowser ContextKey = "browser"

func browserFromContext(ctx context.Context) *loginsession.Entry {
	entry, _ := ctx.Value(ContextKeyBrowser).(*loginsession.Entry)
	return entry
}

// RequireShell admits requests from a browser whose shell holds a session and a profile.
// A missing profile is resolved here; anything that sends the shell to login becomes a redirect.
func (s *Server) RequireShell(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := s.browserEntry(w, r, false)
		if err != nil {
			if !errors.Is(err, errors.ErrNoSession) {
				s.logger.Err(err).Msg("Failed to mount browser shell")
			}
			s.unauthenticated(w, r)
			return
		}
		if followNavigation(w, r, entry) {
			return
		}
		if entry.Shell.Store.Session() == nil {
			s.unauthenticated(w, r)
			return
		}

		if entry.Shell.Store.User() == nil {
			if _, err := entry.Shell.Profiles.Resolve(r.Context()); err != nil {
				if followNavigation(w, r, entry) {
					return
				}
				s.logger.Err(err).Str("browser_id", entry.BrowserID).Msg("Profile unavailable")
				if isAPIRequest(r) {
					writeJSONError(w, http.StatusServiceUnavailable, "profile unavailable")
					return
				}
				http.Error(w, "Your profile could not be loaded, please try again shortly", http.StatusServiceUnavailable)
				return
			}
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyBrowser, entry)))
	}
}

// RequireRole must follow RequireShell. Users the gate rejects get 403.
func (s *Server) RequireRole(allowed func(*users.User) bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			entry := browserFromContext(r.Context())
			if entry == nil {
				s.unauthenticated(w, r)
				return
			}
			// A concurrent failed refresh may have cleared the store since RequireShell ran.
			user := entry.Shell.Store.User()
			if user == nil {
				s.unauthenticated(w, r)
				return
			}
			if !allowed(user) {
				s.logger.Warn().Err(errors.ErrForbiddenRole).Str("browser_id", entry.BrowserID).Str("role", string(user.Role)).Str("path", r.URL.Path).Msg("Role not permitted")
				if isAPIRequest(r) {
					writeJSONError(w, http.StatusForbidden, "forbidden")
					return
				}
				s.renderPage(w, r, http.StatusForbidden, "forbidden.html", pageData{Title: "Access denied", User: user})
				return
			}
			next(w, r)
		}
	}
}

func (s *Server) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	redirectSuccess(w, r, s.config.GetLoginPath())
}
