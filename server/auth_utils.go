package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-church-portal/authprovider"
	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/navigation"
	"github.com/jrsteele09/go-church-portal/server/loginsession"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/jrsteele09/go-church-portal/shell"
)

const (
	// browserCookieName identifies the browser, and through it the browser's shell.
	browserCookieName = "portal_session"

	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

func (s *Server) setBrowserCookie(w http.ResponseWriter, r *http.Request, browserID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     browserCookieName,
		Value:    browserID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func browserIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(browserCookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

// browserEntry returns the browser's mounted shell. A browser with a cookie but no live shell
// (after a restart or an idle expiry) gets a new shell rehydrated from storage. A browser
// without a cookie only gets one when create is set.
func (s *Server) browserEntry(w http.ResponseWriter, r *http.Request, create bool) (*loginsession.Entry, error) {
	browserID := browserIDFromCookie(r)
	if browserID == "" && !create {
		return nil, errors.ErrNoSession
	}

	s.mountMu.Lock()
	defer s.mountMu.Unlock()

	if browserID != "" {
		if entry, err := s.shells.Get(browserID); err == nil {
			return entry, nil
		}
	} else {
		browserID = uuid.NewString()
	}

	entry, err := s.mountShell(r.Context(), browserID)
	if err != nil {
		return nil, err
	}
	s.setBrowserCookie(w, r, browserID, int(s.config.GetMaxSessionAge().Seconds()))
	return entry, nil
}

func (s *Server) mountShell(ctx context.Context, browserID string) (*loginsession.Entry, error) {
	logger := s.logger.With().Str("browser_id", browserID).Logger()
	nav := navigation.NewRecorder()
	sh, err := shell.New(shell.Dependencies{
		Provider:       s.newProvider(),
		Storage:        s.storageFor(browserID),
		Navigator:      nav,
		APIBaseURL:     s.config.GetAPIBaseURL(),
		BaseTransport:  s.baseTransport,
		LoginPath:      s.config.GetLoginPath(),
		RetryStatuses:  s.config.GetRefreshStatusCodes(),
		PersistTimeout: s.config.GetPersistTimeout(),
		Logger:         &logger,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[Server.mountShell] browser %s", browserID)
	}
	if err := sh.Mount(ctx); err != nil {
		return nil, errors.Wrapf(err, "[Server.mountShell] browser %s", browserID)
	}

	entry := &loginsession.Entry{Shell: sh, Navigator: nav}
	if err := s.shells.Upsert(browserID, entry); err != nil {
		sh.Teardown()
		return nil, errors.Wrapf(err, "[Server.mountShell] browser %s", browserID)
	}
	logger.Debug().Bool("signed_in", sh.Store.Session() != nil).Msg("Mounted browser shell")
	return entry, nil
}

// storageFor opens the browser's storage. A storage failure degrades to a memory-only session.
func (s *Server) storageFor(browserID string) sessions.Storage {
	if s.newStorage == nil {
		return nil
	}
	storage, err := s.newStorage(browserID)
	if err != nil {
		s.logger.Err(err).Str("browser_id", browserID).Msg("Failed to open session storage")
		return nil
	}
	return storage
}

// codeFlow returns the browser's provider. Every shell is built from newProvider.
func (s *Server) codeFlow(entry *loginsession.Entry) authprovider.CodeFlowProvider {
	return entry.Shell.Provider.(authprovider.CodeFlowProvider)
}

// followNavigation turns the shell's pending navigation into the response.
func followNavigation(w http.ResponseWriter, r *http.Request, entry *loginsession.Entry) bool {
	path, ok := entry.Navigator.Take()
	if !ok {
		return false
	}
	if isAPIRequest(r) {
		writeJSONError(w, http.StatusUnauthorized, "session expired")
		return true
	}
	redirectSuccess(w, r, path)
	return true
}

// safeReturnURL accepts local paths only.
func safeReturnURL(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	return raw
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, path+"?error="+url.QueryEscape(errorMsg))
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
