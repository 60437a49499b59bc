package server

import (
	"net/http"
	"net/url"
	"strings"
)

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, http.StatusOK, "login.html", pageData{
			Title: "Sign in",
			Error: r.URL.Query().Get("error"),
			Email: r.URL.Query().Get("email"),
		})
	}
}

// LoginSubmissionHandler signs the browser in with email and password. The shell's listener
// handles SIGNED_IN synchronously, so by the time SignIn returns the profile has been resolved
// or the shell has asked to go back to login.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		if email == "" || password == "" {
			s.renderLoginError(w, r, "Email and password are required", email)
			return
		}

		entry, err := s.browserEntry(w, r, true)
		if err != nil {
			s.logger.Err(err).Msg("Login: failed to mount browser shell")
			http.Error(w, "Failed to start session", http.StatusInternalServerError)
			return
		}
		// A signed out shell asks for /login when it mounts; the user is already here.
		entry.Navigator.Take()

		if _, err := entry.Shell.Provider.SignIn(r.Context(), email, password); err != nil {
			s.logger.Warn().Err(err).Str("browser_id", entry.BrowserID).Msg("Login: sign in rejected")
			s.renderLoginError(w, r, "Invalid email or password", email)
			return
		}

		if followNavigation(w, r, entry) {
			return
		}
		redirectSuccess(w, r, RouteDashboard)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loginPath := s.config.GetLoginPath()

		entry, err := s.browserEntry(w, r, false)
		if err != nil {
			s.setBrowserCookie(w, r, "", -1)
			redirectSuccess(w, r, loginPath)
			return
		}

		// SIGNED_OUT clears the store before the navigation is recorded.
		if err := entry.Shell.Provider.SignOut(r.Context()); err != nil {
			s.logger.Err(err).Str("browser_id", entry.BrowserID).Msg("Logout: sign out failed")
			entry.Shell.Store.Clear()
		}
		entry.Shell.Teardown()
		if err := s.shells.Delete(entry.BrowserID); err != nil {
			s.logger.Err(err).Msg("Failed to delete browser shell")
		}

		if path, ok := entry.Navigator.Take(); ok {
			loginPath = path
		}
		s.setBrowserCookie(w, r, "", -1)
		redirectSuccess(w, r, loginPath)
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, email string) {
	redirectURL := s.config.GetLoginPath() + "?error=" + url.QueryEscape(errorMsg)
	if email != "" {
		redirectURL += "&email=" + url.QueryEscape(email)
	}
	redirectSuccess(w, r, redirectURL)
}
