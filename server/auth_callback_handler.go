package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-church-portal/server/authflowrepo"
	"golang.org/x/oauth2"
)

// GoogleLoginHandler starts the authorization code flow with PKCE. The issuer is expected to
// federate to Google; the portal only sees the code coming back.
func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := s.browserEntry(w, r, true)
		if err != nil {
			s.logger.Err(err).Msg("Google login: failed to mount browser shell")
			http.Error(w, "Failed to start session", http.StatusInternalServerError)
			return
		}
		entry.Navigator.Take()

		state := uuid.NewString()
		nonce := uuid.NewString()
		verifier := oauth2.GenerateVerifier()

		err = s.authFlows.Upsert(state, &authflowrepo.AuthFlowState{
			BrowserID:    entry.BrowserID,
			CodeVerifier: verifier,
			Nonce:        nonce,
			ReturnURL:    safeReturnURL(r.URL.Query().Get("return_to")),
			CreatedAt:    time.Now(),
		})
		if err != nil {
			s.logger.Err(err).Msg("Google login: failed to store auth flow")
			http.Error(w, "Failed to start sign in", http.StatusInternalServerError)
			return
		}

		provider := s.codeFlow(entry)
		http.Redirect(w, r, provider.AuthCodeURL(state, nonce, verifier), http.StatusSeeOther)
	}
}

func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and POST form data
		state := r.FormValue("state")
		code := r.FormValue("code")
		loginPath := s.config.GetLoginPath()

		if errorParam := r.FormValue("error"); errorParam != "" {
			s.logger.Warn().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("Callback: authorization failed")
			redirectWithError(w, r, loginPath, "Sign in was cancelled or refused")
			return
		}
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		flow, err := s.authFlows.Get(state)
		if err != nil || flow == nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		// Single use
		if err := s.authFlows.Delete(state); err != nil {
			http.Error(w, "Invalid state parameter", http.StatusInternalServerError)
			return
		}

		entry, err := s.browserEntry(w, r, false)
		if err != nil || entry.BrowserID != flow.BrowserID {
			http.Error(w, "Sign in was started in another browser", http.StatusBadRequest)
			return
		}
		entry.Navigator.Take()

		if _, err := s.codeFlow(entry).Exchange(r.Context(), code, flow.CodeVerifier, flow.Nonce); err != nil {
			s.logger.Err(err).Str("browser_id", entry.BrowserID).Msg("Callback: code exchange failed")
			redirectWithError(w, r, loginPath, "Sign in failed, please try again")
			return
		}

		if followNavigation(w, r, entry) {
			return
		}
		returnURL := flow.ReturnURL
		if returnURL == "" || returnURL == RouteHome {
			returnURL = RouteDashboard
		}
		redirectSuccess(w, r, returnURL)
	}
}
