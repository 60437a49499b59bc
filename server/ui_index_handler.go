package server

import (
	"net/http"

	"github.com/jrsteele09/go-church-portal/users"
)

// IndexHandler renders the home page
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var user *users.User
		if browserID := browserIDFromCookie(r); browserID != "" {
			if entry, err := s.shells.Get(browserID); err == nil {
				user = entry.Shell.Store.User()
			}
		}
		s.renderPage(w, r, http.StatusOK, "index.html", pageData{Title: "Welcome", User: user})
	}
}
