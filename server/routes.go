package server

import (
	"net/http"

	"github.com/jrsteele09/go-church-portal/users"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+s.config.GetLoginPath(), ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthGoogle, ChainMiddleware(s.GoogleLoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.HTMLMiddleWare()...)) // For form_post response mode
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Dashboard routes (require a signed in browser shell)
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.RequireShell)...))
	s.RegisterRouteHandler("GET "+RouteDashboardUsers, ChainMiddleware(s.UsersListHandler(), s.HTMLMiddleWare(s.RequireShell, s.RequireRole((*users.User).CanManageUsers))...))
	s.RegisterRouteHandler("GET "+RouteDashboardGroups, ChainMiddleware(s.GroupsListHandler(), s.HTMLMiddleWare(s.RequireShell, s.RequireRole((*users.User).CanManageUsers))...))
	s.RegisterRouteHandler("GET "+RouteDashboardAttendance, ChainMiddleware(s.AttendanceListHandler(), s.HTMLMiddleWare(s.RequireShell, s.RequireRole((*users.User).CanManageAttendance))...))
	s.RegisterRouteHandler("GET "+RouteDashboardReport, ChainMiddleware(s.AttendanceReportHandler(), s.HTMLMiddleWare(s.RequireShell, s.RequireRole((*users.User).CanManageAttendance))...))
	s.RegisterRouteHandler("GET "+RouteDashboardBlog, ChainMiddleware(s.BlogDashboardHandler(), s.HTMLMiddleWare(s.RequireShell, s.RequireRole((*users.User).CanWritePosts))...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireShell)...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPIMe, ChainMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))
}
