package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHome = "/"

	// Auth Routes - Login & Logout
	RouteLogin      = "/login"
	RouteAuthLogin  = "/auth/login"
	RouteAuthGoogle = "/auth/google"
	RouteAuthLogout = "/auth/logout"
	RouteCallback   = "/auth/callback"

	// Dashboard Routes
	RouteDashboard           = "/dashboard"
	RouteDashboardUsers      = "/dashboard/users"
	RouteDashboardGroups     = "/dashboard/groups"
	RouteDashboardAttendance = "/dashboard/attendance"
	RouteDashboardReport     = "/dashboard/report"
	RouteDashboardBlog       = "/dashboard/blog"

	// API Routes
	RouteAPIMe = "/api/me"
)
