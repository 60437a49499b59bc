package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-church-portal/api"
	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/jrsteele09/go-church-portal/server/loginsession"
	"github.com/jrsteele09/go-church-portal/users"
)

const (
	usersPageSize      = 10
	attendancePageSize = 10
	postsPageSize      = 10
	reportDateLayout   = "2006-01-02"
)

type usersPage struct {
	Search string
	Users  *users.PaginatedResponse[users.User]
}

type blogPage struct {
	Packages []api.Package
	Posts    *users.PaginatedResponse[api.Post]
	Status   string
}

type reportPage struct {
	Start  string
	End    string
	Report string
}

// DashboardHandler renders the signed in user's own profile
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := browserFromContext(r.Context())
		s.renderPage(w, r, http.StatusOK, "dashboard.html", pageData{
			Title: "Dashboard",
			User:  entry.Shell.Store.User(),
		})
	}
}

func (s *Server) UsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := browserFromContext(r.Context())
		search := r.URL.Query().Get("search")

		list, err := entry.Shell.API.Users.List(r.Context(), pageParam(r), usersPageSize, search)
		if err != nil {
			s.backendError(w, r, entry, err)
			return
		}
		s.renderPage(w, r, http.StatusOK, "users.html", pageData{
			Title: "Users",
			User:  entry.Shell.Store.User(),
			Data:  usersPage{Search: search, Users: list},
		})
	}
}

func (s *Server) GroupsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := browserFromContext(r.Context())

		groups, err := entry.Shell.API.Groups.List(r.Context())
		if err != nil {
			s.backendError(w, r, entry, err)
			return
		}
		s.renderPage(w, r, http.StatusOK, "groups.html", pageData{
			Title: "Connect groups",
			User:  entry.Shell.Store.User(),
			Data:  groups,
		})
	}
}

func (s *Server) AttendanceListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := browserFromContext(r.Context())

		records, err := entry.Shell.API.Attendance.List(r.Context(), pageParam(r), attendancePageSize)
		if err != nil {
			s.backendError(w, r, entry, err)
			return
		}
		s.renderPage(w, r, http.StatusOK, "attendance.html", pageData{
			Title: "Connect attendance",
			User:  entry.Shell.Store.User(),
			Data:  records,
		})
	}
}

// AttendanceReportHandler shows the report for a date range, the current month by default
func (s *Server) AttendanceReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := browserFromContext(r.Context())

		now := time.Now()
		start := dateParam(r, "start_date", time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))
		end := dateParam(r, "end_date", now)
		if end.Before(start) {
			start, end = end, start
		}

		report, err := entry.Shell.API.Attendance.Report(r.Context(), start, end)
		if err != nil {
			s.backendError(w, r, entry, err)
			return
		}
		s.renderPage(w, r, http.StatusOK, "report.html", pageData{
			Title: "Attendance report",
			User:  entry.Shell.Store.User(),
			Data: reportPage{
				Start:  start.Format(reportDateLayout),
				End:    end.Format(reportDateLayout),
				Report: string(report),
			},
		})
	}
}

// BlogDashboardHandler lists packages and every post, drafts included. ?status narrows the posts.
func (s *Server) BlogDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := browserFromContext(r.Context())

		packages, err := entry.Shell.API.Packages.List(r.Context())
		if err != nil {
			s.backendError(w, r, entry, err)
			return
		}

		status := api.PostStatus(r.URL.Query().Get("status"))
		if status != api.PostDraft && status != api.PostPublished {
			status = ""
		}
		posts, err := entry.Shell.API.Posts.ListAdmin(r.Context(), api.PostQuery{
			PackageID: r.URL.Query().Get("package_id"),
			Status:    status,
			Search:    r.URL.Query().Get("search"),
			Page:      pageParam(r),
			Limit:     postsPageSize,
		})
		if err != nil {
			s.backendError(w, r, entry, err)
			return
		}

		s.renderPage(w, r, http.StatusOK, "blog.html", pageData{
			Title: "Blog",
			User:  entry.Shell.Store.User(),
			Data:  blogPage{Packages: packages, Posts: posts, Status: string(status)},
		})
	}
}

// MeHandler returns the cached profile as JSON
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := browserFromContext(r.Context())
		writeJSON(w, http.StatusOK, entry.Shell.Store.User())
	}
}

// backendError maps a failed backend call. A failed refresh has already cleared the shell and
// asked for login; any other failure leaves the session alone.
func (s *Server) backendError(w http.ResponseWriter, r *http.Request, entry *loginsession.Entry, err error) {
	if followNavigation(w, r, entry) {
		return
	}

	status := http.StatusBadGateway
	message := "The church backend is unavailable, please try again shortly"
	var re *api.ResponseError
	if errors.As(err, &re) {
		switch {
		case re.StatusCode == http.StatusNotFound:
			status = http.StatusNotFound
		case api.IsAuthFailure(re):
			status = http.StatusForbidden
		case re.StatusCode < 500:
			status = http.StatusBadRequest
		}
		if status != http.StatusBadGateway {
			message = re.Message()
			if message == "" {
				message = http.StatusText(status)
			}
		}
	}
	s.logger.Err(err).Str("browser_id", entry.BrowserID).Str("path", r.URL.Path).Int("status", status).Msg("Backend request failed")
	http.Error(w, message, status)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func dateParam(r *http.Request, name string, fallback time.Time) time.Time {
	t, err := time.Parse(reportDateLayout, r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return t
}
