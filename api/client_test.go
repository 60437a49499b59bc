package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-church-portal/api"
	"github.com/jrsteele09/go-church-portal/users"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *api.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.New(srv.URL+"/", srv.Client())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestUsers_Me(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/users/me", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":       "user-1",
			"email":    "anna@church.test",
			"name":     "Anna",
			"role":     "MENTOR",
			"group_id": "group-1",
		})
	})

	me, err := client.Users.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "user-1", me.ID)
	require.Equal(t, users.RoleMentor, me.Role)
	require.True(t, me.InGroup())
}

func TestUsers_ListSendsPagingAndSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		require.Equal(t, "ann", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, map[string]any{
			"results":    []map[string]any{{"id": "user-1", "role": "MEMBER"}},
			"pagination": map[string]any{"page": 2, "limit": 10, "total": 11, "totalPages": 2},
		})
	})

	page, err := client.Users.List(context.Background(), 2, 10, "ann")
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	require.Equal(t, 2, page.Pagination.TotalPages)
}

func TestUsers_UpdateSendsJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/users/user-1", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body users.User
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Anna B", body.Name)
		body.ID = "user-1"
		writeJSON(w, http.StatusOK, body)
	})

	updated, err := client.Users.Update(context.Background(), "user-1", &users.User{Name: "Anna B", Role: users.RoleMember})
	require.NoError(t, err)
	require.Equal(t, "user-1", updated.ID)
}

func TestClient_DeleteAcceptsNoContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/connect-groups/group-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Groups.Delete(context.Background(), "group-1"))
}

func TestGroups_ListFetchesEverything(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/connect-groups", r.URL.Path)
		require.Equal(t, "1000", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{
			"records":    []map[string]any{{"id": "group-1", "name": "Youth"}},
			"pagination": map[string]any{"page": 1, "limit": 1000, "total": 1, "totalPages": 1},
		})
	})

	groups, err := client.Groups.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Youth", groups.Records[0].Name)
}

func TestClient_ErrorKeepsResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": []string{"name is required", "email is invalid"}})
	})

	_, err := client.Users.Create(context.Background(), &users.User{})
	var re *api.ResponseError
	require.ErrorAs(t, err, &re)
	require.Equal(t, http.StatusBadRequest, re.StatusCode)
	require.Equal(t, "name is required; email is invalid", re.Message())
	require.False(t, api.IsAuthFailure(err))
	require.False(t, api.IsNotFound(err))
}

func TestIsAuthFailure(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		err := fmt.Errorf("wrapped: %w", &api.ResponseError{StatusCode: code})
		require.True(t, api.IsAuthFailure(err), code)
	}
	require.False(t, api.IsAuthFailure(&api.ResponseError{StatusCode: http.StatusInternalServerError}))
	require.False(t, api.IsAuthFailure(io.EOF))
	require.True(t, api.IsNotFound(&api.ResponseError{StatusCode: http.StatusNotFound}))
}

func TestAttendance_CreateSendsMultipart(t *testing.T) {
	date := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/connect-attendance", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "group-1", r.FormValue("group_id"))
		require.Equal(t, "2026-03-01T19:00:00Z", r.FormValue("date"))
		require.Equal(t, "good night", r.FormValue("notes"))

		file, header, err := r.FormFile("photo_file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		require.Equal(t, "group.jpg", header.Filename)
		require.Equal(t, "jpeg-bytes", string(data))

		writeJSON(w, http.StatusCreated, map[string]any{"id": 7, "notes": "good night", "photo_url": "https://cdn.test/7.jpg"})
	})

	created, err := client.Attendance.Create(context.Background(), api.AttendanceForm{
		GroupID:   "group-1",
		Date:      date,
		Notes:     "good night",
		Photo:     strings.NewReader("jpeg-bytes"),
		PhotoName: "group.jpg",
	})
	require.NoError(t, err)
	require.Equal(t, 7, created.ID)
	require.Equal(t, "https://cdn.test/7.jpg", created.PhotoURL)
}

func TestAttendance_UpdateWithoutPhoto(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/connect-attendance/7", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("photo_file")
		require.ErrorIs(t, err, http.ErrMissingFile)
		require.Empty(t, r.FormValue("notes"))
		writeJSON(w, http.StatusOK, map[string]any{"id": 7})
	})

	_, err := client.Attendance.Update(context.Background(), "7", api.AttendanceForm{GroupID: "group-1", Date: time.Now()})
	require.NoError(t, err)
}

func TestAttendance_Report(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/connect-attendance/report/data", r.URL.Path)
		require.Equal(t, "2026-01-01", r.URL.Query().Get("start_date"))
		require.Equal(t, "2026-01-31", r.URL.Query().Get("end_date"))
		writeJSON(w, http.StatusOK, map[string]any{"groups": []any{}})
	})

	report, err := client.Attendance.Report(context.Background(),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.JSONEq(t, `{"groups":[]}`, string(report))
}

func TestAttendance_ListOmitsZeroPaging(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{"records": []any{}, "pagination": map[string]any{"page": 1}})
	})

	resp, err := client.Attendance.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Pagination.Page)
}
