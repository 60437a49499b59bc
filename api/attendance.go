package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/go-church-portal/users"
)

const reportDateLayout = "2006-01-02"

// Attendance is one connect group meeting record.
type Attendance struct {
	ID        int              `json:"id"`
	Date      time.Time        `json:"date"`
	Notes     string           `json:"notes"`
	PhotoURL  string           `json:"photo_url"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Group     *AttendanceGroup `json:"group,omitempty"`
}

type AttendanceGroup struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mentor struct {
		Name string `json:"name"`
	} `json:"mentor"`
}

type AttendanceResponse struct {
	Records    []Attendance     `json:"records"`
	Pagination users.Pagination `json:"pagination"`
}

// AttendanceForm is submitted as multipart/form-data. Photo is optional.
type AttendanceForm struct {
	GroupID   string
	Date      time.Time
	Notes     string
	Photo     io.Reader
	PhotoName string
}

type AttendanceService struct {
	client *Client
}

func (s *AttendanceService) Create(ctx context.Context, form AttendanceForm) (*Attendance, error) {
	return s.submit(ctx, http.MethodPost, "/connect-attendance", form)
}

func (s *AttendanceService) Update(ctx context.Context, id string, form AttendanceForm) (*Attendance, error) {
	return s.submit(ctx, http.MethodPut, "/connect-attendance/"+url.PathEscape(id), form)
}

// List returns a page of records. Zero page or limit leaves the choice to the backend.
func (s *AttendanceService) List(ctx context.Context, page, limit int) (*AttendanceResponse, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp AttendanceResponse
	if err := s.client.Get(ctx, "/connect-attendance", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *AttendanceService) Get(ctx context.Context, id string) (*Attendance, error) {
	var a Attendance
	if err := s.client.Get(ctx, "/connect-attendance/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/connect-attendance/"+url.PathEscape(id))
}

// Report returns the attendance report for the inclusive date range as the backend sends it.
func (s *AttendanceService) Report(ctx context.Context, start, end time.Time) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("start_date", start.Format(reportDateLayout))
	query.Set("end_date", end.Format(reportDateLayout))

	var report json.RawMessage
	if err := s.client.Get(ctx, "/connect-attendance/report/data", query, &report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *AttendanceService) submit(ctx context.Context, method, path string, form AttendanceForm) (*Attendance, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, err
	}

	var a Attendance
	if err := s.client.send(ctx, method, path, nil, body, contentType, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (f AttendanceForm) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"group_id", f.GroupID},
		{"date", f.Date.UTC().Format(time.RFC3339)},
	}
	if f.Notes != "" {
		fields = append(fields, [2]string{"notes", f.Notes})
	}
	for _, field := range fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", field[0], err)
		}
	}

	if f.Photo != nil {
		name := f.PhotoName
		if name == "" {
			name = "photo"
		}
		part, err := w.CreateFormFile("photo_file", name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create photo part: %w", err)
		}
		if _, err := io.Copy(part, f.Photo); err != nil {
			return nil, "", fmt.Errorf("failed to write photo: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
