package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-church-portal/internal/errors"
	"github.com/rs/zerolog"
)

const maxErrorBody = 64 << 10

// ResponseError is returned for any non-2xx response. It carries the backend's reply so
// callers can render a message specific to the failure.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("api: %s %s: %s", e.Method, e.URL, e.Status)
}

// Message returns the backend's "message" field when the body is a JSON error document.
func (e *ResponseError) Message() string {
	var doc struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &doc); err != nil {
		return ""
	}
	switch m := doc.Message.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, p := range m {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// IsAuthFailure reports whether err is a 401 or 403 from the backend.
func IsAuthFailure(err error) bool {
	var re *ResponseError
	if !errors.As(err, &re) {
		return false
	}
	return re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// Client talks JSON to the backend REST API. Authentication is the job of the *http.Client
// it is given, normally one built by interceptor.Transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	Users      *UsersService
	Groups     *GroupsService
	Attendance *AttendanceService
	Packages   *PackagesService
	Posts      *PostsService
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, httpClient *http.Client, options ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	c.Users = &UsersService{client: c}
	c.Groups = &GroupsService{client: c}
	c.Attendance = &AttendanceService{client: c}
	c.Packages = &PackagesService{client: c}
	c.Posts = &PostsService{client: c}
	return c
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, path, nil, body, "application/json", out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	body, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPut, path, nil, body, "application/json", out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil, "", nil)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug().Str("method", method).Str("url", target).Msg("Calling backend")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ResponseError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func encodeJSON(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}
