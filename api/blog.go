package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/go-church-portal/users"
)

type PostStatus string

const (
	PostDraft     PostStatus = "DRAFT"
	PostPublished PostStatus = "PUBLISHED"
)

// Package groups blog posts under one slug, e.g. a sermon series.
type Package struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Posts       []Post    `json:"posts,omitempty"`
	Count       *struct {
		Posts int `json:"posts"`
	} `json:"_count,omitempty"`
}

// PostCount is the number of posts the backend counted for the package.
func (p Package) PostCount() int {
	if p.Count != nil {
		return p.Count.Posts
	}
	return len(p.Posts)
}

type PostAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Post struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Slug          string      `json:"slug"`
	Content       string      `json:"content"`
	Excerpt       string      `json:"excerpt,omitempty"`
	FeaturedImage string      `json:"featured_image,omitempty"`
	Status        PostStatus  `json:"status"`
	PackageID     string      `json:"package_id"`
	Package       *Package    `json:"package,omitempty"`
	AuthorID      string      `json:"author_id"`
	Author        *PostAuthor `json:"author,omitempty"`
	PublishedAt   *time.Time  `json:"published_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// PackageInput is the body of package create and update calls. An empty slug lets the
// backend derive one from the name.
type PackageInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Slug        string `json:"slug,omitempty"`
}

// PostInput is the body of post create and update calls. Content is the editor's HTML.
type PostInput struct {
	Title         string `json:"title,omitempty"`
	Slug          string `json:"slug,omitempty"`
	Content       string `json:"content,omitempty"`
	Excerpt       string `json:"excerpt,omitempty"`
	FeaturedImage string `json:"featured_image,omitempty"`
	PackageID     string `json:"package_id,omitempty"`
}

// PostQuery filters post listings. Zero values are left out of the query.
type PostQuery struct {
	PackageID string
	Status    PostStatus
	AuthorID  string
	Search    string
	Page      int
	Limit     int
}

func (q PostQuery) values() url.Values {
	query := url.Values{}
	set := func(name, value string) {
		if value != "" {
			query.Set(name, value)
		}
	}
	set("package_id", q.PackageID)
	set("status", string(q.Status))
	set("author_id", q.AuthorID)
	set("search", q.Search)
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	return query
}

type PackagesService struct {
	client *Client
}

func (s *PackagesService) List(ctx context.Context) ([]Package, error) {
	var packages []Package
	if err := s.client.Get(ctx, "/packages", nil, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

func (s *PackagesService) Get(ctx context.Context, id string) (*Package, error) {
	var p Package
	if err := s.client.Get(ctx, "/packages/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PackagesService) GetBySlug(ctx context.Context, slug string) (*Package, error) {
	var p Package
	if err := s.client.Get(ctx, "/packages/slug/"+url.PathEscape(slug), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PackagesService) Create(ctx context.Context, in PackageInput) (*Package, error) {
	var created Package
	if err := s.client.Post(ctx, "/packages", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *PackagesService) Update(ctx context.Context, id string, in PackageInput) (*Package, error) {
	var updated Package
	if err := s.client.Put(ctx, "/packages/"+url.PathEscape(id), in, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *PackagesService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/packages/"+url.PathEscape(id))
}

type PostsService struct {
	client *Client
}

// List returns published posts only.
func (s *PostsService) List(ctx context.Context, q PostQuery) (*users.PaginatedResponse[Post], error) {
	return s.list(ctx, "/posts", q)
}

// ListAdmin includes drafts. Admins and writers only.
func (s *PostsService) ListAdmin(ctx context.Context, q PostQuery) (*users.PaginatedResponse[Post], error) {
	return s.list(ctx, "/posts/admin", q)
}

func (s *PostsService) list(ctx context.Context, path string, q PostQuery) (*users.PaginatedResponse[Post], error) {
	var resp users.PaginatedResponse[Post]
	if err := s.client.Get(ctx, path, q.values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PostsService) Get(ctx context.Context, id string) (*Post, error) {
	var p Post
	if err := s.client.Get(ctx, "/posts/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostsService) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	var p Post
	if err := s.client.Get(ctx, "/posts/slug/"+url.PathEscape(slug), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostsService) Create(ctx context.Context, in PostInput) (*Post, error) {
	var created Post
	if err := s.client.Post(ctx, "/posts", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *PostsService) Update(ctx context.Context, id string, in PostInput) (*Post, error) {
	var updated Post
	if err := s.client.Put(ctx, "/posts/"+url.PathEscape(id), in, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *PostsService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/posts/"+url.PathEscape(id))
}

func (s *PostsService) Publish(ctx context.Context, id string) (*Post, error) {
	return s.setStatus(ctx, id, "publish")
}

func (s *PostsService) Unpublish(ctx context.Context, id string) (*Post, error) {
	return s.setStatus(ctx, id, "unpublish")
}

func (s *PostsService) setStatus(ctx context.Context, id, action string) (*Post, error) {
	var p Post
	if err := s.client.send(ctx, http.MethodPatch, "/posts/"+url.PathEscape(id)+"/"+action, nil, nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UploadImage stores an image for use inside post content and returns its URL.
func (s *PostsService) UploadImage(ctx context.Context, name string, image io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := s.client.send(ctx, http.MethodPost, "/posts/upload-image", nil, buf.Bytes(), w.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
