package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-church-portal/users"
)

type UsersService struct {
	client *Client
}

// Me resolves the identity behind the current access token.
func (s *UsersService) Me(ctx context.Context) (*users.User, error) {
	var u users.User
	if err := s.client.Get(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UsersService) List(ctx context.Context, page, limit int, search string) (*users.PaginatedResponse[users.User], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	if search != "" {
		query.Set("search", search)
	}

	var resp users.PaginatedResponse[users.User]
	if err := s.client.Get(ctx, "/users", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *UsersService) Get(ctx context.Context, id string) (*users.User, error) {
	var u users.User
	if err := s.client.Get(ctx, "/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UsersService) Create(ctx context.Context, u *users.User) (*users.User, error) {
	var created users.User
	if err := s.client.Post(ctx, "/users", u, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *UsersService) Update(ctx context.Context, id string, u *users.User) (*users.User, error) {
	var updated users.User
	if err := s.client.Put(ctx, "/users/"+url.PathEscape(id), u, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *UsersService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/users/"+url.PathEscape(id))
}
