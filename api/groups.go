package api

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-church-portal/users"
)

// groupListLimit fetches every group in one page; the dashboard never paginates groups.
const groupListLimit = "1000"

type GroupsService struct {
	client *Client
}

func (s *GroupsService) List(ctx context.Context) (*users.GroupResponse, error) {
	var resp users.GroupResponse
	if err := s.client.Get(ctx, "/connect-groups", url.Values{"limit": {groupListLimit}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GroupsService) Get(ctx context.Context, id string) (*users.Group, error) {
	var g users.Group
	if err := s.client.Get(ctx, "/connect-groups/"+url.PathEscape(id), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GroupsService) Create(ctx context.Context, g *users.Group) (*users.Group, error) {
	var created users.Group
	if err := s.client.Post(ctx, "/connect-groups", g, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *GroupsService) Update(ctx context.Context, id string, g *users.Group) (*users.Group, error) {
	var updated users.Group
	if err := s.client.Put(ctx, "/connect-groups/"+url.PathEscape(id), g, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *GroupsService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/connect-groups/"+url.PathEscape(id))
}
